package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
)

func TestCompile_MinimalRoot(t *testing.T) {
	t.Parallel()

	code, bundle := Compile(`{"root": true, "selector": {"css": ".app"}, "type": ["clickable"]}`, "app.utam.json")

	require.False(t, bundle.HasErrors())
	assert.Contains(t, code, "pub struct App {")
	assert.Contains(t, code, `const ROOT_SELECTOR: &'static str = ".app";`)
	assert.Contains(t, code, "pub async fn click(&self)")
}

func TestCompile_ParseErrorHaltsPipeline(t *testing.T) {
	t.Parallel()

	code, bundle := Compile(`{"root": true`, "broken.utam.json")

	assert.Empty(t, code)
	require.Equal(t, 1, bundle.Len())
	assert.Equal(t, diag.CodeParseError, bundle.All()[0].Code)
}

func TestCompile_SchemaErrorIsTerminal(t *testing.T) {
	t.Parallel()

	// root: true without selector violates the schema conditional; the
	// semantic stage (which would flag the bogus method element) must not
	// run.
	code, bundle := Compile(`{
		"root": true,
		"methods": [{"name": "m", "compose": [{"element": "ghost", "apply": "click"}]}]
	}`, "x.utam.json")

	assert.Empty(t, code)
	require.True(t, bundle.HasErrors())

	for _, d := range bundle.All() {
		assert.NotEqual(t, diag.CodeUnknownElement, d.Code)
	}
}

func TestCompile_SemanticErrorsCollected(t *testing.T) {
	t.Parallel()

	code, bundle := Compile(`{
		"elements": [
			{"name": "btn", "selector": {"css": ".a"}},
			{"name": "btn", "selector": {"css": ".b"}},
			{"name": "f", "type": "frame", "selector": {"css": "iframe", "returnAll": true}}
		]
	}`, "x.utam.json")

	assert.Empty(t, code)
	assert.Equal(t, 2, bundle.ErrorCount())
}

func TestCompile_UnknownActionScenario(t *testing.T) {
	t.Parallel()

	code, bundle := Compile(`{
		"elements": [{"name": "x", "type": ["editable"], "selector": {"css": ".x"}}],
		"methods": [{"name": "m", "compose": [{"element": "x", "apply": "click"}]}]
	}`, "x.utam.json")

	assert.Empty(t, code)
	require.Equal(t, 1, bundle.Len())

	d := bundle.All()[0]
	assert.Equal(t, diag.CodeUnknownAction, d.Code)
	assert.Contains(t, d.Help, "setText")
}

func TestCompile_CollisionStopsBeforeCodegen(t *testing.T) {
	t.Parallel()

	code, bundle := Compile(`{
		"elements": [
			{"name": "myButton", "selector": {"css": ".a"}},
			{"name": "MyButton", "selector": {"css": ".b"}}
		]
	}`, "x.utam.json")

	assert.Empty(t, code)
	require.Equal(t, 1, bundle.Len())
	assert.Equal(t, diag.CodeIdentifierCollision, bundle.All()[0].Code)
}

func TestCompile_Deterministic(t *testing.T) {
	t.Parallel()

	text := `{
		"root": true,
		"selector": {"css": "login-form"},
		"shadow": {"elements": [
			{"name": "username", "type": ["editable"], "selector": {"css": "input"}, "public": true, "wait": true},
			{"name": "submit", "type": ["clickable"], "selector": {"css": "button"}, "public": true}
		]},
		"methods": [{
			"name": "login",
			"args": [{"name": "user", "type": "string"}],
			"compose": [
				{"element": "username", "apply": "clearAndType", "args": [{"name": "user", "type": "string"}]},
				{"element": "submit", "apply": "click"}
			]
		}]
	}`

	first, firstBundle := Compile(text, "login-form.utam.json")
	second, secondBundle := Compile(text, "login-form.utam.json")

	require.False(t, firstBundle.HasErrors())
	require.False(t, secondBundle.HasErrors())
	assert.Equal(t, first, second, "compile must be byte-for-byte deterministic")
	assert.NotEmpty(t, first)
}

func TestCompile_UnknownFieldsDoNotChangeOutput(t *testing.T) {
	t.Parallel()

	base := `{"root": true, "selector": {"css": ".app"}, "elements": [{"name": "x", "selector": {"css": ".x"}}]}`
	extended := `{"root": true, "selector": {"css": ".app"}, "elements": [{"name": "x", "selector": {"css": ".x"}, "futureFlag": true}], "vendorData": {"a": 1}}`

	baseCode, baseBundle := Compile(base, "app.utam.json")
	extCode, extBundle := Compile(extended, "app.utam.json")

	require.False(t, baseBundle.HasErrors())
	require.False(t, extBundle.HasErrors())
	assert.Equal(t, baseCode, extCode)
}

func TestCompile_StrictModeNotesDoNotBlock(t *testing.T) {
	t.Parallel()

	code, bundle := CompileWithOptions(
		`{"root": true, "selector": {"css": ".app"}, "mystery": 1}`,
		"app.utam.json",
		Options{Strict: true},
	)

	assert.NotEmpty(t, code)
	require.Equal(t, 1, bundle.Len())
	assert.Equal(t, diag.SeverityNote, bundle.All()[0].Severity)
}

func TestValidate_RunsNameMappingStage(t *testing.T) {
	t.Parallel()

	bundle := Validate(`{
		"elements": [
			{"name": "myButton", "selector": {"css": ".a"}},
			{"name": "MyButton", "selector": {"css": ".b"}}
		]
	}`, "x.utam.json", Options{})

	require.Equal(t, 1, bundle.Len())
	assert.Equal(t, diag.CodeIdentifierCollision, bundle.All()[0].Code)
}

func TestCompile_DiagnosticOrderBySpan(t *testing.T) {
	t.Parallel()

	_, bundle := Compile(`{
		"elements": [
			{"name": "f", "type": "frame", "selector": {"css": "iframe", "returnAll": true}},
			{"name": "bad", "type": "frame", "selector": {"css": "x", "returnAll": true}}
		]
	}`, "x.utam.json")

	all := bundle.All()
	require.Len(t, all, 2)
	assert.Less(t, all[0].Primary.Span.Start, all[1].Primary.Span.Start)
}
