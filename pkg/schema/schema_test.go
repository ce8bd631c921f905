package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composable-delivery/busbar-sf-utam/pkg/parser"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

func validateText(t *testing.T, text string) (*source.Source, *parser.Result, int) {
	t.Helper()

	src := source.New("test.utam.json", text)
	res := parser.Parse(src)
	require.NotNil(t, res.Tree)

	bundle := Validate(src, res.Tree)

	return src, &res, bundle.Len()
}

func TestValidate_MinimalDocumentPasses(t *testing.T) {
	t.Parallel()

	_, _, errs := validateText(t, `{"root": true, "selector": {"css": ".app"}}`)
	assert.Equal(t, 0, errs)
}

func TestValidate_FullDocumentPasses(t *testing.T) {
	t.Parallel()

	_, _, errs := validateText(t, `{
		"description": {"text": ["Login form"], "author": "qa"},
		"root": true,
		"selector": {"css": "login-form"},
		"shadow": {"elements": [
			{"name": "username", "type": ["editable"], "selector": {"css": "input[name='u']"}}
		]},
		"methods": [
			{"name": "login", "args": [{"name": "u", "type": "string"}],
			 "compose": [{"element": "username", "apply": "clearAndType", "args": [{"name": "u", "type": "string"}]}]}
		]
	}`)
	assert.Equal(t, 0, errs)
}

func TestValidate_ElementMissingName(t *testing.T) {
	t.Parallel()

	src := source.New("test.utam.json", `{"elements": [{"selector": {"css": ".x"}}]}`)
	res := parser.Parse(src)

	bundle := Validate(src, res.Tree)
	require.True(t, bundle.HasErrors())

	d := bundle.All()[0]
	assert.True(t, strings.HasPrefix(d.Code, "utam::schema_"))
	// The span resolves to the element object, not the whole document.
	assert.Equal(t, `{"selector": {"css": ".x"}}`, src.Slice(d.Primary.Span))
}

func TestValidate_WrongTypeForRoot(t *testing.T) {
	t.Parallel()

	src := source.New("test.utam.json", `{"root": "yes"}`)
	res := parser.Parse(src)

	bundle := Validate(src, res.Tree)
	require.True(t, bundle.HasErrors())

	d := bundle.All()[0]
	assert.Equal(t, "utam::schema_invalid_type", d.Code)
	assert.Equal(t, `"yes"`, src.Slice(d.Primary.Span))
}

func TestValidate_UnknownFieldsAccepted(t *testing.T) {
	t.Parallel()

	_, _, errs := validateText(t, `{"root": true, "selector": {"css": ".a"}, "futureFeature": {"x": 1}}`)
	assert.Equal(t, 0, errs)
}

func TestValidate_MatcherRequiresType(t *testing.T) {
	t.Parallel()

	src := source.New("test.utam.json", `{"methods": [{"name": "m", "compose": [{"element": "x", "apply": "getText", "matcher": {"args": []}}]}]}`)
	res := parser.Parse(src)

	bundle := Validate(src, res.Tree)
	assert.True(t, bundle.HasErrors())
}
