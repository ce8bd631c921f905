package parser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

func parseDoc(t *testing.T, text string) Result {
	t.Helper()

	return Parse(source.New("test.utam.json", text))
}

func TestParse_MinimalRoot(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{"root": true, "selector": {"css": ".app"}, "type": ["clickable"]}`)

	require.NotNil(t, res.Doc)
	assert.False(t, res.Bundle.HasErrors())
	assert.True(t, res.Doc.Root.Value)
	require.NotNil(t, res.Doc.Selector)

	text, ok := res.Doc.Selector.Text()
	require.True(t, ok)
	assert.Equal(t, ".app", text.Value)

	require.Len(t, res.Doc.ActionTypes, 1)
	assert.Equal(t, "clickable", res.Doc.ActionTypes[0].Value)
}

func TestParse_MalformedJSON(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{"root": true,,}`)

	assert.Nil(t, res.Doc)
	require.Equal(t, 1, res.Bundle.Len())

	d := res.Bundle.All()[0]
	assert.Equal(t, diag.CodeParseError, d.Code)
	assert.Positive(t, d.Primary.Span.Len())
}

func TestParse_TopLevelNotObject(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `[1, 2, 3]`)

	assert.Nil(t, res.Doc)
	assert.True(t, res.Bundle.HasErrors())
}

func TestParse_TrailingContent(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{} {}`)

	assert.Nil(t, res.Doc)
	assert.True(t, res.Bundle.HasErrors())
}

func TestParse_SpansCoverNodes(t *testing.T) {
	t.Parallel()

	text := `{"root": true, "selector": {"css": ".app"}}`
	res := parseDoc(t, text)

	require.NotNil(t, res.Doc)
	assert.Equal(t, source.NewSpan(0, len(text)), res.Doc.Span)

	src := source.New("x", text)
	sel := res.Doc.Selector
	assert.Equal(t, `{"css": ".app"}`, src.Slice(sel.Span))

	selText, _ := sel.Text()
	assert.Equal(t, `".app"`, src.Slice(selText.Span))
}

func TestParse_UnknownFieldsIgnoredByDefault(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{"root": true, "selector": {"css": ".a"}, "futureFeature": 42}`)

	require.NotNil(t, res.Doc)
	assert.Equal(t, 0, res.Bundle.Len())
}

func TestParse_UnknownFieldsNotedInStrictMode(t *testing.T) {
	t.Parallel()

	src := source.New("test.utam.json", `{"root": true, "selector": {"css": ".a"}, "futureFeature": 42}`)
	res := ParseWithOptions(src, Options{Strict: true})

	require.NotNil(t, res.Doc)
	require.Equal(t, 1, res.Bundle.Len())

	d := res.Bundle.All()[0]
	assert.Equal(t, diag.CodeUnknownField, d.Code)
	assert.Equal(t, diag.SeverityNote, d.Severity)
	assert.False(t, res.Bundle.HasErrors())
}

func TestParse_ElementTree(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{
		"root": true,
		"selector": {"css": ".form"},
		"elements": [
			{"name": "submitButton", "type": ["clickable"], "selector": {"css": "button"}, "public": true},
			{"name": "row", "selector": {"css": ".row", "returnAll": true}, "nullable": true, "wait": true}
		]
	}`)

	require.NotNil(t, res.Doc)
	require.Len(t, res.Doc.Elements, 2)

	first := res.Doc.Elements[0]
	assert.Equal(t, "submitButton", first.Name.Value)
	assert.True(t, first.Public.Value)
	require.NotNil(t, first.Type)
	assert.Equal(t, grammar.KindCapabilities, first.Type.Kind)

	second := res.Doc.Elements[1]
	assert.Nil(t, second.Type)
	assert.True(t, second.Nullable.Value)
	assert.True(t, second.GenerateWait.Value)
	assert.True(t, second.Selector.ReturnAll.Value)
}

func TestParse_ElementTypeDispatch(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		json string
		kind grammar.ElementTypeKind
	}{
		{"array", `["clickable", "editable"]`, grammar.KindCapabilities},
		{"single tag", `"editable"`, grammar.KindCapabilities},
		{"container", `"container"`, grammar.KindContainer},
		{"frame", `"frame"`, grammar.KindFrame},
		{"custom", `"pkg/pageObjects/nav/my-widget"`, grammar.KindCustom},
		{"garbage", `"bogus"`, grammar.KindError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			res := parseDoc(t, `{"elements": [{"name": "x", "type": `+tc.json+`, "selector": {"css": ".x"}}]}`)
			require.NotNil(t, res.Doc)
			require.Len(t, res.Doc.Elements, 1)
			require.NotNil(t, res.Doc.Elements[0].Type)
			assert.Equal(t, tc.kind, res.Doc.Elements[0].Type.Kind)
		})
	}
}

func TestParse_InvalidElementTypeEmitsDiagnostic(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{"elements": [{"name": "x", "type": "bogus", "selector": {"css": ".x"}}]}`)

	require.NotNil(t, res.Doc)
	require.Equal(t, 1, res.Bundle.Len())
	assert.Equal(t, diag.CodeInvalidElementType, res.Bundle.All()[0].Code)
}

func TestParse_ShadowNesting(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{
		"root": true,
		"selector": {"css": "my-app"},
		"shadow": {
			"elements": [
				{"name": "inner", "selector": {"css": ".x"},
				 "shadow": {"elements": [{"name": "leaf", "selector": {"css": ".leaf"}}]}}
			]
		}
	}`)

	require.NotNil(t, res.Doc)
	require.NotNil(t, res.Doc.Shadow)
	require.Len(t, res.Doc.Shadow.Elements, 1)

	inner := res.Doc.Shadow.Elements[0]
	require.NotNil(t, inner.Shadow)
	require.Len(t, inner.Shadow.Elements, 1)
	assert.Equal(t, "leaf", inner.Shadow.Elements[0].Name.Value)
}

func TestParse_MethodsAndCompose(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{
		"methods": [{
			"name": "login",
			"args": [{"name": "username", "type": "string"}],
			"compose": [
				{"element": "usernameInput", "apply": "clearAndType",
				 "args": [{"name": "username", "type": "string"}]},
				{"element": "submitButton", "apply": "click"},
				{"apply": "getText", "chain": true, "matcher": {"type": "stringContains", "args": ["Welcome"]}}
			]
		}]
	}`)

	require.NotNil(t, res.Doc)
	require.Len(t, res.Doc.Methods, 1)

	m := res.Doc.Methods[0]
	assert.Equal(t, "login", m.Name.Value)
	require.Len(t, m.Args, 1)
	require.Len(t, m.Compose, 3)

	first := m.Compose[0]
	require.NotNil(t, first.Element)
	assert.Equal(t, "usernameInput", first.Element.Value)
	require.Len(t, first.Args, 1)
	assert.Equal(t, grammar.ArgReference, first.Args[0].Kind)

	last := m.Compose[2]
	assert.True(t, last.Chain.Value)
	require.NotNil(t, last.Matcher)
	assert.Equal(t, grammar.MatcherStringContains, last.Matcher.Kind)
	require.Len(t, last.Matcher.Args, 1)
	assert.Equal(t, grammar.ArgLiteralString, last.Matcher.Args[0].Kind)
}

func TestParse_ComposeArgShapes(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{
		"methods": [{
			"name": "m",
			"compose": [{
				"element": "x", "apply": "containsElement",
				"args": ["literal", 5, true, {"name": "ref", "type": "string"}, {"css": ".inline"}]
			}]
		}]
	}`)

	require.NotNil(t, res.Doc)

	args := res.Doc.Methods[0].Compose[0].Args
	require.Len(t, args, 5)
	assert.Equal(t, grammar.ArgLiteralString, args[0].Kind)
	assert.Equal(t, grammar.ArgLiteralNumber, args[1].Kind)
	assert.Equal(t, grammar.ArgLiteralBool, args[2].Kind)
	assert.Equal(t, grammar.ArgReference, args[3].Kind)
	assert.Equal(t, grammar.ArgSelector, args[4].Kind)
	require.NotNil(t, args[4].Selector)
}

func TestParse_DescriptionForms(t *testing.T) {
	t.Parallel()

	simple := parseDoc(t, `{"description": "A page"}`)
	require.NotNil(t, simple.Doc.Description)
	assert.True(t, simple.Doc.Description.Simple)
	assert.Equal(t, []string{"A page"}, simple.Doc.Description.Lines())

	detailed := parseDoc(t, `{"description": {"text": ["Line 1", "Line 2"], "author": "QA", "return": "the thing"}}`)
	require.NotNil(t, detailed.Doc.Description)
	assert.False(t, detailed.Doc.Description.Simple)
	assert.Equal(t, []string{"Line 1", "Line 2"}, detailed.Doc.Description.Lines())
	require.NotNil(t, detailed.Doc.Description.Author)
	assert.Equal(t, "QA", detailed.Doc.Description.Author.Value)
	require.NotNil(t, detailed.Doc.Description.Return)
}

func TestParse_FilterForms(t *testing.T) {
	t.Parallel()

	full := parseDoc(t, `{"elements": [{
		"name": "rows",
		"selector": {"css": ".row", "returnAll": true},
		"filter": {"find": {"apply": "getText"}, "match": {"type": "stringEquals", "args": ["target"]}, "findFirst": true}
	}]}`)

	f := full.Doc.Elements[0].Filter
	require.NotNil(t, f)
	require.NotNil(t, f.Find)
	require.NotNil(t, f.Match)
	assert.True(t, f.FindFirst.Value)

	legacy := parseDoc(t, `{"elements": [{
		"name": "rows",
		"selector": {"css": ".row", "returnAll": true},
		"filter": {"matcher": {"type": "isTrue"}}
	}]}`)

	require.NotNil(t, legacy.Doc.Elements[0].Filter.Match)
	assert.Equal(t, grammar.MatcherIsTrue, legacy.Doc.Elements[0].Filter.Match.Kind)
}

func TestParse_ReturnAllKeySpanPointsAtKey(t *testing.T) {
	t.Parallel()

	text := `{"elements": [{"name": "f", "type": "frame", "selector": {"css": "iframe", "returnAll": true}}]}`
	res := parseDoc(t, text)

	sel := res.Doc.Elements[0].Selector
	require.True(t, sel.ReturnAll.Value)

	src := source.New("x", text)
	assert.Equal(t, `"returnAll"`, src.Slice(sel.ReturnAll.Span))
}

func TestParse_StringEscapes(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{"description": "tab\there é \"quoted\""}`)

	require.NotNil(t, res.Doc.Description)
	assert.Equal(t, "tab\there é \"quoted\"", res.Doc.Description.Lines()[0])
}

func TestParse_BeforeLoad(t *testing.T) {
	t.Parallel()

	res := parseDoc(t, `{"beforeLoad": [{"apply": "isPresent", "matcher": {"type": "isTrue"}}]}`)

	require.Len(t, res.Doc.BeforeLoad, 1)
	require.NotNil(t, res.Doc.BeforeLoad[0].Matcher)
}

func TestValue_Lookup(t *testing.T) {
	t.Parallel()

	src := source.New("x", `{"elements": [{"name": "a"}, {"name": "b", "selector": {"css": ".b"}}]}`)

	tree, err := parseTree(src)
	require.NoError(t, err)

	hit := tree.Lookup([]string{"elements", "1", "selector", "css"})
	require.NotNil(t, hit)
	assert.Equal(t, ".b", hit.Str)

	assert.Nil(t, tree.Lookup([]string{"elements", "7"}))
	assert.Nil(t, tree.Lookup([]string{"nope"}))
}

func TestValue_Interface(t *testing.T) {
	t.Parallel()

	src := source.New("x", `{"a": [1, true, "s", null]}`)

	tree, err := parseTree(src)
	require.NoError(t, err)

	got := tree.Interface()
	want := map[string]any{"a": []any{float64(1), true, "s", nil}}
	assert.Equal(t, want, got)
}

func TestParse_LargeDocumentDoesNotReorder(t *testing.T) {
	t.Parallel()

	var sb strings.Builder

	sb.WriteString(`{"elements": [`)

	names := []string{"zeta", "alpha", "mu", "beta"}
	for i, n := range names {
		if i > 0 {
			sb.WriteString(",")
		}

		sb.WriteString(`{"name": "` + n + `", "selector": {"css": ".x"}}`)
	}

	sb.WriteString(`]}`)

	res := parseDoc(t, sb.String())
	require.Len(t, res.Doc.Elements, len(names))

	for i, n := range names {
		assert.Equal(t, n, res.Doc.Elements[i].Name.Value)
	}
}
