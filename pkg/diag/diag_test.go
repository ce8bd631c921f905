package diag

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

func testSource() *source.Source {
	return source.New("login.utam.json", `{"root": true, "selector": {"css": ".app"}}`)
}

func TestBundle_OrdersByPrimarySpanStart(t *testing.T) {
	t.Parallel()

	src := testSource()
	bundle := NewBundle()
	bundle.Add(New("utam::selector_shape", "second", Label{Src: src, Span: source.NewSpan(20, 25)}))
	bundle.Add(New("utam::parse_error", "first", Label{Src: src, Span: source.NewSpan(1, 7)}))

	all := bundle.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].Message)
	assert.Equal(t, "second", all[1].Message)
}

func TestBundle_HasErrors(t *testing.T) {
	t.Parallel()

	src := testSource()
	bundle := NewBundle()

	assert.False(t, bundle.HasErrors())

	bundle.Add(New("utam::unknown_field", "note only", Label{Src: src}).WithSeverity(SeverityNote))
	assert.False(t, bundle.HasErrors())

	bundle.Add(New("utam::duplicate_element", "boom", Label{Src: src}))
	assert.True(t, bundle.HasErrors())
	assert.Equal(t, 1, bundle.ErrorCount())
}

func TestBundle_MergeAndNilSafety(t *testing.T) {
	t.Parallel()

	src := testSource()

	a := NewBundle()
	a.Add(New("utam::internal", "x", Label{Src: src}))
	a.Add(nil)

	b := NewBundle()
	b.Merge(a)
	b.Merge(nil)

	assert.Equal(t, 1, b.Len())
}

func TestMachine_Shape(t *testing.T) {
	t.Parallel()

	src := testSource()
	d := New("utam::duplicate_element", `duplicate element name "btn"`, Label{
		Src:   src,
		Span:  source.NewSpan(10, 15),
		Label: "second declaration",
	}).
		WithSecondary(Label{Src: src, Span: source.NewSpan(2, 7), Label: "first declaration"}).
		WithHelp("rename one of the elements")

	m := Machine(d)

	assert.Equal(t, "login.utam.json", m.File)
	assert.Equal(t, "utam::duplicate_element", m.Code)
	assert.Equal(t, "error", m.Severity)
	require.Len(t, m.Spans, 2)
	assert.Equal(t, 10, m.Spans[0].Start)
	assert.Equal(t, "first declaration", m.Spans[1].Label)
	require.NotNil(t, m.Help)
	assert.Equal(t, "rename one of the elements", *m.Help)
}

func TestMachine_NilHelp(t *testing.T) {
	t.Parallel()

	d := New("utam::parse_error", "bad json", Label{Src: testSource()})

	m := Machine(d)
	assert.Nil(t, m.Help)
}

func TestWriteJSON_RoundTrips(t *testing.T) {
	t.Parallel()

	src := testSource()
	bundle := NewBundle()
	bundle.Add(New("utam::selector_params", "expected 2 args, found 1", Label{
		Src:  src,
		Span: source.NewSpan(15, 42),
	}))

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, bundle))

	var decoded []MachineDiagnostic
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "utam::selector_params", decoded[0].Code)
}

func TestRenderer_UnderlinesPrimarySpan(t *testing.T) {
	t.Parallel()

	prev := color.NoColor
	color.NoColor = true

	defer func() { color.NoColor = prev }()

	src := testSource()
	bundle := NewBundle()
	bundle.Add(New("utam::parse_error", "malformed JSON", Label{
		Src:   src,
		Span:  source.NewSpan(1, 7),
		Label: "here",
	}).WithHelp("check for a missing comma"))

	var buf bytes.Buffer
	NewRenderer(&buf).Render(bundle)

	out := buf.String()
	assert.Contains(t, out, "error[utam::parse_error]: malformed JSON")
	assert.Contains(t, out, "login.utam.json:1:2")
	assert.Contains(t, out, "^^^^^^ here")
	assert.Contains(t, out, "help: check for a missing comma")
}

func TestRenderer_NoteSeverity(t *testing.T) {
	t.Parallel()

	prev := color.NoColor
	color.NoColor = true

	defer func() { color.NoColor = prev }()

	src := testSource()
	bundle := NewBundle()
	bundle.Add(New("utam::unknown_field", `unknown field "extra"`, Label{
		Src:  src,
		Span: source.NewSpan(1, 7),
	}).WithSeverity(SeverityNote))

	var buf bytes.Buffer
	NewRenderer(&buf).Render(bundle)

	assert.True(t, strings.HasPrefix(buf.String(), "note[utam::unknown_field]"))
}
