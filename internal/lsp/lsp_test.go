package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

func TestDocumentStore_SetGetDelete(t *testing.T) {
	t.Parallel()

	ds := NewDocumentStore()

	ds.Set("file:///a.utam.json", "{}")

	got, ok := ds.Get("file:///a.utam.json")
	require.True(t, ok)
	assert.Equal(t, "{}", got)

	ds.Delete("file:///a.utam.json")

	_, ok = ds.Get("file:///a.utam.json")
	assert.False(t, ok)
}

func TestToLSPDiagnostic_RangeAndSeverity(t *testing.T) {
	t.Parallel()

	src := source.New("a.utam.json", "{\n  \"root\": true\n}")
	d := diag.New(diag.CodeParseError, "boom", diag.Label{
		Src:  src,
		Span: source.NewSpan(4, 10),
	}).WithHelp("fix it")

	lspDiag := toLSPDiagnostic(src, d)

	assert.Equal(t, uint32(1), lspDiag.Range.Start.Line)
	assert.Equal(t, uint32(2), lspDiag.Range.Start.Character)
	require.NotNil(t, lspDiag.Severity)
	assert.Equal(t, protocol.DiagnosticSeverityError, *lspDiag.Severity)
	assert.Contains(t, lspDiag.Message, "boom")
	assert.Contains(t, lspDiag.Message, "help: fix it")
	require.NotNil(t, lspDiag.Code)
	assert.Equal(t, diag.CodeParseError, lspDiag.Code.Value)
}

func TestExtractWordAtPosition(t *testing.T) {
	t.Parallel()

	text := "{\n  \"returnAll\": true\n}"

	assert.Equal(t, "returnAll", extractWordAtPosition(text, 1, 5))
	assert.Equal(t, "", extractWordAtPosition(text, 9, 0))
	assert.Equal(t, "", extractWordAtPosition(text, -1, 0))
}

func TestHoverDocs_CoverGrammarKeywords(t *testing.T) {
	t.Parallel()

	for _, key := range []string{"root", "selector", "shadow", "matcher", "chain", "beforeLoad"} {
		assert.Contains(t, hoverDocs, key)
	}
}
