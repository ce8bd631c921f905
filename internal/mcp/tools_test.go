package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewServer_RegistersTools(t *testing.T) {
	t.Parallel()

	srv := NewServer(ServerDeps{})

	assert.Equal(t, []string{ToolNameCompile, ToolNameValidate}, srv.ListToolNames())
}

func TestHandleCompile_Success(t *testing.T) {
	t.Parallel()

	result, output, err := handleCompile(context.Background(), nil, CompileInput{
		Document: `{"root": true, "selector": {"css": ".app"}}`,
		Origin:   "app.utam.json",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.False(t, result.IsError)

	payload, ok := output.Data.(CompileOutput)
	require.True(t, ok)
	assert.True(t, payload.Success)
	assert.Contains(t, payload.Code, "pub struct App {")
}

func TestHandleCompile_Diagnostics(t *testing.T) {
	t.Parallel()

	_, output, err := handleCompile(context.Background(), nil, CompileInput{
		Document: `{"root": true`,
	})

	require.NoError(t, err)

	payload, ok := output.Data.(CompileOutput)
	require.True(t, ok)
	assert.False(t, payload.Success)
	require.NotEmpty(t, payload.Diagnostics)
	assert.Equal(t, "utam::parse_error", payload.Diagnostics[0].Code)
	assert.Equal(t, "<mcp>", payload.Diagnostics[0].File)
}

func TestHandleCompile_EmptyDocument(t *testing.T) {
	t.Parallel()

	result, _, err := handleCompile(context.Background(), nil, CompileInput{})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.IsError)
}

func TestHandleCompile_OversizedDocument(t *testing.T) {
	t.Parallel()

	result, _, err := handleCompile(context.Background(), nil, CompileInput{
		Document: strings.Repeat("x", MaxDocumentBytes+1),
	})

	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleValidate_ReturnsDiagnosticsOnly(t *testing.T) {
	t.Parallel()

	_, output, err := handleValidate(context.Background(), nil, ValidateInput{
		Document: `{"elements": [{"name": "f", "type": "frame", "selector": {"css": "iframe", "returnAll": true}}]}`,
		Origin:   "frames.utam.json",
	})

	require.NoError(t, err)

	payload, ok := output.Data.(CompileOutput)
	require.True(t, ok)
	assert.False(t, payload.Success)
	assert.Empty(t, payload.Code)
	require.Len(t, payload.Diagnostics, 1)
	assert.Equal(t, "utam::frame_return_all", payload.Diagnostics[0].Code)
}
