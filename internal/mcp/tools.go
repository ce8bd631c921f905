package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/composable-delivery/busbar-sf-utam/pkg/compiler"
	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
)

// Tool name constants.
const (
	ToolNameCompile  = "utam_compile"
	ToolNameValidate = "utam_validate"
)

const (
	compileToolDescription = "Compile a UTAM page-object JSON document into Rust source code. " +
		"Returns the generated code, or the diagnostics when compilation fails."

	validateToolDescription = "Validate a UTAM page-object JSON document without generating code. " +
		"Returns the full diagnostic list with byte spans."
)

// MaxDocumentBytes is the maximum allowed size for an inline document (1 MB).
const MaxDocumentBytes = 1 << 20

// Sentinel errors for tool input validation.
var (
	// ErrEmptyDocument indicates the document parameter is empty.
	ErrEmptyDocument = errors.New("document parameter is required and must not be empty")
	// ErrDocumentTooLarge indicates the document exceeds the size limit.
	ErrDocumentTooLarge = errors.New("document input exceeds maximum size")
)

// CompileInput is the input schema for the utam_compile tool.
type CompileInput struct {
	Document string `json:"document"         jsonschema:"UTAM page-object JSON to compile"`
	Origin   string `json:"origin,omitempty" jsonschema:"origin name used for the generated type (e.g. login-form.utam.json)"`
	Strict   bool   `json:"strict,omitempty" jsonschema:"report unknown fields as notes"`
}

// ValidateInput is the input schema for the utam_validate tool.
type ValidateInput struct {
	Document string `json:"document"         jsonschema:"UTAM page-object JSON to validate"`
	Origin   string `json:"origin,omitempty" jsonschema:"origin name reported in diagnostics"`
	Strict   bool   `json:"strict,omitempty" jsonschema:"report unknown fields as notes"`
}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// CompileOutput is the structured payload of a compile call.
type CompileOutput struct {
	Code        string                   `json:"code,omitempty"`
	Diagnostics []diag.MachineDiagnostic `json:"diagnostics"`
	Success     bool                     `json:"success"`
}

// handleCompile processes utam_compile tool calls.
func handleCompile(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input CompileInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateDocumentInput(input.Document)
	if err != nil {
		return errorResult(err)
	}

	code, bundle := compiler.CompileWithOptions(input.Document, originOrDefault(input.Origin), compiler.Options{
		Strict: input.Strict,
	})

	return jsonResult(CompileOutput{
		Code:        code,
		Diagnostics: diag.MachineAll(bundle),
		Success:     !bundle.HasErrors(),
	})
}

// handleValidate processes utam_validate tool calls.
func handleValidate(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input ValidateInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	err := validateDocumentInput(input.Document)
	if err != nil {
		return errorResult(err)
	}

	bundle := compiler.Validate(input.Document, originOrDefault(input.Origin), compiler.Options{
		Strict: input.Strict,
	})

	return jsonResult(CompileOutput{
		Diagnostics: diag.MachineAll(bundle),
		Success:     !bundle.HasErrors(),
	})
}

func validateDocumentInput(document string) error {
	if document == "" {
		return ErrEmptyDocument
	}

	if len(document) > MaxDocumentBytes {
		return fmt.Errorf("%w: %d bytes", ErrDocumentTooLarge, len(document))
	}

	return nil
}

func originOrDefault(origin string) string {
	if origin == "" {
		return "<mcp>"
	}

	return origin
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}
