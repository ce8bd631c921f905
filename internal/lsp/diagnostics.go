package lsp

import (
	protocol "github.com/tliron/glsp/protocol_3_16"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// sourceName tags diagnostics in the editor UI.
const sourceName = "utam"

// toLSPDiagnostic converts one compiler diagnostic to the protocol shape.
// LSP positions are zero-based line/character pairs.
func toLSPDiagnostic(src *source.Source, d *diag.Diagnostic) protocol.Diagnostic {
	severity := severityOf(d.Severity)
	src2 := sourceName
	message := d.Message

	if d.Help != "" {
		message += "\nhelp: " + d.Help
	}

	code := protocol.IntegerOrString{Value: d.Code}

	return protocol.Diagnostic{
		Range:    rangeOf(src, d.Primary.Span),
		Severity: &severity,
		Code:     &code,
		Source:   &src2,
		Message:  message,
	}
}

func severityOf(sev diag.Severity) protocol.DiagnosticSeverity {
	switch sev {
	case diag.SeverityError:
		return protocol.DiagnosticSeverityError
	case diag.SeverityWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.SeverityNote:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

func rangeOf(src *source.Source, span source.Span) protocol.Range {
	startLine, startCol := src.Position(span.Start)
	endLine, endCol := src.Position(span.End)

	return protocol.Range{
		Start: protocol.Position{
			Line:      uint32(startLine - 1),
			Character: uint32(startCol - 1),
		},
		End: protocol.Position{
			Line:      uint32(endLine - 1),
			Character: uint32(endCol - 1),
		},
	}
}
