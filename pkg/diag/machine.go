package diag

import (
	"encoding/json"
	"fmt"
	"io"
)

// MachineSpan is one labeled span in machine output.
type MachineSpan struct {
	Start int    `json:"start"`
	End   int    `json:"end"`
	Label string `json:"label"`
}

// MachineDiagnostic is the stable JSON shape of one diagnostic.
type MachineDiagnostic struct {
	File     string        `json:"file"`
	Code     string        `json:"code"`
	Severity string        `json:"severity"`
	Message  string        `json:"message"`
	Spans    []MachineSpan `json:"spans"`
	Help     *string       `json:"help"`
}

// Machine converts a diagnostic into its machine representation.
// The primary span always comes first.
func Machine(d *Diagnostic) MachineDiagnostic {
	spans := make([]MachineSpan, 0, 1+len(d.Secondary))
	spans = append(spans, MachineSpan{
		Start: d.Primary.Span.Start,
		End:   d.Primary.Span.End,
		Label: d.Primary.Label,
	})

	for _, sec := range d.Secondary {
		spans = append(spans, MachineSpan{
			Start: sec.Span.Start,
			End:   sec.Span.End,
			Label: sec.Label,
		})
	}

	var help *string
	if d.Help != "" {
		h := d.Help
		help = &h
	}

	return MachineDiagnostic{
		File:     d.origin(),
		Code:     d.Code,
		Severity: d.Severity.String(),
		Message:  d.Message,
		Spans:    spans,
		Help:     help,
	}
}

// MachineAll converts a bundle into the ordered machine representation.
func MachineAll(bundle *Bundle) []MachineDiagnostic {
	out := make([]MachineDiagnostic, 0, bundle.Len())

	for _, d := range bundle.All() {
		out = append(out, Machine(d))
	}

	return out
}

// WriteJSON writes the bundle as a JSON array, one entry per diagnostic.
func WriteJSON(w io.Writer, bundle *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(MachineAll(bundle))
	if err != nil {
		return fmt.Errorf("encode diagnostics: %w", err)
	}

	return nil
}
