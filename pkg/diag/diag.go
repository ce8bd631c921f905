// Package diag is the diagnostic substrate for the compiler: structured
// errors, warnings and notes with labeled byte spans, stable codes, and
// human plus machine rendering.
package diag

import (
	"sort"

	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityError stops the pipeline stage that produced it.
	SeverityError Severity = iota
	// SeverityWarning does not stop compilation.
	SeverityWarning
	// SeverityNote carries auxiliary information, e.g. strict-mode
	// unknown-field reports.
	SeverityNote
)

// String returns the lowercase severity name used in machine output.
func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityNote:
		return "note"
	default:
		return "unknown"
	}
}

// Label is a byte span within a Source with an explanatory string.
type Label struct {
	Src   *source.Source
	Span  source.Span
	Label string
}

// Diagnostic is one structured report. Every diagnostic carries a stable
// code of the form "utam::<snake_identifier>".
type Diagnostic struct {
	Code      string
	Severity  Severity
	Message   string
	Primary   Label
	Secondary []Label
	Help      string
}

// New creates an error-severity diagnostic with a primary label.
func New(code, message string, primary Label) *Diagnostic {
	return &Diagnostic{
		Code:     code,
		Severity: SeverityError,
		Message:  message,
		Primary:  primary,
	}
}

// WithSeverity sets the severity and returns the diagnostic.
func (d *Diagnostic) WithSeverity(sev Severity) *Diagnostic {
	d.Severity = sev

	return d
}

// WithHelp sets the help string and returns the diagnostic.
func (d *Diagnostic) WithHelp(help string) *Diagnostic {
	d.Help = help

	return d
}

// WithSecondary appends a secondary label and returns the diagnostic.
func (d *Diagnostic) WithSecondary(sec Label) *Diagnostic {
	d.Secondary = append(d.Secondary, sec)

	return d
}

// Bundle is an ordered collection of diagnostics.
type Bundle struct {
	diagnostics []*Diagnostic
}

// NewBundle creates an empty Bundle.
func NewBundle() *Bundle {
	return &Bundle{}
}

// Add appends a diagnostic. Nil diagnostics are ignored.
func (b *Bundle) Add(d *Diagnostic) {
	if d == nil {
		return
	}

	b.diagnostics = append(b.diagnostics, d)
}

// Merge appends all diagnostics from other. Nil bundles are ignored.
func (b *Bundle) Merge(other *Bundle) {
	if other == nil {
		return
	}

	b.diagnostics = append(b.diagnostics, other.diagnostics...)
}

// All returns the diagnostics sorted by origin, then by primary span start.
// The sort is stable so same-position diagnostics keep insertion order.
func (b *Bundle) All() []*Diagnostic {
	out := make([]*Diagnostic, len(b.diagnostics))
	copy(out, b.diagnostics)

	sort.SliceStable(out, func(i, j int) bool {
		oi, oj := out[i].origin(), out[j].origin()
		if oi != oj {
			return oi < oj
		}

		return out[i].Primary.Span.Start < out[j].Primary.Span.Start
	})

	return out
}

// Len returns the number of diagnostics in the bundle.
func (b *Bundle) Len() int { return len(b.diagnostics) }

// HasErrors reports whether the bundle contains any error-severity entries.
func (b *Bundle) HasErrors() bool {
	for _, d := range b.diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}

	return false
}

// ErrorCount returns the number of error-severity diagnostics.
func (b *Bundle) ErrorCount() int {
	count := 0

	for _, d := range b.diagnostics {
		if d.Severity == SeverityError {
			count++
		}
	}

	return count
}

func (d *Diagnostic) origin() string {
	if d.Primary.Src == nil {
		return ""
	}

	return d.Primary.Src.Origin()
}
