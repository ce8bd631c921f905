// Package schema validates the parsed JSON value of a page-object document
// against the bundled JSON schema, before semantic validation runs.
// Violations become diagnostics whose spans are looked up from the parsed
// value tree via the schema instance path.
package schema

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/parser"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// pageObjectSchema is the embedded UTAM page-object JSON schema.
//
//go:embed utam-page-object.schema.json
var pageObjectSchema []byte

//nolint:gochecknoglobals // schema is a compile-time constant, compiled once per process.
var (
	compiledSchema *gojsonschema.Schema
	compileErr     error
	compileOnce    sync.Once
)

func compiled() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(pageObjectSchema))
		if compileErr != nil {
			compileErr = fmt.Errorf("compile bundled schema: %w", compileErr)
		}
	})

	return compiledSchema, compileErr
}

// rootField is gojsonschema's field name for violations at the document root.
const rootField = "(root)"

// Validate checks the parsed value tree against the bundled schema and
// returns a bundle of utam::schema_* diagnostics, empty when the document
// conforms. Errors here are terminal for the pipeline; semantic validation
// is skipped.
func Validate(src *source.Source, tree *parser.Value) *diag.Bundle {
	bundle := diag.NewBundle()

	sch, err := compiled()
	if err != nil {
		bundle.Add(diag.New(diag.CodeInternal, err.Error(), diag.Label{Src: src}))

		return bundle
	}

	result, err := sch.Validate(gojsonschema.NewGoLoader(tree.Interface()))
	if err != nil {
		bundle.Add(diag.New(diag.CodeInternal, fmt.Sprintf("schema validation: %v", err), diag.Label{Src: src}))

		return bundle
	}

	if result.Valid() {
		return bundle
	}

	for _, verr := range result.Errors() {
		bundle.Add(translate(src, tree, verr))
	}

	return bundle
}

func translate(src *source.Source, tree *parser.Value, verr gojsonschema.ResultError) *diag.Diagnostic {
	span := spanForField(tree, verr.Field())

	code := diag.SchemaCodePrefix + verr.Type()

	msg := verr.Description()
	if verr.Field() != rootField {
		msg = fmt.Sprintf("%s: %s", verr.Field(), verr.Description())
	}

	return diag.New(code, msg, diag.Label{
		Src:   src,
		Span:  span,
		Label: "does not match the page-object schema",
	}).WithHelp(helpFor(verr))
}

// spanForField resolves a dotted gojsonschema field path to the span of the
// addressed value; unresolvable paths fall back to the document span.
func spanForField(tree *parser.Value, field string) source.Span {
	if field == rootField || field == "" {
		return tree.Span
	}

	hit := tree.Lookup(strings.Split(field, "."))
	if hit == nil {
		return tree.Span
	}

	return hit.Span
}

func helpFor(verr gojsonschema.ResultError) string {
	switch verr.Type() {
	case "required":
		return "add the missing field"
	case "invalid_type":
		return "change the value to the expected JSON type"
	case "number_one_of", "one_of":
		return "the value must match exactly one of the allowed shapes"
	case "array_min_items":
		return "the array needs at least one entry"
	default:
		return ""
	}
}
