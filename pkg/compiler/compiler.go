// Package compiler is the pipeline driver: parse, schema-validate,
// semantic-validate, name-map, generate. It stops at the first stage that
// produces errors and returns everything collected up to that point.
package compiler

import (
	"github.com/composable-delivery/busbar-sf-utam/pkg/codegen"
	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/names"
	"github.com/composable-delivery/busbar-sf-utam/pkg/parser"
	"github.com/composable-delivery/busbar-sf-utam/pkg/schema"
	"github.com/composable-delivery/busbar-sf-utam/pkg/semantic"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// Options tunes one compile run.
type Options struct {
	// Strict surfaces unknown JSON fields as note diagnostics.
	Strict bool
	// EagerChildLoad switches "load": true elements to eager invocation
	// inside the generated load().
	EagerChildLoad bool
}

// Compile transforms page-object JSON into Rust source text. The returned
// bundle carries every diagnostic produced; generation succeeded when the
// bundle has no error-severity entries. A compile run is a pure function
// of its input and is safe to invoke concurrently with disjoint inputs.
func Compile(text, origin string) (string, *diag.Bundle) {
	return CompileWithOptions(text, origin, Options{})
}

// CompileWithOptions is Compile with explicit options.
func CompileWithOptions(text, origin string, opts Options) (string, *diag.Bundle) {
	src := source.New(origin, text)
	bundle := diag.NewBundle()

	res := parser.ParseWithOptions(src, parser.Options{Strict: opts.Strict})
	bundle.Merge(res.Bundle)

	if res.Doc == nil || bundle.HasErrors() {
		return "", bundle
	}

	schemaBundle := schema.Validate(src, res.Tree)
	bundle.Merge(schemaBundle)

	if schemaBundle.HasErrors() {
		return "", bundle
	}

	semanticBundle := semantic.Validate(src, res.Doc)
	bundle.Merge(semanticBundle)

	if semanticBundle.HasErrors() {
		return "", bundle
	}

	nameMap, nameBundle := names.Build(src, res.Doc)
	bundle.Merge(nameBundle)

	if nameBundle.HasErrors() {
		return "", bundle
	}

	code, err := codegen.Generate(src, res.Doc, nameMap, codegen.Options{
		EagerChildLoad: opts.EagerChildLoad,
	})
	if err != nil {
		bundle.Add(diag.New(diag.CodeInternal, err.Error(), diag.Label{
			Src:   src,
			Span:  res.Doc.Span,
			Label: "while generating code for this document",
		}).WithHelp("this is a compiler bug; the document itself validated cleanly"))

		return "", bundle
	}

	return code, bundle
}

// Validate runs every stage short of code generation and returns the
// collected diagnostics.
func Validate(text, origin string, opts Options) *diag.Bundle {
	src := source.New(origin, text)
	bundle := diag.NewBundle()

	res := parser.ParseWithOptions(src, parser.Options{Strict: opts.Strict})
	bundle.Merge(res.Bundle)

	if res.Doc == nil || bundle.HasErrors() {
		return bundle
	}

	schemaBundle := schema.Validate(src, res.Tree)
	bundle.Merge(schemaBundle)

	if schemaBundle.HasErrors() {
		return bundle
	}

	bundle.Merge(semantic.Validate(src, res.Doc))

	_, nameBundle := names.Build(src, res.Doc)
	bundle.Merge(nameBundle)

	return bundle
}
