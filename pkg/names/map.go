package names

import (
	"errors"
	"fmt"
	"strings"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// Component-reference parse failures.
var (
	ErrComponentPathShape   = errors.New("component path must be pkg/pageObjects/.../name")
	ErrComponentPathMarker  = errors.New("component path must contain exactly one pageObjects segment")
	ErrComponentPathPackage = errors.New("component path package must not be empty")
	ErrComponentPathName    = errors.New("component path name must not be empty")
)

// pageObjectsMarker separates the package prefix from the module path.
const pageObjectsMarker = "pageObjects"

// ParseComponentRef splits a slash-delimited custom-component path into
// (package, path segments, name). The path must contain exactly one
// "pageObjects" segment with a non-empty package before it and a non-empty
// name at the end.
func ParseComponentRef(path string) (grammar.ComponentRef, error) {
	parts := strings.Split(path, "/")

	markerIdx := -1

	for i, part := range parts {
		if part == pageObjectsMarker {
			if markerIdx >= 0 {
				return grammar.ComponentRef{}, ErrComponentPathMarker
			}

			markerIdx = i
		}
	}

	if markerIdx < 0 {
		return grammar.ComponentRef{}, ErrComponentPathMarker
	}

	if markerIdx == 0 || strings.Join(parts[:markerIdx], "") == "" {
		return grammar.ComponentRef{}, ErrComponentPathPackage
	}

	if markerIdx == len(parts)-1 || parts[len(parts)-1] == "" {
		return grammar.ComponentRef{}, ErrComponentPathName
	}

	for _, part := range parts {
		if part == "" {
			return grammar.ComponentRef{}, ErrComponentPathShape
		}
	}

	return grammar.ComponentRef{
		Package:  strings.Join(parts[:markerIdx], "/"),
		Segments: parts[markerIdx+1 : len(parts)-1],
		Name:     parts[len(parts)-1],
	}, nil
}

// ComponentTypeName returns the PascalCase type identifier of a reference.
func ComponentTypeName(ref grammar.ComponentRef) string {
	return PascalCase(ref.Name)
}

// ComponentModulePath returns the "::"-joined module path of a reference:
// package first, then the intermediate segments.
func ComponentModulePath(ref grammar.ComponentRef) string {
	segs := make([]string, 0, 1+len(ref.Segments))
	segs = append(segs, strings.ReplaceAll(SnakeCase(ref.Package), "-", "_"))

	for _, s := range ref.Segments {
		segs = append(segs, strings.ReplaceAll(SnakeCase(s), "-", "_"))
	}

	return strings.Join(segs, "::")
}

// Map is the frozen grammar-name to target-identifier mapping consumed by
// the code generator.
type Map struct {
	// TypeName is the generated page-object type identifier.
	TypeName string

	accessors map[string]string
	waits     map[string]string
	methods   map[string]string
}

// Accessor returns the getter identifier for an element grammar name.
func (m *Map) Accessor(element string) string { return m.accessors[element] }

// Wait returns the wait-method identifier for an element grammar name.
func (m *Map) Wait(element string) string { return m.waits[element] }

// Method returns the identifier for a method grammar name.
func (m *Map) Method(method string) string { return m.methods[method] }

// owner tracks which grammar name claimed a target identifier first.
type owner struct {
	grammarName string
	span        source.Span
}

// Build derives the name map for a document. Collisions between distinct
// grammar names that map to the same emitted identifier produce
// utam::identifier_collision diagnostics labeling both declarations.
func Build(src *source.Source, doc *grammar.Document) (*Map, *diag.Bundle) {
	bundle := diag.NewBundle()
	m := &Map{
		TypeName:  TypeNameForOrigin(src.Origin()),
		accessors: make(map[string]string),
		waits:     make(map[string]string),
		methods:   make(map[string]string),
	}

	claimed := make(map[string]owner)

	claim := func(target, grammarName string, span source.Span) {
		prev, exists := claimed[target]
		if exists && prev.grammarName != grammarName {
			bundle.Add(diag.New(diag.CodeIdentifierCollision,
				fmt.Sprintf("%q and %q both map to generated identifier %q", prev.grammarName, grammarName, target),
				diag.Label{Src: src, Span: span, Label: "maps to " + target}).
				WithSecondary(diag.Label{Src: src, Span: prev.span, Label: "first mapped here"}).
				WithHelp("rename one of them so the generated identifiers differ"))

			return
		}

		claimed[target] = owner{grammarName: grammarName, span: span}
	}

	walkElements(collectAll(doc), func(el *grammar.Element) {
		if el.Name.Value == "" {
			return
		}

		acc := AccessorName(el.Name.Value)
		m.accessors[el.Name.Value] = acc
		claim(acc, el.Name.Value, el.Name.Span)

		if el.GenerateWait.Value {
			wait := WaitName(el.Name.Value)
			m.waits[el.Name.Value] = wait
			claim(wait, el.Name.Value, el.Name.Span)
		}
	})

	for _, method := range doc.Methods {
		if method.Name.Value == "" {
			continue
		}

		target := SnakeCase(method.Name.Value)
		m.methods[method.Name.Value] = target
		claim(target, method.Name.Value, method.Name.Span)
	}

	return m, bundle
}

// collectAll returns the document's top-level elements, light DOM and
// shadow alike, in lexical order.
func collectAll(doc *grammar.Document) []*grammar.Element {
	out := make([]*grammar.Element, 0, len(doc.Elements))
	out = append(out, doc.Elements...)

	if doc.Shadow != nil {
		out = append(out, doc.Shadow.Elements...)
	}

	return out
}

// walkElements visits elements depth-first in lexical order, descending
// into both child element lists and shadow subtrees.
func walkElements(elements []*grammar.Element, visit func(*grammar.Element)) {
	for _, el := range elements {
		visit(el)

		walkElements(el.Elements, visit)

		if el.Shadow != nil {
			walkElements(el.Shadow.Elements, visit)
		}
	}
}
