package parser

import (
	"fmt"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// Options controls parser behavior.
type Options struct {
	// Strict records unknown fields as note-severity diagnostics instead of
	// ignoring them silently.
	Strict bool
}

// Result is the parser output: the grammar AST, the generic value tree the
// schema stage validates, and the diagnostics collected along the way.
// Doc is non-nil whenever the top-level JSON value is an object, even if
// the bundle is non-empty (partial recovery).
type Result struct {
	Doc    *grammar.Document
	Tree   *Value
	Bundle *diag.Bundle
}

// Parse maps JSON text into the grammar model with default options.
func Parse(src *source.Source) Result {
	return ParseWithOptions(src, Options{})
}

// ParseWithOptions maps JSON text into the grammar model.
// Malformed JSON yields a single utam::parse_error diagnostic with the
// tokenizer's fault span and no AST.
func ParseWithOptions(src *source.Source, opts Options) Result {
	bundle := diag.NewBundle()

	tree, err := parseTree(src)
	if err != nil {
		span := source.Span{}
		if te, ok := err.(*tokenizeError); ok { //nolint:errorlint // local error type, never wrapped
			span = te.span
		}

		bundle.Add(diag.New(diag.CodeParseError, fmt.Sprintf("malformed JSON: %s", err.Error()), diag.Label{
			Src:   src,
			Span:  span,
			Label: "invalid JSON here",
		}).WithHelp("the input must be a single well-formed JSON object"))

		return Result{Bundle: bundle}
	}

	if tree.Kind != ValueObject {
		bundle.Add(diag.New(diag.CodeParseError, "top-level JSON value must be an object", diag.Label{
			Src:   src,
			Span:  tree.Span,
			Label: "expected an object",
		}))

		return Result{Tree: tree, Bundle: bundle}
	}

	b := &builder{src: src, bundle: bundle, strict: opts.Strict}
	doc := b.document(tree)

	return Result{Doc: doc, Tree: tree, Bundle: bundle}
}

// builder walks the value tree and constructs grammar nodes, copying spans
// onto everything it builds. Type mismatches are skipped here; the schema
// stage reports them with precise keyword context.
type builder struct {
	src    *source.Source
	bundle *diag.Bundle
	strict bool
}

func (b *builder) unknownFields(v *Value, known ...string) {
	if !b.strict {
		return
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, k := range known {
		knownSet[k] = struct{}{}
	}

	for _, m := range v.Members {
		if _, ok := knownSet[m.Key]; ok {
			continue
		}

		b.bundle.Add(diag.New(diag.CodeUnknownField, fmt.Sprintf("unknown field %q ignored", m.Key), diag.Label{
			Src:   b.src,
			Span:  m.KeySpan,
			Label: "not part of the grammar",
		}).WithSeverity(diag.SeverityNote))
	}
}

func (b *builder) str(v *Value) (grammar.Str, bool) {
	if v == nil || v.Kind != ValueString {
		return grammar.Str{}, false
	}

	return grammar.Str{Value: v.Str, Span: v.Span}, true
}

func (b *builder) optStr(v *Value) *grammar.Str {
	s, ok := b.str(v)
	if !ok {
		return nil
	}

	return &s
}

// boolField reads a boolean member. The returned Bool carries the span of
// the key token so diagnostics can point at the field name.
func (b *builder) boolField(obj *Value, key string) grammar.Bool {
	v := obj.Member(key)
	if v == nil || v.Kind != ValueBool {
		return grammar.Bool{}
	}

	return grammar.Bool{Value: v.Bool, Span: obj.MemberKeySpan(key)}
}

func (b *builder) document(v *Value) *grammar.Document {
	b.unknownFields(v,
		"description", "root", "selector", "exposeRootElement", "type", "platform",
		"implements", "interface", "shadow", "elements", "methods", "beforeLoad", "metadata")

	doc := &grammar.Document{
		Span:              v.Span,
		Description:       b.description(v.Member("description")),
		Root:              b.boolField(v, "root"),
		Selector:          b.selector(v.Member("selector")),
		ExposeRootElement: b.boolField(v, "exposeRootElement"),
		Platform:          b.optStr(v.Member("platform")),
		Implements:        b.optStr(v.Member("implements")),
		IsInterface:       b.boolField(v, "interface"),
		Shadow:            b.shadow(v.Member("shadow")),
	}

	if types := v.Member("type"); types != nil && types.Kind == ValueArray {
		for _, item := range types.Items {
			if s, ok := b.str(item); ok {
				doc.ActionTypes = append(doc.ActionTypes, s)
			}
		}
	}

	if elements := v.Member("elements"); elements != nil && elements.Kind == ValueArray {
		for _, item := range elements.Items {
			if el := b.element(item); el != nil {
				doc.Elements = append(doc.Elements, el)
			}
		}
	}

	if methods := v.Member("methods"); methods != nil && methods.Kind == ValueArray {
		for _, item := range methods.Items {
			if m := b.method(item); m != nil {
				doc.Methods = append(doc.Methods, m)
			}
		}
	}

	if before := v.Member("beforeLoad"); before != nil && before.Kind == ValueArray {
		for _, item := range before.Items {
			if st := b.composeStatement(item); st != nil {
				doc.BeforeLoad = append(doc.BeforeLoad, st)
			}
		}
	}

	if meta := v.Member("metadata"); meta != nil {
		doc.Metadata = meta.Span
	}

	return doc
}

func (b *builder) description(v *Value) *grammar.Description {
	if v == nil {
		return nil
	}

	switch v.Kind {
	case ValueString:
		return &grammar.Description{
			Span:   v.Span,
			Simple: true,
			Text:   []grammar.Str{{Value: v.Str, Span: v.Span}},
		}
	case ValueObject:
		b.unknownFields(v, "text", "author", "return")

		desc := &grammar.Description{
			Span:   v.Span,
			Author: b.optStr(v.Member("author")),
			Return: b.optStr(v.Member("return")),
		}

		if text := v.Member("text"); text != nil && text.Kind == ValueArray {
			for _, item := range text.Items {
				if s, ok := b.str(item); ok {
					desc.Text = append(desc.Text, s)
				}
			}
		}

		return desc
	default:
		return nil
	}
}

func (b *builder) shadow(v *Value) *grammar.Shadow {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "elements")

	shadow := &grammar.Shadow{Span: v.Span}

	if elements := v.Member("elements"); elements != nil && elements.Kind == ValueArray {
		for _, item := range elements.Items {
			if el := b.element(item); el != nil {
				shadow.Elements = append(shadow.Elements, el)
			}
		}
	}

	return shadow
}

func (b *builder) element(v *Value) *grammar.Element {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v,
		"name", "type", "selector", "public", "nullable", "wait", "load",
		"shadow", "elements", "filter", "description", "list")

	el := &grammar.Element{
		Span:         v.Span,
		Type:         b.elementType(v.Member("type")),
		Selector:     b.selector(v.Member("selector")),
		Public:       b.boolField(v, "public"),
		Nullable:     b.boolField(v, "nullable"),
		GenerateWait: b.boolField(v, "wait"),
		Load:         b.boolField(v, "load"),
		Shadow:       b.shadow(v.Member("shadow")),
		Filter:       b.filter(v.Member("filter")),
		Description:  b.optStr(v.Member("description")),
		List:         b.boolField(v, "list"),
	}

	if name, ok := b.str(v.Member("name")); ok {
		el.Name = name
	}

	if elements := v.Member("elements"); elements != nil && elements.Kind == ValueArray {
		for _, item := range elements.Items {
			if child := b.element(item); child != nil {
				el.Elements = append(el.Elements, child)
			}
		}
	}

	return el
}

// capabilityTags are the recognized capability strings for the single-tag
// string form of "type".
var capabilityTags = map[string]struct{}{
	"actionable": {},
	"clickable":  {},
	"editable":   {},
	"draggable":  {},
	"touchable":  {},
}

// elementType disambiguates the "type" union by JSON shape: an array of
// strings is a capability set, a string containing '/' is a custom
// component, the literals "container" and "frame" select those kinds, a
// bare capability tag is a one-element capability set, and anything else
// is an error node.
func (b *builder) elementType(v *Value) *grammar.ElementType {
	if v == nil {
		return nil
	}

	switch v.Kind {
	case ValueArray:
		et := &grammar.ElementType{Span: v.Span, Kind: grammar.KindCapabilities}

		for _, item := range v.Items {
			if s, ok := b.str(item); ok {
				et.Capabilities = append(et.Capabilities, s)
			}
		}

		return et
	case ValueString:
		switch {
		case v.Str == "container":
			return &grammar.ElementType{Span: v.Span, Kind: grammar.KindContainer}
		case v.Str == "frame":
			return &grammar.ElementType{Span: v.Span, Kind: grammar.KindFrame}
		case containsSlash(v.Str):
			return &grammar.ElementType{
				Span:   v.Span,
				Kind:   grammar.KindCustom,
				Custom: grammar.Str{Value: v.Str, Span: v.Span},
			}
		default:
			if _, ok := capabilityTags[v.Str]; ok {
				return &grammar.ElementType{
					Span:         v.Span,
					Kind:         grammar.KindCapabilities,
					Capabilities: []grammar.Str{{Value: v.Str, Span: v.Span}},
				}
			}

			b.bundle.Add(diag.New(diag.CodeInvalidElementType,
				fmt.Sprintf("invalid element type %q", v.Str), diag.Label{
					Src:   b.src,
					Span:  v.Span,
					Label: "not a capability tag, component path, \"container\" or \"frame\"",
				}).WithHelp("capability tags are: actionable, clickable, editable, draggable, touchable"))

			return &grammar.ElementType{Span: v.Span, Kind: grammar.KindError}
		}
	default:
		b.bundle.Add(diag.New(diag.CodeInvalidElementType, "element type must be a string or an array of strings", diag.Label{
			Src:   b.src,
			Span:  v.Span,
			Label: "unexpected shape",
		}))

		return &grammar.ElementType{Span: v.Span, Kind: grammar.KindError}
	}
}

func containsSlash(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '/' {
			return true
		}
	}

	return false
}

var selectorKinds = []struct {
	key  string
	kind grammar.SelectorKind
}{
	{"css", grammar.SelectorCSS},
	{"accessid", grammar.SelectorAccessID},
	{"classchain", grammar.SelectorClassChain},
	{"uiautomator", grammar.SelectorUIAutomator},
}

func (b *builder) selector(v *Value) *grammar.Selector {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "css", "accessid", "classchain", "uiautomator", "args", "returnAll")

	sel := &grammar.Selector{
		Span:      v.Span,
		ReturnAll: b.boolField(v, "returnAll"),
	}

	for _, sk := range selectorKinds {
		if text, ok := b.str(v.Member(sk.key)); ok {
			sel.Entries = append(sel.Entries, grammar.SelectorEntry{Kind: sk.kind, Text: text})
		}
	}

	if args := v.Member("args"); args != nil && args.Kind == ValueArray {
		for _, item := range args.Items {
			if arg := b.selectorArg(item); arg != nil {
				sel.Args = append(sel.Args, *arg)
			}
		}
	}

	return sel
}

func (b *builder) selectorArg(v *Value) *grammar.SelectorArg {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "name", "type")

	arg := &grammar.SelectorArg{Span: v.Span}

	if name, ok := b.str(v.Member("name")); ok {
		arg.Name = name
	}

	if typ, ok := b.str(v.Member("type")); ok {
		arg.Type = typ
	}

	return arg
}

func (b *builder) method(v *Value) *grammar.Method {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "name", "description", "args", "compose", "returnType", "returnAll")

	m := &grammar.Method{
		Span:        v.Span,
		Description: b.description(v.Member("description")),
		ReturnType:  b.optStr(v.Member("returnType")),
		ReturnAll:   b.boolField(v, "returnAll"),
	}

	if name, ok := b.str(v.Member("name")); ok {
		m.Name = name
	}

	if args := v.Member("args"); args != nil && args.Kind == ValueArray {
		for _, item := range args.Items {
			if arg := b.methodArg(item); arg != nil {
				m.Args = append(m.Args, *arg)
			}
		}
	}

	if compose := v.Member("compose"); compose != nil && compose.Kind == ValueArray {
		for _, item := range compose.Items {
			if st := b.composeStatement(item); st != nil {
				m.Compose = append(m.Compose, st)
			}
		}
	}

	return m
}

func (b *builder) methodArg(v *Value) *grammar.MethodArg {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "name", "type")

	arg := &grammar.MethodArg{Span: v.Span}

	if name, ok := b.str(v.Member("name")); ok {
		arg.Name = name
	}

	if typ, ok := b.str(v.Member("type")); ok {
		arg.Type = typ
	}

	return arg
}

func (b *builder) composeStatement(v *Value) *grammar.ComposeStatement {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v,
		"element", "apply", "args", "chain", "returnType", "returnAll",
		"matcher", "applyExternal", "returnElement", "predicate")

	st := &grammar.ComposeStatement{
		Span:          v.Span,
		Element:       b.optStr(v.Member("element")),
		Apply:         b.optStr(v.Member("apply")),
		Chain:         b.boolField(v, "chain"),
		ReturnType:    b.optStr(v.Member("returnType")),
		ReturnAll:     b.boolField(v, "returnAll"),
		Matcher:       b.matcher(v.Member("matcher")),
		ApplyExternal: b.applyExternal(v.Member("applyExternal")),
		ReturnElement: b.boolField(v, "returnElement"),
	}

	if args := v.Member("args"); args != nil && args.Kind == ValueArray {
		for _, item := range args.Items {
			if arg := b.composeArg(item); arg != nil {
				st.Args = append(st.Args, arg)
			}
		}
	}

	if pred := v.Member("predicate"); pred != nil && pred.Kind == ValueArray {
		for _, item := range pred.Items {
			if inner := b.composeStatement(item); inner != nil {
				st.Predicate = append(st.Predicate, inner)
			}
		}
	}

	return st
}

func (b *builder) applyExternal(v *Value) *grammar.ApplyExternal {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "method", "args")

	ext := &grammar.ApplyExternal{Span: v.Span}

	if method, ok := b.str(v.Member("method")); ok {
		ext.Method = method
	}

	if args := v.Member("args"); args != nil && args.Kind == ValueArray {
		for _, item := range args.Items {
			if arg := b.composeArg(item); arg != nil {
				ext.Args = append(ext.Args, arg)
			}
		}
	}

	return ext
}

// composeArg disambiguates by shape: scalars are literals, an object with
// "name" and "type" is a reference, an object with a locator key is a
// selector literal, and an array is a predicate block.
func (b *builder) composeArg(v *Value) *grammar.ComposeArg {
	if v == nil {
		return nil
	}

	switch v.Kind {
	case ValueString:
		return &grammar.ComposeArg{Span: v.Span, Kind: grammar.ArgLiteralString, StringVal: v.Str}
	case ValueNumber:
		return &grammar.ComposeArg{Span: v.Span, Kind: grammar.ArgLiteralNumber, NumberVal: v.Num}
	case ValueBool:
		return &grammar.ComposeArg{Span: v.Span, Kind: grammar.ArgLiteralBool, BoolVal: v.Bool}
	case ValueArray:
		arg := &grammar.ComposeArg{Span: v.Span, Kind: grammar.ArgPredicate}

		for _, item := range v.Items {
			if st := b.composeStatement(item); st != nil {
				arg.Predicate = append(arg.Predicate, st)
			}
		}

		return arg
	case ValueObject:
		for _, sk := range selectorKinds {
			if v.Member(sk.key) != nil {
				return &grammar.ComposeArg{Span: v.Span, Kind: grammar.ArgSelector, Selector: b.selector(v)}
			}
		}

		b.unknownFields(v, "name", "type")

		arg := &grammar.ComposeArg{Span: v.Span, Kind: grammar.ArgReference}

		if name, ok := b.str(v.Member("name")); ok {
			arg.Name = name
		}

		if typ, ok := b.str(v.Member("type")); ok {
			arg.Type = typ
		}

		return arg
	default:
		return nil
	}
}

func (b *builder) matcher(v *Value) *grammar.Matcher {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "type", "args")

	m := &grammar.Matcher{Span: v.Span, Kind: grammar.MatcherUnknown}

	if typ, ok := b.str(v.Member("type")); ok {
		m.Type = typ
		m.Kind = grammar.MatcherKindFromString(typ.Value)
	}

	if args := v.Member("args"); args != nil && args.Kind == ValueArray {
		for _, item := range args.Items {
			if arg := b.composeArg(item); arg != nil {
				m.Args = append(m.Args, arg)
			}
		}
	}

	return m
}

// filter accepts both the full {find, match, findFirst} form and the legacy
// {matcher} shorthand.
func (b *builder) filter(v *Value) *grammar.Filter {
	if v == nil || v.Kind != ValueObject {
		return nil
	}

	b.unknownFields(v, "find", "match", "matcher", "findFirst")

	f := &grammar.Filter{
		Span:      v.Span,
		Find:      b.composeStatement(v.Member("find")),
		Match:     b.matcher(v.Member("match")),
		FindFirst: b.boolField(v, "findFirst"),
	}

	if f.Match == nil {
		f.Match = b.matcher(v.Member("matcher"))
	}

	return f
}
