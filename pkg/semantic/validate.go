package semantic

import (
	"fmt"
	"strings"

	"github.com/composable-delivery/busbar-sf-utam/internal/levenshtein"
	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/names"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// Validate enforces the document invariants the parser cannot check
// locally. All passes collect diagnostics; later passes skip statements
// whose element reference did not resolve so one mistake does not cascade.
func Validate(src *source.Source, doc *grammar.Document) *diag.Bundle {
	v := &validator{
		src:      src,
		doc:      doc,
		bundle:   diag.NewBundle(),
		elements: make(map[string]*elementInfo),
	}

	v.collect()
	v.checkIdentifiers()
	v.checkSelectorsAndTypes()
	v.checkMethods()
	v.checkBeforeLoad()
	v.checkInterface()

	return v.bundle
}

// Symbols builds the element symbol table for a validated document. The
// code generator uses it to resolve compose targets.
func Symbols(doc *grammar.Document) map[string]*grammar.Element {
	out := make(map[string]*grammar.Element)

	walkAll(doc, func(el *grammar.Element) {
		if el.Name.Value != "" {
			if _, exists := out[el.Name.Value]; !exists {
				out[el.Name.Value] = el
			}
		}
	})

	return out
}

type elementInfo struct {
	el  *grammar.Element
	set *actionSet
}

type validator struct {
	src    *source.Source
	doc    *grammar.Document
	bundle *diag.Bundle

	elements     map[string]*elementInfo
	elementOrder []string
	methods      map[string]*grammar.Method
}

func (v *validator) errorAt(code, message string, span source.Span, label string) *diag.Diagnostic {
	d := diag.New(code, message, diag.Label{Src: v.src, Span: span, Label: label})
	v.bundle.Add(d)

	return d
}

// collect walks the element tree (including shadow children) and builds the
// name -> element map, then the method map.
func (v *validator) collect() {
	walkAll(v.doc, func(el *grammar.Element) {
		name := el.Name.Value
		if name == "" {
			return
		}

		if prev, exists := v.elements[name]; exists {
			v.errorAt(diag.CodeDuplicateElement,
				fmt.Sprintf("duplicate element name %q", name),
				el.Name.Span, "second declaration").
				WithSecondary(diag.Label{Src: v.src, Span: prev.el.Name.Span, Label: "first declaration"}).
				WithHelp("element names share one document-wide namespace")

			return
		}

		v.elements[name] = &elementInfo{el: el, set: actionSetForElement(el.Type)}
		v.elementOrder = append(v.elementOrder, name)
	})

	v.methods = make(map[string]*grammar.Method, len(v.doc.Methods))

	for _, m := range v.doc.Methods {
		name := m.Name.Value
		if name == "" {
			continue
		}

		if prev, exists := v.methods[name]; exists {
			v.errorAt(diag.CodeIdentifierCollision,
				fmt.Sprintf("duplicate method name %q", name),
				m.Name.Span, "second declaration").
				WithSecondary(diag.Label{Src: v.src, Span: prev.Name.Span, Label: "first declaration"})

			continue
		}

		v.methods[name] = m
	}
}

// checkIdentifiers rejects grammar names whose mapped identifier is a
// reserved keyword of a documented target language.
func (v *validator) checkIdentifiers() {
	for _, name := range v.elementOrder {
		info := v.elements[name]

		if names.IsReserved(names.SnakeCase(name)) {
			v.errorAt(diag.CodeReservedIdentifier,
				fmt.Sprintf("element name %q maps to a reserved identifier", name),
				info.el.Name.Span, "reserved in a target language").
				WithHelp("pick a name that is not a keyword in Rust, Java or JavaScript")
		}
	}

	for _, m := range v.doc.Methods {
		if m.Name.Value != "" && names.IsReserved(names.SnakeCase(m.Name.Value)) {
			v.errorAt(diag.CodeReservedIdentifier,
				fmt.Sprintf("method name %q maps to a reserved identifier", m.Name.Value),
				m.Name.Span, "reserved in a target language")
		}

		for _, arg := range m.Args {
			if arg.Name.Value != "" && names.IsReserved(names.SnakeCase(arg.Name.Value)) {
				v.errorAt(diag.CodeReservedIdentifier,
					fmt.Sprintf("argument name %q maps to a reserved identifier", arg.Name.Value),
					arg.Name.Span, "reserved in a target language")
			}
		}
	}
}

// checkSelectorsAndTypes runs the selector rules over every selector in the
// document and the per-kind element-type constraints.
func (v *validator) checkSelectorsAndTypes() {
	if v.doc.Selector != nil {
		v.checkSelector(v.doc.Selector)
	}

	walkAll(v.doc, func(el *grammar.Element) {
		if el.Selector != nil {
			v.checkSelector(el.Selector)
		}

		v.checkElementType(el)
	})
}

func (v *validator) checkSelector(sel *grammar.Selector) {
	if len(sel.Entries) != 1 {
		found := make([]string, 0, len(sel.Entries))
		for _, e := range sel.Entries {
			found = append(found, e.Kind.String())
		}

		msg := "selector must declare exactly one of css, accessid, classchain, uiautomator"
		label := "no locator kind present"

		if len(sel.Entries) > 1 {
			label = "found " + strings.Join(found, " and ")
		}

		v.errorAt(diag.CodeSelectorShape, msg, sel.Span, label)

		return
	}

	text := sel.Entries[0].Text
	placeholders := scanPlaceholders(text.Value)

	if len(placeholders) != len(sel.Args) {
		v.errorAt(diag.CodeSelectorParams,
			fmt.Sprintf("selector declares %d placeholder(s) but %d argument(s)", len(placeholders), len(sel.Args)),
			sel.Span, fmt.Sprintf("expected %d, actual %d", len(placeholders), len(sel.Args))).
			WithHelp("each %s or %d placeholder needs one entry in args, in order")

		return
	}

	for i, ph := range placeholders {
		arg := sel.Args[i]

		declared, ok := valueTypeFromString(arg.Type.Value)
		if !ok || (declared != TypeString && declared != TypeNumber) {
			v.errorAt(diag.CodeSelectorType,
				fmt.Sprintf("selector argument %q has unsupported type %q", arg.Name.Value, arg.Type.Value),
				arg.Type.Span, "must be string or number")

			continue
		}

		if ph.valueType() != declared {
			v.errorAt(diag.CodeSelectorType,
				fmt.Sprintf("placeholder %d is %s but argument %q is %s", i+1, ph, arg.Name.Value, declared),
				arg.Type.Span, fmt.Sprintf("expected %s", ph.valueType())).
				WithHelp("%s takes a string argument, %d takes a number argument")
		}
	}
}

// placeholder is one %s or %d occurrence in selector text.
type placeholder byte

func (p placeholder) String() string { return "%" + string(byte(p)) }

func (p placeholder) valueType() ValueType {
	if p == 'd' {
		return TypeNumber
	}

	return TypeString
}

// scanPlaceholders extracts the %s and %d placeholders in order. "%%"
// escapes a literal percent sign and counts as no placeholder.
func scanPlaceholders(text string) []placeholder {
	var out []placeholder

	for i := 0; i+1 < len(text); i++ {
		if text[i] != '%' {
			continue
		}

		switch text[i+1] {
		case 's', 'd':
			out = append(out, placeholder(text[i+1]))
			i++
		case '%':
			i++
		}
	}

	return out
}

func (v *validator) checkElementType(el *grammar.Element) {
	et := el.Type
	if et == nil {
		return
	}

	switch et.Kind {
	case grammar.KindFrame:
		if el.Selector != nil && el.Selector.ReturnAll.Value {
			v.errorAt(diag.CodeFrameReturnAll,
				fmt.Sprintf("frame element %q cannot use returnAll", el.Name.Value),
				el.Selector.ReturnAll.Span, "frames locate a single browsing context").
				WithHelp("remove returnAll or change the element type")
		}

		if el.List.Value {
			v.errorAt(diag.CodeFrameReturnAll,
				fmt.Sprintf("frame element %q cannot be a list", el.Name.Value),
				el.List.Span, "frames locate a single browsing context")
		}
	case grammar.KindCapabilities:
		v.checkCapabilityTags(el, et)
	case grammar.KindCustom:
		_, err := names.ParseComponentRef(et.Custom.Value)
		if err != nil {
			v.errorAt(diag.CodeCustomComponentPath,
				fmt.Sprintf("invalid component path %q: %s", et.Custom.Value, err.Error()),
				et.Custom.Span, "cannot resolve to a component type").
				WithHelp("component paths look like pkg/pageObjects/section/component-name")
		}
	case grammar.KindContainer, grammar.KindError:
	}
}

func (v *validator) checkCapabilityTags(el *grammar.Element, et *grammar.ElementType) {
	for _, tag := range et.Capabilities {
		if KnownCapabilityTag(tag.Value) {
			continue
		}

		if tag.Value == "container" || tag.Value == "frame" {
			v.errorAt(diag.CodeContainerHasCapability,
				fmt.Sprintf("%q cannot be combined with capability tags", tag.Value),
				tag.Span, "structural type mixed into a capability list").
				WithHelp(fmt.Sprintf("use \"type\": %q on its own instead", tag.Value))

			continue
		}

		v.errorAt(diag.CodeInvalidElementType,
			fmt.Sprintf("unknown capability tag %q", tag.Value),
			tag.Span, "not a capability").
			WithHelp("capability tags are: actionable, clickable, editable, draggable, touchable")
	}
}

// stmtResult is the inferred static type of a compose statement.
type stmtResult struct {
	isElement bool
	set       *actionSet
	val       ValueType
}

func (v *validator) checkMethods() {
	for _, m := range v.doc.Methods {
		scope := v.methodScope(m)

		var prev *stmtResult

		for i, st := range m.Compose {
			prev = v.checkStatement(st, scope, prev, i > 0, false)
		}
	}
}

// methodScope maps declared argument names to their types and reports
// duplicate declarations.
func (v *validator) methodScope(m *grammar.Method) map[string]ValueType {
	scope := make(map[string]ValueType, len(m.Args))

	for _, arg := range m.Args {
		name := arg.Name.Value
		if name == "" {
			continue
		}

		if _, exists := scope[name]; exists {
			v.errorAt(diag.CodeIdentifierCollision,
				fmt.Sprintf("duplicate argument name %q", name),
				arg.Name.Span, "already declared")

			continue
		}

		t, ok := valueTypeFromString(arg.Type.Value)
		if !ok {
			// Custom types pass through for component references.
			t = TypeElement
		}

		scope[name] = t
	}

	return scope
}

// checkStatement validates one compose statement and returns its inferred
// result type, or nil when resolution failed and downstream checks should
// not pile on.
//
//nolint:gocognit // the well-formedness matrix is inherently branchy.
func (v *validator) checkStatement(
	st *grammar.ComposeStatement,
	scope map[string]ValueType,
	prev *stmtResult,
	hasPrev bool,
	rootContext bool,
) *stmtResult {
	hasElement := st.Element != nil
	hasApply := st.Apply != nil
	hasExternal := st.ApplyExternal != nil

	// Nested predicate blocks validate independently.
	v.checkPredicates(st, scope)

	switch {
	case hasExternal:
		if hasElement || hasApply {
			v.errorAt(diag.CodeComposeShape,
				"applyExternal cannot be combined with element or apply",
				st.Span, "ambiguous statement")

			return nil
		}

		v.checkArgs(st.ApplyExternal.Args, nil, scope)

		return v.externalResult(st)
	case hasElement && st.Chain.Value:
		v.errorAt(diag.CodeComposeShape,
			"chain applies to the preceding statement's value, not to an element",
			st.Chain.Span, "remove element or chain")

		return nil
	case hasElement:
		return v.checkElementStatement(st, scope)
	case hasApply && st.Chain.Value:
		return v.checkChainStatement(st, scope, prev, hasPrev)
	case hasApply && rootContext:
		// Element-less apply in beforeLoad targets the root element.
		rootSet := actionSetForTags(v.doc.ActionTypes)

		return v.applyAction(st, rootSet, scope)
	default:
		v.errorAt(diag.CodeComposeShape,
			"statement must name an element, chain an apply, or call applyExternal",
			st.Span, "no action to perform")

		return nil
	}
}

func (v *validator) checkPredicates(st *grammar.ComposeStatement, scope map[string]ValueType) {
	for _, inner := range st.Predicate {
		v.checkStatement(inner, scope, nil, false, true)
	}

	for _, arg := range st.Args {
		if arg.Kind == grammar.ArgPredicate {
			for _, inner := range arg.Predicate {
				v.checkStatement(inner, scope, nil, false, true)
			}
		}
	}
}

func (v *validator) checkElementStatement(st *grammar.ComposeStatement, scope map[string]ValueType) *stmtResult {
	info, ok := v.elements[st.Element.Value]
	if !ok {
		d := v.errorAt(diag.CodeUnknownElement,
			fmt.Sprintf("unknown element %q", st.Element.Value),
			st.Element.Span, "not declared in this document")

		if suggestion, found := levenshtein.Closest(st.Element.Value, v.elementOrder); found {
			d.WithHelp(fmt.Sprintf("did you mean %q?", suggestion))
		}

		return nil
	}

	if st.Apply == nil {
		// Getter statement: the located element is the value.
		result := &stmtResult{isElement: true, set: info.set, val: TypeElement}

		return v.applyMatcher(st, result)
	}

	return v.applyAction(st, info.set, scope)
}

func (v *validator) checkChainStatement(
	st *grammar.ComposeStatement,
	scope map[string]ValueType,
	prev *stmtResult,
	hasPrev bool,
) *stmtResult {
	if !hasPrev {
		v.errorAt(diag.CodeChainRequiresPrevious,
			"chain requires a preceding statement",
			st.Chain.Span, "nothing to chain from")

		return nil
	}

	if prev == nil {
		// The previous statement failed to validate; stay quiet.
		return nil
	}

	if !prev.isElement {
		v.errorAt(diag.CodeChainRequiresPrevious,
			fmt.Sprintf("cannot chain %q onto a %s value", st.Apply.Value, prev.val),
			st.Apply.Span, "preceding statement does not produce an element")

		return nil
	}

	return v.applyAction(st, prev.set, scope)
}

// applyAction resolves st.Apply against the action set, checks arguments,
// and folds in the matcher.
func (v *validator) applyAction(st *grammar.ComposeStatement, set *actionSet, scope map[string]ValueType) *stmtResult {
	action, ok := set.lookup(st.Apply.Value)
	if !ok {
		available := strings.Join(set.names(), ", ")

		d := v.errorAt(diag.CodeUnknownAction,
			fmt.Sprintf("action %q is not available on this element", st.Apply.Value),
			st.Apply.Span, "unknown action").
			WithHelp("available actions: " + available)

		if suggestion, found := levenshtein.Closest(st.Apply.Value, set.names()); found {
			d.Help = fmt.Sprintf("did you mean %q? available actions: %s", suggestion, available)
		}

		return nil
	}

	if !set.open {
		v.checkArgs(st.Args, &action, scope)
	} else {
		v.checkArgs(st.Args, nil, scope)
	}

	result := v.resultOf(action, set)

	return v.applyMatcher(st, result)
}

func (v *validator) resultOf(action Action, set *actionSet) *stmtResult {
	switch action.Result {
	case TypeElement:
		if set.open {
			// Custom component methods resolve lazily; stay permissive.
			open := newActionSet()
			open.add(basicActions)
			open.open = true

			return &stmtResult{isElement: true, set: open, val: TypeElement}
		}

		basic := newActionSet()
		basic.add(basicActions)

		return &stmtResult{isElement: true, set: basic, val: TypeElement}
	default:
		return &stmtResult{val: action.Result}
	}
}

// checkArgs validates literal types and reference resolution. A nil action
// skips the arity/type contract (open sets and external calls).
func (v *validator) checkArgs(args []*grammar.ComposeArg, action *Action, scope map[string]ValueType) {
	if action != nil {
		minArgs := 0

		for _, p := range action.Params {
			if !p.Optional {
				minArgs++
			}
		}

		if len(args) < minArgs || len(args) > len(action.Params) {
			span := source.Span{}
			for _, a := range args {
				span = span.Union(a.Span)
			}

			v.errorAt(diag.CodeArgTypeMismatch,
				fmt.Sprintf("%s expects %s, found %d", action.Name, expectedArgCount(minArgs, len(action.Params)), len(args)),
				span, "wrong number of arguments")

			return
		}
	}

	for i, arg := range args {
		var want *ValueType

		if action != nil && i < len(action.Params) {
			w := action.Params[i].Type
			want = &w
		}

		v.checkArg(arg, want, scope)
	}
}

func expectedArgCount(minArgs, maxArgs int) string {
	if minArgs == maxArgs {
		return fmt.Sprintf("%d argument(s)", minArgs)
	}

	return fmt.Sprintf("%d to %d arguments", minArgs, maxArgs)
}

func (v *validator) checkArg(arg *grammar.ComposeArg, want *ValueType, scope map[string]ValueType) {
	got, known := v.argType(arg, scope)
	if !known {
		return
	}

	if want != nil && got != *want {
		v.errorAt(diag.CodeArgTypeMismatch,
			fmt.Sprintf("argument is %s but the action expects %s", got, *want),
			arg.Span, fmt.Sprintf("expected %s", *want))
	}
}

// argType infers an argument's type. References must name an enclosing
// method argument; unresolved references are reported here.
func (v *validator) argType(arg *grammar.ComposeArg, scope map[string]ValueType) (ValueType, bool) {
	switch arg.Kind {
	case grammar.ArgLiteralString:
		return TypeString, true
	case grammar.ArgLiteralNumber:
		return TypeNumber, true
	case grammar.ArgLiteralBool:
		return TypeBoolean, true
	case grammar.ArgSelector:
		if arg.Selector != nil {
			v.checkSelector(arg.Selector)
		}

		return TypeLocator, true
	case grammar.ArgReference:
		declared, ok := scope[arg.Name.Value]
		if !ok {
			d := v.errorAt(diag.CodeArgTypeMismatch,
				fmt.Sprintf("reference %q does not name a declared method argument", arg.Name.Value),
				arg.Name.Span, "undeclared reference")

			candidates := make([]string, 0, len(scope))
			for name := range scope {
				candidates = append(candidates, name)
			}

			if suggestion, found := levenshtein.Closest(arg.Name.Value, sortedNames(candidates)); found {
				d.WithHelp(fmt.Sprintf("did you mean %q?", suggestion))
			}

			return TypeVoid, false
		}

		refType, refOK := valueTypeFromString(arg.Type.Value)
		if refOK && refType != declared {
			v.errorAt(diag.CodeArgTypeMismatch,
				fmt.Sprintf("reference %q is declared %s but used as %s", arg.Name.Value, declared, refType),
				arg.Type.Span, fmt.Sprintf("declared %s", declared))

			return TypeVoid, false
		}

		return declared, true
	case grammar.ArgPredicate:
		return TypeVoid, false
	default:
		return TypeVoid, false
	}
}

// applyMatcher folds a matcher into the statement result: the value
// becomes a boolean of the matcher's kind.
func (v *validator) applyMatcher(st *grammar.ComposeStatement, result *stmtResult) *stmtResult {
	m := st.Matcher
	if m == nil {
		return result
	}

	switch m.Kind {
	case grammar.MatcherIsTrue, grammar.MatcherIsFalse:
		if result.val != TypeBoolean {
			v.matcherMismatch(m, result, "a boolean")
		}

		v.checkMatcherArgs(m, 0)
	case grammar.MatcherStringEquals, grammar.MatcherStringContains:
		if result.val != TypeString {
			v.matcherMismatch(m, result, "a string")
		}

		v.checkMatcherArgs(m, 1)
	case grammar.MatcherNotNull:
		if result.val == TypeVoid {
			v.matcherMismatch(m, result, "a value")
		}

		v.checkMatcherArgs(m, 0)
	case grammar.MatcherUnknown:
		v.errorAt(diag.CodeMatcherTypeMismatch,
			fmt.Sprintf("unknown matcher type %q", m.Type.Value),
			m.Type.Span, "not a matcher").
			WithHelp("matchers are: isTrue, isFalse, stringEquals, stringContains, notNull")
	}

	return &stmtResult{val: TypeBoolean}
}

func (v *validator) matcherMismatch(m *grammar.Matcher, result *stmtResult, wants string) {
	operand := result.val.String()
	if result.isElement {
		operand = "an element"
	}

	v.errorAt(diag.CodeMatcherTypeMismatch,
		fmt.Sprintf("matcher %q needs %s but the statement produces %s", m.Type.Value, wants, operand),
		m.Type.Span, "operand type mismatch")
}

func (v *validator) checkMatcherArgs(m *grammar.Matcher, want int) {
	if len(m.Args) != want {
		v.errorAt(diag.CodeMatcherTypeMismatch,
			fmt.Sprintf("matcher %q takes %d argument(s), found %d", m.Type.Value, want, len(m.Args)),
			m.Span, "wrong matcher arguments")

		return
	}

	for _, arg := range m.Args {
		if want == 1 && arg.Kind != grammar.ArgLiteralString && arg.Kind != grammar.ArgReference {
			v.errorAt(diag.CodeMatcherTypeMismatch,
				"matcher argument must be a string", arg.Span, "expected a string")
		}
	}
}

func (v *validator) externalResult(st *grammar.ComposeStatement) *stmtResult {
	result := &stmtResult{val: TypeVoid}

	if st.ReturnType != nil {
		if t, ok := valueTypeFromString(st.ReturnType.Value); ok {
			result.val = t
		}
	}

	return v.applyMatcher(st, result)
}

// checkBeforeLoad validates the pre-load statements: they run against the
// root element and may not produce values other than booleans.
func (v *validator) checkBeforeLoad() {
	var prev *stmtResult

	for i, st := range v.doc.BeforeLoad {
		prev = v.checkStatement(st, map[string]ValueType{}, prev, i > 0, true)

		if prev != nil && prev.val != TypeVoid && prev.val != TypeBoolean {
			v.errorAt(diag.CodeComposeShape,
				fmt.Sprintf("beforeLoad statements may not return %s values", prev.val),
				st.Span, "only booleans may flow out of beforeLoad")
		}
	}
}

// checkInterface enforces that interface documents carry only signatures.
func (v *validator) checkInterface() {
	if !v.doc.IsInterface.Value {
		return
	}

	for _, m := range v.doc.Methods {
		if len(m.Compose) > 0 {
			v.errorAt(diag.CodeComposeShape,
				fmt.Sprintf("interface method %q must not have compose statements", m.Name.Value),
				m.Span, "interfaces declare signatures only").
				WithHelp("move the implementation to a document that implements this interface")
		}
	}
}

// walkAll visits every element of the document depth-first in lexical
// order, descending into child lists and shadow subtrees.
func walkAll(doc *grammar.Document, visit func(*grammar.Element)) {
	var walk func(els []*grammar.Element)

	walk = func(els []*grammar.Element) {
		for _, el := range els {
			visit(el)
			walk(el.Elements)

			if el.Shadow != nil {
				walk(el.Shadow.Elements)
			}
		}
	}

	walk(doc.Elements)

	if doc.Shadow != nil {
		walk(doc.Shadow.Elements)
	}
}
