// Package grammar defines the in-memory shape of a page-object document:
// root metadata, element tree, selectors, and composed methods. Every node
// carries the byte span of the JSON fragment it was parsed from.
package grammar

import "github.com/composable-delivery/busbar-sf-utam/pkg/source"

// Str is a string value together with the span of its JSON token.
type Str struct {
	Value string
	Span  source.Span
}

// Bool is a boolean value together with the span of the key token it was
// parsed from, so diagnostics can point at the key.
type Bool struct {
	Value bool
	Span  source.Span
}

// Document is the root of a page-object definition.
type Document struct {
	Span              source.Span
	Description       *Description
	Root              Bool
	Selector          *Selector
	ExposeRootElement Bool
	// ActionTypes holds the document-level "type" capability tags.
	ActionTypes []Str
	Platform    *Str
	Implements  *Str
	IsInterface Bool
	Shadow      *Shadow
	Elements    []*Element
	Methods     []*Method
	BeforeLoad  []*ComposeStatement
	// Metadata is opaque to the compiler; only its span is kept.
	Metadata source.Span
}

// Description is either a free string or a detailed block with text lines,
// an optional author and an optional return description.
type Description struct {
	Span   source.Span
	Simple bool
	Text   []Str
	Author *Str
	Return *Str
}

// Lines returns the description text as a slice regardless of form.
func (d *Description) Lines() []string {
	if d == nil {
		return nil
	}

	out := make([]string, 0, len(d.Text))
	for _, t := range d.Text {
		out = append(out, t.Value)
	}

	return out
}

// Shadow marks its elements as located inside the parent's shadow root.
type Shadow struct {
	Span     source.Span
	Elements []*Element
}

// Element is one node of the element tree.
type Element struct {
	Span         source.Span
	Name         Str
	Type         *ElementType // nil means the basic element surface.
	Selector     *Selector
	Public       Bool
	Nullable     Bool
	GenerateWait Bool
	Load         Bool
	Shadow       *Shadow
	Elements     []*Element
	Filter       *Filter
	Description  *Str
	// List is the legacy shorthand for selector.returnAll.
	List Bool
}

// ElementTypeKind discriminates the ElementType union.
type ElementTypeKind int

const (
	// KindCapabilities is a set of capability tags such as ["clickable"].
	KindCapabilities ElementTypeKind = iota
	// KindCustom references another page object by slash-delimited path.
	KindCustom
	// KindContainer is a slot host.
	KindContainer
	// KindFrame is an iframe.
	KindFrame
	// KindError is an unrecognized type shape; a diagnostic was emitted.
	KindError
)

// ElementType is the tagged union behind an element's "type" field.
type ElementType struct {
	Span         source.Span
	Kind         ElementTypeKind
	Capabilities []Str
	// Custom holds the raw component path for KindCustom.
	Custom Str
}

// ComponentRef is a parsed custom-component path
// "pkg/pageObjects/seg1/.../name".
type ComponentRef struct {
	Package  string
	Segments []string
	Name     string
}

// SelectorKind identifies which locator strategy a selector uses.
type SelectorKind int

const (
	// SelectorCSS locates by CSS selector.
	SelectorCSS SelectorKind = iota
	// SelectorAccessID locates by accessibility id (mobile).
	SelectorAccessID
	// SelectorClassChain locates by iOS class chain.
	SelectorClassChain
	// SelectorUIAutomator locates by Android UiAutomator expression.
	SelectorUIAutomator
)

// String returns the JSON field name of the kind.
func (k SelectorKind) String() string {
	switch k {
	case SelectorCSS:
		return "css"
	case SelectorAccessID:
		return "accessid"
	case SelectorClassChain:
		return "classchain"
	case SelectorUIAutomator:
		return "uiautomator"
	default:
		return "unknown"
	}
}

// SelectorEntry is one locator kind present on a selector object.
type SelectorEntry struct {
	Kind SelectorKind
	Text Str
}

// Selector is a locator expression plus optional runtime arguments.
// A well-formed selector has exactly one entry; the parser records all
// present kinds so the validator can report the shape violation.
type Selector struct {
	Span      source.Span
	Entries   []SelectorEntry
	Args      []SelectorArg
	ReturnAll Bool
}

// Text returns the concrete selector text when exactly one kind is present.
func (s *Selector) Text() (Str, bool) {
	if len(s.Entries) != 1 {
		return Str{}, false
	}

	return s.Entries[0].Text, true
}

// Kind returns the locator kind when exactly one is present.
func (s *Selector) Kind() (SelectorKind, bool) {
	if len(s.Entries) != 1 {
		return SelectorCSS, false
	}

	return s.Entries[0].Kind, true
}

// SelectorArg is a declared runtime argument of a parameterized selector.
type SelectorArg struct {
	Span source.Span
	Name Str
	Type Str
}

// Method is a composed interaction method.
type Method struct {
	Span        source.Span
	Name        Str
	Description *Description
	Args        []MethodArg
	Compose     []*ComposeStatement
	ReturnType  *Str
	ReturnAll   Bool
}

// MethodArg is a declared method parameter.
type MethodArg struct {
	Span source.Span
	Name Str
	Type Str
}

// ComposeStatement is one step of a declarative method body.
type ComposeStatement struct {
	Span          source.Span
	Element       *Str
	Apply         *Str
	Args          []*ComposeArg
	Chain         Bool
	ReturnType    *Str
	ReturnAll     Bool
	Matcher       *Matcher
	ApplyExternal *ApplyExternal
	ReturnElement Bool
	Predicate     []*ComposeStatement
}

// ApplyExternal calls into an external helper.
type ApplyExternal struct {
	Span   source.Span
	Method Str
	Args   []*ComposeArg
}

// ComposeArgKind discriminates the ComposeArg union.
type ComposeArgKind int

const (
	// ArgLiteralString is an inline string literal.
	ArgLiteralString ComposeArgKind = iota
	// ArgLiteralNumber is an inline numeric literal.
	ArgLiteralNumber
	// ArgLiteralBool is an inline boolean literal.
	ArgLiteralBool
	// ArgReference names a method argument or compose-variable binding.
	ArgReference
	// ArgSelector is an inline selector literal.
	ArgSelector
	// ArgPredicate is a nested predicate block.
	ArgPredicate
)

// ComposeArg is one argument of a compose statement: a literal, a typed
// reference, a selector literal, or a predicate block.
type ComposeArg struct {
	Span source.Span
	Kind ComposeArgKind

	StringVal string
	NumberVal float64
	BoolVal   bool

	// Reference fields.
	Name Str
	Type Str

	Selector  *Selector
	Predicate []*ComposeStatement
}

// MatcherKind enumerates the typed predicates a matcher supports.
type MatcherKind int

const (
	// MatcherIsTrue asserts a boolean result is true.
	MatcherIsTrue MatcherKind = iota
	// MatcherIsFalse asserts a boolean result is false.
	MatcherIsFalse
	// MatcherStringEquals asserts exact string equality.
	MatcherStringEquals
	// MatcherStringContains asserts exact substring containment.
	MatcherStringContains
	// MatcherNotNull asserts the result is present.
	MatcherNotNull
	// MatcherUnknown is an unrecognized matcher type.
	MatcherUnknown
)

// MatcherKindFromString maps the JSON matcher type to its kind.
func MatcherKindFromString(s string) MatcherKind {
	switch s {
	case "isTrue":
		return MatcherIsTrue
	case "isFalse":
		return MatcherIsFalse
	case "stringEquals":
		return MatcherStringEquals
	case "stringContains":
		return MatcherStringContains
	case "notNull":
		return MatcherNotNull
	default:
		return MatcherUnknown
	}
}

// Matcher is a typed predicate applied to a statement's value.
type Matcher struct {
	Span source.Span
	Type Str
	Kind MatcherKind
	Args []*ComposeArg
}

// Filter narrows a returnAll element to matching candidates.
type Filter struct {
	Span      source.Span
	Find      *ComposeStatement
	Match     *Matcher
	FindFirst Bool
}
