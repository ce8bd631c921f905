// Package semantic enforces the cross-node invariants of a page-object
// document: identifier uniqueness and legality, reference resolution,
// capability/action compatibility, selector-parameter arity, and
// frame/container constraints.
package semantic

import (
	"sort"

	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
)

// ValueType is the static type of a compose value, a selector argument, or
// an action parameter.
type ValueType int

const (
	// TypeVoid is the absence of a value.
	TypeVoid ValueType = iota
	// TypeString is a text value.
	TypeString
	// TypeNumber is a numeric value.
	TypeNumber
	// TypeBoolean is a boolean value.
	TypeBoolean
	// TypeLocator is an inline selector literal.
	TypeLocator
	// TypeElement is a located element handle.
	TypeElement
	// TypeFrame is a frame scope handle.
	TypeFrame
)

// String returns the grammar-level spelling of the type.
func (t ValueType) String() string {
	switch t {
	case TypeVoid:
		return "void"
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeLocator:
		return "locator"
	case TypeElement:
		return "element"
	case TypeFrame:
		return "frame"
	default:
		return "unknown"
	}
}

// valueTypeFromString maps a declared "type" string to its ValueType.
func valueTypeFromString(s string) (ValueType, bool) {
	switch s {
	case "string":
		return TypeString, true
	case "number":
		return TypeNumber, true
	case "boolean":
		return TypeBoolean, true
	case "locator":
		return TypeLocator, true
	case "element":
		return TypeElement, true
	default:
		return TypeVoid, false
	}
}

// Param is one declared action parameter.
type Param struct {
	Type     ValueType
	Optional bool
}

// Action is one entry of the closed capability table.
type Action struct {
	Name   string
	Params []Param
	Result ValueType
}

// The closed capability table. The validator and the code generator both
// consult it to resolve "apply" names; capability unions are sorted by the
// canonical order below so enumeration stays deterministic.

//nolint:gochecknoglobals // closed capability table.
var basicActions = []Action{
	{Name: "getAttribute", Params: []Param{{Type: TypeString}}, Result: TypeString},
	{Name: "getText", Result: TypeString},
	{Name: "isVisible", Result: TypeBoolean},
	{Name: "isPresent", Result: TypeBoolean},
	{Name: "isEnabled", Result: TypeBoolean},
	{Name: "containsElement", Params: []Param{{Type: TypeLocator}, {Type: TypeBoolean, Optional: true}}, Result: TypeBoolean},
}

//nolint:gochecknoglobals // closed capability table.
var capabilityActions = map[string][]Action{
	"actionable": {
		{Name: "focus"},
		{Name: "blur"},
		{Name: "scrollToCenter"},
		{Name: "scrollToTop"},
		{Name: "moveTo"},
	},
	"clickable": {
		{Name: "click"},
		{Name: "doubleClick"},
		{Name: "rightClick"},
		{Name: "clickAndHold", Params: []Param{{Type: TypeNumber}}},
	},
	"editable": {
		{Name: "clear"},
		{Name: "setText", Params: []Param{{Type: TypeString}}},
		{Name: "clearAndType", Params: []Param{{Type: TypeString}}},
		{Name: "press", Params: []Param{{Type: TypeString}}},
	},
	"draggable": {
		{Name: "dragAndDrop", Params: []Param{{Type: TypeElement}}},
		{Name: "dragAndDropByOffset", Params: []Param{{Type: TypeNumber}, {Type: TypeNumber}}},
	},
	"touchable": {
		{Name: "flick", Params: []Param{{Type: TypeNumber}, {Type: TypeNumber}}},
	},
}

//nolint:gochecknoglobals // closed capability table.
var containerActions = []Action{
	{Name: "load"},
	{Name: "loadAs", Params: []Param{{Type: TypeString}}, Result: TypeElement},
}

//nolint:gochecknoglobals // closed capability table.
var frameActions = []Action{
	{Name: "enter", Result: TypeFrame},
}

// extendsActionable lists the tags whose action set includes actionable.
//
//nolint:gochecknoglobals // closed capability table.
var extendsActionable = map[string]bool{
	"clickable": true,
	"editable":  true,
	"draggable": true,
}

// canonicalTagOrder fixes the enumeration order of capability unions.
//
//nolint:gochecknoglobals // closed capability table.
var canonicalTagOrder = []string{"actionable", "clickable", "editable", "draggable", "touchable"}

// KnownCapabilityTag reports whether the tag is in the closed tag set.
func KnownCapabilityTag(tag string) bool {
	_, ok := capabilityActions[tag]

	return ok
}

// actionSet is the resolved set of actions an element admits.
type actionSet struct {
	// open means any action resolves (custom components defer to the
	// referenced document's typechecker).
	open    bool
	actions map[string]Action
	ordered []string
}

func newActionSet() *actionSet {
	return &actionSet{actions: make(map[string]Action)}
}

func (s *actionSet) add(actions []Action) {
	for _, a := range actions {
		if _, exists := s.actions[a.Name]; exists {
			continue
		}

		s.actions[a.Name] = a
		s.ordered = append(s.ordered, a.Name)
	}
}

// lookup resolves an action name. Open sets resolve everything to a
// wildcard action with an unconstrained signature.
func (s *actionSet) lookup(name string) (Action, bool) {
	if a, ok := s.actions[name]; ok {
		return a, true
	}

	if s.open {
		return Action{Name: name, Result: TypeElement}, true
	}

	return Action{}, false
}

// names returns the admitted action names in canonical order.
func (s *actionSet) names() []string {
	out := make([]string, len(s.ordered))
	copy(out, s.ordered)

	return out
}

// actionSetForTags resolves the union set for a capability tag list:
// the basic surface, plus each known tag's actions, plus actionable when
// any tag extends it. Unknown tags are skipped; the validator reports them
// separately.
func actionSetForTags(tags []grammar.Str) *actionSet {
	set := newActionSet()
	set.add(basicActions)

	present := make(map[string]bool, len(tags))

	for _, tag := range tags {
		if KnownCapabilityTag(tag.Value) {
			present[tag.Value] = true
		}

		if extendsActionable[tag.Value] {
			present["actionable"] = true
		}
	}

	for _, tag := range canonicalTagOrder {
		if present[tag] {
			set.add(capabilityActions[tag])
		}
	}

	return set
}

// actionSetForElement resolves the action set an element type admits.
func actionSetForElement(et *grammar.ElementType) *actionSet {
	if et == nil {
		set := newActionSet()
		set.add(basicActions)

		return set
	}

	switch et.Kind {
	case grammar.KindCapabilities:
		return actionSetForTags(et.Capabilities)
	case grammar.KindContainer:
		set := newActionSet()
		set.add(basicActions)
		set.add(containerActions)

		return set
	case grammar.KindFrame:
		set := newActionSet()
		set.add(basicActions)
		set.add(frameActions)

		return set
	case grammar.KindCustom:
		set := newActionSet()
		set.add(basicActions)
		set.open = true

		return set
	case grammar.KindError:
		set := newActionSet()
		set.add(basicActions)
		// Error nodes stay permissive to avoid cascading unknown-action
		// reports after the type diagnostic.
		set.open = true

		return set
	default:
		return newActionSet()
	}
}

// sortedNames returns a sorted copy for stable help strings.
func sortedNames(names []string) []string {
	out := make([]string, len(names))
	copy(out, names)
	sort.Strings(out)

	return out
}
