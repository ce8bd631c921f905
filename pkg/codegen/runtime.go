package codegen

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/names"
	"github.com/composable-delivery/busbar-sf-utam/pkg/semantic"
)

// The fixed utam_core runtime surface the generator emits calls against.
// Centralized here so the compatibility contract lives in one place.
const (
	runtimePrelude = "utam_core::prelude::*"

	typeWebElement = "WebElement"
	typeWebDriver  = "WebDriver"
	typeShadowRoot = "ShadowRoot"
	typeDuration   = "std::time::Duration"

	traitPageObject     = "PageObject"
	traitRootPageObject = "RootPageObject"

	wrapperBase      = "BaseElement"
	wrapperClickable = "ClickableElement"
	wrapperEditable  = "EditableElement"
	wrapperDraggable = "DraggableElement"
	wrapperTouchable = "TouchableElement"
	wrapperContainer = "ContainerElement"
	wrapperFrame     = "FrameElement"

	// containerDefaultSelector locates a container's slotted content when
	// the document does not override it.
	containerDefaultSelector = ":scope > *:first-child"
)

// utamResult wraps a type in the runtime result alias.
func utamResult(inner string) string {
	return "UtamResult<" + inner + ">"
}

// capabilityTrait maps a capability tag to the runtime trait the nominal
// union wrappers implement.
func capabilityTrait(tag string) string {
	switch tag {
	case "actionable":
		return "Actionable"
	case "clickable":
		return "Clickable"
	case "editable":
		return "Editable"
	case "draggable":
		return "Draggable"
	case "touchable":
		return "Touchable"
	default:
		return ""
	}
}

// tagWrapper maps a capability tag to its canonical wrapper type.
func tagWrapper(tag string) string {
	switch tag {
	case "clickable":
		return wrapperClickable
	case "editable":
		return wrapperEditable
	case "draggable":
		return wrapperDraggable
	case "touchable":
		return wrapperTouchable
	default:
		return wrapperBase
	}
}

// byVariant maps a selector kind to the runtime locator constructor.
func byVariant(kind grammar.SelectorKind) string {
	switch kind {
	case grammar.SelectorAccessID:
		return "By::AccessibilityId"
	case grammar.SelectorClassChain:
		return "By::ClassChain"
	case grammar.SelectorUIAutomator:
		return "By::UiAutomator"
	case grammar.SelectorCSS:
		return "By::Css"
	default:
		return "By::Css"
	}
}

// byExpr renders a selector as a locator expression. A selector with N
// arguments renders as a format! expression over its N arguments in
// declaration order; the static placeholder shape is preserved.
func byExpr(sel *grammar.Selector) string {
	if sel == nil {
		return fmt.Sprintf("%s(%s)", "By::Css", strLit(containerDefaultSelector))
	}

	kind, _ := sel.Kind()

	text, ok := sel.Text()
	if !ok {
		return fmt.Sprintf("%s(%s)", byVariant(kind), strLit(""))
	}

	if len(sel.Args) == 0 {
		return fmt.Sprintf("%s(%s)", byVariant(kind), strLit(text.Value))
	}

	argNames := make([]string, 0, len(sel.Args))
	for _, a := range sel.Args {
		argNames = append(argNames, names.SnakeCase(a.Name.Value))
	}

	return fmt.Sprintf("%s(format!(%s, %s))",
		byVariant(kind), strLit(formatTemplate(text.Value)), strings.Join(argNames, ", "))
}

// formatTemplate converts %s/%d placeholder text into a format! template:
// braces are escaped, placeholders become {}, and %% collapses to a
// literal percent sign.
func formatTemplate(text string) string {
	var sb strings.Builder

	for i := 0; i < len(text); i++ {
		ch := text[i]

		switch {
		case ch == '{':
			sb.WriteString("{{")
		case ch == '}':
			sb.WriteString("}}")
		case ch == '%' && i+1 < len(text) && (text[i+1] == 's' || text[i+1] == 'd'):
			sb.WriteString("{}")
			i++
		case ch == '%' && i+1 < len(text) && text[i+1] == '%':
			sb.WriteByte('%')
			i++
		default:
			sb.WriteByte(ch)
		}
	}

	return sb.String()
}

// paramType maps a grammar type string to the Rust parameter type.
func paramType(t string) string {
	switch t {
	case "string":
		return "&str"
	case "number":
		return "i64"
	case "boolean":
		return "bool"
	case "locator":
		return "By"
	case "element":
		return typeWebElement
	default:
		return names.PascalCase(t)
	}
}

// returnType maps a grammar type string to the Rust return type. Owned
// values come back from actions, so string maps to String here.
func returnType(t string) string {
	switch t {
	case "string":
		return "String"
	case "number":
		return "i64"
	case "boolean":
		return "bool"
	case "void":
		return "()"
	case "element":
		return typeWebElement
	default:
		return names.PascalCase(t)
	}
}

// actionParamType maps a capability-table value type to a Rust parameter type.
func actionParamType(t semantic.ValueType) string {
	switch t {
	case semantic.TypeString:
		return "&str"
	case semantic.TypeNumber:
		return "i64"
	case semantic.TypeBoolean:
		return "bool"
	case semantic.TypeLocator:
		return "By"
	case semantic.TypeElement:
		return typeWebElement
	default:
		return "()"
	}
}

// actionReturnType maps a capability-table value type to a Rust return type.
func actionReturnType(t semantic.ValueType) string {
	switch t {
	case semantic.TypeString:
		return "String"
	case semantic.TypeNumber:
		return "i64"
	case semantic.TypeBoolean:
		return "bool"
	case semantic.TypeElement:
		return typeWebElement
	case semantic.TypeFrame:
		return "FrameScope"
	default:
		return "()"
	}
}

// numberLit renders a numeric literal, preferring integer form.
func numberLit(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}

	return strconv.FormatFloat(f, 'g', -1, 64)
}
