package lsp

import (
	"strings"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

//nolint:gochecknoglobals // static completion tables.
var (
	documentFields = []protocol.CompletionItem{
		completionItem("root", protocol.CompletionItemKindField, "Marks a root page object (requires selector)"),
		completionItem("selector", protocol.CompletionItemKindField, "Locator for the root or an element"),
		completionItem("exposeRootElement", protocol.CompletionItemKindField, "Expose the root element handle"),
		completionItem("type", protocol.CompletionItemKindField, "Capability tags, component path, container or frame"),
		completionItem("interface", protocol.CompletionItemKindField, "Declare signatures only"),
		completionItem("implements", protocol.CompletionItemKindField, "Interface this document implements"),
		completionItem("shadow", protocol.CompletionItemKindField, "Elements inside the shadow root"),
		completionItem("elements", protocol.CompletionItemKindField, "Child element definitions"),
		completionItem("methods", protocol.CompletionItemKindField, "Composed interaction methods"),
		completionItem("beforeLoad", protocol.CompletionItemKindField, "Conditions checked during load"),
		completionItem("description", protocol.CompletionItemKindField, "Document or element description"),
	}

	elementFields = []protocol.CompletionItem{
		completionItem("name", protocol.CompletionItemKindField, "Element name (document-wide namespace)"),
		completionItem("public", protocol.CompletionItemKindField, "Expose the generated accessor"),
		completionItem("nullable", protocol.CompletionItemKindField, "Accessor returns an optional value"),
		completionItem("wait", protocol.CompletionItemKindField, "Additionally generate a wait method"),
		completionItem("load", protocol.CompletionItemKindField, "Participates in the page load sequence"),
		completionItem("filter", protocol.CompletionItemKindField, "Narrow a returnAll element"),
		completionItem("returnAll", protocol.CompletionItemKindField, "Locate every match"),
	}

	composeFields = []protocol.CompletionItem{
		completionItem("element", protocol.CompletionItemKindField, "Element the statement targets"),
		completionItem("apply", protocol.CompletionItemKindField, "Action to apply"),
		completionItem("args", protocol.CompletionItemKindField, "Literal or referenced arguments"),
		completionItem("chain", protocol.CompletionItemKindField, "Apply to the preceding statement's value"),
		completionItem("matcher", protocol.CompletionItemKindField, "Assert on the statement's value"),
		completionItem("applyExternal", protocol.CompletionItemKindField, "Call into an external helper"),
	}

	hoverDocs = map[string]string{
		"root":          "Marks a root page object. Root documents require a `selector` and gain `load` and `wait_for_load`.",
		"selector":      "Exactly one of `css`, `accessid`, `classchain`, `uiautomator`, plus optional `args` and `returnAll`.",
		"shadow":        "Children declared under `shadow` are located inside the element's shadow root.",
		"type":          "Capability tags (`actionable`, `clickable`, `editable`, `draggable`, `touchable`), a component path, `container`, or `frame`.",
		"returnAll":     "Locate every match instead of the first. Forbidden on frames.",
		"chain":         "Applies the action to the value produced by the preceding compose statement.",
		"matcher":       "Typed predicate: `isTrue`, `isFalse`, `stringEquals`, `stringContains`, `notNull`.",
		"beforeLoad":    "Statements run against the root element during `load`; only booleans may flow out.",
		"wait":          "Generates `wait_for_<name>` polling the accessor until it succeeds.",
		"nullable":      "The accessor returns an optional value instead of failing when the element is absent.",
		"filter":        "Narrows a `returnAll` element: `find` produces a value per candidate, `match` filters, `findFirst` short-circuits.",
		"interface":     "The document declares method and accessor signatures only.",
		"implements":    "Names the interface document whose contract these methods fulfill.",
		"applyExternal": "Calls a helper outside the page object: `{\"method\": ..., \"args\": [...]}`.",
	}
)

func completionItem(label string, kind protocol.CompletionItemKind, detail string) protocol.CompletionItem {
	return protocol.CompletionItem{
		Label:  label,
		Kind:   &kind,
		Detail: &detail,
	}
}

func (srv *Server) completion(_ *glsp.Context, _ *protocol.CompletionParams) (any, error) {
	items := make([]protocol.CompletionItem, 0, len(documentFields)+len(elementFields)+len(composeFields))
	items = append(items, documentFields...)
	items = append(items, elementFields...)
	items = append(items, composeFields...)

	return protocol.CompletionList{IsIncomplete: false, Items: items}, nil
}

func (srv *Server) hover(_ *glsp.Context, params *protocol.HoverParams) (*protocol.Hover, error) {
	uri := params.TextDocument.URI
	pos := params.Position

	text, ok := srv.store.Get(uri)
	if !ok {
		return nil, nil //nolint:nilnil // LSP expects nil hover when no document is found.
	}

	word := extractWordAtPosition(text, int(pos.Line), int(pos.Character))

	if doc, found := hoverDocs[word]; found {
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.MarkupKindMarkdown,
				Value: doc,
			},
		}, nil
	}

	return nil, nil //nolint:nilnil // no hover for unknown words.
}

// extractWordAtPosition returns the identifier under the zero-based
// line/character position.
func extractWordAtPosition(text string, line, character int) string {
	lines := strings.Split(text, "\n")
	if line < 0 || line >= len(lines) {
		return ""
	}

	current := lines[line]
	if character < 0 || character > len(current) {
		return ""
	}

	isWord := func(b byte) bool {
		return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9')
	}

	start := character
	for start > 0 && isWord(current[start-1]) {
		start--
	}

	end := character
	for end < len(current) && isWord(current[end]) {
		end++
	}

	return current[start:end]
}
