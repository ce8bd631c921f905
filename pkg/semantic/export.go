package semantic

import "github.com/composable-delivery/busbar-sf-utam/pkg/grammar"

// The code generator consults the same closed capability table the
// validator enforces, through the helpers below.

// CanonicalTags returns the fixed enumeration order of capability tags.
func CanonicalTags() []string {
	out := make([]string, len(canonicalTagOrder))
	copy(out, canonicalTagOrder)

	return out
}

// TagActions returns the actions a capability tag contributes, excluding
// the implied actionable extension. Unknown tags return nil.
func TagActions(tag string) []Action {
	actions, ok := capabilityActions[tag]
	if !ok {
		return nil
	}

	out := make([]Action, len(actions))
	copy(out, actions)

	return out
}

// BasicActions returns the action surface every located element carries.
func BasicActions() []Action {
	out := make([]Action, len(basicActions))
	copy(out, basicActions)

	return out
}

// ResolveAction resolves an apply name against an element type's admitted
// action set, exactly as validation does.
func ResolveAction(et *grammar.ElementType, name string) (Action, bool) {
	return actionSetForElement(et).lookup(name)
}

// ResolveRootAction resolves an apply name against the document root's
// capability tags plus the basic surface.
func ResolveRootAction(tags []grammar.Str, name string) (Action, bool) {
	return actionSetForTags(tags).lookup(name)
}

// TagProvidingAction returns the first canonical tag among the given ones
// whose action set (including the implied actionable extension) contains
// the action, or "" when the basic surface provides it.
func TagProvidingAction(tags []grammar.Str, name string) (string, bool) {
	for _, a := range basicActions {
		if a.Name == name {
			return "", true
		}
	}

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
		if !present[tag] {
			continue
		}

		for _, a := range capabilityActions[tag] {
			if a.Name == name {
				return tag, true
			}
		}
	}

	return "", false
}
