// Package lint runs style rules over valid page-object documents and
// renders the findings as diagnostics or SARIF 2.1.0.
package lint

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/grammar"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

// Level is a rule severity setting.
type Level string

// Rule levels.
const (
	LevelOff     Level = "off"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Rule names.
const (
	RuleMissingDescription = "missing-description"
	RuleElementDescription = "element-description"
	RuleDeepShadow         = "deep-shadow"
	RuleAbsoluteSelector   = "absolute-selector"
)

// maxShadowDepth is the nesting depth the deep-shadow rule tolerates.
const maxShadowDepth = 3

// Ruleset maps rule names to levels.
type Ruleset map[string]Level

// DefaultRuleset returns the out-of-the-box rule levels.
func DefaultRuleset() Ruleset {
	return Ruleset{
		RuleMissingDescription: LevelWarning,
		RuleElementDescription: LevelOff,
		RuleDeepShadow:         LevelWarning,
		RuleAbsoluteSelector:   LevelWarning,
	}
}

// rulesetFile is the .utamlint.yaml shape.
type rulesetFile struct {
	Rules map[string]Level `yaml:"rules"`
}

// LoadRuleset reads a YAML ruleset file and overlays it on the defaults.
func LoadRuleset(path string) (Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}

	var file rulesetFile

	err = yaml.Unmarshal(data, &file)
	if err != nil {
		return nil, fmt.Errorf("parse ruleset: %w", err)
	}

	rs := DefaultRuleset()
	for name, level := range file.Rules {
		rs[name] = level
	}

	return rs, nil
}

// Merge overlays string levels (e.g. from project config) onto the ruleset.
func (rs Ruleset) Merge(overrides map[string]string) {
	for name, level := range overrides {
		rs[name] = Level(level)
	}
}

// Run applies the enabled rules to a parsed document.
func Run(src *source.Source, doc *grammar.Document, rs Ruleset) *diag.Bundle {
	bundle := diag.NewBundle()

	l := &linter{src: src, bundle: bundle, rs: rs}

	l.missingDescription(doc)
	l.elementRules(doc)

	return bundle
}

type linter struct {
	src    *source.Source
	bundle *diag.Bundle
	rs     Ruleset
}

func (l *linter) report(rule, code, message string, span source.Span, label, help string) {
	level, ok := l.rs[rule]
	if !ok || level == LevelOff {
		return
	}

	sev := diag.SeverityWarning
	if level == LevelError {
		sev = diag.SeverityError
	}

	d := diag.New(code, message, diag.Label{Src: l.src, Span: span, Label: label}).WithSeverity(sev)
	if help != "" {
		d.WithHelp(help)
	}

	l.bundle.Add(d)
}

func (l *linter) missingDescription(doc *grammar.Document) {
	if doc.Description != nil {
		return
	}

	l.report(RuleMissingDescription, "utam::lint_missing_description",
		"document has no description", doc.Span, "add a description field",
		"a short description helps consumers of the generated page object")
}

func (l *linter) elementRules(doc *grammar.Document) {
	var walk func(els []*grammar.Element, depth int)

	walk = func(els []*grammar.Element, depth int) {
		for _, el := range els {
			if el.Public.Value && el.Description == nil {
				l.report(RuleElementDescription, "utam::lint_element_description",
					fmt.Sprintf("public element %q has no description", el.Name.Value),
					el.Name.Span, "undocumented public surface", "")
			}

			l.checkSelectorSmell(el)

			walk(el.Elements, depth)

			if el.Shadow != nil {
				if depth+1 > maxShadowDepth {
					l.report(RuleDeepShadow, "utam::lint_deep_shadow",
						fmt.Sprintf("shadow nesting deeper than %d levels", maxShadowDepth),
						el.Shadow.Span, "hard to maintain",
						"split the inner shadow content into a custom component")
				}

				walk(el.Shadow.Elements, depth+1)
			}
		}
	}

	depth := 0
	walk(doc.Elements, depth)

	if doc.Shadow != nil {
		walk(doc.Shadow.Elements, depth+1)
	}
}

func (l *linter) checkSelectorSmell(el *grammar.Element) {
	if el.Selector == nil {
		return
	}

	text, ok := el.Selector.Text()
	if !ok {
		return
	}

	kind, _ := el.Selector.Kind()
	if kind != grammar.SelectorCSS {
		return
	}

	if hasAbsolutePrefix(text.Value) {
		l.report(RuleAbsoluteSelector, "utam::lint_absolute_selector",
			fmt.Sprintf("selector %q anchors to the page root", text.Value),
			text.Span, "fragile selector",
			"scope selectors to the element's own subtree")
	}
}

func hasAbsolutePrefix(sel string) bool {
	prefixes := []string{"html", "body ", "body>", "body >"}

	for _, p := range prefixes {
		if len(sel) >= len(p) && sel[:len(p)] == p {
			return true
		}
	}

	return false
}
