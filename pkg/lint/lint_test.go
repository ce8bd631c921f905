package lint

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/parser"
	"github.com/composable-delivery/busbar-sf-utam/pkg/source"
)

func lintText(t *testing.T, text string, rs Ruleset) *diag.Bundle {
	t.Helper()

	src := source.New("test.utam.json", text)
	res := parser.Parse(src)
	require.NotNil(t, res.Doc)

	return Run(src, res.Doc, rs)
}

func ruleIDs(bundle *diag.Bundle) []string {
	out := make([]string, 0, bundle.Len())
	for _, d := range bundle.All() {
		out = append(out, d.Code)
	}

	return out
}

func TestRun_MissingDescription(t *testing.T) {
	t.Parallel()

	bundle := lintText(t, `{"root": true, "selector": {"css": ".app"}}`, DefaultRuleset())

	assert.Contains(t, ruleIDs(bundle), "utam::lint_missing_description")
	assert.False(t, bundle.HasErrors(), "default level is warning")
}

func TestRun_DescriptionPresentIsClean(t *testing.T) {
	t.Parallel()

	bundle := lintText(t, `{"description": "Login page", "root": true, "selector": {"css": ".app"}}`, DefaultRuleset())

	assert.Equal(t, 0, bundle.Len())
}

func TestRun_RuleOff(t *testing.T) {
	t.Parallel()

	rs := DefaultRuleset()
	rs[RuleMissingDescription] = LevelOff

	bundle := lintText(t, `{"root": true, "selector": {"css": ".app"}}`, rs)
	assert.Equal(t, 0, bundle.Len())
}

func TestRun_RuleEscalatedToError(t *testing.T) {
	t.Parallel()

	rs := DefaultRuleset()
	rs[RuleMissingDescription] = LevelError

	bundle := lintText(t, `{"root": true, "selector": {"css": ".app"}}`, rs)
	assert.True(t, bundle.HasErrors())
}

func TestRun_AbsoluteSelector(t *testing.T) {
	t.Parallel()

	bundle := lintText(t, `{
		"description": "x",
		"elements": [{"name": "nav", "selector": {"css": "body > nav"}}]
	}`, DefaultRuleset())

	assert.Contains(t, ruleIDs(bundle), "utam::lint_absolute_selector")
}

func TestRun_DeepShadow(t *testing.T) {
	t.Parallel()

	bundle := lintText(t, `{
		"description": "x",
		"shadow": {"elements": [{"name": "a", "selector": {"css": ".a"},
			"shadow": {"elements": [{"name": "b", "selector": {"css": ".b"},
				"shadow": {"elements": [{"name": "c", "selector": {"css": ".c"},
					"shadow": {"elements": [{"name": "d", "selector": {"css": ".d"}}]}
				}]}
			}]}
		}]}
	}`, DefaultRuleset())

	assert.Contains(t, ruleIDs(bundle), "utam::lint_deep_shadow")
}

func TestRun_ElementDescriptionOptIn(t *testing.T) {
	t.Parallel()

	text := `{
		"description": "x",
		"elements": [{"name": "btn", "selector": {"css": ".b"}, "public": true}]
	}`

	defaultBundle := lintText(t, text, DefaultRuleset())
	assert.NotContains(t, ruleIDs(defaultBundle), "utam::lint_element_description")

	rs := DefaultRuleset()
	rs[RuleElementDescription] = LevelWarning

	optIn := lintText(t, text, rs)
	assert.Contains(t, ruleIDs(optIn), "utam::lint_element_description")
}

func TestLoadRuleset_OverlaysDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, ".utamlint.yaml")
	content := "rules:\n  missing-description: error\n  deep-shadow: \"off\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	rs, err := LoadRuleset(path)
	require.NoError(t, err)
	assert.Equal(t, LevelError, rs[RuleMissingDescription])
	assert.Equal(t, LevelOff, rs[RuleDeepShadow])
	assert.Equal(t, LevelWarning, rs[RuleAbsoluteSelector])
}

func TestRuleset_Merge(t *testing.T) {
	t.Parallel()

	rs := DefaultRuleset()
	rs.Merge(map[string]string{RuleAbsoluteSelector: "error"})

	assert.Equal(t, LevelError, rs[RuleAbsoluteSelector])
}

func TestWriteSARIF_Shape(t *testing.T) {
	t.Parallel()

	src := source.New("pages/login.utam.json", `{"root": true}`)
	bundle := diag.NewBundle()
	bundle.Add(diag.New("utam::lint_missing_description", "document has no description", diag.Label{
		Src:  src,
		Span: source.NewSpan(0, 14),
	}).WithSeverity(diag.SeverityWarning))

	var buf bytes.Buffer
	require.NoError(t, WriteSARIF(&buf, bundle))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "2.1.0", decoded["version"])

	runs, ok := decoded["runs"].([]any)
	require.True(t, ok)
	require.Len(t, runs, 1)

	run, ok := runs[0].(map[string]any)
	require.True(t, ok)

	details, ok := run["automationDetails"].(map[string]any)
	require.True(t, ok)
	assert.NotEmpty(t, details["guid"])

	results, ok := run["results"].([]any)
	require.True(t, ok)
	require.Len(t, results, 1)

	result, ok := results[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "utam::lint_missing_description", result["ruleId"])
	assert.Equal(t, "warning", result["level"])
}
