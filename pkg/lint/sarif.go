package lint

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/composable-delivery/busbar-sf-utam/pkg/diag"
	"github.com/composable-delivery/busbar-sf-utam/pkg/version"
)

// SARIF 2.1.0 output shapes, limited to the fields this tool emits.

const (
	sarifVersion = "2.1.0"
	sarifSchema  = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/master/Schemata/sarif-schema-2.1.0.json"
	toolName     = "utam"
	toolInfoURI  = "https://github.com/composable-delivery/busbar-sf-utam"
)

type sarifLog struct {
	Version string     `json:"version"`
	Schema  string     `json:"$schema"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool              sarifTool              `json:"tool"`
	AutomationDetails sarifAutomationDetails `json:"automationDetails"`
	Results           []sarifResult          `json:"results"`
}

type sarifAutomationDetails struct {
	GUID string `json:"guid"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string `json:"name"`
	Version        string `json:"version"`
	InformationURI string `json:"informationUri"`
}

type sarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   sarifMessage    `json:"message"`
	Locations []sarifLocation `json:"locations"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	CharOffset int `json:"charOffset"`
	CharLength int `json:"charLength"`
}

// WriteSARIF renders a bundle as one SARIF run.
func WriteSARIF(w io.Writer, bundle *diag.Bundle) error {
	results := make([]sarifResult, 0, bundle.Len())

	for _, d := range bundle.All() {
		results = append(results, toResult(d))
	}

	log := sarifLog{
		Version: sarifVersion,
		Schema:  sarifSchema,
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           toolName,
				Version:        version.Version,
				InformationURI: toolInfoURI,
			}},
			AutomationDetails: sarifAutomationDetails{GUID: uuid.NewString()},
			Results:           results,
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(log)
	if err != nil {
		return fmt.Errorf("encode sarif: %w", err)
	}

	return nil
}

func toResult(d *diag.Diagnostic) sarifResult {
	level := "error"

	switch d.Severity {
	case diag.SeverityWarning:
		level = "warning"
	case diag.SeverityNote:
		level = "note"
	case diag.SeverityError:
		level = "error"
	}

	uri := ""
	if d.Primary.Src != nil {
		uri = d.Primary.Src.Origin()
	}

	return sarifResult{
		RuleID:  d.Code,
		Level:   level,
		Message: sarifMessage{Text: d.Message},
		Locations: []sarifLocation{{
			PhysicalLocation: sarifPhysicalLocation{
				ArtifactLocation: sarifArtifactLocation{URI: uri},
				Region: sarifRegion{
					CharOffset: d.Primary.Span.Start,
					CharLength: d.Primary.Span.Len(),
				},
			},
		}},
	}
}
