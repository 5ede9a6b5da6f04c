package findings

import (
	"encoding/json"
	"io"
)

const (
	sarifSchemaConstant       = "https://json.schemastore.org/sarif-2.1.0.json"
	sarifVersionConstant      = "2.1.0"
	sarifLevelErrorConstant   = "error"
	sarifLevelWarningConstant = "warning"
	sarifLevelNoteConstant    = "note"
)

// RuleDescriptor documents a rule in SARIF output.
type RuleDescriptor struct {
	Identifier  string
	Description string
}

// SarifLog is the top-level SARIF 2.1.0 document.
type SarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []SarifRun `json:"runs"`
}

// SarifRun is a single tool invocation.
type SarifRun struct {
	Tool    SarifTool     `json:"tool"`
	Results []SarifResult `json:"results"`
}

// SarifTool names the producing tool.
type SarifTool struct {
	Driver SarifDriver `json:"driver"`
}

// SarifDriver describes the tool and its rules.
type SarifDriver struct {
	Name  string      `json:"name"`
	Rules []SarifRule `json:"rules"`
}

// SarifRule describes one rule.
type SarifRule struct {
	ID               string       `json:"id"`
	ShortDescription SarifMessage `json:"shortDescription"`
}

// SarifResult is one finding.
type SarifResult struct {
	RuleID    string          `json:"ruleId"`
	Level     string          `json:"level"`
	Message   SarifMessage    `json:"message"`
	Locations []SarifLocation `json:"locations"`
}

// SarifMessage carries text.
type SarifMessage struct {
	Text string `json:"text"`
}

// SarifLocation points at the offending file.
type SarifLocation struct {
	PhysicalLocation SarifPhysicalLocation `json:"physicalLocation"`
}

// SarifPhysicalLocation identifies an artifact.
type SarifPhysicalLocation struct {
	ArtifactLocation SarifArtifactLocation `json:"artifactLocation"`
}

// SarifArtifactLocation holds the artifact URI.
type SarifArtifactLocation struct {
	URI string `json:"uri"`
}

// BuildSarif converts a batch report into a SARIF log.
func BuildSarif(toolName string, rules []RuleDescriptor, report BatchReport) SarifLog {
	driver := SarifDriver{Name: toolName, Rules: make([]SarifRule, 0, len(rules))}
	for _, rule := range rules {
		driver.Rules = append(driver.Rules, SarifRule{ID: rule.Identifier, ShortDescription: SarifMessage{Text: rule.Description}})
	}

	results := []SarifResult{}
	for _, fileReport := range report.Files {
		for _, finding := range fileReport.Result.Findings() {
			results = append(results, SarifResult{
				RuleID:  finding.Rule,
				Level:   SarifLevel(report.Scale, finding.Severity),
				Message: SarifMessage{Text: finding.Message},
				Locations: []SarifLocation{{
					PhysicalLocation: SarifPhysicalLocation{ArtifactLocation: SarifArtifactLocation{URI: fileReport.Path}},
				}},
			})
		}
	}

	return SarifLog{
		Schema:  sarifSchemaConstant,
		Version: sarifVersionConstant,
		Runs:    []SarifRun{{Tool: SarifTool{Driver: driver}, Results: results}},
	}
}

// SarifLevel maps a severity onto error, warning or note by its rank.
// The more severe half of a scale maps to error, the next level to warning
// and the rest to note.
func SarifLevel(scale Scale, severity Severity) string {
	rank, found := scale.Rank(severity)
	if !found {
		return sarifLevelNoteConstant
	}
	errorLevels := len(scale) / 2
	switch {
	case rank < errorLevels:
		return sarifLevelErrorConstant
	case rank == errorLevels:
		return sarifLevelWarningConstant
	default:
		return sarifLevelNoteConstant
	}
}

// WriteSarif encodes the SARIF log with indentation.
func WriteSarif(writer io.Writer, log SarifLog) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndentConstant)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(log)
}
