package findings

import (
	"fmt"
	"strings"
)

const unknownSeverityTemplateConstant = "unsupported severity %q (expected one of %s)"

// Severity labels a finding.
type Severity string

// Audit severities, most severe first.
const (
	SeverityCritical Severity = Severity("critical")
	SeverityHigh     Severity = Severity("high")
	SeverityMedium   Severity = Severity("medium")
	SeverityLow      Severity = Severity("low")
)

// Validation severities, most severe first.
const (
	SeverityError   Severity = Severity("error")
	SeverityWarning Severity = Severity("warning")
	SeverityInfo    Severity = Severity("info")
)

// Scale orders the severities of one engine from most to least severe.
type Scale []Severity

// AuditScale ranks security audit findings.
var AuditScale = Scale{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// ValidationScale ranks workflow validation findings.
var ValidationScale = Scale{SeverityError, SeverityWarning, SeverityInfo}

// Rank returns the zero-based position of severity, zero being most severe.
func (scale Scale) Rank(severity Severity) (int, bool) {
	for index, candidate := range scale {
		if candidate == severity {
			return index, true
		}
	}
	return len(scale), false
}

// Contains reports whether severity belongs to the scale.
func (scale Scale) Contains(severity Severity) bool {
	_, found := scale.Rank(severity)
	return found
}

// AtOrAbove lists threshold and every more severe level, most severe first.
func (scale Scale) AtOrAbove(threshold Severity) []Severity {
	rank, found := scale.Rank(threshold)
	if !found {
		return nil
	}
	selected := make([]Severity, rank+1)
	copy(selected, scale[:rank+1])
	return selected
}

// Parse resolves a case-insensitive severity name against the scale.
func (scale Scale) Parse(value string) (Severity, error) {
	candidate := Severity(strings.ToLower(strings.TrimSpace(value)))
	if scale.Contains(candidate) {
		return candidate, nil
	}
	return "", fmt.Errorf(unknownSeverityTemplateConstant, value, strings.Join(scale.Names(), ", "))
}

// Names returns the severity names in scale order.
func (scale Scale) Names() []string {
	names := make([]string, 0, len(scale))
	for _, severity := range scale {
		names = append(names, string(severity))
	}
	return names
}
