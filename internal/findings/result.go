package findings

import "encoding/json"

// Finding is one classified observation produced by a rule.
type Finding struct {
	Severity Severity `json:"severity"`
	Rule     string   `json:"rule"`
	Message  string   `json:"message"`
}

// Summary counts findings per severity of a scale. Values are immutable.
type Summary struct {
	scale  Scale
	counts map[Severity]int
}

// NewSummary returns an all-zero summary for scale.
func NewSummary(scale Scale) Summary {
	counts := make(map[Severity]int, len(scale))
	for _, severity := range scale {
		counts[severity] = 0
	}
	return Summary{scale: scale, counts: counts}
}

// Scale returns the severities the summary counts.
func (summary Summary) Scale() Scale {
	return summary.scale
}

// Count returns the number of findings at severity.
func (summary Summary) Count(severity Severity) int {
	return summary.counts[severity]
}

// Total returns the number of findings across all severities.
func (summary Summary) Total() int {
	total := 0
	for _, severity := range summary.scale {
		total += summary.counts[severity]
	}
	return total
}

// Add returns the element-wise sum of both summaries.
func (summary Summary) Add(other Summary) Summary {
	scale := summary.scale
	if len(scale) == 0 {
		scale = other.scale
	}
	combined := NewSummary(scale)
	for severity, count := range summary.counts {
		combined.counts[severity] += count
	}
	for severity, count := range other.counts {
		combined.counts[severity] += count
	}
	return combined
}

// Exceeds reports whether any severity at or above threshold has findings.
func (summary Summary) Exceeds(threshold Severity) bool {
	for _, severity := range summary.scale.AtOrAbove(threshold) {
		if summary.counts[severity] > 0 {
			return true
		}
	}
	return false
}

// Counts returns a copy of the per-severity counts.
func (summary Summary) Counts() map[Severity]int {
	copied := make(map[Severity]int, len(summary.counts))
	for severity, count := range summary.counts {
		copied[severity] = count
	}
	return copied
}

// MarshalJSON renders the summary as a severity to count object.
func (summary Summary) MarshalJSON() ([]byte, error) {
	return json.Marshal(summary.Counts())
}

// Result is the immutable outcome of checking one document.
type Result struct {
	findings []Finding
	summary  Summary
}

// Findings returns the findings in the order they were recorded.
func (result Result) Findings() []Finding {
	copied := make([]Finding, len(result.findings))
	copy(copied, result.findings)
	return copied
}

// Summary returns the per-severity counts.
func (result Result) Summary() Summary {
	return result.summary
}

// BySeverity returns the findings at severity in recording order.
func (result Result) BySeverity(severity Severity) []Finding {
	var selected []Finding
	for _, finding := range result.findings {
		if finding.Severity == severity {
			selected = append(selected, finding)
		}
	}
	return selected
}

// IsEmpty reports whether no findings were recorded.
func (result Result) IsEmpty() bool {
	return len(result.findings) == 0
}

// Collector accumulates findings for a single document check.
type Collector struct {
	scale    Scale
	findings []Finding
}

// NewCollector creates an empty collector for scale.
func NewCollector(scale Scale) *Collector {
	return &Collector{scale: scale}
}

// Record appends a finding.
func (collector *Collector) Record(severity Severity, rule string, message string) {
	collector.findings = append(collector.findings, Finding{Severity: severity, Rule: rule, Message: message})
}

// Result freezes the recorded findings. Later records do not affect returned results.
func (collector *Collector) Result() Result {
	frozen := make([]Finding, len(collector.findings))
	copy(frozen, collector.findings)

	summary := NewSummary(collector.scale)
	for _, finding := range frozen {
		summary.counts[finding.Severity]++
	}
	return Result{findings: frozen, summary: summary}
}

// EmptyResult returns a result with no findings for scale.
func EmptyResult(scale Scale) Result {
	return NewCollector(scale).Result()
}
