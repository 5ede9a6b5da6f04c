package findings

import (
	"encoding/json"
	"io"
)

const jsonIndentConstant = "  "

// ReportFormat selects how a batch report is rendered.
type ReportFormat string

// Supported report formats.
const (
	ReportFormatText  ReportFormat = ReportFormat("text")
	ReportFormatJSON  ReportFormat = ReportFormat("json")
	ReportFormatSarif ReportFormat = ReportFormat("sarif")
)

// FileReport is the result of checking one file. Skipped marks a file the
// rules never ran against.
type FileReport struct {
	Path    string
	Result  Result
	Skipped bool
}

// BatchReport aggregates the reports of one command invocation.
type BatchReport struct {
	Scale   Scale
	Files   []FileReport
	Summary Summary
	Passed  bool
}

type jsonFileReport struct {
	Path     string    `json:"path"`
	Findings []Finding `json:"findings"`
	Summary  Summary   `json:"summary"`
	Skipped  bool      `json:"skipped,omitempty"`
}

type jsonBatchReport struct {
	Files   []jsonFileReport `json:"files"`
	Summary Summary          `json:"summary"`
	Passed  bool             `json:"passed"`
}

// WriteJSON encodes the batch as an indented JSON document.
func WriteJSON(writer io.Writer, report BatchReport) error {
	document := jsonBatchReport{Files: make([]jsonFileReport, 0, len(report.Files)), Summary: report.Summary, Passed: report.Passed}
	for _, fileReport := range report.Files {
		document.Files = append(document.Files, jsonFileReport{
			Path:     fileReport.Path,
			Findings: fileReport.Result.Findings(),
			Summary:  fileReport.Result.Summary(),
			Skipped:  fileReport.Skipped,
		})
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", jsonIndentConstant)
	encoder.SetEscapeHTML(false)
	return encoder.Encode(document)
}
