package findings

import (
	"fmt"
	"io"
)

const (
	sectionItemTemplateConstant = "  - %s\n"
	blankLineConstant           = "\n"
)

// Section pairs a severity with the heading printed above its findings.
type Section struct {
	Severity Severity
	Heading  string
}

// TextLayout describes how one engine prints a per-file report.
type TextLayout struct {
	HeaderTemplate string
	Sections       []Section
	// CleanSeverities must all be zero for CleanMessage to be printed.
	CleanSeverities []Severity
	CleanMessage    string
}

// WriteTextHeader prints only the per-file header line.
func WriteTextHeader(writer io.Writer, layout TextLayout, path string) error {
	_, writeError := fmt.Fprintf(writer, blankLineConstant+layout.HeaderTemplate+blankLineConstant, path)
	return writeError
}

// WriteText prints the header, each non-empty section in layout order and,
// when the result is clean, the clean message.
func WriteText(writer io.Writer, layout TextLayout, path string, result Result) error {
	if writeError := WriteTextHeader(writer, layout, path); writeError != nil {
		return writeError
	}

	for _, section := range layout.Sections {
		sectionFindings := result.BySeverity(section.Severity)
		if len(sectionFindings) == 0 {
			continue
		}
		if _, writeError := fmt.Fprint(writer, blankLineConstant+section.Heading+blankLineConstant); writeError != nil {
			return writeError
		}
		for _, finding := range sectionFindings {
			if _, writeError := fmt.Fprintf(writer, sectionItemTemplateConstant, finding.Message); writeError != nil {
				return writeError
			}
		}
	}

	if isClean(layout, result) {
		if _, writeError := fmt.Fprint(writer, blankLineConstant+layout.CleanMessage+blankLineConstant); writeError != nil {
			return writeError
		}
	}
	return nil
}

func isClean(layout TextLayout, result Result) bool {
	summary := result.Summary()
	for _, severity := range layout.CleanSeverities {
		if summary.Count(severity) > 0 {
			return false
		}
	}
	return true
}
