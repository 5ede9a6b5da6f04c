package failedrun

import (
	"regexp"
	"strings"
)

const (
	errorLinePatternConstant        = `(?i)\b(?:error|failed|failure|exception|cannot|panic|timeout)\b|Process completed with exit code [1-9]`
	ansiEscapePatternConstant       = `\x1b\[[0-9;]*m`
	leadingTimestampPatternConstant = `^\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d+Z\s*`
	logLineSeparatorConstant        = "\n"
)

var (
	errorLinePattern        = regexp.MustCompile(errorLinePatternConstant)
	ansiEscapePattern       = regexp.MustCompile(ansiEscapePatternConstant)
	leadingTimestampPattern = regexp.MustCompile(leadingTimestampPatternConstant)
)

// ExtractErrorExcerpts returns distinct log lines that look like errors, in
// the order they appear, with color codes and leading timestamps removed.
// At most maximum lines are returned.
func ExtractErrorExcerpts(logText string, maximum int) []string {
	excerpts := []string{}
	if maximum <= 0 {
		return excerpts
	}

	seen := map[string]struct{}{}
	for _, rawLine := range strings.Split(logText, logLineSeparatorConstant) {
		cleanedLine := cleanLogLine(rawLine)
		if len(cleanedLine) == 0 || !errorLinePattern.MatchString(cleanedLine) {
			continue
		}
		if _, duplicate := seen[cleanedLine]; duplicate {
			continue
		}
		seen[cleanedLine] = struct{}{}
		excerpts = append(excerpts, cleanedLine)
		if len(excerpts) >= maximum {
			break
		}
	}
	return excerpts
}

func cleanLogLine(rawLine string) string {
	cleanedLine := ansiEscapePattern.ReplaceAllString(strings.TrimSpace(rawLine), "")
	cleanedLine = leadingTimestampPattern.ReplaceAllString(cleanedLine, "")
	return strings.TrimSpace(cleanedLine)
}
