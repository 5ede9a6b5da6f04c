package codesearch

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/temirov/ghtools/internal/githubcli"
)

const (
	noResultsMessageConstant          = "No results found."
	resultCountTemplateConstant       = "Found %d result(s)\n"
	resultHeadingTemplateConstant     = "\n%d. %s:%s"
	resultURLTemplateConstant         = "   URL: %s"
	resultMatchCountTemplateConstant  = "   Matches: %d"
	resultPreviewTemplateConstant     = "   Preview: %s"
	summaryTitleConstant              = "SEARCH SUMMARY"
	summaryTotalFilesTemplateConstant = "Total files found: %d"
	summaryTotalMatchesTemplate       = "Total text matches: %d"
	summaryRepositoryCountTemplate    = "Unique repositories: %d"
	summaryTopRepositoriesHeading     = "\nTop Repositories:"
	summaryRepositoryLineTemplate     = "  %s: %d file(s)"
	summaryExtensionsHeading          = "\nFile Extensions:"
	summaryExtensionLineTemplate      = "  .%s: %d file(s)"
	unknownValueConstant              = "Unknown"
	headingRuleCharacterConstant      = "="
	separatorRuleCharacterConstant    = "-"
	ruleWidthConstant                 = 80
	previewLimitConstant              = 100
	previewTruncatedLengthConstant    = 97
	previewEllipsisConstant           = "..."
	extensionSeparatorConstant        = "."
	topRepositoryLimitConstant        = 10
	lineSeparatorConstant             = "\n"
	jsonIndentConstant                = "  "
)

// OutputFormat selects how search results are rendered.
type OutputFormat string

// Supported output formats.
const (
	OutputJSON    OutputFormat = OutputFormat(outputFormatJSONConstant)
	OutputPretty  OutputFormat = OutputFormat(outputFormatPrettyConstant)
	OutputSummary OutputFormat = OutputFormat(outputFormatSummaryConstant)
)

type countedName struct {
	name  string
	count int
}

// Render formats results using the requested output format.
func Render(results []githubcli.CodeSearchResult, format OutputFormat) (string, error) {
	switch format {
	case OutputJSON:
		return FormatJSON(results)
	case OutputSummary:
		return FormatSummary(results), nil
	default:
		return FormatPretty(results), nil
	}
}

// FormatJSON renders results as an indented JSON array.
func FormatJSON(results []githubcli.CodeSearchResult) (string, error) {
	if results == nil {
		results = []githubcli.CodeSearchResult{}
	}
	encoded, encodingError := json.MarshalIndent(results, "", jsonIndentConstant)
	if encodingError != nil {
		return "", encodingError
	}
	return string(encoded), nil
}

// FormatPretty renders one block per result with a preview of the first text match.
func FormatPretty(results []githubcli.CodeSearchResult) string {
	if len(results) == 0 {
		return noResultsMessageConstant
	}

	lines := []string{
		fmt.Sprintf(resultCountTemplateConstant, len(results)),
		strings.Repeat(headingRuleCharacterConstant, ruleWidthConstant),
	}
	for resultIndex, result := range results {
		lines = append(lines,
			fmt.Sprintf(resultHeadingTemplateConstant, resultIndex+1, valueOrUnknown(result.Repository.NameWithOwner), valueOrUnknown(result.Path)),
			fmt.Sprintf(resultURLTemplateConstant, result.URL),
			fmt.Sprintf(resultMatchCountTemplateConstant, len(result.TextMatches)),
		)
		if len(result.TextMatches) > 0 && len(result.TextMatches[0].Fragment) > 0 {
			lines = append(lines, fmt.Sprintf(resultPreviewTemplateConstant, truncatePreview(result.TextMatches[0].Fragment)))
		}
		lines = append(lines, strings.Repeat(separatorRuleCharacterConstant, ruleWidthConstant))
	}
	return strings.Join(lines, lineSeparatorConstant)
}

// FormatSummary renders aggregate statistics: totals, the ten repositories
// with the most files and the file extension distribution.
func FormatSummary(results []githubcli.CodeSearchResult) string {
	if len(results) == 0 {
		return noResultsMessageConstant
	}

	repositoryCounts := newOrderedCounter()
	extensionCounts := newOrderedCounter()
	totalMatches := 0
	for _, result := range results {
		repositoryCounts.increment(valueOrUnknown(result.Repository.NameWithOwner))
		totalMatches += len(result.TextMatches)
		if separatorIndex := strings.LastIndex(result.Path, extensionSeparatorConstant); separatorIndex >= 0 {
			extensionCounts.increment(result.Path[separatorIndex+1:])
		}
	}

	lines := []string{
		summaryTitleConstant,
		strings.Repeat(headingRuleCharacterConstant, ruleWidthConstant),
		fmt.Sprintf(summaryTotalFilesTemplateConstant, len(results)),
		fmt.Sprintf(summaryTotalMatchesTemplate, totalMatches),
		fmt.Sprintf(summaryRepositoryCountTemplate, len(repositoryCounts.entries)),
		summaryTopRepositoriesHeading,
	}
	for entryIndex, entry := range repositoryCounts.descending() {
		if entryIndex >= topRepositoryLimitConstant {
			break
		}
		lines = append(lines, fmt.Sprintf(summaryRepositoryLineTemplate, entry.name, entry.count))
	}
	lines = append(lines, summaryExtensionsHeading)
	for _, entry := range extensionCounts.descending() {
		lines = append(lines, fmt.Sprintf(summaryExtensionLineTemplate, entry.name, entry.count))
	}
	return strings.Join(lines, lineSeparatorConstant)
}

// orderedCounter counts names and remembers the order they were first seen.
type orderedCounter struct {
	positions map[string]int
	entries   []countedName
}

func newOrderedCounter() *orderedCounter {
	return &orderedCounter{positions: map[string]int{}}
}

func (counter *orderedCounter) increment(name string) {
	position, exists := counter.positions[name]
	if !exists {
		counter.positions[name] = len(counter.entries)
		counter.entries = append(counter.entries, countedName{name: name, count: 1})
		return
	}
	counter.entries[position].count++
}

func (counter *orderedCounter) descending() []countedName {
	sorted := make([]countedName, len(counter.entries))
	copy(sorted, counter.entries)
	sort.SliceStable(sorted, func(left int, right int) bool {
		return sorted[left].count > sorted[right].count
	})
	return sorted
}

func truncatePreview(fragment string) string {
	runes := []rune(fragment)
	if len(runes) <= previewLimitConstant {
		return fragment
	}
	return string(runes[:previewTruncatedLengthConstant]) + previewEllipsisConstant
}

func valueOrUnknown(value string) string {
	if len(value) == 0 {
		return unknownValueConstant
	}
	return value
}
