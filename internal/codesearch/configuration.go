package codesearch

import (
	"strings"
)

const (
	defaultResultLimitConstant  = 30
	outputFormatJSONConstant    = "json"
	outputFormatPrettyConstant  = "pretty"
	outputFormatSummaryConstant = "summary"
	sortKeyMatchesConstant      = "matches"
	sortKeyRepositoryConstant   = "repo"
	sortKeyPathConstant         = "path"
)

// Configuration captures persistent settings for the search command.
type Configuration struct {
	Limit          int      `mapstructure:"limit"`
	Language       string   `mapstructure:"language"`
	Owners         []string `mapstructure:"owners"`
	Repositories   []string `mapstructure:"repositories"`
	ExcludeForks   bool     `mapstructure:"exclude_forks"`
	ExcludePrivate bool     `mapstructure:"exclude_private"`
	MinMatches     int      `mapstructure:"min_matches"`
	SortBy         string   `mapstructure:"sort_by"`
	Output         string   `mapstructure:"output"`
}

// DefaultConfiguration returns thirty results rendered in the pretty format.
func DefaultConfiguration() Configuration {
	return Configuration{Limit: defaultResultLimitConstant, Output: outputFormatPrettyConstant}
}

// Sanitize trims string values, drops blank list entries and restores defaults for unset values.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	if sanitized.Limit <= 0 {
		sanitized.Limit = defaults.Limit
	}
	if sanitized.MinMatches < 0 {
		sanitized.MinMatches = 0
	}
	sanitized.Language = strings.TrimSpace(configuration.Language)
	sanitized.SortBy = strings.ToLower(strings.TrimSpace(configuration.SortBy))
	sanitized.Output = strings.ToLower(strings.TrimSpace(configuration.Output))
	if len(sanitized.Output) == 0 {
		sanitized.Output = defaults.Output
	}
	sanitized.Owners = sanitizeList(configuration.Owners)
	sanitized.Repositories = sanitizeList(configuration.Repositories)
	return sanitized
}

func sanitizeList(values []string) []string {
	sanitized := make([]string, 0, len(values))
	for _, value := range values {
		trimmedValue := strings.TrimSpace(value)
		if len(trimmedValue) == 0 {
			continue
		}
		sanitized = append(sanitized, trimmedValue)
	}
	if len(sanitized) == 0 {
		return nil
	}
	return sanitized
}
