package failedrun

import "strings"

const defaultMaximumExcerptsConstant = 50

// Configuration captures persistent settings for the failed-run command.
type Configuration struct {
	Repository      string `mapstructure:"repository"`
	Pretty          bool   `mapstructure:"pretty"`
	MaximumExcerpts int    `mapstructure:"max_excerpts"`
}

// DefaultConfiguration inspects the current repository and keeps up to fifty excerpts per job.
func DefaultConfiguration() Configuration {
	return Configuration{MaximumExcerpts: defaultMaximumExcerptsConstant}
}

// Sanitize trims the repository and restores the excerpt limit when unset.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Repository = strings.TrimSpace(configuration.Repository)
	if sanitized.MaximumExcerpts <= 0 {
		sanitized.MaximumExcerpts = DefaultConfiguration().MaximumExcerpts
	}
	return sanitized
}
