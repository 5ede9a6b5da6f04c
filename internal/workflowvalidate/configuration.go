package workflowvalidate

import (
	"strings"

	"github.com/temirov/ghtools/internal/findings"
	pathutils "github.com/temirov/ghtools/internal/utils/path"
)

var validateConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

// Configuration captures persistent settings for the validate command.
type Configuration struct {
	Strict bool     `mapstructure:"strict"`
	Schema bool     `mapstructure:"schema"`
	Format string   `mapstructure:"format"`
	Paths  []string `mapstructure:"paths"`
}

// DefaultConfiguration prints text reports without strict or schema checks.
func DefaultConfiguration() Configuration {
	return Configuration{Format: string(findings.ReportFormatText)}
}

// Sanitize trims values, applies defaults and expands home directory shortcuts in paths.
func (configuration Configuration) Sanitize() Configuration {
	sanitized := configuration
	sanitized.Format = strings.ToLower(strings.TrimSpace(configuration.Format))
	if len(sanitized.Format) == 0 {
		sanitized.Format = DefaultConfiguration().Format
	}

	sanitized.Paths = validateConfigurationHomeDirectoryExpander.ExpandAll(configuration.Paths)
	return sanitized
}
