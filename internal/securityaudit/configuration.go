package securityaudit

import (
	"strings"

	"github.com/temirov/ghtools/internal/findings"
	pathutils "github.com/temirov/ghtools/internal/utils/path"
)

var auditConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

// Configuration captures persistent settings for the audit command.
type Configuration struct {
	FailOn string   `mapstructure:"fail_on"`
	Format string   `mapstructure:"format"`
	Paths  []string `mapstructure:"paths"`
}

// DefaultConfiguration fails on critical findings and prints text reports.
func DefaultConfiguration() Configuration {
	return Configuration{
		FailOn: string(findings.SeverityCritical),
		Format: string(findings.ReportFormatText),
	}
}

// Sanitize trims values, applies defaults and expands home directory shortcuts in paths.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration

	sanitized.FailOn = strings.ToLower(strings.TrimSpace(configuration.FailOn))
	if len(sanitized.FailOn) == 0 {
		sanitized.FailOn = defaults.FailOn
	}

	sanitized.Format = strings.ToLower(strings.TrimSpace(configuration.Format))
	if len(sanitized.Format) == 0 {
		sanitized.Format = defaults.Format
	}

	sanitized.Paths = auditConfigurationHomeDirectoryExpander.ExpandAll(configuration.Paths)
	return sanitized
}
