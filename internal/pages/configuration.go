package pages

import (
	"strings"

	pathutils "github.com/temirov/ghtools/internal/utils/path"
)

const (
	defaultBranchConstant       = "main"
	rootSourcePathConstant      = "/"
	docsSourcePathConstant      = "/docs"
	buildTypeWorkflowConstant   = "workflow"
	buildTypeLegacyConstant     = "legacy"
	defaultWorkflowPathConstant = ".github/workflows/pages.yml"
)

var pagesConfigurationHomeDirectoryExpander = pathutils.NewHomeExpander()

// Configuration captures persistent settings for the pages commands.
type Configuration struct {
	Branch       string `mapstructure:"branch"`
	Path         string `mapstructure:"path"`
	BuildType    string `mapstructure:"build_type"`
	EnforceHTTPS bool   `mapstructure:"enforce_https"`
	WorkflowPath string `mapstructure:"workflow_path"`
}

// DefaultConfiguration publishes main from the repository root through a workflow build with HTTPS enforced.
func DefaultConfiguration() Configuration {
	return Configuration{
		Branch:       defaultBranchConstant,
		Path:         rootSourcePathConstant,
		BuildType:    buildTypeWorkflowConstant,
		EnforceHTTPS: true,
		WorkflowPath: defaultWorkflowPathConstant,
	}
}

// Sanitize trims values, restores defaults for blank ones and expands the workflow path.
func (configuration Configuration) Sanitize() Configuration {
	defaults := DefaultConfiguration()
	sanitized := configuration
	sanitized.Branch = valueOrDefault(configuration.Branch, defaults.Branch)
	sanitized.Path = valueOrDefault(configuration.Path, defaults.Path)
	sanitized.BuildType = strings.ToLower(valueOrDefault(configuration.BuildType, defaults.BuildType))
	sanitized.WorkflowPath = pagesConfigurationHomeDirectoryExpander.Expand(valueOrDefault(configuration.WorkflowPath, defaults.WorkflowPath))
	return sanitized
}

func valueOrDefault(value string, fallback string) string {
	trimmedValue := strings.TrimSpace(value)
	if len(trimmedValue) == 0 {
		return fallback
	}
	return trimmedValue
}
