package pages

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/dependencies"
	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/githubcli"
	"github.com/temirov/ghtools/internal/utils"
	flagutils "github.com/temirov/ghtools/internal/utils/flags"
)

const (
	groupUseConstant                       = "pages"
	groupShortDescriptionConstant          = "Manage GitHub Pages sites through the GitHub CLI"
	groupLongDescriptionConstant           = "pages enables GitHub Pages, reports site and build status, triggers rebuilds and writes a starter deployment workflow."
	enableUseConstant                      = "enable <owner/repo>"
	enableShortDescriptionConstant         = "Enable GitHub Pages for a repository"
	statusUseConstant                      = "status <owner/repo>"
	statusShortDescriptionConstant         = "Show GitHub Pages configuration"
	rebuildUseConstant                     = "rebuild <owner/repo>"
	rebuildShortDescriptionConstant        = "Trigger a new GitHub Pages build"
	createWorkflowUseConstant              = "create-workflow"
	createWorkflowShortDescriptionConstant = "Write a GitHub Actions workflow that deploys Pages"
	branchFlagNameConstant                 = "branch"
	branchFlagDescriptionConstant          = "Source branch"
	pathFlagNameConstant                   = "path"
	pathFlagDescriptionConstant            = "Source path"
	buildTypeFlagNameConstant              = "build-type"
	buildTypeFlagDescriptionConstant       = "Build type: workflow (GitHub Actions) or legacy (Jekyll)"
	noHTTPSFlagNameConstant                = "no-https"
	noHTTPSFlagDescriptionConstant         = "Disable HTTPS enforcement"
	buildInfoFlagNameConstant              = "build-info"
	buildInfoFlagDescriptionConstant       = "Show latest build information"
	outputFlagNameConstant                 = "output"
	outputFlagDescriptionConstant          = "Output path for the workflow file"
	repositoryArgumentTemplateConstant     = "%s requires exactly one repository argument in the form owner/repo"
	unexpectedArgumentsTemplateConstant    = "%s does not accept positional arguments"
)

var (
	sourcePathChoices = []string{rootSourcePathConstant, docsSourcePathConstant}
	buildTypeChoices  = []string{buildTypeWorkflowConstant, buildTypeLegacyConstant}
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current pages configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the pages command group.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitHubExecutor        githubcli.GitHubCommandExecutor
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the pages command with its subcommands.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	groupCommand := &cobra.Command{
		Use:   groupUseConstant,
		Short: groupShortDescriptionConstant,
		Long:  groupLongDescriptionConstant,
		RunE: func(command *cobra.Command, arguments []string) error {
			if helpError := command.Help(); helpError != nil {
				return helpError
			}
			return utils.NewSilentFailure()
		},
	}

	defaults := DefaultConfiguration()

	enableCommand := &cobra.Command{
		Use:   enableUseConstant,
		Short: enableShortDescriptionConstant,
		Args:  requireRepository,
		RunE:  builder.runEnable,
	}
	enableCommand.Flags().String(branchFlagNameConstant, defaults.Branch, branchFlagDescriptionConstant)
	enableCommand.Flags().String(pathFlagNameConstant, defaults.Path, flagutils.FormatChoiceUsage(defaults.Path, sourcePathChoices, pathFlagDescriptionConstant))
	enableCommand.Flags().String(buildTypeFlagNameConstant, defaults.BuildType, flagutils.FormatChoiceUsage(defaults.BuildType, buildTypeChoices, buildTypeFlagDescriptionConstant))
	enableCommand.Flags().Bool(noHTTPSFlagNameConstant, false, noHTTPSFlagDescriptionConstant)

	statusCommand := &cobra.Command{
		Use:   statusUseConstant,
		Short: statusShortDescriptionConstant,
		Args:  requireRepository,
		RunE:  builder.runStatus,
	}
	statusCommand.Flags().Bool(buildInfoFlagNameConstant, false, buildInfoFlagDescriptionConstant)

	rebuildCommand := &cobra.Command{
		Use:   rebuildUseConstant,
		Short: rebuildShortDescriptionConstant,
		Args:  requireRepository,
		RunE:  builder.runRebuild,
	}

	createWorkflowCommand := &cobra.Command{
		Use:   createWorkflowUseConstant,
		Short: createWorkflowShortDescriptionConstant,
		Args:  rejectArguments,
		RunE:  builder.runCreateWorkflow,
	}
	createWorkflowCommand.Flags().String(outputFlagNameConstant, defaults.WorkflowPath, outputFlagDescriptionConstant)

	groupCommand.AddCommand(enableCommand, statusCommand, rebuildCommand, createWorkflowCommand)
	return groupCommand, nil
}

func requireRepository(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 || len(strings.TrimSpace(arguments[0])) == 0 {
		return utils.NewUsageError(fmt.Errorf(repositoryArgumentTemplateConstant, command.Name()))
	}
	return nil
}

func rejectArguments(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return utils.NewUsageError(fmt.Errorf(unexpectedArgumentsTemplateConstant, command.Name()))
	}
	return nil
}

func (builder *CommandBuilder) runEnable(command *cobra.Command, arguments []string) error {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	branch := configuration.Branch
	if flagSet.Changed(branchFlagNameConstant) {
		branch, _ = flagSet.GetString(branchFlagNameConstant)
	}

	pathValue := configuration.Path
	if flagSet.Changed(pathFlagNameConstant) {
		pathValue, _ = flagSet.GetString(pathFlagNameConstant)
	}
	resolvedPath, pathError := flagutils.ResolveChoice(pathFlagNameConstant, pathValue, DefaultConfiguration().Path, sourcePathChoices)
	if pathError != nil {
		return pathError
	}

	buildTypeValue := configuration.BuildType
	if flagSet.Changed(buildTypeFlagNameConstant) {
		buildTypeValue, _ = flagSet.GetString(buildTypeFlagNameConstant)
	}
	resolvedBuildType, buildTypeError := flagutils.ResolveChoice(buildTypeFlagNameConstant, buildTypeValue, DefaultConfiguration().BuildType, buildTypeChoices)
	if buildTypeError != nil {
		return buildTypeError
	}

	enforceHTTPS := configuration.EnforceHTTPS
	if flagSet.Changed(noHTTPSFlagNameConstant) {
		disableHTTPS, _ := flagSet.GetBool(noHTTPSFlagNameConstant)
		enforceHTTPS = !disableHTTPS
	}

	manager, managerError := builder.newManager(command, arguments[0])
	if managerError != nil {
		return managerError
	}
	return manager.Enable(command.Context(), EnableOptions{
		Branch:       strings.TrimSpace(branch),
		Path:         resolvedPath,
		BuildType:    resolvedBuildType,
		EnforceHTTPS: enforceHTTPS,
	})
}

func (builder *CommandBuilder) runStatus(command *cobra.Command, arguments []string) error {
	includeLatestBuild, _ := command.Flags().GetBool(buildInfoFlagNameConstant)

	manager, managerError := builder.newManager(command, arguments[0])
	if managerError != nil {
		return managerError
	}
	return manager.Status(command.Context(), includeLatestBuild)
}

func (builder *CommandBuilder) runRebuild(command *cobra.Command, arguments []string) error {
	manager, managerError := builder.newManager(command, arguments[0])
	if managerError != nil {
		return managerError
	}
	return manager.Rebuild(command.Context())
}

func (builder *CommandBuilder) runCreateWorkflow(command *cobra.Command, arguments []string) error {
	outputPath := builder.resolveConfiguration().WorkflowPath
	if command.Flags().Changed(outputFlagNameConstant) {
		outputPath, _ = command.Flags().GetString(outputFlagNameConstant)
	}
	return CreateWorkflowFile(strings.TrimSpace(outputPath), command.OutOrStdout())
}

func (builder *CommandBuilder) newManager(command *cobra.Command, repository string) (*Manager, error) {
	logger := builder.resolveLogger()
	client, clientError := dependencies.ResolveGitHubClient(builder.GitHubExecutor, logger, builder.CommandEventsObserver)
	if clientError != nil {
		return nil, clientError
	}
	return NewManager(command.Context(), client, strings.TrimSpace(repository), logger, command.OutOrStdout(), command.ErrOrStderr())
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}

	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}

	return logger
}

func (builder *CommandBuilder) resolveConfiguration() Configuration {
	if builder.ConfigurationProvider == nil {
		return DefaultConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}
