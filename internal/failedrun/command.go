package failedrun

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/dependencies"
	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/githubcli"
	"github.com/temirov/ghtools/internal/utils"
)

const (
	commandUseConstant                 = "failed-run"
	commandShortDescriptionConstant    = "Analyze the most recent failed GitHub Actions run"
	commandLongDescriptionConstant     = "failed-run finds the latest failed workflow run, lists its failed jobs and prints error lines extracted from their logs as JSON."
	commandExampleConstant             = "  ghtools failed-run\n  ghtools failed-run --repo owner/name --pretty"
	repoFlagNameConstant               = "repo"
	repoFlagShorthandConstant          = "R"
	repoFlagDescriptionConstant        = "Repository to analyze in the form owner/name"
	prettyFlagNameConstant             = "pretty"
	prettyFlagDescriptionConstant      = "Pretty-print JSON output with indentation"
	maxExcerptsFlagNameConstant        = "max-excerpts"
	maxExcerptsFlagDescriptionConstant = "Maximum number of error lines reported per job"
	unexpectedArgumentsMessageConstant = "failed-run does not accept positional arguments"
	nonPositiveExcerptsMessageConstant = "--max-excerpts must be positive"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current failed-run configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the failed-run command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitHubExecutor        githubcli.GitHubCommandExecutor
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the failed-run command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    rejectArguments,
		RunE:    builder.run,
	}

	defaults := DefaultConfiguration()
	command.Flags().StringP(repoFlagNameConstant, repoFlagShorthandConstant, defaults.Repository, repoFlagDescriptionConstant)
	command.Flags().Bool(prettyFlagNameConstant, defaults.Pretty, prettyFlagDescriptionConstant)
	command.Flags().Int(maxExcerptsFlagNameConstant, defaults.MaximumExcerpts, maxExcerptsFlagDescriptionConstant)

	return command, nil
}

func rejectArguments(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return utils.NewUsageError(errors.New(unexpectedArgumentsMessageConstant))
	}
	return nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command)
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	client, clientError := dependencies.ResolveGitHubClient(builder.GitHubExecutor, logger, builder.CommandEventsObserver)
	if clientError != nil {
		return clientError
	}

	service := NewService(client, logger, command.OutOrStdout())
	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (Options, error) {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	repository := configuration.Repository
	if flagSet.Changed(repoFlagNameConstant) {
		repository, _ = flagSet.GetString(repoFlagNameConstant)
	}

	pretty := configuration.Pretty
	if flagSet.Changed(prettyFlagNameConstant) {
		pretty, _ = flagSet.GetBool(prettyFlagNameConstant)
	}

	maximumExcerpts := configuration.MaximumExcerpts
	if flagSet.Changed(maxExcerptsFlagNameConstant) {
		maximumExcerpts, _ = flagSet.GetInt(maxExcerptsFlagNameConstant)
		if maximumExcerpts <= 0 {
			return Options{}, utils.NewUsageError(errors.New(nonPositiveExcerptsMessageConstant))
		}
	}

	return Options{Repository: repository, Pretty: pretty, MaximumExcerpts: maximumExcerpts}, nil
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
