package codesearch

import (
	"errors"
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
	commandUseConstant                    = "search <query>"
	commandShortDescriptionConstant       = "Search code on GitHub with local filtering and formatting"
	commandLongDescriptionConstant        = "search runs gh search code, optionally drops forks, private repositories and files with few matches, sorts the hits and prints them as pretty blocks, a summary or JSON."
	commandExampleConstant                = "  ghtools search \"hello world\" --language python\n  ghtools search \"error handling\" --repo microsoft/vscode --output pretty\n  ghtools search \"TODO\" --extension md --exclude-forks --output summary\n  ghtools search \"class.*Component\" --language typescript --sort-by matches"
	limitFlagNameConstant                 = "limit"
	limitFlagShorthandConstant            = "L"
	limitFlagDescriptionConstant          = "Maximum number of results"
	languageFlagNameConstant              = "language"
	languageFlagDescriptionConstant       = "Filter by programming language"
	filenameFlagNameConstant              = "filename"
	filenameFlagDescriptionConstant       = "Filter by filename"
	extensionFlagNameConstant             = "extension"
	extensionFlagDescriptionConstant      = "Filter by file extension"
	repoFlagNameConstant                  = "repo"
	repoFlagShorthandConstant             = "R"
	repoFlagDescriptionConstant           = "Filter by repository (repeatable)"
	ownerFlagNameConstant                 = "owner"
	ownerFlagDescriptionConstant          = "Filter by owner (repeatable)"
	matchFlagNameConstant                 = "match"
	matchFlagDescriptionConstant          = "Restrict search to file path or content"
	sizeFlagNameConstant                  = "size"
	sizeFlagDescriptionConstant           = "Filter by file size range in KB, for example 10..100"
	excludeForksFlagNameConstant          = "exclude-forks"
	excludeForksFlagDescriptionConstant   = "Exclude results from forked repositories"
	excludePrivateFlagNameConstant        = "exclude-private"
	excludePrivateFlagDescriptionConstant = "Exclude results from private repositories"
	minMatchesFlagNameConstant            = "min-matches"
	minMatchesFlagDescriptionConstant     = "Minimum number of text matches per file"
	outputFlagNameConstant                = "output"
	outputFlagShorthandConstant           = "o"
	outputFlagDescriptionConstant         = "Output format"
	sortByFlagNameConstant                = "sort-by"
	sortByFlagDescriptionConstant         = "Sort results by criteria"
	missingQueryMessageConstant           = "search requires exactly one query argument"
	nonPositiveLimitMessageConstant       = "--limit must be positive"
	negativeMinMatchesMessageConstant     = "--min-matches must not be negative"
)

var (
	outputFormatChoices = []string{outputFormatJSONConstant, outputFormatPrettyConstant, outputFormatSummaryConstant}
	sortKeyChoices      = []string{sortKeyMatchesConstant, sortKeyRepositoryConstant, sortKeyPathConstant}
	matchTypeChoices    = []string{string(githubcli.CodeSearchMatchFile), string(githubcli.CodeSearchMatchContent)}
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current search configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the search command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
	GitHubExecutor        githubcli.GitHubCommandExecutor
	CommandEventsObserver execshell.CommandEventObserver
}

// Build constructs the search command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    requireSingleQuery,
		RunE:    builder.run,
	}

	defaults := DefaultConfiguration()
	command.Flags().IntP(limitFlagNameConstant, limitFlagShorthandConstant, defaults.Limit, limitFlagDescriptionConstant)
	command.Flags().String(languageFlagNameConstant, "", languageFlagDescriptionConstant)
	command.Flags().String(filenameFlagNameConstant, "", filenameFlagDescriptionConstant)
	command.Flags().String(extensionFlagNameConstant, "", extensionFlagDescriptionConstant)
	command.Flags().StringArrayP(repoFlagNameConstant, repoFlagShorthandConstant, nil, repoFlagDescriptionConstant)
	command.Flags().StringArray(ownerFlagNameConstant, nil, ownerFlagDescriptionConstant)
	command.Flags().String(matchFlagNameConstant, "", flagutils.FormatChoiceUsage("", matchTypeChoices, matchFlagDescriptionConstant))
	command.Flags().String(sizeFlagNameConstant, "", sizeFlagDescriptionConstant)
	command.Flags().Bool(excludeForksFlagNameConstant, false, excludeForksFlagDescriptionConstant)
	command.Flags().Bool(excludePrivateFlagNameConstant, false, excludePrivateFlagDescriptionConstant)
	command.Flags().Int(minMatchesFlagNameConstant, 0, minMatchesFlagDescriptionConstant)
	command.Flags().StringP(outputFlagNameConstant, outputFlagShorthandConstant, defaults.Output, flagutils.FormatChoiceUsage(defaults.Output, outputFormatChoices, outputFlagDescriptionConstant))
	command.Flags().String(sortByFlagNameConstant, "", flagutils.FormatChoiceUsage("", sortKeyChoices, sortByFlagDescriptionConstant))

	return command, nil
}

func requireSingleQuery(command *cobra.Command, arguments []string) error {
	if len(arguments) != 1 || len(strings.TrimSpace(arguments[0])) == 0 {
		return utils.NewUsageError(errors.New(missingQueryMessageConstant))
	}
	return nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	if argumentsError := requireSingleQuery(command, arguments); argumentsError != nil {
		return argumentsError
	}

	options, optionsError := builder.parseOptions(command, arguments[0])
	if optionsError != nil {
		return optionsError
	}

	logger := builder.resolveLogger()
	client, clientError := dependencies.ResolveGitHubClient(builder.GitHubExecutor, logger, builder.CommandEventsObserver)
	if clientError != nil {
		return clientError
	}

	service := NewService(client, logger, command.OutOrStdout(), command.ErrOrStderr())
	return service.Run(command.Context(), options)
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, query string) (Options, error) {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	limit := configuration.Limit
	if flagSet.Changed(limitFlagNameConstant) {
		limit, _ = flagSet.GetInt(limitFlagNameConstant)
		if limit <= 0 {
			return Options{}, utils.NewUsageError(errors.New(nonPositiveLimitMessageConstant))
		}
	}

	minMatches := configuration.MinMatches
	if flagSet.Changed(minMatchesFlagNameConstant) {
		minMatches, _ = flagSet.GetInt(minMatchesFlagNameConstant)
		if minMatches < 0 {
			return Options{}, utils.NewUsageError(errors.New(negativeMinMatchesMessageConstant))
		}
	}

	language := configuration.Language
	if flagSet.Changed(languageFlagNameConstant) {
		language, _ = flagSet.GetString(languageFlagNameConstant)
	}

	repositories := configuration.Repositories
	if flagSet.Changed(repoFlagNameConstant) {
		repositories, _ = flagSet.GetStringArray(repoFlagNameConstant)
	}

	owners := configuration.Owners
	if flagSet.Changed(ownerFlagNameConstant) {
		owners, _ = flagSet.GetStringArray(ownerFlagNameConstant)
	}

	excludeForks := configuration.ExcludeForks
	if flagSet.Changed(excludeForksFlagNameConstant) {
		excludeForks, _ = flagSet.GetBool(excludeForksFlagNameConstant)
	}

	excludePrivate := configuration.ExcludePrivate
	if flagSet.Changed(excludePrivateFlagNameConstant) {
		excludePrivate, _ = flagSet.GetBool(excludePrivateFlagNameConstant)
	}

	outputValue := configuration.Output
	if flagSet.Changed(outputFlagNameConstant) {
		outputValue, _ = flagSet.GetString(outputFlagNameConstant)
	}
	resolvedOutput, outputError := flagutils.ResolveChoice(outputFlagNameConstant, outputValue, DefaultConfiguration().Output, outputFormatChoices)
	if outputError != nil {
		return Options{}, outputError
	}

	sortValue := configuration.SortBy
	if flagSet.Changed(sortByFlagNameConstant) {
		sortValue, _ = flagSet.GetString(sortByFlagNameConstant)
	}
	resolvedSort, sortError := resolveOptionalChoice(sortByFlagNameConstant, sortValue, sortKeyChoices)
	if sortError != nil {
		return Options{}, sortError
	}

	matchValue, _ := flagSet.GetString(matchFlagNameConstant)
	resolvedMatch, matchError := resolveOptionalChoice(matchFlagNameConstant, matchValue, matchTypeChoices)
	if matchError != nil {
		return Options{}, matchError
	}

	filename, _ := flagSet.GetString(filenameFlagNameConstant)
	extension, _ := flagSet.GetString(extensionFlagNameConstant)
	size, _ := flagSet.GetString(sizeFlagNameConstant)

	return Options{
		Search: githubcli.CodeSearchOptions{
			Query:        query,
			Limit:        limit,
			Language:     language,
			Filename:     filename,
			Extension:    extension,
			Repositories: repositories,
			Owners:       owners,
			Match:        githubcli.CodeSearchMatchType(resolvedMatch),
			Size:         size,
		},
		Filter: FilterOptions{
			ExcludeForks:   excludeForks,
			ExcludePrivate: excludePrivate,
			MinMatches:     minMatches,
		},
		SortBy: SortKey(resolvedSort),
		Output: OutputFormat(resolvedOutput),
	}, nil
}

func resolveOptionalChoice(flagName string, value string, choices []string) (string, error) {
	if len(strings.TrimSpace(value)) == 0 {
		return "", nil
	}
	return flagutils.ResolveChoice(flagName, value, "", choices)
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
