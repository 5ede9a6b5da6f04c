package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/codesearch"
	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/failedrun"
	"github.com/temirov/ghtools/internal/githubcli"
	"github.com/temirov/ghtools/internal/pages"
	"github.com/temirov/ghtools/internal/securityaudit"
	"github.com/temirov/ghtools/internal/ui"
	"github.com/temirov/ghtools/internal/utils"
	flagutils "github.com/temirov/ghtools/internal/utils/flags"
	"github.com/temirov/ghtools/internal/workflowvalidate"
)

const (
	applicationNameConstant                 = "ghtools"
	applicationShortDescriptionConstant     = "GitHub CLI companion for code search, Actions and Pages"
	applicationLongDescriptionConstant      = "ghtools searches code, inspects failed workflow runs and manages GitHub Pages through the gh CLI, and audits and validates workflow files locally."
	versionTemplateConstant                 = "ghtools version: {{.Version}}\n"
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format."
	environmentPrefixConstant               = "GHTOOLS"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationDirectoryNameConstant      = "ghtools"
	defaultConfigurationSearchPathConstant  = "."
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	unknownCommandTemplateConstant          = "unknown command %q for %q"
	commandDispatchedMessageConstant        = "command dispatched"
	logFieldCommandPathConstant             = "command_path"
	logFieldArgumentsConstant               = "arguments"
	configurationKeyWordSeparatorConstant   = "_"
	flagWordSeparatorConstant               = "-"
)

// Version is reported by --version and is replaced at link time for releases.
var Version = "dev"

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
}

// ApplicationToolsConfiguration holds one section per command.
type ApplicationToolsConfiguration struct {
	Search    codesearch.Configuration       `mapstructure:"search"`
	FailedRun failedrun.Configuration        `mapstructure:"failed_run"`
	Pages     pages.Configuration            `mapstructure:"pages"`
	Audit     securityaudit.Configuration    `mapstructure:"audit"`
	Validate  workflowvalidate.Configuration `mapstructure:"validate"`
}

type applicationDependencies struct {
	githubExecutor githubcli.GitHubCommandExecutor
	loggerFactory  *utils.LoggerFactory
	searchPaths    []string
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	consoleEventLogger    *ui.ConsoleCommandEventLogger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	return newApplication(applicationDependencies{})
}

func newApplication(dependencies applicationDependencies) *Application {
	embeddedDefaults, _ := EmbeddedDefaultConfiguration()
	searchPaths := dependencies.searchPaths
	if searchPaths == nil {
		searchPaths = defaultConfigurationSearchPaths()
	}
	loggerFactory := dependencies.loggerFactory
	if loggerFactory == nil {
		loggerFactory = utils.NewLoggerFactory()
	}

	application := &Application{
		configurationLoader: utils.NewConfigurationLoader(utils.ConfigurationLoaderOptions{
			FileName:          configurationNameConstant,
			FileType:          configurationTypeConstant,
			EnvironmentPrefix: environmentPrefixConstant,
			SearchPaths:       searchPaths,
			EmbeddedDefaults:  embeddedDefaults,
		}),
		loggerFactory: loggerFactory,
		logger:        zap.NewNop(),
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          rejectUnknownCommand,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command, arguments)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return command.Help()
		},
	}
	cobraCommand.SetVersionTemplate(versionTemplateConstant)
	cobraCommand.SetGlobalNormalizationFunc(normalizeFlagName)
	cobraCommand.SetFlagErrorFunc(func(command *cobra.Command, flagError error) error {
		return utils.NewUsageError(flagError)
	})

	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", flagutils.FormatChoiceUsage(string(utils.LogLevelWarn), utils.LogLevelNames(), logLevelFlagUsageConstant))
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", flagutils.FormatChoiceUsage(string(utils.LogFormatStructured), utils.LogFormatNames(), logFormatFlagUsageConstant))

	loggerProvider := func() *zap.Logger {
		return application.logger
	}
	commandEvents := applicationCommandEvents{application: application}

	searchBuilder := codesearch.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() codesearch.Configuration {
			return application.configuration.Tools.Search
		},
		GitHubExecutor:        dependencies.githubExecutor,
		CommandEventsObserver: commandEvents,
	}
	failedRunBuilder := failedrun.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() failedrun.Configuration {
			return application.configuration.Tools.FailedRun
		},
		GitHubExecutor:        dependencies.githubExecutor,
		CommandEventsObserver: commandEvents,
	}
	pagesBuilder := pages.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() pages.Configuration {
			return application.configuration.Tools.Pages
		},
		GitHubExecutor:        dependencies.githubExecutor,
		CommandEventsObserver: commandEvents,
	}
	auditBuilder := securityaudit.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() securityaudit.Configuration {
			return application.configuration.Tools.Audit
		},
	}
	validateBuilder := workflowvalidate.CommandBuilder{
		LoggerProvider: loggerProvider,
		ConfigurationProvider: func() workflowvalidate.Configuration {
			return application.configuration.Tools.Validate
		},
	}

	builders := []interface {
		Build() (*cobra.Command, error)
	}{&searchBuilder, &failedRunBuilder, &pagesBuilder, &auditBuilder, &validateBuilder}
	for _, builder := range builders {
		subcommand, buildError := builder.Build()
		if buildError != nil {
			continue
		}
		cobraCommand.AddCommand(subcommand)
	}

	application.rootCommand = cobraCommand
	return application
}

// SetArguments replaces the command-line arguments, which default to os.Args[1:].
func (application *Application) SetArguments(arguments []string) {
	application.rootCommand.SetArgs(arguments)
}

// SetOutput redirects command output and error streams.
func (application *Application) SetOutput(output io.Writer, errorOutput io.Writer) {
	application.rootCommand.SetOut(output)
	application.rootCommand.SetErr(errorOutput)
}

// Execute runs the command hierarchy with a background context.
func (application *Application) Execute() error {
	return application.ExecuteContext(context.Background())
}

// ExecuteContext runs the command hierarchy and flushes the logger. Cancelling
// executionContext stops any running gh process.
func (application *Application) ExecuteContext(executionContext context.Context) error {
	executionError := application.rootCommand.ExecuteContext(executionContext)
	if syncError := application.flushLogger(); syncError != nil && executionError == nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes it.
func Execute(executionContext context.Context) error {
	return NewApplication().ExecuteContext(executionContext)
}

func (application *Application) initializeConfiguration(command *cobra.Command, arguments []string) error {
	loadedConfiguration, loadError := application.configurationLoader.Load(application.configurationFilePath, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}
	application.configurationMetadata = loadedConfiguration

	logLevel, logLevelError := resolveLoggingChoice(command, logLevelFlagNameConstant, application.logLevelFlagValue, application.configuration.Common.LogLevel, string(utils.LogLevelWarn), utils.LogLevelNames())
	if logLevelError != nil {
		return logLevelError
	}
	logFormat, logFormatError := resolveLoggingChoice(command, logFormatFlagNameConstant, application.logFormatFlagValue, application.configuration.Common.LogFormat, string(utils.LogFormatStructured), utils.LogFormatNames())
	if logFormatError != nil {
		return logFormatError
	}
	application.configuration.Common.LogLevel = logLevel
	application.configuration.Common.LogFormat = logFormat

	logger, loggerCreationError := application.loggerFactory.CreateLogger(utils.LogLevel(logLevel), utils.LogFormat(logFormat))
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}
	application.logger = logger

	application.consoleEventLogger = nil
	if application.humanReadableLoggingEnabled() {
		application.consoleEventLogger = ui.NewConsoleCommandEventLogger(logger)
	}

	application.logger.Info(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, logLevel),
		zap.String(configurationLogFormatFieldConstant, logFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)
	application.logger.Debug(
		commandDispatchedMessageConstant,
		zap.String(logFieldCommandPathConstant, command.CommandPath()),
		zap.Strings(logFieldArgumentsConstant, arguments),
	)
	return nil
}

// resolveLoggingChoice prefers an explicitly set flag over configuration.
// Invalid flag values are usage errors; invalid configured values are not.
func resolveLoggingChoice(command *cobra.Command, flagName string, flagValue string, configuredValue string, defaultValue string, choices []string) (string, error) {
	if command.Flags().Changed(flagName) {
		return flagutils.ResolveChoice(flagName, flagValue, defaultValue, choices)
	}
	normalized := strings.ToLower(strings.TrimSpace(configuredValue))
	if len(normalized) == 0 {
		return defaultValue, nil
	}
	return normalized, nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	return strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogFormat), string(utils.LogFormatConsole))
}

func (application *Application) flushLogger() error {
	if application.logger == nil {
		return nil
	}

	syncError := application.logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

// applicationCommandEvents forwards gh lifecycle events to the console event
// logger, which only exists once configuration selected the console format.
type applicationCommandEvents struct {
	application *Application
}

func (events applicationCommandEvents) CommandStarted(command execshell.ShellCommand) {
	events.application.consoleEventLogger.CommandStarted(command)
}

func (events applicationCommandEvents) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	events.application.consoleEventLogger.CommandCompleted(command, result)
}

func (events applicationCommandEvents) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	events.application.consoleEventLogger.CommandExecutionFailed(command, failure)
}

func rejectUnknownCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) == 0 {
		return nil
	}
	return utils.NewUsageError(fmt.Errorf(unknownCommandTemplateConstant, arguments[0], command.CommandPath()))
}

// normalizeFlagName accepts configuration key spelling, so --max_excerpts means --max-excerpts.
func normalizeFlagName(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, configurationKeyWordSeparatorConstant, flagWordSeparatorConstant))
}

func defaultConfigurationSearchPaths() []string {
	searchPaths := []string{defaultConfigurationSearchPathConstant}
	if userConfigurationDirectory, directoryError := os.UserConfigDir(); directoryError == nil {
		searchPaths = append(searchPaths, filepath.Join(userConfigurationDirectory, configurationDirectoryNameConstant))
	}
	return searchPaths
}
