package workflowvalidate

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/utils"
	flagutils "github.com/temirov/ghtools/internal/utils/flags"
)

const (
	commandUseConstant              = "validate [workflow files or directories...]"
	commandShortDescriptionConstant = "Validate GitHub Actions workflow structure and best practices"
	commandLongDescriptionConstant  = "validate checks workflow files for required fields, permissions, trigger hygiene, job and step structure, action pinning and caching suggestions."
	strictFlagNameConstant          = "strict"
	strictFlagDescriptionConstant   = "Treat warnings as errors"
	schemaFlagNameConstant          = "schema"
	schemaFlagDescriptionConstant   = "Also check the workflow against the bundled JSON schema"
	formatFlagNameConstant          = "format"
	formatFlagDescriptionConstant   = "Report format"
	missingPathsMessageConstant     = "validate requires at least one workflow file or directory"
)

var reportFormatChoices = []string{string(findings.ReportFormatText), string(findings.ReportFormatJSON), string(findings.ReportFormatSarif)}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current validate configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the validate command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the validate command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := DefaultConfiguration()
	command.Flags().Bool(strictFlagNameConstant, defaults.Strict, strictFlagDescriptionConstant)
	command.Flags().Bool(schemaFlagNameConstant, defaults.Schema, schemaFlagDescriptionConstant)
	command.Flags().String(formatFlagNameConstant, defaults.Format, flagutils.FormatChoiceUsage(defaults.Format, reportFormatChoices, formatFlagDescriptionConstant))

	return command, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := builder.parseOptions(command, arguments)
	if optionsError != nil {
		return optionsError
	}

	service := NewService(builder.resolveLogger(), command.OutOrStdout())
	_, runError := service.Run(command.Context(), options)
	return runError
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string) (Options, error) {
	configuration := builder.resolveConfiguration()

	strictValue := configuration.Strict
	if command.Flags().Changed(strictFlagNameConstant) {
		flagValue, flagError := command.Flags().GetBool(strictFlagNameConstant)
		if flagError != nil {
			return Options{}, flagError
		}
		strictValue = flagValue
	}

	schemaValue := configuration.Schema
	if command.Flags().Changed(schemaFlagNameConstant) {
		flagValue, flagError := command.Flags().GetBool(schemaFlagNameConstant)
		if flagError != nil {
			return Options{}, flagError
		}
		schemaValue = flagValue
	}

	formatValue := configuration.Format
	if command.Flags().Changed(formatFlagNameConstant) {
		flagValue, flagError := command.Flags().GetString(formatFlagNameConstant)
		if flagError != nil {
			return Options{}, flagError
		}
		formatValue = flagValue
	}
	resolvedFormat, formatError := flagutils.ResolveChoice(formatFlagNameConstant, formatValue, DefaultConfiguration().Format, reportFormatChoices)
	if formatError != nil {
		return Options{}, formatError
	}

	paths := arguments
	if len(paths) == 0 {
		paths = configuration.Paths
	}
	if len(paths) == 0 {
		return Options{}, utils.NewUsageError(errors.New(missingPathsMessageConstant))
	}

	return Options{
		Paths:  paths,
		Strict: strictValue,
		Schema: schemaValue,
		Format: findings.ReportFormat(resolvedFormat),
	}, nil
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
