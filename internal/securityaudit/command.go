package securityaudit

import (
	"errors"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/utils"
	flagutils "github.com/temirov/ghtools/internal/utils/flags"
)

const (
	commandUseConstant              = "audit [workflow files or directories...]"
	commandShortDescriptionConstant = "Audit GitHub Actions workflows for security issues"
	commandLongDescriptionConstant  = "audit checks workflow files for excessive permissions, dangerous triggers, exposed secrets, unpinned actions, command injection and self-hosted runner exposure."
	failOnFlagNameConstant          = "fail-on"
	failOnFlagDescriptionConstant   = "Exit with an error when findings at this level or higher are present"
	formatFlagNameConstant          = "format"
	formatFlagDescriptionConstant   = "Report format"
	missingPathsMessageConstant     = "audit requires at least one workflow file or directory"
)

var reportFormatChoices = []string{string(findings.ReportFormatText), string(findings.ReportFormatJSON), string(findings.ReportFormatSarif)}

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// ConfigurationProvider returns the current audit configuration.
type ConfigurationProvider func() Configuration

// CommandBuilder assembles the audit command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider ConfigurationProvider
}

// Build constructs the audit command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:   commandUseConstant,
		Short: commandShortDescriptionConstant,
		Long:  commandLongDescriptionConstant,
		RunE:  builder.run,
	}

	defaults := DefaultConfiguration()
	command.Flags().String(failOnFlagNameConstant, defaults.FailOn, flagutils.FormatChoiceUsage(defaults.FailOn, findings.AuditScale.Names(), failOnFlagDescriptionConstant))
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

	failOnValue := configuration.FailOn
	if command.Flags().Changed(failOnFlagNameConstant) {
		flagValue, flagError := command.Flags().GetString(failOnFlagNameConstant)
		if flagError != nil {
			return Options{}, flagError
		}
		failOnValue = flagValue
	}
	resolvedFailOn, failOnError := flagutils.ResolveChoice(failOnFlagNameConstant, failOnValue, DefaultConfiguration().FailOn, findings.AuditScale.Names())
	if failOnError != nil {
		return Options{}, failOnError
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
		FailOn: findings.Severity(resolvedFailOn),
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
