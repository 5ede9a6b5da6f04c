package workflowvalidate

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/utils"
	"github.com/temirov/ghtools/internal/workflowdoc"
)

const (
	sarifToolNameConstant             = "ghtools-validate"
	failedBannerConstant              = "\n❌ Validation failed\n"
	passedBannerConstant              = "\n✅ All workflows valid!\n"
	discoveryErrorTemplateConstant    = "unable to collect workflow files: %w"
	unsupportedFormatTemplateConstant = "unsupported report format: %s"
	batchCompletedLogMessageConstant  = "workflow validation completed"
	fileCountLogFieldConstant         = "files"
	passedLogFieldConstant            = "passed"
	strictLogFieldConstant            = "strict"
)

// TextLayout prints validation results grouped by errors, warnings and suggestions.
var TextLayout = findings.TextLayout{
	HeaderTemplate: "🔍 Validating: %s",
	Sections: []findings.Section{
		{Severity: findings.SeverityError, Heading: "❌ ERRORS:"},
		{Severity: findings.SeverityWarning, Heading: "⚠️  WARNINGS:"},
		{Severity: findings.SeverityInfo, Heading: "💡 SUGGESTIONS:"},
	},
	CleanSeverities: []findings.Severity{findings.SeverityError, findings.SeverityWarning},
	CleanMessage:    "✅ No issues found!",
}

// Options configures a batch validation.
type Options struct {
	Paths  []string
	Strict bool
	Schema bool
	Format findings.ReportFormat
}

// Service validates batches of workflow files and renders the report.
type Service struct {
	logger *zap.Logger
	writer io.Writer
}

// NewService constructs a Service writing reports to writer.
func NewService(logger *zap.Logger, writer io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writer == nil {
		writer = io.Discard
	}
	return &Service{logger: logger, writer: writer}
}

// Run validates every workflow named by options.Paths. The batch fails when
// any file has errors or, in strict mode, warnings.
func (service *Service) Run(executionContext context.Context, options Options) (findings.BatchReport, error) {
	report := findings.BatchReport{Scale: findings.ValidationScale, Summary: findings.NewSummary(findings.ValidationScale)}

	format := options.Format
	if len(format) == 0 {
		format = findings.ReportFormatText
	}

	var schemaChecker *SchemaChecker
	if options.Schema {
		compiledChecker, schemaError := NewSchemaChecker()
		if schemaError != nil {
			return report, schemaError
		}
		schemaChecker = compiledChecker
	}
	validator := NewValidator(service.logger, schemaChecker)

	workflowPaths, discoveryError := workflowdoc.DiscoverWorkflowFiles(options.Paths)
	if discoveryError != nil {
		return report, fmt.Errorf(discoveryErrorTemplateConstant, discoveryError)
	}

	for _, workflowPath := range workflowPaths {
		if executionContext != nil {
			if contextError := executionContext.Err(); contextError != nil {
				return report, contextError
			}
		}

		fileReport := validator.ValidateFile(workflowPath)
		report.Files = append(report.Files, fileReport)
		report.Summary = report.Summary.Add(fileReport.Result.Summary())

		if format == findings.ReportFormatText {
			if writeError := findings.WriteText(service.writer, TextLayout, workflowPath, fileReport.Result); writeError != nil {
				return report, writeError
			}
		}
	}

	failureThreshold := findings.SeverityError
	if options.Strict {
		failureThreshold = findings.SeverityWarning
	}
	report.Passed = !report.Summary.Exceeds(failureThreshold)
	service.logger.Debug(batchCompletedLogMessageConstant, zap.Int(fileCountLogFieldConstant, len(report.Files)), zap.Bool(passedLogFieldConstant, report.Passed), zap.Bool(strictLogFieldConstant, options.Strict))

	if renderError := service.render(report, format); renderError != nil {
		return report, renderError
	}

	if !report.Passed {
		return report, utils.NewSilentFailure()
	}
	return report, nil
}

func (service *Service) render(report findings.BatchReport, format findings.ReportFormat) error {
	switch format {
	case findings.ReportFormatText:
		banner := passedBannerConstant
		if !report.Passed {
			banner = failedBannerConstant
		}
		_, writeError := io.WriteString(service.writer, banner)
		return writeError
	case findings.ReportFormatJSON:
		return findings.WriteJSON(service.writer, report)
	case findings.ReportFormatSarif:
		return findings.WriteSarif(service.writer, findings.BuildSarif(sarifToolNameConstant, RuleDescriptors(), report))
	default:
		return fmt.Errorf(unsupportedFormatTemplateConstant, format)
	}
}
