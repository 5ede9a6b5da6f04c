package securityaudit

import (
	"context"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/utils"
	"github.com/temirov/ghtools/internal/workflowdoc"
)

const (
	sarifToolNameConstant             = "ghtools-audit"
	summaryRuleWidthConstant          = 50
	summaryRuleCharacterConstant      = "="
	summaryTitleConstant              = "SECURITY AUDIT SUMMARY"
	criticalCountTemplateConstant     = "🔴 Critical: %d\n"
	highCountTemplateConstant         = "🟠 High:     %d\n"
	mediumCountTemplateConstant       = "🟡 Medium:   %d\n"
	lowCountTemplateConstant          = "🟢 Low:      %d\n"
	failedBannerTemplateConstant      = "\n❌ Security audit failed (threshold: %s)\n"
	passedBannerConstant              = "\n✅ Security audit passed!\n"
	discoveryErrorTemplateConstant    = "unable to collect workflow files: %w"
	unsupportedFormatTemplateConstant = "unsupported report format: %s"
	batchCompletedLogMessageConstant  = "security audit completed"
	fileCountLogFieldConstant         = "files"
	passedLogFieldConstant            = "passed"
)

// TextLayout prints audit results grouped from critical to low.
var TextLayout = findings.TextLayout{
	HeaderTemplate: "🔒 Auditing: %s",
	Sections: []findings.Section{
		{Severity: findings.SeverityCritical, Heading: "🔴 CRITICAL ISSUES:"},
		{Severity: findings.SeverityHigh, Heading: "🟠 HIGH SEVERITY:"},
		{Severity: findings.SeverityMedium, Heading: "🟡 MEDIUM SEVERITY:"},
		{Severity: findings.SeverityLow, Heading: "🟢 LOW SEVERITY / INFO:"},
	},
	CleanSeverities: findings.AuditScale,
	CleanMessage:    "✅ No security issues found!",
}

// Options configures a batch audit.
type Options struct {
	Paths  []string
	FailOn findings.Severity
	Format findings.ReportFormat
}

// Service audits batches of workflow files and renders the report.
type Service struct {
	logger  *zap.Logger
	auditor *Auditor
	writer  io.Writer
}

// NewService constructs a Service writing reports to writer.
func NewService(logger *zap.Logger, writer io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writer == nil {
		writer = io.Discard
	}
	return &Service{logger: logger, auditor: NewAuditor(logger), writer: writer}
}

// Run audits every workflow named by options.Paths. Directories expand to
// the workflow files they contain. A batch with any finding at or above the
// threshold returns an error carrying exit code 1.
func (service *Service) Run(executionContext context.Context, options Options) (findings.BatchReport, error) {
	report := findings.BatchReport{Scale: findings.AuditScale, Summary: findings.NewSummary(findings.AuditScale)}

	failOn := options.FailOn
	if len(failOn) == 0 {
		failOn = findings.SeverityCritical
	}
	format := options.Format
	if len(format) == 0 {
		format = findings.ReportFormatText
	}

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

		fileReport := service.auditor.AuditFile(workflowPath)
		report.Files = append(report.Files, fileReport)
		report.Summary = report.Summary.Add(fileReport.Result.Summary())

		if format == findings.ReportFormatText {
			if writeError := service.writeFileText(fileReport); writeError != nil {
				return report, writeError
			}
		}
	}

	report.Passed = !report.Summary.Exceeds(failOn)
	service.logger.Debug(batchCompletedLogMessageConstant, zap.Int(fileCountLogFieldConstant, len(report.Files)), zap.Bool(passedLogFieldConstant, report.Passed))

	if renderError := service.render(report, format, failOn); renderError != nil {
		return report, renderError
	}

	if !report.Passed {
		return report, utils.NewSilentFailure()
	}
	return report, nil
}

func (service *Service) writeFileText(fileReport findings.FileReport) error {
	if fileReport.Skipped {
		return findings.WriteTextHeader(service.writer, TextLayout, fileReport.Path)
	}
	return findings.WriteText(service.writer, TextLayout, fileReport.Path, fileReport.Result)
}

func (service *Service) render(report findings.BatchReport, format findings.ReportFormat, failOn findings.Severity) error {
	switch format {
	case findings.ReportFormatText:
		return service.writeSummary(report, failOn)
	case findings.ReportFormatJSON:
		return findings.WriteJSON(service.writer, report)
	case findings.ReportFormatSarif:
		return findings.WriteSarif(service.writer, findings.BuildSarif(sarifToolNameConstant, RuleDescriptors(), report))
	default:
		return fmt.Errorf(unsupportedFormatTemplateConstant, format)
	}
}

func (service *Service) writeSummary(report findings.BatchReport, failOn findings.Severity) error {
	summaryRule := strings.Repeat(summaryRuleCharacterConstant, summaryRuleWidthConstant)
	var builder strings.Builder
	builder.WriteString("\n" + summaryRule + "\n")
	builder.WriteString(summaryTitleConstant + "\n")
	builder.WriteString(summaryRule + "\n")
	fmt.Fprintf(&builder, criticalCountTemplateConstant, report.Summary.Count(findings.SeverityCritical))
	fmt.Fprintf(&builder, highCountTemplateConstant, report.Summary.Count(findings.SeverityHigh))
	fmt.Fprintf(&builder, mediumCountTemplateConstant, report.Summary.Count(findings.SeverityMedium))
	fmt.Fprintf(&builder, lowCountTemplateConstant, report.Summary.Count(findings.SeverityLow))

	if report.Passed {
		builder.WriteString(passedBannerConstant)
	} else {
		fmt.Fprintf(&builder, failedBannerTemplateConstant, failOn)
	}

	_, writeError := io.WriteString(service.writer, builder.String())
	return writeError
}
