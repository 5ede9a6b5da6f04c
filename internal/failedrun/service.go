package failedrun

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/githubcli"
)

const (
	installHintConstant             = "Install it from: https://cli.github.com/"
	cliUnavailableTemplateConstant  = "%w\n%s"
	jsonIndentConstant              = "  "
	jobLogFetchedLogMessageConstant = "fetched failed job log"
	noFailedRunLogMessageConstant   = "no failed runs found"
	runIdentifierLogFieldConstant   = "run_id"
	jobNameLogFieldConstant         = "job"
	excerptCountLogFieldConstant    = "excerpts"
	repositoryLogFieldConstant      = "repository"
)

// RunInspector exposes the gh operations used to analyze failed runs.
type RunInspector interface {
	VerifyInstallation(executionContext context.Context) error
	MostRecentFailedRun(executionContext context.Context, repository string) (githubcli.WorkflowRun, bool, error)
	RunJobs(executionContext context.Context, repository string, runIdentifier int64) ([]githubcli.WorkflowJob, error)
	FailedJobLog(executionContext context.Context, repository string, runIdentifier int64, jobName string) (string, error)
}

// Options configures one analysis.
type Options struct {
	Repository      string
	Pretty          bool
	MaximumExcerpts int
}

// Service analyzes failed runs and prints the JSON report.
type Service struct {
	inspector RunInspector
	logger    *zap.Logger
	writer    io.Writer
}

// NewService constructs a Service writing reports to writer.
func NewService(inspector RunInspector, logger *zap.Logger, writer io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writer == nil {
		writer = io.Discard
	}
	return &Service{inspector: inspector, logger: logger, writer: writer}
}

// Run verifies gh is installed, analyzes the repository and prints the report.
func (service *Service) Run(executionContext context.Context, options Options) error {
	if verificationError := service.inspector.VerifyInstallation(executionContext); verificationError != nil {
		if errors.Is(verificationError, context.Canceled) {
			return verificationError
		}
		return fmt.Errorf(cliUnavailableTemplateConstant, githubcli.ErrCLIUnavailable, installHintConstant)
	}

	analysis, analysisError := service.Analyze(executionContext, options)
	if analysisError != nil {
		return analysisError
	}

	encoder := json.NewEncoder(service.writer)
	encoder.SetEscapeHTML(false)
	if options.Pretty {
		encoder.SetIndent("", jsonIndentConstant)
	}
	return encoder.Encode(analysis)
}

// Analyze finds the most recent failed run and collects error excerpts for
// each of its failed jobs.
func (service *Service) Analyze(executionContext context.Context, options Options) (Analysis, error) {
	maximumExcerpts := options.MaximumExcerpts
	if maximumExcerpts <= 0 {
		maximumExcerpts = defaultMaximumExcerptsConstant
	}

	analysis := Analysis{Repository: options.Repository}
	run, found, runError := service.inspector.MostRecentFailedRun(executionContext, options.Repository)
	if runError != nil {
		return Analysis{}, runError
	}
	if !found {
		service.logger.Debug(noFailedRunLogMessageConstant, zap.String(repositoryLogFieldConstant, options.Repository))
		return analysis, nil
	}

	analysis.Found = true
	analysis.Run = SummarizeRun(run)
	analysis.FailedJobs = []JobSummary{}

	jobs, jobsError := service.inspector.RunJobs(executionContext, options.Repository, run.DatabaseID)
	if jobsError != nil {
		return Analysis{}, jobsError
	}

	for _, job := range SelectFailedJobs(jobs) {
		logText, logError := service.inspector.FailedJobLog(executionContext, options.Repository, run.DatabaseID, job.Name)
		if logError != nil {
			return Analysis{}, logError
		}

		excerpts := ExtractErrorExcerpts(logText, maximumExcerpts)
		service.logger.Debug(jobLogFetchedLogMessageConstant,
			zap.Int64(runIdentifierLogFieldConstant, run.DatabaseID),
			zap.String(jobNameLogFieldConstant, job.Name),
			zap.Int(excerptCountLogFieldConstant, len(excerpts)),
		)

		analysis.FailedJobs = append(analysis.FailedJobs, JobSummary{
			Name:          job.Name,
			Conclusion:    *job.Conclusion,
			Status:        job.Status,
			StartedAt:     job.StartedAt,
			CompletedAt:   job.CompletedAt,
			ErrorExcerpts: excerpts,
		})
	}

	return analysis, nil
}
