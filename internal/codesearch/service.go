package codesearch

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/githubcli"
	"github.com/temirov/ghtools/internal/utils"
)

const (
	searchCancelledMessageConstant    = "\nSearch cancelled by user.\n"
	searchCompletedLogMessageConstant = "code search completed"
	queryLogFieldConstant             = "query"
	fetchedLogFieldConstant           = "fetched"
	displayedLogFieldConstant         = "displayed"
)

// CodeSearcher runs GitHub code searches.
type CodeSearcher interface {
	SearchCode(executionContext context.Context, options githubcli.CodeSearchOptions) ([]githubcli.CodeSearchResult, error)
}

// Options configures one search invocation.
type Options struct {
	Search githubcli.CodeSearchOptions
	Filter FilterOptions
	SortBy SortKey
	Output OutputFormat
}

// Service executes searches and prints the rendered results.
type Service struct {
	searcher     CodeSearcher
	logger       *zap.Logger
	outputWriter io.Writer
	errorWriter  io.Writer
}

// NewService constructs a Service. Results go to outputWriter and the
// cancellation notice goes to errorWriter.
func NewService(searcher CodeSearcher, logger *zap.Logger, outputWriter io.Writer, errorWriter io.Writer) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &Service{searcher: searcher, logger: logger, outputWriter: outputWriter, errorWriter: errorWriter}
}

// Run searches, filters, sorts and prints the results.
func (service *Service) Run(executionContext context.Context, options Options) error {
	results, searchError := service.searcher.SearchCode(executionContext, options.Search)
	if searchError != nil {
		if errors.Is(searchError, context.Canceled) || (executionContext != nil && errors.Is(executionContext.Err(), context.Canceled)) {
			return service.reportCancellation()
		}
		return searchError
	}

	displayed := SortResults(FilterResults(results, options.Filter), options.SortBy)
	service.logger.Debug(searchCompletedLogMessageConstant,
		zap.String(queryLogFieldConstant, options.Search.Query),
		zap.Int(fetchedLogFieldConstant, len(results)),
		zap.Int(displayedLogFieldConstant, len(displayed)),
	)

	rendered, renderError := Render(displayed, options.Output)
	if renderError != nil {
		return renderError
	}
	_, writeError := fmt.Fprintln(service.outputWriter, rendered)
	return writeError
}

func (service *Service) reportCancellation() error {
	if _, writeError := io.WriteString(service.errorWriter, searchCancelledMessageConstant); writeError != nil {
		return writeError
	}
	return utils.NewSilentInterruption()
}
