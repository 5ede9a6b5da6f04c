package codesearch_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/codesearch"
	"github.com/temirov/ghtools/internal/githubcli"
	"github.com/temirov/ghtools/internal/utils"
)

type stubSearcher struct {
	results        []githubcli.CodeSearchResult
	err            error
	receivedOption githubcli.CodeSearchOptions
}

func (searcher *stubSearcher) SearchCode(_ context.Context, options githubcli.CodeSearchOptions) ([]githubcli.CodeSearchResult, error) {
	searcher.receivedOption = options
	return searcher.results, searcher.err
}

func TestServiceRunFiltersSortsAndRenders(testInstance *testing.T) {
	forked := buildResult("fork/repo", "z.go", 1)
	forked.Repository.IsFork = true
	searcher := &stubSearcher{results: []githubcli.CodeSearchResult{
		buildResult("octo/cat", "b.go", 1),
		forked,
		buildResult("octo/cat", "a.go", 1),
	}}

	output := &bytes.Buffer{}
	service := codesearch.NewService(searcher, zap.NewNop(), output, nil)
	runError := service.Run(context.Background(), codesearch.Options{
		Search: githubcli.CodeSearchOptions{Query: "needle"},
		Filter: codesearch.FilterOptions{ExcludeForks: true},
		SortBy: codesearch.SortPath,
		Output: codesearch.OutputPretty,
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, "needle", searcher.receivedOption.Query)

	rendered := output.String()
	require.True(testInstance, strings.HasPrefix(rendered, "Found 2 result(s)\n"))
	require.True(testInstance, strings.HasSuffix(rendered, strings.Repeat("-", 80)+"\n"))
	require.Less(testInstance, strings.Index(rendered, "octo/cat:a.go"), strings.Index(rendered, "octo/cat:b.go"))
	require.NotContains(testInstance, rendered, "z.go")
}

func TestServiceRunReportsEmptyResults(testInstance *testing.T) {
	output := &bytes.Buffer{}
	service := codesearch.NewService(&stubSearcher{}, zap.NewNop(), output, nil)
	require.NoError(testInstance, service.Run(context.Background(), codesearch.Options{Search: githubcli.CodeSearchOptions{Query: "needle"}, Output: codesearch.OutputSummary}))
	require.Equal(testInstance, "No results found.\n", output.String())
}

func TestServiceRunPropagatesSearchErrors(testInstance *testing.T) {
	searchError := githubcli.SearchError{Kind: githubcli.SearchErrorRateLimited, Details: "HTTP 403: API rate limit exceeded"}
	output := &bytes.Buffer{}
	service := codesearch.NewService(&stubSearcher{err: searchError}, zap.NewNop(), output, nil)

	runError := service.Run(context.Background(), codesearch.Options{Search: githubcli.CodeSearchOptions{Query: "needle"}})
	require.ErrorIs(testInstance, runError, searchError)
	require.Equal(testInstance, utils.ExitCodeFailure, utils.ResolveExitCode(runError))
	require.Empty(testInstance, output.String())
}

func TestServiceRunReportsCancellation(testInstance *testing.T) {
	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	errorOutput := &bytes.Buffer{}
	searcher := &stubSearcher{err: githubcli.SearchError{Kind: githubcli.SearchErrorFailed, Cause: errors.Join(errors.New("signal: interrupt"), context.Canceled)}}
	service := codesearch.NewService(searcher, zap.NewNop(), nil, errorOutput)

	runError := service.Run(cancelledContext, codesearch.Options{Search: githubcli.CodeSearchOptions{Query: "needle"}})
	require.Error(testInstance, runError)
	require.Empty(testInstance, runError.Error())
	require.Equal(testInstance, utils.ExitCodeInterrupted, utils.ResolveExitCode(runError))
	require.Equal(testInstance, "\nSearch cancelled by user.\n", errorOutput.String())
}
