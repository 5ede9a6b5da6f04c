package codesearch_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghtools/internal/codesearch"
	"github.com/temirov/ghtools/internal/githubcli"
)

func buildResult(repository string, path string, matchCount int) githubcli.CodeSearchResult {
	textMatches := make([]githubcli.TextMatch, 0, matchCount)
	for matchIndex := 0; matchIndex < matchCount; matchIndex++ {
		textMatches = append(textMatches, githubcli.TextMatch{Fragment: "fragment"})
	}
	return githubcli.CodeSearchResult{
		Path:        path,
		Repository:  githubcli.CodeSearchRepository{NameWithOwner: repository},
		TextMatches: textMatches,
		URL:         "https://github.com/" + repository + "/blob/main/" + path,
	}
}

func resultPaths(results []githubcli.CodeSearchResult) []string {
	paths := make([]string, 0, len(results))
	for _, result := range results {
		paths = append(paths, result.Path)
	}
	return paths
}

func TestFilterResults(testInstance *testing.T) {
	forked := buildResult("fork/repo", "fork.go", 3)
	forked.Repository.IsFork = true
	private := buildResult("private/repo", "private.go", 3)
	private.Repository.IsPrivate = true
	sparse := buildResult("public/repo", "sparse.go", 1)
	dense := buildResult("public/repo", "dense.go", 4)
	results := []githubcli.CodeSearchResult{forked, private, sparse, dense}

	testCases := []struct {
		name          string
		options       codesearch.FilterOptions
		expectedPaths []string
	}{
		{name: "no_filters", options: codesearch.FilterOptions{}, expectedPaths: []string{"fork.go", "private.go", "sparse.go", "dense.go"}},
		{name: "exclude_forks", options: codesearch.FilterOptions{ExcludeForks: true}, expectedPaths: []string{"private.go", "sparse.go", "dense.go"}},
		{name: "exclude_private", options: codesearch.FilterOptions{ExcludePrivate: true}, expectedPaths: []string{"fork.go", "sparse.go", "dense.go"}},
		{name: "minimum_matches", options: codesearch.FilterOptions{MinMatches: 3}, expectedPaths: []string{"fork.go", "private.go", "dense.go"}},
		{name: "combined", options: codesearch.FilterOptions{ExcludeForks: true, ExcludePrivate: true, MinMatches: 2}, expectedPaths: []string{"dense.go"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedPaths, resultPaths(codesearch.FilterResults(results, testCase.options)))
		})
	}
}

func TestSortResultsIsStable(testInstance *testing.T) {
	results := []githubcli.CodeSearchResult{
		buildResult("beta/repo", "b.go", 2),
		buildResult("alpha/repo", "d.go", 1),
		buildResult("beta/repo", "a.go", 2),
		buildResult("alpha/repo", "c.go", 5),
	}

	testCases := []struct {
		name          string
		key           codesearch.SortKey
		expectedPaths []string
	}{
		{name: "unsorted", key: codesearch.SortNone, expectedPaths: []string{"b.go", "d.go", "a.go", "c.go"}},
		{name: "matches_descending", key: codesearch.SortMatches, expectedPaths: []string{"c.go", "b.go", "a.go", "d.go"}},
		{name: "repository_ascending", key: codesearch.SortRepository, expectedPaths: []string{"d.go", "c.go", "b.go", "a.go"}},
		{name: "path_ascending", key: codesearch.SortPath, expectedPaths: []string{"a.go", "b.go", "c.go", "d.go"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			sorted := codesearch.SortResults(results, testCase.key)
			require.Equal(testInstance, testCase.expectedPaths, resultPaths(sorted))
		})
	}

	require.Equal(testInstance, []string{"b.go", "d.go", "a.go", "c.go"}, resultPaths(results))
}
