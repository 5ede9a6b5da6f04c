package codesearch_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/codesearch"
	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/utils"
)

const searchResponseConstant = `[
  {"path": "b/main.go", "repository": {"nameWithOwner": "octo/cat", "isFork": false, "isPrivate": false}, "sha": "abc", "textMatches": [{"fragment": "needle"}], "url": "https://example.test/b"},
  {"path": "a/main.go", "repository": {"nameWithOwner": "octo/fork", "isFork": true, "isPrivate": false}, "sha": "def", "textMatches": [], "url": "https://example.test/a"}
]`

type recordingGitHubExecutor struct {
	standardOutput string
	calls          []execshell.CommandDetails
}

func (executor *recordingGitHubExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.calls = append(executor.calls, details)
	return execshell.ExecutionResult{StandardOutput: executor.standardOutput}, nil
}

func buildSearchCommand(testInstance *testing.T, configuration codesearch.Configuration, executor *recordingGitHubExecutor) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()
	builder := codesearch.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() codesearch.Configuration { return configuration },
		GitHubExecutor:        executor,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(&bytes.Buffer{})
	command.SetContext(context.Background())
	return command, output
}

func TestCommandBuildsSearchArguments(testInstance *testing.T) {
	executor := &recordingGitHubExecutor{standardOutput: searchResponseConstant}
	command, output := buildSearchCommand(testInstance, codesearch.DefaultConfiguration(), executor)

	command.SetArgs([]string{"needle", "-L", "5", "--language", "go", "-R", "octo/cat", "-R", "octo/fork", "--match", "content", "--exclude-forks", "-o", "summary"})
	require.NoError(testInstance, command.Execute())

	require.Len(testInstance, executor.calls, 1)
	require.Equal(testInstance, []string{
		"search", "code", "needle", "--limit", "5", "--language", "go",
		"--repo", "octo/cat", "--repo", "octo/fork", "--match", "content",
		"--json", "path,repository,sha,textMatches,url",
	}, executor.calls[0].Arguments)
	require.Contains(testInstance, output.String(), "Total files found: 1\n")
	require.Contains(testInstance, output.String(), "  octo/cat: 1 file(s)")
}

func TestCommandUsesConfiguredDefaults(testInstance *testing.T) {
	executor := &recordingGitHubExecutor{standardOutput: searchResponseConstant}
	configuration := codesearch.Configuration{Limit: 12, Owners: []string{" octo "}, SortBy: "path", Output: "pretty"}
	command, output := buildSearchCommand(testInstance, configuration, executor)

	command.SetArgs([]string{"needle"})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, []string{
		"search", "code", "needle", "--limit", "12", "--owner", "octo",
		"--json", "path,repository,sha,textMatches,url",
	}, executor.calls[0].Arguments)
	require.Less(testInstance, bytes.Index(output.Bytes(), []byte("octo/fork:a/main.go")), bytes.Index(output.Bytes(), []byte("octo/cat:b/main.go")))
}

func TestCommandUsageErrors(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "missing_query", arguments: []string{}},
		{name: "extra_arguments", arguments: []string{"one", "two"}},
		{name: "unknown_output", arguments: []string{"needle", "--output", "xml"}},
		{name: "unknown_sort", arguments: []string{"needle", "--sort-by", "stars"}},
		{name: "unknown_match", arguments: []string{"needle", "--match", "symbol"}},
		{name: "non_positive_limit", arguments: []string{"needle", "--limit", "0"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &recordingGitHubExecutor{}
			command, _ := buildSearchCommand(testInstance, codesearch.DefaultConfiguration(), executor)
			command.SilenceUsage = true
			command.SilenceErrors = true
			command.SetArgs(testCase.arguments)

			executionError := command.Execute()
			require.Error(testInstance, executionError)
			require.Equal(testInstance, utils.ExitCodeUsage, utils.ResolveExitCode(executionError))
			require.Empty(testInstance, executor.calls)
		})
	}
}
