package failedrun_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/failedrun"
	"github.com/temirov/ghtools/internal/utils"
)

const (
	runListResponseConstant = `[{"databaseId":12345,"number":42,"conclusion":"failure","status":"completed","createdAt":"2025-01-15T10:30:00Z","displayTitle":"CI","url":"https://example.test/runs/12345","headBranch":"main","headSha":"abc","event":"push"}]`
	runJobsResponseConstant = `{"jobs":[{"databaseId":1001,"name":"Unit Tests","status":"completed","conclusion":"failure"}]}`
)

type scriptedGitHubExecutor struct {
	responses map[string]execshell.ExecutionResult
	failures  map[string]bool
	calls     []string
}

func (executor *scriptedGitHubExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := strings.Join(details.Arguments, " ")
	executor.calls = append(executor.calls, key)
	if executor.failures[key] {
		result := execshell.ExecutionResult{ExitCode: 1, StandardError: "failed to get run log"}
		return result, execshell.CommandFailedError{Command: execshell.ShellCommand{Name: execshell.CommandGitHub, Details: details}, Result: result}
	}
	return executor.responses[key], nil
}

func buildFailedRunCommand(testInstance *testing.T, configuration failedrun.Configuration, executor *scriptedGitHubExecutor) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()
	builder := failedrun.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() failedrun.Configuration { return configuration },
		GitHubExecutor:        executor,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	output := &bytes.Buffer{}
	command.SetOut(output)
	command.SetErr(&bytes.Buffer{})
	command.SilenceUsage = true
	command.SilenceErrors = true
	command.SetContext(context.Background())
	return command, output
}

func TestCommandFallsBackToRunLog(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{
		responses: map[string]execshell.ExecutionResult{
			"run list --status failure --limit 1 --json databaseId,number,conclusion,status,createdAt,displayTitle,url,headBranch,headSha,event --repo owner/repo": {StandardOutput: runListResponseConstant},
			"run view 12345 --json jobs --repo owner/repo":     {StandardOutput: runJobsResponseConstant},
			"run view 12345 --log-failed --repo owner/repo":    {StandardOutput: "Unit Tests\tRun\t2025-01-15T10:30:15.000Z Error: assertion failed\n"},
		},
		failures: map[string]bool{
			"run view 12345 --log-failed --job Unit Tests --repo owner/repo": true,
		},
	}
	command, output := buildFailedRunCommand(testInstance, failedrun.DefaultConfiguration(), executor)
	command.SetArgs([]string{"--repo", "owner/repo"})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, []string{
		"--version",
		"run list --status failure --limit 1 --json databaseId,number,conclusion,status,createdAt,displayTitle,url,headBranch,headSha,event --repo owner/repo",
		"run view 12345 --json jobs --repo owner/repo",
		"run view 12345 --log-failed --job Unit Tests --repo owner/repo",
		"run view 12345 --log-failed --repo owner/repo",
	}, executor.calls)

	var decoded struct {
		FailedJobs []struct {
			Name          string   `json:"name"`
			ErrorExcerpts []string `json:"error_excerpts"`
		} `json:"failed_jobs"`
	}
	require.NoError(testInstance, json.Unmarshal(output.Bytes(), &decoded))
	require.Len(testInstance, decoded.FailedJobs, 1)
	require.Equal(testInstance, []string{"Unit Tests\tRun\t2025-01-15T10:30:15.000Z Error: assertion failed"}, decoded.FailedJobs[0].ErrorExcerpts)
}

func TestCommandUsesConfiguredRepositoryAndPretty(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{responses: map[string]execshell.ExecutionResult{}}
	command, output := buildFailedRunCommand(testInstance, failedrun.Configuration{Repository: " owner/configured ", Pretty: true}, executor)
	command.SetArgs([]string{})
	require.NoError(testInstance, command.Execute())

	require.Equal(testInstance, "run list --status failure --limit 1 --json databaseId,number,conclusion,status,createdAt,displayTitle,url,headBranch,headSha,event --repo owner/configured", executor.calls[1])
	require.Equal(testInstance, "{\n  \"error\": \"No failed runs found\",\n  \"repository\": \"owner/configured\"\n}\n", output.String())
}

func TestCommandUsageErrors(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "positional_argument", arguments: []string{"owner/repo"}},
		{name: "non_positive_excerpts", arguments: []string{"--max-excerpts", "0"}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitHubExecutor{}
			command, _ := buildFailedRunCommand(testInstance, failedrun.DefaultConfiguration(), executor)
			command.SetArgs(testCase.arguments)
			executionError := command.Execute()
			require.Equal(testInstance, utils.ExitCodeUsage, utils.ResolveExitCode(executionError))
			require.Empty(testInstance, executor.calls)
		})
	}
}
