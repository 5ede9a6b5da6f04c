package pages_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/pages"
	"github.com/temirov/ghtools/internal/utils"
)

type scriptedGitHubExecutor struct {
	responses map[string]execshell.ExecutionResult
	calls     []string
}

func (executor *scriptedGitHubExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	key := strings.Join(details.Arguments, " ")
	executor.calls = append(executor.calls, key)
	return executor.responses[key], nil
}

func buildPagesCommand(testInstance *testing.T, configuration pages.Configuration, executor *scriptedGitHubExecutor) (*cobra.Command, *bytes.Buffer) {
	testInstance.Helper()
	builder := pages.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return zap.NewNop() },
		ConfigurationProvider: func() pages.Configuration { return configuration },
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

func TestEnableCommandRendersAPIArguments(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{responses: map[string]execshell.ExecutionResult{}}
	command, output := buildPagesCommand(testInstance, pages.DefaultConfiguration(), executor)
	command.SetArgs([]string{"enable", "owner/repo", "--branch", "gh-pages", "--path", "/docs"})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, []string{
		"auth status",
		"api -X POST -H Accept: application/vnd.github+json -H X-GitHub-Api-Version: 2022-11-28 /repos/owner/repo/pages -f source[branch]=gh-pages -f source[path]=/docs -f build_type=workflow",
		"api -X PUT -H Accept: application/vnd.github+json -H X-GitHub-Api-Version: 2022-11-28 /repos/owner/repo/pages -F https_enforced=true",
	}, executor.calls)
	require.Contains(testInstance, output.String(), "  Branch: gh-pages\n  Path: /docs\n")
}

func TestEnableCommandHonorsConfigurationAndNoHTTPS(testInstance *testing.T) {
	executor := &scriptedGitHubExecutor{responses: map[string]execshell.ExecutionResult{}}
	configuration := pages.Configuration{Branch: "release", BuildType: "legacy", EnforceHTTPS: true}
	command, _ := buildPagesCommand(testInstance, configuration, executor)
	command.SetArgs([]string{"enable", "owner/repo", "--no-https"})

	require.NoError(testInstance, command.Execute())
	require.Equal(testInstance, []string{
		"auth status",
		"api -X POST -H Accept: application/vnd.github+json -H X-GitHub-Api-Version: 2022-11-28 /repos/owner/repo/pages -f source[branch]=release -f source[path]=/ -f build_type=legacy",
	}, executor.calls)
}

func TestCreateWorkflowCommandWritesFile(testInstance *testing.T) {
	outputPath := filepath.Join(testInstance.TempDir(), "workflows", "deploy.yml")
	executor := &scriptedGitHubExecutor{}
	command, output := buildPagesCommand(testInstance, pages.DefaultConfiguration(), executor)
	command.SetArgs([]string{"create-workflow", "--output", outputPath})

	require.NoError(testInstance, command.Execute())
	_, statError := os.Stat(outputPath)
	require.NoError(testInstance, statError)
	require.Contains(testInstance, output.String(), outputPath)
	require.Empty(testInstance, executor.calls)
}

func TestPagesCommandUsageErrors(testInstance *testing.T) {
	testCases := []struct {
		name             string
		arguments        []string
		expectedExitCode int
	}{
		{name: "enable_without_repository", arguments: []string{"enable"}, expectedExitCode: utils.ExitCodeUsage},
		{name: "status_with_two_repositories", arguments: []string{"status", "a/b", "c/d"}, expectedExitCode: utils.ExitCodeUsage},
		{name: "rebuild_without_repository", arguments: []string{"rebuild"}, expectedExitCode: utils.ExitCodeUsage},
		{name: "create_workflow_with_argument", arguments: []string{"create-workflow", "extra"}, expectedExitCode: utils.ExitCodeUsage},
		{name: "enable_with_unknown_path", arguments: []string{"enable", "owner/repo", "--path", "/site"}, expectedExitCode: utils.ExitCodeUsage},
		{name: "enable_with_unknown_build_type", arguments: []string{"enable", "owner/repo", "--build-type", "jekyll"}, expectedExitCode: utils.ExitCodeUsage},
		{name: "group_without_subcommand", arguments: []string{}, expectedExitCode: utils.ExitCodeFailure},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitHubExecutor{}
			command, _ := buildPagesCommand(testInstance, pages.DefaultConfiguration(), executor)
			command.SetArgs(testCase.arguments)

			executionError := command.Execute()
			require.Equal(testInstance, testCase.expectedExitCode, utils.ResolveExitCode(executionError))
			require.Empty(testInstance, executor.calls)
		})
	}
}
