package dependencies_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/dependencies"
	"github.com/temirov/ghtools/internal/execshell"
)

type recordingExecutor struct {
	calls []execshell.CommandDetails
}

func (executor *recordingExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.calls = append(executor.calls, details)
	return execshell.ExecutionResult{}, nil
}

func TestResolveGitHubExecutorPrefersExisting(testInstance *testing.T) {
	existing := &recordingExecutor{}
	resolved, resolveError := dependencies.ResolveGitHubExecutor(existing, zap.NewNop(), nil)
	require.NoError(testInstance, resolveError)
	require.Same(testInstance, existing, resolved)
}

func TestResolveGitHubExecutorBuildsShellExecutor(testInstance *testing.T) {
	testInstance.Setenv("GITHUB_API_TOKEN", "")
	resolved, resolveError := dependencies.ResolveGitHubExecutor(nil, nil, nil)
	require.NoError(testInstance, resolveError)
	require.IsType(testInstance, &execshell.ShellExecutor{}, resolved)
}

func TestResolveGitHubClientUsesExecutor(testInstance *testing.T) {
	existing := &recordingExecutor{}
	client, resolveError := dependencies.ResolveGitHubClient(existing, zap.NewNop(), nil)
	require.NoError(testInstance, resolveError)
	require.NoError(testInstance, client.VerifyInstallation(context.Background()))
	require.Equal(testInstance, []execshell.CommandDetails{{Arguments: []string{"--version"}}}, existing.calls)
}

func TestWithEnvironmentAddsVariablesWithoutOverriding(testInstance *testing.T) {
	existing := &recordingExecutor{}
	executor := dependencies.WithEnvironment(existing, map[string]string{"GH_TOKEN": "api", "GH_PROMPT_DISABLED": "1"})

	_, executionError := executor.ExecuteGitHubCLI(context.Background(), execshell.CommandDetails{
		Arguments:            []string{"auth", "status"},
		EnvironmentVariables: map[string]string{"GH_PROMPT_DISABLED": "0"},
	})
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, []execshell.CommandDetails{{
		Arguments:            []string{"auth", "status"},
		EnvironmentVariables: map[string]string{"GH_TOKEN": "api", "GH_PROMPT_DISABLED": "0"},
	}}, existing.calls)
}

func TestWithEmptyEnvironmentKeepsExecutor(testInstance *testing.T) {
	existing := &recordingExecutor{}
	require.Same(testInstance, existing, dependencies.WithEnvironment(existing, nil))
}
