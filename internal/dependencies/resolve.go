// Package dependencies supplies shell-backed defaults for collaborators that
// commands accept through their builders.
package dependencies

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/githubauth"
	"github.com/temirov/ghtools/internal/githubcli"
)

// ResolveGitHubExecutor returns the provided executor or constructs a shell-backed default.
// The default forwards GITHUB_API_TOKEN to gh when no token gh understands is set.
func ResolveGitHubExecutor(existing githubcli.GitHubCommandExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (githubcli.GitHubCommandExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	commandRunner := execshell.NewOSCommandRunner()
	shellExecutor, creationError := execshell.NewShellExecutorWithObserver(logger, commandRunner, observer)
	if creationError != nil {
		return nil, creationError
	}
	return WithEnvironment(shellExecutor, githubauth.CLIEnvironment(os.LookupEnv)), nil
}

// ResolveGitHubClient builds a GitHub CLI client on top of the resolved executor.
func ResolveGitHubClient(existing githubcli.GitHubCommandExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (*githubcli.Client, error) {
	executor, executorError := ResolveGitHubExecutor(existing, logger, observer)
	if executorError != nil {
		return nil, executorError
	}
	return githubcli.NewClient(executor)
}

// WithEnvironment adds environment to every gh invocation made through executor.
// Variables already present on a call win. An empty environment returns executor unchanged.
func WithEnvironment(executor githubcli.GitHubCommandExecutor, environment map[string]string) githubcli.GitHubCommandExecutor {
	if len(environment) == 0 {
		return executor
	}
	copied := make(map[string]string, len(environment))
	for key, value := range environment {
		copied[key] = value
	}
	return environmentExecutor{delegate: executor, environment: copied}
}

type environmentExecutor struct {
	delegate    githubcli.GitHubCommandExecutor
	environment map[string]string
}

func (executor environmentExecutor) ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	merged := make(map[string]string, len(executor.environment)+len(details.EnvironmentVariables))
	for key, value := range executor.environment {
		merged[key] = value
	}
	for key, value := range details.EnvironmentVariables {
		merged[key] = value
	}
	details.EnvironmentVariables = merged
	return executor.delegate.ExecuteGitHubCLI(executionContext, details)
}
