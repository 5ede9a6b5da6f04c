package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"time"
)

const (
	environmentAssignmentSeparatorConstant = "="
	interruptGracePeriodConstant           = 5 * time.Second
)

// nonInteractiveGitHubEnvironment keeps gh from prompting on a captured stdin
// or printing update notices into captured stderr.
var nonInteractiveGitHubEnvironment = map[string]string{
	"GH_PROMPT_DISABLED":    "1",
	"GH_NO_UPDATE_NOTIFIER": "1",
}

// OSCommandRunner executes commands using os/exec.
type OSCommandRunner struct {
	gracePeriod time.Duration
}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() *OSCommandRunner {
	return &OSCommandRunner{gracePeriod: interruptGracePeriodConstant}
}

// Run executes the supplied command and captures both output streams. Non-zero
// exits are reported through ExecutionResult.ExitCode. When the context is
// cancelled the process receives an interrupt, is killed after a grace period,
// and Run returns the context error.
func (runner *OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	executable := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	executable.Dir = command.Details.WorkingDirectory
	executable.Env = buildEnvironment(os.Environ(), commandEnvironment(command))
	executable.Cancel = func() error {
		return executable.Process.Signal(os.Interrupt)
	}
	executable.WaitDelay = runner.gracePeriod

	var standardOutput, standardError bytes.Buffer
	executable.Stdout = &standardOutput
	executable.Stderr = &standardError
	if len(command.Details.StandardInput) > 0 {
		executable.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	runError := executable.Run()
	if contextError := executionContext.Err(); contextError != nil {
		return ExecutionResult{}, contextError
	}

	result := ExecutionResult{StandardOutput: standardOutput.String(), StandardError: standardError.String()}
	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}
	return ExecutionResult{}, runError
}

func commandEnvironment(command ShellCommand) map[string]string {
	if command.Name != CommandGitHub {
		return command.Details.EnvironmentVariables
	}
	merged := make(map[string]string, len(nonInteractiveGitHubEnvironment)+len(command.Details.EnvironmentVariables))
	for key, value := range nonInteractiveGitHubEnvironment {
		merged[key] = value
	}
	for key, value := range command.Details.EnvironmentVariables {
		merged[key] = value
	}
	return merged
}

// buildEnvironment appends overrides to base in key order. Later entries win
// for exec, so overrides replace inherited values.
func buildEnvironment(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return nil
	}
	keys := make([]string, 0, len(overrides))
	for key := range overrides {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	environment := append([]string{}, base...)
	for _, key := range keys {
		environment = append(environment, key+environmentAssignmentSeparatorConstant+overrides[key])
	}
	return environment
}
