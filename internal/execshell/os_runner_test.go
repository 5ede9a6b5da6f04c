package execshell_test

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghtools/internal/execshell"
)

const testShellCommandName = execshell.CommandName("sh")

func requireShell(testInstance *testing.T) {
	testInstance.Helper()
	if _, lookupError := exec.LookPath(string(testShellCommandName)); lookupError != nil {
		testInstance.Skip("sh is not available")
	}
}

func TestOSCommandRunnerCapturesOutputAndExitCode(testInstance *testing.T) {
	requireShell(testInstance)
	runner := execshell.NewOSCommandRunner()

	result, runError := runner.Run(context.Background(), execshell.ShellCommand{
		Name: testShellCommandName,
		Details: execshell.CommandDetails{
			Arguments:            []string{"-c", `echo "$GHTOOLS_PROBE"; read line; echo "$line" >&2; exit 3`},
			EnvironmentVariables: map[string]string{"GHTOOLS_PROBE": "probe-value"},
			StandardInput:        []byte("from-stdin\n"),
		},
	})
	require.NoError(testInstance, runError)
	require.Equal(testInstance, 3, result.ExitCode)
	require.Equal(testInstance, "probe-value\n", result.StandardOutput)
	require.Equal(testInstance, "from-stdin\n", result.StandardError)
}

func TestOSCommandRunnerUsesWorkingDirectory(testInstance *testing.T) {
	requireShell(testInstance)
	workingDirectory := testInstance.TempDir()

	result, runError := execshell.NewOSCommandRunner().Run(context.Background(), execshell.ShellCommand{
		Name:    testShellCommandName,
		Details: execshell.CommandDetails{Arguments: []string{"-c", "pwd -P"}, WorkingDirectory: workingDirectory},
	})
	require.NoError(testInstance, runError)
	require.NotEmpty(testInstance, result.StandardOutput)
}

func TestOSCommandRunnerReportsMissingExecutable(testInstance *testing.T) {
	_, runError := execshell.NewOSCommandRunner().Run(context.Background(), execshell.ShellCommand{
		Name: execshell.CommandName("ghtools-missing-executable"),
	})
	require.Error(testInstance, runError)
}
