package execshell

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCommandEnvironmentDisablesGitHubPrompts(testInstance *testing.T) {
	gitHubEnvironment := commandEnvironment(ShellCommand{
		Name:    CommandGitHub,
		Details: CommandDetails{EnvironmentVariables: map[string]string{"GH_TOKEN": "token", "GH_PROMPT_DISABLED": "0"}},
	})
	require.Equal(testInstance, map[string]string{
		"GH_TOKEN":              "token",
		"GH_PROMPT_DISABLED":    "0",
		"GH_NO_UPDATE_NOTIFIER": "1",
	}, gitHubEnvironment)

	require.Nil(testInstance, commandEnvironment(ShellCommand{Name: CommandName("sh")}))
}

func TestBuildEnvironmentAppendsSortedOverrides(testInstance *testing.T) {
	require.Nil(testInstance, buildEnvironment([]string{"PATH=/bin"}, nil))
	require.Equal(testInstance,
		[]string{"PATH=/bin", "A=1", "B=2"},
		buildEnvironment([]string{"PATH=/bin"}, map[string]string{"B": "2", "A": "1"}),
	)
}
