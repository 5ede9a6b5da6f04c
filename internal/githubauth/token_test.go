package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghtools/internal/githubauth"
)

func environmentLookup(values map[string]string) githubauth.EnvironmentLookup {
	return func(key string) (string, bool) {
		value, exists := values[key]
		return value, exists
	}
}

func TestResolveTokenPreference(testInstance *testing.T) {
	testCases := []struct {
		name          string
		environment   map[string]string
		expectedKey   string
		expectedToken string
		expectedFound bool
	}{
		{name: "none", environment: map[string]string{}},
		{name: "cli_token_wins", environment: map[string]string{"GH_TOKEN": "cli", "GITHUB_TOKEN": "actions", "GITHUB_API_TOKEN": "api"}, expectedKey: "GH_TOKEN", expectedToken: "cli", expectedFound: true},
		{name: "blank_values_skipped", environment: map[string]string{"GH_TOKEN": "  ", "GITHUB_TOKEN": "actions"}, expectedKey: "GITHUB_TOKEN", expectedToken: "actions", expectedFound: true},
		{name: "api_token_trimmed", environment: map[string]string{"GITHUB_API_TOKEN": " api \n"}, expectedKey: "GITHUB_API_TOKEN", expectedToken: "api", expectedFound: true},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			key, token, found := githubauth.ResolveToken(environmentLookup(testCase.environment))
			require.Equal(testInstance, testCase.expectedFound, found)
			require.Equal(testInstance, testCase.expectedKey, key)
			require.Equal(testInstance, testCase.expectedToken, token)
		})
	}
}

func TestCLIEnvironmentExportsOnlyUnreadTokens(testInstance *testing.T) {
	require.Nil(testInstance, githubauth.CLIEnvironment(environmentLookup(map[string]string{"GITHUB_TOKEN": "actions", "GITHUB_API_TOKEN": "api"})))
	require.Nil(testInstance, githubauth.CLIEnvironment(environmentLookup(map[string]string{})))
	require.Nil(testInstance, githubauth.CLIEnvironment(nil))
	require.Equal(testInstance,
		map[string]string{"GH_TOKEN": "api"},
		githubauth.CLIEnvironment(environmentLookup(map[string]string{"GITHUB_API_TOKEN": "api"})),
	)
}
