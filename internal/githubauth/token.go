// Package githubauth maps the token variables users already export onto the
// ones the gh CLI reads.
package githubauth

import "strings"

// Token variables in order of preference. gh reads the first two itself.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// EnvironmentLookup reports the value of an environment variable, like os.LookupEnv.
type EnvironmentLookup func(key string) (string, bool)

// ResolveToken returns the first non-blank token in preference order.
func ResolveToken(lookup EnvironmentLookup) (string, string, bool) {
	if lookup == nil {
		return "", "", false
	}
	for _, key := range tokenPreference {
		value, exists := lookup(key)
		value = strings.TrimSpace(value)
		if exists && len(value) > 0 {
			return key, value, true
		}
	}
	return "", "", false
}

// CLIEnvironment returns the variables a gh invocation needs in addition to
// the process environment. It is empty unless the only token available is one
// gh ignores, in which case that token is exported as GH_TOKEN.
func CLIEnvironment(lookup EnvironmentLookup) map[string]string {
	key, token, found := ResolveToken(lookup)
	if !found || key != EnvGitHubAPIToken {
		return nil
	}
	return map[string]string{EnvGitHubCLIToken: token}
}
