// Package githubcli wraps the GitHub CLI operations used by ghtools.
//
// It builds gh arguments for code search, workflow run inspection and REST
// calls through gh api, decodes the JSON responses into typed structures and
// runs everything through execshell so interactions can be stubbed in tests.
package githubcli
