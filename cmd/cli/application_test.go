package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/temirov/ghtools/internal/codesearch"
	"github.com/temirov/ghtools/internal/execshell"
	"github.com/temirov/ghtools/internal/failedrun"
	"github.com/temirov/ghtools/internal/pages"
	"github.com/temirov/ghtools/internal/securityaudit"
	"github.com/temirov/ghtools/internal/utils"
	"github.com/temirov/ghtools/internal/workflowvalidate"
)

const (
	testValidWorkflowConstant = `name: ci
on:
  push:
    branches: [main]
permissions:
  contents: read
concurrency: ci-${{ github.ref }}
jobs:
  build:
    runs-on: ubuntu-latest
    timeout-minutes: 10
    steps:
      - uses: actions/checkout@v4
      - run: make test
`
	testWarningOnlyWorkflowConstant = `name: manual
on: workflow_dispatch
permissions: {}
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - run: echo hi
`
	testSearchResponseConstant = `[{"path": "main.go", "repository": {"nameWithOwner": "octo/cat", "isFork": false, "isPrivate": false}, "sha": "abc", "textMatches": [{"fragment": "needle"}], "url": "https://example.test/main.go"}]`
)

type stubGitHubExecutor struct {
	standardOutput string
	calls          []execshell.CommandDetails
}

func (executor *stubGitHubExecutor) ExecuteGitHubCLI(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.calls = append(executor.calls, details)
	return execshell.ExecutionResult{StandardOutput: executor.standardOutput}, nil
}

type applicationHarness struct {
	application *Application
	output      *bytes.Buffer
	errorOutput *bytes.Buffer
	logOutput   *bytes.Buffer
	executor    *stubGitHubExecutor
}

func newApplicationHarness(testInstance *testing.T, arguments ...string) applicationHarness {
	testInstance.Helper()
	harness := applicationHarness{
		output:      &bytes.Buffer{},
		errorOutput: &bytes.Buffer{},
		logOutput:   &bytes.Buffer{},
		executor:    &stubGitHubExecutor{standardOutput: testSearchResponseConstant},
	}
	harness.application = newApplication(applicationDependencies{
		githubExecutor: harness.executor,
		loggerFactory:  utils.NewLoggerFactoryForWriter(harness.logOutput, false),
		searchPaths:    []string{testInstance.TempDir()},
	})
	harness.application.SetOutput(harness.output, harness.errorOutput)
	harness.application.SetArguments(arguments)
	return harness
}

func writeTestFile(testInstance *testing.T, directory string, name string, content string) string {
	testInstance.Helper()
	filePath := filepath.Join(directory, name)
	require.NoError(testInstance, os.WriteFile(filePath, []byte(content), 0o644))
	return filePath
}

func TestEmbeddedDefaultsMatchCommandDefaults(testInstance *testing.T) {
	content, configurationType := EmbeddedDefaultConfiguration()
	require.Equal(testInstance, configurationTypeConstant, configurationType)

	configurationReader := viper.New()
	configurationReader.SetConfigType(configurationType)
	require.NoError(testInstance, configurationReader.ReadConfig(bytes.NewReader(content)))

	var configuration ApplicationConfiguration
	require.NoError(testInstance, configurationReader.Unmarshal(&configuration, viper.DecodeHook(utils.ConfigurationDecodeHook())))

	require.Equal(testInstance, string(utils.LogLevelWarn), configuration.Common.LogLevel)
	require.Equal(testInstance, string(utils.LogFormatStructured), configuration.Common.LogFormat)

	searchDefaults := codesearch.DefaultConfiguration()
	require.Equal(testInstance, searchDefaults.Limit, configuration.Tools.Search.Limit)
	require.Equal(testInstance, searchDefaults.Output, configuration.Tools.Search.Output)
	require.Empty(testInstance, configuration.Tools.Search.Owners)

	require.Equal(testInstance, failedrun.DefaultConfiguration(), configuration.Tools.FailedRun)
	require.Equal(testInstance, pages.DefaultConfiguration(), configuration.Tools.Pages)

	auditDefaults := securityaudit.DefaultConfiguration()
	require.Equal(testInstance, auditDefaults.FailOn, configuration.Tools.Audit.FailOn)
	require.Equal(testInstance, auditDefaults.Format, configuration.Tools.Audit.Format)

	validateDefaults := workflowvalidate.DefaultConfiguration()
	require.Equal(testInstance, validateDefaults.Format, configuration.Tools.Validate.Format)
	require.False(testInstance, configuration.Tools.Validate.Strict)
}

func TestApplicationRegistersCommands(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance)
	registered := map[string]bool{}
	for _, subcommand := range harness.application.rootCommand.Commands() {
		registered[subcommand.Name()] = true
	}
	for _, expectedName := range []string{"search", "failed-run", "pages", "audit", "validate"} {
		require.True(testInstance, registered[expectedName], expectedName)
	}
}

func TestApplicationValidatesWorkflow(testInstance *testing.T) {
	workflowPath := writeTestFile(testInstance, testInstance.TempDir(), "ci.yml", testValidWorkflowConstant)
	harness := newApplicationHarness(testInstance, "validate", workflowPath)

	require.NoError(testInstance, harness.application.Execute())
	require.Contains(testInstance, harness.output.String(), "✅ All workflows valid!")
}

func TestApplicationEnvironmentOverridesDefaults(testInstance *testing.T) {
	workflowPath := writeTestFile(testInstance, testInstance.TempDir(), "manual.yml", testWarningOnlyWorkflowConstant)
	testInstance.Setenv("GHTOOLS_TOOLS_VALIDATE_STRICT", "true")
	harness := newApplicationHarness(testInstance, "validate", workflowPath)

	executionError := harness.application.Execute()
	require.Error(testInstance, executionError)
	require.Equal(testInstance, utils.ExitCodeFailure, utils.ResolveExitCode(executionError))
	require.True(testInstance, harness.application.configuration.Tools.Validate.Strict)
}

func TestApplicationEnvironmentListOverride(testInstance *testing.T) {
	workflowDirectory := testInstance.TempDir()
	firstPath := writeTestFile(testInstance, workflowDirectory, "ci.yml", testValidWorkflowConstant)
	secondPath := writeTestFile(testInstance, workflowDirectory, "manual.yml", testWarningOnlyWorkflowConstant)
	testInstance.Setenv("GHTOOLS_TOOLS_VALIDATE_PATHS", firstPath+","+secondPath)
	harness := newApplicationHarness(testInstance, "validate")

	require.NoError(testInstance, harness.application.Execute())
	require.Equal(testInstance, []string{firstPath, secondPath}, harness.application.configuration.Tools.Validate.Paths)
	require.Contains(testInstance, harness.output.String(), "🔍 Validating: "+firstPath)
	require.Contains(testInstance, harness.output.String(), "🔍 Validating: "+secondPath)
}

func TestApplicationConfigurationFileSelectsSearchOutput(testInstance *testing.T) {
	configurationPath := writeTestFile(testInstance, testInstance.TempDir(), "ghtools.yaml", "tools:\n  search:\n    output: json\n    limit: 7\n")
	harness := newApplicationHarness(testInstance, "--config", configurationPath, "search", "needle")

	require.NoError(testInstance, harness.application.Execute())
	require.Equal(testInstance, configurationPath, harness.application.configurationMetadata.ConfigFileUsed)
	require.Len(testInstance, harness.executor.calls, 1)
	require.Equal(testInstance, []string{
		"search", "code", "needle", "--limit", "7",
		"--json", "path,repository,sha,textMatches,url",
	}, harness.executor.calls[0].Arguments)
	require.Contains(testInstance, harness.output.String(), `"nameWithOwner": "octo/cat"`)
}

func TestApplicationUsageErrors(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
	}{
		{name: "unknown_command", arguments: []string{"serch", "needle"}},
		{name: "unknown_flag", arguments: []string{"search", "--bogus", "needle"}},
		{name: "missing_query", arguments: []string{"search"}},
		{name: "invalid_log_level", arguments: []string{"--log-level", "loud", "audit", "."}},
		{name: "invalid_log_format", arguments: []string{"--log-format", "xml", "audit", "."}},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			harness := newApplicationHarness(testInstance, testCase.arguments...)
			executionError := harness.application.Execute()
			require.Error(testInstance, executionError)
			require.Equal(testInstance, utils.ExitCodeUsage, utils.ResolveExitCode(executionError))
			require.Empty(testInstance, harness.executor.calls)
		})
	}
}

func TestApplicationMissingConfigurationFileFails(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "--config", filepath.Join(testInstance.TempDir(), "absent.yaml"), "audit", ".")
	executionError := harness.application.Execute()
	require.ErrorContains(testInstance, executionError, "unable to load configuration")
	require.Equal(testInstance, utils.ExitCodeFailure, utils.ResolveExitCode(executionError))
}

func TestApplicationLoggingFlags(testInstance *testing.T) {
	workflowPath := writeTestFile(testInstance, testInstance.TempDir(), "ci.yml", testValidWorkflowConstant)

	testCases := []struct {
		name                 string
		arguments            []string
		expectedConsoleLogs  bool
		expectedLogSubstring string
	}{
		{name: "default_is_quiet", arguments: []string{"validate", workflowPath}},
		{name: "structured_info", arguments: []string{"--log-level", "info", "validate", workflowPath}, expectedLogSubstring: `"msg":"configuration initialized"`},
		{name: "underscore_flag_spelling", arguments: []string{"--log_level", "info", "validate", workflowPath}, expectedLogSubstring: `"log_level":"info"`},
		{name: "console_debug", arguments: []string{"--log-level", "DEBUG", "--log-format", "console", "validate", workflowPath}, expectedConsoleLogs: true, expectedLogSubstring: "command dispatched"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			harness := newApplicationHarness(testInstance, testCase.arguments...)
			require.NoError(testInstance, harness.application.Execute())
			require.Equal(testInstance, testCase.expectedConsoleLogs, harness.application.consoleEventLogger != nil)
			if len(testCase.expectedLogSubstring) == 0 {
				require.Empty(testInstance, harness.logOutput.String())
				return
			}
			require.Contains(testInstance, harness.logOutput.String(), testCase.expectedLogSubstring)
		})
	}
}

func TestApplicationPrintsVersion(testInstance *testing.T) {
	harness := newApplicationHarness(testInstance, "--version")
	require.NoError(testInstance, harness.application.Execute())
	require.Equal(testInstance, "ghtools version: "+Version+"\n", harness.output.String())
}
