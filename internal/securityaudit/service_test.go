package securityaudit_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/securityaudit"
	"github.com/temirov/ghtools/internal/utils"
)

const mediumOnlyWorkflowConstant = `name: release
on: workflow_run
permissions:
  contents: read
jobs: {}
`

func writeWorkflow(testInstance *testing.T, directory string, name string, content string) string {
	testInstance.Helper()
	workflowPath := filepath.Join(directory, name)
	require.NoError(testInstance, os.MkdirAll(filepath.Dir(workflowPath), 0o755))
	require.NoError(testInstance, os.WriteFile(workflowPath, []byte(content), 0o644))
	return workflowPath
}

func TestServiceTextReport(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	securePath := writeWorkflow(testInstance, temporaryDirectory, "secure.yml", secureWorkflowConstant)

	output := &bytes.Buffer{}
	report, runError := securityaudit.NewService(zap.NewNop(), output).Run(context.Background(), securityaudit.Options{Paths: []string{securePath}})
	require.NoError(testInstance, runError)
	require.True(testInstance, report.Passed)

	expectedOutput := "\n🔒 Auditing: " + securePath + "\n" +
		"\n✅ No security issues found!\n" +
		"\n==================================================\n" +
		"SECURITY AUDIT SUMMARY\n" +
		"==================================================\n" +
		"🔴 Critical: 0\n" +
		"🟠 High:     0\n" +
		"🟡 Medium:   0\n" +
		"🟢 Low:      0\n" +
		"\n✅ Security audit passed!\n"
	require.Equal(testInstance, expectedOutput, output.String())
}

func TestServiceTextReportSkipsNonMappingRoot(testInstance *testing.T) {
	listPath := writeWorkflow(testInstance, testInstance.TempDir(), "list.yml", "- one\n- two\n")

	output := &bytes.Buffer{}
	report, runError := securityaudit.NewService(zap.NewNop(), output).Run(context.Background(), securityaudit.Options{Paths: []string{listPath}})
	require.NoError(testInstance, runError)
	require.Len(testInstance, report.Files, 1)
	require.True(testInstance, report.Files[0].Skipped)

	require.True(testInstance, strings.HasPrefix(output.String(), "\n🔒 Auditing: "+listPath+"\n\n====="))
	require.NotContains(testInstance, output.String(), "No security issues found")
}

func TestServiceThresholds(testInstance *testing.T) {
	testCases := []struct {
		name           string
		failOn         findings.Severity
		expectedPassed bool
		expectedBanner string
	}{
		{name: "critical_threshold_passes", failOn: findings.SeverityCritical, expectedPassed: true, expectedBanner: "✅ Security audit passed!"},
		{name: "high_threshold_passes", failOn: findings.SeverityHigh, expectedPassed: true, expectedBanner: "✅ Security audit passed!"},
		{name: "medium_threshold_fails", failOn: findings.SeverityMedium, expectedPassed: false, expectedBanner: "❌ Security audit failed (threshold: medium)"},
		{name: "low_threshold_fails", failOn: findings.SeverityLow, expectedPassed: false, expectedBanner: "❌ Security audit failed (threshold: low)"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			temporaryDirectory := testInstance.TempDir()
			workflowPath := writeWorkflow(testInstance, temporaryDirectory, "release.yml", mediumOnlyWorkflowConstant)

			output := &bytes.Buffer{}
			report, runError := securityaudit.NewService(zap.NewNop(), output).Run(context.Background(), securityaudit.Options{Paths: []string{workflowPath}, FailOn: testCase.failOn})
			require.Equal(testInstance, testCase.expectedPassed, report.Passed)
			require.Contains(testInstance, output.String(), testCase.expectedBanner)
			require.Equal(testInstance, 1, report.Summary.Count(findings.SeverityMedium))

			if testCase.expectedPassed {
				require.NoError(testInstance, runError)
				return
			}
			require.Error(testInstance, runError)
			require.Empty(testInstance, runError.Error())
			require.Equal(testInstance, utils.ExitCodeFailure, utils.ResolveExitCode(runError))
		})
	}
}

func TestServiceAccumulatesAcrossDirectory(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	workflowsDirectory := filepath.Join(temporaryDirectory, ".github", "workflows")
	writeWorkflow(testInstance, workflowsDirectory, "b.yml", insecureWorkflowConstant)
	writeWorkflow(testInstance, workflowsDirectory, "a.yaml", mediumOnlyWorkflowConstant)
	writeWorkflow(testInstance, workflowsDirectory, "notes.txt", "permissions: write-all")
	missingPath := filepath.Join(temporaryDirectory, "missing.yml")

	output := &bytes.Buffer{}
	report, runError := securityaudit.NewService(zap.NewNop(), output).Run(context.Background(), securityaudit.Options{Paths: []string{workflowsDirectory, missingPath}})
	require.Error(testInstance, runError)

	require.Len(testInstance, report.Files, 3)
	require.Equal(testInstance, filepath.Join(workflowsDirectory, "a.yaml"), report.Files[0].Path)
	require.Equal(testInstance, filepath.Join(workflowsDirectory, "b.yml"), report.Files[1].Path)
	require.Equal(testInstance, missingPath, report.Files[2].Path)
	require.Equal(testInstance, 3, report.Summary.Count(findings.SeverityCritical))
	require.Equal(testInstance, 2, report.Summary.Count(findings.SeverityHigh))
	require.Equal(testInstance, 1, report.Summary.Count(findings.SeverityMedium))
	require.Contains(testInstance, output.String(), "\n🔒 Auditing: "+missingPath+"\n\n🔴 CRITICAL ISSUES:\n  - File not found: "+missingPath+"\n")
	require.Contains(testInstance, output.String(), "🔴 Critical: 3\n")
}

func TestServiceJSONReport(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	workflowPath := writeWorkflow(testInstance, temporaryDirectory, "release.yml", mediumOnlyWorkflowConstant)

	output := &bytes.Buffer{}
	_, runError := securityaudit.NewService(zap.NewNop(), output).Run(context.Background(), securityaudit.Options{
		Paths:  []string{workflowPath},
		FailOn: findings.SeverityMedium,
		Format: findings.ReportFormatJSON,
	})
	require.Error(testInstance, runError)

	var decoded struct {
		Files []struct {
			Path     string             `json:"path"`
			Findings []findings.Finding `json:"findings"`
		} `json:"files"`
		Summary map[string]int `json:"summary"`
		Passed  bool           `json:"passed"`
	}
	require.NoError(testInstance, json.Unmarshal(output.Bytes(), &decoded))
	require.False(testInstance, decoded.Passed)
	require.Equal(testInstance, map[string]int{"critical": 0, "high": 0, "medium": 1, "low": 0}, decoded.Summary)
	require.Len(testInstance, decoded.Files, 1)
	require.Equal(testInstance, securityaudit.RuleDangerousTriggers, decoded.Files[0].Findings[0].Rule)
}

func TestServiceSarifReport(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	workflowPath := writeWorkflow(testInstance, temporaryDirectory, "insecure.yml", insecureWorkflowConstant)

	output := &bytes.Buffer{}
	_, runError := securityaudit.NewService(zap.NewNop(), output).Run(context.Background(), securityaudit.Options{
		Paths:  []string{workflowPath},
		Format: findings.ReportFormatSarif,
	})
	require.Error(testInstance, runError)

	var decoded findings.SarifLog
	require.NoError(testInstance, json.Unmarshal(output.Bytes(), &decoded))
	require.Len(testInstance, decoded.Runs, 1)
	require.Len(testInstance, decoded.Runs[0].Results, 4)
	require.Equal(testInstance, securityaudit.RulePermissions, decoded.Runs[0].Results[0].RuleID)
	require.Equal(testInstance, "error", decoded.Runs[0].Results[0].Level)
}

func TestServiceStopsWhenCancelled(testInstance *testing.T) {
	temporaryDirectory := testInstance.TempDir()
	workflowPath := writeWorkflow(testInstance, temporaryDirectory, "secure.yml", secureWorkflowConstant)

	cancelledContext, cancel := context.WithCancel(context.Background())
	cancel()

	output := &bytes.Buffer{}
	report, runError := securityaudit.NewService(zap.NewNop(), output).Run(cancelledContext, securityaudit.Options{Paths: []string{workflowPath}})
	require.ErrorIs(testInstance, runError, context.Canceled)
	require.Equal(testInstance, utils.ExitCodeInterrupted, utils.ResolveExitCode(runError))
	require.Empty(testInstance, report.Files)
	require.Empty(testInstance, output.String())
}
