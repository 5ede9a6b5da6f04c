package failedrun_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghtools/internal/failedrun"
)

const sampleJobLogConstant = "Starting job...\n" +
	"2025-01-15T10:30:10.000Z Running tests\n" +
	"\x1b[31mERROR: Connection failed\x1b[0m\n" +
	"2025-01-15T10:30:15.000Z Test execution error detected\n" +
	"Failed to connect to database\n" +
	"\x1b[33mWARNING: Exception in test handler\x1b[0m\n" +
	"Cannot establish connection\n" +
	"2025-01-15T10:30:20.000Z Process completed with exit code 1\n" +
	"Timeout waiting for response\n" +
	"panic: out of memory\n" +
	"Completing job...\n"

func TestExtractErrorExcerpts(testInstance *testing.T) {
	testCases := []struct {
		name             string
		logText          string
		maximum          int
		expectedExcerpts []string
	}{
		{
			name:    "sample_log",
			logText: sampleJobLogConstant,
			maximum: 50,
			expectedExcerpts: []string{
				"ERROR: Connection failed",
				"Test execution error detected",
				"Failed to connect to database",
				"WARNING: Exception in test handler",
				"Cannot establish connection",
				"Process completed with exit code 1",
				"Timeout waiting for response",
				"panic: out of memory",
			},
		},
		{
			name:             "duplicates_removed",
			logText:          "ERROR: Connection failed\nERROR: Connection failed\n  ERROR: Connection failed  \n",
			maximum:          50,
			expectedExcerpts: []string{"ERROR: Connection failed"},
		},
		{
			name:             "limit_respected",
			logText:          sampleJobLogConstant,
			maximum:          2,
			expectedExcerpts: []string{"ERROR: Connection failed", "Test execution error detected"},
		},
		{
			name:             "successful_exit_code_ignored",
			logText:          "Process completed with exit code 0\nerrors were not found\n",
			maximum:          50,
			expectedExcerpts: []string{},
		},
		{
			name:             "empty_log",
			logText:          "",
			maximum:          50,
			expectedExcerpts: []string{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			excerpts := failedrun.ExtractErrorExcerpts(testCase.logText, testCase.maximum)
			require.Equal(testInstance, testCase.expectedExcerpts, excerpts)
		})
	}
}

func TestExtractErrorExcerptsStripsDecorations(testInstance *testing.T) {
	excerpts := failedrun.ExtractErrorExcerpts(sampleJobLogConstant, 50)
	for _, excerpt := range excerpts {
		require.False(testInstance, strings.Contains(excerpt, "\x1b["), excerpt)
		require.False(testInstance, strings.Contains(excerpt, "2025-01-15T"), excerpt)
	}
}
