package flags

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ghtools/internal/utils"
)

func TestFormatChoiceUsage(t *testing.T) {
	testCases := []struct {
		name           string
		defaultChoice  string
		choices        []string
		description    string
		expectedOutput string
	}{
		{
			name:           "DefaultFirstChoice",
			defaultChoice:  "local",
			choices:        []string{"local", "user"},
			description:    "Write configuration to LOCAL or user scope.",
			expectedOutput: "`<LOCAL|user>` Write configuration to LOCAL or user scope.",
		},
		{
			name:           "DefaultSecondChoice",
			defaultChoice:  "user",
			choices:        []string{"local", "user"},
			description:    "Persist configuration for the selected scope.",
			expectedOutput: "`<local|USER>` Persist configuration for the selected scope.",
		},
		{
			name:           "EmptyDescription",
			defaultChoice:  "alpha",
			choices:        []string{"alpha", "beta"},
			description:    "",
			expectedOutput: "`<ALPHA|beta>`",
		},
		{
			name:           "DuplicateChoicesIgnored",
			defaultChoice:  "beta",
			choices:        []string{"beta", "beta", "alpha", "alpha"},
			description:    "Select between options.",
			expectedOutput: "`<BETA|alpha>` Select between options.",
		},
		{
			name:           "WhitespaceTrimmed",
			defaultChoice:  "primary",
			choices:        []string{" primary ", " secondary "},
			description:    "Pick a palette.",
			expectedOutput: "`<PRIMARY|secondary>` Pick a palette.",
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			actual := FormatChoiceUsage(testCase.defaultChoice, testCase.choices, testCase.description)
			require.Equal(t, testCase.expectedOutput, actual)
		})
	}
}

func TestResolveChoice(t *testing.T) {
	testCases := []struct {
		name          string
		value         string
		expectedValue string
		expectError   bool
	}{
		{name: "ExactMatch", value: "json", expectedValue: "json"},
		{name: "CaseInsensitive", value: " PRETTY ", expectedValue: "pretty"},
		{name: "EmptyUsesDefault", value: "", expectedValue: "pretty"},
		{name: "UnknownRejected", value: "xml", expectError: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			resolved, resolveError := ResolveChoice("output", testCase.value, "pretty", []string{"json", "pretty", "summary"})
			if testCase.expectError {
				require.EqualError(t, resolveError, `invalid value "xml" for --output (choose from json, pretty, summary)`)
				require.Equal(t, utils.ExitCodeUsage, utils.ResolveExitCode(resolveError))
				return
			}
			require.NoError(t, resolveError)
			require.Equal(t, testCase.expectedValue, resolved)
		})
	}
}
