package execshell

import (
	"fmt"
	"strconv"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	fallbackUnknownValueLabelConstant       = "unknown"
	currentRepositoryLabelConstant          = "the current repository"
	quotedSubjectTemplateConstant           = "%q"
	runSubjectTemplateConstant              = "run %s"
	jobInRunSubjectTemplateConstant         = "job %s of run %s"
	apiSubjectTemplateConstant              = "%s %s"
	defaultAPIMethodConstant                = "GET"
)

const (
	githubVersionFlagConstant         = "--version"
	githubAuthSubcommandConstant      = "auth"
	githubStatusSubcommandConstant    = "status"
	githubSearchSubcommandConstant    = "search"
	githubCodeSubcommandConstant      = "code"
	githubRunSubcommandConstant       = "run"
	githubListSubcommandConstant      = "list"
	githubViewSubcommandConstant      = "view"
	githubAPISubcommandConstant       = "api"
	githubRepoFlagConstant            = "--repo"
	githubJobFlagConstant             = "--job"
	githubLogFailedFlagConstant       = "--log-failed"
	githubMethodFlagConstant          = "-X"
	githubEndpointPrefixConstant      = "/"
	githubCLIInstallationSubjectLabel = "GitHub CLI installation"
	githubCLIAuthenticationSubject    = "GitHub CLI authentication"
)

type activityTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

var (
	versionCheckActivity = activityTemplates{
		start:            "Checking %s",
		success:          "Confirmed %s",
		failure:          "Could not confirm %s (exit code %d%s)",
		executionFailure: "Unable to confirm %s: %s",
	}
	authenticationActivity = activityTemplates{
		start:            "Verifying %s",
		success:          "Verified %s",
		failure:          "Failed to verify %s (exit code %d%s)",
		executionFailure: "Unable to verify %s: %s",
	}
	codeSearchActivity = activityTemplates{
		start:            "Searching code for %s",
		success:          "Code search for %s completed",
		failure:          "Code search for %s failed (exit code %d%s)",
		executionFailure: "Unable to search code for %s: %s",
	}
	runListActivity = activityTemplates{
		start:            "Listing failed workflow runs in %s",
		success:          "Listed failed workflow runs in %s",
		failure:          "Failed to list workflow runs in %s (exit code %d%s)",
		executionFailure: "Unable to list workflow runs in %s: %s",
	}
	runJobsActivity = activityTemplates{
		start:            "Inspecting jobs of %s",
		success:          "Inspected jobs of %s",
		failure:          "Failed to inspect jobs of %s (exit code %d%s)",
		executionFailure: "Unable to inspect jobs of %s: %s",
	}
	runLogsActivity = activityTemplates{
		start:            "Downloading failed logs for %s",
		success:          "Downloaded failed logs for %s",
		failure:          "Failed to download logs for %s (exit code %d%s)",
		executionFailure: "Unable to download logs for %s: %s",
	}
	apiActivity = activityTemplates{
		start:            "Calling GitHub API %s",
		success:          "GitHub API %s succeeded",
		failure:          "GitHub API %s failed (exit code %d%s)",
		executionFailure: "Unable to call GitHub API %s: %s",
	}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGitHub {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	templates, subject, recognized := formatter.describeGitHubCommand(command.Details.Arguments)
	if !recognized {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	switch stage {
	case messageStageStart:
		return fmt.Sprintf(templates.start, subject)
	case messageStageSuccess:
		return fmt.Sprintf(templates.success, subject)
	case messageStageFailure:
		return fmt.Sprintf(templates.failure, subject, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(templates.executionFailure, subject, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) describeGitHubCommand(arguments []string) (activityTemplates, string, bool) {
	primary := formatter.argumentAtIndex(arguments, 0)
	secondary := formatter.argumentAtIndex(arguments, 1)

	switch {
	case primary == githubVersionFlagConstant:
		return versionCheckActivity, githubCLIInstallationSubjectLabel, true
	case primary == githubAuthSubcommandConstant && secondary == githubStatusSubcommandConstant:
		return authenticationActivity, githubCLIAuthenticationSubject, true
	case primary == githubSearchSubcommandConstant && secondary == githubCodeSubcommandConstant:
		return codeSearchActivity, fmt.Sprintf(quotedSubjectTemplateConstant, formatter.argumentAtIndex(arguments, 2)), true
	case primary == githubRunSubcommandConstant && secondary == githubListSubcommandConstant:
		return runListActivity, formatter.describeRepository(arguments), true
	case primary == githubRunSubcommandConstant && secondary == githubViewSubcommandConstant:
		runSubject := fmt.Sprintf(runSubjectTemplateConstant, formatter.ensureValue(formatter.argumentAtIndex(arguments, 2)))
		if !containsArgument(arguments, githubLogFailedFlagConstant) {
			return runJobsActivity, runSubject, true
		}
		jobName := strings.TrimSpace(findFlagValue(arguments, githubJobFlagConstant))
		if len(jobName) == 0 {
			return runLogsActivity, runSubject, true
		}
		return runLogsActivity, fmt.Sprintf(jobInRunSubjectTemplateConstant, strconv.Quote(jobName), formatter.ensureValue(formatter.argumentAtIndex(arguments, 2))), true
	case primary == githubAPISubcommandConstant:
		method := strings.TrimSpace(findFlagValue(arguments, githubMethodFlagConstant))
		if len(method) == 0 {
			method = defaultAPIMethodConstant
		}
		return apiActivity, fmt.Sprintf(apiSubjectTemplateConstant, method, formatter.findEndpoint(arguments)), true
	default:
		return activityTemplates{}, emptyStringConstant, false
	}
}

func (formatter CommandMessageFormatter) describeRepository(arguments []string) string {
	repository := strings.TrimSpace(findFlagValue(arguments, githubRepoFlagConstant))
	if len(repository) == 0 {
		return currentRepositoryLabelConstant
	}
	return repository
}

func (formatter CommandMessageFormatter) findEndpoint(arguments []string) string {
	for _, argument := range arguments {
		trimmedArgument := strings.TrimSpace(argument)
		if strings.HasPrefix(trimmedArgument, githubEndpointPrefixConstant) {
			return trimmedArgument
		}
	}
	return fallbackUnknownValueLabelConstant
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = commandLabel + commandArgumentsJoinSeparatorConstant + strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant)
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) argumentAtIndex(arguments []string, index int) string {
	if index < 0 || index >= len(arguments) {
		return emptyStringConstant
	}
	return strings.TrimSpace(arguments[index])
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	if len(strings.TrimSpace(value)) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return value
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}

func findFlagValue(arguments []string, flagName string) string {
	for index := 0; index < len(arguments)-1; index++ {
		if strings.TrimSpace(arguments[index]) == flagName {
			return arguments[index+1]
		}
	}
	return emptyStringConstant
}
