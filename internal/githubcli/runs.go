package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/temirov/ghtools/internal/execshell"
)

const (
	runSubcommandConstant               = "run"
	listSubcommandConstant              = "list"
	viewSubcommandConstant              = "view"
	statusFlagConstant                  = "--status"
	failureStatusConstant               = "failure"
	mostRecentRunLimitConstant          = "1"
	runListJSONFieldsConstant           = "databaseId,number,conclusion,status,createdAt,displayTitle,url,headBranch,headSha,event"
	runJobsJSONFieldsConstant           = "jobs"
	logFailedFlagConstant               = "--log-failed"
	jobFlagConstant                     = "--job"
	runIdentifierFieldNameConstant      = "run_id"
	jobNameFieldNameConstant            = "job_name"
	listFailedRunsOperationNameConstant = OperationName("MostRecentFailedRun")
	listRunJobsOperationNameConstant    = OperationName("RunJobs")
)

// WorkflowRun describes a GitHub Actions run as reported by gh run list.
type WorkflowRun struct {
	DatabaseID   int64  `json:"databaseId"`
	Number       int64  `json:"number"`
	Conclusion   string `json:"conclusion"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	DisplayTitle string `json:"displayTitle"`
	URL          string `json:"url"`
	HeadBranch   string `json:"headBranch"`
	HeadSHA      string `json:"headSha"`
	Event        string `json:"event"`
}

// WorkflowJob describes one job of a workflow run. Conclusion is nil while the job is unfinished.
type WorkflowJob struct {
	DatabaseID  int64   `json:"databaseId"`
	Name        string  `json:"name"`
	Status      string  `json:"status"`
	Conclusion  *string `json:"conclusion"`
	StartedAt   string  `json:"startedAt"`
	CompletedAt string  `json:"completedAt"`
	URL         string  `json:"url"`
}

type runJobsResponse struct {
	Jobs []WorkflowJob `json:"jobs"`
}

// MostRecentFailedRun returns the latest failed run and whether one exists.
func (client *Client) MostRecentFailedRun(executionContext context.Context, repository string) (WorkflowRun, bool, error) {
	arguments := []string{
		runSubcommandConstant,
		listSubcommandConstant,
		statusFlagConstant,
		failureStatusConstant,
		limitFlagConstant,
		mostRecentRunLimitConstant,
		jsonFlagConstant,
		runListJSONFieldsConstant,
	}
	arguments = appendRepositoryFlag(arguments, repository)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: arguments})
	if executionError != nil {
		return WorkflowRun{}, false, OperationError{Operation: listFailedRunsOperationNameConstant, Cause: executionError}
	}

	if len(strings.TrimSpace(executionResult.StandardOutput)) == 0 {
		return WorkflowRun{}, false, nil
	}

	var runs []WorkflowRun
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &runs); decodingError != nil {
		return WorkflowRun{}, false, ResponseDecodingError{Operation: listFailedRunsOperationNameConstant, Cause: decodingError}
	}
	if len(runs) == 0 {
		return WorkflowRun{}, false, nil
	}
	return runs[0], true, nil
}

// RunJobs lists every job of the supplied run.
func (client *Client) RunJobs(executionContext context.Context, repository string, runIdentifier int64) ([]WorkflowJob, error) {
	if runIdentifier <= 0 {
		return nil, InvalidInputError{FieldName: runIdentifierFieldNameConstant, Message: positiveValueMessageConstant}
	}

	arguments := []string{
		runSubcommandConstant,
		viewSubcommandConstant,
		strconv.FormatInt(runIdentifier, 10),
		jsonFlagConstant,
		runJobsJSONFieldsConstant,
	}
	arguments = appendRepositoryFlag(arguments, repository)

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: arguments})
	if executionError != nil {
		return nil, OperationError{Operation: listRunJobsOperationNameConstant, Cause: executionError}
	}

	if len(strings.TrimSpace(executionResult.StandardOutput)) == 0 {
		return []WorkflowJob{}, nil
	}

	var response runJobsResponse
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &response); decodingError != nil {
		return nil, ResponseDecodingError{Operation: listRunJobsOperationNameConstant, Cause: decodingError}
	}
	if response.Jobs == nil {
		return []WorkflowJob{}, nil
	}
	return response.Jobs, nil
}

// FailedJobLog downloads the failed-step log of a job. When the job-scoped
// download fails it retries for the whole run and yields an empty log if that
// also fails. Only context cancellation is reported as an error.
func (client *Client) FailedJobLog(executionContext context.Context, repository string, runIdentifier int64, jobName string) (string, error) {
	if runIdentifier <= 0 {
		return "", InvalidInputError{FieldName: runIdentifierFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if len(strings.TrimSpace(jobName)) == 0 {
		return "", InvalidInputError{FieldName: jobNameFieldNameConstant, Message: requiredValueMessageConstant}
	}

	runIdentifierText := strconv.FormatInt(runIdentifier, 10)
	attempts := [][]string{
		{runSubcommandConstant, viewSubcommandConstant, runIdentifierText, logFailedFlagConstant, jobFlagConstant, jobName},
		{runSubcommandConstant, viewSubcommandConstant, runIdentifierText, logFailedFlagConstant},
	}

	for _, attemptArguments := range attempts {
		arguments := appendRepositoryFlag(attemptArguments, repository)
		executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: arguments})
		if executionError == nil {
			return executionResult.StandardOutput, nil
		}
		if errors.Is(executionError, context.Canceled) || errors.Is(executionError, context.DeadlineExceeded) {
			return "", executionError
		}
		if contextError := executionContext.Err(); contextError != nil {
			return "", contextError
		}
	}

	return "", nil
}
