package githubcli

import (
	"context"
	"errors"
	"fmt"

	"github.com/temirov/ghtools/internal/execshell"
)

const (
	jsonFlagConstant                        = "--json"
	repoFlagConstant                        = "--repo"
	limitFlagConstant                       = "--limit"
	requiredValueMessageConstant            = "value required"
	positiveValueMessageConstant            = "value must be positive"
	executorNotConfiguredMessageConstant    = "github cli executor not configured"
	cliUnavailableMessageConstant           = "gh CLI is not installed or not in PATH"
	cliNotAuthenticatedMessageConstant      = "GitHub CLI is not authenticated"
	operationErrorMessageTemplateConstant   = "%s operation failed"
	operationErrorWithCauseTemplateConstant = "%s operation failed: %s"
	responseDecodingErrorTemplateConstant   = "%s response decoding failed: %s"
	invalidInputErrorTemplateConstant       = "%s: %s"
	versionFlagConstant                     = "--version"
	authSubcommandConstant                  = "auth"
	statusSubcommandConstant                = "status"
	verifyInstallationOperationNameConstant = OperationName("VerifyInstallation")
	verifyAuthOperationNameConstant         = OperationName("VerifyAuthentication")
)

// OperationName describes a named GitHub CLI workflow supported by the client.
type OperationName string

// GitHubCommandExecutor is the minimal interface required from execshell.ShellExecutor.
type GitHubCommandExecutor interface {
	ExecuteGitHubCLI(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Client coordinates GitHub CLI invocations through execshell.
type Client struct {
	executor GitHubCommandExecutor
}

var (
	// ErrExecutorNotConfigured indicates the client was constructed without an executor.
	ErrExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
	// ErrCLIUnavailable indicates the gh executable could not be run.
	ErrCLIUnavailable = errors.New(cliUnavailableMessageConstant)
	// ErrCLINotAuthenticated indicates gh auth status reported no usable credentials.
	ErrCLINotAuthenticated = errors.New(cliNotAuthenticatedMessageConstant)
)

// InvalidInputError surfaces validation issues for operation inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// OperationError wraps execution issues for GitHub CLI operations.
type OperationError struct {
	Operation OperationName
	Cause     error
}

// Error describes the operation failure.
func (operationError OperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(operationErrorMessageTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(operationErrorWithCauseTemplateConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying cause.
func (operationError OperationError) Unwrap() error {
	return operationError.Cause
}

// ResponseDecodingError indicates JSON decoding failures.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// NewClient constructs a GitHub CLI client.
func NewClient(executor GitHubCommandExecutor) (*Client, error) {
	if executor == nil {
		return nil, ErrExecutorNotConfigured
	}
	return &Client{executor: executor}, nil
}

// VerifyInstallation confirms the gh executable can be run.
func (client *Client) VerifyInstallation(executionContext context.Context) error {
	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: []string{versionFlagConstant}})
	if executionError == nil {
		return nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return OperationError{Operation: verifyInstallationOperationNameConstant, Cause: contextError}
	}
	return OperationError{Operation: verifyInstallationOperationNameConstant, Cause: errors.Join(ErrCLIUnavailable, executionError)}
}

// VerifyAuthentication confirms gh is installed and authenticated.
func (client *Client) VerifyAuthentication(executionContext context.Context) error {
	_, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: []string{authSubcommandConstant, statusSubcommandConstant}})
	if executionError == nil {
		return nil
	}
	if contextError := executionContext.Err(); contextError != nil {
		return OperationError{Operation: verifyAuthOperationNameConstant, Cause: contextError}
	}

	var failedError execshell.CommandFailedError
	if errors.As(executionError, &failedError) {
		return OperationError{Operation: verifyAuthOperationNameConstant, Cause: errors.Join(ErrCLINotAuthenticated, executionError)}
	}
	return OperationError{Operation: verifyAuthOperationNameConstant, Cause: errors.Join(ErrCLIUnavailable, executionError)}
}

func appendRepositoryFlag(arguments []string, repository string) []string {
	if len(repository) == 0 {
		return arguments
	}
	return append(arguments, repoFlagConstant, repository)
}
