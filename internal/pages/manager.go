package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/githubcli"
	"github.com/temirov/ghtools/internal/utils"
)

const (
	pagesEndpointTemplateConstant       = "/repos/%s/pages"
	buildsEndpointTemplateConstant      = "/repos/%s/pages/builds"
	latestBuildEndpointTemplateConstant = "/repos/%s/pages/builds/latest"
	sourceFieldNameConstant             = "source"
	branchFieldNameConstant             = "branch"
	pathFieldNameConstant               = "path"
	buildTypeFieldNameConstant          = "build_type"
	httpsEnforcedFieldNameConstant      = "https_enforced"
	htmlURLFieldNameConstant            = "html_url"
	statusFieldNameConstant             = "status"
	cnameFieldNameConstant              = "cname"
	urlFieldNameConstant                = "url"
	commitFieldNameConstant             = "commit"
	createdAtFieldNameConstant          = "created_at"
	errorFieldNameConstant              = "error"
	messageFieldNameConstant            = "message"
	notAvailableConstant                = "N/A"
	unknownErrorConstant                = "Unknown error"

	enablingTemplateConstant          = "Enabling GitHub Pages for %s...\n  Branch: %s\n  Path: %s\n  Build type: %s\n"
	enabledMessageConstant            = "✓ GitHub Pages enabled successfully!\n"
	enforcingHTTPSMessageConstant     = "  Enforcing HTTPS...\n"
	alreadyEnabledMessageConstant     = "⚠ Pages may already be enabled. Checking status...\n"
	enableFailedTemplateConstant      = "✗ Failed to enable Pages: %s\n"
	workflowTipMessageConstant        = "\n💡 Tip: Create a deployment workflow with:\n   ghtools pages create-workflow\n"
	checkingStatusTemplateConstant    = "Checking GitHub Pages status for %s...\n"
	statusEnabledHeadingConstant      = "\n✓ GitHub Pages is enabled:\n"
	statusLineTemplateConstant        = "  %s: %s\n"
	statusNotEnabledMessageConstant   = "✗ GitHub Pages is not enabled for this repository.\n"
	triggeringRebuildTemplateConstant = "Triggering rebuild for %s...\n"
	rebuildTriggeredMessageConstant   = "✓ Build triggered successfully!\n"
	rebuildFailedTemplateConstant     = "✗ Failed to trigger build: %s\n"
	latestBuildHeadingConstant        = "\nLatest build:\n"

	statusURLLabelConstant           = "URL"
	statusLabelConstant              = "Status"
	statusBuildTypeLabelConstant     = "Build type"
	statusSourceBranchLabelConstant  = "Source branch"
	statusSourcePathLabelConstant    = "Source path"
	statusHTTPSEnforcedLabelConstant = "HTTPS enforced"
	statusCustomDomainLabelConstant  = "Custom domain"
	buildURLLabelConstant            = "Build URL"
	buildCommitLabelConstant         = "Commit"
	buildCreatedLabelConstant        = "Created"
	buildErrorLabelConstant          = "Error"

	notAuthenticatedMessageConstant   = "GitHub CLI is not authenticated.\nRun 'gh auth login' to authenticate."
	repositoryRequiredMessageConstant = "repository must be provided in the form owner/repo"
	apiCallLogMessageConstant         = "pages api call finished"
	endpointLogFieldConstant          = "endpoint"
	statusCodeLogFieldConstant        = "status_code"
	succeededLogFieldConstant         = "succeeded"
)

// ErrNotAuthenticated indicates gh has no usable credentials.
var ErrNotAuthenticated = errors.New(notAuthenticatedMessageConstant)

// PagesAPI exposes the gh operations used to manage Pages sites.
type PagesAPI interface {
	VerifyAuthentication(executionContext context.Context) error
	CallAPI(executionContext context.Context, request githubcli.APIRequest) (githubcli.APIResponse, error)
}

// EnableOptions configures the Pages site created by Enable.
type EnableOptions struct {
	Branch       string
	Path         string
	BuildType    string
	EnforceHTTPS bool
}

// Manager runs Pages operations for one repository and prints their progress.
type Manager struct {
	api          PagesAPI
	repository   string
	logger       *zap.Logger
	outputWriter io.Writer
	errorWriter  io.Writer
}

// NewManager verifies gh authentication and returns a Manager for repository.
func NewManager(executionContext context.Context, api PagesAPI, repository string, logger *zap.Logger, outputWriter io.Writer, errorWriter io.Writer) (*Manager, error) {
	if len(repository) == 0 {
		return nil, utils.NewUsageError(errors.New(repositoryRequiredMessageConstant))
	}
	if authenticationError := api.VerifyAuthentication(executionContext); authenticationError != nil {
		if errors.Is(authenticationError, context.Canceled) {
			return nil, authenticationError
		}
		return nil, ErrNotAuthenticated
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if outputWriter == nil {
		outputWriter = io.Discard
	}
	if errorWriter == nil {
		errorWriter = io.Discard
	}
	return &Manager{api: api, repository: repository, logger: logger, outputWriter: outputWriter, errorWriter: errorWriter}, nil
}

// Enable creates the Pages site. A 422 response means the site probably
// exists already, so the current status is shown instead.
func (manager *Manager) Enable(executionContext context.Context, options EnableOptions) error {
	fmt.Fprintf(manager.outputWriter, enablingTemplateConstant, manager.repository, options.Branch, options.Path, options.BuildType)

	endpoint := fmt.Sprintf(pagesEndpointTemplateConstant, manager.repository)
	response, callError := manager.call(executionContext, githubcli.APIRequest{
		Method:   http.MethodPost,
		Endpoint: endpoint,
		Fields: []githubcli.APIField{
			githubcli.NestedField(sourceFieldNameConstant, branchFieldNameConstant, options.Branch),
			githubcli.NestedField(sourceFieldNameConstant, pathFieldNameConstant, options.Path),
			githubcli.StringField(buildTypeFieldNameConstant, options.BuildType),
		},
	})
	if callError != nil {
		return callError
	}

	switch {
	case response.Succeeded:
		fmt.Fprint(manager.outputWriter, enabledMessageConstant)
		if options.EnforceHTTPS {
			fmt.Fprint(manager.outputWriter, enforcingHTTPSMessageConstant)
			if _, httpsError := manager.call(executionContext, githubcli.APIRequest{
				Method:   http.MethodPut,
				Endpoint: endpoint,
				Fields:   []githubcli.APIField{githubcli.BoolField(httpsEnforcedFieldNameConstant, true)},
			}); httpsError != nil {
				return httpsError
			}
		}
	case response.StatusCode == http.StatusUnprocessableEntity:
		fmt.Fprint(manager.outputWriter, alreadyEnabledMessageConstant)
		if statusError := manager.Status(executionContext, false); statusError != nil {
			return statusError
		}
	default:
		fmt.Fprintf(manager.errorWriter, enableFailedTemplateConstant, response.StringValue(messageFieldNameConstant, unknownErrorConstant))
		return utils.NewSilentFailure()
	}

	if options.BuildType == buildTypeWorkflowConstant {
		fmt.Fprint(manager.outputWriter, workflowTipMessageConstant)
	}
	return nil
}

// Status prints the Pages configuration and, when requested, the latest build.
func (manager *Manager) Status(executionContext context.Context, includeLatestBuild bool) error {
	fmt.Fprintf(manager.outputWriter, checkingStatusTemplateConstant, manager.repository)

	response, callError := manager.call(executionContext, githubcli.APIRequest{
		Method:   http.MethodGet,
		Endpoint: fmt.Sprintf(pagesEndpointTemplateConstant, manager.repository),
	})
	if callError != nil {
		return callError
	}
	if !response.Succeeded {
		fmt.Fprint(manager.errorWriter, statusNotEnabledMessageConstant)
		return utils.NewSilentFailure()
	}

	fmt.Fprint(manager.outputWriter, statusEnabledHeadingConstant)
	manager.printLine(statusURLLabelConstant, response.StringValue(htmlURLFieldNameConstant, notAvailableConstant))
	manager.printLine(statusLabelConstant, response.StringValue(statusFieldNameConstant, notAvailableConstant))
	manager.printLine(statusBuildTypeLabelConstant, response.StringValue(buildTypeFieldNameConstant, notAvailableConstant))
	manager.printLine(statusSourceBranchLabelConstant, response.NestedStringValue(sourceFieldNameConstant, branchFieldNameConstant, notAvailableConstant))
	manager.printLine(statusSourcePathLabelConstant, response.NestedStringValue(sourceFieldNameConstant, pathFieldNameConstant, notAvailableConstant))
	manager.printLine(statusHTTPSEnforcedLabelConstant, strconv.FormatBool(response.BoolValue(httpsEnforcedFieldNameConstant)))
	if customDomain := response.StringValue(cnameFieldNameConstant, ""); len(customDomain) > 0 {
		manager.printLine(statusCustomDomainLabelConstant, customDomain)
	}

	if includeLatestBuild {
		return manager.latestBuild(executionContext)
	}
	return nil
}

// Rebuild requests a new Pages build.
func (manager *Manager) Rebuild(executionContext context.Context) error {
	fmt.Fprintf(manager.outputWriter, triggeringRebuildTemplateConstant, manager.repository)

	response, callError := manager.call(executionContext, githubcli.APIRequest{
		Method:   http.MethodPost,
		Endpoint: fmt.Sprintf(buildsEndpointTemplateConstant, manager.repository),
	})
	if callError != nil {
		return callError
	}
	if !response.Succeeded {
		fmt.Fprintf(manager.errorWriter, rebuildFailedTemplateConstant, response.StringValue(messageFieldNameConstant, unknownErrorConstant))
		return utils.NewSilentFailure()
	}

	fmt.Fprint(manager.outputWriter, rebuildTriggeredMessageConstant)
	manager.printLine(statusLabelConstant, response.StringValue(statusFieldNameConstant, notAvailableConstant))
	if response.HasKey(urlFieldNameConstant) {
		manager.printLine(buildURLLabelConstant, response.StringValue(urlFieldNameConstant, ""))
	}
	return nil
}

func (manager *Manager) latestBuild(executionContext context.Context) error {
	response, callError := manager.call(executionContext, githubcli.APIRequest{
		Method:   http.MethodGet,
		Endpoint: fmt.Sprintf(latestBuildEndpointTemplateConstant, manager.repository),
	})
	if callError != nil {
		return callError
	}
	if !response.Succeeded {
		return nil
	}

	fmt.Fprint(manager.outputWriter, latestBuildHeadingConstant)
	manager.printLine(statusLabelConstant, response.StringValue(statusFieldNameConstant, notAvailableConstant))
	manager.printLine(buildCommitLabelConstant, response.StringValue(commitFieldNameConstant, notAvailableConstant))
	if response.HasKey(createdAtFieldNameConstant) {
		manager.printLine(buildCreatedLabelConstant, response.StringValue(createdAtFieldNameConstant, ""))
	}
	if buildError := response.NestedStringValue(errorFieldNameConstant, messageFieldNameConstant, ""); len(buildError) > 0 {
		manager.printLine(buildErrorLabelConstant, buildError)
	}
	return nil
}

func (manager *Manager) call(executionContext context.Context, request githubcli.APIRequest) (githubcli.APIResponse, error) {
	response, callError := manager.api.CallAPI(executionContext, request)
	if callError != nil {
		return githubcli.APIResponse{}, callError
	}
	manager.logger.Debug(apiCallLogMessageConstant,
		zap.String(endpointLogFieldConstant, request.Endpoint),
		zap.Int(statusCodeLogFieldConstant, response.StatusCode),
		zap.Bool(succeededLogFieldConstant, response.Succeeded),
	)
	return response, nil
}

func (manager *Manager) printLine(label string, value string) {
	fmt.Fprintf(manager.outputWriter, statusLineTemplateConstant, label, value)
}
