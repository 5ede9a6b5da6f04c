package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/ghtools/internal/execshell"
)

const (
	searchSubcommandConstant                = "search"
	codeSubcommandConstant                  = "code"
	languageFlagConstant                    = "--language"
	filenameFlagConstant                    = "--filename"
	extensionFlagConstant                   = "--extension"
	ownerFlagConstant                       = "--owner"
	matchFlagConstant                       = "--match"
	sizeFlagConstant                        = "--size"
	codeSearchJSONFieldsConstant            = "path,repository,sha,textMatches,url"
	queryFieldNameConstant                  = "query"
	limitFieldNameConstant                  = "limit"
	rateLimitStatusMarkerConstant           = "HTTP 403"
	rateLimitPhraseConstant                 = "rate limit"
	timeoutStatusMarkerConstant             = "HTTP 408"
	searchRateLimitedTemplateConstant       = "GitHub API rate limit exceeded. Please wait and try again later.\nDetails: %s"
	searchTimedOutTemplateConstant          = "Search query timed out. Try a simpler query or try again later.\nDetails: %s"
	searchFailedTemplateConstant            = "GitHub search failed: %s"
	searchDecodingFailedTemplateConstant    = "Failed to parse JSON output: %s"
	codeSearchOperationNameConstant         = OperationName("SearchCode")
	defaultCodeSearchResultLimitConstant    = 30
	codeSearchMatchTypeFileConstant         = CodeSearchMatchType("file")
	codeSearchMatchTypeContentConstant      = CodeSearchMatchType("content")
	invalidMatchTypeMessageTemplateConstant = "unsupported match type %q"
	matchFieldNameConstant                  = "match"
)

// CodeSearchMatchType restricts code search to file paths or file contents.
type CodeSearchMatchType string

// Supported code search match types.
const (
	CodeSearchMatchFile    = codeSearchMatchTypeFileConstant
	CodeSearchMatchContent = codeSearchMatchTypeContentConstant
)

// CodeSearchOptions configures a gh search code invocation.
type CodeSearchOptions struct {
	Query        string
	Limit        int
	Language     string
	Filename     string
	Extension    string
	Repositories []string
	Owners       []string
	Match        CodeSearchMatchType
	Size         string
}

// CodeSearchRepository describes the repository that owns a code search hit.
type CodeSearchRepository struct {
	ID            string `json:"id,omitempty"`
	IsFork        bool   `json:"isFork"`
	IsPrivate     bool   `json:"isPrivate"`
	NameWithOwner string `json:"nameWithOwner"`
	URL           string `json:"url,omitempty"`
}

// TextMatchSegment marks a highlighted span inside a text match fragment.
type TextMatchSegment struct {
	Indices []int  `json:"indices"`
	Text    string `json:"text"`
}

// TextMatch is a fragment of file content matching the query.
type TextMatch struct {
	Fragment string             `json:"fragment"`
	Matches  []TextMatchSegment `json:"matches,omitempty"`
	Property string             `json:"property,omitempty"`
	Type     string             `json:"type,omitempty"`
}

// CodeSearchResult is a single file returned by gh search code.
type CodeSearchResult struct {
	Path        string               `json:"path"`
	Repository  CodeSearchRepository `json:"repository"`
	SHA         string               `json:"sha"`
	TextMatches []TextMatch          `json:"textMatches"`
	URL         string               `json:"url"`
}

// SearchErrorKind classifies code search failures.
type SearchErrorKind string

// Code search failure kinds.
const (
	SearchErrorRateLimited SearchErrorKind = SearchErrorKind("rate_limited")
	SearchErrorTimedOut    SearchErrorKind = SearchErrorKind("timed_out")
	SearchErrorFailed      SearchErrorKind = SearchErrorKind("failed")
	SearchErrorDecoding    SearchErrorKind = SearchErrorKind("decoding")
)

// SearchError is the single error type surfaced by SearchCode.
type SearchError struct {
	Kind    SearchErrorKind
	Details string
	Cause   error
}

// Error renders a human-readable explanation of the failure.
func (searchError SearchError) Error() string {
	switch searchError.Kind {
	case SearchErrorRateLimited:
		return fmt.Sprintf(searchRateLimitedTemplateConstant, searchError.Details)
	case SearchErrorTimedOut:
		return fmt.Sprintf(searchTimedOutTemplateConstant, searchError.Details)
	case SearchErrorDecoding:
		return fmt.Sprintf(searchDecodingFailedTemplateConstant, searchError.Details)
	default:
		return fmt.Sprintf(searchFailedTemplateConstant, searchError.Details)
	}
}

// Unwrap exposes the underlying cause.
func (searchError SearchError) Unwrap() error {
	return searchError.Cause
}

// BuildCodeSearchArguments renders the gh arguments for the supplied options.
func BuildCodeSearchArguments(options CodeSearchOptions) ([]string, error) {
	query := strings.TrimSpace(options.Query)
	if len(query) == 0 {
		return nil, InvalidInputError{FieldName: queryFieldNameConstant, Message: requiredValueMessageConstant}
	}

	limit := options.Limit
	if limit == 0 {
		limit = defaultCodeSearchResultLimitConstant
	}
	if limit < 0 {
		return nil, InvalidInputError{FieldName: limitFieldNameConstant, Message: positiveValueMessageConstant}
	}

	arguments := []string{searchSubcommandConstant, codeSubcommandConstant, options.Query, limitFlagConstant, strconv.Itoa(limit)}
	arguments = appendOptionalFlag(arguments, languageFlagConstant, options.Language)
	arguments = appendOptionalFlag(arguments, filenameFlagConstant, options.Filename)
	arguments = appendOptionalFlag(arguments, extensionFlagConstant, options.Extension)
	for _, repository := range options.Repositories {
		arguments = appendOptionalFlag(arguments, repoFlagConstant, repository)
	}
	for _, owner := range options.Owners {
		arguments = appendOptionalFlag(arguments, ownerFlagConstant, owner)
	}

	switch options.Match {
	case "":
	case CodeSearchMatchFile, CodeSearchMatchContent:
		arguments = append(arguments, matchFlagConstant, string(options.Match))
	default:
		return nil, InvalidInputError{FieldName: matchFieldNameConstant, Message: fmt.Sprintf(invalidMatchTypeMessageTemplateConstant, options.Match)}
	}

	arguments = appendOptionalFlag(arguments, sizeFlagConstant, options.Size)
	arguments = append(arguments, jsonFlagConstant, codeSearchJSONFieldsConstant)
	return arguments, nil
}

// SearchCode runs gh search code and decodes the results.
func (client *Client) SearchCode(executionContext context.Context, options CodeSearchOptions) ([]CodeSearchResult, error) {
	arguments, argumentsError := BuildCodeSearchArguments(options)
	if argumentsError != nil {
		return nil, argumentsError
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: arguments})
	if executionError != nil {
		return nil, classifySearchFailure(executionError)
	}

	if len(strings.TrimSpace(executionResult.StandardOutput)) == 0 {
		return []CodeSearchResult{}, nil
	}

	var results []CodeSearchResult
	if decodingError := json.Unmarshal([]byte(executionResult.StandardOutput), &results); decodingError != nil {
		return nil, SearchError{
			Kind:    SearchErrorDecoding,
			Details: decodingError.Error(),
			Cause:   ResponseDecodingError{Operation: codeSearchOperationNameConstant, Cause: decodingError},
		}
	}
	if results == nil {
		results = []CodeSearchResult{}
	}
	return results, nil
}

func classifySearchFailure(executionError error) SearchError {
	var failedError execshell.CommandFailedError
	if !errors.As(executionError, &failedError) {
		return SearchError{Kind: SearchErrorFailed, Details: executionError.Error(), Cause: executionError}
	}

	standardError := strings.TrimSpace(failedError.Result.StandardError)
	switch {
	case strings.Contains(standardError, rateLimitStatusMarkerConstant) && strings.Contains(strings.ToLower(standardError), rateLimitPhraseConstant):
		return SearchError{Kind: SearchErrorRateLimited, Details: standardError, Cause: executionError}
	case strings.Contains(standardError, timeoutStatusMarkerConstant):
		return SearchError{Kind: SearchErrorTimedOut, Details: standardError, Cause: executionError}
	default:
		return SearchError{Kind: SearchErrorFailed, Details: standardError, Cause: executionError}
	}
}

func appendOptionalFlag(arguments []string, flagName string, value string) []string {
	if len(strings.TrimSpace(value)) == 0 {
		return arguments
	}
	return append(arguments, flagName, value)
}
