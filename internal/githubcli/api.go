package githubcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/temirov/ghtools/internal/execshell"
)

const (
	apiSubcommandConstant           = "api"
	methodFlagConstant              = "-X"
	headerFlagConstant              = "-H"
	rawFieldFlagConstant            = "-f"
	typedFieldFlagConstant          = "-F"
	acceptHeaderConstant            = "Accept: application/vnd.github+json"
	apiVersionHeaderConstant        = "X-GitHub-Api-Version: 2022-11-28"
	defaultAPIMethodConstant        = "GET"
	rawResponseKeyConstant          = "raw"
	endpointFieldNameConstant       = "endpoint"
	fieldAssignmentTemplateConstant = "%s=%s"
	nestedFieldNameTemplateConstant = "%s[%s]"
	callAPIOperationNameConstant    = OperationName("CallAPI")
	httpStatusPatternConstant       = `HTTP (\d{3})`
)

var httpStatusPattern = regexp.MustCompile(httpStatusPatternConstant)

// APIField is a single request field passed to gh api.
type APIField struct {
	Name string
	// Subkey renders the field as Name[Subkey] for nested objects.
	Subkey string
	Value  string
	// Typed fields are sent with -F so gh converts booleans and numbers.
	Typed bool
}

// StringField builds a raw string field.
func StringField(name string, value string) APIField {
	return APIField{Name: name, Value: value}
}

// NestedField builds a raw string field nested under name.
func NestedField(name string, subkey string, value string) APIField {
	return APIField{Name: name, Subkey: subkey, Value: value}
}

// BoolField builds a typed boolean field.
func BoolField(name string, value bool) APIField {
	return APIField{Name: name, Value: strconv.FormatBool(value), Typed: true}
}

// APIRequest describes a gh api invocation.
type APIRequest struct {
	Method   string
	Endpoint string
	Fields   []APIField
}

// APIResponse captures the outcome of a gh api invocation.
type APIResponse struct {
	Succeeded bool
	ExitCode  int
	// StatusCode is the HTTP status reported by gh on failure, zero when unknown.
	StatusCode    int
	Body          map[string]any
	StandardError string
}

// StringValue returns the string stored at key or the fallback.
func (response APIResponse) StringValue(key string, fallback string) string {
	return lookupString(response.Body, key, fallback)
}

// NestedStringValue returns the string stored at parent.key or the fallback.
func (response APIResponse) NestedStringValue(parent string, key string, fallback string) string {
	nested, isMapping := response.Body[parent].(map[string]any)
	if !isMapping {
		return fallback
	}
	return lookupString(nested, key, fallback)
}

// BoolValue returns the boolean stored at key or false.
func (response APIResponse) BoolValue(key string) bool {
	value, isBool := response.Body[key].(bool)
	return isBool && value
}

// HasKey reports whether the body carries key.
func (response APIResponse) HasKey(key string) bool {
	_, present := response.Body[key]
	return present
}

// BuildAPIArguments renders the gh api arguments for a request.
func BuildAPIArguments(request APIRequest) ([]string, error) {
	endpoint := strings.TrimSpace(request.Endpoint)
	if len(endpoint) == 0 {
		return nil, InvalidInputError{FieldName: endpointFieldNameConstant, Message: requiredValueMessageConstant}
	}

	method := strings.ToUpper(strings.TrimSpace(request.Method))
	if len(method) == 0 {
		method = defaultAPIMethodConstant
	}

	arguments := []string{
		apiSubcommandConstant,
		methodFlagConstant, method,
		headerFlagConstant, acceptHeaderConstant,
		headerFlagConstant, apiVersionHeaderConstant,
		endpoint,
	}

	for _, field := range request.Fields {
		fieldName := field.Name
		if len(field.Subkey) > 0 {
			fieldName = fmt.Sprintf(nestedFieldNameTemplateConstant, field.Name, field.Subkey)
		}
		flag := rawFieldFlagConstant
		if field.Typed {
			flag = typedFieldFlagConstant
		}
		arguments = append(arguments, flag, fmt.Sprintf(fieldAssignmentTemplateConstant, fieldName, field.Value))
	}

	return arguments, nil
}

// CallAPI executes gh api. Non-zero exits are reported through the response;
// only input validation, launch failures and cancellation produce errors.
func (client *Client) CallAPI(executionContext context.Context, request APIRequest) (APIResponse, error) {
	arguments, argumentsError := BuildAPIArguments(request)
	if argumentsError != nil {
		return APIResponse{}, argumentsError
	}

	executionResult, executionError := client.executor.ExecuteGitHubCLI(executionContext, execshell.CommandDetails{Arguments: arguments})
	if executionError != nil {
		var failedError execshell.CommandFailedError
		if !errors.As(executionError, &failedError) {
			return APIResponse{}, OperationError{Operation: callAPIOperationNameConstant, Cause: executionError}
		}
		return APIResponse{
			ExitCode:      failedError.Result.ExitCode,
			StatusCode:    parseHTTPStatus(failedError.Result.StandardError),
			Body:          decodeAPIBody(failedError.Result.StandardOutput),
			StandardError: failedError.Result.StandardError,
		}, nil
	}

	return APIResponse{
		Succeeded:     true,
		ExitCode:      executionResult.ExitCode,
		Body:          decodeAPIBody(executionResult.StandardOutput),
		StandardError: executionResult.StandardError,
	}, nil
}

func decodeAPIBody(standardOutput string) map[string]any {
	if len(strings.TrimSpace(standardOutput)) == 0 {
		return map[string]any{}
	}
	var body map[string]any
	if decodingError := json.Unmarshal([]byte(standardOutput), &body); decodingError != nil || body == nil {
		return map[string]any{rawResponseKeyConstant: standardOutput}
	}
	return body
}

func parseHTTPStatus(standardError string) int {
	match := httpStatusPattern.FindStringSubmatch(standardError)
	if len(match) < 2 {
		return 0
	}
	statusCode, conversionError := strconv.Atoi(match[1])
	if conversionError != nil {
		return 0
	}
	return statusCode
}

func lookupString(values map[string]any, key string, fallback string) string {
	value, present := values[key]
	if !present || value == nil {
		return fallback
	}
	switch typed := value.(type) {
	case string:
		return typed
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprint(typed)
	}
}
