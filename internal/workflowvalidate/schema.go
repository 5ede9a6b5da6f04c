package workflowvalidate

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/workflowdoc"
)

const (
	schemaResourceNameConstant          = "workflow.schema.json"
	schemaRootLocationConstant          = "/"
	schemaFindingTemplateConstant       = "Schema: %s: %s"
	schemaResourceErrorTemplateConstant = "failed to add workflow schema resource: %w"
	schemaCompileErrorTemplateConstant  = "failed to compile workflow schema: %w"
)

//go:embed schema/workflow.schema.json
var embeddedWorkflowSchema []byte

// SchemaChecker validates workflow structure against the embedded JSON schema.
type SchemaChecker struct {
	schema *jsonschema.Schema
}

// NewSchemaChecker compiles the embedded workflow schema.
func NewSchemaChecker() (*SchemaChecker, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if resourceError := compiler.AddResource(schemaResourceNameConstant, bytes.NewReader(embeddedWorkflowSchema)); resourceError != nil {
		return nil, fmt.Errorf(schemaResourceErrorTemplateConstant, resourceError)
	}
	schema, compileError := compiler.Compile(schemaResourceNameConstant)
	if compileError != nil {
		return nil, fmt.Errorf(schemaCompileErrorTemplateConstant, compileError)
	}
	return &SchemaChecker{schema: schema}, nil
}

// Check records one error per leaf schema violation, ordered by instance location.
func (checker *SchemaChecker) Check(source workflowdoc.Source, collector *findings.Collector) {
	if checker == nil {
		return
	}

	validationError := checker.schema.Validate(workflowdoc.PlainValue(source.Root))
	if validationError == nil {
		return
	}

	var schemaError *jsonschema.ValidationError
	if !errors.As(validationError, &schemaError) {
		collector.Record(findings.SeverityError, RuleSchema, fmt.Sprintf(schemaFindingTemplateConstant, schemaRootLocationConstant, validationError.Error()))
		return
	}

	leaves := collectLeafViolations(schemaError, nil)
	sort.SliceStable(leaves, func(first int, second int) bool {
		return leaves[first].InstanceLocation < leaves[second].InstanceLocation
	})
	for _, leaf := range leaves {
		location := leaf.InstanceLocation
		if len(location) == 0 {
			location = schemaRootLocationConstant
		}
		collector.Record(findings.SeverityError, RuleSchema, fmt.Sprintf(schemaFindingTemplateConstant, location, leaf.Message))
	}
}

func collectLeafViolations(validationError *jsonschema.ValidationError, leaves []*jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(validationError.Causes) == 0 {
		return append(leaves, validationError)
	}
	for _, cause := range validationError.Causes {
		leaves = collectLeafViolations(cause, leaves)
	}
	return leaves
}
