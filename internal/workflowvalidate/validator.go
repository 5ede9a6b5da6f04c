package workflowvalidate

import (
	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/workflowdoc"
)

const (
	validationCompletedLogMessageConstant = "workflow validated"
	pathLogFieldConstant                  = "path"
	errorCountLogFieldConstant            = "errors"
)

// Validator evaluates the validation rules against workflow files.
type Validator struct {
	logger *zap.Logger
	rules  []Rule
	schema *SchemaChecker
}

// NewValidator creates a validator running DefaultRules. A non-nil schema
// checker adds structural schema findings after the rules.
func NewValidator(logger *zap.Logger, schema *SchemaChecker) *Validator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Validator{logger: logger, rules: DefaultRules(), schema: schema}
}

// ValidateFile loads and validates the workflow at path. Missing, malformed
// and non-mapping files produce a single document error.
func (validator *Validator) ValidateFile(path string) findings.FileReport {
	source, loadError := workflowdoc.Load(path)
	if loadError != nil {
		collector := findings.NewCollector(findings.ValidationScale)
		collector.Record(findings.SeverityError, RuleDocument, loadError.Error())
		return findings.FileReport{Path: path, Result: collector.Result()}
	}
	return findings.FileReport{Path: path, Result: validator.ValidateSource(source)}
}

// ValidateSource runs every rule against an already loaded workflow.
func (validator *Validator) ValidateSource(source workflowdoc.Source) findings.Result {
	collector := findings.NewCollector(findings.ValidationScale)
	if !source.Root.IsMapping() {
		collector.Record(findings.SeverityError, RuleDocument, workflowdoc.LoadError{Kind: workflowdoc.LoadErrorShape, Path: source.Path}.Error())
		return collector.Result()
	}

	for _, rule := range validator.rules {
		rule.Evaluate(source, collector)
	}
	validator.schema.Check(source, collector)

	result := collector.Result()
	validator.logger.Debug(validationCompletedLogMessageConstant, zap.String(pathLogFieldConstant, source.Path), zap.Int(errorCountLogFieldConstant, result.Summary().Count(findings.SeverityError)))
	return result
}
