package securityaudit

import (
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/workflowdoc"
)

const (
	shapeSkippedLogMessageConstant   = "workflow root is not a mapping; skipping security rules"
	auditCompletedLogMessageConstant = "workflow audited"
	pathLogFieldConstant             = "path"
	findingCountLogFieldConstant     = "findings"
)

// Auditor evaluates the security rules against workflow files.
type Auditor struct {
	logger *zap.Logger
	rules  []Rule
}

// NewAuditor creates an auditor running DefaultRules.
func NewAuditor(logger *zap.Logger) *Auditor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Auditor{logger: logger, rules: DefaultRules()}
}

// AuditFile loads and audits the workflow at path. Missing or malformed files
// produce a single critical document finding. A file whose root is not a
// mapping is reported as skipped with no findings.
func (auditor *Auditor) AuditFile(path string) findings.FileReport {
	source, loadError := workflowdoc.Load(path)
	if loadError != nil {
		var documentError workflowdoc.LoadError
		if errors.As(loadError, &documentError) && documentError.Kind == workflowdoc.LoadErrorShape {
			auditor.logger.Warn(shapeSkippedLogMessageConstant, zap.String(pathLogFieldConstant, path))
			return findings.FileReport{Path: path, Result: findings.EmptyResult(findings.AuditScale), Skipped: true}
		}
		return findings.FileReport{Path: path, Result: loadFailureResult(loadError)}
	}
	return findings.FileReport{Path: path, Result: auditor.AuditSource(source)}
}

// AuditSource runs every rule against an already loaded workflow.
func (auditor *Auditor) AuditSource(source workflowdoc.Source) findings.Result {
	collector := findings.NewCollector(findings.AuditScale)
	if !source.Root.IsMapping() {
		auditor.logger.Warn(shapeSkippedLogMessageConstant, zap.String(pathLogFieldConstant, source.Path))
		return collector.Result()
	}

	for _, rule := range auditor.rules {
		rule.Evaluate(source, collector)
	}

	result := collector.Result()
	auditor.logger.Debug(auditCompletedLogMessageConstant, zap.String(pathLogFieldConstant, source.Path), zap.Int(findingCountLogFieldConstant, result.Summary().Total()))
	return result
}

func loadFailureResult(loadError error) findings.Result {
	collector := findings.NewCollector(findings.AuditScale)
	collector.Record(findings.SeverityCritical, RuleDocument, loadError.Error())
	return collector.Result()
}
