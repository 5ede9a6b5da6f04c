package workflowvalidate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/workflowdoc"
)

// Rule identifiers reported with every finding.
const (
	RuleRequiredFields = "required-fields"
	RulePermissions    = "permissions"
	RuleTriggers       = "triggers"
	RuleJobs           = "jobs"
	RuleBestPractices  = "best-practices"
	RuleSchema         = "schema"
	RuleDocument       = "document"
)

const (
	onKeyConstant                               = "on"
	jobsKeyConstant                             = "jobs"
	nameKeyConstant                             = "name"
	permissionsKeyConstant                      = "permissions"
	concurrencyKeyConstant                      = "concurrency"
	pathsKeyConstant                            = "paths"
	pathsIgnoreKeyConstant                      = "paths-ignore"
	runsOnKeyConstant                           = "runs-on"
	stepsKeyConstant                            = "steps"
	usesKeyConstant                             = "uses"
	runKeyConstant                              = "run"
	withKeyConstant                             = "with"
	cacheKeyConstant                            = "cache"
	timeoutMinutesKeyConstant                   = "timeout-minutes"
	contentsPermissionConstant                  = "contents"
	idTokenPermissionConstant                   = "id-token"
	writeAllValueConstant                       = "write-all"
	writeValueConstant                          = "write"
	pushTriggerConstant                         = "push"
	pullRequestTriggerConstant                  = "pull_request"
	pullRequestTargetTriggerConstant            = "pull_request_target"
	setupNodeActionConstant                     = "actions/setup-node"
	cacheActionConstant                         = "actions/cache"
	actionVersionSeparatorConstant              = "@"
	expressionOpeningPatternConstant            = `\$\{\{\s*`
	missingTriggersMessageConstant              = "Missing required field: 'on' (workflow triggers)"
	emptyTriggersMessageConstant                = "Workflow must declare at least one trigger in 'on'"
	missingJobsMessageConstant                  = "Missing required field: 'jobs'"
	emptyJobsMessageConstant                    = "Workflow must define at least one job"
	missingNameMessageConstant                  = "Consider adding 'name' field for better readability"
	missingPermissionsMessageConstant           = "No 'permissions' set - using defaults. Consider setting minimal permissions explicitly for security."
	writeAllPermissionsMessageConstant          = "Security: 'permissions: write-all' is dangerous. Use minimal permissions instead."
	contentsWriteMessageConstant                = "Using 'contents: write' - ensure this is necessary"
	idTokenWriteMessageConstant                 = "Good: Using OIDC with 'id-token: write'"
	pullRequestTargetMessageConstant            = "Security: 'pull_request_target' can be dangerous. Ensure you're not checking out PR code or exposing secrets."
	missingConcurrencyMessageConstant           = "Consider adding 'concurrency' to cancel stale workflow runs"
	missingPathFiltersMessageConstant           = "Consider using 'paths' or 'paths-ignore' filters to avoid unnecessary workflow runs"
	jobNotObjectMessageTemplateConstant         = "Job '%s': must be an object"
	jobMissingRunsOnMessageTemplateConstant     = "Job '%s': missing 'runs-on'"
	jobMissingBodyMessageTemplateConstant       = "Job '%s': must have either 'steps' or 'uses' (for reusable workflows)"
	jobMissingTimeoutMessageTemplateConstant    = "Job '%s': no timeout set. Consider adding 'timeout-minutes' to prevent hung jobs"
	jobWithoutStepsMessageTemplateConstant      = "Job '%s': has no steps"
	jobStepsNotListMessageTemplateConstant      = "Job '%s': 'steps' must be a list"
	stepNotObjectMessageTemplateConstant        = "Job '%s', step %d: must be an object"
	stepMissingActionMessageTemplateConstant    = "Job '%s', step %d: must have either 'run' or 'uses'"
	stepUnversionedMessageTemplateConstant      = "Job '%s', step %d: Action '%s' must specify a version (e.g., @v4 or @SHA)"
	stepFloatingTagMessageTemplateConstant      = "Job '%s', step %d: Action '%s' uses floating tag '%s'. Consider pinning to a specific version or SHA"
	stepCommandInjectionMessageTemplateConstant = "Job '%s', step %d: Potential command injection using '%s'. Use environment variables instead of direct interpolation"
	missingCacheMessageConstant                 = "Consider enabling caching in actions/setup-node or adding actions/cache for faster dependency installation"
	requiredFieldsRuleDescriptionConstant       = "Workflow declares triggers, jobs and a name"
	permissionsRuleDescriptionConstant          = "Workflow sets explicit, minimal permissions"
	triggersRuleDescriptionConstant             = "Workflow triggers are safe and filtered"
	jobsRuleDescriptionConstant                 = "Jobs and steps are well formed and pin their actions"
	bestPracticesRuleDescriptionConstant        = "Workflow follows dependency caching practices"
	schemaRuleDescriptionConstant               = "Workflow matches the structural workflow schema"
	documentRuleDescriptionConstant             = "Workflow file could not be read or parsed"
)

// Rule is one named validation check evaluated against a loaded workflow.
type Rule struct {
	Identifier  string
	Description string
	Evaluate    func(source workflowdoc.Source, collector *findings.Collector)
}

// InjectionPattern is an expression context that should not be interpolated into run commands.
type InjectionPattern struct {
	Context    string
	Expression *regexp.Regexp
}

// InjectionPatterns lists the contexts flagged inside run commands.
var InjectionPatterns = buildInjectionPatterns(
	"github.event.issue.title",
	"github.event.issue.body",
	"github.event.pull_request.title",
	"github.event.pull_request.body",
	"github.event.comment.body",
	"github.head_ref",
)

var floatingTags = []string{"main", "master", "latest"}

// DefaultRules returns the validation rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Identifier: RuleRequiredFields, Description: requiredFieldsRuleDescriptionConstant, Evaluate: evaluateRequiredFields},
		{Identifier: RulePermissions, Description: permissionsRuleDescriptionConstant, Evaluate: evaluatePermissions},
		{Identifier: RuleTriggers, Description: triggersRuleDescriptionConstant, Evaluate: evaluateTriggers},
		{Identifier: RuleJobs, Description: jobsRuleDescriptionConstant, Evaluate: evaluateJobs},
		{Identifier: RuleBestPractices, Description: bestPracticesRuleDescriptionConstant, Evaluate: evaluateBestPractices},
	}
}

// RuleDescriptors describes every rule, including the schema and document rules.
func RuleDescriptors() []findings.RuleDescriptor {
	rules := DefaultRules()
	descriptors := make([]findings.RuleDescriptor, 0, len(rules)+2)
	for _, rule := range rules {
		descriptors = append(descriptors, findings.RuleDescriptor{Identifier: rule.Identifier, Description: rule.Description})
	}
	return append(descriptors,
		findings.RuleDescriptor{Identifier: RuleSchema, Description: schemaRuleDescriptionConstant},
		findings.RuleDescriptor{Identifier: RuleDocument, Description: documentRuleDescriptionConstant},
	)
}

func buildInjectionPatterns(contexts ...string) []InjectionPattern {
	patterns := make([]InjectionPattern, 0, len(contexts))
	for _, contextPath := range contexts {
		patterns = append(patterns, InjectionPattern{
			Context:    contextPath,
			Expression: regexp.MustCompile(expressionOpeningPatternConstant + regexp.QuoteMeta(contextPath)),
		})
	}
	return patterns
}

func evaluateRequiredFields(source workflowdoc.Source, collector *findings.Collector) {
	root := source.Root

	if !root.ContainsKey(onKeyConstant) {
		collector.Record(findings.SeverityError, RuleRequiredFields, missingTriggersMessageConstant)
	} else if workflowdoc.NormalizeTriggers(root).IsEmpty() {
		collector.Record(findings.SeverityError, RuleRequiredFields, emptyTriggersMessageConstant)
	}

	if jobs, hasJobs := root.Lookup(jobsKeyConstant); !hasJobs {
		collector.Record(findings.SeverityError, RuleRequiredFields, missingJobsMessageConstant)
	} else if !jobs.Truthy() {
		collector.Record(findings.SeverityError, RuleRequiredFields, emptyJobsMessageConstant)
	}

	if !root.ContainsKey(nameKeyConstant) {
		collector.Record(findings.SeverityWarning, RuleRequiredFields, missingNameMessageConstant)
	}
}

func evaluatePermissions(source workflowdoc.Source, collector *findings.Collector) {
	permissions, hasPermissions := source.Root.Lookup(permissionsKeyConstant)
	if !hasPermissions {
		collector.Record(findings.SeverityWarning, RulePermissions, missingPermissionsMessageConstant)
		return
	}

	if permissions.TextEquals(writeAllValueConstant) {
		collector.Record(findings.SeverityError, RulePermissions, writeAllPermissionsMessageConstant)
	}

	if permissions.IsMapping() {
		if permissions.Get(contentsPermissionConstant).TextEquals(writeValueConstant) {
			collector.Record(findings.SeverityInfo, RulePermissions, contentsWriteMessageConstant)
		}
		if permissions.Get(idTokenPermissionConstant).TextEquals(writeValueConstant) {
			collector.Record(findings.SeverityInfo, RulePermissions, idTokenWriteMessageConstant)
		}
	}
}

func evaluateTriggers(source workflowdoc.Source, collector *findings.Collector) {
	triggers := workflowdoc.NormalizeTriggers(source.Root)

	if triggers.Contains(pullRequestTargetTriggerConstant) {
		collector.Record(findings.SeverityWarning, RuleTriggers, pullRequestTargetMessageConstant)
	}

	if (triggers.Contains(pushTriggerConstant) || triggers.Contains(pullRequestTriggerConstant)) && !source.Root.ContainsKey(concurrencyKeyConstant) {
		collector.Record(findings.SeverityInfo, RuleTriggers, missingConcurrencyMessageConstant)
	}

	pushConfiguration := triggers.Config(pushTriggerConstant)
	if pushConfiguration.IsMapping() && !pushConfiguration.ContainsKey(pathsKeyConstant) && !pushConfiguration.ContainsKey(pathsIgnoreKeyConstant) {
		collector.Record(findings.SeverityInfo, RuleTriggers, missingPathFiltersMessageConstant)
	}
}

func evaluateJobs(source workflowdoc.Source, collector *findings.Collector) {
	for _, job := range source.Root.Get(jobsKeyConstant).Entries() {
		evaluateJob(job.Key, job.Value, collector)
	}
}

func evaluateJob(jobIdentifier string, job workflowdoc.Node, collector *findings.Collector) {
	if !job.IsMapping() {
		collector.Record(findings.SeverityError, RuleJobs, fmt.Sprintf(jobNotObjectMessageTemplateConstant, jobIdentifier))
		return
	}

	if !job.ContainsKey(runsOnKeyConstant) {
		collector.Record(findings.SeverityError, RuleJobs, fmt.Sprintf(jobMissingRunsOnMessageTemplateConstant, jobIdentifier))
	}

	if !job.ContainsKey(stepsKeyConstant) && !job.ContainsKey(usesKeyConstant) {
		collector.Record(findings.SeverityError, RuleJobs, fmt.Sprintf(jobMissingBodyMessageTemplateConstant, jobIdentifier))
	}

	if !job.ContainsKey(timeoutMinutesKeyConstant) {
		collector.Record(findings.SeverityWarning, RuleJobs, fmt.Sprintf(jobMissingTimeoutMessageTemplateConstant, jobIdentifier))
	}

	if steps, hasSteps := job.Lookup(stepsKeyConstant); hasSteps {
		evaluateSteps(jobIdentifier, steps, collector)
	}
}

func evaluateSteps(jobIdentifier string, steps workflowdoc.Node, collector *findings.Collector) {
	if !steps.Truthy() {
		collector.Record(findings.SeverityWarning, RuleJobs, fmt.Sprintf(jobWithoutStepsMessageTemplateConstant, jobIdentifier))
		return
	}
	if !steps.IsSequence() {
		collector.Record(findings.SeverityError, RuleJobs, fmt.Sprintf(jobStepsNotListMessageTemplateConstant, jobIdentifier))
		return
	}

	for stepIndex, step := range steps.Items() {
		if !step.IsMapping() {
			collector.Record(findings.SeverityError, RuleJobs, fmt.Sprintf(stepNotObjectMessageTemplateConstant, jobIdentifier, stepIndex))
			continue
		}

		if !step.ContainsKey(runKeyConstant) && !step.ContainsKey(usesKeyConstant) {
			collector.Record(findings.SeverityError, RuleJobs, fmt.Sprintf(stepMissingActionMessageTemplateConstant, jobIdentifier, stepIndex))
		}

		if uses, hasUses := step.Lookup(usesKeyConstant); hasUses {
			evaluateActionVersion(jobIdentifier, stepIndex, uses.Text(), collector)
		}

		if run, hasRun := step.Lookup(runKeyConstant); hasRun {
			evaluateCommandInjection(jobIdentifier, stepIndex, run.Text(), collector)
		}
	}
}

func evaluateActionVersion(jobIdentifier string, stepIndex int, reference string, collector *findings.Collector) {
	separatorIndex := strings.LastIndex(reference, actionVersionSeparatorConstant)
	if separatorIndex < 0 {
		collector.Record(findings.SeverityError, RuleJobs, fmt.Sprintf(stepUnversionedMessageTemplateConstant, jobIdentifier, stepIndex, reference))
		return
	}

	action := reference[:separatorIndex]
	version := reference[separatorIndex+1:]
	for _, floatingTag := range floatingTags {
		if version == floatingTag {
			collector.Record(findings.SeverityWarning, RuleJobs, fmt.Sprintf(stepFloatingTagMessageTemplateConstant, jobIdentifier, stepIndex, action, version))
			return
		}
	}
}

func evaluateCommandInjection(jobIdentifier string, stepIndex int, runCommand string, collector *findings.Collector) {
	for _, pattern := range InjectionPatterns {
		if pattern.Expression.MatchString(runCommand) {
			collector.Record(findings.SeverityWarning, RuleJobs, fmt.Sprintf(stepCommandInjectionMessageTemplateConstant, jobIdentifier, stepIndex, pattern.Context))
		}
	}
}

func evaluateBestPractices(source workflowdoc.Source, collector *findings.Collector) {
	hasSetupNode := false
	hasCache := false

	for _, job := range source.Root.Get(jobsKeyConstant).Entries() {
		for _, step := range job.Value.Get(stepsKeyConstant).Items() {
			uses := step.Get(usesKeyConstant).Text()
			if strings.Contains(uses, setupNodeActionConstant) {
				hasSetupNode = true
				if step.Get(withKeyConstant).Get(cacheKeyConstant).Truthy() {
					hasCache = true
				}
			}
			if strings.Contains(uses, cacheActionConstant) {
				hasCache = true
			}
		}
	}

	if hasSetupNode && !hasCache {
		collector.Record(findings.SeverityInfo, RuleBestPractices, missingCacheMessageConstant)
	}
}
