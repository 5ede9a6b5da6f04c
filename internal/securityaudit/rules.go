package securityaudit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/temirov/ghtools/internal/findings"
	"github.com/temirov/ghtools/internal/workflowdoc"
)

// Rule identifiers reported with every finding.
const (
	RulePermissions       = "permissions"
	RuleDangerousTriggers = "dangerous-triggers"
	RuleSecretsExposure   = "secrets-exposure"
	RuleActionSecurity    = "action-security"
	RuleCommandInjection  = "command-injection"
	RuleSelfHostedRunners = "self-hosted-runners"
	RuleDocument          = "document"
)

const (
	permissionsKeyConstant                       = "permissions"
	jobsKeyConstant                              = "jobs"
	stepsKeyConstant                             = "steps"
	runKeyConstant                               = "run"
	usesKeyConstant                              = "uses"
	envKeyConstant                               = "env"
	nameKeyConstant                              = "name"
	runsOnKeyConstant                            = "runs-on"
	writeAllValueConstant                        = "write-all"
	writeValueConstant                           = "write"
	pullRequestTargetTriggerConstant             = "pull_request_target"
	pullRequestTriggerConstant                   = "pull_request"
	workflowRunTriggerConstant                   = "workflow_run"
	selfHostedLabelConstant                      = "self-hosted"
	unnamedStepConstant                          = "unnamed"
	actionVersionSeparatorConstant               = "@"
	actionNamespaceSeparatorConstant             = "/"
	firstPartyActionsNamespaceConstant           = "actions/"
	firstPartyGitHubNamespaceConstant            = "github/"
	writePermissionLabelTemplateConstant         = "%s: write"
	writePermissionListSeparatorConstant         = ", "
	expressionOpeningPatternConstant             = `\$\{\{\s*`
	workflowWriteAllMessageConstant              = "CRITICAL: 'permissions: write-all' grants excessive permissions. This violates principle of least privilege."
	missingPermissionsMessageConstant            = "HIGH: No permissions specified. Workflow uses default permissions which may be excessive. Explicitly set minimal permissions."
	writePermissionsMessageTemplateConstant      = "MEDIUM: Workflow has write permissions: %s. Ensure these are necessary."
	jobWriteAllMessageTemplateConstant           = "CRITICAL: Job '%s' has 'permissions: write-all'"
	pullRequestTargetMessageConstant             = "HIGH: Using 'pull_request_target' trigger. This runs in the context of the base repository with access to secrets. NEVER checkout PR code or run untrusted code with this trigger."
	workflowRunMessageConstant                   = "MEDIUM: Using 'workflow_run' trigger. Ensure you're not exposing secrets to untrusted code."
	hardcodedCredentialMessageTemplateConstant   = "CRITICAL: Possible %s found in workflow file. Never hardcode secrets!"
	secretInRunMessageTemplateConstant           = "MEDIUM: Secret used directly in run command. Consider using environment variables to prevent accidental logging. Step: %s"
	unpinnedActionMessageTemplateConstant        = "HIGH: Action '%s' in job '%s' is not pinned to a version. Always specify a version or commit SHA."
	mutableReferenceMessageTemplateConstant      = "HIGH: Action '%s' uses mutable reference '%s'. Pin to a specific version or commit SHA."
	majorVersionOnlyMessageTemplateConstant      = "LOW: Action '%s' pinned to major version only ('%s'). For maximum security, pin to specific SHA."
	thirdPartyActionMessageTemplateConstant      = "INFO: Using third-party action '%s'. Ensure you trust this publisher and review the code."
	commandInjectionMessageTemplateConstant      = "CRITICAL: Command injection vulnerability in job '%s', step %d. Using '%s' directly in run command. Use environment variables to prevent injection."
	selfHostedPublicMessageTemplateConstant      = "CRITICAL: Job '%s' uses self-hosted runner with public PR trigger. NEVER use self-hosted runners for public repositories or untrusted code!"
	selfHostedPrivateMessageTemplateConstant     = "MEDIUM: Job '%s' uses self-hosted runner. Ensure proper isolation and security measures."
	selfHostedLabelPublicMessageTemplateConstant = "CRITICAL: Job '%s' uses self-hosted runner with public PR trigger!"
	permissionsRuleDescriptionConstant           = "Workflow and job permissions grant more access than needed"
	triggersRuleDescriptionConstant              = "Workflow uses an event trigger that exposes secrets to untrusted code"
	secretsRuleDescriptionConstant               = "Credentials are hardcoded or secrets are interpolated into shell commands"
	actionsRuleDescriptionConstant               = "Action references are unpinned, mutable or from third parties"
	injectionRuleDescriptionConstant             = "Attacker-controlled context is interpolated directly into a shell command"
	selfHostedRuleDescriptionConstant            = "Job runs on a self-hosted runner"
	documentRuleDescriptionConstant              = "Workflow file could not be read or parsed"
)

// Rule is one named security check evaluated against a loaded workflow.
type Rule struct {
	Identifier  string
	Description string
	Evaluate    func(source workflowdoc.Source, collector *findings.Collector)
}

// CredentialPattern flags hardcoded credentials anywhere in the raw workflow text.
type CredentialPattern struct {
	Description string
	Expression  *regexp.Regexp
}

// InjectionContext is an attacker-controllable expression context.
type InjectionContext struct {
	Context    string
	Expression *regexp.Regexp
}

// CredentialPatterns lists the hardcoded credential detectors, evaluated in order.
var CredentialPatterns = []CredentialPattern{
	{Description: "hardcoded password", Expression: regexp.MustCompile(`(?i)password\s*=\s*["'][^"']+["']`)},
	{Description: "hardcoded API key", Expression: regexp.MustCompile(`(?i)api[_-]?key\s*=\s*["'][^"']+["']`)},
	{Description: "hardcoded token", Expression: regexp.MustCompile(`(?i)token\s*=\s*["'][^"']+["']`)},
	{Description: "hardcoded secret", Expression: regexp.MustCompile(`(?i)secret\s*=\s*["'][^"']+["']`)},
	{Description: "GitHub Personal Access Token", Expression: regexp.MustCompile(`(?i)ghp_[a-zA-Z0-9]{36}`)},
	{Description: "AWS Access Key", Expression: regexp.MustCompile(`(?i)AKIA[0-9A-Z]{16}`)},
}

// InjectionContexts lists the contexts that must reach run commands through environment variables.
var InjectionContexts = buildInjectionContexts(
	"github.event.issue.title",
	"github.event.issue.body",
	"github.event.pull_request.title",
	"github.event.pull_request.body",
	"github.event.comment.body",
	"github.event.review.body",
	"github.event.discussion.title",
	"github.event.discussion.body",
	"github.head_ref",
)

var secretReferenceExpression = regexp.MustCompile(`\$\{\{\s*secrets\.\w+\s*\}\}`)

var majorVersionExpression = regexp.MustCompile(`^v?\d+$`)

var mutableReferences = []string{"main", "master", "latest", "develop"}

var auditedWritePermissions = []string{"contents", "packages", "deployments"}

var publicPullRequestTriggers = []string{pullRequestTriggerConstant, pullRequestTargetTriggerConstant}

// DefaultRules returns the security rules in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{Identifier: RulePermissions, Description: permissionsRuleDescriptionConstant, Evaluate: evaluatePermissions},
		{Identifier: RuleDangerousTriggers, Description: triggersRuleDescriptionConstant, Evaluate: evaluateDangerousTriggers},
		{Identifier: RuleSecretsExposure, Description: secretsRuleDescriptionConstant, Evaluate: evaluateSecretsExposure},
		{Identifier: RuleActionSecurity, Description: actionsRuleDescriptionConstant, Evaluate: evaluateActionSecurity},
		{Identifier: RuleCommandInjection, Description: injectionRuleDescriptionConstant, Evaluate: evaluateCommandInjection},
		{Identifier: RuleSelfHostedRunners, Description: selfHostedRuleDescriptionConstant, Evaluate: evaluateSelfHostedRunners},
	}
}

// RuleDescriptors describes every rule, including the document rule used for load failures.
func RuleDescriptors() []findings.RuleDescriptor {
	rules := DefaultRules()
	descriptors := make([]findings.RuleDescriptor, 0, len(rules)+1)
	for _, rule := range rules {
		descriptors = append(descriptors, findings.RuleDescriptor{Identifier: rule.Identifier, Description: rule.Description})
	}
	return append(descriptors, findings.RuleDescriptor{Identifier: RuleDocument, Description: documentRuleDescriptionConstant})
}

func buildInjectionContexts(contexts ...string) []InjectionContext {
	injectionContexts := make([]InjectionContext, 0, len(contexts))
	for _, contextPath := range contexts {
		injectionContexts = append(injectionContexts, InjectionContext{
			Context:    contextPath,
			Expression: regexp.MustCompile(expressionOpeningPatternConstant + regexp.QuoteMeta(contextPath)),
		})
	}
	return injectionContexts
}

func evaluatePermissions(source workflowdoc.Source, collector *findings.Collector) {
	permissions := source.Root.Get(permissionsKeyConstant)

	if permissions.TextEquals(writeAllValueConstant) {
		collector.Record(findings.SeverityCritical, RulePermissions, workflowWriteAllMessageConstant)
	}

	if permissions.IsNull() {
		collector.Record(findings.SeverityHigh, RulePermissions, missingPermissionsMessageConstant)
	}

	if permissions.IsMapping() {
		var writePermissions []string
		for _, scope := range auditedWritePermissions {
			if permissions.Get(scope).TextEquals(writeValueConstant) {
				writePermissions = append(writePermissions, fmt.Sprintf(writePermissionLabelTemplateConstant, scope))
			}
		}
		if len(writePermissions) > 0 {
			collector.Record(findings.SeverityMedium, RulePermissions, fmt.Sprintf(writePermissionsMessageTemplateConstant, strings.Join(writePermissions, writePermissionListSeparatorConstant)))
		}
	}

	for _, job := range source.Root.Get(jobsKeyConstant).Entries() {
		if job.Value.Get(permissionsKeyConstant).TextEquals(writeAllValueConstant) {
			collector.Record(findings.SeverityCritical, RulePermissions, fmt.Sprintf(jobWriteAllMessageTemplateConstant, job.Key))
		}
	}
}

func evaluateDangerousTriggers(source workflowdoc.Source, collector *findings.Collector) {
	triggers := workflowdoc.NormalizeTriggers(source.Root)

	if triggers.Contains(pullRequestTargetTriggerConstant) {
		collector.Record(findings.SeverityHigh, RuleDangerousTriggers, pullRequestTargetMessageConstant)
	}

	if triggers.Contains(workflowRunTriggerConstant) {
		collector.Record(findings.SeverityMedium, RuleDangerousTriggers, workflowRunMessageConstant)
	}
}

func evaluateSecretsExposure(source workflowdoc.Source, collector *findings.Collector) {
	for _, pattern := range CredentialPatterns {
		if pattern.Expression.MatchString(source.Content) {
			collector.Record(findings.SeverityCritical, RuleSecretsExposure, fmt.Sprintf(hardcodedCredentialMessageTemplateConstant, pattern.Description))
		}
	}

	for _, job := range source.Root.Get(jobsKeyConstant).Entries() {
		for _, step := range job.Value.Get(stepsKeyConstant).Items() {
			if !step.IsMapping() {
				continue
			}

			secretReferences := secretReferenceExpression.FindAllString(step.Get(runKeyConstant).Text(), -1)
			if len(secretReferences) == 0 || referencesDeclaredInEnvironment(step, secretReferences) {
				continue
			}

			stepName := unnamedStepConstant
			if nameNode, hasName := step.Lookup(nameKeyConstant); hasName && nameNode.IsScalar() {
				stepName = nameNode.Text()
			}
			collector.Record(findings.SeverityMedium, RuleSecretsExposure, fmt.Sprintf(secretInRunMessageTemplateConstant, stepName))
		}
	}
}

func referencesDeclaredInEnvironment(step workflowdoc.Node, references []string) bool {
	environmentValues := step.Get(envKeyConstant).Entries()
	for _, reference := range references {
		declared := false
		for _, environmentEntry := range environmentValues {
			if strings.Contains(environmentEntry.Value.Text(), reference) {
				declared = true
				break
			}
		}
		if !declared {
			return false
		}
	}
	return true
}

func evaluateActionSecurity(source workflowdoc.Source, collector *findings.Collector) {
	for _, job := range source.Root.Get(jobsKeyConstant).Entries() {
		for _, step := range job.Value.Get(stepsKeyConstant).Items() {
			reference := step.Get(usesKeyConstant).Text()
			if len(reference) == 0 {
				continue
			}

			separatorIndex := strings.LastIndex(reference, actionVersionSeparatorConstant)
			if separatorIndex < 0 {
				collector.Record(findings.SeverityHigh, RuleActionSecurity, fmt.Sprintf(unpinnedActionMessageTemplateConstant, reference, job.Key))
				continue
			}

			action := reference[:separatorIndex]
			version := reference[separatorIndex+1:]

			if isMutableReference(version) {
				collector.Record(findings.SeverityHigh, RuleActionSecurity, fmt.Sprintf(mutableReferenceMessageTemplateConstant, action, version))
			}

			if majorVersionExpression.MatchString(version) {
				collector.Record(findings.SeverityLow, RuleActionSecurity, fmt.Sprintf(majorVersionOnlyMessageTemplateConstant, action, version))
			}

			if isThirdPartyAction(action) {
				collector.Record(findings.SeverityLow, RuleActionSecurity, fmt.Sprintf(thirdPartyActionMessageTemplateConstant, action))
			}
		}
	}
}

func isMutableReference(version string) bool {
	for _, mutableReference := range mutableReferences {
		if version == mutableReference {
			return true
		}
	}
	return false
}

func isThirdPartyAction(action string) bool {
	if strings.HasPrefix(action, firstPartyActionsNamespaceConstant) || strings.HasPrefix(action, firstPartyGitHubNamespaceConstant) {
		return false
	}
	return strings.Contains(action, actionNamespaceSeparatorConstant)
}

func evaluateCommandInjection(source workflowdoc.Source, collector *findings.Collector) {
	for _, job := range source.Root.Get(jobsKeyConstant).Entries() {
		for stepIndex, step := range job.Value.Get(stepsKeyConstant).Items() {
			runCommand := step.Get(runKeyConstant).Text()
			if len(runCommand) == 0 {
				continue
			}

			environmentValues := step.Get(envKeyConstant).Entries()
			for _, injectionContext := range InjectionContexts {
				if !injectionContext.Expression.MatchString(runCommand) {
					continue
				}
				if environmentReferencesContext(environmentValues, injectionContext) {
					continue
				}
				collector.Record(findings.SeverityCritical, RuleCommandInjection, fmt.Sprintf(commandInjectionMessageTemplateConstant, job.Key, stepIndex, injectionContext.Context))
			}
		}
	}
}

func environmentReferencesContext(environmentValues []workflowdoc.Entry, injectionContext InjectionContext) bool {
	for _, environmentEntry := range environmentValues {
		if injectionContext.Expression.MatchString(environmentEntry.Value.Text()) {
			return true
		}
	}
	return false
}

func evaluateSelfHostedRunners(source workflowdoc.Source, collector *findings.Collector) {
	triggers := workflowdoc.NormalizeTriggers(source.Root)
	runsOnPublicPullRequests := false
	for _, trigger := range publicPullRequestTriggers {
		if triggers.Contains(trigger) {
			runsOnPublicPullRequests = true
		}
	}

	for _, job := range source.Root.Get(jobsKeyConstant).Entries() {
		runsOn := job.Value.Get(runsOnKeyConstant)

		switch {
		case runsOn.IsString() && strings.Contains(runsOn.Text(), selfHostedLabelConstant):
			if runsOnPublicPullRequests {
				collector.Record(findings.SeverityCritical, RuleSelfHostedRunners, fmt.Sprintf(selfHostedPublicMessageTemplateConstant, job.Key))
			} else {
				collector.Record(findings.SeverityMedium, RuleSelfHostedRunners, fmt.Sprintf(selfHostedPrivateMessageTemplateConstant, job.Key))
			}
		case runsOn.IsSequence() && runsOn.ContainsText(selfHostedLabelConstant) && runsOnPublicPullRequests:
			collector.Record(findings.SeverityCritical, RuleSelfHostedRunners, fmt.Sprintf(selfHostedLabelPublicMessageTemplateConstant, job.Key))
		}
	}
}
