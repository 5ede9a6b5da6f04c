// Package securityaudit checks GitHub Actions workflows for security issues.
//
// Rules are evaluated in a fixed order against a workflowdoc.Source and
// record findings on the critical/high/medium/low scale. Service drives a
// batch of files, prints each report and decides pass or fail against the
// configured threshold.
package securityaudit
