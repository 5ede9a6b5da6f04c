// Package failedrun inspects the most recent failed GitHub Actions run and
// reports its failed jobs with error lines pulled from their logs.
package failedrun
