// Package workflowdoc loads GitHub Actions workflow files into an immutable
// tagged tree (mapping, sequence, scalar or null) so rule sets can inspect any
// shape of document without type assertions on untyped YAML values.
package workflowdoc
