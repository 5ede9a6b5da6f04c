// Package workflowvalidate checks GitHub Actions workflows for structural
// mistakes and missed best practices.
//
// Findings use the error/warning/info scale. A batch fails when any file
// has errors, or warnings in strict mode. The optional schema check compiles
// an embedded draft 2020-12 schema with santhosh-tekuri/jsonschema.
package workflowvalidate
