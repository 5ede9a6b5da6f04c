// Package findings models classified rule observations.
//
// A Collector is created for every checked document and frozen into an
// immutable Result holding the ordered findings and their Summary. Results
// render as grouped text sections, a JSON batch document or a SARIF log.
package findings
