// Package codesearch wraps gh search code with local filtering, stable
// sorting and pretty, summary or JSON rendering of the hits.
package codesearch
