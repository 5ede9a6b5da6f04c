// Package pages manages GitHub Pages sites through gh api and writes a
// starter deployment workflow.
package pages
