// Package cli assembles the ghtools command tree. It loads configuration
// from embedded defaults, an optional file and GHTOOLS_ environment
// variables, builds the zap logger and registers the search, failed-run,
// pages, audit and validate commands.
package cli
