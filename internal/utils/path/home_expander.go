// Package pathutils normalizes user supplied filesystem paths from flags and configuration.
package pathutils

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
)

const homeShortcutConstant = "~"

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// HomeExpander rewrites "~" prefixed paths relative to the user's home directory.
// The home directory is looked up once.
type HomeExpander struct {
	lookup   HomeDirectoryProvider
	once     sync.Once
	resolved string
}

// NewHomeExpander looks up the home directory through os.UserHomeDir.
func NewHomeExpander() *HomeExpander {
	return NewHomeExpanderWithProvider(nil)
}

// NewHomeExpanderWithProvider uses provider for the lookup, falling back to os.UserHomeDir when nil.
func NewHomeExpanderWithProvider(provider HomeDirectoryProvider) *HomeExpander {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return &HomeExpander{lookup: provider}
}

// Expand returns candidatePath with a leading "~" or "~/" replaced by the home
// directory. Other paths, including "~user", come back unchanged.
func (expander *HomeExpander) Expand(candidatePath string) string {
	if expander == nil || !strings.HasPrefix(candidatePath, homeShortcutConstant) {
		return candidatePath
	}

	remainder := strings.TrimPrefix(candidatePath, homeShortcutConstant)
	if len(remainder) > 0 && remainder[0] != '/' && remainder[0] != os.PathSeparator {
		return candidatePath
	}

	homeDirectory := expander.homeDirectory()
	if len(homeDirectory) == 0 {
		return candidatePath
	}
	return filepath.Join(homeDirectory, remainder)
}

// ExpandAll trims each path, drops blanks and expands the rest. It returns nil
// when nothing remains.
func (expander *HomeExpander) ExpandAll(candidatePaths []string) []string {
	var expanded []string
	for _, candidatePath := range candidatePaths {
		trimmedPath := strings.TrimSpace(candidatePath)
		if len(trimmedPath) == 0 {
			continue
		}
		expanded = append(expanded, expander.Expand(trimmedPath))
	}
	return expanded
}

func (expander *HomeExpander) homeDirectory() string {
	expander.once.Do(func() {
		directory, lookupError := expander.lookup()
		if lookupError == nil {
			expander.resolved = directory
		}
	})
	return expander.resolved
}
