package workflowdoc

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	yamlExtensionConstant              = ".yaml"
	ymlExtensionConstant               = ".yml"
	walkDirectoryErrorTemplateConstant = "unable to scan workflow directory %s: %w"
)

// DiscoverWorkflowFiles expands directory arguments into the YAML files they
// contain, recursively and in lexical order. Other arguments, including paths
// that do not exist, pass through unchanged so the engines can report them.
func DiscoverWorkflowFiles(paths []string) ([]string, error) {
	discovered := make([]string, 0, len(paths))
	for _, path := range paths {
		pathInfo, statError := os.Stat(path)
		if statError != nil || !pathInfo.IsDir() {
			discovered = append(discovered, path)
			continue
		}

		var directoryFiles []string
		walkError := filepath.WalkDir(path, func(walkedPath string, directoryEntry fs.DirEntry, walkError error) error {
			if walkError != nil {
				return walkError
			}
			if directoryEntry.IsDir() || !IsWorkflowFile(walkedPath) {
				return nil
			}
			directoryFiles = append(directoryFiles, walkedPath)
			return nil
		})
		if walkError != nil {
			return nil, fmt.Errorf(walkDirectoryErrorTemplateConstant, path, walkError)
		}

		sort.Strings(directoryFiles)
		discovered = append(discovered, directoryFiles...)
	}
	return discovered, nil
}

// IsWorkflowFile reports whether path carries a YAML extension.
func IsWorkflowFile(path string) bool {
	lowerPath := strings.ToLower(path)
	return strings.HasSuffix(lowerPath, yamlExtensionConstant) || strings.HasSuffix(lowerPath, ymlExtensionConstant)
}
