package pages

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	workflowDirectoryPermissionsConstant = 0o755
	workflowFilePermissionsConstant      = 0o644
	workflowCreatedTemplateConstant      = "✓ Created workflow file at: %s\n"
	workflowNextStepsConstant            = "\nNext steps:\n" +
		"1. Customize the 'Build site' step with your build commands\n" +
		"2. Ensure the correct files are copied to _site/\n" +
		"3. Commit and push this workflow file to your repository\n" +
		"4. Enable GitHub Pages with 'GitHub Actions' as the source in repo settings\n" +
		"   Or run: ghtools pages enable <owner>/<repo>\n"
	createDirectoryErrorTemplateConstant = "unable to create workflow directory %s: %w"
	writeWorkflowErrorTemplateConstant   = "unable to write workflow file %s: %w"
)

//go:embed templates/pages.yml
var workflowTemplate string

// WorkflowTemplate returns the Pages deployment workflow written by CreateWorkflowFile.
func WorkflowTemplate() string {
	return workflowTemplate
}

// CreateWorkflowFile writes the deployment workflow to outputPath, creating
// parent directories, and prints the follow-up steps to writer.
func CreateWorkflowFile(outputPath string, writer io.Writer) error {
	if len(outputPath) == 0 {
		outputPath = defaultWorkflowPathConstant
	}

	absolutePath, absoluteError := filepath.Abs(outputPath)
	if absoluteError != nil {
		return absoluteError
	}

	parentDirectory := filepath.Dir(absolutePath)
	if mkdirError := os.MkdirAll(parentDirectory, workflowDirectoryPermissionsConstant); mkdirError != nil {
		return fmt.Errorf(createDirectoryErrorTemplateConstant, parentDirectory, mkdirError)
	}
	if writeError := os.WriteFile(absolutePath, []byte(workflowTemplate), workflowFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(writeWorkflowErrorTemplateConstant, absolutePath, writeError)
	}

	if writer == nil {
		return nil
	}
	if _, printError := fmt.Fprintf(writer, workflowCreatedTemplateConstant, absolutePath); printError != nil {
		return printError
	}
	_, printError := io.WriteString(writer, workflowNextStepsConstant)
	return printError
}
