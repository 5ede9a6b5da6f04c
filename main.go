package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/temirov/ghtools/cmd/cli"
	"github.com/temirov/ghtools/internal/utils"
)

const (
	exitErrorTemplateConstant = "Error: %v\n"
)

// main executes the ghtools command-line application.
func main() {
	executionContext, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	executionError := cli.Execute(executionContext)
	stopSignals()

	if executionError == nil {
		return
	}
	if message := executionError.Error(); len(message) > 0 {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, message)
	}
	os.Exit(utils.ResolveExitCode(executionError))
}
