package ui

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/ghtools/internal/execshell"
)

const (
	elapsedFieldNameConstant  = "elapsed"
	exitCodeFieldNameConstant = "exit_code"
)

// ConsoleCommandEventLogger logs gh lifecycle events with human readable messages.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
	clock     func() time.Time

	mutex     sync.Mutex
	startedAt time.Time
}

// NewConsoleCommandEventLogger constructs an observer writing to logger. A nil logger discards events.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	return NewConsoleCommandEventLoggerWithClock(logger, time.Now)
}

// NewConsoleCommandEventLoggerWithClock uses clock to measure how long each command ran.
func NewConsoleCommandEventLoggerWithClock(logger *zap.Logger, clock func() time.Time) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &ConsoleCommandEventLogger{logger: logger, clock: clock}
}

// CommandStarted logs the activity about to run.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.mutex.Lock()
	eventLogger.startedAt = eventLogger.clock()
	eventLogger.mutex.Unlock()

	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted logs success at info level and non-zero exits at warn level.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	elapsed := zap.Duration(elapsedFieldNameConstant, eventLogger.elapsed())
	if result.ExitCode == 0 {
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command), elapsed)
		return
	}
	eventLogger.logger.Warn(
		eventLogger.formatter.BuildFailureMessage(command, result),
		elapsed,
		zap.Int(exitCodeFieldNameConstant, result.ExitCode),
	)
}

// CommandExecutionFailed logs commands that could not be started or were interrupted.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(
		eventLogger.formatter.BuildExecutionFailureMessage(command, failure),
		zap.Duration(elapsedFieldNameConstant, eventLogger.elapsed()),
	)
}

func (eventLogger *ConsoleCommandEventLogger) elapsed() time.Duration {
	eventLogger.mutex.Lock()
	defer eventLogger.mutex.Unlock()
	if eventLogger.startedAt.IsZero() {
		return 0
	}
	return eventLogger.clock().Sub(eventLogger.startedAt)
}
