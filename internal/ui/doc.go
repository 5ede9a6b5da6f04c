// Package ui reports gh invocations to the person at the terminal.
//
// ConsoleCommandEventLogger observes the shell executor and logs a short
// description of each GitHub CLI call at info level, so console log output
// shows what ghtools is waiting on.
package ui
