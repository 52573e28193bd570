package pluginmanager

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors returned by the manager.
type ErrorKind string

const (
	// KindPluginExecution covers both a rejected registration and a failed plugin.
	KindPluginExecution ErrorKind = "PLUGIN_EXECUTION_ERROR"
)

var (
	// ErrInvalidPlugin is the cause of registration failures, so callers can
	// tell misuse apart from a plugin that failed while running.
	ErrInvalidPlugin = errors.New("plugin must be a function")

	errNoResult = errors.New("asynchronous plugin finished without a result")
)

const unknownError = "Unknown error"

// Error is returned by Add, AddFunc and Run.
type Error struct {
	Kind    ErrorKind
	Message string
	// Index is the 1-based position of the failing plugin, 0 for registration errors.
	Index int
	Cause error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error { return e.Cause }

// IsKind reports whether err carries an *Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == kind
}

func invalidPluginError() *Error {
	return &Error{
		Kind:    KindPluginExecution,
		Message: ErrInvalidPlugin.Error(),
		Cause:   ErrInvalidPlugin,
	}
}

// executionError wraps the failure of plugin index (1-based). failure is
// either an error returned by the plugin or a recovered panic value.
func executionError(index int, failure any) *Error {
	cause, _ := failure.(error)

	msg := unknownError
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}

	return &Error{
		Kind:    KindPluginExecution,
		Message: fmt.Sprintf("plugin %d failed: %s", index, msg),
		Index:   index,
		Cause:   cause,
	}
}
