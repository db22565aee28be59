// Package errors provides consistent error handling for the agent orchestrator CLI.
//
// This package wraps the standard errors package and provides:
// - Stack traces for debugging
// - Context propagation
// - Error categorization so the CLI can pick an exit status
//
// Child process failures are never represented here: a non-zero exit from
// kubectl or a companion script is relayed as an exit code, not an error.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// Error types for categorization
const (
	// ErrorTypeValidation indicates invalid command input
	ErrorTypeValidation = "Validation"
	// ErrorTypeNotFound indicates a required file (e.g. a companion script) is missing
	ErrorTypeNotFound = "NotFound"
	// ErrorTypeExec indicates an external process could not be started
	ErrorTypeExec = "Exec"
	// ErrorTypeConfig indicates invalid or unreadable configuration
	ErrorTypeConfig = "Config"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal = "Internal"
)

// DispatchError is the base error type with context and stack trace.
type DispatchError struct {
	// Cause is the underlying error
	Cause error
	// Message is the human-readable error message
	Message string
	// Type categorizes the error
	Type string
	// Context contains key-value pairs for debugging
	Context map[string]string
	// Stack is the call stack at error creation
	Stack []uintptr
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *DispatchError) Unwrap() error {
	return e.Cause
}

// StackTrace returns a formatted stack trace.
func (e *DispatchError) StackTrace() string {
	if len(e.Stack) == 0 {
		return ""
	}

	var sb strings.Builder
	frames := runtime.CallersFrames(e.Stack)
	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			sb.WriteString(fmt.Sprintf("  %s\n    %s:%d\n", frame.Function, frame.File, frame.Line))
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// WithContext adds context to the error.
func (e *DispatchError) WithContext(key, value string) *DispatchError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// KeysAndValues flattens Context into logr-style key/value pairs, sorted by key.
func (e *DispatchError) KeysAndValues() []any {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, 2*len(keys)+2)
	kv = append(kv, "type", e.Type)
	for _, k := range keys {
		kv = append(kv, k, e.Context[k])
	}
	return kv
}

// captureStack captures the current call stack.
func captureStack(skip int) []uintptr {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	return pcs[:n]
}

// Newf creates a new DispatchError with a formatted message.
func Newf(format string, args ...interface{}) *DispatchError {
	return &DispatchError{
		Message: fmt.Sprintf(format, args...),
		Type:    ErrorTypeInternal,
		Stack:   captureStack(1),
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *DispatchError {
	if err == nil {
		return nil
	}
	return &DispatchError{
		Cause:   err,
		Message: message,
		Type:    ErrorTypeInternal,
		Stack:   captureStack(1),
	}
}

// Validation creates a validation error.
func Validation(message string) *DispatchError {
	return &DispatchError{
		Message: message,
		Type:    ErrorTypeValidation,
		Stack:   captureStack(1),
	}
}

// RequiredField creates a validation error for a missing or empty flag.
func RequiredField(command, flag string) *DispatchError {
	return Validation(fmt.Sprintf("%s: --%s is required and must not be empty", command, flag)).
		WithContext("command", command).
		WithContext("flag", flag)
}

// NotFound creates a not-found error for a file the CLI depends on.
// The message matches what users see on stdout: "<name> not found at <path>".
func NotFound(name, path string) *DispatchError {
	return &DispatchError{
		Message: fmt.Sprintf("%s not found at %s", name, path),
		Type:    ErrorTypeNotFound,
		Stack:   captureStack(1),
		Context: map[string]string{"name": name, "path": path},
	}
}

// ExecFailed creates an error for a process that could not be started.
func ExecFailed(err error, command string) *DispatchError {
	return &DispatchError{
		Cause:   err,
		Message: fmt.Sprintf("failed to run %s", command),
		Type:    ErrorTypeExec,
		Stack:   captureStack(1),
		Context: map[string]string{"command": command},
	}
}

// Config creates a configuration error.
func Config(err error, message string) *DispatchError {
	e := Wrap(err, message)
	if e == nil {
		return &DispatchError{
			Message: message,
			Type:    ErrorTypeConfig,
			Stack:   captureStack(1),
		}
	}
	e.Type = ErrorTypeConfig
	return e
}

// IsType checks if an error is of a specific type.
func IsType(err error, errType string) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Type == errType
	}
	return false
}

// IsNotFound checks if an error is a not-found error.
func IsNotFound(err error) bool {
	return IsType(err, ErrorTypeNotFound)
}

// IsValidation checks if an error is a validation error.
func IsValidation(err error) bool {
	return IsType(err, ErrorTypeValidation)
}

// IsExec checks if an error came from starting an external process.
func IsExec(err error) bool {
	return IsType(err, ErrorTypeExec)
}

// IsConfig checks if an error is a configuration error.
func IsConfig(err error) bool {
	return IsType(err, ErrorTypeConfig)
}
