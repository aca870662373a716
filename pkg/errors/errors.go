// Package errors provides structured error handling for refillpool
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"sort"

	"go.uber.org/zap/zapcore"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeInternal marks failures inside the pool, such as a refill pass
	// aborted by a panicking factory
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeValidation marks rejected input values
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfig marks an unusable configuration
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeFile marks a configuration file that could not be read or written
	ErrorTypeFile ErrorType = "file"
)

// maxStackDepth bounds the frames kept per error
const maxStackDepth = 32

// Error is a categorised error carrying key/value details and the stack of
// the goroutine that created it.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame is one call site of a captured stack
type StackFrame struct {
	Function string
	File     string
	Line     int
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an *Error of the same type with no message,
// so errors.Is(err, &Error{Type: ErrorTypeConfig}) matches any config error.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Message == "" && t.Type == e.Type
}

// WithDetail records a key/value detail and returns e for chaining
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{}, 2)
	}
	e.Details[key] = value
	return e
}

// Detail returns the value stored under key
func (e *Error) Detail(key string) (interface{}, bool) {
	v, ok := e.Details[key]
	return v, ok
}

// MarshalLogObject renders the error as a zap object so that the type and
// details appear as structured fields.
func (e *Error) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddString("type", string(e.Type))
	enc.AddString("message", e.Message)
	if e.Cause != nil {
		enc.AddString("cause", e.Cause.Error())
	}

	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := enc.AddReflected(k, e.Details[k]); err != nil {
			return err
		}
	}

	if len(e.Stack) > 0 {
		enc.AddString("origin", fmt.Sprintf("%s:%d", e.Stack[0].File, e.Stack[0].Line))
	}
	return nil
}

// New creates an error of the given type capturing the caller's stack
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(3),
	}
}

// Wrap gives err a type and message. The stack of an already structured cause
// is kept; otherwise the caller's stack is captured. A nil err returns nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	wrapped := &Error{Type: errType, Message: message, Cause: err}
	var inner *Error
	if errors.As(err, &inner) {
		wrapped.Stack = inner.Stack
	} else {
		wrapped.Stack = captureStack(3)
	}
	return wrapped
}

// IsType reports whether any error in err's chain is an *Error of errType
func IsType(err error, errType ErrorType) bool {
	return errors.Is(err, &Error{Type: errType})
}

// captureStack records the stack above skip frames (runtime.Callers counts
// itself as frame 0)
func captureStack(skip int) []StackFrame {
	pcs := make([]uintptr, maxStackDepth)
	n := runtime.Callers(skip, pcs)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	stack := make([]StackFrame, 0, n)
	for {
		f, more := frames.Next()
		stack = append(stack, StackFrame{Function: f.Function, File: f.File, Line: f.Line})
		if !more {
			break
		}
	}
	return stack
}
