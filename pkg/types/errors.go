// Package types defines error types
package types

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrPoolClosed indicates a submission or close after the pool was closed
	ErrPoolClosed = errors.New("worker pool is closed")

	// ErrQueueClosed indicates a send or close on a closed queue
	ErrQueueClosed = errors.New("queue is closed")

	// ErrInvalidPoolSize indicates a pool size that is not positive
	ErrInvalidPoolSize = errors.New("pool size must be positive")

	// ErrNilJob indicates a nil job was submitted
	ErrNilJob = errors.New("job cannot be nil")
)

// PreconditionError is the panic value used when a caller violates a precondition of the
// pool, such as requesting zero workers. It is never returned as a recoverable error.
type PreconditionError struct {
	// Operation is the name of the call whose precondition failed
	Operation string

	// Cause is the underlying sentinel error
	Cause error

	// Context contains error context information
	Context map[string]interface{}
}

// Error implements the error interface
func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violated in %s: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying error
func (e *PreconditionError) Unwrap() error {
	return e.Cause
}

// Is checks if the error is a specific error
func (e *PreconditionError) Is(target error) bool {
	return errors.Is(e.Cause, target)
}

// NewPreconditionError creates a new precondition error
func NewPreconditionError(operation string, cause error) *PreconditionError {
	return &PreconditionError{
		Operation: operation,
		Cause:     cause,
		Context:   make(map[string]interface{}),
	}
}

// WithContext adds error context
func (e *PreconditionError) WithContext(key string, value interface{}) *PreconditionError {
	e.Context[key] = value
	return e
}

// JobPanicError records a panic raised by a job body
type JobPanicError struct {
	// WorkerID is the worker that was executing the job
	WorkerID int

	// Value is the value passed to panic
	Value interface{}

	// Stack is the goroutine stack captured at recovery
	Stack []byte
}

// Error implements the error interface
func (e *JobPanicError) Error() string {
	return fmt.Sprintf("job panicked on worker %d: %v", e.WorkerID, e.Value)
}

// Unwrap returns the panic value when it is itself an error
func (e *JobPanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// IsJobPanic checks if an error was caused by a panicking job
func IsJobPanic(err error) bool {
	var panicErr *JobPanicError
	return errors.As(err, &panicErr)
}
