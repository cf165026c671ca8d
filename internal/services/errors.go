package services

import (
	"fmt"
	"time"
)

// NoValidInputError means the request carried nothing convertible. It is the
// caller's fault and maps to a 400.
type NoValidInputError struct {
	Message string
}

func (e *NoValidInputError) Error() string {
	return e.Message
}

// ToolExecutionError is an external tool that exited non-zero, could not be
// started, or ran past its deadline.
type ToolExecutionError struct {
	Tool     string
	ExitCode int
	Stderr   string
	TimedOut bool
	Timeout  time.Duration
	Err      error
}

func (e *ToolExecutionError) Error() string {
	if e.TimedOut {
		return fmt.Sprintf("%s timed out after %s", e.Tool, e.Timeout)
	}
	if e.Stderr != "" {
		return fmt.Sprintf("%s failed (code %d): %s", e.Tool, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("%s failed: %v", e.Tool, e.Err)
}

func (e *ToolExecutionError) Unwrap() error {
	return e.Err
}

// ConversionError is a decode or encode failure for one input file.
type ConversionError struct {
	File string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("conversion of %s failed: %v", e.File, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// IOError wraps filesystem failures while building a workspace or archive.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// JobError tags a failure with the id of the workspace it happened in. The
// message is the cause's, unchanged.
type JobError struct {
	ID  string
	Err error
}

func (e *JobError) Error() string {
	return e.Err.Error()
}

func (e *JobError) Unwrap() error {
	return e.Err
}
