// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
)

// ExitError signals a non-zero exit code without printing an extra
// error message. The command is expected to have already written its
// own output.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

// ExitCode returns the exit code.
func (e *ExitError) ExitCode() int {
	return e.Code
}

// Exit codes for errors that are an expected outcome rather than a
// fault.
const (
	ExitFailure    = 1
	ExitUsage      = 2
	ExitNotFound   = 3
	ExitValidation = 4
)

// CodedError attaches an exit code to an error that should still be
// printed.
type CodedError struct {
	Code int
	Err  error
}

func (e *CodedError) Error() string { return e.Err.Error() }
func (e *CodedError) Unwrap() error { return e.Err }

// ExitCode returns the exit code.
func (e *CodedError) ExitCode() int { return e.Code }

// WithCode wraps err so the process exits with code. Nil stays nil.
func WithCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Err: err}
}

// ExitCodeOf returns the exit code for err: the code carried by an
// ExitError or CodedError in its chain, else ExitFailure. Nil is 0.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return ExitFailure
}

// Silent reports whether err is an ExitError, whose command has
// already printed everything the user needs.
func Silent(err error) bool {
	var exit *ExitError
	return errors.As(err, &exit)
}
