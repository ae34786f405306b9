// Package exitcode lets commands choose the process exit status through the error they return.
package exitcode

import (
	"errors"
	"strconv"
)

const (
	OK = 0
	// Command ran but found something an operator must look at
	Findings = 3
	Errored  = 201
)

// Status attaches an exit code to an error. A nil Err means the command
// already reported its outcome and only the code matters.
type Status struct {
	Err  error
	Code int
}

func (s *Status) Error() string {
	if s.Err == nil {
		return "exit status " + strconv.Itoa(s.Code)
	}
	return s.Err.Error()
}

func (s *Status) Unwrap() error {
	return s.Err
}

func With(code int, err error) error {
	return &Status{Code: code, Err: err}
}

// Of maps a command's error to the process exit status.
func Of(err error) int {
	var s *Status
	switch {
	case err == nil:
		return OK
	case errors.As(err, &s):
		return s.Code
	default:
		return Errored
	}
}

// Reportable is the error worth printing, or nil when the command chose a
// status without one.
func Reportable(err error) error {
	var s *Status
	if errors.As(err, &s) && s.Err == nil {
		return nil
	}
	return err
}
