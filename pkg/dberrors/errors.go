// Package dberrors defines the error kinds the join server surfaces to
// clients. Each kind carries the exact literal message the wire protocol
// returns after "ERR ".
package dberrors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// EmptyCommandError is returned when a client sends a blank line.
type EmptyCommandError struct{}

func (e *EmptyCommandError) Error() string {
	return "Command wasn't provided."
}

// UnsupportedCommandError is returned for a verb not in the recognized set.
type UnsupportedCommandError struct {
	Verb string
}

func (e *UnsupportedCommandError) Error() string {
	return "Database command is not supported."
}

// ParamCountError is returned when a command has the wrong number of tokens.
type ParamCountError struct {
	Command string
	Got     int
	Want    int
}

func (e *ParamCountError) Error() string {
	return "Wrong number of parameters was provided."
}

// ParseDigitError is returned when a numeric field contains non-digit bytes.
type ParseDigitError struct {
	Field string
}

func (e *ParseDigitError) Error() string {
	return "Failed to parse digit."
}

// TableNotFoundError is returned for any table name outside {"A", "B"}.
type TableNotFoundError struct {
	Name string
}

func (e *TableNotFoundError) Error() string {
	return "Table wasn't found."
}

// DuplicateError is returned when an insert's key already exists.
type DuplicateError struct {
	Key uint64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate %d", e.Key)
}

// IsDuplicate reports whether err (or any error it wraps) is a DuplicateError.
func IsDuplicate(err error) bool {
	var d *DuplicateError
	return errors.As(err, &d)
}

// NewDuplicate wraps DuplicateError with a stack trace via cockroachdb/errors.
func NewDuplicate(key uint64) error {
	return errors.WithStack(&DuplicateError{Key: key})
}

// NewTableNotFound wraps TableNotFoundError with a stack trace.
func NewTableNotFound(name string) error {
	return errors.WithStack(&TableNotFoundError{Name: name})
}

// NewEmptyCommand wraps EmptyCommandError with a stack trace.
func NewEmptyCommand() error {
	return errors.WithStack(&EmptyCommandError{})
}

// NewUnsupportedCommand wraps UnsupportedCommandError with a stack trace.
func NewUnsupportedCommand(verb string) error {
	return errors.WithStack(&UnsupportedCommandError{Verb: verb})
}

// NewParamCount wraps ParamCountError with a stack trace.
func NewParamCount(command string, got, want int) error {
	return errors.WithStack(&ParamCountError{Command: command, Got: got, Want: want})
}

// NewParseDigit wraps ParseDigitError with a stack trace.
func NewParseDigit(field string) error {
	return errors.WithStack(&ParseDigitError{Field: field})
}
