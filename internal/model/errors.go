package model

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the pipeline. Callers match them with errors.Is.
var (
	ErrInputMissing = errors.New("input missing")
	ErrSchema       = errors.New("schema error")
	ErrParse        = errors.New("parse error")
)

// FileError reports a required input file that does not exist.
type FileError struct {
	Path string
}

func (e *FileError) Error() string { return fmt.Sprintf("%s: file not found", e.Path) }
func (e *FileError) Unwrap() error { return ErrInputMissing }

// ColumnError reports a required column absent from a table header.
type ColumnError struct {
	Table  string
	Column string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("%s: missing column %q", e.Table, e.Column)
}
func (e *ColumnError) Unwrap() error { return ErrSchema }

// ValueError reports a field that could not be parsed. Line is 1-based and
// counts the header row.
type ValueError struct {
	Table  string
	Line   int
	Column string
	Value  string
	Err    error
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("%s:%d: column %q: cannot parse %q: %v", e.Table, e.Line, e.Column, e.Value, e.Err)
}

func (e *ValueError) Is(target error) bool { return target == ErrParse }
func (e *ValueError) Unwrap() error        { return e.Err }

// HeightError reports a player height that is not "feet-inches".
type HeightError struct {
	NflID  int64
	Height string
}

func (e *HeightError) Error() string {
	return fmt.Sprintf("player %d: invalid height %q (want feet-inches, e.g. 6-2)", e.NflID, e.Height)
}
func (e *HeightError) Unwrap() error { return ErrParse }
