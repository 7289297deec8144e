package domain

import (
	"fmt"
	"strings"
)

// MissingInputError reports a required dataset that is absent or unreadable.
type MissingInputError struct {
	Dataset string
	Path    string
	Err     error
}

func (e *MissingInputError) Error() string {
	return fmt.Sprintf("missing input: %s dataset at %s: %v", e.Dataset, e.Path, e.Err)
}

func (e *MissingInputError) Unwrap() error { return e.Err }

// SchemaMismatchError reports structural problems in an input: required
// columns that are absent, or state keys present in one dataset but missing
// from another.
type SchemaMismatchError struct {
	Dataset string
	Detail  string
	Keys    []string
}

func (e *SchemaMismatchError) Error() string {
	if len(e.Keys) == 0 {
		return fmt.Sprintf("schema mismatch in %s dataset: %s", e.Dataset, e.Detail)
	}
	return fmt.Sprintf("schema mismatch in %s dataset: %s: %s", e.Dataset, e.Detail, strings.Join(e.Keys, ", "))
}

// DegenerateInputError reports inputs that make a later division undefined:
// a run-wide maximum rainfall of zero, or a total allocation weight of zero.
// The run halts instead of propagating NaN or Inf into the output.
type DegenerateInputError struct {
	Stage  string
	Reason string
}

func (e *DegenerateInputError) Error() string {
	return fmt.Sprintf("degenerate input in %s: %s", e.Stage, e.Reason)
}
