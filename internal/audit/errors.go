package audit

import (
	"errors"
	"fmt"
)

// Stage names the step of an audit that failed.
type Stage string

const (
	// StageInject is the injection of the engine script into the page.
	StageInject Stage = "inject"
	// StageRun is the execution of the engine.
	StageRun Stage = "run"
	// StageDecode is the validation of the engine output.
	StageDecode Stage = "decode"
)

var (
	// ErrEngineMissing is returned when the engine is not present after injection.
	ErrEngineMissing = errors.New("axe engine not available in page")

	// ErrMalformedResult is returned when the engine output does not match the
	// expected schema.
	ErrMalformedResult = errors.New("malformed axe result")

	// ErrEmptyScript is returned when the engine source is empty.
	ErrEmptyScript = errors.New("axe script is empty")
)

// AuditExecutionError reports that the engine could not be injected, run or
// decoded on a page.
type AuditExecutionError struct {
	// URL is the audited page.
	URL string

	// Stage is the failing step.
	Stage Stage

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *AuditExecutionError) Error() string {
	return fmt.Sprintf("audit of %s failed during %s: %v", e.URL, e.Stage, e.Err)
}

// Unwrap returns the underlying cause.
func (e *AuditExecutionError) Unwrap() error {
	return e.Err
}
