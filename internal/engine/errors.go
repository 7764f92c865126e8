package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/reverb/internal/world"
)

// FailureCode categorizes per-record failures surfaced in a PassResult.
type FailureCode string

const (
	// CodeMissingComponent indicates a body requested a required read that
	// does not exist. Recoverable: the record's snapshot is left untouched,
	// forcing a retry on the next pass.
	CodeMissingComponent FailureCode = "MISSING_COMPONENT"

	// CodeTargetInvalid indicates a target entity no longer exists in the
	// store at execution time. Recoverable: that target is skipped for this
	// execution, the record's other targets still run.
	CodeTargetInvalid FailureCode = "TARGET_INVALID"

	// CodeCaptureMisuse indicates a capture scope was opened while another
	// was live for the same record. A programming error, not user-data
	// dependent: the record's execution is aborted with its snapshot
	// unchanged.
	CodeCaptureMisuse FailureCode = "CAPTURE_MISUSE"

	// CodeBodyError covers any other error returned by a reaction body.
	// Treated like CodeMissingComponent: recoverable, retried next pass.
	CodeBodyError FailureCode = "BODY_ERROR"
)

// RecordError is an error detected while executing one reaction record.
//
// Per-record failures never abort a scheduler pass: they are collected into
// the PassResult and the pass moves on to the next live record.
type RecordError struct {
	// Code identifies the failure category.
	Code FailureCode

	// Reaction identifies the affected record, when known.
	Reaction ReactionID

	// Entity and Type identify the read or target that failed, when the
	// failure is tied to a specific component.
	Entity world.Entity
	Type   world.ComponentType

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *RecordError) Error() string {
	if e.Entity != world.NoEntity && e.Type != "" {
		return fmt.Sprintf("%s: %s (entity=%d, type=%s)", e.Code, e.Message, e.Entity, e.Type)
	}
	if e.Entity != world.NoEntity {
		return fmt.Sprintf("%s: %s (entity=%d)", e.Code, e.Message, e.Entity)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewMissingComponentError reports a required read that resolved to nothing.
func NewMissingComponentError(e world.Entity, t world.ComponentType) *RecordError {
	return &RecordError{
		Code:    CodeMissingComponent,
		Entity:  e,
		Type:    t,
		Message: "required component not found",
	}
}

// NewTargetInvalidError reports a target entity that is no longer alive.
func NewTargetInvalidError(e world.Entity) *RecordError {
	return &RecordError{
		Code:    CodeTargetInvalid,
		Entity:  e,
		Message: "target entity no longer exists",
	}
}

// IsMissingComponent returns true if the error is a missing-component
// failure. Uses errors.As to handle wrapped errors.
func IsMissingComponent(err error) bool {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Code == CodeMissingComponent
	}
	return false
}

// IsTargetInvalid returns true if the error is an invalid-target failure.
func IsTargetInvalid(err error) bool {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Code == CodeTargetInvalid
	}
	return false
}

// IsCaptureMisuse returns true if the error is a capture-misuse failure.
func IsCaptureMisuse(err error) bool {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Code == CodeCaptureMisuse
	}
	return false
}

// classify maps an arbitrary body error onto a failure code. Typed
// RecordErrors keep their own code; anything else is a generic body error.
func classify(err error) FailureCode {
	var re *RecordError
	if errors.As(err, &re) {
		return re.Code
	}
	return CodeBodyError
}
