package stages

import (
	"errors"
	"fmt"
	"strings"
)

// ErrPaymentRequired gates the final stage of payment-gated entity types.
var ErrPaymentRequired = errors.New("payment must be completed before the final stage can be submitted")

// ValidationError reports every required field missing from a submission,
// not just the first.
type ValidationError struct {
	Missing []string
}

func (e *ValidationError) Error() string {
	return "missing required fields: " + strings.Join(e.Missing, ", ")
}

// OutOfOrderError rejects a stage submitted before its predecessor.
type OutOfOrderError struct {
	Stage        int
	MissingStage int
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("stage %d cannot be submitted before stage %d is completed", e.Stage, e.MissingStage)
}

// UnknownStageError rejects a stage number outside [1, Total].
type UnknownStageError struct {
	Stage int
	Total int
}

func (e *UnknownStageError) Error() string {
	return fmt.Sprintf("stage %d does not exist (valid stages: 1-%d)", e.Stage, e.Total)
}

// MalformedFieldError reports a field whose value could not be parsed, e.g.
// a string-encoded JSON object that is not valid JSON.
type MalformedFieldError struct {
	Field string
	Cause error
}

func (e *MalformedFieldError) Error() string {
	return fmt.Sprintf("field %s is malformed: %v", e.Field, e.Cause)
}

func (e *MalformedFieldError) Unwrap() error { return e.Cause }

// InvalidFieldError reports a present field that failed its validator.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("field %s is invalid: %s", e.Field, e.Reason)
}
