// internal/agent/errors.go
package agent

import "fmt"

// PlanGenerationError means no usable plan could be obtained. The task never
// leaves the planning status.
type PlanGenerationError struct {
	Err error
}

func (e *PlanGenerationError) Error() string {
	return fmt.Sprintf("error creating plan: %v", e.Err)
}

func (e *PlanGenerationError) Unwrap() error { return e.Err }

// EvaluationError means one evaluator round produced no usable verdict. The
// orchestrator records it and moves on to the next iteration.
type EvaluationError struct {
	Iteration int
	Err       error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("error evaluating (iteration %d): %v", e.Iteration, e.Err)
}

func (e *EvaluationError) Unwrap() error { return e.Err }

// validationError reports a well-formed oracle response missing a required field.
type validationError struct {
	field  string
	reason string
}

func (e *validationError) Error() string {
	return fmt.Sprintf("field '%s' %s", e.field, e.reason)
}
