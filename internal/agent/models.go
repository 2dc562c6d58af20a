// internal/agent/models.go
package agent

import (
	"time"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

// TaskStatus is the lifecycle position of a task.
type TaskStatus string

const (
	StatusPlanning      TaskStatus = "planning"
	StatusExecuting     TaskStatus = "executing"
	StatusSuccess       TaskStatus = "success"
	StatusFailed        TaskStatus = "failed"
	StatusMaxIterations TaskStatus = "max_iterations"
)

// IsTerminal reports whether the status can no longer change.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusMaxIterations:
		return true
	default:
		return false
	}
}

// DefaultMaxIterations bounds a task when nothing else is configured.
const DefaultMaxIterations = 15

// Plan is the oracle's decomposition of an objective. It is never modified
// after the planner returns it.
type Plan struct {
	Objective       string   `json:"objective"`
	Steps           []string `json:"plan"`
	SuccessCriteria []string `json:"success_criteria"`
}

// StepRecord is the permanent log entry for one executed action.
type StepRecord struct {
	Iteration  int                  `json:"iteration"`
	ActionName string               `json:"function"`
	Arguments  map[string]any       `json:"arguments"`
	Result     schemas.ActionResult `json:"result"`
	Reasoning  string               `json:"reasoning"`
}

// NextAction is the single action the evaluator wants executed.
type NextAction struct {
	ActionName string
	Arguments  map[string]any
	Reasoning  string
}

// Evaluation is the validated verdict of one evaluator round.
type Evaluation struct {
	ObjectiveAchieved bool
	ShouldContinue    bool
	NextAction        *NextAction
	StatusNote        string
}

// TaskState is everything known about one task. The orchestrator owns it;
// collaborators only ever see copies from Snapshot.
type TaskState struct {
	ID              string       `json:"id"`
	Request         string       `json:"request"`
	Objective       string       `json:"objective"`
	Plan            Plan         `json:"plan"`
	SuccessCriteria []string     `json:"success_criteria"`
	Status          TaskStatus   `json:"status"`
	IterationCount  int          `json:"iteration_count"`
	MaxIterations   int          `json:"max_iterations"`
	CompletedSteps  []StepRecord `json:"completed_steps"`
	Errors          []string     `json:"errors"`
	StartedAt       time.Time    `json:"started_at"`
	FinishedAt      time.Time    `json:"finished_at,omitempty"`
}

// SuccessfulSteps counts the recorded actions whose result succeeded.
func (s *TaskState) SuccessfulSteps() int {
	n := 0
	for _, step := range s.CompletedSteps {
		if step.Result.Succeeded {
			n++
		}
	}
	return n
}
