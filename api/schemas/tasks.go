package schemas

import (
	"context"
	"time"
)

// -- Task Archive Schemas --

// TaskRecord is the archived form of a finished task.
type TaskRecord struct {
	TaskID          string           `json:"task_id"`
	Request         string           `json:"request"`
	Objective       string           `json:"objective"`
	Plan            []string         `json:"plan"`
	SuccessCriteria []string         `json:"success_criteria"`
	Status          string           `json:"status"`
	IterationCount  int              `json:"iteration_count"`
	MaxIterations   int              `json:"max_iterations"`
	Steps           []TaskStepRecord `json:"steps"`
	Errors          []string         `json:"errors"`
	StartedAt       time.Time        `json:"started_at"`
	FinishedAt      time.Time        `json:"finished_at"`
}

// TaskStepRecord is one executed action inside a TaskRecord.
type TaskStepRecord struct {
	Iteration  int            `json:"iteration"`
	ActionName string         `json:"function"`
	Arguments  map[string]any `json:"arguments"`
	Succeeded  bool           `json:"success"`
	Message    string         `json:"message"`
	Payload    map[string]any `json:"payload,omitempty"`
	Reasoning  string         `json:"reasoning,omitempty"`
}

// Archiver persists finished tasks.
type Archiver interface {
	Archive(ctx context.Context, record TaskRecord) error
}
