package agent

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

// newTaskState creates the state for a fresh task in the planning status.
func newTaskState(id, request string, maxIterations int) *TaskState {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &TaskState{
		ID:             id,
		Request:        request,
		Status:         StatusPlanning,
		MaxIterations:  maxIterations,
		CompletedSteps: []StepRecord{},
		Errors:         []string{},
		StartedAt:      time.Now().UTC(),
	}
}

// setStatus moves the task forward. Terminal statuses are final, and there is
// no way back to planning once execution has started.
func (s *TaskState) setStatus(next TaskStatus) error {
	if s.Status == next {
		return nil
	}
	if s.Status.IsTerminal() {
		return fmt.Errorf("task %s is already %s; cannot move to %s", s.ID, s.Status, next)
	}
	if next == StatusPlanning {
		return fmt.Errorf("task %s cannot return to %s from %s", s.ID, next, s.Status)
	}
	s.Status = next
	if next.IsTerminal() {
		s.FinishedAt = time.Now().UTC()
	}
	return nil
}

// applyPlan copies the plan into the state and starts execution.
func (s *TaskState) applyPlan(plan Plan) error {
	if s.Status != StatusPlanning {
		return fmt.Errorf("task %s already has a plan", s.ID)
	}
	s.Objective = plan.Objective
	s.Plan = Plan{
		Objective:       plan.Objective,
		Steps:           slices.Clone(plan.Steps),
		SuccessCriteria: slices.Clone(plan.SuccessCriteria),
	}
	s.SuccessCriteria = slices.Clone(plan.SuccessCriteria)
	return s.setStatus(StatusExecuting)
}

// canIterate reports whether the task is executing with budget left.
func (s *TaskState) canIterate() bool {
	return s.Status == StatusExecuting && s.IterationCount < s.MaxIterations
}

// beginIteration consumes one unit of the iteration budget. It reports false
// when the task is not executing or the budget is spent.
func (s *TaskState) beginIteration() bool {
	if !s.canIterate() {
		return false
	}
	s.IterationCount++
	return true
}

func (s *TaskState) recordStep(action NextAction, result schemas.ActionResult) {
	s.CompletedSteps = append(s.CompletedSteps, StepRecord{
		Iteration:  s.IterationCount,
		ActionName: action.ActionName,
		Arguments:  maps.Clone(action.Arguments),
		Result:     result,
		Reasoning:  action.Reasoning,
	})
}

func (s *TaskState) recordError(msg string) {
	s.Errors = append(s.Errors, msg)
}

// Snapshot returns a copy that shares no slices or maps with s.
func (s *TaskState) Snapshot() TaskState {
	cp := *s
	cp.Plan.Steps = slices.Clone(s.Plan.Steps)
	cp.Plan.SuccessCriteria = slices.Clone(s.Plan.SuccessCriteria)
	cp.SuccessCriteria = slices.Clone(s.SuccessCriteria)
	cp.Errors = slices.Clone(s.Errors)
	cp.CompletedSteps = make([]StepRecord, len(s.CompletedSteps))
	for i, step := range s.CompletedSteps {
		step.Arguments = maps.Clone(step.Arguments)
		step.Result.Payload = maps.Clone(step.Result.Payload)
		cp.CompletedSteps[i] = step
	}
	return cp
}
