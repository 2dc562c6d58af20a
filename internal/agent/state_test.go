package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskState_TerminalStatusIsFinal(t *testing.T) {
	for _, terminal := range []TaskStatus{StatusSuccess, StatusFailed, StatusMaxIterations} {
		t.Run(string(terminal), func(t *testing.T) {
			s := newTaskState("t", "obj", 3)
			require.NoError(t, s.setStatus(StatusExecuting))
			require.NoError(t, s.setStatus(terminal))

			for _, next := range []TaskStatus{StatusPlanning, StatusExecuting, StatusSuccess, StatusFailed, StatusMaxIterations} {
				if next == terminal {
					continue
				}
				assert.Error(t, s.setStatus(next))
				assert.Equal(t, terminal, s.Status)
			}
		})
	}
}

func TestTaskState_NoReturnToPlanning(t *testing.T) {
	s := newTaskState("t", "obj", 3)
	require.NoError(t, s.setStatus(StatusExecuting))
	assert.Error(t, s.setStatus(StatusPlanning))
	assert.Equal(t, StatusExecuting, s.Status)
}

func TestTaskState_BeginIterationRespectsBound(t *testing.T) {
	s := newTaskState("t", "obj", 2)
	assert.False(t, s.beginIteration(), "no iterations before a plan is applied")

	require.NoError(t, s.applyPlan(Plan{Objective: "o", Steps: []string{"a"}, SuccessCriteria: []string{"b"}}))
	assert.True(t, s.beginIteration())
	assert.True(t, s.canIterate())
	assert.True(t, s.beginIteration())
	assert.False(t, s.canIterate())
	assert.False(t, s.beginIteration())
	assert.Equal(t, 2, s.IterationCount)
}

func TestTaskState_DefaultMaxIterations(t *testing.T) {
	assert.Equal(t, DefaultMaxIterations, newTaskState("t", "o", 0).MaxIterations)
}

func TestTaskState_ApplyPlanOnlyOnce(t *testing.T) {
	s := newTaskState("t", "obj", 2)
	plan := Plan{Objective: "o", Steps: []string{"a"}, SuccessCriteria: []string{"b"}}
	require.NoError(t, s.applyPlan(plan))
	assert.Error(t, s.applyPlan(plan))
}

func TestTaskState_SnapshotIsIndependent(t *testing.T) {
	s := newTaskState("t", "obj", 3)
	require.NoError(t, s.applyPlan(Plan{Objective: "o", Steps: []string{"a"}, SuccessCriteria: []string{"b"}}))
	s.beginIteration()
	s.recordStep(NextAction{ActionName: "x", Arguments: map[string]any{"k": "v"}}, okResult("ok"))
	s.recordError("first")

	snap := s.Snapshot()
	snap.Plan.Steps[0] = "mutated"
	snap.SuccessCriteria[0] = "mutated"
	snap.Errors[0] = "mutated"
	snap.CompletedSteps[0].Arguments["k"] = "mutated"
	snap.CompletedSteps = append(snap.CompletedSteps, StepRecord{})

	assert.Equal(t, "a", s.Plan.Steps[0])
	assert.Equal(t, "b", s.SuccessCriteria[0])
	assert.Equal(t, "first", s.Errors[0])
	assert.Equal(t, "v", s.CompletedSteps[0].Arguments["k"])
	assert.Len(t, s.CompletedSteps, 1)
}

func TestTaskState_SuccessfulSteps(t *testing.T) {
	s := newTaskState("t", "obj", 3)
	s.recordStep(NextAction{ActionName: "a"}, okResult("ok"))
	s.recordStep(NextAction{ActionName: "b"}, failedResult("no"))
	s.recordStep(NextAction{ActionName: "c"}, okResult("ok"))
	assert.Equal(t, 2, s.SuccessfulSteps())
}
