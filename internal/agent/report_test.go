package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildReport(t *testing.T) {
	state := &TaskState{
		Objective:      "find X",
		Status:         StatusSuccess,
		IterationCount: 3,
		CompletedSteps: []StepRecord{
			{Result: okResult("ok")},
			{Result: failedResult("no")},
		},
		Errors: []string{"no"},
	}

	want := "Mission accomplished successfully!\n\n" +
		"Execution Summary\n" +
		reportRule + "\n" +
		"Objective: find X\n" +
		"Iterations: 3\n" +
		"Successful actions: 1\n" +
		"Errors: 1"
	assert.Equal(t, want, BuildReport(state))
}

func TestBuildReport_Headlines(t *testing.T) {
	testCases := map[TaskStatus]string{
		StatusSuccess:       "Mission accomplished successfully!",
		StatusFailed:        "Mission failed",
		StatusMaxIterations: "Maximum number of iterations reached",
		StatusExecuting:     "Mission ended with status: executing",
	}
	for status, want := range testCases {
		t.Run(string(status), func(t *testing.T) {
			report := BuildReport(&TaskState{Status: status})
			assert.Contains(t, report, want)
		})
	}
}
