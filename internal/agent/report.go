// internal/agent/report.go
package agent

import (
	"fmt"
	"strings"
)

const reportRule = "=================================================="

// BuildReport renders the human-readable summary of a finished task.
func BuildReport(state *TaskState) string {
	var b strings.Builder
	b.WriteString(headline(state.Status))
	b.WriteString("\n\nExecution Summary\n")
	b.WriteString(reportRule)
	b.WriteString("\n")
	fmt.Fprintf(&b, "Objective: %s\n", state.Objective)
	fmt.Fprintf(&b, "Iterations: %d\n", state.IterationCount)
	fmt.Fprintf(&b, "Successful actions: %d\n", state.SuccessfulSteps())
	fmt.Fprintf(&b, "Errors: %d", len(state.Errors))
	return b.String()
}

func headline(status TaskStatus) string {
	switch status {
	case StatusSuccess:
		return "Mission accomplished successfully!"
	case StatusFailed:
		return "Mission failed"
	case StatusMaxIterations:
		return "Maximum number of iterations reached"
	default:
		return fmt.Sprintf("Mission ended with status: %s", status)
	}
}
