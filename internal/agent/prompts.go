// internal/agent/prompts.go
package agent

import (
	"fmt"
	"strings"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

const oracleTemperature = 0.1

const plannerSystemPrompt = `You are the planning component of 'scout', an autonomous web research agent.
You turn a user request into a concrete plan that can be carried out using only a web search engine and a browser.
You must respond with a single JSON object and nothing else.`

const evaluatorSystemPrompt = `You are the evaluation component of 'scout', an autonomous web research agent.
You receive the current state of a task as JSON and decide what happens next.
You must respond with a single JSON object and nothing else.`

// renderCatalog lists the actions the way both prompts advertise them.
func renderCatalog(defs []schemas.ActionDefinition) string {
	var b strings.Builder
	for _, def := range defs {
		params := make([]string, 0, len(def.Parameters))
		for _, p := range def.Parameters {
			param := p.Name + ": " + p.Type
			if !p.Required {
				param += " (optional)"
			}
			params = append(params, param)
		}
		fmt.Fprintf(&b, "- %s(%s): %s\n", def.Name, strings.Join(params, ", "), def.Description)
	}
	return b.String()
}

func buildPlanningPrompt(objective string, defs []schemas.ActionDefinition) string {
	return fmt.Sprintf(`Analyze this user request and create a detailed action plan: "%s".
Remember you can only search on google and open websites.

Respond in JSON with the following format:
{
    "objective": "Clear description of the objective",
    "plan": ["Step 1", "Step 2", "..."],
    "success_criteria": ["Criterion 1", "Criterion 2", "..."]
}

Available functions:
%s
Create a realistic plan with concrete and measurable steps. Do not do the same thing twice.`, objective, renderCatalog(defs))
}

func buildEvaluationPrompt(stateJSON string, defs []schemas.ActionDefinition) string {
	return fmt.Sprintf(`Evaluate the current state of the task and decide on the next action.

Current context:
%s

Available functions:
%s
Analyze:
1. Is the objective achieved?
2. Should we continue?
3. Is there an error that requires adapting the plan?

Respond in JSON:
{
    "objective_achieved": true/false,
    "should_continue": true/false,
    "next_action": {
        "function_name": "function_name",
        "arguments": {"param": "value"},
        "reasoning": "Why this action"
    },
    "status_update": "Description of the current state"
}

If the objective is achieved, set should_continue to false.
If a critical error prevents continuing, set should_continue to false.
Do not do the same thing twice.`, stateJSON, renderCatalog(defs))
}
