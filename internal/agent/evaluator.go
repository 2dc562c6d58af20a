// internal/agent/evaluator.go
package agent

import (
	"context"
	"fmt"
	"strings"

	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/llmutil"
)

// evaluationContext is the part of the task the oracle sees each round.
type evaluationContext struct {
	Objective       string       `json:"objective"`
	Plan            []string     `json:"plan"`
	SuccessCriteria []string     `json:"success_criteria"`
	CompletedSteps  []StepRecord `json:"completed_steps"`
	Errors          []string     `json:"errors"`
	IterationCount  int          `json:"iteration_count"`
	MaxIterations   int          `json:"max_iterations"`
}

// Evaluator decides, from a state snapshot, whether the task is done and
// which action to run next.
type Evaluator struct {
	oracle  schemas.LLMClient
	catalog []schemas.ActionDefinition
	logger  *zap.Logger
}

// NewEvaluator creates an evaluator advertising catalog to the oracle.
func NewEvaluator(oracle schemas.LLMClient, catalog []schemas.ActionDefinition, logger *zap.Logger) *Evaluator {
	return &Evaluator{oracle: oracle, catalog: catalog, logger: logger.Named("evaluator")}
}

// Evaluate makes one oracle call. The returned error is always an
// *EvaluationError; the caller decides how to record it.
func (e *Evaluator) Evaluate(ctx context.Context, snapshot TaskState) (Evaluation, error) {
	fail := func(err error) (Evaluation, error) {
		return Evaluation{}, &EvaluationError{Iteration: snapshot.IterationCount, Err: err}
	}

	stateJSON, err := json.MarshalIndent(evaluationContext{
		Objective:       snapshot.Objective,
		Plan:            snapshot.Plan.Steps,
		SuccessCriteria: snapshot.SuccessCriteria,
		CompletedSteps:  snapshot.CompletedSteps,
		Errors:          snapshot.Errors,
		IterationCount:  snapshot.IterationCount,
		MaxIterations:   snapshot.MaxIterations,
	}, "", "  ")
	if err != nil {
		return fail(fmt.Errorf("failed to serialize task state: %w", err))
	}

	req := schemas.GenerationRequest{
		SystemPrompt: evaluatorSystemPrompt,
		UserPrompt:   buildEvaluationPrompt(string(stateJSON), e.catalog),
		Tier:         schemas.TierFast,
		Options: schemas.GenerationOptions{
			Temperature:     oracleTemperature,
			ForceJSONFormat: true,
		},
	}

	text, err := e.oracle.Generate(ctx, req)
	if err != nil {
		return fail(fmt.Errorf("oracle call failed: %w", err))
	}

	raw, err := llmutil.ExtractJSON(text)
	if err != nil {
		e.logger.Debug("Evaluator received unparsable output", zap.String("raw", llmutil.TruncateString(text, 500)))
		return fail(err)
	}

	eval, err := evaluationFromMap(raw)
	if err != nil {
		return fail(err)
	}
	return eval, nil
}

func evaluationFromMap(raw map[string]any) (Evaluation, error) {
	var eval Evaluation
	var err error
	if eval.ObjectiveAchieved, err = requiredBool(raw, "objective_achieved"); err != nil {
		return Evaluation{}, err
	}
	if eval.ShouldContinue, err = optionalBool(raw, "should_continue", true); err != nil {
		return Evaluation{}, err
	}
	if note, ok := raw["status_update"].(string); ok {
		eval.StatusNote = note
	}

	switch next := raw["next_action"].(type) {
	case nil:
	case map[string]any:
		action, err := nextActionFromMap(next)
		if err != nil {
			return Evaluation{}, err
		}
		eval.NextAction = action
	default:
		return Evaluation{}, &validationError{field: "next_action", reason: fmt.Sprintf("must be an object or null, got %T", next)}
	}
	return eval, nil
}

// nextActionFromMap returns nil for an object that names no action, so an
// empty next_action reads as a dead end rather than a malformed reply.
func nextActionFromMap(raw map[string]any) (*NextAction, error) {
	name, _ := raw["function_name"].(string)
	if strings.TrimSpace(name) == "" {
		name, _ = raw["action_name"].(string)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	action := &NextAction{ActionName: name, Arguments: map[string]any{}}
	switch args := raw["arguments"].(type) {
	case nil:
	case map[string]any:
		action.Arguments = args
	default:
		return nil, &validationError{field: "next_action.arguments", reason: fmt.Sprintf("must be an object, got %T", args)}
	}
	if reasoning, ok := raw["reasoning"].(string); ok {
		action.Reasoning = reasoning
	}
	return action, nil
}

func requiredBool(raw map[string]any, key string) (bool, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return false, &validationError{field: key, reason: "is missing"}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &validationError{field: key, reason: fmt.Sprintf("must be a boolean, got %T", v)}
	}
	return b, nil
}

func optionalBool(raw map[string]any, key string, def bool) (bool, error) {
	if v, ok := raw[key]; !ok || v == nil {
		return def, nil
	}
	return requiredBool(raw, key)
}
