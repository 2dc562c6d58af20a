// internal/agent/planner.go
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/llmutil"
)

// Planner turns an objective into a Plan with a single oracle call.
type Planner struct {
	oracle  schemas.LLMClient
	catalog []schemas.ActionDefinition
	logger  *zap.Logger
}

// NewPlanner creates a planner advertising catalog to the oracle.
func NewPlanner(oracle schemas.LLMClient, catalog []schemas.ActionDefinition, logger *zap.Logger) *Planner {
	return &Planner{oracle: oracle, catalog: catalog, logger: logger.Named("planner")}
}

// GeneratePlan asks the oracle for a plan. It never retries; every failure is
// a *PlanGenerationError.
func (p *Planner) GeneratePlan(ctx context.Context, objective string) (Plan, error) {
	req := schemas.GenerationRequest{
		SystemPrompt: plannerSystemPrompt,
		UserPrompt:   buildPlanningPrompt(objective, p.catalog),
		Tier:         schemas.TierPowerful,
		Options: schemas.GenerationOptions{
			Temperature:     oracleTemperature,
			ForceJSONFormat: true,
		},
	}

	text, err := p.oracle.Generate(ctx, req)
	if err != nil {
		return Plan{}, &PlanGenerationError{Err: fmt.Errorf("oracle call failed: %w", err)}
	}

	raw, err := llmutil.ExtractJSON(text)
	if err != nil {
		p.logger.Debug("Planner received unparsable output", zap.String("raw", llmutil.TruncateString(text, 500)))
		return Plan{}, &PlanGenerationError{Err: err}
	}

	plan, err := planFromMap(raw)
	if err != nil {
		return Plan{}, &PlanGenerationError{Err: err}
	}
	return plan, nil
}

func planFromMap(raw map[string]any) (Plan, error) {
	var plan Plan
	var err error
	if plan.Objective, err = requiredString(raw, "objective"); err != nil {
		return Plan{}, err
	}
	if plan.Steps, err = requiredStringList(raw, "plan"); err != nil {
		return Plan{}, err
	}
	if plan.SuccessCriteria, err = requiredStringList(raw, "success_criteria"); err != nil {
		return Plan{}, err
	}
	return plan, nil
}

func requiredString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", &validationError{field: key, reason: "is missing"}
	}
	s, ok := v.(string)
	if !ok {
		return "", &validationError{field: key, reason: fmt.Sprintf("must be a string, got %T", v)}
	}
	if s = strings.TrimSpace(s); s == "" {
		return "", &validationError{field: key, reason: "is empty"}
	}
	return s, nil
}

func requiredStringList(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, &validationError{field: key, reason: "is missing"}
	}
	items, ok := v.([]any)
	if !ok {
		return nil, &validationError{field: key, reason: fmt.Sprintf("must be a list, got %T", v)}
	}
	out := make([]string, 0, len(items))
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, &validationError{field: fmt.Sprintf("%s[%d]", key, i), reason: fmt.Sprintf("must be a string, got %T", item)}
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out, nil
}
