// internal/agent/orchestrator.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/config"
)

// Allows for mocking in tests.
var uuidNewString = uuid.NewString

const archiveTimeout = 10 * time.Second

// Orchestrator drives one task at a time through plan, evaluate and act.
type Orchestrator struct {
	logger        *zap.Logger
	planner       *Planner
	evaluator     *Evaluator
	executor      schemas.ActionExecutor
	archiver      schemas.Archiver
	catalog       []schemas.ActionDefinition
	maxIterations int
	oracleTimeout time.Duration
	actionTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithMaxIterations bounds the number of evaluator rounds per task.
func WithMaxIterations(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

// WithOracleTimeout bounds each planner and evaluator call. Zero means no bound.
func WithOracleTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.oracleTimeout = d }
}

// WithActionTimeout bounds each action invocation. Zero means no bound.
func WithActionTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.actionTimeout = d }
}

// WithArchiver stores every finished task.
func WithArchiver(a schemas.Archiver) Option {
	return func(o *Orchestrator) { o.archiver = a }
}

// WithCatalog overrides the action catalog advertised to the oracle. By default
// it is taken from the executor when the executor implements
// schemas.ActionCatalog.
func WithCatalog(defs []schemas.ActionDefinition) Option {
	return func(o *Orchestrator) { o.catalog = defs }
}

// WithAgentConfig applies the iteration and timeout settings from cfg.
func WithAgentConfig(cfg config.AgentConfig) Option {
	return func(o *Orchestrator) {
		WithMaxIterations(cfg.MaxIterations)(o)
		o.oracleTimeout = cfg.OracleTimeout
		o.actionTimeout = cfg.ActionTimeout
	}
}

// NewOrchestrator wires the oracle and the executor together.
func NewOrchestrator(oracle schemas.LLMClient, executor schemas.ActionExecutor, logger *zap.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		logger:        logger.Named("orchestrator"),
		executor:      executor,
		maxIterations: DefaultMaxIterations,
	}
	if c, ok := executor.(schemas.ActionCatalog); ok {
		o.catalog = c.Definitions()
	}
	for _, opt := range opts {
		opt(o)
	}
	o.planner = NewPlanner(oracle, o.catalog, logger)
	o.evaluator = NewEvaluator(oracle, o.catalog, logger)
	return o
}

// Run carries one objective to a terminal status. A *PlanGenerationError is
// the only error it returns; the state is returned alongside it, still in the
// planning status.
func (o *Orchestrator) Run(ctx context.Context, objective string) (*TaskState, error) {
	state := newTaskState(uuidNewString(), objective, o.maxIterations)
	logger := o.logger.With(zap.String("task_id", state.ID))

	logger.Info("Creating action plan...", zap.String("request", objective))
	plan, err := o.generatePlan(ctx, objective)
	if err != nil {
		logger.Error("Plan generation failed.", zap.Error(err))
		return state, err
	}
	if err := state.applyPlan(plan); err != nil {
		return state, &PlanGenerationError{Err: err}
	}

	logger.Info("Objective", zap.String("objective", state.Objective))
	logger.Info("Plan", zap.Int("steps", len(state.Plan.Steps)))
	for i, step := range state.Plan.Steps {
		logger.Info("Plan step", zap.Int("index", i+1), zap.String("step", step))
	}

	o.loop(ctx, state, logger)

	if state.Status == StatusExecuting {
		o.transition(state, StatusMaxIterations, logger)
		logger.Warn("Maximum number of iterations reached.", zap.Int("max_iterations", state.MaxIterations))
	}

	o.archive(ctx, state, logger)
	return state, nil
}

func (o *Orchestrator) loop(ctx context.Context, state *TaskState, logger *zap.Logger) {
	// The bound is checked before cancellation so a spent budget always
	// ends as max_iterations.
	for state.canIterate() {
		if err := ctx.Err(); err != nil {
			state.recordError(fmt.Sprintf("task canceled: %v", err))
			o.transition(state, StatusFailed, logger)
			logger.Warn("Task canceled.", zap.Error(err))
			return
		}
		state.beginIteration()
		logger.Info("Iteration", zap.Int("iteration", state.IterationCount), zap.Int("max_iterations", state.MaxIterations))

		eval, err := o.evaluate(ctx, state.Snapshot())
		if err != nil {
			state.recordError(evaluationMessage(err))
			logger.Warn("Evaluation failed.", zap.Error(err))
			continue
		}
		if eval.StatusNote != "" {
			logger.Info("Status update", zap.String("status", eval.StatusNote))
		}

		if eval.ObjectiveAchieved {
			o.transition(state, StatusSuccess, logger)
			logger.Info("Objective achieved!")
			return
		}
		if !eval.ShouldContinue {
			o.transition(state, StatusFailed, logger)
			logger.Info("Execution stopped")
			return
		}
		if eval.NextAction == nil {
			o.transition(state, StatusFailed, logger)
			logger.Warn("No action determined")
			return
		}

		action := *eval.NextAction
		logger.Info("Executing action",
			zap.String("action", action.ActionName),
			zap.Any("arguments", action.Arguments),
			zap.String("reasoning", action.Reasoning),
		)
		result := o.invoke(ctx, action)
		state.recordStep(action, result)
		if result.Succeeded {
			logger.Info("Action succeeded", zap.String("message", result.Message))
		} else {
			state.recordError(result.Message)
			logger.Warn("Action failed", zap.String("message", result.Message))
		}
	}
}

// Execute runs the objective and renders the outcome for a human.
func (o *Orchestrator) Execute(ctx context.Context, objective string) string {
	state, err := o.Run(ctx, objective)
	if err != nil {
		var planErr *PlanGenerationError
		if errors.As(err, &planErr) {
			return fmt.Sprintf("Error creating plan: %v", planErr.Err)
		}
		return fmt.Sprintf("Error: %v", err)
	}
	return BuildReport(state)
}

func (o *Orchestrator) generatePlan(ctx context.Context, objective string) (Plan, error) {
	callCtx, cancel := withOptionalTimeout(ctx, o.oracleTimeout)
	defer cancel()
	return o.planner.GeneratePlan(callCtx, objective)
}

func (o *Orchestrator) evaluate(ctx context.Context, snapshot TaskState) (Evaluation, error) {
	callCtx, cancel := withOptionalTimeout(ctx, o.oracleTimeout)
	defer cancel()
	return o.evaluator.Evaluate(callCtx, snapshot)
}

func (o *Orchestrator) invoke(ctx context.Context, action NextAction) schemas.ActionResult {
	callCtx, cancel := withOptionalTimeout(ctx, o.actionTimeout)
	defer cancel()
	return o.executor.Invoke(callCtx, action.ActionName, maps.Clone(action.Arguments))
}

// transition applies a status change, logging and ignoring attempts to leave
// a terminal status.
func (o *Orchestrator) transition(state *TaskState, next TaskStatus, logger *zap.Logger) {
	if err := state.setStatus(next); err != nil {
		logger.Warn("Attempted to transition out of a terminal state. Ignoring.", zap.Error(err))
	}
}

func (o *Orchestrator) archive(ctx context.Context, state *TaskState, logger *zap.Logger) {
	if o.archiver == nil {
		return
	}
	// The task is finished; archive even when the caller has already canceled.
	archiveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), archiveTimeout)
	defer cancel()
	if err := o.archiver.Archive(archiveCtx, ToRecord(state)); err != nil {
		logger.Error("Failed to archive task.", zap.Error(err))
	}
}

// ToRecord converts a state into its archived form.
func ToRecord(state *TaskState) schemas.TaskRecord {
	snap := state.Snapshot()
	steps := make([]schemas.TaskStepRecord, len(snap.CompletedSteps))
	for i, step := range snap.CompletedSteps {
		steps[i] = schemas.TaskStepRecord{
			Iteration:  step.Iteration,
			ActionName: step.ActionName,
			Arguments:  step.Arguments,
			Succeeded:  step.Result.Succeeded,
			Message:    step.Result.Message,
			Payload:    step.Result.Payload,
			Reasoning:  step.Reasoning,
		}
	}
	return schemas.TaskRecord{
		TaskID:          snap.ID,
		Request:         snap.Request,
		Objective:       snap.Objective,
		Plan:            snap.Plan.Steps,
		SuccessCriteria: snap.SuccessCriteria,
		Status:          string(snap.Status),
		IterationCount:  snap.IterationCount,
		MaxIterations:   snap.MaxIterations,
		Steps:           steps,
		Errors:          snap.Errors,
		StartedAt:       snap.StartedAt,
		FinishedAt:      snap.FinishedAt,
	}
}

func evaluationMessage(err error) string {
	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return fmt.Sprintf("Error evaluating: %v", evalErr.Err)
	}
	return fmt.Sprintf("Error evaluating: %v", err)
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
