package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

// DBPool is an interface that abstracts the pgxpool.Pool to allow for mocking in tests.
type DBPool interface {
	Ping(ctx context.Context) error
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

const (
	sqlCreateTasks = `
        CREATE TABLE IF NOT EXISTS tasks (
            task_id TEXT PRIMARY KEY,
            request TEXT NOT NULL,
            objective TEXT NOT NULL,
            plan JSONB NOT NULL,
            success_criteria JSONB NOT NULL,
            status TEXT NOT NULL,
            iteration_count INTEGER NOT NULL,
            max_iterations INTEGER NOT NULL,
            errors JSONB NOT NULL,
            started_at TIMESTAMPTZ NOT NULL,
            finished_at TIMESTAMPTZ NOT NULL
        );
    `
	sqlCreateSteps = `
        CREATE TABLE IF NOT EXISTS task_steps (
            task_id TEXT NOT NULL REFERENCES tasks (task_id) ON DELETE CASCADE,
            seq INTEGER NOT NULL,
            iteration INTEGER NOT NULL,
            function_name TEXT NOT NULL,
            arguments JSONB NOT NULL,
            success BOOLEAN NOT NULL,
            message TEXT NOT NULL,
            payload JSONB NOT NULL,
            reasoning TEXT NOT NULL,
            PRIMARY KEY (task_id, seq)
        );
    `
	sqlInsertTask = `
        INSERT INTO tasks (task_id, request, objective, plan, success_criteria, status, iteration_count, max_iterations, errors, started_at, finished_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
    `
	sqlInsertStep = `
        INSERT INTO task_steps (task_id, seq, iteration, function_name, arguments, success, message, payload, reasoning)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9);
    `
)

// PostgresArchive records finished tasks in PostgreSQL: one tasks row and one
// task_steps row per executed action, written in a single transaction.
type PostgresArchive struct {
	pool DBPool
	log  *zap.Logger
}

var _ schemas.Archiver = (*PostgresArchive)(nil)

// NewPostgresArchive verifies the connection and returns the archive.
func NewPostgresArchive(ctx context.Context, pool DBPool, logger *zap.Logger) (*PostgresArchive, error) {
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PostgresArchive{pool: pool, log: logger.Named("postgres_archive")}, nil
}

// EnsureSchema creates the archive tables if they do not exist.
func (s *PostgresArchive) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{sqlCreateTasks, sqlCreateSteps} {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to create archive schema: %w", err)
		}
	}
	return nil
}

// Archive inserts the task and its steps.
func (s *PostgresArchive) Archive(ctx context.Context, rec schemas.TaskRecord) (err error) {
	plan, err := jsonText(nonNil(rec.Plan))
	if err != nil {
		return fmt.Errorf("failed to encode plan: %w", err)
	}
	criteria, err := jsonText(nonNil(rec.SuccessCriteria))
	if err != nil {
		return fmt.Errorf("failed to encode success criteria: %w", err)
	}
	errs, err := jsonText(nonNil(rec.Errors))
	if err != nil {
		return fmt.Errorf("failed to encode errors: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			s.log.Error("Failed to rollback transaction", zap.String("task_id", rec.TaskID), zap.Error(rollbackErr))
		}
	}()

	if _, err := tx.Exec(ctx, sqlInsertTask,
		rec.TaskID, rec.Request, rec.Objective, plan, criteria, rec.Status,
		rec.IterationCount, rec.MaxIterations, errs,
		rec.StartedAt.UTC(), rec.FinishedAt.UTC(),
	); err != nil {
		return fmt.Errorf("failed to insert task %s: %w", rec.TaskID, err)
	}

	for i, step := range rec.Steps {
		args, err := jsonText(nonNilMap(step.Arguments))
		if err != nil {
			return fmt.Errorf("failed to encode arguments of step %d: %w", i, err)
		}
		payload, err := jsonText(nonNilMap(step.Payload))
		if err != nil {
			return fmt.Errorf("failed to encode payload of step %d: %w", i, err)
		}
		if _, err := tx.Exec(ctx, sqlInsertStep,
			rec.TaskID, i+1, step.Iteration, step.ActionName, args,
			step.Succeeded, step.Message, payload, step.Reasoning,
		); err != nil {
			return fmt.Errorf("failed to insert step %d of task %s: %w", i+1, rec.TaskID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func jsonText(v any) (string, error) {
	return json.MarshalToString(v)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
