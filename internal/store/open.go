package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/config"
)

// Archive is an Archiver that holds resources until closed.
type Archive interface {
	schemas.Archiver
	Close() error
}

type nopArchive struct{}

func (nopArchive) Archive(context.Context, schemas.TaskRecord) error { return nil }
func (nopArchive) Close() error                                      { return nil }

type pooledArchive struct {
	*PostgresArchive
	pool *pgxpool.Pool
}

func (p *pooledArchive) Close() error {
	p.pool.Close()
	return nil
}

// Open builds the archive selected by cfg.Type.
func Open(ctx context.Context, cfg config.ArchiveConfig, logger *zap.Logger) (Archive, error) {
	switch cfg.Type {
	case config.ArchiveNone, "":
		return nopArchive{}, nil
	case config.ArchiveFile:
		logger.Debug("Archiving tasks to file", zap.String("path", cfg.Path))
		return NewFileArchive(cfg), nil
	case config.ArchivePostgres:
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to create database pool: %w", err)
		}
		archive, err := NewPostgresArchive(ctx, pool, logger)
		if err != nil {
			pool.Close()
			return nil, err
		}
		if err := archive.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, err
		}
		return &pooledArchive{PostgresArchive: archive, pool: pool}, nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
