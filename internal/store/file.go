package store

import (
	"context"
	"fmt"
	"io"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FileArchive appends one JSON line per finished task to a size-rotated file.
// It is safe for concurrent use by parallel tasks.
type FileArchive struct {
	mu sync.Mutex
	w  io.WriteCloser
}

var _ schemas.Archiver = (*FileArchive)(nil)

// NewFileArchive opens the archive described by cfg. The file is created on
// the first write.
func NewFileArchive(cfg config.ArchiveConfig) *FileArchive {
	return newFileArchive(&lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
	})
}

func newFileArchive(w io.WriteCloser) *FileArchive {
	return &FileArchive{w: w}
}

// Archive writes rec as a single line.
func (a *FileArchive) Archive(ctx context.Context, rec schemas.TaskRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode task %s: %w", rec.TaskID, err)
	}
	line = append(line, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, err := a.w.Write(line); err != nil {
		return fmt.Errorf("failed to write task %s: %w", rec.TaskID, err)
	}
	return nil
}

// Close closes the underlying file.
func (a *FileArchive) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.w.Close()
}
