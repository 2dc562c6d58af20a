package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/hpcloud/tail"
	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/config"
	"github.com/xkilldash9x/scout-cli/internal/observability"
)

func newHistoryCmd() *cobra.Command {
	var (
		follow bool
		limit  int
	)

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "List tasks recorded in the file archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			archive := cfg.Archive()
			if archive.Type != config.ArchiveFile {
				return fmt.Errorf("history needs archive.type=%s (current: %q)", config.ArchiveFile, archive.Type)
			}

			t, err := tail.TailFile(archive.Path, tail.Config{
				Follow:    follow,
				ReOpen:    follow,
				MustExist: !follow,
				Logger:    tail.DiscardingLogger,
			})
			if err != nil {
				return fmt.Errorf("failed to open archive %s: %w", archive.Path, err)
			}
			defer t.Cleanup()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "FINISHED\tSTATUS\tITER\tOBJECTIVE")

			logger := observability.GetLogger()
			if !follow {
				var records []schemas.TaskRecord
				for line := range t.Lines {
					if rec, ok := decodeRecord(line, logger); ok {
						records = append(records, rec)
					}
				}
				if limit > 0 && len(records) > limit {
					records = records[len(records)-limit:]
				}
				for _, rec := range records {
					writeRecordRow(w, rec)
				}
				return nil
			}

			w.Flush()
			for {
				select {
				case <-cmd.Context().Done():
					_ = t.Stop()
					return nil
				case line, ok := <-t.Lines:
					if !ok {
						return t.Err()
					}
					if rec, ok := decodeRecord(line, logger); ok {
						writeRecordRow(w, rec)
						w.Flush()
					}
				}
			}
		},
	}

	historyCmd.Flags().BoolVarP(&follow, "follow", "f", false, "keep printing tasks as they are archived")
	historyCmd.Flags().IntVarP(&limit, "limit", "n", 0, "show only the last N tasks (0 shows all)")
	return historyCmd
}

func decodeRecord(line *tail.Line, logger *zap.Logger) (schemas.TaskRecord, bool) {
	var rec schemas.TaskRecord
	if line.Err != nil {
		logger.Warn("Error reading archive.", zap.Error(line.Err))
		return rec, false
	}
	text := strings.TrimSpace(line.Text)
	if text == "" {
		return rec, false
	}
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.UnmarshalFromString(text, &rec); err != nil {
		logger.Warn("Skipping unreadable archive line.", zap.Error(err))
		return rec, false
	}
	return rec, true
}

func writeRecordRow(w io.Writer, rec schemas.TaskRecord) {
	finished := "-"
	if !rec.FinishedAt.IsZero() {
		finished = rec.FinishedAt.Local().Format(time.DateTime)
	}
	objective := rec.Objective
	if objective == "" {
		objective = rec.Request
	}
	fmt.Fprintf(w, "%s\t%s\t%d/%d\t%s\n", finished, rec.Status, rec.IterationCount, rec.MaxIterations, objective)
}
