package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/actions"
	"github.com/xkilldash9x/scout-cli/internal/agent"
	"github.com/xkilldash9x/scout-cli/internal/browser"
	"github.com/xkilldash9x/scout-cli/internal/config"
	"github.com/xkilldash9x/scout-cli/internal/llmclient"
	"github.com/xkilldash9x/scout-cli/internal/observability"
	"github.com/xkilldash9x/scout-cli/internal/store"
)

// taskRuntime runs objectives with collaborators shared across tasks.
type taskRuntime interface {
	RunTask(ctx context.Context, index int, objective string) string
	Close() error
}

// Allows for mocking in tests.
var startRuntime = func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (taskRuntime, error) {
	return newAgentRuntime(ctx, cfg, logger)
}

func newRunCmd() *cobra.Command {
	var (
		parallel      int
		maxIterations int
		headless      bool
	)

	runCmd := &cobra.Command{
		Use:   "run [objective...]",
		Short: "Carry out one or more objectives and print a report for each",
		Long: `Each argument is one objective. Quote objectives that contain spaces:

  scout run "find the opening hours of the Louvre"
  scout run --parallel 2 "weather in Paris" "weather in Rome"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if parallel < 1 {
				return fmt.Errorf("--parallel must be at least 1")
			}
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			if maxIterations > 0 {
				cfg.SetAgentMaxIterations(maxIterations)
			}
			if cmd.Flags().Changed("headless") {
				cfg.SetBrowserHeadless(headless)
			}

			objectives := make([]string, 0, len(args))
			for _, arg := range args {
				if obj := strings.TrimSpace(arg); obj != "" {
					objectives = append(objectives, obj)
				}
			}
			if len(objectives) == 0 {
				return fmt.Errorf("no objective given")
			}

			logger := observability.GetLogger()
			rt, err := startRuntime(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				if closeErr := rt.Close(); closeErr != nil {
					logger.Warn("Error while shutting down.", zap.Error(closeErr))
				}
			}()

			reports := runObjectives(cmd.Context(), rt, objectives, parallel)
			printReports(cmd.OutOrStdout(), objectives, reports)
			return cmd.Context().Err()
		},
	}

	runCmd.Flags().IntVarP(&parallel, "parallel", "p", 1, "number of objectives to run at the same time")
	runCmd.Flags().IntVar(&maxIterations, "max-iterations", 0, "override agent.max_iterations")
	runCmd.Flags().BoolVar(&headless, "headless", true, "run the browser without a window")
	return runCmd
}

// runObjectives runs every objective with at most parallel in flight and
// returns the reports in input order.
func runObjectives(ctx context.Context, rt taskRuntime, objectives []string, parallel int) []string {
	reports := make([]string, len(objectives))
	var g errgroup.Group
	g.SetLimit(parallel)
	for i, objective := range objectives {
		g.Go(func() error {
			reports[i] = rt.RunTask(ctx, i, objective)
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

func printReports(w io.Writer, objectives, reports []string) {
	if len(reports) == 1 {
		fmt.Fprintln(w, reports[0])
		return
	}
	for i, report := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "[%d/%d] %s\n%s\n", i+1, len(reports), objectives[i], report)
	}
}

// agentRuntime is the production taskRuntime: one oracle client, one archive
// and one browser allocator shared by all tasks, with a browser session and
// orchestrator per task.
type agentRuntime struct {
	cfg     *config.Config
	logger  *zap.Logger
	oracle  schemas.LLMClient
	archive store.Archive
	alloc   *browser.Allocator
}

func newAgentRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*agentRuntime, error) {
	oracle, err := llmclient.NewClient(ctx, cfg.Agent(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}
	archive, err := store.Open(ctx, cfg.Archive(), logger)
	if err != nil {
		_ = oracle.Close()
		return nil, fmt.Errorf("failed to open task archive: %w", err)
	}
	return &agentRuntime{
		cfg:     cfg,
		logger:  logger,
		oracle:  oracle,
		archive: archive,
		// Chrome is only launched once a task first needs a page.
		alloc: browser.NewAllocator(context.WithoutCancel(ctx), cfg, logger),
	}, nil
}

func (r *agentRuntime) RunTask(ctx context.Context, index int, objective string) string {
	session := r.alloc.NewSession(fmt.Sprintf("task-%d", index+1))
	defer func() {
		if err := session.Close(); err != nil {
			r.logger.Debug("Browser session close failed.", zap.Error(err))
		}
	}()

	orchestrator := agent.NewOrchestrator(
		r.oracle,
		actions.NewRegistry(r.logger, session),
		r.logger,
		agent.WithAgentConfig(r.cfg.Agent()),
		agent.WithArchiver(r.archive),
	)
	return orchestrator.Execute(ctx, objective)
}

func (r *agentRuntime) Close() error {
	r.alloc.Close()
	return errors.Join(r.archive.Close(), r.oracle.Close())
}
