// File: cmd/scout/main.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/xkilldash9x/scout-cli/cmd"
	"github.com/xkilldash9x/scout-cli/internal/observability"
)

const panicLogFile = "panic.log"

const banner = `
  scout - autonomous web research agent
  Type an objective and press enter. Type 'quit', 'exit' or 'bye' to leave.

`

// Define function variables for dependency injection/mocking in tests.
var (
	osWriteFile = os.WriteFile
	// Allows mocking os.Exit in tests.
	osExit = os.Exit
	// Allows replacing the command runner in tests.
	runCommand = func(ctx context.Context, args []string) error {
		rootCmd := cmd.NewRootCommand()
		rootCmd.SetArgs(args)
		return rootCmd.ExecuteContext(ctx)
	}
)

func main() {
	defer handlePanic()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(os.Args) > 1 {
		if err := cmd.Execute(ctx); err != nil {
			if errors.Is(err, context.Canceled) {
				osExit(0)
			} else {
				osExit(1)
			}
		}
		return
	}

	fmt.Print(banner)
	if err := repl(ctx, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "Error reading from stdin:", err)
		osExit(1)
	}
	observability.Sync()
}

// repl reads one objective per line and runs it until EOF, a quit word, or
// cancellation of ctx.
func repl(ctx context.Context, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		if ctx.Err() != nil {
			break
		}
		fmt.Fprint(out, "scout > ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isQuitWord(line) {
			break
		}

		runObjective(ctx, out, line)
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	fmt.Fprintln(out, "Goodbye!")
	return nil
}

func isQuitWord(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "bye":
		return true
	default:
		return false
	}
}

// runObjective runs a single line as one objective, keeping the shell alive
// across errors and panics.
func runObjective(ctx context.Context, out io.Writer, objective string) {
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(out, "Error: command panicked: %v\n", r)
		}
	}()
	if err := runCommand(ctx, []string{"run", objective}); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}

// handlePanic writes the panic and stack to panicLogFile before exiting.
func handlePanic() {
	r := recover()
	if r == nil {
		return
	}
	observability.Sync()

	panicMessage := fmt.Sprintf("panic: %v\n\n%s", r, debug.Stack())
	if err := osWriteFile(panicLogFile, []byte(panicMessage), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRITICAL: Failed to write panic log: %v\n", err)
		fmt.Fprintf(os.Stderr, "Panic details:\n%s\n", panicMessage)
		osExit(1)
		return
	}
	fmt.Fprintf(os.Stderr, "\nscout crashed. Details logged to %s\n", panicLogFile)
	osExit(1)
}
