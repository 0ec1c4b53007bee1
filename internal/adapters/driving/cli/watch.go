package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sessync/internal/adapters/driving/tui"
	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the agent with a live dashboard",
	Long: `Runs the sync agent in the foreground and shows its state: companion
presence, the last sync outcome and the scheduler.

Controls:
  s  - Sync now
  t  - Test connection
  r  - Refresh
  ?  - Toggle help
  q  - Quit

When the output is not a terminal the status is printed periodically instead.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("interval", tui.DefaultRefreshInterval, "status refresh interval")
	rootCmd.AddCommand(watchCmd)
}

// isTerminal reports whether w is an interactive terminal.
var isTerminal = func(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func runWatch(cmd *cobra.Command, _ []string) error {
	interval, err := cmd.Flags().GetDuration("interval")
	if err != nil {
		return fmt.Errorf("getting interval flag: %w", err)
	}

	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		if !isTerminal(cmd.OutOrStdout()) {
			return watchPlain(ctx, cmd, agent, interval)
		}

		defer func() {
			if r := recover(); r != nil {
				fmt.Fprintf(os.Stderr, "Panic in dashboard: %v\n", r)
				fmt.Fprintf(os.Stderr, "Stack trace:\n%s\n", debug.Stack())
			}
		}()

		app, err := tui.NewApp(&tui.Ports{Agent: agent})
		if err != nil {
			return fmt.Errorf("failed to create dashboard: %w", err)
		}
		if err := app.WithContext(ctx).WithRefreshInterval(interval).Run(); err != nil {
			return fmt.Errorf("dashboard error: %w", err)
		}
		return nil
	})
}

// watchPlain prints the status every interval until ctx is done.
func watchPlain(ctx context.Context, cmd *cobra.Command, agent driving.AgentService, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		status, err := agent.Status(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		cmd.Printf("--- %s\n", time.Now().Format(time.RFC3339))
		cmd.Print(dashboard.Plain(status, time.Now()))

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
