package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

// waitPollInterval is how often sync --wait checks for pending retries.
const waitPollInterval = 500 * time.Millisecond

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Transfer the session cookies now",
	Long: `Runs a sync attempt immediately, bypassing the debounce window.

The rate limit still applies. If the transfer fails with a retryable error the
agent schedules retries; use --wait to stay until the chain ends and print
its final outcome.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().Bool("wait", false, "wait for scheduled retries to finish")
	syncCmd.Flags().Duration("timeout", 2*time.Minute, "maximum time to wait with --wait")
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, _ []string) error {
	wait, err := cmd.Flags().GetBool("wait")
	if err != nil {
		return fmt.Errorf("getting wait flag: %w", err)
	}
	timeout, err := cmd.Flags().GetDuration("timeout")
	if err != nil {
		return fmt.Errorf("getting timeout flag: %w", err)
	}

	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		cmd.Println("Synchronising session cookies...")

		result, err := agent.SyncNow(ctx, domain.TriggerManualAPI)
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		if _, retrying := result.Metrics["retry_in_ms"]; !retrying || !wait {
			return printResult(cmd, result)
		}

		cmd.Println(result.Message)
		waitCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		outcome, err := waitForChain(waitCtx, agent)
		if err != nil {
			return fmt.Errorf("waiting for retries: %w", err)
		}
		if outcome == nil {
			return errors.New("retries ended without an outcome")
		}
		return printOutcome(cmd, outcome)
	})
}

// waitForChain polls until no attempt is running or pending, then returns
// the persisted outcome.
func waitForChain(ctx context.Context, agent driving.AgentService) (*domain.OutcomeRecord, error) {
	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			status, err := agent.Status(ctx)
			if err != nil {
				return nil, err
			}
			if status.Scheduler.PendingRetries == 0 && !status.Scheduler.SyncInProgress {
				return status.Outcome, nil
			}
		}
	}
}

func printOutcome(cmd *cobra.Command, o *domain.OutcomeRecord) error {
	cmd.Printf("%s (%s, %d retries)\n", o.Message, o.Status, o.RetryCount)
	if o.Status == domain.OutcomeSuccess {
		return nil
	}
	return fmt.Errorf("sync ended with %s", o.Status)
}
