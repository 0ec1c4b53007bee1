package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/adapters/driving/tui/views/dashboard"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the last sync outcome and scheduler state",
	RunE:  runStatus,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent sync outcomes",
	RunE:  runHistory,
}

func init() {
	statusCmd.Flags().Bool("json", false, "print JSON")
	historyCmd.Flags().IntP("limit", "n", 10, "number of outcomes to show")
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(historyCmd)
}

func runStatus(cmd *cobra.Command, _ []string) error {
	asJSON, err := cmd.Flags().GetBool("json")
	if err != nil {
		return fmt.Errorf("getting json flag: %w", err)
	}

	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		status, err := agent.Status(ctx)
		if err != nil {
			return err
		}
		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(status)
		}
		cmd.Print(dashboard.Plain(status, time.Now()))
		return nil
	})
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return fmt.Errorf("getting limit flag: %w", err)
	}

	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		outcomes, err := agent.History(ctx, limit)
		if err != nil {
			return err
		}
		if len(outcomes) == 0 {
			cmd.Println("No sync outcomes recorded.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tSTATUS\tTRIGGER\tRETRIES\tMESSAGE")
		for _, o := range outcomes {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n",
				o.Timestamp.Local().Format("2006-01-02 15:04:05"), o.Status, o.Trigger, o.RetryCount, o.Message)
		}
		return w.Flush()
	})
}
