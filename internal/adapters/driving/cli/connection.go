package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check that the backend is reachable",
	Long: `Requires the companion application to be open, then requests the
backend session status over HTTPS, falling back to plain HTTP. On failure it
prints troubleshooting hints.`,
	RunE: runTestConnection,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every session cookie and reset the stored status",
	RunE:  runClear,
}

func init() {
	rootCmd.AddCommand(testConnectionCmd)
	rootCmd.AddCommand(clearCmd)
}

func runTestConnection(cmd *cobra.Command, _ []string) error {
	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		result, err := agent.TestConnection(ctx)
		if err != nil {
			return err
		}

		if d := result.Diagnostic; d != nil {
			if d.Method != "" {
				cmd.Printf("Method:         %s\n", d.Method)
			}
			if d.URL != "" {
				cmd.Printf("URL:            %s\n", d.URL)
			}
			if d.StatusCode > 0 {
				cmd.Printf("Status code:    %d\n", d.StatusCode)
			}
			if d.Success {
				cmd.Printf("Session active: %t\n", d.SessionActive)
			}
			for _, hint := range d.Troubleshooting {
				cmd.Printf("  - %s\n", hint)
			}
		}
		return printResult(cmd, result)
	})
}

func runClear(cmd *cobra.Command, _ []string) error {
	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		result, err := agent.ClearAll(ctx)
		if err != nil {
			return err
		}
		return printResult(cmd, result)
	})
}
