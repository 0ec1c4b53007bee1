package cli

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/core/ports/driving"
)

var credentialsCmd = &cobra.Command{
	Use:     "credentials",
	Aliases: []string{"cookies"},
	Short:   "Inspect and remove session cookies",
}

var credentialsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the session cookies of the configured domain",
	RunE:  runCredentialsList,
}

var credentialsRemoveCmd = &cobra.Command{
	Use:   "remove <name>",
	Short: "Remove a single cookie",
	Args:  cobra.ExactArgs(1),
	RunE:  runCredentialsRemove,
}

func init() {
	credentialsListCmd.Flags().Bool("show-values", false, "print cookie values")
	credentialsCmd.AddCommand(credentialsListCmd)
	credentialsCmd.AddCommand(credentialsRemoveCmd)
	rootCmd.AddCommand(credentialsCmd)
}

func runCredentialsList(cmd *cobra.Command, _ []string) error {
	showValues, err := cmd.Flags().GetBool("show-values")
	if err != nil {
		return fmt.Errorf("getting show-values flag: %w", err)
	}

	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		result, err := agent.GetCredentials(ctx)
		if err != nil {
			return err
		}
		if !result.Success {
			return errors.New(result.Error)
		}

		cmd.Println(result.Message)
		if len(result.Credentials) == 0 {
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDOMAIN\tREQUIRED\tEXPIRES\tVALUE")
		for _, c := range result.Credentials {
			expires := "session"
			if c.ExpiresAt != nil {
				expires = c.ExpiresAt.Local().Format(time.RFC3339)
			}
			value := fmt.Sprintf("(%d chars)", len(c.Value))
			if showValues {
				value = c.Value
			}
			required := ""
			if c.Required {
				required = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.Name, c.Domain, required, expires, value)
		}
		return w.Flush()
	})
}

func runCredentialsRemove(cmd *cobra.Command, args []string) error {
	return withAgent(cmd, func(ctx context.Context, agent driving.AgentService) error {
		result, err := agent.RemoveCredential(ctx, args[0])
		if err != nil {
			return err
		}
		return printResult(cmd, result)
	})
}
