package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the sync agent",
	Long: `Runs the sync agent until interrupted.

The agent watches the cookie file (or accepts pushed cookies), tracks whether
the companion application is open, and exposes the local HTTP API used by
the host.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("closing agent: %v", err)
		}
	}()

	logger.Section("sessync " + version)
	return rt.Serve(cmd.Context())
}
