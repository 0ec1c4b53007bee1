// Package cli implements the sessync command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/core/ports/driven"
	"github.com/custodia-labs/sessync/internal/core/ports/driving"
	"github.com/custodia-labs/sessync/internal/logger"
)

// Runtime is a wired agent the commands run against.
type Runtime interface {
	// Agent returns the command surface.
	Agent() driving.AgentService

	// Start runs the agent in the background until the returned stop is called.
	Start(ctx context.Context) (stop func())

	// Serve runs the agent with its host-facing adapters until ctx is done.
	Serve(ctx context.Context) error

	// Close releases the runtime's resources.
	Close() error
}

// RuntimeFactory builds a runtime from settings.
type RuntimeFactory func(settings domain.Settings) (Runtime, error)

var (
	version = "dev"
	verbose bool

	configStore driven.ConfigStore
	newRuntime  RuntimeFactory
)

var errNotConfigured = errors.New("sessync is not configured")

var rootCmd = &cobra.Command{
	Use:   "sessync",
	Short: "Keep a backend in sync with your browser session",
	Long: `sessync watches the session cookies of a web domain and transfers them
to a backend while the companion application is open.

Run "sessync serve" to start the agent; the other commands run a single
operation and exit.`,
	SilenceUsage: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// SetVersion sets the version reported by the agent and the version command.
func SetVersion(v string) {
	version = v
}

// SetConfigStore sets the configuration store commands read and write.
func SetConfigStore(store driven.ConfigStore) {
	configStore = store
}

// SetRuntimeFactory sets how commands build the agent.
func SetRuntimeFactory(f RuntimeFactory) {
	newRuntime = f
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

// loadSettings resolves the effective settings.
func loadSettings() (domain.Settings, error) {
	if configStore == nil {
		return domain.Settings{}, errNotConfigured
	}
	s, err := file.LoadSettings(configStore)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("loading settings: %w", err)
	}
	return s, nil
}

// openRuntime builds the runtime from the effective settings.
func openRuntime() (Runtime, error) {
	if newRuntime == nil {
		return nil, errNotConfigured
	}
	s, err := loadSettings()
	if err != nil {
		return nil, err
	}
	rt, err := newRuntime(s)
	if err != nil {
		return nil, fmt.Errorf("starting agent: %w", err)
	}
	return rt, nil
}

// withAgent runs fn against a started agent and shuts it down afterwards.
func withAgent(cmd *cobra.Command, fn func(ctx context.Context, agent driving.AgentService) error) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			logger.Warn("closing agent: %v", err)
		}
	}()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	stop := rt.Start(ctx)
	defer stop()

	return fn(ctx, rt.Agent())
}

// printResult writes a command result and turns a failure into an error.
func printResult(cmd *cobra.Command, result *domain.CommandResult) error {
	if result.Message != "" {
		cmd.Println(result.Message)
	}
	if result.Success {
		return nil
	}
	if result.Error != "" {
		return errors.New(result.Error)
	}
	return errors.New("command failed")
}
