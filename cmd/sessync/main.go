// Command sessync keeps a backend in sync with a browser session.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sessync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sessync/internal/adapters/driving/cli"
	"github.com/custodia-labs/sessync/internal/app"
	"github.com/custodia-labs/sessync/internal/core/domain"
	"github.com/custodia-labs/sessync/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	defer logger.Sync()

	if err := file.LoadEnvFile(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}

	store, err := file.NewConfigStore(os.Getenv("SESSYNC_CONFIG_DIR"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error: opening config:", err)
		return 1
	}

	cli.SetVersion(version)
	cli.SetConfigStore(store)
	cli.SetRuntimeFactory(func(s domain.Settings) (cli.Runtime, error) {
		a, err := app.New(s, app.Options{Version: version})
		if err != nil {
			return nil, err
		}
		return a, nil
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		// cobra has already printed the error.
		return 1
	}
	return 0
}
