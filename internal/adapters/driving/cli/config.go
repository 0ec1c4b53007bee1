package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sessync/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sessync/internal/core/domain"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and change settings",
	Long: `Settings are read from the config file, then overridden by SESSYNC_*
environment variables (also loaded from a .env file in the working directory).`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	RunE:  runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the effective value of a setting",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Store a setting in the config file",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	values := file.Values(s)

	cmd.Printf("Config file: %s\n\n", configStore.Path())
	for _, key := range file.KnownKeys {
		cmd.Printf("%-28s = %-40s (%s)\n", key, displayValue(key, values[key]), file.Origin(configStore, key))
	}
	return nil
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	key := args[0]
	if err := checkKey(key); err != nil {
		return err
	}
	s, err := loadSettings()
	if err != nil {
		return err
	}
	cmd.Println(file.Values(s)[key])
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	key, raw := args[0], args[1]
	if err := checkKey(key); err != nil {
		return err
	}
	if configStore == nil {
		return errNotConfigured
	}

	value, err := file.ParseValue(key, raw)
	if err != nil {
		return err
	}
	if err := configStore.Set(key, value); err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}

	if _, err := file.LoadSettings(configStore); err != nil {
		cmd.PrintErrf("Warning: settings are now invalid: %v\n", err)
	}
	cmd.Printf("%s = %s\n", key, displayValue(key, raw))
	if file.Origin(configStore, key) == "env" {
		cmd.Printf("Note: %s overrides this value.\n", file.EnvName(key))
	}
	return nil
}

func checkKey(key string) error {
	if !slices.Contains(file.KnownKeys, key) {
		return fmt.Errorf("%w: unknown key %q (known: %s)", domain.ErrInvalidInput, key, strings.Join(file.KnownKeys, ", "))
	}
	return nil
}

// displayValue masks secrets.
func displayValue(key, value string) string {
	if key == file.KeyBackendToken && value != "" {
		return "********"
	}
	if value == "" {
		return `""`
	}
	return value
}
