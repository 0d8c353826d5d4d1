package app

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/droidops/internal/config"
)

var (
	dbPath     string
	configPath string
	noHistory  bool

	// RootCmd is the root command for droidops
	RootCmd = &cobra.Command{
		Use:   "droidops",
		Short: "Android device administration helpers",
		Long: `droidops administers an Android device from a root shell.

It shells out to the platform tools (pm, dumpsys, appops, mkswap, swapon)
and writes kernel control files under /sys/block. Every run is recorded in a
small local history database.

Commands:
  • perms    Allow the install-packages app-op for every app that declares it
  • zram     Provision a compressed RAM swap device
  • history  Show previous runs

Examples:
  # Grant REQUEST_INSTALL_PACKAGES to every app that asks for it
  droidops perms

  # Enable 512 MiB of zram swap with lz4
  droidops zram

  # Inspect the swap device
  droidops zram status

  # Review the last runs
  droidops history`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "history database path (default: ~/.droidops/droidops.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: ~/.config/droidops/config)")
	RootCmd.PersistentFlags().BoolVar(&noHistory, "no-history", false, "do not record this run in the history database")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(permsCmd)
	RootCmd.AddCommand(zramCmd)
	RootCmd.AddCommand(historyCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

// getDBPath returns the database path, using the flag value or default
func getDBPath() (string, error) {
	if dbPath != "" {
		return dbPath, nil
	}

	dir, err := config.StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "droidops.db"), nil
}

// loadConfig reads the config file named by --config, or the default one.
func loadConfig() (*config.File, error) {
	var (
		file *config.File
		err  error
	)
	if configPath != "" {
		file, err = config.LoadFile(configPath)
	} else {
		file, err = config.Load(config.Dir())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return file, nil
}
