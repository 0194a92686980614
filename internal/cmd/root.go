package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/maintenance/internal/config"
	"github.com/Iron-Ham/maintenance/internal/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Track recurring household chores",
	Long: `Maintenance keeps a shared list of recurring chores. Each chore has a
zone, a repeat interval and a due date. One person at a time can run a
timer on it, and completed chores learn a rolling average of how long
they take.

The task set is stored in a JSON document (file backend), SQLite or
Postgres. "maintenance serve" exposes the same operations over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// PrintError reports a failed command on w. A failed write left nothing
// committed, so the command can simply be repeated.
func PrintError(w io.Writer, err error) {
	fmt.Fprintf(w, "Error: %v\n", err)
	if errors.IsRetryable(err) {
		fmt.Fprintln(w, "Nothing was saved; run the command again.")
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/maintenance/config.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "directory holding the task document (overrides storage.data_dir)")
	rootCmd.PersistentFlags().String("backend", "", "storage backend: file, sqlite, postgres or memory")
	rootCmd.PersistentFlags().StringP("user", "u", "", "acting user (overrides defaults.user)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("storage.data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
	_ = viper.BindPFlag("storage.backend", rootCmd.PersistentFlags().Lookup("backend"))
	_ = viper.BindPFlag("defaults.user", rootCmd.PersistentFlags().Lookup("user"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("MAINTENANCE")
	// Replace dots with underscores for nested keys in env vars
	// e.g., MAINTENANCE_STORAGE_BACKEND for storage.backend
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}
