package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/Iron-Ham/maintenance/internal/config"
	"github.com/Iron-Ham/maintenance/internal/logging"
	"github.com/spf13/cobra"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View the debug log",
	Long: `View and filter the log written to logging.dir.

Examples:
  # Show the last 50 entries
  maintenance logs

  # Show everything about one task
  maintenance logs --task clean_oven -n 0

  # Warnings and errors from the last hour
  maintenance logs --level warn --since 1h

  # Export store activity as CSV
  maintenance logs --component store --format csv`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail      int
	logsLevel     string
	logsSince     string
	logsTask      string
	logsOwner     string
	logsComponent string
	logsGrep      string
	logsFormat    string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsTask, "task", "", "Filter by task id")
	logsCmd.Flags().StringVar(&logsOwner, "owner", "", "Filter by acting user")
	logsCmd.Flags().StringVar(&logsComponent, "component", "", "Filter by component (store, tracker, api, watch)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter by message substring")
	logsCmd.Flags().StringVar(&logsFormat, "format", "text", "Output format: text, json or csv")
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logDir := cfg.Logging.ResolveDir()
	if logDir == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Logs go to stderr. Set logging.dir to keep a log file.")
		return nil
	}

	filter := logging.LogFilter{
		TaskID:          logsTask,
		Owner:           logsOwner,
		Component:       logsComponent,
		MessageContains: logsGrep,
	}
	if logsLevel != "" {
		filter.Level = logging.ParseLevel(logsLevel)
	}
	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.Since = time.Now().Add(-duration)
	}

	entries, err := logging.ReadLogs(logDir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(cmd.OutOrStdout(), "No logs found in %s\n", logDir)
			return nil
		}
		return err
	}

	entries = logging.FilterLogs(entries, filter)
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	if len(entries) == 0 && logsFormat == "text" {
		fmt.Fprintln(cmd.OutOrStdout(), "No matching log entries found.")
		return nil
	}
	return logging.WriteLogs(cmd.OutOrStdout(), entries, logsFormat)
}
