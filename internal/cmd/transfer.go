package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/Iron-Ham/maintenance/internal/transfer"
	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Add task definitions from a YAML or JSON file",
	Long: `Add every task in the file whose id is not already present. Existing
tasks are left untouched. Use "-" to read from stdin.

The file is either a list of definitions or an export document:

  - id: clean_oven
    title: Clean oven
    zone: Kitchen
    freq_days: 30
    est_min: 45`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write all tasks as YAML or JSON",
	Long:  `Write every task, ordered by id, to the file or to stdout.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

var transferFormat string

func init() {
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(exportCmd)

	importCmd.Flags().StringVar(&transferFormat, "format", "", "yaml or json (default: from file extension)")
	exportCmd.Flags().StringVar(&transferFormat, "format", "", "yaml or json (default: from file extension)")
}

func formatFor(path string) (transfer.Format, error) {
	if transferFormat != "" {
		return transfer.ParseFormat(transferFormat)
	}
	return transfer.FormatFromPath(path), nil
}

func runImport(cmd *cobra.Command, args []string) error {
	format, err := formatFor(args[0])
	if err != nil {
		return err
	}

	var r io.Reader = cmd.InOrStdin()
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", args[0], err)
		}
		defer f.Close()
		r = f
	}

	defs, err := transfer.Decode(r, format)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := transfer.Import(cmd.Context(), a.svc, defs)
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Added %d, skipped %d existing, %d failed\n", len(res.Added), len(res.Skipped), len(res.Failed))
	for _, f := range res.Failed {
		fmt.Fprintf(out, "  %s: %v\n", f.ID, f.Err)
	}
	return err
}

func runExport(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	}
	format, err := formatFor(path)
	if err != nil {
		return err
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	if path == "" || path == "-" {
		return transfer.Export(cmd.OutOrStdout(), a.tracker.All(), format)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := transfer.Export(f, a.tracker.All(), format); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Exported %d tasks to %s\n", a.store.Len(), path)
	return nil
}
