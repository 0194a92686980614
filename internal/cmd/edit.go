package cmd

import (
	"fmt"
	"strings"

	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/spf13/cobra"
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a task",
	Long: `Edit the fields of a task. Only the flags you pass are changed.

Pass "none" to --last-done or --due to clear the date. Changing
--last-done or --every recomputes the due date unless --due is also
given.

Examples:
  maintenance update clean_oven --every 45
  maintenance update gutters --due none --notes "ladder in shed"`,
	Args: cobra.ExactArgs(1),
	RunE: runUpdate,
}

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a task",
	Args:    cobra.ExactArgs(1),
	RunE:    runDelete,
}

var (
	updateTitle    string
	updateZone     string
	updateEvery    int
	updateEstimate int
	updateNotes    string
	updateLastDone string
	updateDue      string
)

func init() {
	rootCmd.AddCommand(updateCmd)
	rootCmd.AddCommand(deleteCmd)

	updateCmd.Flags().StringVar(&updateTitle, "title", "", "New title")
	updateCmd.Flags().StringVarP(&updateZone, "zone", "z", "", "New zone")
	updateCmd.Flags().IntVarP(&updateEvery, "every", "e", 0, "New repeat interval in days")
	updateCmd.Flags().IntVar(&updateEstimate, "estimate", 0, "New estimate in minutes")
	updateCmd.Flags().StringVar(&updateNotes, "notes", "", "New notes")
	updateCmd.Flags().StringVar(&updateLastDone, "last-done", "", `When the task was last done, or "none"`)
	updateCmd.Flags().StringVar(&updateDue, "due", "", `Due date, or "none"`)
}

func runUpdate(cmd *cobra.Command, args []string) error {
	req := command.UpdateRequest{TaskID: args[0]}
	flags := cmd.Flags()
	if flags.Changed("title") {
		req.Title = &updateTitle
	}
	if flags.Changed("zone") {
		req.Zone = &updateZone
	}
	if flags.Changed("every") {
		req.FreqDays = &updateEvery
	}
	if flags.Changed("estimate") {
		req.EstMin = &updateEstimate
	}
	if flags.Changed("notes") {
		req.Notes = &updateNotes
	}
	if flags.Changed("last-done") {
		req.LastDone = nullableFlag(updateLastDone)
	}
	if flags.Changed("due") {
		req.Due = nullableFlag(updateDue)
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.Update(cmd.Context(), req)
	if err != nil {
		return err
	}
	confirm(cmd.OutOrStdout(), "Updated", t)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	removed, err := a.svc.Delete(cmd.Context(), command.DeleteRequest{TaskID: args[0]})
	if err != nil {
		return err
	}
	if !removed {
		fmt.Fprintf(cmd.OutOrStdout(), "No task %s\n", args[0])
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
	return nil
}

func nullableFlag(v string) command.NullableTime {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "none", "null":
		return command.Null()
	}
	return command.SetTo(v)
}
