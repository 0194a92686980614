package cmd

import (
	"fmt"

	"github.com/Iron-Ham/maintenance/internal/task"
	"github.com/Iron-Ham/maintenance/internal/view"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "status"},
	Short:   "List tasks, most urgent first",
	Long: `List tasks ordered by urgency: overdue first, then running and paused
tasks, then by due date.

Examples:
  maintenance list
  maintenance list --zone "kitch*" --overdue
  maintenance list --owner alice --json`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one task in detail",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

var zonesCmd = &cobra.Command{
	Use:   "zones",
	Short: "List the zones in use",
	Args:  cobra.NoArgs,
	RunE:  runZones,
}

var (
	listZone    string
	listStatus  string
	listOwner   string
	listOverdue bool
	listJSON    bool
	showJSON    bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(zonesCmd)

	listCmd.Flags().StringVarP(&listZone, "zone", "z", "", "Filter by zone (case-insensitive glob)")
	listCmd.Flags().StringVar(&listStatus, "status", "", "Filter by status (idle/running/paused)")
	listCmd.Flags().StringVar(&listOwner, "owner", "", "Filter by lock holder")
	listCmd.Flags().BoolVar(&listOverdue, "overdue", false, "Only overdue tasks")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output JSON")
	showCmd.Flags().BoolVar(&showJSON, "json", false, "Output JSON")
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	board, err := view.NewBoard(a.tracker.All(), a.tracker.Now(), view.Filter{
		Zone:        listZone,
		Status:      task.Status(listStatus),
		Owner:       listOwner,
		OverdueOnly: listOverdue,
	})
	if err != nil {
		return err
	}

	if listJSON {
		return writeJSON(cmd.OutOrStdout(), board)
	}
	renderBoard(cmd.OutOrStdout(), board, terminalWidth())
	return nil
}

func runShow(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.tracker.Get(args[0])
	if err != nil {
		return err
	}
	v := view.NewTaskView(t, a.tracker.Now())
	if showJSON {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	renderTask(cmd.OutOrStdout(), v)
	return nil
}

func runZones(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, z := range view.Zones(a.tracker.All()) {
		fmt.Fprintln(cmd.OutOrStdout(), z)
	}
	return nil
}
