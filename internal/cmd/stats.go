package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/Iron-Ham/maintenance/internal/util"
	"github.com/Iron-Ham/maintenance/internal/view"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show workload statistics by zone",
	Long: `Display per-zone statistics for the task set.

Shows:
- Tasks and overdue tasks per zone
- Completions recorded so far
- Expected minutes per week, from each recurring task's average`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

var (
	statsJSON bool // Output as JSON
)

func init() {
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output statistics as JSON")
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	stats := view.NewStats(a.tracker.All(), a.tracker.Now())
	if statsJSON {
		return writeJSON(cmd.OutOrStdout(), stats)
	}
	printStatsText(cmd.OutOrStdout(), stats)
	return nil
}

func printStatsText(w io.Writer, s view.Stats) {
	if len(s.Zones) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("No tasks."))
		return
	}

	row := func(zone string, tasks, overdue, done, weekly any) string {
		return strings.Join([]string{
			util.PadANSI(fmt.Sprint(zone), 20),
			util.PadANSI(fmt.Sprint(tasks), 7),
			util.PadANSI(fmt.Sprint(overdue), 9),
			util.PadANSI(fmt.Sprint(done), 7),
			fmt.Sprint(weekly),
		}, " ")
	}

	fmt.Fprintln(w, headerStyle.Render(row("ZONE", "TASKS", "OVERDUE", "DONE", "MIN/WEEK")))
	for _, z := range s.Zones {
		overdue := fmt.Sprint(z.Overdue)
		if z.Overdue > 0 {
			overdue = overdueStyle.Render(overdue)
		}
		fmt.Fprintln(w, row(z.Zone, z.Tasks, overdue, z.Completions, z.WeeklyMinutes))
	}
	fmt.Fprintln(w, strings.Repeat("─", 56))
	fmt.Fprintln(w, row("Total", s.Total.Tasks, s.Total.Overdue, s.Total.Completions, s.Total.WeeklyMinutes))
}
