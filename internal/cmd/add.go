package cmd

import (
	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/spf13/cobra"
)

var addCmd = &cobra.Command{
	Use:   "add <id> <title>",
	Short: "Add a recurring task",
	Long: `Add a task with an explicit id. Ids are lowercase slugs made of
letters, digits and underscores.

The due date is computed from --last-done and --every unless --due is
given.

Examples:
  maintenance add clean_oven "Clean oven" --zone Kitchen --every 30
  maintenance add gutters "Clear gutters" -z Outside -e 180 --last-done 2024-04-01`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

var quickCmd = &cobra.Command{
	Use:   "quick <summary>",
	Short: "Add a task from a \"[Zone] Title\" summary",
	Long: `Add a task from a one-line summary. A leading "[Zone]" selects the zone;
otherwise the configured default zone is used. The id is derived from the
summary unless --id is given.

Examples:
  maintenance quick "[Garage] Sweep floor" --every 14
  maintenance quick "Water plants" -e 3`,
	Args: cobra.ExactArgs(1),
	RunE: runQuick,
}

var (
	addZone     string
	addEvery    int
	addEstimate int
	addNotes    string
	addLastDone string
	addDue      string
	quickID     string
)

func init() {
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(quickCmd)

	for _, c := range []*cobra.Command{addCmd, quickCmd} {
		c.Flags().IntVarP(&addEvery, "every", "e", 0, "Repeat interval in days (0 for a one-off task)")
		c.Flags().IntVar(&addEstimate, "estimate", -1, "Estimated minutes (default: defaults.est_min)")
		c.Flags().StringVar(&addNotes, "notes", "", "Free-form notes")
		c.Flags().StringVar(&addDue, "due", "", "Explicit due date (ISO-8601)")
	}
	addCmd.Flags().StringVarP(&addZone, "zone", "z", "", "Zone (default: defaults.zone)")
	addCmd.Flags().StringVar(&addLastDone, "last-done", "", "When the task was last done (ISO-8601)")
	quickCmd.Flags().StringVar(&quickID, "id", "", "Explicit task id")
}

func runAdd(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	zone := addZone
	if zone == "" {
		zone = a.cfg.Defaults.Zone
	}

	t, err := a.svc.Add(cmd.Context(), command.AddRequest{
		TaskID:   args[0],
		Title:    args[1],
		Zone:     zone,
		FreqDays: addEvery,
		EstMin:   estimateFlag(),
		Notes:    addNotes,
		LastDone: addLastDone,
		Due:      addDue,
	})
	if err != nil {
		return err
	}
	confirm(cmd.OutOrStdout(), "Added", t)
	return nil
}

func runQuick(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.CreateFromSummary(cmd.Context(), command.CreateFromSummaryRequest{
		Summary:  args[0],
		TaskID:   quickID,
		FreqDays: addEvery,
		EstMin:   estimateFlag(),
		Notes:    addNotes,
		Due:      addDue,
	})
	if err != nil {
		return err
	}
	confirm(cmd.OutOrStdout(), "Added", t)
	return nil
}

// estimateFlag returns nil when --estimate was not given.
func estimateFlag() *int {
	if addEstimate < 0 {
		return nil
	}
	v := addEstimate
	return &v
}
