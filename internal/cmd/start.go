package cmd

import (
	"fmt"

	"github.com/Iron-Ham/maintenance/internal/command"
	"github.com/Iron-Ham/maintenance/internal/util"
	"github.com/spf13/cobra"
)

var startCmd = &cobra.Command{
	Use:   "start <id>",
	Short: "Start or resume the timer on a task",
	Long: `Start the timer on a task and lock it to the acting user (--user or
defaults.user). A task paused by the same user is resumed. Starting a task
held by someone else fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runStart,
}

var pauseCmd = &cobra.Command{
	Use:   "pause <id>",
	Short: "Pause the timer on a task you hold",
	Args:  cobra.ExactArgs(1),
	RunE:  runPause,
}

var completeCmd = &cobra.Command{
	Use:   "complete <id>",
	Short: "Complete a task you hold",
	Long: `Stop the timer, record the completion and schedule the next due date.
The timed minutes update the task's rolling average. Use --minutes to
record a different duration instead (0 keeps the timed minutes), or
--no-sample to leave the average and sample count alone.`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

var doneCmd = &cobra.Command{
	Use:   "done <id>",
	Short: "Mark an unheld task done without timing it",
	Args:  cobra.ExactArgs(1),
	RunE:  runDone,
}

var (
	completeMinutes  int
	completeNoSample bool
)

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(pauseCmd)
	rootCmd.AddCommand(completeCmd)
	rootCmd.AddCommand(doneCmd)

	completeCmd.Flags().IntVarP(&completeMinutes, "minutes", "m", 0, "Minutes to record instead of the timed duration")
	completeCmd.Flags().BoolVar(&completeNoSample, "no-sample", false, "Complete without updating the average duration")
}

func runStart(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.Start(cmd.Context(), command.StartRequest{TaskID: args[0]})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Started %s (%s) for %s\n", t.ID, t.Title, t.LockedBy)
	return nil
}

func runPause(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.Pause(cmd.Context(), command.PauseRequest{TaskID: args[0]})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Paused %s at %s\n", t.ID, util.FormatSeconds(t.AccumSec))
	return nil
}

func runComplete(cmd *cobra.Command, args []string) error {
	req := command.CompleteRequest{TaskID: args[0], SkipSample: completeNoSample}
	if cmd.Flags().Changed("minutes") {
		m := completeMinutes
		req.ManualMinutes = &m
	}

	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.Complete(cmd.Context(), req)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Completed %s (average %d min over %d)\n", t.ID, t.AvgMin, t.N)
	if t.Due != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Next due %s\n", optionalTime(t.Due))
	}
	return nil
}

func runDone(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context(), false)
	if err != nil {
		return err
	}
	defer a.Close()

	t, err := a.svc.MarkDone(cmd.Context(), command.MarkDoneRequest{TaskID: args[0]})
	if err != nil {
		return err
	}
	confirm(cmd.OutOrStdout(), "Done", t)
	if t.Due != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Next due %s\n", optionalTime(t.Due))
	}
	return nil
}
