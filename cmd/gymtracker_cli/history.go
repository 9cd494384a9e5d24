package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/2beens/gymtracker/internal/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <exercise-id>",
	Short: "Show the recorded sets of an exercise, most recent first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return historyRun(cmd, args[0])
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "max entries, 0 for all")
	rootCmd.AddCommand(historyCmd)
}

func historyRun(cmd *cobra.Command, exerciseID string) error {
	ctx := cmd.Context()
	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	entries, err := history.NewRecorder(d.store, nil).Recent(ctx, exerciseID, historyLimit)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		ui.Info("no history for %s", cyan(exerciseID))
		return nil
	}

	table := ui.Table([]string{"Date", "Workout", "Set", "Reps", "Load", "Notes"})
	for _, e := range entries {
		reps := e.Reps.String()
		if e.DurationSec != nil {
			reps = fmt.Sprintf("%ds", *e.DurationSec)
		}
		_ = table.Append([]string{
			e.Date.Local().Format("2006-01-02 15:04"),
			e.WorkoutID,
			strconv.Itoa(e.SetNumber),
			reps,
			strconv.FormatFloat(e.Load, 'f', -1, 64),
			e.Notes,
		})
	}
	_ = table.Render()

	return nil
}
