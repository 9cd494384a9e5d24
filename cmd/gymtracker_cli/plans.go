package main

import (
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/2beens/gymtracker/internal/workout"
)

var plansCmd = &cobra.Command{
	Use:     "plans",
	Aliases: []string{"workouts"},
	Short:   "List the effective workout plans with their resolved exercises",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return plansRun(cmd)
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
}

func plansRun(cmd *cobra.Command) error {
	ctx := cmd.Context()
	d, err := openDeps(ctx)
	if err != nil {
		return err
	}
	defer d.Close()

	cat, err := d.loadCatalog(ctx)
	if err != nil {
		return err
	}

	table := ui.Table([]string{"Plan", "Name", "Rest", "Exercises"})
	for _, plan := range cat.Plans() {
		id := cyan(plan.ID)
		if !workout.IsProtectedPlan(plan.ID) {
			id = yellow(plan.ID)
		}

		resolved := cat.Resolve(plan)
		exercises := make([]string, 0, len(resolved))
		for _, ex := range resolved {
			label := ex.Name + " " + strconv.Itoa(ex.Sets) + "x" + string(ex.Reps)
			if cat.IsCustom(ex.ID) {
				label += "*"
			}
			exercises = append(exercises, label)
		}

		_ = table.Append([]string{
			id,
			plan.Name,
			strconv.Itoa(cat.RestBetweenExercises(plan)) + "s",
			strings.Join(exercises, ", "),
		})
	}
	_ = table.Render()
	ui.Info("* user created exercise")

	return nil
}
