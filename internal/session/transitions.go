package session

import (
	"time"

	"github.com/2beens/gymtracker/internal/workout"
)

// effects describe what has to happen after a transition is applied.
type effects struct {
	// rest is the countdown to start, nil when none
	rest *int
	// exerciseChanged is set when a new exercise became current
	exerciseChanged bool
	// completed is set when the last exercise was finished
	completed bool
}

// setInput is a completed set with every value already resolved.
type setInput struct {
	load        float64
	notes       string
	durationSec *int
}

func startSession(prev State, planID string, exercises []workout.RuntimeExercise, rest int, now time.Time) State {
	next := prev.idle()
	next.CurrentWorkout = append([]workout.RuntimeExercise{}, exercises...)
	next.CurrentWorkoutID = planID
	next.SessionStartedAt = &now
	next.CurrentExerciseIndex = 0
	next.CurrentSet = 1
	next.RestBetweenExercises = rest
	next.PendingStartExtra = false
	return next
}

// completeSet builds the history entry of the current set and moves to the
// next set, or to the next exercise after the final set.
func completeSet(prev State, in setInput, now time.Time) (State, workout.HistoryEntry, effects) {
	next := prev.clone()
	ex, _ := prev.CurrentExercise()

	entry := workout.HistoryEntry{
		Date:         now,
		SetNumber:    prev.CurrentSet,
		Reps:         ex.Reps.TargetForSet(prev.CurrentSet),
		Load:         in.load,
		Notes:        in.notes,
		ExerciseName: ex.Name,
		WorkoutID:    prev.CurrentWorkoutID,
		DurationSec:  in.durationSec,
	}

	var eff effects
	if prev.CurrentSet < ex.Sets {
		next.CurrentSet++
		eff.rest = workout.IntPtr(ex.RestBetweenSets)
		return next, entry, eff
	}

	next.CurrentExerciseIndex++
	next.CurrentSet = 1
	if next.CurrentExerciseIndex >= len(next.CurrentWorkout) {
		eff.completed = true
		return next, entry, eff
	}

	eff.exerciseChanged = true
	eff.rest = workout.IntPtr(max(0, next.RestBetweenExercises))
	return next, entry, eff
}

// addExtraSet raises the set count of the current exercise by one. Only
// allowed on its final set.
func addExtraSet(prev State) (State, error) {
	ex, ok := prev.CurrentExercise()
	if !ok {
		return prev, ErrNoActiveSession
	}
	if prev.CurrentSet < ex.Sets {
		return prev, ErrNotFinalSet
	}

	next := prev.clone()
	next.CurrentWorkout[next.CurrentExerciseIndex].Sets++
	return next, nil
}

// advancePastLastExercise closes a session whose index ran past the last
// exercise. It returns the idle state and the summary skeleton.
func advancePastLastExercise(prev State, planName string, now time.Time) (State, Summary) {
	summary := Summary{
		WorkoutID:   prev.CurrentWorkoutID,
		WorkoutName: planName,
		EndedAt:     now,
		Exercises:   make([]SummaryExercise, 0, len(prev.CurrentWorkout)),
	}
	if summary.WorkoutName == "" {
		summary.WorkoutName = prev.CurrentWorkoutID
	}
	if prev.SessionStartedAt != nil {
		summary.StartedAt = *prev.SessionStartedAt
	}

	seen := make(map[string]bool, len(prev.CurrentWorkout))
	for _, ex := range prev.CurrentWorkout {
		if seen[ex.ID] {
			continue
		}
		seen[ex.ID] = true
		summary.Exercises = append(summary.Exercises, SummaryExercise{
			ID:    ex.ID,
			Name:  ex.Name,
			Image: ex.Image,
		})
	}

	next := prev.idle()
	if prev.CurrentWorkoutID != "" && prev.CurrentWorkoutID != workout.PlanExtra {
		next.LastCompletedWorkoutID = prev.CurrentWorkoutID
		next.LastCompletedAt = &now
	}
	return next, summary
}

func abortToIdle(prev State) State {
	return prev.idle()
}
