package workout

import (
	"time"
)

// HistoryEntry is one recorded set of an exercise.
type HistoryEntry struct {
	Date         time.Time `json:"date"`
	SetNumber    int       `json:"sets"`
	Reps         Reps      `json:"reps"`
	Load         float64   `json:"load"`
	Notes        string    `json:"notes"`
	ExerciseName string    `json:"exercise_name"`
	WorkoutID    string    `json:"workout_id"`
	DurationSec  *int      `json:"duration_sec,omitempty"`
}

// SameAs reports whether e repeats other, ignoring date and set number.
func (e HistoryEntry) SameAs(other HistoryEntry) bool {
	if e.Load != other.Load ||
		e.Reps.String() != other.Reps.String() ||
		e.Notes != other.Notes ||
		e.WorkoutID != other.WorkoutID ||
		e.ExerciseName != other.ExerciseName {
		return false
	}

	switch {
	case e.DurationSec == nil && other.DurationSec == nil:
		return true
	case e.DurationSec == nil || other.DurationSec == nil:
		return false
	default:
		return *e.DurationSec == *other.DurationSec
	}
}
