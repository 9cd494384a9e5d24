package session

import (
	"time"

	"github.com/2beens/gymtracker/internal/workout"
)

// Summary is the outcome of a completed session. It is never persisted.
type Summary struct {
	WorkoutID      string            `json:"workoutId"`
	WorkoutName    string            `json:"workoutName"`
	StartedAt      time.Time         `json:"startedAt"`
	EndedAt        time.Time         `json:"endedAt"`
	Exercises      []SummaryExercise `json:"exercises"`
	ExtraAvailable bool              `json:"extraAvailable"`
}

type SummaryExercise struct {
	ID      string                 `json:"id"`
	Name    string                 `json:"name"`
	Image   string                 `json:"image,omitempty"`
	Entries []workout.HistoryEntry `json:"entries"`
}

func (s Summary) ExerciseIDs() []string {
	ids := make([]string, 0, len(s.Exercises))
	for _, ex := range s.Exercises {
		ids = append(ids, ex.ID)
	}
	return ids
}
