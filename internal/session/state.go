package session

import (
	"errors"
	"maps"
	"slices"
	"time"

	"github.com/2beens/gymtracker/internal/bridge"
	"github.com/2beens/gymtracker/internal/timer"
	"github.com/2beens/gymtracker/internal/workout"
)

var (
	ErrNoActiveSession   = errors.New("no active session")
	ErrRestInProgress    = errors.New("rest in progress")
	ErrNotFinalSet       = errors.New("not on the final set of the exercise")
	ErrNotBridgeExercise = errors.New("current exercise is not a bridge exercise")
	ErrSelectionRequired = errors.New("plan has no exercises, selection required")
)

type Phase string

const (
	PhaseIdle      Phase = "idle"
	PhaseSelecting Phase = "selecting"
	PhaseActiveSet Phase = "active_set"
	PhaseResting   Phase = "resting"
)

// State is the single in-progress workout, persisted after every change.
// A nil CurrentWorkout means no session is active.
type State struct {
	CurrentWorkout         []workout.RuntimeExercise `json:"currentWorkout"`
	CurrentWorkoutID       string                    `json:"currentWorkoutId"`
	SessionStartedAt       *time.Time                `json:"sessionStartedAt"`
	CurrentExerciseIndex   int                       `json:"currentExerciseIndex"`
	CurrentSet             int                       `json:"currentSet"`
	RestBetweenExercises   int                       `json:"restBetweenExercises"`
	SessionLoads           map[string]float64        `json:"sessionLoads"`
	PendingStartExtra      bool                      `json:"pendingStartExtra"`
	Timer                  timer.State               `json:"timer"`
	Bridge                 bridge.State              `json:"bridge"`
	LastCompletedWorkoutID string                    `json:"lastCompletedWorkoutId"`
	LastCompletedAt        *time.Time                `json:"lastCompletedAt"`
}

// NewState returns the idle state with neutral defaults.
func NewState() State {
	return State{
		CurrentSet:           1,
		RestBetweenExercises: workout.DefaultRestBetweenExercises,
		SessionLoads:         map[string]float64{},
		Bridge: bridge.State{
			Durations: map[string][]int{},
		},
	}
}

func (s State) Active() bool {
	return s.CurrentWorkout != nil
}

// Resumable reports whether a loaded state describes a session that can be
// picked up where it was left.
func (s State) Resumable() bool {
	return len(s.CurrentWorkout) > 0 &&
		s.CurrentExerciseIndex >= 0 &&
		s.CurrentExerciseIndex < len(s.CurrentWorkout)
}

func (s State) Phase() Phase {
	switch {
	case !s.Active():
		if s.PendingStartExtra {
			return PhaseSelecting
		}
		return PhaseIdle
	case s.Timer.Active():
		return PhaseResting
	default:
		return PhaseActiveSet
	}
}

// CurrentExercise returns the exercise at the current index.
func (s State) CurrentExercise() (workout.RuntimeExercise, bool) {
	if s.CurrentExerciseIndex < 0 || s.CurrentExerciseIndex >= len(s.CurrentWorkout) {
		return workout.RuntimeExercise{}, false
	}
	return s.CurrentWorkout[s.CurrentExerciseIndex], true
}

// idle resets the session fields, keeping recorded bridge durations, the
// last completed plan and the rest setting.
func (s State) idle() State {
	next := NewState()
	next.RestBetweenExercises = s.RestBetweenExercises
	next.LastCompletedWorkoutID = s.LastCompletedWorkoutID
	next.LastCompletedAt = s.LastCompletedAt
	for id, d := range s.Bridge.Durations {
		next.Bridge.Durations[id] = d
	}
	return next
}

func (s State) clone() State {
	next := s
	next.CurrentWorkout = slices.Clone(s.CurrentWorkout)
	next.SessionLoads = maps.Clone(s.SessionLoads)
	if next.SessionLoads == nil {
		next.SessionLoads = map[string]float64{}
	}
	return next
}
