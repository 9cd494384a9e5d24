package session

import (
	"time"

	"github.com/2beens/gymtracker/internal/bridge"
	"github.com/2beens/gymtracker/internal/timer"
	"github.com/2beens/gymtracker/internal/workout"
)

// View is the read model handed to clients.
type View struct {
	Phase                  Phase                    `json:"phase"`
	WorkoutID              string                   `json:"workoutId,omitempty"`
	SessionStartedAt       *time.Time               `json:"sessionStartedAt,omitempty"`
	ExerciseIndex          int                      `json:"exerciseIndex"`
	ExerciseCount          int                      `json:"exerciseCount"`
	CurrentSet             int                      `json:"currentSet"`
	FinalSet               bool                     `json:"finalSet"`
	Exercise               *workout.RuntimeExercise `json:"exercise,omitempty"`
	TargetReps             *workout.Reps            `json:"targetReps,omitempty"`
	Load                   *float64                 `json:"load,omitempty"`
	RestRemaining          int                      `json:"restRemaining"`
	RestEndsAt             *time.Time               `json:"restEndsAt,omitempty"`
	Bridge                 *BridgeView              `json:"bridge,omitempty"`
	PendingStartExtra      bool                     `json:"pendingStartExtra"`
	LastCompletedWorkoutID string                   `json:"lastCompletedWorkoutId,omitempty"`
	LastCompletedAt        *time.Time               `json:"lastCompletedAt,omitempty"`
}

type BridgeView struct {
	Running bool          `json:"running"`
	Elapsed int           `json:"elapsed"`
	Stats   *bridge.Stats `json:"stats,omitempty"`
}

func buildView(s State, now time.Time, sw *bridge.Stopwatch) View {
	v := View{
		Phase:                  s.Phase(),
		PendingStartExtra:      s.PendingStartExtra,
		LastCompletedWorkoutID: s.LastCompletedWorkoutID,
		LastCompletedAt:        s.LastCompletedAt,
		CurrentSet:             s.CurrentSet,
	}
	if !s.Active() {
		return v
	}

	v.WorkoutID = s.CurrentWorkoutID
	v.SessionStartedAt = s.SessionStartedAt
	v.ExerciseIndex = s.CurrentExerciseIndex
	v.ExerciseCount = len(s.CurrentWorkout)

	if s.Timer.Active() {
		v.RestEndsAt = s.Timer.EndAt
		v.RestRemaining = timer.ComputeRemaining(*s.Timer.EndAt, now)
	}

	ex, ok := s.CurrentExercise()
	if !ok {
		return v
	}
	v.Exercise = &ex
	v.FinalSet = s.CurrentSet >= ex.Sets
	target := ex.Reps.TargetForSet(s.CurrentSet)
	v.TargetReps = &target
	if load, ok := s.SessionLoads[ex.ID]; ok {
		v.Load = &load
	}

	if ex.IsBridge() {
		v.Bridge = buildBridgeView(s, ex.ID, now, sw)
	}

	return v
}

// buildBridgeView reads the live stopwatch, or the persisted one when sw
// is nil.
func buildBridgeView(s State, exerciseID string, now time.Time, sw *bridge.Stopwatch) *BridgeView {
	var (
		id      string
		elapsed int
		running bool
		stats   bridge.Stats
		found   bool
	)
	if sw != nil {
		id, elapsed, running = sw.Elapsed()
		stats, found = sw.Stats(exerciseID)
	} else {
		id, elapsed, running = s.Bridge.Elapsed(now)
		stats, found = s.Bridge.Stats(exerciseID)
	}

	bv := &BridgeView{}
	if running && id == exerciseID {
		bv.Running = true
		bv.Elapsed = elapsed
	}
	if found {
		bv.Stats = &stats
	}
	return bv
}
