package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"
)

// Store gives typed access to the persisted logical stores.
type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Backend() Backend {
	return s.backend
}

// LoadJSON decodes the blob under key into v. It returns false, and leaves
// v untouched, when the key was never set.
func (s *Store) LoadJSON(ctx context.Context, key Key, v any) (found bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.loadJSON")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	raw, err := s.backend.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return true, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

func (s *Store) SaveJSON(ctx context.Context, key Key, v any) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "store.saveJSON")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return s.backend.Set(ctx, key, raw)
}

func (s *Store) Remove(ctx context.Context, key Key) error {
	return s.backend.Remove(ctx, key)
}

// History returns the recorded sets per exercise id.
func (s *Store) History(ctx context.Context) (map[string][]workout.HistoryEntry, error) {
	history := map[string][]workout.HistoryEntry{}
	if _, err := s.LoadJSON(ctx, KeyHistory, &history); err != nil {
		return nil, err
	}
	if history == nil {
		history = map[string][]workout.HistoryEntry{}
	}
	return history, nil
}

func (s *Store) SaveHistory(ctx context.Context, history map[string][]workout.HistoryEntry) error {
	return s.SaveJSON(ctx, KeyHistory, history)
}

// CustomExercises returns the user created exercise definitions by id.
func (s *Store) CustomExercises(ctx context.Context) (map[string]workout.ExerciseDef, error) {
	defs := map[string]workout.ExerciseDef{}
	if _, err := s.LoadJSON(ctx, KeyCustomExercises, &defs); err != nil {
		return nil, err
	}
	if defs == nil {
		defs = map[string]workout.ExerciseDef{}
	}
	return defs, nil
}

func (s *Store) SaveCustomExercises(ctx context.Context, defs map[string]workout.ExerciseDef) error {
	return s.SaveJSON(ctx, KeyCustomExercises, defs)
}

// Workouts returns the saved plans, and false when plans were never saved.
func (s *Store) Workouts(ctx context.Context) ([]workout.WorkoutPlan, bool, error) {
	var plans []workout.WorkoutPlan
	found, err := s.LoadJSON(ctx, KeyWorkouts, &plans)
	if err != nil || !found {
		return nil, false, err
	}
	if plans == nil {
		plans = []workout.WorkoutPlan{}
	}
	return plans, true, nil
}

func (s *Store) SaveWorkouts(ctx context.Context, plans []workout.WorkoutPlan) error {
	if plans == nil {
		plans = []workout.WorkoutPlan{}
	}
	return s.SaveJSON(ctx, KeyWorkouts, plans)
}
