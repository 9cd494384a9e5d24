package workout

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Reserved plan identifiers.
const (
	PlanA     = "A"
	PlanB     = "B"
	PlanC     = "C"
	PlanExtra = "EXTRA"
)

const (
	DefaultSets                 = 3
	DefaultReps                 = "10"
	DefaultRestBetweenSets      = 60
	DefaultRestBetweenExercises = 60

	// bridgeMarker is the exercise name (case-insensitive) of isometric
	// hold exercises tracked with the bridge stopwatch.
	bridgeMarker = "ponte"
)

// IsProtectedPlan reports whether a plan can not be deleted.
func IsProtectedPlan(planID string) bool {
	switch planID {
	case PlanA, PlanB, PlanC, PlanExtra:
		return true
	default:
		return false
	}
}

// WorkoutPlan is a named, ordered list of exercises ("scheda").
type WorkoutPlan struct {
	ID                   string        `json:"id"`
	Name                 string        `json:"name"`
	Exercises            []ExerciseRef `json:"exercises"`
	RestBetweenExercises *int          `json:"rest_between_exercises,omitempty"`
	// ExpiresOn is an advisory YYYY-MM-DD date set by the user, never enforced.
	ExpiresOn string `json:"expires_on,omitempty"`
}

// RestBetweenExercisesOrDefault returns the plan rest, 60s when unset.
func (p WorkoutPlan) RestBetweenExercisesOrDefault() int {
	if p.RestBetweenExercises == nil {
		return DefaultRestBetweenExercises
	}
	return *p.RestBetweenExercises
}

func (p WorkoutPlan) ExerciseIDs() []string {
	ids := make([]string, 0, len(p.Exercises))
	for _, ref := range p.Exercises {
		if ref.ID != "" {
			ids = append(ids, ref.ID)
		}
	}
	return ids
}

func (p WorkoutPlan) HasExercises() bool {
	return len(p.ExerciseIDs()) > 0
}

// ExerciseRef is a plan scoped override of an exercise definition.
// Nil fields fall back to the definition defaults.
type ExerciseRef struct {
	ID              string       `json:"id"`
	Sets            *int         `json:"sets,omitempty"`
	Reps            *RepsPattern `json:"reps,omitempty"`
	RestBetweenSets *int         `json:"rest_between_sets,omitempty"`
}

// UnmarshalJSON accepts either a bare exercise id or the object form.
func (r *ExerciseRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*r = ExerciseRef{ID: id}
		return nil
	}

	type plain ExerciseRef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("exercise ref: %w", err)
	}
	*r = ExerciseRef(p)
	return nil
}

// ExerciseDef is a catalog exercise definition.
type ExerciseDef struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Image        string       `json:"image,omitempty"`
	DefaultSets  *int         `json:"default_sets,omitempty"`
	DefaultReps  *RepsPattern `json:"default_reps,omitempty"`
	DefaultTimer *int         `json:"default_timer,omitempty"`
}

// RuntimeExercise is an exercise definition with the plan overrides
// applied, used for the lifetime of one session.
type RuntimeExercise struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Image           string      `json:"image,omitempty"`
	Sets            int         `json:"default_sets"`
	Reps            RepsPattern `json:"default_reps"`
	RestBetweenSets int         `json:"default_timer"`
}

// IsBridge reports whether the exercise is tracked with the bridge stopwatch.
func (e RuntimeExercise) IsBridge() bool {
	return IsBridgeName(e.Name)
}

func IsBridgeName(name string) bool {
	return strings.ToLower(strings.TrimSpace(name)) == bridgeMarker
}

// Resolve merges a plan reference against its definition. A missing
// definition resolves to an exercise named after its id.
func Resolve(ref ExerciseRef, def *ExerciseDef) RuntimeExercise {
	rt := RuntimeExercise{
		ID:              ref.ID,
		Name:            ref.ID,
		Sets:            DefaultSets,
		Reps:            DefaultReps,
		RestBetweenSets: DefaultRestBetweenSets,
	}

	if def != nil {
		if def.Name != "" {
			rt.Name = def.Name
		}
		rt.Image = def.Image
		if def.DefaultSets != nil {
			rt.Sets = *def.DefaultSets
		}
		if def.DefaultReps != nil {
			rt.Reps = *def.DefaultReps
		}
		if def.DefaultTimer != nil {
			rt.RestBetweenSets = *def.DefaultTimer
		}
	}

	if ref.Sets != nil {
		rt.Sets = *ref.Sets
	}
	if ref.Reps != nil {
		rt.Reps = *ref.Reps
	}
	if ref.RestBetweenSets != nil {
		rt.RestBetweenSets = *ref.RestBetweenSets
	}

	return rt
}

func IntPtr(v int) *int {
	return &v
}
