package catalog

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"
)

const extraPlanName = "Extra"

var (
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	ErrPlanNotFound       = errors.New("plan not found")
	ErrProtectedPlan      = errors.New("plan can not be deleted")
	ErrExerciseNotFound   = errors.New("exercise not found")
	ErrNotCustomExercise  = errors.New("not a custom exercise")
	ErrNameRequired       = errors.New("name is required")
)

// Catalog is the effective set of plans and exercise definitions: the
// base catalog merged with user created exercises and user edited plans.
type Catalog struct {
	source Source
	store  *store.Store

	mu        sync.RWMutex
	loaded    bool
	plans     []workout.WorkoutPlan
	exercises map[string]workout.ExerciseDef
	custom    map[string]workout.ExerciseDef
}

func New(source Source, st *store.Store) *Catalog {
	return &Catalog{
		source:    source,
		store:     st,
		exercises: map[string]workout.ExerciseDef{},
		custom:    map[string]workout.ExerciseDef{},
	}
}

// Load fetches the base catalog and merges the persisted user data into
// it. On failure the previously loaded catalog is kept as is.
func (c *Catalog) Load(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.load")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	base, err := c.source.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrCatalogUnavailable, err)
	}

	custom, err := c.store.CustomExercises(ctx)
	if err != nil {
		return fmt.Errorf("%w: custom exercises: %s", ErrCatalogUnavailable, err)
	}

	plans, saved, err := c.store.Workouts(ctx)
	if err != nil {
		return fmt.Errorf("%w: workouts: %s", ErrCatalogUnavailable, err)
	}
	if !saved {
		plans = slices.Clone(base.Workouts)
	}

	exercises := make(map[string]workout.ExerciseDef, len(base.Exercises)+len(custom))
	for id, def := range base.Exercises {
		exercises[id] = def
	}
	for id, def := range custom {
		exercises[id] = def
	}

	if !slices.ContainsFunc(plans, func(p workout.WorkoutPlan) bool { return p.ID == workout.PlanExtra }) {
		plans = append(plans, workout.WorkoutPlan{
			ID:                   workout.PlanExtra,
			Name:                 extraPlanName,
			Exercises:            []workout.ExerciseRef{},
			RestBetweenExercises: workout.IntPtr(workout.DefaultRestBetweenExercises),
		})
		if err := c.store.SaveWorkouts(ctx, plans); err != nil {
			return fmt.Errorf("save workouts: %w", err)
		}
		log.Debugln("extra plan synthesized")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.plans = plans
	c.exercises = exercises
	c.custom = custom
	c.loaded = true

	log.Debugf("catalog loaded: %d plans, %d exercises (%d custom)", len(plans), len(exercises), len(custom))
	return nil
}

func (c *Catalog) Loaded() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.loaded
}

func (c *Catalog) Plans() []workout.WorkoutPlan {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.plans)
}

func (c *Catalog) Plan(planID string) (workout.WorkoutPlan, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	idx := c.planIndex(planID)
	if idx < 0 {
		return workout.WorkoutPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}
	return c.plans[idx], nil
}

func (c *Catalog) planIndex(planID string) int {
	return slices.IndexFunc(c.plans, func(p workout.WorkoutPlan) bool {
		return p.ID == planID
	})
}

// Exercises returns every exercise definition ordered by name.
func (c *Catalog) Exercises() []workout.ExerciseDef {
	c.mu.RLock()
	defer c.mu.RUnlock()

	defs := make([]workout.ExerciseDef, 0, len(c.exercises))
	for _, def := range c.exercises {
		defs = append(defs, def)
	}
	slices.SortFunc(defs, func(a, b workout.ExerciseDef) int {
		if n := strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return defs
}

func (c *Catalog) Exercise(exerciseID string) (workout.ExerciseDef, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	def, ok := c.exercises[exerciseID]
	return def, ok
}

func (c *Catalog) IsCustom(exerciseID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.custom[exerciseID]
	return ok
}

// Resolve builds the runtime exercises of plan, in plan order. Ids with no
// definition resolve to an exercise named after the id.
func (c *Catalog) Resolve(plan workout.WorkoutPlan) []workout.RuntimeExercise {
	c.mu.RLock()
	defer c.mu.RUnlock()

	resolved := make([]workout.RuntimeExercise, 0, len(plan.Exercises))
	for _, ref := range plan.Exercises {
		if ref.ID == "" {
			continue
		}
		var def *workout.ExerciseDef
		if d, ok := c.exercises[ref.ID]; ok {
			def = &d
		}
		resolved = append(resolved, workout.Resolve(ref, def))
	}
	return resolved
}

func (c *Catalog) RestBetweenExercises(plan workout.WorkoutPlan) int {
	return plan.RestBetweenExercisesOrDefault()
}
