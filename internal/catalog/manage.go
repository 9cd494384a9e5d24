package catalog

import (
	"cmp"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"
)

const (
	planIDPrefix     = "W_"
	customIDPrefix   = "custom_"
	defaultImageMIME = "application/octet-stream"
)

// Selection is one exercise chosen for a plan, as entered by the user.
// Nil numeric fields are coerced to their defaults.
type Selection struct {
	ID              string `json:"id"`
	Sets            *int   `json:"sets"`
	Reps            string `json:"reps"`
	RestBetweenSets *int   `json:"rest_between_sets"`
	Order           *int   `json:"order"`
}

// NewExercise describes a user created exercise.
type NewExercise struct {
	Name            string
	Image           []byte
	ImageMIME       string
	Sets            *int
	Reps            string
	RestBetweenSets *int
}

// CreatePlan adds an empty plan named name.
func (c *Catalog) CreatePlan(ctx context.Context, name string) (_ workout.WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.createPlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name = strings.TrimSpace(name)
	if name == "" {
		return workout.WorkoutPlan{}, ErrNameRequired
	}

	plan := workout.WorkoutPlan{
		ID:                   planIDPrefix + ulid.Make().String(),
		Name:                 name,
		Exercises:            []workout.ExerciseRef{},
		RestBetweenExercises: workout.IntPtr(workout.DefaultRestBetweenExercises),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	plans := append(slices.Clone(c.plans), plan)
	if err := c.store.SaveWorkouts(ctx, plans); err != nil {
		return workout.WorkoutPlan{}, fmt.Errorf("save workouts: %w", err)
	}
	c.plans = plans

	log.Debugf("plan created: %s [%s]", plan.ID, plan.Name)
	return plan, nil
}

// DeletePlan removes a user plan. Reserved plans can not be deleted.
func (c *Catalog) DeletePlan(ctx context.Context, planID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.deletePlan")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if workout.IsProtectedPlan(planID) {
		return fmt.Errorf("%w: %s", ErrProtectedPlan, planID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.planIndex(planID)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}

	plans := slices.Delete(slices.Clone(c.plans), idx, idx+1)
	if err := c.store.SaveWorkouts(ctx, plans); err != nil {
		return fmt.Errorf("save workouts: %w", err)
	}
	c.plans = plans

	log.Debugf("plan deleted: %s", planID)
	return nil
}

// SavePlanSelection replaces the exercise list and rest of a plan. Entries
// are ordered by their order field, ties broken by exercise id.
func (c *Catalog) SavePlanSelection(
	ctx context.Context,
	planID string,
	restBetweenExercises *int,
	selection []Selection,
) (_ workout.WorkoutPlan, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.savePlanSelection")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.planIndex(planID)
	if idx < 0 {
		return workout.WorkoutPlan{}, fmt.Errorf("%w: %s", ErrPlanNotFound, planID)
	}

	type ordered struct {
		ref   workout.ExerciseRef
		order int
	}
	entries := make([]ordered, 0, len(selection))
	seen := make(map[string]bool, len(selection))
	for _, sel := range selection {
		if _, ok := c.exercises[sel.ID]; !ok {
			return workout.WorkoutPlan{}, fmt.Errorf("%w: %s", ErrExerciseNotFound, sel.ID)
		}
		if seen[sel.ID] {
			log.Warnf("duplicate exercise %s in selection of plan %s, keeping first", sel.ID, planID)
			continue
		}
		seen[sel.ID] = true

		reps := workout.RepsPattern(coerceReps(sel.Reps))
		entries = append(entries, ordered{
			ref: workout.ExerciseRef{
				ID:              sel.ID,
				Sets:            workout.IntPtr(atLeast(sel.Sets, 1, 1)),
				Reps:            &reps,
				RestBetweenSets: workout.IntPtr(atLeast(sel.RestBetweenSets, 0, 0)),
			},
			order: atLeast(sel.Order, 1, 1),
		})
	}

	slices.SortStableFunc(entries, func(a, b ordered) int {
		return cmp.Or(cmp.Compare(a.order, b.order), strings.Compare(a.ref.ID, b.ref.ID))
	})

	plan := c.plans[idx]
	plan.Exercises = make([]workout.ExerciseRef, 0, len(entries))
	for _, e := range entries {
		plan.Exercises = append(plan.Exercises, e.ref)
	}
	if restBetweenExercises != nil {
		plan.RestBetweenExercises = workout.IntPtr(max(0, *restBetweenExercises))
	}

	plans := slices.Clone(c.plans)
	plans[idx] = plan
	if err := c.store.SaveWorkouts(ctx, plans); err != nil {
		return workout.WorkoutPlan{}, fmt.Errorf("save workouts: %w", err)
	}
	c.plans = plans

	log.Debugf("plan %s saved with %d exercises", planID, len(plan.Exercises))
	return plan, nil
}

// AddCustomExercise stores a user created exercise definition. An image,
// when given, is embedded as a data URI.
func (c *Catalog) AddCustomExercise(ctx context.Context, ne NewExercise) (_ workout.ExerciseDef, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.addCustomExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	name := strings.TrimSpace(ne.Name)
	if name == "" {
		return workout.ExerciseDef{}, ErrNameRequired
	}

	reps := workout.RepsPattern(coerceReps(ne.Reps))
	def := workout.ExerciseDef{
		ID:           customIDPrefix + ulid.Make().String(),
		Name:         name,
		Image:        DataURI(ne.Image, ne.ImageMIME),
		DefaultSets:  workout.IntPtr(atLeast(ne.Sets, workout.DefaultSets, 1)),
		DefaultReps:  &reps,
		DefaultTimer: workout.IntPtr(atLeast(ne.RestBetweenSets, workout.DefaultRestBetweenSets, 0)),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	custom := cloneDefs(c.custom)
	custom[def.ID] = def
	if err := c.store.SaveCustomExercises(ctx, custom); err != nil {
		return workout.ExerciseDef{}, fmt.Errorf("save custom exercises: %w", err)
	}
	c.custom = custom
	c.exercises[def.ID] = def

	log.Debugf("custom exercise added: %s [%s]", def.ID, def.Name)
	return def, nil
}

// DeleteCustomExercise removes a user created exercise from the custom
// store, from every plan referencing it and from the merged catalog.
func (c *Catalog) DeleteCustomExercise(ctx context.Context, exerciseID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.deleteCustomExercise")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.custom[exerciseID]; !ok {
		if _, known := c.exercises[exerciseID]; known {
			return fmt.Errorf("%w: %s", ErrNotCustomExercise, exerciseID)
		}
		return fmt.Errorf("%w: %s", ErrExerciseNotFound, exerciseID)
	}

	custom := cloneDefs(c.custom)
	delete(custom, exerciseID)

	plans := slices.Clone(c.plans)
	changed := 0
	for i, plan := range plans {
		kept := slices.DeleteFunc(slices.Clone(plan.Exercises), func(ref workout.ExerciseRef) bool {
			return ref.ID == exerciseID
		})
		if len(kept) != len(plan.Exercises) {
			plan.Exercises = kept
			plans[i] = plan
			changed++
		}
	}

	// plans first, a custom exercise no plan references is harmless
	if err := c.store.SaveWorkouts(ctx, plans); err != nil {
		return fmt.Errorf("save workouts: %w", err)
	}
	if err := c.store.SaveCustomExercises(ctx, custom); err != nil {
		if rollbackErr := c.store.SaveWorkouts(ctx, c.plans); rollbackErr != nil {
			log.Errorf("restore workouts after failed custom exercise delete: %s", rollbackErr)
		}
		return fmt.Errorf("save custom exercises: %w", err)
	}

	c.custom = custom
	c.plans = plans
	delete(c.exercises, exerciseID)

	log.Debugf("custom exercise deleted: %s, removed from %d plans", exerciseID, changed)
	return nil
}

// DataURI embeds image bytes as a data URI. The content type is sniffed
// when mime is empty.
func DataURI(image []byte, mime string) string {
	if len(image) == 0 {
		return ""
	}
	if mime == "" {
		mime = http.DetectContentType(image)
	}
	if mime == "" {
		mime = defaultImageMIME
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(image)
}

func coerceReps(reps string) string {
	reps = strings.TrimSpace(reps)
	if reps == "" {
		return workout.DefaultReps
	}
	return reps
}

// atLeast returns def when v is nil, else v raised to floor.
func atLeast(v *int, def, floor int) int {
	if v == nil {
		return def
	}
	return max(*v, floor)
}

func cloneDefs(defs map[string]workout.ExerciseDef) map[string]workout.ExerciseDef {
	out := make(map[string]workout.ExerciseDef, len(defs))
	for id, def := range defs {
		out[id] = def
	}
	return out
}
