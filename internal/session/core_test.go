package session_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/2beens/gymtracker/internal/catalog"
	"github.com/2beens/gymtracker/internal/events"
	"github.com/2beens/gymtracker/internal/history"
	"github.com/2beens/gymtracker/internal/session"
	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/workout"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const testCatalog = `{
	"workouts": [
		{"id": "A", "name": "Workout A", "rest_between_exercises": 45, "exercises": [
			{"id": "squat", "sets": 2, "reps": "12-10"},
			{"id": "bench", "sets": 1}
		]},
		{"id": "B", "name": "Workout B", "exercises": ["ponte"]},
		{"id": "C", "name": "Workout C", "exercises": []}
	],
	"exercises": {
		"squat": {"name": "Squat", "default_timer": 90},
		"bench": {"name": "Bench", "default_reps": "8", "default_timer": 60},
		"ponte": {"name": "Ponte", "default_sets": 1, "default_timer": 30},
		"curl": {"name": "Curl", "default_sets": 3, "default_timer": 30}
	}
}`

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type testSource struct{}

func (testSource) Fetch(_ context.Context) (*catalog.Base, error) {
	return catalog.DecodeBase([]byte(testCatalog))
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type harness struct {
	core    *session.Core
	store   *store.Store
	catalog *catalog.Catalog
	history *history.Recorder
	hub     *events.Hub
	metrics *metrics.Manager
	clock   *fakeClock
}

func newHarness(t *testing.T, st *store.Store, now time.Time) *harness {
	t.Helper()
	ctx := context.Background()

	if st == nil {
		st = store.New(store.NewMemoryBackend())
	}
	h := &harness{
		store:   st,
		catalog: catalog.New(testSource{}, st),
		hub:     events.NewHub(),
		metrics: metrics.NewTestManager(),
		clock:   &fakeClock{now: now},
	}
	h.history = history.NewRecorder(st, h.metrics)
	require.NoError(t, h.catalog.Load(ctx))

	h.core = session.NewCore(session.Params{
		Store:          st,
		Catalog:        h.catalog,
		History:        h.history,
		Hub:            h.hub,
		MetricsManager: h.metrics,
		Clock:          h.clock,
		RestTick:       time.Hour,
		BridgeTick:     time.Hour,
	})
	t.Cleanup(func() {
		h.core.Close()
		h.hub.Close()
	})

	require.NoError(t, h.core.Init(ctx))
	return h
}

func (h *harness) savedState(t *testing.T) session.State {
	t.Helper()
	var state session.State
	found, err := h.store.LoadJSON(context.Background(), store.KeyAppState, &state)
	require.NoError(t, err)
	require.True(t, found)
	return state
}

func TestCore_TwoExerciseWorkoutCompletes(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	view, err := h.core.StartPlan(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, session.PhaseActiveSet, view.Phase)
	assert.Equal(t, "squat", view.Exercise.ID)
	assert.Equal(t, workout.NumericReps(12), *view.TargetReps)

	res, err := h.core.CompleteSet(ctx, session.SetInput{Load: floatPtr(60)})
	require.NoError(t, err)
	assert.True(t, res.Recorded)
	assert.Equal(t, session.PhaseResting, res.View.Phase)
	assert.Equal(t, 90, res.View.RestRemaining)
	assert.Equal(t, 2, res.View.CurrentSet)

	_, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.ErrorIs(t, err, session.ErrRestInProgress)

	view, skipped, err := h.core.SkipRest(ctx)
	require.NoError(t, err)
	assert.True(t, skipped)
	assert.Equal(t, session.PhaseActiveSet, view.Phase)
	assert.Equal(t, workout.NumericReps(10), *view.TargetReps)

	h.clock.Advance(time.Minute)
	res, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)
	assert.Equal(t, session.PhaseResting, res.View.Phase)
	assert.Equal(t, 45, res.View.RestRemaining)
	assert.Equal(t, "bench", res.View.Exercise.ID)

	h.clock.Advance(50 * time.Second)
	view = h.core.ResumeRest(ctx)
	assert.Equal(t, session.PhaseActiveSet, view.Phase)

	res, err = h.core.CompleteSet(ctx, session.SetInput{Load: floatPtr(40), Notes: " easy "})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, session.PhaseIdle, res.View.Phase)

	summary := res.Summary
	assert.Equal(t, []string{"squat", "bench"}, summary.ExerciseIDs())
	assert.Equal(t, "Workout A", summary.WorkoutName)
	assert.Equal(t, t0, summary.StartedAt)
	assert.Len(t, summary.Exercises[0].Entries, 2)
	require.Len(t, summary.Exercises[1].Entries, 1)
	assert.Equal(t, "easy", summary.Exercises[1].Entries[0].Notes)
	assert.False(t, summary.ExtraAvailable)

	last, ok := h.core.LastSummary()
	require.True(t, ok)
	assert.Equal(t, *summary, last)

	state := h.savedState(t)
	assert.Nil(t, state.CurrentWorkout)
	assert.Equal(t, "A", state.LastCompletedWorkoutID)
	assert.Nil(t, state.Timer.EndAt)

	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CounterSessionsCompleted.WithLabelValues("A")))
	assert.Equal(t, 3.0, testutil.ToFloat64(h.metrics.CounterSetsCompleted))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CounterRestFinished.WithLabelValues("skipped")))
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CounterRestFinished.WithLabelValues("expired")))

	_, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.ErrorIs(t, err, session.ErrNoActiveSession)
}

func TestCore_AddExtraSet(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	_, err := h.core.StartPlan(ctx, "A")
	require.NoError(t, err)

	_, err = h.core.AddExtraSet(ctx)
	require.ErrorIs(t, err, session.ErrNotFinalSet)

	_, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)
	_, err = h.core.AddExtraSet(ctx)
	require.ErrorIs(t, err, session.ErrRestInProgress)
	_, _, err = h.core.SkipRest(ctx)
	require.NoError(t, err)

	view, err := h.core.AddExtraSet(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseActiveSet, view.Phase)
	assert.Equal(t, 2, view.CurrentSet)
	assert.Equal(t, 3, view.Exercise.Sets)
	assert.False(t, view.FinalSet)

	assert.Equal(t, 3, h.savedState(t).CurrentWorkout[0].Sets)
}

func TestCore_GuardsWithoutSession(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	_, err := h.core.CompleteSet(ctx, session.SetInput{})
	assert.ErrorIs(t, err, session.ErrNoActiveSession)
	_, err = h.core.AddExtraSet(ctx)
	assert.ErrorIs(t, err, session.ErrNoActiveSession)
	_, err = h.core.SetSessionLoad(ctx, "squat", "50")
	assert.ErrorIs(t, err, session.ErrNoActiveSession)
	_, err = h.core.StartBridge(ctx)
	assert.ErrorIs(t, err, session.ErrNoActiveSession)
	_, _, err = h.core.SkipRest(ctx)
	assert.ErrorIs(t, err, session.ErrNoActiveSession)

	_, err = h.core.StartPlan(ctx, "missing")
	assert.ErrorIs(t, err, catalog.ErrPlanNotFound)

	assert.Equal(t, session.PhaseIdle, h.core.View().Phase)
	assert.False(t, h.savedState(t).Active())
}

func TestCore_ResumesAfterRestart(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemoryBackend())

	first := newHarness(t, st, t0)
	_, err := first.core.StartPlan(ctx, "A")
	require.NoError(t, err)
	_, err = first.core.CompleteSet(ctx, session.SetInput{Load: floatPtr(70)})
	require.NoError(t, err)
	first.core.Close()

	second := newHarness(t, st, t0.Add(30*time.Second))
	view := second.core.View()
	assert.Equal(t, session.PhaseResting, view.Phase)
	assert.Equal(t, 60, view.RestRemaining)
	assert.Equal(t, 2, view.CurrentSet)
	require.NotNil(t, view.Load)
	assert.Equal(t, 70.0, *view.Load)
	second.core.Close()

	third := newHarness(t, st, t0.Add(100*time.Second))
	view = third.core.View()
	assert.Equal(t, session.PhaseActiveSet, view.Phase)
	assert.Equal(t, 2, view.CurrentSet)
	assert.Nil(t, third.savedState(t).Timer.EndAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(third.metrics.CounterRestFinished.WithLabelValues("expired")))
}

func TestCore_DiscardsUnresumableState(t *testing.T) {
	ctx := context.Background()

	t.Run("malformed", func(t *testing.T) {
		backend := store.NewMemoryBackend()
		require.NoError(t, backend.Set(ctx, store.KeyAppState, []byte(`{"currentWorkout": 12`)))

		h := newHarness(t, store.New(backend), t0)
		assert.Equal(t, session.PhaseIdle, h.core.View().Phase)
	})

	t.Run("index out of range", func(t *testing.T) {
		st := store.New(store.NewMemoryBackend())
		require.NoError(t, st.SaveJSON(ctx, store.KeyAppState, map[string]any{
			"currentWorkout":       []map[string]any{{"id": "squat", "name": "Squat", "default_sets": 3}},
			"currentWorkoutId":     "A",
			"currentExerciseIndex": 1,
			"currentSet":           2,
			"sessionLoads":         map[string]float64{"squat": 50},
			"bridge": map[string]any{
				"running":    true,
				"exerciseId": "ponte",
				"durations":  map[string][]int{"ponte": {30, 40}},
			},
			"lastCompletedWorkoutId": "B",
		}))

		h := newHarness(t, st, t0)
		assert.Equal(t, session.PhaseIdle, h.core.View().Phase)

		state := h.savedState(t)
		assert.Nil(t, state.CurrentWorkout)
		assert.Empty(t, state.SessionLoads)
		assert.False(t, state.Bridge.Running)
		assert.Equal(t, []int{30, 40}, state.Bridge.Durations["ponte"])
		assert.Equal(t, "B", state.LastCompletedWorkoutID)
		assert.Equal(t, workout.DefaultRestBetweenExercises, state.RestBetweenExercises)
	})

	t.Run("empty workout", func(t *testing.T) {
		st := store.New(store.NewMemoryBackend())
		require.NoError(t, st.SaveJSON(ctx, store.KeyAppState, map[string]any{
			"currentWorkout":   []any{},
			"currentWorkoutId": "A",
		}))

		h := newHarness(t, st, t0)
		assert.Equal(t, session.PhaseIdle, h.core.View().Phase)
	})
}

func TestCore_BridgeRunSuppliesSetDuration(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	_, err := h.core.StartPlan(ctx, "A")
	require.NoError(t, err)
	_, err = h.core.StartBridge(ctx)
	require.ErrorIs(t, err, session.ErrNotBridgeExercise)
	_, err = h.core.AbortToIdle(ctx)
	require.NoError(t, err)

	view, err := h.core.StartPlan(ctx, "B")
	require.NoError(t, err)
	require.NotNil(t, view.Bridge)
	assert.False(t, view.Bridge.Running)

	view, err = h.core.StartBridge(ctx)
	require.NoError(t, err)
	assert.True(t, view.Bridge.Running)
	assert.True(t, h.savedState(t).Bridge.Running)

	h.clock.Advance(42 * time.Second)
	view = h.core.View()
	assert.Equal(t, 42, view.Bridge.Elapsed)

	res, err := h.core.CompleteSet(ctx, session.SetInput{DurationSec: intPtr(5)})
	require.NoError(t, err)
	require.NotNil(t, res.Bridge)
	assert.Equal(t, 42, res.Bridge.Elapsed)
	require.NotNil(t, res.Summary)

	entries, err := h.history.Entries(ctx, "ponte")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].DurationSec)
	assert.Equal(t, 42, *entries[0].DurationSec)

	stats, ok := h.core.BridgeStats("ponte")
	require.True(t, ok)
	assert.Equal(t, 42, stats.Max)

	state := h.savedState(t)
	assert.False(t, state.Bridge.Running)
	assert.Equal(t, []int{42}, state.Bridge.Durations["ponte"])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CounterBridgeRuns))
}

func TestCore_SessionLoads(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	_, err := h.history.Record(ctx, "squat", workout.HistoryEntry{
		Date: t0.Add(-24 * time.Hour), SetNumber: 1, Load: 80, ExerciseName: "Squat", WorkoutID: "A",
	})
	require.NoError(t, err)

	view, err := h.core.StartPlan(ctx, "A")
	require.NoError(t, err)
	require.NotNil(t, view.Load)
	assert.Equal(t, 80.0, *view.Load, "prefilled from history")

	view, err = h.core.SetSessionLoad(ctx, "", "abc")
	require.NoError(t, err)
	assert.Equal(t, 80.0, *view.Load)

	view, err = h.core.SetSessionLoad(ctx, "", "  ")
	require.NoError(t, err)
	assert.Nil(t, view.Load)

	view, err = h.core.SetSessionLoad(ctx, "", "82.5")
	require.NoError(t, err)
	assert.Equal(t, 82.5, *view.Load)
	assert.Equal(t, 82.5, h.savedState(t).SessionLoads["squat"])

	_, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)

	load, found, err := h.history.LastLoad(ctx, "squat")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 82.5, load)

	_, err = h.core.SetSessionLoad(ctx, "squat", "Inf")
	require.NoError(t, err)
	assert.Equal(t, 82.5, h.savedState(t).SessionLoads["squat"])
}

func TestCore_ExtraSelectionFlow(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	view, err := h.core.StartPlan(ctx, workout.PlanExtra)
	require.ErrorIs(t, err, session.ErrSelectionRequired)
	assert.Equal(t, session.PhaseSelecting, view.Phase)
	assert.True(t, h.savedState(t).PendingStartExtra)

	view, err = h.core.CancelSelection(ctx, workout.PlanExtra)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseIdle, view.Phase)

	view, err = h.core.CustomizePlan(ctx, workout.PlanExtra, nil, []catalog.Selection{{ID: "curl"}})
	require.NoError(t, err)
	assert.Equal(t, session.PhaseIdle, view.Phase, "extra without a pending start is only saved")

	_, err = h.core.StartPlan(ctx, "C")
	require.ErrorIs(t, err, session.ErrSelectionRequired)
	assert.False(t, h.savedState(t).PendingStartExtra)

	view, err = h.core.CustomizePlan(ctx, "C", intPtr(0), []catalog.Selection{
		{ID: "curl", Sets: intPtr(2), RestBetweenSets: intPtr(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, session.PhaseActiveSet, view.Phase)
	assert.Equal(t, "C", view.WorkoutID)

	// zero rest completes right away
	res, err := h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)
	assert.Equal(t, session.PhaseActiveSet, res.View.Phase)
	assert.Equal(t, 2, res.View.CurrentSet)
	assert.Equal(t, session.PhaseActiveSet, h.core.View().Phase)

	res, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.True(t, res.Summary.ExtraAvailable)

	view, err = h.core.ContinueWithExtra(ctx)
	require.NoError(t, err)
	assert.Equal(t, workout.PlanExtra, view.WorkoutID)
	assert.Equal(t, "curl", view.Exercise.ID)
}

func TestCore_PendingExtraStartsOnSave(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	_, err := h.core.StartPlan(ctx, workout.PlanExtra)
	require.ErrorIs(t, err, session.ErrSelectionRequired)

	view, err := h.core.CustomizePlan(ctx, workout.PlanExtra, nil, []catalog.Selection{{ID: "curl"}})
	require.NoError(t, err)
	assert.Equal(t, session.PhaseActiveSet, view.Phase)
	assert.False(t, view.PendingStartExtra)
}

func TestCore_DeletePlanClearsLastCompleted(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	plan, err := h.catalog.CreatePlan(ctx, "Arms")
	require.NoError(t, err)
	_, err = h.core.CustomizePlan(ctx, plan.ID, nil, []catalog.Selection{{ID: "bench", Sets: intPtr(1)}})
	require.NoError(t, err)
	res, err := h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)
	require.NotNil(t, res.Summary)
	assert.Equal(t, plan.ID, h.core.View().LastCompletedWorkoutID)

	require.ErrorIs(t, h.core.DeletePlan(ctx, "A"), catalog.ErrProtectedPlan)
	require.NoError(t, h.core.DeletePlan(ctx, plan.ID))

	assert.Empty(t, h.core.View().LastCompletedWorkoutID)
	assert.Empty(t, h.savedState(t).LastCompletedWorkoutID)
}

func TestCore_AbortKeepsHistory(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	_, eventsCh, cancel := h.hub.Subscribe(32)
	defer cancel()

	_, err := h.core.StartPlan(ctx, "A")
	require.NoError(t, err)
	_, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)

	view, err := h.core.AbortToIdle(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.PhaseIdle, view.Phase)

	entries, err := h.history.Entries(ctx, "squat")
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	state := h.savedState(t)
	assert.Nil(t, state.CurrentWorkout)
	assert.Nil(t, state.Timer.EndAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CounterSessionsAborted))

	var types []string
	for len(eventsCh) > 0 {
		types = append(types, (<-eventsCh).Type)
	}
	assert.Contains(t, types, events.TypeSessionStarted)
	assert.Contains(t, types, events.TypeSetCompleted)
	assert.Contains(t, types, events.TypeRestStarted)
	assert.Contains(t, types, events.TypeSessionAborted)
	assert.NotContains(t, types, events.TypeRestFinished)
}

func TestCore_Reload(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	_, err := h.core.StartPlan(ctx, "A")
	require.NoError(t, err)

	require.NoError(t, h.store.Remove(ctx, store.KeyAppState))
	require.NoError(t, h.core.Reload(ctx))

	assert.Equal(t, session.PhaseIdle, h.core.View().Phase)
	_, ok := h.core.LastSummary()
	assert.False(t, ok)
}

// blockingHook holds the first log entry containing match until release
// is closed.
type blockingHook struct {
	match   string
	once    sync.Once
	paused  chan struct{}
	release chan struct{}
}

func (h *blockingHook) Levels() []log.Level {
	return log.AllLevels
}

func (h *blockingHook) Fire(entry *log.Entry) error {
	if !strings.Contains(entry.Message, h.match) {
		return nil
	}
	h.once.Do(func() {
		close(h.paused)
		select {
		case <-h.release:
		case <-time.After(5 * time.Second):
		}
	})
	return nil
}

func TestCore_RestOfAbortedSessionNotInherited(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, nil, t0)

	hook := &blockingHook{
		match:   "set_completed dropped",
		paused:  make(chan struct{}),
		release: make(chan struct{}),
	}
	prevLevel := log.GetLevel()
	log.SetLevel(log.TraceLevel)
	log.AddHook(hook)
	t.Cleanup(func() {
		log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
		log.SetLevel(prevLevel)
	})

	// a full subscriber makes every publish log a drop
	_, _, cancel := h.hub.Subscribe(1)
	defer cancel()
	h.hub.Publish("filler", nil)

	_, err := h.core.StartPlan(ctx, "A")
	require.NoError(t, err)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := h.core.CompleteSet(ctx, session.SetInput{})
		assert.NoError(t, err)
	}()

	select {
	case <-hook.paused:
	case <-time.After(5 * time.Second):
		t.Fatal("set completion never published")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err := h.core.AbortToIdle(ctx)
		assert.NoError(t, err)
		_, err = h.core.StartPlan(ctx, "A")
		assert.NoError(t, err)
	}()

	time.Sleep(50 * time.Millisecond)
	close(hook.release)
	wg.Wait()

	view := h.core.View()
	assert.Equal(t, session.PhaseActiveSet, view.Phase)
	assert.Equal(t, 1, view.CurrentSet)
	assert.Zero(t, view.RestRemaining)
	assert.Nil(t, h.savedState(t).Timer.EndAt)
}

// historyFailingBackend fails history writes while fail is set.
type historyFailingBackend struct {
	store.Backend
	fail atomic.Bool
}

func (b *historyFailingBackend) Set(ctx context.Context, key store.Key, value []byte) error {
	if key == store.KeyHistory && b.fail.Load() {
		return errors.New("disk full")
	}
	return b.Backend.Set(ctx, key, value)
}

func TestCore_FailedRecordKeepsBridgeRun(t *testing.T) {
	ctx := context.Background()
	backend := &historyFailingBackend{Backend: store.NewMemoryBackend()}
	h := newHarness(t, store.New(backend), t0)

	_, err := h.core.StartPlan(ctx, "B")
	require.NoError(t, err)
	_, err = h.core.StartBridge(ctx)
	require.NoError(t, err)
	h.clock.Advance(42 * time.Second)

	backend.fail.Store(true)
	_, err = h.core.CompleteSet(ctx, session.SetInput{})
	require.Error(t, err)

	view := h.core.View()
	require.NotNil(t, view.Bridge)
	assert.True(t, view.Bridge.Running)
	assert.Equal(t, 42, view.Bridge.Elapsed)

	state := h.savedState(t)
	assert.True(t, state.Bridge.Running)
	assert.Empty(t, state.Bridge.Durations["ponte"])
	assert.Zero(t, testutil.ToFloat64(h.metrics.CounterBridgeRuns))

	backend.fail.Store(false)
	h.clock.Advance(3 * time.Second)
	res, err := h.core.CompleteSet(ctx, session.SetInput{})
	require.NoError(t, err)
	require.NotNil(t, res.Bridge)
	assert.Equal(t, 45, res.Bridge.Elapsed)

	entries, err := h.history.Entries(ctx, "ponte")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].DurationSec)
	assert.Equal(t, 45, *entries[0].DurationSec)
	assert.Equal(t, []int{45}, h.savedState(t).Bridge.Durations["ponte"])
	assert.Equal(t, 1.0, testutil.ToFloat64(h.metrics.CounterBridgeRuns))
}

func floatPtr(v float64) *float64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
