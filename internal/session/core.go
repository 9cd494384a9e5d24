package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/bridge"
	"github.com/2beens/gymtracker/internal/catalog"
	"github.com/2beens/gymtracker/internal/events"
	"github.com/2beens/gymtracker/internal/history"
	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/timer"
	"github.com/2beens/gymtracker/internal/workout"
)

type Params struct {
	Store          *store.Store
	Catalog        *catalog.Catalog
	History        *history.Recorder
	Hub            *events.Hub
	MetricsManager *metrics.Manager
	Clock          timer.Clock
	RestTick       time.Duration
	BridgeTick     time.Duration
}

// SetInput is what the user entered for the set being completed. A nil
// load falls back to the session load, then to the last recorded one.
type SetInput struct {
	Load        *float64 `json:"load"`
	Notes       string   `json:"notes"`
	DurationSec *int     `json:"durationSec"`
}

type CompleteResult struct {
	View     View           `json:"view"`
	Recorded bool           `json:"recorded"`
	Bridge   *bridge.Result `json:"bridge,omitempty"`
	Summary  *Summary       `json:"summary,omitempty"`
}

// Core owns the session state, its rest timer and bridge stopwatch. State
// changes are written to the store before an operation returns.
//
// Timer callbacks lock the core, so the timer is only started or skipped
// after the core lock is released. Lock order: opMu, then mu.
type Core struct {
	store          *store.Store
	catalog        *catalog.Catalog
	history        *history.Recorder
	hub            *events.Hub
	metricsManager *metrics.Manager
	clock          timer.Clock

	rest   *timer.RestTimer
	bridge *bridge.Stopwatch

	// opMu keeps a completed set and the rest it starts apart from any
	// start or abort of a session
	opMu sync.Mutex

	mu          sync.Mutex
	state       State
	lastSummary *Summary
	// epoch changes whenever a session starts, ends or is reloaded
	epoch       uint64
}

type pendingEvent struct {
	eventType string
	data      any
}

// followUp is the work left once the core lock is released.
type followUp struct {
	epoch   uint64
	events  []pendingEvent
	rest    *int
	restEnd time.Time
}

func (f *followUp) publish(eventType string, data any) {
	f.events = append(f.events, pendingEvent{eventType: eventType, data: data})
}

func NewCore(params Params) *Core {
	c := &Core{
		store:          params.Store,
		catalog:        params.Catalog,
		history:        params.History,
		hub:            params.Hub,
		metricsManager: params.MetricsManager,
		clock:          params.Clock,
		state:          NewState(),
	}
	if c.clock == nil {
		c.clock = timer.SystemClock{}
	}

	c.rest = timer.NewRestTimer(c.clock, params.RestTick, timer.Callbacks{
		OnTick:     c.onRestTick,
		OnChange:   c.onRestChange,
		OnComplete: c.onRestComplete,
	})
	c.bridge = bridge.NewStopwatch(c.clock, params.BridgeTick, c.onBridgeTick)

	return c
}

// Init loads the persisted state. A session that can not be resumed is
// discarded, a rest that expired meanwhile completes right away.
func (c *Core) Init(ctx context.Context) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.init")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()

	loaded, err := c.loadStateLocked(ctx)
	if err != nil {
		c.mu.Unlock()
		return err
	}

	if !loaded.Resumable() {
		if loaded.CurrentWorkout != nil {
			log.Warnf("saved session of plan %s can not be resumed, discarded", loaded.CurrentWorkoutID)
		}
		pending := loaded.PendingStartExtra && loaded.CurrentWorkout == nil
		loaded = loaded.idle()
		loaded.PendingStartExtra = pending
	}
	if loaded.CurrentSet < 1 {
		loaded.CurrentSet = 1
	}

	c.state = loaded
	c.epoch++
	c.bridge.Restore(loaded.Bridge)
	c.rest.Restore(loaded.Timer)
	if c.state.Active() {
		c.prefillLoadLocked(ctx)
		c.metricsManager.GaugeActiveSession.Set(1)
		log.Debugf("session of plan %s resumed at exercise %d set %d",
			c.state.CurrentWorkoutID, c.state.CurrentExerciseIndex, c.state.CurrentSet)
	} else {
		c.metricsManager.GaugeActiveSession.Set(0)
	}

	err = c.persistLocked(ctx)
	view := c.viewLocked()
	c.mu.Unlock()

	if err != nil {
		return err
	}

	c.rest.Resume()
	c.publish(events.TypeStateChanged, view)
	return nil
}

func (c *Core) loadStateLocked(ctx context.Context) (State, error) {
	return loadState(ctx, c.store)
}

// loadState reads the persisted state. Malformed state is discarded.
func loadState(ctx context.Context, st *store.Store) (State, error) {
	loaded := NewState()

	raw, err := st.Backend().Get(ctx, store.KeyAppState)
	if errors.Is(err, store.ErrNotFound) {
		return loaded, nil
	}
	if err != nil {
		return loaded, fmt.Errorf("load session state: %w", err)
	}

	if err := json.Unmarshal(raw, &loaded); err != nil {
		log.Warnf("malformed session state discarded: %s", err)
		return NewState(), nil
	}

	if loaded.SessionLoads == nil {
		loaded.SessionLoads = map[string]float64{}
	}
	if loaded.Bridge.Durations == nil {
		loaded.Bridge.Durations = map[string][]int{}
	}
	return loaded, nil
}

// Reload drops the in-memory state and loads catalog and session again,
// used after a backup import.
func (c *Core) Reload(ctx context.Context) error {
	c.rest.Cancel()
	c.bridge.Reset()

	if err := c.catalog.Load(ctx); err != nil {
		return err
	}

	c.mu.Lock()
	c.lastSummary = nil
	c.mu.Unlock()

	return c.Init(ctx)
}

// StartPlan starts a session of a catalog plan. A plan without exercises
// needs a selection first; for the extra plan the session then starts
// once the selection is saved.
func (c *Core) StartPlan(ctx context.Context, planID string) (View, error) {
	plan, err := c.catalog.Plan(planID)
	if err != nil {
		return c.View(), err
	}

	exercises := c.catalog.Resolve(plan)
	if len(exercises) == 0 {
		if planID == workout.PlanExtra {
			c.mu.Lock()
			c.state.PendingStartExtra = true
			err := c.persistLocked(ctx)
			view := c.viewLocked()
			c.mu.Unlock()
			if err != nil {
				return view, err
			}
			return view, ErrSelectionRequired
		}
		return c.View(), ErrSelectionRequired
	}

	return c.StartSession(ctx, plan.ID, exercises, c.catalog.RestBetweenExercises(plan))
}

// StartSession begins a session over already resolved exercises, replacing
// any active one. An empty exercise list ends up idle.
func (c *Core) StartSession(ctx context.Context, planID string, exercises []workout.RuntimeExercise, restBetweenExercises int) (_ View, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.start")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	now := c.clock.Now()

	c.mu.Lock()
	replaced := c.state.Active()
	if replaced {
		log.Warnf("active session of plan %s replaced by %s", c.state.CurrentWorkoutID, planID)
	}

	c.rest.Cancel()
	c.bridge.Reset()
	c.syncBridgeLocked()

	next := startSession(c.state, planID, exercises, restBetweenExercises, now)
	if len(exercises) == 0 {
		log.Warnf("plan %s started without exercises, back to idle", planID)
		next = abortToIdle(next)
	}
	c.state = next
	c.epoch++
	c.lastSummary = nil
	if c.state.Active() {
		c.prefillLoadLocked(ctx)
	}

	err = c.persistLocked(ctx)
	view := c.viewLocked()
	active := c.state.Active()
	c.mu.Unlock()

	if replaced {
		c.metricsManager.CounterSessionsAborted.Inc()
	}
	if err != nil {
		return view, err
	}

	if active {
		c.metricsManager.CounterSessionsStarted.WithLabelValues(planID).Inc()
		c.metricsManager.GaugeActiveSession.Set(1)
		log.Debugf("session of plan %s started with %d exercises", planID, len(exercises))
		c.publish(events.TypeSessionStarted, view)
	} else {
		c.metricsManager.GaugeActiveSession.Set(0)
		c.publish(events.TypeStateChanged, view)
	}

	return view, nil
}

// CompleteSet records the current set and moves on. A running bridge run
// of the current exercise is finalized and supplies the set duration.
// Finishing the last set of the last exercise completes the session.
func (c *Core) CompleteSet(ctx context.Context, in SetInput) (_ CompleteResult, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "session.completeSet")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	c.opMu.Lock()
	defer c.opMu.Unlock()

	now := c.clock.Now()

	c.mu.Lock()
	result, follow, err := c.completeSetLocked(ctx, in, now)
	c.mu.Unlock()

	if err != nil {
		return result, err
	}

	c.run(follow)
	return result, nil
}

func (c *Core) completeSetLocked(ctx context.Context, in SetInput, now time.Time) (CompleteResult, followUp, error) {
	follow := followUp{epoch: c.epoch}

	if !c.state.Active() {
		return CompleteResult{View: c.viewLocked()}, follow, ErrNoActiveSession
	}
	if c.state.Timer.Active() {
		return CompleteResult{View: c.viewLocked()}, follow, ErrRestInProgress
	}

	ex, ok := c.state.CurrentExercise()
	if !ok {
		return CompleteResult{View: c.viewLocked()}, follow, ErrNoActiveSession
	}

	var result CompleteResult
	duration := in.DurationSec
	bridgeBefore := c.bridge.State()
	if ex.IsBridge() {
		if res, ok := c.bridge.Finalize(ex.ID); ok {
			elapsed := res.Elapsed
			duration = &elapsed
			result.Bridge = &res
		}
	}

	next, entry, eff := completeSet(c.state, setInput{
		load:        c.resolveLoadLocked(ctx, ex.ID, in.Load),
		notes:       strings.TrimSpace(in.Notes),
		durationSec: duration,
	}, now)

	recorded, err := c.history.Record(ctx, ex.ID, entry)
	if err != nil {
		// the run stays live, a retry measures it again
		if result.Bridge != nil {
			c.bridge.Restore(bridgeBefore)
		}
		if persistErr := c.persistLocked(ctx); persistErr != nil {
			log.Errorf("persist session after failed record: %s", persistErr)
		}
		return CompleteResult{View: c.viewLocked()}, followUp{}, fmt.Errorf("record set: %w", err)
	}
	if result.Bridge != nil {
		c.metricsManager.CounterBridgeRuns.Inc()
		follow.publish(events.TypeBridgeFinalized, *result.Bridge)
	}
	result.Recorded = recorded
	c.metricsManager.CounterSetsCompleted.Inc()
	follow.publish(events.TypeSetCompleted, setCompletedData{
		ExerciseID: ex.ID,
		Entry:      entry,
		Recorded:   recorded,
	})

	c.state = next
	switch {
	case eff.completed:
		summary := c.finishLocked(ctx, now)
		result.Summary = &summary
		follow.publish(events.TypeSessionCompleted, summary)

	case eff.rest != nil:
		if eff.exerciseChanged {
			c.prefillLoadLocked(ctx)
		}
		follow.rest = eff.rest
		if *eff.rest > 0 {
			follow.restEnd = now.Add(time.Duration(*eff.rest) * time.Second)
			endAt := follow.restEnd
			c.state.Timer = timer.State{
				RemainingSeconds: *eff.rest,
				EndAt:            &endAt,
			}
			follow.publish(events.TypeRestStarted, restStartedData{
				Seconds: *eff.rest,
				EndAt:   endAt,
			})
		}
	}

	if err := c.persistLocked(ctx); err != nil {
		return CompleteResult{View: c.viewLocked()}, followUp{}, err
	}

	result.View = c.viewLocked()
	follow.publish(events.TypeStateChanged, result.View)
	return result, follow, nil
}

// finishLocked turns the session into its summary and goes idle.
func (c *Core) finishLocked(ctx context.Context, now time.Time) Summary {
	planName := ""
	if plan, err := c.catalog.Plan(c.state.CurrentWorkoutID); err == nil {
		planName = plan.Name
	}

	c.rest.Cancel()
	c.bridge.Reset()
	c.syncBridgeLocked()

	next, summary := advancePastLastExercise(c.state, planName, now)
	for i, ex := range summary.Exercises {
		entries, err := c.history.Between(ctx, ex.ID, summary.StartedAt, summary.EndedAt)
		if err != nil {
			log.Errorf("summary history of %s: %s", ex.ID, err)
		}
		if entries == nil {
			entries = []workout.HistoryEntry{}
		}
		summary.Exercises[i].Entries = entries
	}

	if summary.WorkoutID != workout.PlanExtra {
		if extra, err := c.catalog.Plan(workout.PlanExtra); err == nil {
			summary.ExtraAvailable = extra.HasExercises()
		}
	}

	c.state = next
	c.epoch++
	c.lastSummary = &summary

	c.metricsManager.CounterSessionsCompleted.WithLabelValues(summary.WorkoutID).Inc()
	c.metricsManager.GaugeActiveSession.Set(0)
	if !summary.StartedAt.IsZero() {
		c.metricsManager.HistogramSessionDuration.Observe(summary.EndedAt.Sub(summary.StartedAt).Seconds())
	}

	log.Debugf("session of plan %s completed, %d exercises", summary.WorkoutID, len(summary.Exercises))
	return summary
}

// AddExtraSet adds one set to the current exercise, on its final set only.
func (c *Core) AddExtraSet(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() {
		return c.viewLocked(), ErrNoActiveSession
	}
	if c.state.Timer.Active() {
		return c.viewLocked(), ErrRestInProgress
	}

	next, err := addExtraSet(c.state)
	if err != nil {
		return c.viewLocked(), err
	}
	c.state = next

	if err := c.persistLocked(ctx); err != nil {
		return c.viewLocked(), err
	}

	view := c.viewLocked()
	c.publish(events.TypeStateChanged, view)
	return view, nil
}

// AbortToIdle drops the session. Recorded history and bridge durations
// are kept.
func (c *Core) AbortToIdle(ctx context.Context) (View, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	wasActive := c.state.Active()

	c.rest.Cancel()
	c.bridge.Reset()
	c.syncBridgeLocked()
	c.state = abortToIdle(c.state)
	c.epoch++

	err := c.persistLocked(ctx)
	view := c.viewLocked()
	c.mu.Unlock()

	if wasActive {
		c.metricsManager.CounterSessionsAborted.Inc()
		c.metricsManager.GaugeActiveSession.Set(0)
		log.Debugln("session aborted")
	}
	if err != nil {
		return view, err
	}

	c.publish(events.TypeSessionAborted, view)
	return view, nil
}

// SetSessionLoad stores the load typed for an exercise, the current one
// when exerciseID is empty. Empty input clears it, input that is not a
// finite number is ignored.
func (c *Core) SetSessionLoad(ctx context.Context, exerciseID, raw string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() {
		return c.viewLocked(), ErrNoActiveSession
	}
	if exerciseID == "" {
		ex, _ := c.state.CurrentExercise()
		exerciseID = ex.ID
	}

	raw = strings.TrimSpace(raw)
	if raw == "" {
		delete(c.state.SessionLoads, exerciseID)
	} else {
		load, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(load) || math.IsInf(load, 0) {
			log.Warnf("load input %q for %s ignored", raw, exerciseID)
			return c.viewLocked(), nil
		}
		c.state.SessionLoads[exerciseID] = load
	}

	if err := c.persistLocked(ctx); err != nil {
		return c.viewLocked(), err
	}
	return c.viewLocked(), nil
}

// SkipRest ends the running rest early. Returns false when not resting.
func (c *Core) SkipRest(_ context.Context) (View, bool, error) {
	c.opMu.Lock()
	defer c.opMu.Unlock()

	c.mu.Lock()
	if !c.state.Active() {
		view := c.viewLocked()
		c.mu.Unlock()
		return view, false, ErrNoActiveSession
	}
	resting := c.state.Timer.Active()
	c.mu.Unlock()

	skipped := resting && c.rest.Skip()
	return c.View(), skipped, nil
}

// ResumeRest recomputes the rest from its end time, for clients coming
// back after being suspended.
func (c *Core) ResumeRest(_ context.Context) View {
	c.rest.Resume()
	return c.View()
}

// StartBridge starts the stopwatch for the current bridge exercise.
func (c *Core) StartBridge(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() {
		return c.viewLocked(), ErrNoActiveSession
	}
	if c.state.Timer.Active() {
		return c.viewLocked(), ErrRestInProgress
	}
	ex, ok := c.state.CurrentExercise()
	if !ok || !ex.IsBridge() {
		return c.viewLocked(), ErrNotBridgeExercise
	}

	c.bridge.Start(ex.ID)
	if err := c.persistLocked(ctx); err != nil {
		return c.viewLocked(), err
	}

	view := c.viewLocked()
	c.publish(events.TypeBridgeStarted, view.Bridge)
	return view, nil
}

// CustomizePlan saves the exercise selection of a plan. Regular plans
// start right away, the extra plan only when its start was pending.
func (c *Core) CustomizePlan(ctx context.Context, planID string, restBetweenExercises *int, selection []catalog.Selection) (View, error) {
	plan, err := c.catalog.SavePlanSelection(ctx, planID, restBetweenExercises, selection)
	if err != nil {
		return c.View(), err
	}

	c.mu.Lock()
	pending := c.state.PendingStartExtra
	c.mu.Unlock()

	if planID != workout.PlanExtra || pending {
		return c.StartSession(ctx, plan.ID, c.catalog.Resolve(plan), c.catalog.RestBetweenExercises(plan))
	}
	return c.View(), nil
}

// CancelSelection leaves the selection of a plan, dropping a pending extra
// start.
func (c *Core) CancelSelection(ctx context.Context, planID string) (View, error) {
	if _, err := c.catalog.Plan(planID); err != nil {
		return c.View(), err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if planID == workout.PlanExtra && c.state.PendingStartExtra {
		c.state.PendingStartExtra = false
		if err := c.persistLocked(ctx); err != nil {
			return c.viewLocked(), err
		}
	}
	return c.viewLocked(), nil
}

// ContinueWithExtra starts the extra plan after a finished session.
func (c *Core) ContinueWithExtra(ctx context.Context) (View, error) {
	return c.StartPlan(ctx, workout.PlanExtra)
}

// DeletePlan deletes a user plan and forgets it as last completed.
func (c *Core) DeletePlan(ctx context.Context, planID string) error {
	if err := c.catalog.DeletePlan(ctx, planID); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.LastCompletedWorkoutID != planID {
		return nil
	}
	c.state.LastCompletedWorkoutID = ""
	c.state.LastCompletedAt = nil
	return c.persistLocked(ctx)
}

func (c *Core) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewLocked()
}

// Snapshot returns a copy of the current state.
func (c *Core) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.syncBridgeLocked()
	return c.state.clone()
}

func (c *Core) LastSummary() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastSummary == nil {
		return Summary{}, false
	}
	return *c.lastSummary, true
}

func (c *Core) BridgeStats(exerciseID string) (bridge.Stats, bool) {
	return c.bridge.Stats(exerciseID)
}

func (c *Core) Close() {
	c.rest.Close()
	c.bridge.Close()
}

func (c *Core) run(follow followUp) {
	for _, e := range follow.events {
		c.publish(e.eventType, e.data)
	}
	if follow.rest == nil {
		return
	}

	c.mu.Lock()
	stale := follow.epoch != c.epoch
	c.mu.Unlock()
	if stale {
		log.Debugln("rest of an ended session not started")
		return
	}

	if *follow.rest > 0 {
		c.rest.StartUntil(follow.restEnd)
	} else {
		c.rest.Start(0)
	}
}

func (c *Core) publish(eventType string, data any) {
	if c.hub != nil {
		c.hub.Publish(eventType, data)
	}
}

func (c *Core) viewLocked() View {
	return buildView(c.state, c.clock.Now(), c.bridge)
}

func (c *Core) syncBridgeLocked() {
	c.state.Bridge = c.bridge.State()
}

func (c *Core) persistLocked(ctx context.Context) error {
	c.syncBridgeLocked()
	if err := c.store.SaveJSON(ctx, store.KeyAppState, c.state); err != nil {
		log.Errorf("persist session state: %s", err)
		return fmt.Errorf("persist session state: %w", err)
	}
	return nil
}

// resolveLoadLocked picks the load of a completed set: the entered value,
// the session load, the last recorded load, else zero.
func (c *Core) resolveLoadLocked(ctx context.Context, exerciseID string, input *float64) float64 {
	if input != nil && !math.IsNaN(*input) && !math.IsInf(*input, 0) {
		c.state.SessionLoads[exerciseID] = *input
		return *input
	}
	if load, ok := c.state.SessionLoads[exerciseID]; ok {
		return load
	}
	load, found, err := c.history.LastLoad(ctx, exerciseID)
	if err != nil {
		log.Errorf("last load of %s: %s", exerciseID, err)
		return 0
	}
	if found {
		return load
	}
	return 0
}

// prefillLoadLocked copies the last recorded load of the current exercise
// into the session loads, unless one was entered already.
func (c *Core) prefillLoadLocked(ctx context.Context) {
	ex, ok := c.state.CurrentExercise()
	if !ok {
		return
	}
	if _, ok := c.state.SessionLoads[ex.ID]; ok {
		return
	}

	load, found, err := c.history.LastLoad(ctx, ex.ID)
	if err != nil {
		log.Errorf("prefill load of %s: %s", ex.ID, err)
		return
	}
	if found {
		c.state.SessionLoads[ex.ID] = load
	}
}

func (c *Core) onRestTick(remaining int) {
	c.publish(events.TypeRestTick, restTickData{Remaining: remaining})
}

func (c *Core) onRestChange(state timer.State) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() {
		return
	}
	// a start notification delivered after its countdown already ended
	if state.Active() && !c.rest.Active() {
		return
	}
	// a countdown this session never asked for
	if state.Active() && (c.state.Timer.EndAt == nil || !c.state.Timer.EndAt.Equal(*state.EndAt)) {
		log.Warnf("rest change ending at %s dropped", state.EndAt)
		return
	}

	c.state.Timer = state
	if err := c.persistLocked(context.Background()); err != nil {
		log.Errorf("persist rest change: %s", err)
	}
}

func (c *Core) onRestComplete(reason string) {
	c.mu.Lock()
	if !c.state.Active() {
		c.mu.Unlock()
		log.Tracef("rest completion (%s) for an ended session dropped", reason)
		return
	}

	c.state.Timer = timer.State{}
	if err := c.persistLocked(context.Background()); err != nil {
		log.Errorf("persist rest completion: %s", err)
	}
	view := c.viewLocked()
	c.mu.Unlock()

	c.metricsManager.CounterRestFinished.WithLabelValues(reason).Inc()
	c.publish(events.TypeRestFinished, restFinishedData{
		Reason: reason,
		View:   view,
	})
}

func (c *Core) onBridgeTick(exerciseID string, elapsed int) {
	c.publish(events.TypeBridgeTick, bridgeTickData{
		ExerciseID: exerciseID,
		Elapsed:    elapsed,
	})
}

type setCompletedData struct {
	ExerciseID string               `json:"exerciseId"`
	Entry      workout.HistoryEntry `json:"entry"`
	Recorded   bool                 `json:"recorded"`
}

type restStartedData struct {
	Seconds int       `json:"seconds"`
	EndAt   time.Time `json:"endAt"`
}

type restTickData struct {
	Remaining int `json:"remaining"`
}

type restFinishedData struct {
	Reason string `json:"reason"`
	View   View   `json:"view"`
}

type bridgeTickData struct {
	ExerciseID string `json:"exerciseId"`
	Elapsed    int    `json:"elapsed"`
}
