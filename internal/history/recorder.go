package history

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"
)

var ErrEntryNotFound = errors.New("history entry not found")

// Recorder is the per exercise log of completed sets. Entries are kept in
// chronological order, every change is written through to the store.
type Recorder struct {
	mu             sync.Mutex
	store          *store.Store
	metricsManager *metrics.Manager
}

func NewRecorder(st *store.Store, metricsManager *metrics.Manager) *Recorder {
	return &Recorder{
		store:          st,
		metricsManager: metricsManager,
	}
}

// Record appends entry to the exercise history, unless it is identical to
// the last recorded entry. Returns false when the entry was skipped.
func (r *Recorder) Record(ctx context.Context, exerciseID string, entry workout.HistoryEntry) (_ bool, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.record")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.store.History(ctx)
	if err != nil {
		return false, fmt.Errorf("load history: %w", err)
	}

	entries := history[exerciseID]
	if n := len(entries); n > 0 && entries[n-1].SameAs(entry) {
		log.Debugf("duplicate history entry for %s skipped", exerciseID)
		if r.metricsManager != nil {
			r.metricsManager.CounterHistoryDuplicates.Inc()
		}
		return false, nil
	}

	history[exerciseID] = append(entries, entry)
	if err := r.store.SaveHistory(ctx, history); err != nil {
		return false, fmt.Errorf("save history: %w", err)
	}

	return true, nil
}

// Recent returns up to n entries, most recent first. n <= 0 returns all.
func (r *Recorder) Recent(ctx context.Context, exerciseID string, n int) ([]workout.HistoryEntry, error) {
	entries, err := r.Entries(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	slices.Reverse(entries)
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

// Entries returns the exercise history in chronological order.
func (r *Recorder) Entries(ctx context.Context, exerciseID string) ([]workout.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.store.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return slices.Clone(history[exerciseID]), nil
}

func (r *Recorder) All(ctx context.Context) (map[string][]workout.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.store.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return history, nil
}

// Between returns the entries dated within [from, to], chronologically.
func (r *Recorder) Between(ctx context.Context, exerciseID string, from, to time.Time) ([]workout.HistoryEntry, error) {
	entries, err := r.Entries(ctx, exerciseID)
	if err != nil {
		return nil, err
	}

	return slices.DeleteFunc(entries, func(e workout.HistoryEntry) bool {
		return e.Date.Before(from) || e.Date.After(to)
	}), nil
}

// LastLoad returns the load of the latest entry, false when there is none.
func (r *Recorder) LastLoad(ctx context.Context, exerciseID string) (float64, bool, error) {
	entries, err := r.Entries(ctx, exerciseID)
	if err != nil {
		return 0, false, err
	}
	if len(entries) == 0 {
		return 0, false, nil
	}
	return entries[len(entries)-1].Load, true, nil
}

// DeleteOne removes the entry at the chronological position. The exercise
// key is dropped once its history is empty.
func (r *Recorder) DeleteOne(ctx context.Context, exerciseID string, position int) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.deleteOne")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.store.History(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}

	entries := history[exerciseID]
	if position < 0 || position >= len(entries) {
		return fmt.Errorf("%w: %s at %d", ErrEntryNotFound, exerciseID, position)
	}

	entries = slices.Delete(slices.Clone(entries), position, position+1)
	if len(entries) == 0 {
		delete(history, exerciseID)
	} else {
		history[exerciseID] = entries
	}

	if err := r.store.SaveHistory(ctx, history); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	log.Debugf("history entry %d of %s deleted", position, exerciseID)
	return nil
}

// ClearAll drops the whole history of an exercise.
func (r *Recorder) ClearAll(ctx context.Context, exerciseID string) (err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "history.clearAll")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	r.mu.Lock()
	defer r.mu.Unlock()

	history, err := r.store.History(ctx)
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	if _, ok := history[exerciseID]; !ok {
		return nil
	}

	delete(history, exerciseID)
	if err := r.store.SaveHistory(ctx, history); err != nil {
		return fmt.Errorf("save history: %w", err)
	}

	log.Debugf("history of %s cleared", exerciseID)
	return nil
}
