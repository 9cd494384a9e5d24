package timer

import (
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// completion reasons
const (
	ReasonExpired = "expired"
	ReasonSkipped = "skipped"
)

const DefaultTick = 250 * time.Millisecond

// State is the persisted rest timer. EndAt is the ground truth while the
// timer is live, RemainingSeconds is only a cache for display.
type State struct {
	RemainingSeconds int        `json:"remainingSeconds"`
	EndAt            *time.Time `json:"endAt"`
}

func (s State) Active() bool {
	return s.EndAt != nil
}

// ComputeRemaining returns the whole seconds left until endAt, rounded up,
// never negative.
func ComputeRemaining(endAt, now time.Time) int {
	left := endAt.Sub(now)
	if left <= 0 {
		return 0
	}
	secs := left / time.Second
	if left%time.Second != 0 {
		secs++
	}
	return int(secs)
}

type Callbacks struct {
	// OnTick reports the remaining seconds, for display.
	OnTick func(remaining int)
	// OnChange is called on every change that must be persisted.
	OnChange func(state State)
	// OnComplete fires once per countdown, on expiry or skip.
	OnComplete func(reason string)
}

// RestTimer is a countdown anchored to an absolute end time. Callbacks are
// never invoked while the timer lock is held.
type RestTimer struct {
	clock     Clock
	tick      time.Duration
	callbacks Callbacks

	mu        sync.Mutex
	endAt     time.Time
	remaining int
	// generation invalidates tick loops started for an older countdown
	generation uint64
	stop       chan struct{}
	wg         sync.WaitGroup
}

func NewRestTimer(clock Clock, tick time.Duration, callbacks Callbacks) *RestTimer {
	if clock == nil {
		clock = SystemClock{}
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &RestTimer{
		clock:     clock,
		tick:      tick,
		callbacks: callbacks,
	}
}

// Start begins a countdown of seconds, replacing any running one. A zero or
// negative duration completes synchronously.
func (t *RestTimer) Start(seconds int) {
	t.StartUntil(t.clock.Now().Add(time.Duration(seconds) * time.Second))
}

// StartUntil begins a countdown ending at endAt, replacing any running
// one. An endAt not in the future completes synchronously.
func (t *RestTimer) StartUntil(endAt time.Time) {
	t.mu.Lock()
	t.stopLoopLocked()
	t.generation++

	remaining := ComputeRemaining(endAt, t.clock.Now())
	if remaining <= 0 {
		t.endAt = time.Time{}
		t.remaining = 0
		state := t.stateLocked()
		t.mu.Unlock()

		log.Traceln("rest completed immediately")
		t.notifyChange(state)
		t.notifyComplete(ReasonExpired)
		return
	}

	t.endAt = endAt
	t.remaining = remaining
	t.startLoopLocked()
	state := t.stateLocked()
	t.mu.Unlock()

	log.Tracef("rest started: %ds", remaining)
	t.notifyChange(state)
	t.notifyTick(remaining)
}

// Skip completes the running countdown now, exactly as natural expiry
// would, except for the reason. Returns false when no countdown is live.
func (t *RestTimer) Skip() bool {
	t.mu.Lock()
	if t.endAt.IsZero() {
		t.mu.Unlock()
		return false
	}
	state := t.finishLocked()
	t.mu.Unlock()

	t.notifyChange(state)
	t.notifyComplete(ReasonSkipped)
	return true
}

// Resume recomputes the remaining time right away. An expired countdown
// completes immediately, a live one gets its tick loop back if it was
// torn down.
func (t *RestTimer) Resume() {
	t.mu.Lock()
	if t.endAt.IsZero() {
		t.mu.Unlock()
		return
	}

	remaining := ComputeRemaining(t.endAt, t.clock.Now())
	if remaining <= 0 {
		state := t.finishLocked()
		t.mu.Unlock()

		t.notifyChange(state)
		t.notifyComplete(ReasonExpired)
		return
	}

	t.remaining = remaining
	if t.stop == nil {
		t.startLoopLocked()
	}
	t.mu.Unlock()

	t.notifyTick(remaining)
}

// Restore loads a persisted countdown without starting its tick loop,
// Resume takes it from there.
func (t *RestTimer) Restore(state State) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLoopLocked()
	t.generation++
	if state.EndAt == nil {
		t.endAt = time.Time{}
		t.remaining = 0
		return
	}
	t.endAt = *state.EndAt
	t.remaining = state.RemainingSeconds
}

// Cancel drops the countdown without completing it.
func (t *RestTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLoopLocked()
	t.generation++
	t.endAt = time.Time{}
	t.remaining = 0
}

func (t *RestTimer) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.endAt.IsZero() {
		t.remaining = ComputeRemaining(t.endAt, t.clock.Now())
	}
	return t.stateLocked()
}

func (t *RestTimer) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return !t.endAt.IsZero()
}

// Close cancels the countdown and waits for the tick loop to exit.
func (t *RestTimer) Close() {
	t.Cancel()
	t.wg.Wait()
}

func (t *RestTimer) stateLocked() State {
	if t.endAt.IsZero() {
		return State{RemainingSeconds: t.remaining}
	}
	endAt := t.endAt
	return State{
		RemainingSeconds: t.remaining,
		EndAt:            &endAt,
	}
}

func (t *RestTimer) finishLocked() State {
	t.stopLoopLocked()
	t.generation++
	t.endAt = time.Time{}
	t.remaining = 0
	return t.stateLocked()
}

func (t *RestTimer) startLoopLocked() {
	stop := make(chan struct{})
	t.stop = stop
	generation := t.generation

	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.tick)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.onTick(generation)
			}
		}
	}()
}

func (t *RestTimer) stopLoopLocked() {
	if t.stop != nil {
		close(t.stop)
		t.stop = nil
	}
}

func (t *RestTimer) onTick(generation uint64) {
	t.mu.Lock()
	if generation != t.generation || t.endAt.IsZero() {
		t.mu.Unlock()
		return
	}

	remaining := ComputeRemaining(t.endAt, t.clock.Now())
	if remaining > 0 {
		t.remaining = remaining
		t.mu.Unlock()
		t.notifyTick(remaining)
		return
	}

	state := t.finishLocked()
	t.mu.Unlock()

	log.Traceln("rest expired")
	t.notifyChange(state)
	t.notifyComplete(ReasonExpired)
}

func (t *RestTimer) notifyTick(remaining int) {
	if t.callbacks.OnTick != nil {
		t.callbacks.OnTick(remaining)
	}
}

func (t *RestTimer) notifyChange(state State) {
	if t.callbacks.OnChange != nil {
		t.callbacks.OnChange(state)
	}
}

func (t *RestTimer) notifyComplete(reason string) {
	if t.callbacks.OnComplete != nil {
		t.callbacks.OnComplete(reason)
	}
}
