package bridge

import (
	"math"
	"slices"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/timer"
)

const DefaultTick = 250 * time.Millisecond

// State is the persisted stopwatch, with the recorded hold durations in
// seconds per exercise id.
type State struct {
	Running    bool             `json:"running"`
	ExerciseID string           `json:"exerciseId,omitempty"`
	StartedAt  *time.Time       `json:"startedAt,omitempty"`
	Durations  map[string][]int `json:"durations"`
}

func (s State) Stats(exerciseID string) (Stats, bool) {
	return statsOf(s.Durations[exerciseID])
}

// Elapsed returns the seconds of the saved live run at now.
func (s State) Elapsed(now time.Time) (string, int, bool) {
	if !s.Running || s.ExerciseID == "" || s.StartedAt == nil {
		return "", 0, false
	}
	return s.ExerciseID, elapsedSeconds(*s.StartedAt, now), true
}

// Stats summarizes the recorded durations of one exercise.
type Stats struct {
	Runs int `json:"runs"`
	Max  int `json:"max"`
	Avg  int `json:"avg"`
	Last int `json:"last"`
}

// Result is the outcome of a finalized run.
type Result struct {
	ExerciseID string `json:"exerciseId"`
	Elapsed    int    `json:"elapsed"`
	Stats      Stats  `json:"stats"`
}

// Stopwatch measures isometric holds. Only one run is live at a time.
type Stopwatch struct {
	clock  timer.Clock
	tick   time.Duration
	onTick func(exerciseID string, elapsed int)

	mu         sync.Mutex
	running    bool
	exerciseID string
	startedAt  time.Time
	durations  map[string][]int
	generation uint64
	stop       chan struct{}
	wg         sync.WaitGroup
}

// NewStopwatch returns an idle stopwatch. onTick, when set, receives the
// elapsed seconds of the live run on every display tick.
func NewStopwatch(clock timer.Clock, tick time.Duration, onTick func(exerciseID string, elapsed int)) *Stopwatch {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Stopwatch{
		clock:     clock,
		tick:      tick,
		onTick:    onTick,
		durations: map[string][]int{},
	}
}

// Start begins a run for exerciseID. A live run for any exercise is
// replaced without being recorded.
func (s *Stopwatch) Start(exerciseID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running && s.exerciseID != exerciseID {
		log.Warnf("bridge run of %s overwritten by %s", s.exerciseID, exerciseID)
	}

	s.stopLoopLocked()
	s.running = true
	s.exerciseID = exerciseID
	s.startedAt = s.clock.Now()
	s.startLoopLocked()
}

// Finalize records the live run of exerciseID. It does nothing, returning
// false, unless that exercise is the one running.
func (s *Stopwatch) Finalize(exerciseID string) (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running || s.exerciseID != exerciseID {
		return Result{}, false
	}

	elapsed := elapsedSeconds(s.startedAt, s.clock.Now())
	s.durations[exerciseID] = append(s.durations[exerciseID], elapsed)
	s.resetLocked()

	stats, _ := statsOf(s.durations[exerciseID])
	return Result{
		ExerciseID: exerciseID,
		Elapsed:    elapsed,
		Stats:      stats,
	}, true
}

// Elapsed returns the seconds of the live run.
func (s *Stopwatch) Elapsed() (string, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return "", 0, false
	}
	return s.exerciseID, elapsedSeconds(s.startedAt, s.clock.Now()), true
}

func (s *Stopwatch) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Stopwatch) Stats(exerciseID string) (Stats, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return statsOf(s.durations[exerciseID])
}

// Reset stops the live run, recorded durations are kept.
func (s *Stopwatch) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

// Restore loads a persisted stopwatch and restarts the display tick of a
// live run.
func (s *Stopwatch) Restore(state State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resetLocked()
	s.durations = make(map[string][]int, len(state.Durations))
	for id, d := range state.Durations {
		s.durations[id] = slices.Clone(d)
	}

	if state.Running && state.ExerciseID != "" && state.StartedAt != nil && !state.StartedAt.IsZero() {
		s.running = true
		s.exerciseID = state.ExerciseID
		s.startedAt = *state.StartedAt
		s.startLoopLocked()
	}
}

func (s *Stopwatch) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		Running:   s.running,
		Durations: make(map[string][]int, len(s.durations)),
	}
	for id, d := range s.durations {
		state.Durations[id] = slices.Clone(d)
	}
	if s.running {
		startedAt := s.startedAt
		state.ExerciseID = s.exerciseID
		state.StartedAt = &startedAt
	}
	return state
}

// Close stops the display tick and waits for it to exit.
func (s *Stopwatch) Close() {
	s.Reset()
	s.wg.Wait()
}

func (s *Stopwatch) resetLocked() {
	s.stopLoopLocked()
	s.running = false
	s.exerciseID = ""
	s.startedAt = time.Time{}
}

func (s *Stopwatch) startLoopLocked() {
	s.generation++
	generation := s.generation
	stop := make(chan struct{})
	s.stop = stop

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.tick)
		defer ticker.Stop()

		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				s.onDisplayTick(generation)
			}
		}
	}()
}

func (s *Stopwatch) stopLoopLocked() {
	s.generation++
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *Stopwatch) onDisplayTick(generation uint64) {
	s.mu.Lock()
	if generation != s.generation || !s.running {
		s.mu.Unlock()
		return
	}
	exerciseID := s.exerciseID
	elapsed := elapsedSeconds(s.startedAt, s.clock.Now())
	s.mu.Unlock()

	if s.onTick != nil {
		s.onTick(exerciseID, elapsed)
	}
}

func elapsedSeconds(startedAt, now time.Time) int {
	return max(0, int(now.Sub(startedAt)/time.Second))
}

func statsOf(durations []int) (Stats, bool) {
	if len(durations) == 0 {
		return Stats{}, false
	}

	sum := 0
	for _, d := range durations {
		sum += d
	}
	return Stats{
		Runs: len(durations),
		Max:  slices.Max(durations),
		Avg:  int(math.Round(float64(sum) / float64(len(durations)))),
		Last: durations[len(durations)-1],
	}, true
}
