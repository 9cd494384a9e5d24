package session

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/bridge"
	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/timer"
)

const storedReadTimeout = 5 * time.Second

// StoredReader reads the session persisted by a running service without
// owning it: no timers run and nothing is written back.
type StoredReader struct {
	store *store.Store
	clock timer.Clock
}

func NewStoredReader(st *store.Store, clock timer.Clock) *StoredReader {
	if clock == nil {
		clock = timer.SystemClock{}
	}
	return &StoredReader{
		store: st,
		clock: clock,
	}
}

func (r *StoredReader) state() State {
	ctx, cancel := context.WithTimeout(context.Background(), storedReadTimeout)
	defer cancel()

	state, err := loadState(ctx, r.store)
	if err != nil {
		log.Errorf("stored reader: %s", err)
		return NewState()
	}
	return state
}

func (r *StoredReader) View() View {
	return buildView(r.state(), r.clock.Now(), nil)
}

func (r *StoredReader) BridgeStats(exerciseID string) (bridge.Stats, bool) {
	return r.state().Bridge.Stats(exerciseID)
}

// LastSummary is never known to a reader, summaries live in the service.
func (r *StoredReader) LastSummary() (Summary, bool) {
	return Summary{}, false
}
