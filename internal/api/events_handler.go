package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/events"
)

const (
	eventsBuffer       = 128
	eventsWriteTimeout = 15 * time.Second
)

// originPatterns turns allowed origins into the host patterns the
// websocket origin check matches against.
func originPatterns(allowedOrigins []string) []string {
	patterns := make([]string, 0, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		if origin == "" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Host == "" {
			patterns = append(patterns, origin)
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}

// HandleEvents streams hub events over a websocket. The first message is a
// state_changed event carrying the current view. Browsers may connect from
// the same host or an allowed origin only.
func (handler *Handler) HandleEvents(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: handler.wsOriginPatterns,
	})
	if err != nil {
		log.Warnf("events, websocket accept from origin [%s]: %s", r.Header.Get("Origin"), err)
		return
	}
	defer ws.CloseNow()

	// clients only listen, reading is left to the library to handle close frames
	ctx := ws.CloseRead(r.Context())

	subID, eventsCh, cancel := handler.hub.Subscribe(eventsBuffer)
	defer cancel()
	log.Debugf("events subscriber %s connected", subID)

	initial := events.Event{
		Type: events.TypeStateChanged,
		At:   time.Now().UTC(),
		Data: handler.core.View(),
	}
	if err := writeEvent(ctx, ws, initial); err != nil {
		log.Debugf("events subscriber %s, write initial state: %s", subID, err)
		return
	}

	for {
		select {
		case <-ctx.Done():
			log.Debugf("events subscriber %s gone", subID)
			return
		case event, ok := <-eventsCh:
			if !ok {
				ws.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			if err := writeEvent(ctx, ws, event); err != nil {
				log.Debugf("events subscriber %s, write: %s", subID, err)
				return
			}
		}
	}
}

func writeEvent(ctx context.Context, ws *websocket.Conn, event events.Event) error {
	writeCtx, writeCancel := context.WithTimeout(ctx, eventsWriteTimeout)
	defer writeCancel()
	return wsjson.Write(writeCtx, ws, event)
}
