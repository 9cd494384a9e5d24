package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/2beens/gymtracker/internal/api"
	"github.com/2beens/gymtracker/internal/events"
	"github.com/2beens/gymtracker/internal/session"
)

type wsEvent struct {
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

func (s *HandlerTestSuite) TestEventsStream() {
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	s.Require().NoError(err)
	defer ws.Close(websocket.StatusNormalClosure, "test finished")

	var first wsEvent
	s.Require().NoError(wsjson.Read(ctx, ws, &first))
	s.Equal(events.TypeStateChanged, first.Type)
	var view session.View
	s.Require().NoError(json.Unmarshal(first.Data, &view))
	s.Equal(session.PhaseIdle, view.Phase)

	s.Eventually(func() bool {
		return s.hub.SubscribersCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	rec := s.do("POST", "/session/start", api.StartRequest{PlanID: "A"})
	s.Require().Equal(200, rec.Code)

	seen := map[string]bool{}
	for !seen[events.TypeSessionStarted] {
		var ev wsEvent
		s.Require().NoError(wsjson.Read(ctx, ws, &ev))
		seen[ev.Type] = true
	}
}

func (s *HandlerTestSuite) TestEventsStream_ClosedOnHubClose() {
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"
	ws, _, err := websocket.Dial(ctx, wsURL, nil)
	s.Require().NoError(err)
	defer ws.CloseNow()

	var first wsEvent
	s.Require().NoError(wsjson.Read(ctx, ws, &first))
	s.Eventually(func() bool {
		return s.hub.SubscribersCount() == 1
	}, 5*time.Second, 10*time.Millisecond)

	s.hub.Close()

	var ev wsEvent
	err = wsjson.Read(ctx, ws, &ev)
	s.Require().Error(err)
	s.Equal(websocket.StatusGoingAway, websocket.CloseStatus(err))
}

func (s *HandlerTestSuite) TestEventsStream_OriginCheck() {
	ts := httptest.NewServer(s.router)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/events"

	dialFrom := func(origin string) (*websocket.Conn, *http.Response, error) {
		return websocket.Dial(ctx, wsURL, &websocket.DialOptions{
			HTTPHeader: http.Header{"Origin": []string{origin}},
		})
	}

	ws, resp, err := dialFrom("https://evil.example.com")
	s.Require().Error(err)
	s.Nil(ws)
	s.Require().NotNil(resp)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	ws, _, err = dialFrom("https://gym.serj-tubin.com")
	s.Require().NoError(err)
	var first wsEvent
	s.Require().NoError(wsjson.Read(ctx, ws, &first))
	s.Equal(events.TypeStateChanged, first.Type)
	ws.Close(websocket.StatusNormalClosure, "test finished")
}
