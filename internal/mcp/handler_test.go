package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/gymtracker/internal/bridge"
	"github.com/2beens/gymtracker/internal/session"
	"github.com/2beens/gymtracker/internal/workout"
)

type mockSessionReader struct {
	view    session.View
	summary *session.Summary
	stats   map[string]bridge.Stats
}

func (m *mockSessionReader) View() session.View {
	return m.view
}

func (m *mockSessionReader) BridgeStats(exerciseID string) (bridge.Stats, bool) {
	stats, ok := m.stats[exerciseID]
	return stats, ok
}

func (m *mockSessionReader) LastSummary() (session.Summary, bool) {
	if m.summary == nil {
		return session.Summary{}, false
	}
	return *m.summary, true
}

type mockCatalogReader struct {
	plans []workout.WorkoutPlan
}

func (m *mockCatalogReader) Plans() []workout.WorkoutPlan {
	return m.plans
}

func (m *mockCatalogReader) Resolve(plan workout.WorkoutPlan) []workout.RuntimeExercise {
	out := make([]workout.RuntimeExercise, 0, len(plan.Exercises))
	for _, ref := range plan.Exercises {
		out = append(out, workout.Resolve(ref, nil))
	}
	return out
}

func (m *mockCatalogReader) RestBetweenExercises(plan workout.WorkoutPlan) int {
	return plan.RestBetweenExercisesOrDefault()
}

type mockHistoryReader struct {
	entries    []workout.HistoryEntry
	err        error
	gotLimit   int
	gotFrom    time.Time
	gotTo      time.Time
	betweenHit bool
}

func (m *mockHistoryReader) Recent(_ context.Context, _ string, n int) ([]workout.HistoryEntry, error) {
	m.gotLimit = n
	return m.entries, m.err
}

func (m *mockHistoryReader) Between(_ context.Context, _ string, from, to time.Time) ([]workout.HistoryEntry, error) {
	m.betweenHit = true
	m.gotFrom, m.gotTo = from, to
	return m.entries, m.err
}

func callToolReq(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	var b strings.Builder
	for _, c := range result.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			b.WriteString(tc.Text)
		}
	}
	return b.String()
}

func resultJSON(t *testing.T, result *mcp.CallToolResult, target any) {
	t.Helper()
	text := resultText(t, result)
	require.NoError(t, json.Unmarshal([]byte(text), target), text)
}

func TestHandler_GetSessionState(t *testing.T) {
	sessions := &mockSessionReader{
		view: session.View{Phase: session.PhaseResting, WorkoutID: "A", RestRemaining: 42},
	}
	h := NewHandler(sessions, &mockCatalogReader{}, &mockHistoryReader{})

	res, err := h.GetSessionState(context.Background(), callToolReq("get_session_state", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var out SessionStateOutput
	resultJSON(t, res, &out)
	assert.Equal(t, session.PhaseResting, out.View.Phase)
	assert.Equal(t, 42, out.View.RestRemaining)
	assert.Nil(t, out.LastSummary)

	sessions.summary = &session.Summary{WorkoutID: "A", WorkoutName: "Workout A"}
	res, err = h.GetSessionState(context.Background(), callToolReq("get_session_state", nil))
	require.NoError(t, err)
	resultJSON(t, res, &out)
	require.NotNil(t, out.LastSummary)
	assert.Equal(t, "Workout A", out.LastSummary.WorkoutName)
}

func TestHandler_ListWorkouts(t *testing.T) {
	catalog := &mockCatalogReader{plans: []workout.WorkoutPlan{
		{ID: "A", Name: "Workout A", RestBetweenExercises: workout.IntPtr(90), Exercises: []workout.ExerciseRef{{ID: "squat"}}},
		{ID: "EXTRA", Name: "Extra"},
	}}
	h := NewHandler(&mockSessionReader{}, catalog, &mockHistoryReader{})

	res, err := h.ListWorkouts(context.Background(), callToolReq("list_workouts", nil))
	require.NoError(t, err)

	var out []WorkoutOutput
	resultJSON(t, res, &out)
	require.Len(t, out, 2)
	assert.Equal(t, 90, out[0].RestBetweenExercises)
	require.Len(t, out[0].Exercises, 1)
	assert.Equal(t, "squat", out[0].Exercises[0].ID)
	assert.Equal(t, workout.DefaultRestBetweenExercises, out[1].RestBetweenExercises)
	assert.Empty(t, out[1].Exercises)
}

func TestHandler_GetExerciseHistory(t *testing.T) {
	entries := []workout.HistoryEntry{
		{Date: time.Date(2025, 5, 2, 10, 0, 0, 0, time.UTC), SetNumber: 1, Reps: workout.NumericReps(8), Load: 60},
	}

	t.Run("requires_exercise_id", func(t *testing.T) {
		h := NewHandler(&mockSessionReader{}, &mockCatalogReader{}, &mockHistoryReader{})
		res, err := h.GetExerciseHistory(context.Background(), callToolReq("get_exercise_history", nil))
		require.NoError(t, err)
		assert.True(t, res.IsError)
	})

	t.Run("recent_with_default_limit", func(t *testing.T) {
		hist := &mockHistoryReader{entries: entries}
		h := NewHandler(&mockSessionReader{}, &mockCatalogReader{}, hist)
		res, err := h.GetExerciseHistory(context.Background(), callToolReq("get_exercise_history", map[string]any{
			"exercise_id": "bench",
		}))
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.Equal(t, defaultHistoryLimit, hist.gotLimit)

		var out HistoryOutput
		resultJSON(t, res, &out)
		assert.Equal(t, "bench", out.ExerciseID)
		require.Len(t, out.Entries, 1)
		assert.Equal(t, 60.0, out.Entries[0].Load)
	})

	t.Run("recent_with_limit", func(t *testing.T) {
		hist := &mockHistoryReader{}
		h := NewHandler(&mockSessionReader{}, &mockCatalogReader{}, hist)
		res, err := h.GetExerciseHistory(context.Background(), callToolReq("get_exercise_history", map[string]any{
			"exercise_id": "bench",
			"limit":       float64(3),
		}))
		require.NoError(t, err)
		assert.Equal(t, 3, hist.gotLimit)

		var out HistoryOutput
		resultJSON(t, res, &out)
		assert.NotNil(t, out.Entries)
		assert.Empty(t, out.Entries)
	})

	t.Run("date_range_is_inclusive", func(t *testing.T) {
		hist := &mockHistoryReader{entries: entries}
		h := NewHandler(&mockSessionReader{}, &mockCatalogReader{}, hist)
		res, err := h.GetExerciseHistory(context.Background(), callToolReq("get_exercise_history", map[string]any{
			"exercise_id": "bench",
			"from_date":   "2025-05-01",
			"to_date":     "2025-05-02",
		}))
		require.NoError(t, err)
		require.False(t, res.IsError)
		assert.True(t, hist.betweenHit)
		assert.Equal(t, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), hist.gotFrom)
		assert.Equal(t, 2, hist.gotTo.Day())
		assert.Equal(t, 23, hist.gotTo.Hour())
	})

	t.Run("invalid_date", func(t *testing.T) {
		h := NewHandler(&mockSessionReader{}, &mockCatalogReader{}, &mockHistoryReader{})
		res, err := h.GetExerciseHistory(context.Background(), callToolReq("get_exercise_history", map[string]any{
			"exercise_id": "bench",
			"from_date":   "yesterday",
			"to_date":     "2025-05-02",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "from_date")
	})

	t.Run("store_error", func(t *testing.T) {
		hist := &mockHistoryReader{err: errors.New("redis gone")}
		h := NewHandler(&mockSessionReader{}, &mockCatalogReader{}, hist)
		res, err := h.GetExerciseHistory(context.Background(), callToolReq("get_exercise_history", map[string]any{
			"exercise_id": "bench",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(t, res), "redis gone")
	})
}

func TestHandler_GetBridgeStats(t *testing.T) {
	sessions := &mockSessionReader{stats: map[string]bridge.Stats{
		"ponte": {Runs: 2, Max: 60, Avg: 45, Last: 30},
	}}
	h := NewHandler(sessions, &mockCatalogReader{}, &mockHistoryReader{})

	res, err := h.GetBridgeStats(context.Background(), callToolReq("get_bridge_stats", map[string]any{
		"exercise_id": "ponte",
	}))
	require.NoError(t, err)
	var out BridgeStatsOutput
	resultJSON(t, res, &out)
	require.NotNil(t, out.Stats)
	assert.Equal(t, 60, out.Stats.Max)
	assert.Equal(t, 45, out.Stats.Avg)

	res, err = h.GetBridgeStats(context.Background(), callToolReq("get_bridge_stats", map[string]any{
		"exercise_id": "squat",
	}))
	require.NoError(t, err)
	out = BridgeStatsOutput{}
	resultJSON(t, res, &out)
	assert.Nil(t, out.Stats)

	res, err = h.GetBridgeStats(context.Background(), callToolReq("get_bridge_stats", nil))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestNewServer_ListsTools(t *testing.T) {
	s := NewServer("test", &mockSessionReader{}, &mockCatalogReader{}, &mockHistoryReader{})

	reqJSON := []byte(`{"jsonrpc":"2.0","id":1,"method":"tools/list","params":{}}`)
	respMsg := s.HandleMessage(context.Background(), reqJSON)
	require.NotNil(t, respMsg)

	respBytes, err := json.Marshal(respMsg)
	require.NoError(t, err)

	var rpcResp struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(respBytes, &rpcResp))

	names := map[string]bool{}
	for _, tool := range rpcResp.Result.Tools {
		names[tool.Name] = true
	}
	for _, name := range []string{"get_session_state", "list_workouts", "get_exercise_history", "get_bridge_stats"} {
		assert.True(t, names[name], "expected tool %q to be registered", name)
	}
}
