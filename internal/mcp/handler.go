package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/2beens/gymtracker/internal/bridge"
	"github.com/2beens/gymtracker/internal/session"
	"github.com/2beens/gymtracker/internal/workout"
)

const (
	defaultHistoryLimit = 20
	dateLayout          = "2006-01-02"
)

type sessionReader interface {
	View() session.View
	BridgeStats(exerciseID string) (bridge.Stats, bool)
	LastSummary() (session.Summary, bool)
}

type catalogReader interface {
	Plans() []workout.WorkoutPlan
	Resolve(plan workout.WorkoutPlan) []workout.RuntimeExercise
	RestBetweenExercises(plan workout.WorkoutPlan) int
}

type historyReader interface {
	Recent(ctx context.Context, exerciseID string, n int) ([]workout.HistoryEntry, error)
	Between(ctx context.Context, exerciseID string, from, to time.Time) ([]workout.HistoryEntry, error)
}

// Handler handles MCP tool requests: parses arguments, reads the data and
// formats the result as JSON text.
type Handler struct {
	sessions sessionReader
	catalog  catalogReader
	history  historyReader
}

func NewHandler(sessions sessionReader, catalog catalogReader, history historyReader) *Handler {
	return &Handler{
		sessions: sessions,
		catalog:  catalog,
		history:  history,
	}
}

type SessionStateOutput struct {
	View        session.View     `json:"view"`
	LastSummary *session.Summary `json:"lastSummary,omitempty"`
}

type WorkoutOutput struct {
	ID                   string                    `json:"id"`
	Name                 string                    `json:"name"`
	RestBetweenExercises int                       `json:"restBetweenExercises"`
	Exercises            []workout.RuntimeExercise `json:"exercises"`
}

type HistoryOutput struct {
	ExerciseID string                 `json:"exerciseId"`
	Entries    []workout.HistoryEntry `json:"entries"`
}

type BridgeStatsOutput struct {
	ExerciseID string        `json:"exerciseId"`
	Stats      *bridge.Stats `json:"stats"`
}

func (h *Handler) GetSessionState(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out := SessionStateOutput{View: h.sessions.View()}
	if summary, ok := h.sessions.LastSummary(); ok {
		out.LastSummary = &summary
	}
	return jsonResult(out)
}

func (h *Handler) ListWorkouts(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	plans := h.catalog.Plans()
	out := make([]WorkoutOutput, 0, len(plans))
	for _, plan := range plans {
		out = append(out, WorkoutOutput{
			ID:                   plan.ID,
			Name:                 plan.Name,
			RestBetweenExercises: h.catalog.RestBetweenExercises(plan),
			Exercises:            h.catalog.Resolve(plan),
		})
	}
	return jsonResult(out)
}

// GetExerciseHistory returns the most recent entries of an exercise, or
// all entries within from_date and to_date when both are given.
func (h *Handler) GetExerciseHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := request.RequireString("exercise_id")
	if err != nil || exerciseID == "" {
		return mcp.NewToolResultError("exercise_id is required"), nil
	}

	fromStr := request.GetString("from_date", "")
	toStr := request.GetString("to_date", "")

	var entries []workout.HistoryEntry
	if fromStr != "" || toStr != "" {
		from, err := time.Parse(dateLayout, fromStr)
		if err != nil {
			return mcp.NewToolResultError("Invalid from_date: use YYYY-MM-DD"), nil
		}
		to, err := time.Parse(dateLayout, toStr)
		if err != nil {
			return mcp.NewToolResultError("Invalid to_date: use YYYY-MM-DD"), nil
		}
		to = time.Date(to.Year(), to.Month(), to.Day(), 23, 59, 59, 999999999, to.Location())

		entries, err = h.history.Between(ctx, exerciseID, from, to)
		if err != nil {
			return mcp.NewToolResultError("Error reading history: " + err.Error()), nil
		}
	} else {
		limit := request.GetInt("limit", defaultHistoryLimit)
		entries, err = h.history.Recent(ctx, exerciseID, limit)
		if err != nil {
			return mcp.NewToolResultError("Error reading history: " + err.Error()), nil
		}
	}

	if entries == nil {
		entries = []workout.HistoryEntry{}
	}
	return jsonResult(HistoryOutput{ExerciseID: exerciseID, Entries: entries})
}

func (h *Handler) GetBridgeStats(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	exerciseID, err := request.RequireString("exercise_id")
	if err != nil || exerciseID == "" {
		return mcp.NewToolResultError("exercise_id is required"), nil
	}

	out := BridgeStatsOutput{ExerciseID: exerciseID}
	if stats, ok := h.sessions.BridgeStats(exerciseID); ok {
		out.Stats = &stats
	}
	return jsonResult(out)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
