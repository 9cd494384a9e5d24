package mcp

import (
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const serverName = "gymtracker"

// NewServer builds an MCP server with read-only gymtracker tools: session
// state, workouts, exercise history and bridge stats.
// Mounted on the service at /mcp and served over stdio by cmd/gymtracker_mcp.
func NewServer(version string, sessions sessionReader, catalog catalogReader, history historyReader) *server.MCPServer {
	h := NewHandler(sessions, catalog, history)
	s := server.NewMCPServer(serverName, version,
		server.WithToolCapabilities(false),
		server.WithInstructions("Single user workout tracker. Read the live session, the workout plans and the recorded sets of each exercise."),
	)

	s.AddTool(mcp.NewTool("get_session_state",
		mcp.WithDescription("Returns the current workout session: phase (idle, selecting, active_set, resting), current exercise and set, target reps, load, rest countdown and bridge stopwatch. Includes the summary of the last finished session when known."),
	), h.GetSessionState)

	s.AddTool(mcp.NewTool("list_workouts",
		mcp.WithDescription("Returns every workout plan with its resolved exercises (sets, reps pattern, rest between sets) and the rest between exercises."),
	), h.ListWorkouts)

	s.AddTool(mcp.NewTool("get_exercise_history",
		mcp.WithDescription("Returns the recorded sets of an exercise (date, set number, reps, load, notes). Most recent first, capped by limit; or chronological within from_date and to_date."),
		mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Exercise id (e.g. squat)")),
		mcp.WithNumber("limit", mcp.Description("Max entries when no date range is given. Defaults to 20, 0 returns all.")),
		mcp.WithString("from_date", mcp.Description("Start date (YYYY-MM-DD)")),
		mcp.WithString("to_date", mcp.Description("End date (YYYY-MM-DD), inclusive")),
	), h.GetExerciseHistory)

	s.AddTool(mcp.NewTool("get_bridge_stats",
		mcp.WithDescription("Returns the isometric hold stats of a bridge exercise: runs, max, average and last duration in seconds."),
		mcp.WithString("exercise_id", mcp.Required(), mcp.Description("Bridge exercise id")),
	), h.GetBridgeStats)

	return s
}

// NewHTTPHandler serves s over streamable HTTP without client sessions.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}
