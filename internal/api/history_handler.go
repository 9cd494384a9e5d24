package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"
	"github.com/2beens/gymtracker/pkg"
)

type HistoryResponse struct {
	ExerciseID string                 `json:"exerciseId"`
	Entries    []workout.HistoryEntry `json:"entries"`
}

// HandleGetHistory lists the entries of an exercise, most recent first.
// The optional limit query param caps the count.
func (handler *Handler) HandleGetHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.get")
	defer span.End()

	exerciseID := mux.Vars(r)["exid"]
	limit := 0
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			http.Error(w, "error, limit NaN", http.StatusBadRequest)
			return
		}
	}

	entries, err := handler.history.Recent(ctx, exerciseID, limit)
	if err != nil {
		writeError(w, "get history", err)
		return
	}
	if entries == nil {
		entries = []workout.HistoryEntry{}
	}

	pkg.WriteJSON(w, HistoryResponse{ExerciseID: exerciseID, Entries: entries}, http.StatusOK)
}

func (handler *Handler) HandleDeleteHistoryEntry(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.delete")
	defer span.End()

	vars := mux.Vars(r)
	exerciseID := vars["exid"]
	pos, err := strconv.Atoi(vars["pos"])
	if err != nil {
		http.Error(w, "error, position NaN", http.StatusBadRequest)
		return
	}

	if err := handler.history.DeleteOne(ctx, exerciseID, pos); err != nil {
		writeError(w, "delete history entry", err)
		return
	}

	log.Debugf("history entry %d of %s deleted", pos, exerciseID)
	handler.writeHistory(w, r, exerciseID)
}

func (handler *Handler) HandleClearHistory(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.history.clear")
	defer span.End()

	exerciseID := mux.Vars(r)["exid"]
	if err := handler.history.ClearAll(ctx, exerciseID); err != nil {
		writeError(w, "clear history", err)
		return
	}

	log.Debugf("history of %s cleared", exerciseID)
	pkg.WriteJSON(w, HistoryResponse{ExerciseID: exerciseID, Entries: []workout.HistoryEntry{}}, http.StatusOK)
}

func (handler *Handler) writeHistory(w http.ResponseWriter, r *http.Request, exerciseID string) {
	entries, err := handler.history.Recent(r.Context(), exerciseID, 0)
	if err != nil {
		writeError(w, "get history", err)
		return
	}
	if entries == nil {
		entries = []workout.HistoryEntry{}
	}
	pkg.WriteJSON(w, HistoryResponse{ExerciseID: exerciseID, Entries: entries}, http.StatusOK)
}
