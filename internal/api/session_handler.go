package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/bridge"
	"github.com/2beens/gymtracker/internal/session"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/pkg"
)

type StartRequest struct {
	PlanID string `json:"planId"`
}

type StartResponse struct {
	View              session.View `json:"view"`
	SelectionRequired bool         `json:"selectionRequired"`
}

type LoadRequest struct {
	ExerciseID string `json:"exerciseId"`
	Value      string `json:"value"`
}

type SkipRestResponse struct {
	View    session.View `json:"view"`
	Skipped bool         `json:"skipped"`
}

type BridgeStatsResponse struct {
	ExerciseID string        `json:"exerciseId"`
	Stats      *bridge.Stats `json:"stats"`
}

// decodeOptionalJSON decodes the request body into v. An empty body leaves
// v untouched.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (handler *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.get")
	defer span.End()

	pkg.WriteJSON(w, handler.core.View(), http.StatusOK)
}

func (handler *Handler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.start")
	defer span.End()

	var req StartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("start session, unmarshal json params: %s", err)
		http.Error(w, "start session failed", http.StatusBadRequest)
		return
	}
	req.PlanID = strings.TrimSpace(req.PlanID)
	if req.PlanID == "" {
		http.Error(w, "error, plan id empty", http.StatusBadRequest)
		return
	}

	view, err := handler.core.StartPlan(ctx, req.PlanID)
	handler.writeStart(w, "start session", view, err)
}

func (handler *Handler) HandleContinueWithExtra(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.extra.continue")
	defer span.End()

	view, err := handler.core.ContinueWithExtra(ctx)
	handler.writeStart(w, "continue with extra", view, err)
}

func (handler *Handler) writeStart(w http.ResponseWriter, op string, view session.View, err error) {
	if errors.Is(err, session.ErrSelectionRequired) {
		pkg.WriteJSON(w, StartResponse{View: view, SelectionRequired: true}, http.StatusOK)
		return
	}
	if err != nil {
		writeError(w, op, err)
		return
	}
	pkg.WriteJSON(w, StartResponse{View: view}, http.StatusOK)
}

func (handler *Handler) HandleCompleteSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.set.complete")
	defer span.End()

	var in session.SetInput
	if err := decodeOptionalJSON(r, &in); err != nil {
		log.Errorf("complete set, unmarshal json params: %s", err)
		http.Error(w, "complete set failed", http.StatusBadRequest)
		return
	}

	res, err := handler.core.CompleteSet(ctx, in)
	if err != nil {
		writeError(w, "complete set", err)
		return
	}
	pkg.WriteJSON(w, res, http.StatusOK)
}

func (handler *Handler) HandleExtraSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.set.extra")
	defer span.End()

	view, err := handler.core.AddExtraSet(ctx)
	if err != nil {
		writeError(w, "add extra set", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleSetLoad(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.load")
	defer span.End()

	var req LoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("set load, unmarshal json params: %s", err)
		http.Error(w, "set load failed", http.StatusBadRequest)
		return
	}

	view, err := handler.core.SetSessionLoad(ctx, req.ExerciseID, req.Value)
	if err != nil {
		writeError(w, "set load", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleAbort(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.abort")
	defer span.End()

	view, err := handler.core.AbortToIdle(ctx)
	if err != nil {
		writeError(w, "abort session", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.summary")
	defer span.End()

	summary, ok := handler.core.LastSummary()
	if !ok {
		http.Error(w, "no finished session", http.StatusNotFound)
		return
	}
	pkg.WriteJSON(w, summary, http.StatusOK)
}

func (handler *Handler) HandleSkipRest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.rest.skip")
	defer span.End()

	view, skipped, err := handler.core.SkipRest(ctx)
	if err != nil {
		writeError(w, "skip rest", err)
		return
	}
	pkg.WriteJSON(w, SkipRestResponse{View: view, Skipped: skipped}, http.StatusOK)
}

func (handler *Handler) HandleResumeRest(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.rest.resume")
	defer span.End()

	pkg.WriteJSON(w, handler.core.ResumeRest(ctx), http.StatusOK)
}

func (handler *Handler) HandleStartBridge(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.bridge.start")
	defer span.End()

	view, err := handler.core.StartBridge(ctx)
	if err != nil {
		writeError(w, "start bridge", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleBridgeStats(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.session.bridge.stats")
	defer span.End()

	exerciseID := mux.Vars(r)["exid"]
	resp := BridgeStatsResponse{ExerciseID: exerciseID}
	if stats, ok := handler.core.BridgeStats(exerciseID); ok {
		resp.Stats = &stats
	}
	pkg.WriteJSON(w, resp, http.StatusOK)
}
