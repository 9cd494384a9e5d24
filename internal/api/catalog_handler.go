package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/catalog"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"
	"github.com/2beens/gymtracker/pkg"
)

type WorkoutsListResponse struct {
	Workouts               []workout.WorkoutPlan `json:"workouts"`
	LastCompletedWorkoutID string                `json:"lastCompletedWorkoutId,omitempty"`
}

type CreateWorkoutRequest struct {
	Name string `json:"name"`
}

type DeleteResponse struct {
	DeletedID string `json:"deletedId"`
}

type SaveSelectionRequest struct {
	RestBetweenExercises *int                `json:"restBetweenExercises"`
	Exercises            []catalog.Selection `json:"exercises"`
}

type ExerciseResponse struct {
	workout.ExerciseDef
	Custom bool `json:"custom"`
}

type ExercisesListResponse struct {
	Exercises []ExerciseResponse `json:"exercises"`
}

func (handler *Handler) HandleListWorkouts(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.list")
	defer span.End()

	pkg.WriteJSON(w, WorkoutsListResponse{
		Workouts:               handler.catalog.Plans(),
		LastCompletedWorkoutID: handler.core.Snapshot().LastCompletedWorkoutID,
	}, http.StatusOK)
}

func (handler *Handler) HandleCreateWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.new")
	defer span.End()

	var req CreateWorkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("new workout, unmarshal json params: %s", err)
		http.Error(w, "add workout failed", http.StatusBadRequest)
		return
	}

	plan, err := handler.catalog.CreatePlan(ctx, req.Name)
	if err != nil {
		writeError(w, "add workout", err)
		return
	}

	log.Debugf("new workout added: [%s] %s", plan.ID, plan.Name)
	pkg.WriteJSON(w, plan, http.StatusCreated)
}

func (handler *Handler) HandleDeleteWorkout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.delete")
	defer span.End()

	planID := mux.Vars(r)["id"]
	if err := handler.core.DeletePlan(ctx, planID); err != nil {
		writeError(w, "delete workout", err)
		return
	}

	log.Debugf("workout %s deleted", planID)
	pkg.WriteJSON(w, DeleteResponse{DeletedID: planID}, http.StatusOK)
}

func (handler *Handler) HandleSaveSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.selection.save")
	defer span.End()

	var req SaveSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Errorf("save selection, unmarshal json params: %s", err)
		http.Error(w, "save selection failed", http.StatusBadRequest)
		return
	}

	view, err := handler.core.CustomizePlan(ctx, mux.Vars(r)["id"], req.RestBetweenExercises, req.Exercises)
	if err != nil {
		writeError(w, "save selection", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleCancelSelection(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.workouts.selection.cancel")
	defer span.End()

	view, err := handler.core.CancelSelection(ctx, mux.Vars(r)["id"])
	if err != nil {
		writeError(w, "cancel selection", err)
		return
	}
	pkg.WriteJSON(w, view, http.StatusOK)
}

func (handler *Handler) HandleListExercises(w http.ResponseWriter, r *http.Request) {
	_, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.list")
	defer span.End()

	defs := handler.catalog.Exercises()
	resp := ExercisesListResponse{Exercises: make([]ExerciseResponse, 0, len(defs))}
	for _, def := range defs {
		resp.Exercises = append(resp.Exercises, ExerciseResponse{
			ExerciseDef: def,
			Custom:      handler.catalog.IsCustom(def.ID),
		})
	}
	pkg.WriteJSON(w, resp, http.StatusOK)
}

// HandleAddExercise accepts a multipart form with an optional "image" file,
// or a plain url encoded form without one.
func (handler *Handler) HandleAddExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.new")
	defer span.End()

	ne, err := parseNewExercise(r)
	if err != nil {
		log.Errorf("new exercise, parse form: %s", err)
		http.Error(w, "add exercise failed", http.StatusBadRequest)
		return
	}

	def, err := handler.catalog.AddCustomExercise(ctx, ne)
	if err != nil {
		writeError(w, "add exercise", err)
		return
	}

	log.Debugf("new exercise added: [%s] %s", def.ID, def.Name)
	pkg.WriteJSON(w, ExerciseResponse{ExerciseDef: def, Custom: true}, http.StatusCreated)
}

func parseNewExercise(r *http.Request) (catalog.NewExercise, error) {
	multipartForm := strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
	if multipartForm {
		if err := r.ParseMultipartForm(maxImageBytes); err != nil {
			return catalog.NewExercise{}, err
		}
	} else if err := r.ParseForm(); err != nil {
		return catalog.NewExercise{}, err
	}

	ne := catalog.NewExercise{
		Name: r.FormValue("name"),
		Reps: r.FormValue("reps"),
	}
	ne.Sets = formInt(r, "sets")
	ne.RestBetweenSets = formInt(r, "rest_between_sets")

	if !multipartForm {
		return ne, nil
	}

	file, header, err := r.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) {
		return ne, nil
	}
	if err != nil {
		return catalog.NewExercise{}, err
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes))
	if err != nil {
		return catalog.NewExercise{}, err
	}
	ne.Image = image
	ne.ImageMIME = header.Header.Get("Content-Type")

	return ne, nil
}

// formInt reads an optional integer form field. Missing or non numeric
// values are nil so the catalog applies its defaults.
func formInt(r *http.Request, name string) *int {
	raw := strings.TrimSpace(r.FormValue(name))
	if raw == "" {
		return nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Warnf("form field %s: %q is not a number", name, raw)
		return nil
	}
	return &v
}

func (handler *Handler) HandleDeleteExercise(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.exercises.delete")
	defer span.End()

	exerciseID := mux.Vars(r)["id"]
	if err := handler.catalog.DeleteCustomExercise(ctx, exerciseID); err != nil {
		writeError(w, "delete exercise", err)
		return
	}

	log.Debugf("exercise %s deleted", exerciseID)
	pkg.WriteJSON(w, DeleteResponse{DeletedID: exerciseID}, http.StatusOK)
}
