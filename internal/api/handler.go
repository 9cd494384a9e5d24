package api

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/backup"
	"github.com/2beens/gymtracker/internal/catalog"
	"github.com/2beens/gymtracker/internal/events"
	"github.com/2beens/gymtracker/internal/history"
	"github.com/2beens/gymtracker/internal/middleware"
	"github.com/2beens/gymtracker/internal/session"
	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/pkg"
)

const (
	catalogMutationsPerMin = 60
	maxImageBytes          = 4 << 20
	maxBackupBytes         = 16 << 20
)

type Params struct {
	Core           *session.Core
	Catalog        *catalog.Catalog
	History        *history.Recorder
	Store          *store.Store
	Hub            *events.Hub
	MetricsManager *metrics.Manager
	// AllowedOrigins are the browser origins allowed to open the event stream
	AllowedOrigins []string
}

type Handler struct {
	core           *session.Core
	catalog        *catalog.Catalog
	history        *history.Recorder
	store          *store.Store
	hub            *events.Hub
	metricsManager *metrics.Manager

	wsOriginPatterns []string
}

func NewHandler(params Params) *Handler {
	return &Handler{
		core:           params.Core,
		catalog:        params.Catalog,
		history:        params.History,
		store:          params.Store,
		hub:            params.Hub,
		metricsManager: params.MetricsManager,

		wsOriginPatterns: originPatterns(params.AllowedOrigins),
	}
}

// SetupRoutes registers every route on mainRouter. Mutations of the catalog
// and backup imports are rate limited when rateLimiter is set.
func (handler *Handler) SetupRoutes(
	mainRouter *mux.Router,
	rateLimiter middleware.RequestRateLimiter,
	backupImportPerMin int,
) {
	mainRouter.HandleFunc("/", handler.handleRoot).Methods("GET", "OPTIONS").Name("root")

	sessionRouter := mainRouter.PathPrefix("/session").Subrouter()
	sessionRouter.HandleFunc("", handler.HandleGetSession).Methods("GET", "OPTIONS").Name("get-session")
	sessionRouter.HandleFunc("/start", handler.HandleStart).Methods("POST", "OPTIONS").Name("start-session")
	sessionRouter.HandleFunc("/set/complete", handler.HandleCompleteSet).Methods("POST", "OPTIONS").Name("complete-set")
	sessionRouter.HandleFunc("/set/extra", handler.HandleExtraSet).Methods("POST", "OPTIONS").Name("extra-set")
	sessionRouter.HandleFunc("/load", handler.HandleSetLoad).Methods("POST", "OPTIONS").Name("session-load")
	sessionRouter.HandleFunc("/abort", handler.HandleAbort).Methods("POST", "OPTIONS").Name("abort-session")
	sessionRouter.HandleFunc("/extra/continue", handler.HandleContinueWithExtra).Methods("POST", "OPTIONS").Name("continue-extra")
	sessionRouter.HandleFunc("/summary", handler.HandleSummary).Methods("GET", "OPTIONS").Name("session-summary")
	sessionRouter.HandleFunc("/rest/skip", handler.HandleSkipRest).Methods("POST", "OPTIONS").Name("skip-rest")
	sessionRouter.HandleFunc("/rest/resume", handler.HandleResumeRest).Methods("POST", "OPTIONS").Name("resume-rest")
	sessionRouter.HandleFunc("/bridge/start", handler.HandleStartBridge).Methods("POST", "OPTIONS").Name("start-bridge")
	sessionRouter.HandleFunc("/bridge/{exid}/stats", handler.HandleBridgeStats).Methods("GET", "OPTIONS").Name("bridge-stats")

	workoutsRouter := mainRouter.PathPrefix("/workouts").Subrouter()
	workoutsRouter.HandleFunc("", handler.HandleListWorkouts).Methods("GET", "OPTIONS").Name("list-workouts")
	workoutsRouter.HandleFunc("", handler.HandleCreateWorkout).Methods("POST", "OPTIONS").Name("new-workout")
	workoutsRouter.HandleFunc("/{id}", handler.HandleDeleteWorkout).Methods("DELETE", "OPTIONS").Name("delete-workout")
	workoutsRouter.HandleFunc("/{id}/exercises", handler.HandleSaveSelection).Methods("PUT", "OPTIONS").Name("save-selection")
	workoutsRouter.HandleFunc("/{id}/selection/cancel", handler.HandleCancelSelection).Methods("POST", "OPTIONS").Name("cancel-selection")

	exercisesRouter := mainRouter.PathPrefix("/exercises").Subrouter()
	exercisesRouter.HandleFunc("", handler.HandleListExercises).Methods("GET", "OPTIONS").Name("list-exercises")
	exercisesRouter.HandleFunc("", handler.HandleAddExercise).Methods("POST", "OPTIONS").Name("new-exercise")
	exercisesRouter.HandleFunc("/{id}", handler.HandleDeleteExercise).Methods("DELETE", "OPTIONS").Name("delete-exercise")

	historyRouter := mainRouter.PathPrefix("/history").Subrouter()
	historyRouter.HandleFunc("/{exid}", handler.HandleGetHistory).Methods("GET", "OPTIONS").Name("get-history")
	historyRouter.HandleFunc("/{exid}/{pos}", handler.HandleDeleteHistoryEntry).Methods("DELETE", "OPTIONS").Name("delete-history-entry")
	historyRouter.HandleFunc("/{exid}", handler.HandleClearHistory).Methods("DELETE", "OPTIONS").Name("clear-history")

	backupRouter := mainRouter.PathPrefix("/backup").Subrouter()
	backupRouter.HandleFunc("", handler.HandleExport).Methods("GET", "OPTIONS").Name("export-backup")
	backupRouter.HandleFunc("", handler.HandleImport).Methods("POST", "OPTIONS").Name("import-backup")

	mainRouter.HandleFunc("/events", handler.HandleEvents).Methods("GET").Name("events")

	if rateLimiter != nil {
		workoutsRouter.Use(middleware.RateLimit(rateLimiter, handler.metricsManager, "workouts", catalogMutationsPerMin))
		exercisesRouter.Use(middleware.RateLimit(rateLimiter, handler.metricsManager, "exercises", catalogMutationsPerMin))
		backupRouter.Use(middleware.RateLimit(rateLimiter, handler.metricsManager, "backup-import", backupImportPerMin))
	}
}

func (handler *Handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	pkg.WriteTextResponseOK(w, "gymtracker is up")
}

// statusFor maps domain errors onto response codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrNoActiveSession),
		errors.Is(err, session.ErrRestInProgress),
		errors.Is(err, session.ErrNotFinalSet),
		errors.Is(err, session.ErrNotBridgeExercise):
		return http.StatusConflict
	case errors.Is(err, catalog.ErrPlanNotFound),
		errors.Is(err, catalog.ErrExerciseNotFound),
		errors.Is(err, history.ErrEntryNotFound):
		return http.StatusNotFound
	case errors.Is(err, catalog.ErrProtectedPlan),
		errors.Is(err, catalog.ErrNotCustomExercise):
		return http.StatusForbidden
	case errors.Is(err, catalog.ErrNameRequired),
		errors.Is(err, backup.ErrMalformed),
		errors.Is(err, backup.ErrUnsupportedVersion):
		return http.StatusBadRequest
	case errors.Is(err, catalog.ErrCatalogUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeError logs err and answers with a short text. Domain errors carry
// their own message, anything else is reported as failed.
func writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorf("%s: %s", op, err)
		http.Error(w, "error, "+op+" failed", status)
		return
	}
	log.Debugf("%s: %s", op, err)
	http.Error(w, err.Error(), status)
}
