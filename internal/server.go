package internal

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/getsentry/sentry-go"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/2beens/gymtracker/internal/api"
	"github.com/2beens/gymtracker/internal/catalog"
	"github.com/2beens/gymtracker/internal/config"
	"github.com/2beens/gymtracker/internal/events"
	"github.com/2beens/gymtracker/internal/history"
	gymmcp "github.com/2beens/gymtracker/internal/mcp"
	"github.com/2beens/gymtracker/internal/middleware"
	"github.com/2beens/gymtracker/internal/session"
	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/telemetry/metrics"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
)

type Server struct {
	config            *config.Config
	httpServer        *http.Server
	metricsHttpServer *http.Server
	accessSecretHash  string // bcrypt hash of the access token, empty disables the check
	versionInfo       string

	storage *store.Opened
	store   *store.Store
	catalog *catalog.Catalog
	watcher *catalog.Watcher
	core    *session.Core
	hub     *events.Hub
	history *history.Recorder

	// metrics
	metricsManager *metrics.Manager
	promRegistry   *prometheus.Registry
	otelShutdown   func()

	cancelWatch context.CancelFunc
}

type NewServerParams struct {
	Config                  *config.Config
	RedisPassword           string
	AccessSecretHash        string
	VersionInfo             string
	HoneycombTracingEnabled bool
	// Storage is used as is when set, instead of opening the configured backend.
	Storage *store.Opened
}

func NewServer(
	ctx context.Context,
	params NewServerParams,
) (*Server, error) {
	storage := params.Storage
	if storage == nil {
		var err error
		storage, err = store.Open(ctx, store.OpenParams{
			Config:         params.Config,
			RedisPassword:  params.RedisPassword,
			TracingEnabled: params.HoneycombTracingEnabled,
		})
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
	}

	var collectors []prometheus.Collector
	if storage.DBPool != nil {
		collectors = append(collectors, pgxpoolprometheus.NewCollector(
			storage.DBPool,
			map[string]string{"db_name": params.Config.PostgresDBName},
		))
	}
	promRegistry := metrics.SetupPrometheus(collectors...)
	metricsManager := metrics.NewManager("gymtracker", "main", promRegistry)
	metricsManager.GaugeLifeSignal.Set(0)

	// use honeycomb distro to setup OpenTelemetry SDK
	otelShutdown, err := tracing.HoneycombSetup(params.HoneycombTracingEnabled, "gymtracker", storage.Redis)
	if err != nil {
		return nil, err
	}

	tracedHttpClient := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   30 * time.Second,
	}

	var (
		source     catalog.Source
		fileSource *catalog.FileSource
	)
	if params.Config.CatalogURL != "" {
		source = catalog.NewHTTPSource(params.Config.CatalogURL, tracedHttpClient, params.Config.CatalogCacheTTL())
	} else {
		fileSource = catalog.NewFileSource(params.Config.CatalogPath)
		source = fileSource
	}

	st := store.New(storage.Backend)
	cat := catalog.New(source, st)
	if err := cat.Load(ctx); err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	log.Debugf("catalog loaded: %d plans, %d exercises", len(cat.Plans()), len(cat.Exercises()))

	hub := events.NewHub()
	recorder := history.NewRecorder(st, metricsManager)
	core := session.NewCore(session.Params{
		Store:          st,
		Catalog:        cat,
		History:        recorder,
		Hub:            hub,
		MetricsManager: metricsManager,
		RestTick:       params.Config.RestTick(),
		BridgeTick:     params.Config.BridgeTick(),
	})
	if err := core.Init(ctx); err != nil {
		return nil, fmt.Errorf("init session: %w", err)
	}

	s := &Server{
		config:           params.Config,
		accessSecretHash: params.AccessSecretHash,
		versionInfo:      params.VersionInfo,

		storage: storage,
		store:   st,
		catalog: cat,
		core:    core,
		hub:     hub,
		history: recorder,

		// telemetry
		metricsManager: metricsManager,
		promRegistry:   promRegistry,
		otelShutdown:   otelShutdown,
	}

	if fileSource != nil && params.Config.CatalogWatch {
		s.watcher = catalog.NewWatcher(fileSource.Path(), 0, s.reloadCatalog)
	}

	return s, nil
}

// reloadCatalog re-reads the base catalog after its file changed.
func (s *Server) reloadCatalog(ctx context.Context) error {
	if err := s.catalog.Load(ctx); err != nil {
		return err
	}
	s.hub.Publish(events.TypeCatalogChanged, nil)
	return nil
}

func (s *Server) routerSetup() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(otelmux.Middleware("main-router"))

	var reqRateLimiter middleware.RequestRateLimiter
	if s.storage.Redis != nil {
		reqRateLimiter = redis_rate.NewLimiter(s.storage.Redis)
	}

	apiHandler := api.NewHandler(api.Params{
		Core:           s.core,
		Catalog:        s.catalog,
		History:        s.history,
		Store:          s.store,
		Hub:            s.hub,
		MetricsManager: s.metricsManager,
		AllowedOrigins: s.config.AllowedOrigins,
	})
	apiHandler.SetupRoutes(r, reqRateLimiter, s.config.BackupImportPerMin)

	mcpServer := gymmcp.NewServer(s.versionInfo, s.core, s.catalog, s.history)
	r.Handle("/mcp", gymmcp.NewHTTPHandler(mcpServer)).Methods("GET", "POST", "DELETE", "OPTIONS").Name("mcp")

	// all the rest - unhandled paths
	r.HandleFunc("/{unknown}", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}).Methods("GET", "POST", "PUT", "DELETE", "OPTIONS").Name("unknown")

	accessMiddleware := middleware.NewAccessMiddlewareHandler(s.accessSecretHash)
	if !accessMiddleware.Enabled() {
		log.Warnln("access secret hash not set, api is open to anyone reaching it")
	}

	r.Use(middleware.PanicRecovery(s.metricsManager))
	r.Use(middleware.LogRequest())
	r.Use(middleware.RequestMetrics(s.metricsManager))
	r.Use(middleware.Cors(s.config.AllowedOrigins))
	r.Use(accessMiddleware.AccessCheck())
	r.Use(middleware.DrainAndCloseRequest())

	return r, nil
}

func (s *Server) Serve(ctx context.Context, host string, port int) {
	router, err := s.routerSetup()
	if err != nil {
		log.Fatalf("failed to setup router: %s", err)
	}

	ipAndPort := net.JoinHostPort(host, strconv.Itoa(port))
	s.httpServer = &http.Server{
		Handler:     router,
		Addr:        ipAndPort,
		ReadTimeout: time.Minute,
		// no write timeout, event streams stay open
		ConnState: s.connStateMetrics,
	}

	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.HandlerFor(
		s.promRegistry,
		promhttp.HandlerOpts{},
	))
	metricsAddr := net.JoinHostPort(s.config.PrometheusMetricsHost, s.config.PrometheusMetricsPort)
	s.metricsHttpServer = &http.Server{
		Addr:    metricsAddr,
		Handler: metricsRouter,
	}

	go func() {
		log.Infof(" > server listening on: [%s]", ipAndPort)
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("main service, listen and serve: %s", err)
		}
	}()

	go func() {
		log.Debugf(" > metrics listening on: [%s]", metricsAddr)
		err := s.metricsHttpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("metrics service, listen and serve: %s", err)
		}
	}()

	if s.watcher != nil {
		watchCtx, cancel := context.WithCancel(ctx)
		s.cancelWatch = cancel
		go func() {
			log.Debugf(" > watching catalog file: [%s]", s.config.CatalogPath)
			if err := s.watcher.Watch(watchCtx); err != nil {
				log.Errorf("catalog watcher: %s", err)
			}
		}()
	}

	s.metricsManager.GaugeLifeSignal.Set(1)
}

func (s *Server) GracefulShutdown() {
	log.Debug("graceful shutdown initiated ...")

	s.metricsManager.GaugeLifeSignal.Set(0)

	if s.cancelWatch != nil {
		s.cancelWatch()
	}

	// event streams end when the hub closes, otherwise shutdown waits on them
	s.hub.Close()

	maxWaitDuration := time.Second * 15
	ctx, timeoutCancel := context.WithTimeout(context.Background(), maxWaitDuration)
	defer timeoutCancel()

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown http server")
		}
		log.Warnln("server shut down")
	}

	s.core.Close()
	log.Trace("session core closed ...")

	s.otelShutdown()
	log.Trace("otel shut down ...")

	if err := s.storage.Close(); err != nil {
		log.Errorf("failed to close storage: %s", err)
	}

	if ok := sentry.Flush(5 * time.Second); ok {
		log.Debugf("sentry flush ok: %t", ok)
	}

	if s.metricsHttpServer != nil {
		if err := s.metricsHttpServer.Shutdown(ctx); err != nil {
			log.Error(" >>> failed to gracefully shutdown metrics http server")
		}
		log.Warnln("metrics server shut down")
	}
}

func (s *Server) connStateMetrics(_ net.Conn, state http.ConnState) {
	switch state {
	case http.StateNew:
		s.metricsManager.GaugeRequests.Add(1)
	case http.StateClosed:
		s.metricsManager.GaugeRequests.Add(-1)
	default:
		// do nothing
	}
}
