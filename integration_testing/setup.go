//go:build integration_test || all_tests

package integration_testing

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"

	"github.com/2beens/gymtracker/internal"
	"github.com/2beens/gymtracker/internal/config"
)

const (
	serverPort  = 9917
	serverHost  = "localhost"
	metricsPort = "29917"
)

var serverEndpoint = fmt.Sprintf("http://%s:%d", serverHost, serverPort)

const catalogJSON = `{
  "workouts": [
    {"id": "A", "name": "Workout A", "rest_between_exercises": 30, "exercises": ["squat", "ponte"]},
    {"id": "EXTRA", "name": "Extra", "exercises": []}
  ],
  "exercises": {
    "squat": {"name": "Squat", "default_sets": 2, "default_reps": "10-8", "default_timer": 90},
    "ponte": {"name": "Ponte", "default_sets": 1, "default_reps": "max", "default_timer": 30}
  }
}`

type testEnv struct {
	dockerPool *dockertest.Pool
	redisPort  string
	catalogDir string
	teardown   []func()
}

func newTestEnv() (*testEnv, error) {
	env := &testEnv{}

	// uses a sensible default on windows (tcp/http) and linux/osx (socket)
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not create new dockertest pool: %s", err)
	}
	// uses pool to try to connect to Docker
	if err = pool.Client.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping dockertest pool: %s", err)
	}
	env.dockerPool = pool

	env.redisPort, err = env.redisSetup()
	if err != nil {
		env.cleanup()
		return nil, fmt.Errorf("failed to setup redis: %s", err)
	}

	env.catalogDir, err = os.MkdirTemp("", "gymtracker-it")
	if err != nil {
		env.cleanup()
		return nil, err
	}
	env.teardown = append(env.teardown, func() {
		_ = os.RemoveAll(env.catalogDir)
	})
	if err := os.WriteFile(env.catalogPath(), []byte(catalogJSON), 0o600); err != nil {
		env.cleanup()
		return nil, err
	}

	return env, nil
}

func (e *testEnv) catalogPath() string {
	return filepath.Join(e.catalogDir, "workouts.json")
}

func (e *testEnv) cleanup() {
	for i := len(e.teardown) - 1; i >= 0; i-- {
		e.teardown[i]()
	}
	e.teardown = nil
}

func (e *testEnv) redisSetup() (string, error) {
	redisResource, err := e.dockerPool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis",
		Name:       "gymtracker-it-redis",
		Tag:        "7.2",
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
	})
	if err != nil {
		return "", fmt.Errorf("run redis: %s", err)
	}

	e.teardown = append(e.teardown, func() {
		_ = redisResource.Close()
	})

	return redisResource.GetPort("6379/tcp"), nil
}

func (e *testEnv) config() *config.Config {
	return &config.Config{
		Environment:           "development",
		Host:                  serverHost,
		Port:                  serverPort,
		PrometheusMetricsHost: serverHost,
		PrometheusMetricsPort: metricsPort,
		StorageBackend:        config.StorageRedis,
		RedisHost:             "localhost",
		RedisPort:             e.redisPort,
		CatalogPath:           e.catalogPath(),
		RestTickMillis:        100,
		BridgeTickMillis:      100,
		BackupImportPerMin:    1,
	}
}

// startServer runs a service against the shared redis and waits until it
// answers.
func (e *testEnv) startServer(ctx context.Context) (*internal.Server, error) {
	cfg := e.config()
	server, err := internal.NewServer(ctx, internal.NewServerParams{
		Config:      cfg,
		VersionInfo: "test-version-info",
	})
	if err != nil {
		return nil, fmt.Errorf("new server: %w", err)
	}

	server.Serve(ctx, cfg.Host, cfg.Port)

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(serverEndpoint + "/")
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return server, nil
			}
		}
		time.Sleep(100 * time.Millisecond)
	}

	server.GracefulShutdown()
	return nil, fmt.Errorf("server not up on %s", serverEndpoint)
}
