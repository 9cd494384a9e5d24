package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/coocood/freecache"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
	"github.com/2beens/gymtracker/internal/workout"
)

// Base is the static catalog document shipped with the app.
type Base struct {
	Workouts  []workout.WorkoutPlan          `json:"workouts"`
	Exercises map[string]workout.ExerciseDef `json:"exercises"`
}

// Source fetches the base catalog.
type Source interface {
	Fetch(ctx context.Context) (*Base, error)
}

// DecodeBase parses a base catalog document.
func DecodeBase(data []byte) (*Base, error) {
	var base Base
	if err := json.Unmarshal(data, &base); err != nil {
		return nil, fmt.Errorf("decode base catalog: %w", err)
	}
	if base.Exercises == nil {
		base.Exercises = map[string]workout.ExerciseDef{}
	}
	for id, def := range base.Exercises {
		if def.ID == "" {
			def.ID = id
			base.Exercises[id] = def
		}
	}
	return &base, nil
}

const (
	megabyte     = 1024 * 1024
	cacheSize    = 10 * megabyte
	baseCacheKey = "catalog::base"
)

// HTTPSource fetches the catalog over HTTP. Successful bodies are kept in
// an in-process cache for ttl; failures are never retried.
type HTTPSource struct {
	url        string
	httpClient *http.Client
	cache      *freecache.Cache
	ttl        time.Duration
}

func NewHTTPSource(url string, httpClient *http.Client, ttl time.Duration) *HTTPSource {
	return &HTTPSource{
		url:        url,
		httpClient: httpClient,
		cache:      freecache.NewCache(cacheSize),
		ttl:        ttl,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) (_ *Base, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "catalog.httpSource.fetch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	if cached, err := s.cache.Get([]byte(baseCacheKey)); err == nil {
		log.Tracef("base catalog found in cache")
		if base, err := DecodeBase(cached); err == nil {
			return base, nil
		} else {
			log.Errorf("failed to decode base catalog from cache: %s", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("fetch base catalog: status %d", resp.StatusCode)
	}

	respBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read base catalog response: %w", err)
	}

	base, err := DecodeBase(respBytes)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set([]byte(baseCacheKey), respBytes, int(s.ttl.Seconds())); err != nil {
		log.Errorf("failed to cache base catalog: %s", err)
	}

	return base, nil
}

// Invalidate drops the cached catalog, next Fetch hits the network.
func (s *HTTPSource) Invalidate() {
	s.cache.Del([]byte(baseCacheKey))
}

// FileSource reads the catalog from a local JSON or YAML file.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) Fetch(ctx context.Context) (_ *Base, err error) {
	_, span := tracing.GlobalTracer.Start(ctx, "catalog.fileSource.fetch")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(s.path)) {
	case ".yaml", ".yml":
		data, err = yamlToJSON(data)
		if err != nil {
			return nil, err
		}
	}

	return DecodeBase(data)
}

// yamlToJSON lets YAML catalogs share the JSON decoding rules (bare string
// exercise refs, numeric rep patterns).
func yamlToJSON(data []byte) ([]byte, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode yaml catalog: %w", err)
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("convert yaml catalog: %w", err)
	}
	return out, nil
}
