package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/telemetry/tracing"
)

const Version = 1

var (
	ErrMalformed          = errors.New("malformed backup")
	ErrUnsupportedVersion = errors.New("unsupported backup version")
)

// Envelope carries the persisted blobs verbatim, as JSON text keyed by
// store key name.
type Envelope struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exportedAt"`
	Blobs      map[string]string `json:"blobs"`
}

// Export reads every persisted blob. Keys never written are omitted.
func Export(ctx context.Context, backend store.Backend, now time.Time) (_ *Envelope, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backup.export")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	env := &Envelope{
		Version:    Version,
		ExportedAt: now.UTC(),
		Blobs:      map[string]string{},
	}

	for _, key := range store.Keys() {
		raw, err := backend.Get(ctx, key)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		env.Blobs[string(key)] = string(raw)
	}

	return env, nil
}

// Parse decodes and validates an envelope: the version must be supported
// and every known blob must hold valid JSON.
func Parse(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformed, err)
	}

	if env.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, env.Version)
	}
	if env.Blobs == nil {
		return nil, fmt.Errorf("%w: missing blobs", ErrMalformed)
	}

	for name, raw := range env.Blobs {
		if _, err := store.ParseKey(name); err != nil {
			continue
		}
		if !json.Valid([]byte(raw)) {
			return nil, fmt.Errorf("%w: blob %s is not valid JSON", ErrMalformed, name)
		}
	}

	return &env, nil
}

// Import validates the whole envelope before writing, then overwrites the
// blobs it carries. Unknown keys are ignored. It returns the written keys.
func Import(ctx context.Context, backend store.Backend, data []byte) (_ []store.Key, err error) {
	ctx, span := tracing.GlobalTracer.Start(ctx, "backup.import")
	defer func() {
		tracing.EndSpanWithErrCheck(span, err)
	}()

	env, err := Parse(data)
	if err != nil {
		return nil, err
	}

	var written []store.Key
	for _, key := range store.Keys() {
		raw, ok := env.Blobs[string(key)]
		if !ok {
			continue
		}
		if err := backend.Set(ctx, key, []byte(raw)); err != nil {
			return written, fmt.Errorf("write %s: %w", key, err)
		}
		written = append(written, key)
	}

	for name := range env.Blobs {
		if _, err := store.ParseKey(name); err != nil {
			log.Warnf("backup import: ignoring unknown blob [%s]", name)
		}
	}

	log.Debugf("backup import: %d blobs written", len(written))
	return written, nil
}
