package store

//go:generate mockgen -source=backend.go -destination=storemock/backend.go -package=storemock

import (
	"context"
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

// Key names one of the persisted logical stores.
type Key string

const (
	KeyHistory         Key = "gym_tracker_history"
	KeyAppState        Key = "gym_tracker_app_state"
	KeyCustomExercises Key = "gym_tracker_custom_exercises"
	KeyWorkouts        Key = "gym_tracker_workouts"
)

// Keys returns every persisted key, in backup order.
func Keys() []Key {
	return []Key{KeyHistory, KeyAppState, KeyCustomExercises, KeyWorkouts}
}

func ParseKey(s string) (Key, error) {
	for _, k := range Keys() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown store key: %s", s)
}

// Backend is a durable key/value blob storage. Get returns ErrNotFound
// for keys never set or removed. Writes are complete when the call returns.
type Backend interface {
	Get(ctx context.Context, key Key) ([]byte, error)
	Set(ctx context.Context, key Key, value []byte) error
	Remove(ctx context.Context, key Key) error
}
