package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/2beens/gymtracker/internal/store"
	"github.com/2beens/gymtracker/internal/store/storemock"
	"github.com/2beens/gymtracker/internal/workout"
)

func TestStore_History(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())

	history, err := s.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)

	date := time.Date(2025, 3, 1, 18, 30, 0, 0, time.UTC)
	history["squat"] = []workout.HistoryEntry{{
		Date:         date,
		SetNumber:    1,
		Reps:         workout.NumericReps(10),
		Load:         60,
		ExerciseName: "Squat",
		WorkoutID:    "A",
	}}
	require.NoError(t, s.SaveHistory(ctx, history))

	loaded, err := s.History(ctx)
	require.NoError(t, err)
	require.Len(t, loaded["squat"], 1)
	assert.True(t, loaded["squat"][0].Date.Equal(date))
	assert.Equal(t, 60.0, loaded["squat"][0].Load)
}

func TestStore_Workouts_NeverSavedVsEmpty(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())

	plans, saved, err := s.Workouts(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Nil(t, plans)

	require.NoError(t, s.SaveWorkouts(ctx, nil))
	plans, saved, err = s.Workouts(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.NotNil(t, plans)
	assert.Empty(t, plans)
}

func TestStore_CustomExercises(t *testing.T) {
	ctx := context.Background()
	s := store.New(store.NewMemoryBackend())

	defs := map[string]workout.ExerciseDef{
		"custom_01": {ID: "custom_01", Name: "Ponte", DefaultSets: workout.IntPtr(3)},
	}
	require.NoError(t, s.SaveCustomExercises(ctx, defs))

	loaded, err := s.CustomExercises(ctx)
	require.NoError(t, err)
	assert.Equal(t, defs, loaded)
}

func TestStore_LoadJSON_BackendError(t *testing.T) {
	ctrl := gomock.NewController(t)
	backendMock := storemock.NewMockBackend(ctrl)
	s := store.New(backendMock)

	backendMock.EXPECT().
		Get(gomock.Any(), store.KeyHistory).
		Return(nil, errors.New("disk on fire"))

	_, err := s.History(context.Background())
	assert.ErrorContains(t, err, "disk on fire")
}

func TestStore_LoadJSON_Malformed(t *testing.T) {
	ctrl := gomock.NewController(t)
	backendMock := storemock.NewMockBackend(ctrl)
	s := store.New(backendMock)

	backendMock.EXPECT().
		Get(gomock.Any(), store.KeyWorkouts).
		Return([]byte(`{not json`), nil)

	var v []workout.WorkoutPlan
	found, err := s.LoadJSON(context.Background(), store.KeyWorkouts, &v)
	assert.True(t, found)
	assert.ErrorContains(t, err, "decode gym_tracker_workouts")
}

func TestStore_SaveJSON_WritesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	backendMock := storemock.NewMockBackend(ctrl)
	s := store.New(backendMock)

	backendMock.EXPECT().
		Set(gomock.Any(), store.KeyWorkouts, []byte(`[]`)).
		Return(nil).
		Times(1)

	require.NoError(t, s.SaveWorkouts(context.Background(), nil))
}
