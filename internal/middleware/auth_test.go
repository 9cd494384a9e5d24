package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/2beens/gymtracker/internal/middleware"
)

func TestAccessMiddlewareHandler_AccessCheck(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	accessMiddleware := middleware.NewAccessMiddlewareHandler(string(hash))
	require.True(t, accessMiddleware.Enabled())

	testCases := []struct {
		name               string
		path               string
		method             string
		token              string
		bearer             string
		expectedStatusCode int
		expectNextCalled   bool
	}{
		{
			name:               "HealthWithoutToken",
			path:               "/",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
			expectNextCalled:   true,
		},
		{
			name:               "Options",
			path:               "/session",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "MissingToken",
			path:               "/session",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "ValidToken",
			path:               "/session",
			method:             "GET",
			token:              "s3cret",
			expectedStatusCode: http.StatusOK,
			expectNextCalled:   true,
		},
		{
			name:               "ValidTokenCached",
			path:               "/workouts",
			method:             "GET",
			token:              "s3cret",
			expectedStatusCode: http.StatusOK,
			expectNextCalled:   true,
		},
		{
			name:               "ValidBearer",
			path:               "/session/start",
			method:             "POST",
			bearer:             "s3cret",
			expectedStatusCode: http.StatusOK,
			expectNextCalled:   true,
		},
		{
			name:               "InvalidToken",
			path:               "/session",
			method:             "GET",
			token:              "nope",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "EventsQueryToken",
			path:               "/events?token=s3cret",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
			expectNextCalled:   true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.token != "" {
				req.Header.Set(middleware.AccessTokenHeader, tc.token)
			}
			if tc.bearer != "" {
				req.Header.Set("Authorization", "Bearer "+tc.bearer)
			}

			nextCalled := false
			handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
			})

			rr := httptest.NewRecorder()
			accessMiddleware.AccessCheck()(handler).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectNextCalled, nextCalled)
		})
	}
}

func TestAccessMiddlewareHandler_Disabled(t *testing.T) {
	accessMiddleware := middleware.NewAccessMiddlewareHandler("")
	assert.False(t, accessMiddleware.Enabled())

	nextCalled := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled = true
	})

	rr := httptest.NewRecorder()
	accessMiddleware.AccessCheck()(handler).ServeHTTP(rr, httptest.NewRequest("GET", "/session", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, nextCalled)
}
