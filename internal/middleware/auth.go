package middleware

import (
	"net/http"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/crypto/bcrypt"

	"github.com/2beens/gymtracker/internal/telemetry/tracing"
)

const AccessTokenHeader = "X-GYM-TOKEN"

// AccessMiddlewareHandler guards the API with a single shared secret,
// stored as a bcrypt hash. Tokens that matched once are remembered, so
// bcrypt runs once per distinct token.
type AccessMiddlewareHandler struct {
	secretHash   []byte
	allowedPaths map[string]bool

	mu       sync.RWMutex
	accepted map[string]bool
}

func NewAccessMiddlewareHandler(secretHash string) *AccessMiddlewareHandler {
	return &AccessMiddlewareHandler{
		secretHash: []byte(secretHash),
		allowedPaths: map[string]bool{
			"/": true,
		},
		accepted: map[string]bool{},
	}
}

func (h *AccessMiddlewareHandler) Enabled() bool {
	return len(h.secretHash) > 0
}

func (h *AccessMiddlewareHandler) tokenValid(token string) bool {
	h.mu.RLock()
	ok := h.accepted[token]
	h.mu.RUnlock()
	if ok {
		return true
	}

	if err := bcrypt.CompareHashAndPassword(h.secretHash, []byte(token)); err != nil {
		return false
	}

	h.mu.Lock()
	h.accepted[token] = true
	h.mu.Unlock()
	return true
}

func requestToken(r *http.Request) string {
	if token := r.Header.Get(AccessTokenHeader); token != "" {
		return token
	}
	if bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return bearer
	}
	// browsers can not set headers on websocket upgrades
	if r.URL.Path == "/events" {
		return r.URL.Query().Get("token")
	}
	return ""
}

func (h *AccessMiddlewareHandler) AccessCheck() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, span := tracing.GlobalTracer.Start(r.Context(), "middleware.access")
			defer span.End()

			if r.Method == http.MethodOptions {
				w.Header().Add("Allow", "GET, POST, PUT, DELETE, OPTIONS")
				w.WriteHeader(http.StatusOK)
				span.SetStatus(codes.Ok, "options-ok")
				return
			}

			if !h.Enabled() || h.allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			token := requestToken(r)
			if token == "" {
				log.Tracef("[missing token] [access middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-access-token")
				return
			}

			if !h.tokenValid(token) {
				log.Warnf("[invalid token] [access middleware] unauthorized => %s", r.URL.Path)
				http.Error(w, "no can do", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "invalid-access-token")
				return
			}

			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r)
		})
	}
}
