package middleware

import (
	"io"
	"net/http"
)

// maxDrainBytes bounds what is read from a body the handler left unread.
// Larger leftovers are dropped with the connection.
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest reads what the handler left of the request body, so
// the connection can be reused, then closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil || r.Body == http.NoBody {
				return
			}
			_, _ = io.CopyN(io.Discard, r.Body, maxDrainBytes)
			_ = r.Body.Close()
		})
	}
}
