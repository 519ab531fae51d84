package middleware

import (
	"io"
	"net/http"
)

// maxBodyBytes bounds request bodies, the largest valid body is a weight pair.
const maxBodyBytes = 64 * 1024

// DrainAndCloseRequest limits the request body size, and drains and closes
// it once the handler is done, so the connection can be reused.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			}
			next.ServeHTTP(w, r)
			if r.Body != nil {
				_, _ = io.Copy(io.Discard, r.Body)
				_ = r.Body.Close()
			}
		})
	}
}
