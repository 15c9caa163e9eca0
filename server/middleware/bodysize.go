package middleware

import "net/http"

// DefaultMaxBodyBytes bounds action payloads.
const DefaultMaxBodyBytes int64 = 1 << 20

// BodySizeLimit caps request bodies at maxBytes. Reads past the limit fail
// and the handler answers 413.
func BodySizeLimit(maxBytes int64) Middleware {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBodyBytes
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}
