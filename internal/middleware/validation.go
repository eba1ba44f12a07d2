package middleware

import (
	"mime"
	"net/http"

	apierrors "expenditure/internal/errors"
)

// DefaultMaxBodySize bounds request bodies accepted by RequireJSON
const DefaultMaxBodySize = 1 << 20

// RequireJSON rejects bodies that are not application/json and caps their
// size. Requests without a body pass through.
func RequireJSON(handler *apierrors.ErrorHandler, maxBodySize int64) func(next http.Handler) http.Handler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodGet || r.Method == http.MethodHead || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			if r.ContentLength != 0 {
				mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
				if err != nil || mediaType != "application/json" {
					handler.HandleError(w, r, apierrors.ErrUnsupportedMediaType)
					return
				}
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
			next.ServeHTTP(w, r)
		})
	}
}
