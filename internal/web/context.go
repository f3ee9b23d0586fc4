package web

import (
	"net/http"

	"github.com/JonMunkholm/inspections/internal/core"
)

// requestMetadata adds the client IP and User-Agent to the request context so
// mutation logs can name who changed a record.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), r.RemoteAddr) // already resolved by TrustedRealIP
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
