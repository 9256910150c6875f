package web

import (
	"net/http"

	"github.com/hitpa/claimupload/internal/core"
	appmw "github.com/hitpa/claimupload/internal/web/middleware"
)

// requestMetadata stores the client IP and User-Agent in the request
// context for the upload log. It runs after TrustedRealIP.
func requestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := core.ContextWithIPAddress(r.Context(), appmw.ClientIP(r))
		ctx = core.ContextWithUserAgent(ctx, r.UserAgent())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
