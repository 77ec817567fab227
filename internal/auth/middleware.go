package auth

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/hisab-pos/hisab/internal/platform/httpx"
	"github.com/hisab-pos/hisab/internal/shared"
)

// Middleware resolves the bearer token into a tenant id on the request
// context. Requests without a valid session are rejected.
func Middleware(sessions *SessionManager, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			tenantID, ok, err := sessions.Lookup(r.Context(), token)
			if err != nil {
				logger.Error("session lookup failed", slog.Any("error", err))
				httpx.Error(w, http.StatusInternalServerError, "session store unavailable")
				return
			}
			if !ok {
				httpx.Error(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			ctx := shared.ContextWithTenant(r.Context(), tenantID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
