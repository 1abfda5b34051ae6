package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"blogql/internal/auth"
	"blogql/internal/logging"
)

// AuthMiddleware extracts the bearer token, verifies it as an access
// token, and attaches the viewer identity to the request context.
// Requests without a token proceed anonymously; resolvers enforce
// authentication per operation so the union error shapes can apply.
func AuthMiddleware(issuer *auth.Issuer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := issuer.Verify(token, auth.TokenTypeAccess)
			if err != nil {
				// An invalid token is treated as anonymous rather than
				// rejected, matching per-resolver auth enforcement.
				logging.FromContext(r.Context()).Debug("rejected bearer token",
					slog.String("error", err.Error()))
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithViewer(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
