package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"carparts/catalog-service/internal/token"
)

type authContextKey struct{}

type TokenVerifier interface {
	Verify(raw string) (token.Claim, error)
}

// AuthMiddleware admits requests carrying a valid bearer token. A missing
// header is 401; a header that is malformed or fails verification is 403.
func AuthMiddleware(verifier TokenVerifier, logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := strings.TrimSpace(r.Header.Get("Authorization"))
		if header == "" {
			logger.WarnContext(r.Context(), "auth rejected", "reason", "missing authorization", "path", r.URL.Path, "request_id", requestIDFromRequest(r))
			writeError(w, http.StatusUnauthorized, "unauthorized", "unauthorized access")
			return
		}
		raw := bearerToken(header)
		if raw == "" {
			logger.WarnContext(r.Context(), "auth rejected", "reason", "malformed authorization", "path", r.URL.Path, "request_id", requestIDFromRequest(r))
			writeError(w, http.StatusForbidden, "forbidden", "forbidden access")
			return
		}
		claim, err := verifier.Verify(raw)
		if err != nil {
			logger.WarnContext(r.Context(), "auth rejected", "reason", "invalid token", "error", err, "path", r.URL.Path, "request_id", requestIDFromRequest(r))
			writeError(w, http.StatusForbidden, "forbidden", "forbidden access")
			return
		}
		ctx := context.WithValue(r.Context(), authContextKey{}, claim)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func claimFromContext(ctx context.Context) (token.Claim, bool) {
	value := ctx.Value(authContextKey{})
	if value == nil {
		return token.Claim{}, false
	}
	claim, ok := value.(token.Claim)
	if !ok {
		return token.Claim{}, false
	}
	return claim, true
}

func requestIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Request-ID"))
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) != 2 {
		return ""
	}
	if strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return parts[1]
}
