package httpkit

import (
	"context"
	"net/http"
	"strings"

	"github.com/productcatalog/platform/pkg/apperrors"
	"github.com/productcatalog/platform/pkg/authn"
)

type claimsCtxKey struct{}

// ClaimsFromContext returns the verified token claims installed by
// RequireAuth, or nil if none were installed.
func ClaimsFromContext(ctx context.Context) *authn.Claims {
	claims, _ := ctx.Value(claimsCtxKey{}).(*authn.Claims)
	return claims
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// RequireAuth verifies the bearer token against the configured public key
// and installs its claims on the request context. Each service verifies
// independently; none calls back to identity at request time.
func RequireAuth(verifier *authn.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				WriteError(w, apperrors.UnauthorizedError{Reason: "missing bearer token"}, CorrelationIDFromContext(r.Context()))
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				WriteError(w, apperrors.UnauthorizedError{Reason: err.Error()}, CorrelationIDFromContext(r.Context()))
				return
			}

			ctx := context.WithValue(r.Context(), claimsCtxKey{}, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// InternalServiceRole is the synthetic role installed by
// RequireAuthOrInternalToken when a request authenticates via the shared
// internal token rather than a user's JWT.
const InternalServiceRole = "service"

// RequireAuthOrInternalToken accepts either a valid bearer JWT or the
// X-Internal-Token shared secret, installing synthetic claims with
// InternalServiceRole in the latter case. This is the store component's
// read-through composer's only way to authenticate against the writer
// services, none of which expose an unauthenticated API, ported from the
// original system's X-Internal-Token header. An empty internalToken
// disables the shared-secret path entirely.
func RequireAuthOrInternalToken(verifier *authn.Verifier, internalToken string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		auth := RequireAuth(verifier)(next)

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if internalToken != "" && r.Header.Get("X-Internal-Token") == internalToken {
				ctx := context.WithValue(r.Context(), claimsCtxKey{}, &authn.Claims{Role: InternalServiceRole})
				next.ServeHTTP(w, r.WithContext(ctx))

				return
			}

			auth.ServeHTTP(w, r)
		})
	}
}

// RequireRole rejects requests whose verified role does not match any of
// the allowed roles. It must run after RequireAuth.
func RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFromContext(r.Context())
			if claims == nil || !allowed[claims.Role] {
				role := ""
				if claims != nil {
					role = claims.Role
				}

				WriteError(w, apperrors.ForbiddenError{Role: role, Operation: r.URL.Path}, CorrelationIDFromContext(r.Context()))

				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
