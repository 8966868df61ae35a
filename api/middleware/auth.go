package middleware

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/mercaterra/storefront-backend/api/responses"
	"github.com/mercaterra/storefront-backend/internal/identity"
	pkgauth "github.com/mercaterra/storefront-backend/pkg/auth"
	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/config"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	"github.com/mercaterra/storefront-backend/pkg/metrics"
)

type sessionReader interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
}

type identityLoader interface {
	Load(ctx context.Context, sessionID string, state *session.State) (*identity.Identity, error)
}

// Authenticated validates the bearer token, loads the server-side session
// state its jti points at, and seeds the request context with the resolved
// identity. Token claims are advisory; the session state is authoritative,
// so an active impersonation takes effect without reissuing the token.
func Authenticated(cfg config.JWTConfig, sessions sessionReader, loader identityLoader, logg *logger.Logger, access *metrics.AccessMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fail := func(err error) {
				if typed := pkgerrors.As(err); typed != nil {
					access.IncAuthFailure(string(typed.Code()))
				}
				responses.WriteError(r.Context(), logg, w, err)
			}

			token := bearerToken(r)
			if token == "" {
				fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.ParseAccessToken(cfg, token)
			if err != nil {
				fail(pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			state, err := sessions.Load(r.Context(), claims.ID)
			if err != nil {
				if pkgerrors.As(err) != nil {
					fail(err)
					return
				}
				if stderrors.Is(err, session.ErrNotFound) {
					fail(pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
				fail(pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
				return
			}

			ident, err := loader.Load(r.Context(), claims.ID, state)
			if err != nil {
				fail(err)
				return
			}

			ctx := WithIdentity(r.Context(), ident)
			if logg != nil {
				fields := map[string]any{
					"user_id":    ident.User.ID.String(),
					"actor_role": ident.User.Role.String(),
				}
				if ident.IsImpersonating {
					fields["impersonated_by"] = ident.OriginalUserID.String()
				}
				ctx = logg.WithFields(ctx, fields)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
