package controllers

import (
	"context"
	"net/http"

	"github.com/mercaterra/storefront-backend/api/middleware"
	"github.com/mercaterra/storefront-backend/api/responses"
	"github.com/mercaterra/storefront-backend/api/validators"
	"github.com/mercaterra/storefront-backend/internal/auth"
	"github.com/mercaterra/storefront-backend/internal/identity"
	"github.com/mercaterra/storefront-backend/internal/tenancy"
	"github.com/mercaterra/storefront-backend/internal/users"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
	"github.com/mercaterra/storefront-backend/pkg/logger"
)

type authService interface {
	Login(ctx context.Context, email, password string) (*auth.LoginResult, error)
	Logout(ctx context.Context, sessionID string) error
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string         `json:"token"`
	User  *users.UserDTO `json:"user"`
}

// AuthLogin wires the login endpoint into the HTTP layer.
func AuthLogin(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Login(r.Context(), body.Email, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, loginResponse{
			Token: result.Token,
			User:  users.FromModel(result.User),
		})
	}
}

// AuthLogout destroys the caller's session.
func AuthLogout(svc authService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFromContext(r.Context())
		if ident == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated"))
			return
		}
		if err := svc.Logout(r.Context(), ident.SessionID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "logged_out"})
	}
}

type describeResolver interface {
	Describe(ctx context.Context, ident *identity.Identity, hostname string) (*tenancy.Decision, error)
}

type authUserResponse struct {
	User            *users.UserDTO `json:"user"`
	EffectiveRole   string         `json:"effective_role"`
	IsDomainOwner   bool           `json:"is_domain_owner"`
	IsImpersonating bool           `json:"is_impersonating"`
	OriginalUserID  string         `json:"original_user_id,omitempty"`
}

// AuthUser answers "who am I right now": the durable account plus the role
// the current hostname would grant. Purely informational, nothing mutates.
func AuthUser(resolver describeResolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFromContext(r.Context())
		if ident == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated"))
			return
		}

		decision, err := resolver.Describe(r.Context(), ident, middleware.RequestHostname(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := authUserResponse{
			User:            users.FromModel(ident.User),
			EffectiveRole:   decision.EffectiveRole.String(),
			IsDomainOwner:   decision.IsDomainOwner,
			IsImpersonating: ident.IsImpersonating,
		}
		if ident.IsImpersonating {
			resp.OriginalUserID = ident.OriginalUserID.String()
		}
		responses.WriteSuccess(w, resp)
	}
}
