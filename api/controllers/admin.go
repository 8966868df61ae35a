package controllers

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/api/middleware"
	"github.com/mercaterra/storefront-backend/api/responses"
	"github.com/mercaterra/storefront-backend/api/validators"
	"github.com/mercaterra/storefront-backend/internal/users"
	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	"github.com/mercaterra/storefront-backend/pkg/metrics"
)

type impersonationService interface {
	Start(ctx context.Context, sessionID string, state *session.State, actor *models.User, targetID uuid.UUID) (*models.User, error)
	Exit(ctx context.Context, sessionID string, state *session.State) (*models.User, error)
}

type stateReader interface {
	Load(ctx context.Context, sessionID string) (*session.State, error)
}

type roleUpdater interface {
	UpdateRole(ctx context.Context, id uuid.UUID, role enums.Role) (*models.User, error)
}

type impersonationResponse struct {
	User            *users.UserDTO `json:"user"`
	IsImpersonating bool           `json:"is_impersonating"`
}

func pathUserID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "userId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid user id")
	}
	return id, nil
}

// AdminImpersonate switches the caller's session to the target identity.
func AdminImpersonate(svc impersonationService, sessions stateReader, logg *logger.Logger, access *metrics.AccessMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFromContext(r.Context())
		if ident == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated"))
			return
		}

		targetID, err := pathUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sessions.Load(r.Context(), ident.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
			return
		}

		target, err := svc.Start(r.Context(), ident.SessionID, state, ident.User, targetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		access.IncImpersonation("start")
		if logg != nil {
			ctx := logg.WithFields(r.Context(), map[string]any{
				"target_user_id": target.ID.String(),
			})
			logg.Info(ctx, "impersonation.started")
		}
		responses.WriteSuccess(w, impersonationResponse{User: users.FromModel(target), IsImpersonating: true})
	}
}

// AdminExitImpersonation restores the original admin identity.
func AdminExitImpersonation(svc impersonationService, sessions stateReader, logg *logger.Logger, access *metrics.AccessMetrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ident := middleware.IdentityFromContext(r.Context())
		if ident == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated"))
			return
		}

		state, err := sessions.Load(r.Context(), ident.SessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session"))
			return
		}

		original, err := svc.Exit(r.Context(), ident.SessionID, state)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		access.IncImpersonation("exit")
		responses.WriteSuccess(w, impersonationResponse{User: users.FromModel(original), IsImpersonating: false})
	}
}

type updateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=super_admin admin seller buyer"`
}

// AdminUpdateUserRole changes a user's durable role. This is the only place
// the stored role moves; tenant reconciliation never writes it.
func AdminUpdateUserRole(repo roleUpdater, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID, err := pathUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateRoleRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		role, err := enums.ParseRole(body.Role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid role"))
			return
		}

		updated, err := repo.UpdateRole(r.Context(), targetID, role)
		if err != nil {
			if stderrors.Is(err, gorm.ErrRecordNotFound) {
				err = pkgerrors.New(pkgerrors.CodeTargetUserNotFound, "target user not found")
			}
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, users.FromModel(updated))
	}
}
