package impersonation

import (
	"context"
	stderrors "errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
)

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionSaver interface {
	Save(ctx context.Context, sessionID string, state *session.State) error
}

// Service drives the admin identity switch: Normal -> Impersonating on
// Start, Impersonating -> Normal on Exit. The two transitions are the only
// writers of the session's impersonation fields.
//
// Impersonation is a full identity switch and deliberately independent of
// the session's remembered seller role. An admin impersonating a seller goes
// through tenant reconciliation exactly as that seller would.
type Service struct {
	users    userFinder
	sessions sessionSaver
}

// ServiceParams bundles the Service's dependencies.
type ServiceParams struct {
	UserRepo     userFinder
	SessionStore sessionSaver
}

// NewService constructs the impersonation service.
func NewService(params ServiceParams) (*Service, error) {
	if params.UserRepo == nil {
		return nil, stderrors.New("user repository required")
	}
	if params.SessionStore == nil {
		return nil, stderrors.New("session store required")
	}
	return &Service{users: params.UserRepo, sessions: params.SessionStore}, nil
}

// Start switches the session's identity to the target user while holding on
// to the acting admin's id. All checks pass before anything is mutated, so a
// failed start leaves the session untouched.
func (s *Service) Start(ctx context.Context, sessionID string, state *session.State, actor *models.User, targetID uuid.UUID) (*models.User, error) {
	if actor == nil || !actor.Role.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "admin access required")
	}

	target, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeTargetUserNotFound, "target user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load target user")
	}

	state.OriginalUserID = actor.ID
	state.ImpersonatedUserID = target.ID
	state.UserID = target.ID
	if err := s.sessions.Save(ctx, sessionID, state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session state")
	}
	return target, nil
}

// Exit restores the original admin identity. The restored account is
// re-verified first: exiting to an account that was deleted or deactivated
// mid-impersonation is refused rather than silently restored.
func (s *Service) Exit(ctx context.Context, sessionID string, state *session.State) (*models.User, error) {
	if !state.IsImpersonating() {
		return nil, pkgerrors.New(pkgerrors.CodeNoActiveImpersonation, "no active impersonation")
	}

	original, err := s.users.FindByID(ctx, state.OriginalUserID)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "original account no longer exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load original user")
	}
	if !original.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "original account is deactivated")
	}

	state.UserID = original.ID
	state.OriginalUserID = uuid.Nil
	state.ImpersonatedUserID = uuid.Nil
	if err := s.sessions.Save(ctx, sessionID, state); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session state")
	}
	return original, nil
}
