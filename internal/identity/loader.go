package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
)

type userFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type sessionWriter interface {
	Save(ctx context.Context, sessionID string, state *session.State) error
	Destroy(ctx context.Context, sessionID string) error
}

// Loader resolves session state into a full identity context. It is the gate
// every authenticated route passes before tenancy resolution runs.
type Loader struct {
	users    userFinder
	sessions sessionWriter
}

// LoaderParams bundles the Loader's dependencies.
type LoaderParams struct {
	UserRepo     userFinder
	SessionStore sessionWriter
}

// NewLoader constructs the identity loader.
func NewLoader(params LoaderParams) (*Loader, error) {
	if params.UserRepo == nil {
		return nil, errors.New("user repository required")
	}
	if params.SessionStore == nil {
		return nil, errors.New("session store required")
	}
	return &Loader{users: params.UserRepo, sessions: params.SessionStore}, nil
}

// Load resolves the session's user id to a full user record and builds the
// per-request identity context.
//
// A session pointing at a user that no longer exists is destroyed before the
// request is rejected, so a dangling session cannot keep resurfacing. The
// first time a seller authenticates, the durable role is captured into the
// session state so later per-request downgrades stay reversible.
func (l *Loader) Load(ctx context.Context, sessionID string, state *session.State) (*Identity, error) {
	if !state.IsAuthenticated() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "not authenticated")
	}

	user, err := l.users.FindByID(ctx, state.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Stale session: the user behind it is gone.
			if destroyErr := l.sessions.Destroy(ctx, sessionID); destroyErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, destroyErr, "destroy stale session")
			}
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}

	if state.CaptureOriginalRole(user.Role) {
		if err := l.sessions.Save(ctx, sessionID, state); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist session state")
		}
	}

	return &Identity{
		User:            user,
		SessionID:       sessionID,
		OriginalRole:    state.OriginalRole,
		IsImpersonating: state.IsImpersonating(),
		OriginalUserID:  state.OriginalUserID,
	}, nil
}
