package auth

import (
	"context"
	stderrors "errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgauth "github.com/mercaterra/storefront-backend/pkg/auth"
	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/config"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	"github.com/mercaterra/storefront-backend/pkg/security"
)

type userRepo interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type sessionStore interface {
	Create(ctx context.Context, state *session.State) (string, error)
	Destroy(ctx context.Context, sessionID string) error
}

// Service handles credential verification and session lifecycle.
type Service struct {
	users    userRepo
	sessions sessionStore
	jwt      config.JWTConfig
	log      *logger.Logger
	now      func() time.Time
}

// ServiceParams bundles the Service's dependencies.
type ServiceParams struct {
	UserRepo     userRepo
	SessionStore sessionStore
	JWT          config.JWTConfig
	Logger       *logger.Logger
	Now          func() time.Time
}

// NewService constructs the auth service.
func NewService(params ServiceParams) (*Service, error) {
	if params.UserRepo == nil {
		return nil, stderrors.New("user repository required")
	}
	if params.SessionStore == nil {
		return nil, stderrors.New("session store required")
	}
	if params.Logger == nil {
		return nil, stderrors.New("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		users:    params.UserRepo,
		sessions: params.SessionStore,
		jwt:      params.JWT,
		log:      params.Logger,
		now:      now,
	}, nil
}

// LoginResult is what a successful login hands back to the controller.
type LoginResult struct {
	Token     string
	SessionID string
	User      *models.User
}

// Login verifies credentials, creates the server-side session state, and
// mints an access token whose jti points at that state. Bad email and bad
// password produce the same error so the response does not leak which part
// was wrong.
func (s *Service) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if stderrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user by email")
	}

	ok, err := security.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid credentials")
	}
	if !user.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "account is deactivated")
	}

	state := &session.State{UserID: user.ID}
	state.CaptureOriginalRole(user.Role)

	sessionID, err := s.sessions.Create(ctx, state)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}

	token, err := pkgauth.MintAccessToken(s.jwt, s.now(), pkgauth.AccessTokenPayload{
		UserID:    user.ID,
		Role:      user.Role,
		SessionID: sessionID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, s.now()); err != nil {
		// Login stands even if the timestamp write fails.
		s.log.Error(ctx, "update last login", err)
	}

	return &LoginResult{Token: token, SessionID: sessionID, User: user}, nil
}

// Logout destroys the server-side session state. The access token keeps its
// signature but its jti no longer resolves, so it is dead from here on.
func (s *Service) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Destroy(ctx, sessionID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "destroy session")
	}
	return nil
}
