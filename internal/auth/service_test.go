package auth

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	pkgauth "github.com/mercaterra/storefront-backend/pkg/auth"
	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/config"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
	"github.com/mercaterra/storefront-backend/pkg/logger"
	"github.com/mercaterra/storefront-backend/pkg/security"
)

type stubUserRepo struct {
	byEmail map[string]*models.User

	lastLoginSet bool
}

func (s *stubUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(_ context.Context, _ uuid.UUID, _ time.Time) error {
	s.lastLoginSet = true
	return nil
}

type stubSessionStore struct {
	created   *session.State
	destroyed []string
}

func (s *stubSessionStore) Create(_ context.Context, state *session.State) (string, error) {
	s.created = state
	return "sid-1", nil
}

func (s *stubSessionStore) Destroy(_ context.Context, sessionID string) error {
	s.destroyed = append(s.destroyed, sessionID)
	return nil
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "mercaterra-test", ExpirationMinutes: 30}
}

func testPasswordConfig() config.PasswordConfig {
	return config.PasswordConfig{ArgonMemoryKB: 8192, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 16, ArgonKeyLen: 32}
}

func newTestService(t *testing.T, users *stubUserRepo, sessions *stubSessionStore) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:     users,
		SessionStore: sessions,
		JWT:          testJWTConfig(),
		Logger:       logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard}),
		Now:          func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) },
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func testUser(t *testing.T, email, password string, role enums.Role) *models.User {
	t.Helper()
	hash, err := security.HashPassword(password, testPasswordConfig())
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	return &models.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		IsActive:     true,
	}
}

func TestLoginSuccess(t *testing.T) {
	user := testUser(t, "buyer@example.com", "pa55word!", enums.RoleBuyer)
	users := &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}
	sessions := &stubSessionStore{}
	svc := newTestService(t, users, sessions)

	result, err := svc.Login(context.Background(), "Buyer@Example.com ", "pa55word!")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if result.SessionID != "sid-1" {
		t.Fatalf("unexpected session id %q", result.SessionID)
	}
	if sessions.created == nil || sessions.created.UserID != user.ID {
		t.Fatal("expected session state created for user")
	}
	if !users.lastLoginSet {
		t.Fatal("expected last login recorded")
	}

	claims, err := pkgauth.ParseAccessToken(testJWTConfig(), result.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if claims.ID != "sid-1" {
		t.Fatalf("expected jti to carry the session id, got %q", claims.ID)
	}
	if claims.UserID != user.ID {
		t.Fatalf("unexpected user id in claims")
	}
}

func TestLoginCapturesSellerOriginalRole(t *testing.T) {
	user := testUser(t, "seller@example.com", "pa55word!", enums.RoleSeller)
	sessions := &stubSessionStore{}
	svc := newTestService(t, &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}, sessions)

	if _, err := svc.Login(context.Background(), user.Email, "pa55word!"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sessions.created.OriginalRole != enums.RoleSeller {
		t.Fatalf("expected original role captured, got %q", sessions.created.OriginalRole)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	user := testUser(t, "buyer@example.com", "pa55word!", enums.RoleBuyer)
	svc := newTestService(t, &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}, &stubSessionStore{})

	_, err := svc.Login(context.Background(), user.Email, "not-it")
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestLoginUnknownEmailMatchesWrongPassword(t *testing.T) {
	svc := newTestService(t, &stubUserRepo{}, &stubSessionStore{})

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever")
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
	if got := pkgerrors.As(err); got.Message() != "invalid credentials" {
		t.Fatalf("unknown email must not be distinguishable, got %q", got.Message())
	}
}

func TestLoginDeactivatedAccount(t *testing.T) {
	user := testUser(t, "gone@example.com", "pa55word!", enums.RoleBuyer)
	user.IsActive = false
	svc := newTestService(t, &stubUserRepo{byEmail: map[string]*models.User{user.Email: user}}, &stubSessionStore{})

	_, err := svc.Login(context.Background(), user.Email, "pa55word!")
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	sessions := &stubSessionStore{}
	svc := newTestService(t, &stubUserRepo{}, sessions)

	if err := svc.Logout(context.Background(), "sid-1"); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if len(sessions.destroyed) != 1 || sessions.destroyed[0] != "sid-1" {
		t.Fatal("expected session destroyed")
	}
}
