package impersonation

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaterra/storefront-backend/pkg/auth/session"
	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercaterra/storefront-backend/pkg/errors"
)

type stubUserFinder struct {
	users map[uuid.UUID]*models.User
}

func (s *stubUserFinder) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	if user, ok := s.users[id]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessionSaver struct {
	saves int
}

func (s *stubSessionSaver) Save(_ context.Context, _ string, _ *session.State) error {
	s.saves++
	return nil
}

func newTestService(t *testing.T, users map[uuid.UUID]*models.User) (*Service, *stubSessionSaver) {
	t.Helper()
	sessions := &stubSessionSaver{}
	svc, err := NewService(ServiceParams{
		UserRepo:     &stubUserFinder{users: users},
		SessionStore: sessions,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc, sessions
}

func TestStartRequiresAdmin(t *testing.T) {
	svc, sessions := newTestService(t, nil)
	actor := &models.User{ID: uuid.New(), Role: enums.RoleSeller}
	state := &session.State{UserID: actor.ID}

	_, err := svc.Start(context.Background(), "sid", state, actor, uuid.New())
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if state.IsImpersonating() || sessions.saves != 0 {
		t.Fatal("failed start must not mutate the session")
	}
}

func TestStartUnknownTarget(t *testing.T) {
	svc, sessions := newTestService(t, nil)
	actor := &models.User{ID: uuid.New(), Role: enums.RoleAdmin}
	state := &session.State{UserID: actor.ID}

	_, err := svc.Start(context.Background(), "sid", state, actor, uuid.New())
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeTargetUserNotFound {
		t.Fatalf("expected target-user-not-found, got %v", err)
	}
	if state.IsImpersonating() || sessions.saves != 0 {
		t.Fatal("failed start must not mutate the session")
	}
}

func TestStartSwitchesIdentity(t *testing.T) {
	actor := &models.User{ID: uuid.New(), Role: enums.RoleAdmin, IsActive: true}
	target := &models.User{ID: uuid.New(), Role: enums.RoleSeller, IsActive: true}
	svc, sessions := newTestService(t, map[uuid.UUID]*models.User{target.ID: target})
	state := &session.State{UserID: actor.ID}

	got, err := svc.Start(context.Background(), "sid", state, actor, target.ID)
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got.ID != target.ID {
		t.Fatal("expected target returned")
	}
	if state.UserID != target.ID {
		t.Fatal("expected session identity switched to target")
	}
	if state.OriginalUserID != actor.ID || state.ImpersonatedUserID != target.ID {
		t.Fatal("expected impersonation bookkeeping set")
	}
	if sessions.saves != 1 {
		t.Fatalf("expected one save, got %d", sessions.saves)
	}
}

func TestExitWithoutActiveImpersonation(t *testing.T) {
	svc, _ := newTestService(t, nil)
	state := &session.State{UserID: uuid.New()}

	_, err := svc.Exit(context.Background(), "sid", state)
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeNoActiveImpersonation {
		t.Fatalf("expected no-active-impersonation, got %v", err)
	}
}

func TestExitReverifiesOriginalAccount(t *testing.T) {
	actor := &models.User{ID: uuid.New(), Role: enums.RoleAdmin, IsActive: false}
	target := &models.User{ID: uuid.New(), Role: enums.RoleSeller, IsActive: true}
	svc, _ := newTestService(t, map[uuid.UUID]*models.User{actor.ID: actor, target.ID: target})
	state := &session.State{
		UserID:             target.ID,
		OriginalUserID:     actor.ID,
		ImpersonatedUserID: target.ID,
	}

	_, err := svc.Exit(context.Background(), "sid", state)
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for deactivated original, got %v", err)
	}
	if state.UserID != target.ID {
		t.Fatal("refused exit must not restore identity")
	}
}

func TestExitMissingOriginalAccount(t *testing.T) {
	target := &models.User{ID: uuid.New(), Role: enums.RoleSeller, IsActive: true}
	svc, _ := newTestService(t, map[uuid.UUID]*models.User{target.ID: target})
	state := &session.State{
		UserID:             target.ID,
		OriginalUserID:     uuid.New(),
		ImpersonatedUserID: target.ID,
	}

	_, err := svc.Exit(context.Background(), "sid", state)
	if got := pkgerrors.As(err); got == nil || got.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected forbidden for missing original, got %v", err)
	}
}

func TestStartThenExitRoundTrip(t *testing.T) {
	actor := &models.User{ID: uuid.New(), Role: enums.RoleAdmin, IsActive: true}
	target := &models.User{ID: uuid.New(), Role: enums.RoleSeller, IsActive: true}
	svc, sessions := newTestService(t, map[uuid.UUID]*models.User{actor.ID: actor, target.ID: target})
	state := &session.State{UserID: actor.ID}

	if _, err := svc.Start(context.Background(), "sid", state, actor, target.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	restored, err := svc.Exit(context.Background(), "sid", state)
	if err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if restored.ID != actor.ID {
		t.Fatal("expected original admin returned")
	}
	if state.UserID != actor.ID {
		t.Fatal("expected identity restored")
	}
	if state.IsImpersonating() {
		t.Fatal("expected impersonation fields cleared")
	}
	if sessions.saves != 2 {
		t.Fatalf("expected two saves, got %d", sessions.saves)
	}
}

func TestImpersonationLeavesOriginalRoleAlone(t *testing.T) {
	actor := &models.User{ID: uuid.New(), Role: enums.RoleAdmin, IsActive: true}
	target := &models.User{ID: uuid.New(), Role: enums.RoleSeller, IsActive: true}
	svc, _ := newTestService(t, map[uuid.UUID]*models.User{actor.ID: actor, target.ID: target})
	state := &session.State{UserID: actor.ID, OriginalRole: enums.RoleSeller}

	if _, err := svc.Start(context.Background(), "sid", state, actor, target.ID); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := svc.Exit(context.Background(), "sid", state); err != nil {
		t.Fatalf("Exit: %v", err)
	}
	if state.OriginalRole != enums.RoleSeller {
		t.Fatal("impersonation must not touch the remembered seller role")
	}
}
