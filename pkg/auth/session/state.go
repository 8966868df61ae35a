package session

import (
	"github.com/google/uuid"

	"github.com/mercaterra/storefront-backend/pkg/enums"
)

// State is the server-side session record. It is the only mutable state the
// identity and tenancy layers share; each request loads it, mutates its own
// copy, and persists it back explicitly.
type State struct {
	// UserID is the current authenticated identity. It is swapped to the
	// target while impersonating.
	UserID uuid.UUID `json:"user_id"`

	// OriginalRole remembers a seller's durable role, captured once the first
	// time the session authenticates as a seller and never overwritten for
	// the rest of the session's lifetime. It lets a transient per-request
	// downgrade to buyer be reversed on the seller's own domain.
	OriginalRole enums.Role `json:"original_role,omitempty"`

	// OriginalUserID and ImpersonatedUserID are impersonation bookkeeping.
	// Both are nil-valued unless an admin identity switch is active. They are
	// deliberately independent of OriginalRole.
	OriginalUserID     uuid.UUID `json:"original_user_id,omitempty"`
	ImpersonatedUserID uuid.UUID `json:"impersonated_user_id,omitempty"`
}

// IsAuthenticated reports whether the session carries an identity.
func (s *State) IsAuthenticated() bool {
	return s != nil && s.UserID != uuid.Nil
}

// IsImpersonating reports whether an admin identity switch is active.
func (s *State) IsImpersonating() bool {
	return s != nil && s.OriginalUserID != uuid.Nil && s.ImpersonatedUserID != uuid.Nil
}

// CaptureOriginalRole records the durable role the first time a seller
// authenticates. The capture is idempotent: once set it never changes, so
// racing requests from the same browser session are harmless. Returns true
// when the state was mutated and needs persisting.
func (s *State) CaptureOriginalRole(role enums.Role) bool {
	if s == nil || role != enums.RoleSeller {
		return false
	}
	if s.OriginalRole != "" {
		return false
	}
	s.OriginalRole = enums.RoleSeller
	return true
}
