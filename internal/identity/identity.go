package identity

import (
	"github.com/google/uuid"

	"github.com/mercaterra/storefront-backend/pkg/db/models"
	"github.com/mercaterra/storefront-backend/pkg/enums"
)

// Identity is the per-request identity context produced by the Loader. It is
// built fresh for every request and never persisted.
type Identity struct {
	User            *models.User
	SessionID       string
	OriginalRole    enums.Role
	IsImpersonating bool
	OriginalUserID  uuid.UUID
}

// Role returns the durable stored role of the loaded user.
func (i *Identity) Role() enums.Role {
	if i == nil || i.User == nil {
		return ""
	}
	return i.User.Role
}

// IsSeller reports whether the caller is a seller, either by current stored
// role or by the session's remembered original role. The remembered role is
// what lets a transiently downgraded seller be restored on their own domain.
func (i *Identity) IsSeller() bool {
	if i == nil {
		return false
	}
	return i.Role() == enums.RoleSeller || i.OriginalRole == enums.RoleSeller
}
