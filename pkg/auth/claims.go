package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/mercaterra/storefront-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID    uuid.UUID
	Role      enums.Role
	SessionID string
}

// AccessTokenClaims is the typed JWT issued to clients. The session id in the
// jti locates the server-side session state; the user id and role are
// advisory hints minted at login. Identity resolution always reads the
// session state, which may have been swapped by impersonation since the token
// was issued.
type AccessTokenClaims struct {
	UserID uuid.UUID  `json:"user_id"`
	Role   enums.Role `json:"role"`
	jwt.RegisteredClaims
}
