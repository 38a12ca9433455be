package ports

import "github.com/google/uuid"

type AuthClaims struct {
	UserID uuid.UUID
	Email  string
	Role   string
}

// TokenVerifier validates platform-issued session tokens. This service never
// signs tokens; it only checks signatures against the auth service's public
// key.
type TokenVerifier interface {
	Verify(raw string) (AuthClaims, error)
}
