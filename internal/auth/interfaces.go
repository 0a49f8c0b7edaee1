package auth

import (
	"time"

	"github.com/google/uuid"
)

// TokenService issues and verifies access tokens. PasetoService is the
// production implementation.
type TokenService interface {
	CreateToken(userID uuid.UUID, username string, duration time.Duration) (string, error)
	VerifyToken(tokenStr string) (*TokenClaims, error)
}
