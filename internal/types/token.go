package types

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims represents the claims in a JWT token
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
	IsAdmin  bool      `json:"is_admin"`
}

// Actor converts validated claims into the acting user.
func (c *TokenClaims) Actor() Actor {
	return Actor{UserID: c.UserID, Username: c.Username, IsAdmin: c.IsAdmin}
}
