package models

import "github.com/golang-jwt/jwt/v5"

// SessionClaims is the JWT claims structure issued at login.
// The subject is the user's email.
type SessionClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username"`
	Admin    bool   `json:"admin,omitempty"`
}

// GetUserID returns the user email from the subject claim
func (c *SessionClaims) GetUserID() string {
	return c.Subject
}
