package auth

import (
	"errors"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bookora/internal/domain"
	"bookora/internal/domain/models"
)

const issuer = "bookora"

// HMACAuthority issues and verifies HS256 session tokens with a shared secret
type HMACAuthority struct {
	secret []byte
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewHMACAuthority creates an issuer/verifier pair over secret
func NewHMACAuthority(secret string, ttl time.Duration, logger *slog.Logger) (*HMACAuthority, error) {
	if secret == "" {
		return nil, errors.New("auth secret cannot be empty")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HMACAuthority{secret: []byte(secret), ttl: ttl, logger: logger, now: time.Now}, nil
}

// Issue signs a token whose subject is the user's email
func (a *HMACAuthority) Issue(email, username string, admin bool) (string, error) {
	now := a.now()
	claims := models.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(a.ttl)),
		},
		Username: username,
		Admin:    admin,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// VerifyToken validates an HS256 token. Other algorithms are rejected to
// prevent algorithm confusion.
func (a *HMACAuthority) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.SessionClaims{}, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil || !token.Valid {
		a.logger.Debug("session token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.SessionClaims)
	if !ok || claims.Subject == "" {
		return nil, domain.ErrUnauthorized
	}
	return claims, nil
}

func (a *HMACAuthority) Close() error { return nil }

// ChainVerifier tries each verifier in order and accepts the first success
type ChainVerifier []JWTVerifier

func (c ChainVerifier) VerifyToken(tokenString string) (*models.SessionClaims, error) {
	for _, v := range c {
		if claims, err := v.VerifyToken(tokenString); err == nil {
			return claims, nil
		}
	}
	return nil, domain.ErrUnauthorized
}

func (c ChainVerifier) Close() error {
	var errs []error
	for _, v := range c {
		errs = append(errs, v.Close())
	}
	return errors.Join(errs...)
}
