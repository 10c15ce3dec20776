// Package auth issues and verifies the signed tokens guarding user and
// admin surfaces, and wraps password hashing.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes.
const (
	UserTokenTTL  = 30 * 24 * time.Hour
	AdminTokenTTL = 12 * time.Hour
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("auth: invalid token")

// UserClaims identifies a registered account.
type UserClaims struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// AdminClaims identifies the admin console session.
type AdminClaims struct {
	Role     string `json:"role"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Tokens signs and verifies the two token scopes with separate secrets.
type Tokens struct {
	userSecret  []byte
	adminSecret []byte
	now         func() time.Time
}

// NewTokens constructs the token helper.
func NewTokens(userSecret, adminSecret string) *Tokens {
	return &Tokens{
		userSecret:  []byte(userSecret),
		adminSecret: []byte(adminSecret),
		now:         time.Now,
	}
}

// IssueUser signs a 30-day user token.
func (t *Tokens) IssueUser(id, email string) (string, error) {
	now := t.now()
	claims := UserClaims{
		ID:    id,
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(UserTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.userSecret)
	if err != nil {
		return "", fmt.Errorf("sign user token: %w", err)
	}
	return signed, nil
}

// VerifyUser parses and validates a user token.
func (t *Tokens) VerifyUser(tokenString string) (UserClaims, error) {
	var claims UserClaims
	if err := t.verify(tokenString, &claims, t.userSecret); err != nil {
		return UserClaims{}, err
	}
	return claims, nil
}

// IssueAdmin signs a 12-hour admin token.
func (t *Tokens) IssueAdmin(username string) (string, error) {
	now := t.now()
	claims := AdminClaims{
		Role:     "admin",
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(AdminTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.adminSecret)
	if err != nil {
		return "", fmt.Errorf("sign admin token: %w", err)
	}
	return signed, nil
}

// VerifyAdmin parses and validates an admin token.
func (t *Tokens) VerifyAdmin(tokenString string) (AdminClaims, error) {
	var claims AdminClaims
	if err := t.verify(tokenString, &claims, t.adminSecret); err != nil {
		return AdminClaims{}, err
	}
	if claims.Role != "admin" {
		return AdminClaims{}, ErrInvalidToken
	}
	return claims, nil
}

func (t *Tokens) verify(tokenString string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
