// Package auth verifies staff credentials. Only the verification
// contract is exposed; callers never see claim internals beyond the
// resolved subject.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the verified subject of an admin credential.
type Identity struct {
	Subject string
	Email   string
}

// TokenVerifier checks an admin credential and resolves its subject.
type TokenVerifier interface {
	Verify(token string) (Identity, error)
}

// JWTVerifier validates HMAC-signed admin tokens.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier constructs a verifier over a shared secret.
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses and validates the token, returning its subject claims.
// Any parse, signature or expiry failure maps to ErrInvalidToken.
func (v *JWTVerifier) Verify(tokenString string) (Identity, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	subject, _ := claims.GetSubject()
	email, _ := claims["email"].(string)
	return Identity{Subject: subject, Email: email}, nil
}
