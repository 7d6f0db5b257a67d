// Package auth verifies bearer tokens minted by the external identity
// provider. The scheduler only consumes the already-authenticated actor id
// and role; issuing tokens, passwords and OTP flows all live elsewhere.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RoleOfficer Role = "officer"
	RoleCitizen Role = "citizen"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidRole  = errors.New("invalid role claim")
)

// Claims is the verified identity attached to a request.
type Claims struct {
	ActorID uuid.UUID
	Role    Role
}

type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Verifier checks HS256 tokens against the shared secret.
type Verifier struct {
	secret []byte
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: []byte(secret)}
}

// Verify parses and validates the token, returning the actor id (subject)
// and role.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	var tc tokenClaims

	token, err := jwt.ParseWithClaims(tokenString, &tc, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	actorID, err := uuid.Parse(tc.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a uuid", ErrInvalidToken)
	}

	role := Role(tc.Role)
	if role != RoleOfficer && role != RoleCitizen {
		return nil, ErrInvalidRole
	}

	return &Claims{ActorID: actorID, Role: role}, nil
}
