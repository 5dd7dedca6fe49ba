// Package auth reads the already-authenticated actor out of bearer tokens
// minted by the identity provider in front of the engine.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/gosuda/crvs/internal/domain"
)

// Claims holds the JWT token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Role   string `json:"role"`
}

const issuer = "crvs"

// ErrInvalidToken is returned when a JWT cannot be parsed, has expired or
// names an actor the engine does not know.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// IssueToken creates a signed token for actor. Used by operators and tests;
// production tokens come from the identity provider with the same claims.
func IssueToken(secret string, actor domain.Actor, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
		UserID: actor.ID.String(),
		Role:   string(actor.Role),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("auth.IssueToken: %w", err)
	}

	return signed, nil
}

// ValidateToken parses and validates a JWT token string. Returns the embedded claims.
func ValidateToken(secret, tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	if !token.Valid {
		return nil, fmt.Errorf("auth.ValidateToken: %w", ErrInvalidToken)
	}

	return claims, nil
}

// ActorFromToken validates the token and returns the actor it names. Roles
// outside the capability table are rejected.
func ActorFromToken(secret, tokenString string) (domain.Actor, error) {
	claims, err := ValidateToken(secret, tokenString)
	if err != nil {
		return domain.Actor{}, err
	}

	id, err := uuid.Parse(claims.UserID)
	if err != nil || id == uuid.Nil {
		return domain.Actor{}, fmt.Errorf("auth.ActorFromToken: uid: %w", ErrInvalidToken)
	}

	role := domain.Role(claims.Role)
	if _, ok := domain.RoleCapabilities[role]; !ok {
		return domain.Actor{}, fmt.Errorf("auth.ActorFromToken: role %q: %w", claims.Role, ErrInvalidToken)
	}

	return domain.Actor{ID: id, Role: role}, nil
}
