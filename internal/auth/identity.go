// Package auth provides the JWT-backed user context consumed by the
// lifecycle controller. Issuing tokens is the identity provider's job;
// this layer only validates and reads them.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/recordbase/recordbase/internal/domain"
)

// Roles that carry design rights.
const (
	RoleAdmin    = "admin"
	RoleDesigner = "designer"
	RoleViewer   = "viewer"
)

// ErrInvalidToken is returned when a JWT cannot be parsed or has expired.
var ErrInvalidToken = errors.New("auth: invalid or expired token")

// Claims holds the JWT token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"uid"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// Identity is an authenticated actor. The zero value is unauthenticated and
// denies everything; it satisfies domain.UserContext.
type Identity struct {
	id            uuid.UUID
	name          string
	role          string
	authenticated bool
}

// NewIdentity builds an authenticated identity directly, for callers that
// authenticate by other means (tests, embedded use).
func NewIdentity(id uuid.UUID, name, role string) Identity {
	return Identity{id: id, name: name, role: role, authenticated: true}
}

func (i Identity) IsAuthenticated() bool { return i.authenticated }
func (i Identity) UserID() uuid.UUID     { return i.id }
func (i Identity) UserName() string      { return i.name }

// CanDesign reports whether the actor holds the design right: the only
// capability that authorizes mutations through the lifecycle controller.
func (i Identity) CanDesign() bool {
	if !i.authenticated {
		return false
	}
	return i.role == RoleAdmin || i.role == RoleDesigner
}

// Role returns the actor's role name.
func (i Identity) Role() string { return i.role }

// FromToken validates a bearer token and returns the identity it names.
func FromToken(secret, tokenString string) (Identity, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(_ *jwt.Token) (any, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return Identity{}, fmt.Errorf("auth.FromToken: %w", ErrInvalidToken)
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, fmt.Errorf("auth.FromToken: %w", ErrInvalidToken)
	}

	return NewIdentity(userID, claims.Name, claims.Role), nil
}

var _ domain.UserContext = Identity{}
