package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/collabmarket/settlement-hub/internal/domain/apperr"
)

// Role represents a marketplace role.
type Role string

const (
	RoleBrand      Role = "brand"
	RoleInfluencer Role = "influencer"
	RoleAdmin      Role = "admin"
)

// ParseRole normalizes a role claim.
func ParseRole(raw string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case RoleBrand:
		return RoleBrand, true
	case RoleInfluencer:
		return RoleInfluencer, true
	case RoleAdmin:
		return RoleAdmin, true
	}
	return "", false
}

// User is a read-only view of the user directory.
type User struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Role            Role      `json:"role"`
	StripeAccountID string    `json:"stripeAccountId,omitempty"`
}

// DisplayName falls back to the id when no name is known.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.ID.String()
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

func (a Actor) Is(role Role) bool {
	return a.Role == role
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Require returns ErrForbidden unless the actor has one of the given roles.
func (a Actor) Require(roles ...Role) error {
	if a.UserID == uuid.Nil {
		return apperr.ErrUnauthorized
	}
	for _, r := range roles {
		if a.Role == r {
			return nil
		}
	}
	return fmt.Errorf("%w: role %q not allowed", apperr.ErrForbidden, a.Role)
}

func (a Actor) String() string {
	return string(a.Role) + ":" + a.UserID.String()
}

// Directory is the external user directory.
type Directory interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
}
