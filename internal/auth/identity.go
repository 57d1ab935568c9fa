// Package auth resolves sessions into identities and guards routes by role.
package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/database"
)

const identityKey = "auth.identity"

// Identity is the authenticated caller as stored in the database at
// request time
type Identity struct {
	UserID uint          `json:"id"`
	Email  string        `json:"email"`
	Name   string        `json:"name"`
	Image  string        `json:"image,omitempty"`
	Role   database.Role `json:"role"`
	Banned bool          `json:"banned"`
}

// NewIdentity builds an identity from a user row
func NewIdentity(u *database.User) *Identity {
	return &Identity{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Image:  u.Image,
		Role:   u.Role,
		Banned: u.Banned,
	}
}

// HasRole reports whether the identity holds one of roles. An empty set
// matches every role.
func (i *Identity) HasRole(roles ...database.Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, r := range roles {
		if i.Role == r {
			return true
		}
	}
	return false
}

// IsStaff reports whether the identity can edit the catalog
func (i *Identity) IsStaff() bool {
	return i.HasRole(database.RoleAdmin, database.RoleModerator)
}

// IdentityFrom returns the identity resolved earlier in the chain
func IdentityFrom(c *gin.Context) (*Identity, bool) {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil, false
	}
	id, ok := v.(*Identity)
	return id, ok && id != nil
}

// UserIDFrom returns the caller's user id, or 0 for anonymous requests
func UserIDFrom(c *gin.Context) uint {
	if id, ok := IdentityFrom(c); ok {
		return id.UserID
	}
	return 0
}

// WithIdentity stores id on the context. Used by tests and the resolver.
func WithIdentity(c *gin.Context, id *Identity) {
	c.Set(identityKey, id)
}
