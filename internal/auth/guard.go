package auth

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/types"
)

// Guard builds per-route role checks
type Guard struct {
	resolver *Resolver
}

// NewGuard creates a guard backed by resolver
func NewGuard(resolver *Resolver) *Guard {
	return &Guard{resolver: resolver}
}

// Require aborts with 401 when there is no session, 403 when the account
// is banned and 403 when its role is not in roles. No roles means any
// authenticated user.
func (g *Guard) Require(roles ...database.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := g.resolver.Resolve(c)
		if err != nil {
			api.RespondWithInternalError(c, "failed to resolve session", err)
			return
		}
		if err := Authorize(id, roles...); err != nil {
			api.RespondWithError(c, err)
			return
		}
		c.Next()
	}
}

// Optional resolves the session when present and never rejects
func (g *Guard) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := g.resolver.Resolve(c); err != nil {
			api.RespondWithInternalError(c, "failed to resolve session", err)
			return
		}
		c.Next()
	}
}

// Authorize checks an identity against a role set
func Authorize(id *Identity, roles ...database.Role) error {
	if id == nil {
		return types.NewUnauthenticatedError()
	}
	if id.Banned {
		return types.NewSuspendedError()
	}
	if !id.HasRole(roles...) {
		return types.NewForbiddenError("")
	}
	return nil
}

// Staff is the role set allowed to edit the catalog
var Staff = []database.Role{database.RoleAdmin, database.RoleModerator}
