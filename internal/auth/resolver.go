package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"gorm.io/gorm"
)

const resolvedKey = "auth.resolved"

// Resolver turns a request's session token into an Identity
type Resolver struct {
	db         *gorm.DB
	jwt        *JWTManager
	cookieName string
}

// NewResolver creates a resolver reading tokens from the Authorization
// header or the named cookie
func NewResolver(db *gorm.DB, jwt *JWTManager, cookieName string) *Resolver {
	return &Resolver{db: db, jwt: jwt, cookieName: cookieName}
}

// Resolve returns the caller's identity, or nil when the request carries no
// valid session. The user row is reloaded on every request so role changes
// and bans apply immediately. The result is cached on the gin context.
func (r *Resolver) Resolve(c *gin.Context) (*Identity, error) {
	if _, done := c.Get(resolvedKey); done {
		id, _ := IdentityFrom(c)
		return id, nil
	}

	id, err := r.resolve(c)
	if err != nil {
		return nil, err
	}
	c.Set(resolvedKey, true)
	if id != nil {
		WithIdentity(c, id)
	}
	return id, nil
}

func (r *Resolver) resolve(c *gin.Context) (*Identity, error) {
	token := r.tokenFromRequest(c)
	if token == "" {
		return nil, nil
	}

	claims, err := r.jwt.ValidateToken(token)
	if err != nil {
		logger.Debug("rejected session token", "error", err, "ip", c.ClientIP())
		return nil, nil
	}
	userID, err := claims.UserID()
	if err != nil {
		return nil, nil
	}

	var user database.User
	err = r.db.WithContext(c.Request.Context()).First(&user, userID).Error
	if database.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return NewIdentity(&user), nil
}

func (r *Resolver) tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if token, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if r.cookieName != "" {
		if cookie, err := c.Cookie(r.cookieName); err == nil {
			return cookie
		}
	}
	return ""
}

// CookieName is the session cookie the resolver reads
func (r *Resolver) CookieName() string {
	return r.cookieName
}
