package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Service bundles the session pieces other modules need
type Service struct {
	JWT      *JWTManager
	Resolver *Resolver
	Guard    *Guard

	secureCookie bool
}

// NewService wires a JWT manager, resolver and guard together
func NewService(db *gorm.DB, jwt *JWTManager, cookieName string, secureCookie bool) *Service {
	resolver := NewResolver(db, jwt, cookieName)
	return &Service{
		JWT:          jwt,
		Resolver:     resolver,
		Guard:        NewGuard(resolver),
		secureCookie: secureCookie,
	}
}

// SetSessionCookie writes the session token as an HTTP-only cookie
func (s *Service) SetSessionCookie(c *gin.Context, token string, expires time.Time) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := int(time.Until(expires).Seconds())
	c.SetCookie(s.Resolver.CookieName(), token, maxAge, "/", "", s.secureCookie, true)
}

// ClearSessionCookie expires the session cookie
func (s *Service) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(s.Resolver.CookieName(), "", -1, "/", "", s.secureCookie, true)
}
