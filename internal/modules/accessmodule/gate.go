package accessmodule

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/config"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// Access-log actions
const (
	ActionPageView = "page_view"
	ActionAPI      = "api"
)

// Gate is the global middleware that blocks banned addresses and
// accounts, enforces role access to admin areas and records an access log
// for everything it lets through.
type Gate struct {
	db       *gorm.DB
	resolver *auth.Resolver
	recorder *Recorder
	cfg      func() config.GateConfig
}

// NewGate creates a gate. cfg is read on every request so prefix changes
// apply on config reload.
func NewGate(db *gorm.DB, resolver *auth.Resolver, recorder *Recorder, cfg func() config.GateConfig) *Gate {
	return &Gate{db: db, resolver: resolver, recorder: recorder, cfg: cfg}
}

// Handler returns the gin middleware
func (g *Gate) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		cfg := g.cfg()
		path := c.Request.URL.Path
		if matchesAny(path, cfg.SkipPrefixes) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		userAgent := c.Request.UserAgent()

		blocked, err := g.isBlocked(c, ip)
		if err != nil {
			api.RespondWithInternalError(c, "failed to check address", err)
			return
		}
		if blocked {
			metrics.GateRejections.WithLabelValues("ip_blocked").Inc()
			logger.Warn("blocked request from banned address", "ip", ip, "path", path)
			api.RespondWithError(c, types.NewIPBlockedError())
			return
		}

		id, err := g.resolver.Resolve(c)
		if err != nil {
			api.RespondWithInternalError(c, "failed to resolve session", err)
			return
		}

		if id != nil && id.Banned {
			metrics.GateRejections.WithLabelValues("suspended").Inc()
			api.RespondWithError(c, types.NewSuspendedError())
			return
		}

		if matchesAny(path, cfg.AdminPrefixes) {
			roles := []database.Role{database.RoleAdmin}
			if matchesAny(path, cfg.EditorPrefixes) {
				roles = auth.Staff
			}
			if id == nil {
				metrics.GateRejections.WithLabelValues("unauthenticated").Inc()
				api.RespondWithError(c, types.NewUnauthenticatedError())
				return
			}
			if !id.HasRole(roles...) {
				metrics.GateRejections.WithLabelValues("forbidden").Inc()
				api.RespondWithError(c, types.NewForbiddenError(""))
				return
			}
		}

		entry := database.AccessLog{
			IP:        ip,
			UserAgent: truncate(userAgent, 512),
			Method:    c.Request.Method,
			Path:      truncate(path, 2048),
			Action:    actionFor(path),
		}
		if id != nil {
			userID := id.UserID
			entry.UserID = &userID
		}
		g.recorder.Record(entry)

		c.Next()
	}
}

func (g *Gate) isBlocked(c *gin.Context, ip string) (bool, error) {
	var count int64
	err := g.db.WithContext(c.Request.Context()).
		Model(&database.BannedIP{}).
		Where("ip = ?", ip).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func actionFor(path string) string {
	if hasPathPrefix(path, "/api") {
		return ActionAPI
	}
	return ActionPageView
}

// hasPathPrefix matches whole path segments so /admin does not match
// /administer
func hasPathPrefix(path, prefix string) bool {
	prefix = strings.TrimSuffix(prefix, "/")
	if prefix == "" {
		return true
	}
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func matchesAny(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if hasPathPrefix(path, p) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
