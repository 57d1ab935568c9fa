package accessmodule

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/types"
)

type banIPRequest struct {
	IP     string `json:"ip" binding:"required"`
	Reason string `json:"reason" binding:"max=500"`
}

// RegisterRoutes registers the block-list and access-log routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	admin := router.Group("/api/admin", m.auth.Guard.Require(database.RoleAdmin))
	{
		admin.GET("/banned-ips", m.listBannedIPs)
		admin.POST("/banned-ips", m.banIP)
		admin.DELETE("/banned-ips/:id", m.unbanIP)

		admin.GET("/logs", m.listLogs)
		admin.DELETE("/logs", m.pruneLogs)
	}

	apiroutes.RegisterWithAccess("/api/admin/banned-ips", "GET, POST", "Lists or adds blocked addresses.", "ADMIN")
	apiroutes.RegisterWithAccess("/api/admin/banned-ips/:id", "DELETE", "Removes a blocked address.", "ADMIN")
	apiroutes.RegisterWithAccess("/api/admin/logs", "GET", "Lists access logs with filters and paging.", "ADMIN")
	apiroutes.RegisterWithAccess("/api/admin/logs?before=", "DELETE", "Deletes access logs older than an RFC 3339 timestamp.", "ADMIN")
}

func (m *Module) listBannedIPs(c *gin.Context) {
	bans, err := m.service.ListBannedIPs(c.Request.Context())
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bannedIps": bans, "count": len(bans)})
}

func (m *Module) banIP(c *gin.Context) {
	var req banIPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindError(c, err)
		return
	}

	ban, err := m.service.BanIP(c.Request.Context(), req.IP, req.Reason, auth.UserIDFrom(c), c.ClientIP())
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ban)
}

func (m *Module) unbanIP(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := m.service.UnbanIP(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) listLogs(c *gin.Context) {
	var f LogFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	page, err := m.service.ListLogs(c.Request.Context(), f)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (m *Module) pruneLogs(c *gin.Context) {
	raw := c.Query("before")
	if raw == "" {
		api.RespondWithValidationError(c, "before is required", "expected an RFC 3339 timestamp")
		return
	}
	before, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		api.RespondWithError(c, types.NewValidationError("invalid before timestamp", err.Error()))
		return
	}

	deleted, err := m.service.PruneLogs(c.Request.Context(), before)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted})
}
