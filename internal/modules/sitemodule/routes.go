package sitemodule

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
)

// RegisterRoutes registers the site, suggestion and embed routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	guard := m.auth.Guard
	staff := guard.Require(auth.Staff...)
	apiGroup := router.Group("/api")

	sites := apiGroup.Group("/sites")
	{
		sites.GET("", m.listSites)
		sites.POST("", staff, m.createSite)
		sites.PUT("/:id", staff, m.updateSite)
		sites.DELETE("/:id", staff, m.deleteSite)

		sites.POST("/suggestions", guard.Require(), m.suggestSite)
		sites.GET("/suggestions", staff, m.listSuggestions)
		sites.POST("/suggestions/:id/approve", staff, m.approveSuggestion)
		sites.POST("/suggestions/:id/reject", staff, m.rejectSuggestion)
	}

	embeds := apiGroup.Group("/embeds")
	{
		embeds.GET("", m.listEmbeds)
		embeds.POST("", staff, m.createEmbed)
		embeds.DELETE("/:id", staff, m.deleteEmbed)
		embeds.POST("/import", staff, m.importChannel)
	}

	apiroutes.Register("/api/sites", "GET", "Lists recommended sites.")
	apiroutes.RegisterWithAccess("/api/sites", "POST", "Adds a recommended site.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/sites/:id", "PUT, DELETE", "Edits or removes a recommended site.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/sites/suggestions", "POST", "Suggests a site for review.", "ANY")
	apiroutes.RegisterWithAccess("/api/sites/suggestions", "GET", "Lists site suggestions.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/sites/suggestions/:id/approve", "POST", "Publishes a suggestion as a site.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/sites/suggestions/:id/reject", "POST", "Rejects a suggestion.", "ADMIN, MODERATOR")
	apiroutes.Register("/api/embeds", "GET", "Lists embeddable videos, optionally for one series.")
	apiroutes.RegisterWithAccess("/api/embeds", "POST", "Links an embeddable video.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/embeds/:id", "DELETE", "Removes an embeddable video.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/embeds/import", "POST", "Imports the latest videos of a channel.", "ADMIN, MODERATOR")
}

func (m *Module) listSites(c *gin.Context) {
	sites, err := m.service.ListSites(c.Request.Context(), c.Query("category"))
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sites": sites, "count": len(sites)})
}

func (m *Module) createSite(c *gin.Context) {
	var in SiteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	site, err := m.service.CreateSite(c.Request.Context(), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (m *Module) updateSite(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in SiteInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	site, err := m.service.UpdateSite(c.Request.Context(), id, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, site)
}

func (m *Module) deleteSite(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := m.service.DeleteSite(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) suggestSite(c *gin.Context) {
	var in SuggestionInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	suggestion, err := m.service.Suggest(c.Request.Context(), auth.UserIDFrom(c), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, suggestion)
}

func (m *Module) listSuggestions(c *gin.Context) {
	var f SuggestionFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	page, err := m.service.ListSuggestions(c.Request.Context(), f)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (m *Module) approveSuggestion(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	site, err := m.service.ApproveSuggestion(c.Request.Context(), auth.UserIDFrom(c), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, site)
}

func (m *Module) rejectSuggestion(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	suggestion, err := m.service.RejectSuggestion(c.Request.Context(), auth.UserIDFrom(c), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, suggestion)
}

func (m *Module) listEmbeds(c *gin.Context) {
	var seriesID uint
	if raw := c.Query("seriesId"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || n == 0 {
			api.RespondWithValidationError(c, "invalid seriesId", raw)
			return
		}
		seriesID = uint(n)
	}
	embeds, err := m.service.ListEmbeds(c.Request.Context(), seriesID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"embeds": embeds, "count": len(embeds)})
}

func (m *Module) createEmbed(c *gin.Context) {
	var in EmbedInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	embed, err := m.service.CreateEmbed(c.Request.Context(), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, embed)
}

func (m *Module) deleteEmbed(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := m.service.DeleteEmbed(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) importChannel(c *gin.Context) {
	var in ImportInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	result, err := m.service.ImportChannel(c.Request.Context(), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
