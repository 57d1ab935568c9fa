package featuremodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/types"
)

// RegisterRoutes registers the feature request routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	guard := m.auth.Guard
	signedIn := guard.Require()

	features := router.Group("/api/feature-requests")
	{
		features.GET("", guard.Optional(), m.list)
		features.POST("", signedIn, m.create)
		features.GET("/:id", guard.Optional(), m.get)
		features.PATCH("/:id", guard.Require(database.RoleAdmin), m.update)
		features.DELETE("/:id", signedIn, m.delete)
		features.POST("/:id/vote", signedIn, m.vote)
	}

	apiroutes.Register("/api/feature-requests", "GET", "Lists feature requests with vote counts.")
	apiroutes.RegisterWithAccess("/api/feature-requests", "POST", "Files a feature request or bug report.", "ANY")
	apiroutes.Register("/api/feature-requests/:id", "GET", "Returns a feature request.")
	apiroutes.RegisterWithAccess("/api/feature-requests/:id", "PATCH", "Changes status or priority.", "ADMIN")
	apiroutes.RegisterWithAccess("/api/feature-requests/:id", "DELETE", "Deletes a request. Authors may withdraw pending ones.", "ANY")
	apiroutes.RegisterWithAccess("/api/feature-requests/:id/vote", "POST", "Toggles the caller's vote.", "ANY")
}

func (m *Module) list(c *gin.Context) {
	var f Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	page, err := m.service.List(c.Request.Context(), auth.UserIDFrom(c), f)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (m *Module) get(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	fr, err := m.service.Get(c.Request.Context(), auth.UserIDFrom(c), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fr)
}

func (m *Module) create(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	fr, err := m.service.Create(c.Request.Context(), auth.UserIDFrom(c), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fr)
}

func (m *Module) update(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in UpdateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	fr, err := m.service.Update(c.Request.Context(), id, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, fr)
}

func (m *Module) delete(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	caller, found := auth.IdentityFrom(c)
	if !found {
		api.RespondWithError(c, types.NewUnauthenticatedError())
		return
	}
	if err := m.service.Delete(c.Request.Context(), caller, id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) vote(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	result, err := m.service.ToggleVote(c.Request.Context(), auth.UserIDFrom(c), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
