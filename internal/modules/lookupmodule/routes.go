package lookupmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
)

// RegisterRoutes registers CRUD routes for every kind plus the merge routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	staff := m.auth.Guard.Require(auth.Staff...)
	admin := m.auth.Guard.Require(database.RoleAdmin)
	apiGroup := router.Group("/api")

	registerStore(apiGroup, m.stores.Actors, staff, admin)
	registerStore(apiGroup, m.stores.Directors, staff, admin)
	registerStore(apiGroup, m.stores.Tags, staff, admin)
	registerStore(apiGroup, m.stores.Genres, staff, admin)
	registerStore(apiGroup, m.stores.Countries, staff, admin)
	registerStore(apiGroup, m.stores.Languages, staff, admin)
	registerStore(apiGroup, m.stores.ProductionCompanies, staff, admin)
	registerStore(apiGroup, m.stores.Universes, staff, admin)

	for _, kind := range []Kind{ActorKind, DirectorKind, TagKind} {
		apiGroup.POST("/"+kind.Path+"/merge", admin, m.mergeHandler(kind))
		apiroutes.RegisterWithAccess("/api/"+kind.Path+"/merge", "POST",
			"Merges a duplicate "+kind.Resource+" into another one.", "ADMIN")
	}
}

func registerStore[T any](group *gin.RouterGroup, s *Store[T], staff, admin gin.HandlerFunc) {
	h := storeHandlers[T]{store: s}
	base := "/" + s.Kind().Path

	g := group.Group(base)
	g.GET("", h.list)
	g.GET("/:id", h.get)
	g.POST("", staff, h.create)
	g.PUT("/:id", staff, h.update)
	g.DELETE("/:id", admin, h.delete)

	resource := s.Kind().Resource
	apiroutes.Register("/api"+base, "GET", "Lists "+s.Kind().Path+" by name.")
	apiroutes.RegisterWithAccess("/api"+base, "POST", "Creates a "+resource+".", "ADMIN, MODERATOR")
	apiroutes.Register("/api"+base+"/:id", "GET", "Returns a "+resource+".")
	apiroutes.RegisterWithAccess("/api"+base+"/:id", "PUT", "Renames or edits a "+resource+".", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api"+base+"/:id", "DELETE", "Deletes a "+resource+" and unlinks it from series.", "ADMIN")
}

type storeHandlers[T any] struct {
	store *Store[T]
}

func (h storeHandlers[T]) list(c *gin.Context) {
	var f ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	page, err := h.store.List(c.Request.Context(), f)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h storeHandlers[T]) get(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	item, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h storeHandlers[T]) create(c *gin.Context) {
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	item, err := h.store.Create(c.Request.Context(), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h storeHandlers[T]) update(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in Input
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	item, err := h.store.Update(c.Request.Context(), id, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h storeHandlers[T]) delete(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) mergeHandler(kind Kind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req MergeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			api.RespondWithBindError(c, err)
			return
		}
		result, err := m.merger.Merge(c.Request.Context(), kind, req.SourceID, req.TargetID)
		if err != nil {
			api.RespondWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
