package catalogmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
)

func (m *Module) listSeries(c *gin.Context) {
	var f SeriesFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	page, err := m.service.ListSeries(c.Request.Context(), f)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (m *Module) getSeries(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	series, err := m.service.GetSeries(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (m *Module) createSeries(c *gin.Context) {
	var in SeriesInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	series, err := m.service.CreateSeries(c.Request.Context(), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, series)
}

func (m *Module) updateSeries(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in SeriesInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	series, err := m.service.UpdateSeries(c.Request.Context(), id, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, series)
}

func (m *Module) deleteSeries(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := m.service.DeleteSeries(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
