package catalogmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
)

func (m *Module) listSeasons(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	seasons, err := m.service.ListSeasons(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"seasons": seasons, "count": len(seasons)})
}

func (m *Module) getSeason(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	season, err := m.service.GetSeason(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, season)
}

func (m *Module) createSeason(c *gin.Context) {
	seriesID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in SeasonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	season, err := m.service.CreateSeason(c.Request.Context(), seriesID, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, season)
}

func (m *Module) updateSeason(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in SeasonInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	season, err := m.service.UpdateSeason(c.Request.Context(), id, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, season)
}

func (m *Module) deleteSeason(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := m.service.DeleteSeason(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) setSeasonCredits(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Credits []CreditInput `json:"credits" binding:"dive"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	season, err := m.service.SetSeasonCredits(c.Request.Context(), id, req.Credits)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, season)
}

func (m *Module) generateEpisodes(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	result, err := m.service.GenerateEpisodes(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *Module) listEpisodes(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	episodes, err := m.service.ListEpisodes(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"episodes": episodes, "count": len(episodes)})
}

func (m *Module) getEpisode(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	episode, err := m.service.GetEpisode(c.Request.Context(), id)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, episode)
}

func (m *Module) createEpisode(c *gin.Context) {
	seasonID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in EpisodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	episode, err := m.service.CreateEpisode(c.Request.Context(), seasonID, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, episode)
}

func (m *Module) updateEpisode(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in EpisodeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	episode, err := m.service.UpdateEpisode(c.Request.Context(), id, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, episode)
}

func (m *Module) deleteEpisode(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := m.service.DeleteEpisode(c.Request.Context(), id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
