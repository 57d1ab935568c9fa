package catalogmodule

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/types"
)

// caller returns the identity set by the guard
func caller(c *gin.Context) (*auth.Identity, bool) {
	id, ok := auth.IdentityFrom(c)
	if !ok {
		api.RespondWithError(c, types.NewUnauthenticatedError())
	}
	return id, ok
}

func (m *Module) getViewStatus(c *gin.Context) {
	seriesID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	report, err := m.service.GetViewStatus(c.Request.Context(), auth.UserIDFrom(c), seriesID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (m *Module) setSeriesStatus(c *gin.Context) {
	seriesID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in SeriesStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	row, err := m.service.SetSeriesStatus(c.Request.Context(), auth.UserIDFrom(c), seriesID, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (m *Module) setEpisodeStatus(c *gin.Context) {
	episodeID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in EpisodeStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	row, err := m.service.SetEpisodeStatus(c.Request.Context(), auth.UserIDFrom(c), episodeID, in.Status)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (m *Module) setSeasonStatus(c *gin.Context) {
	seasonID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in EpisodeStatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	result, err := m.service.SetSeasonStatus(c.Request.Context(), auth.UserIDFrom(c), seasonID, in.Status)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (m *Module) toggleFavorite(c *gin.Context) {
	seriesID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	favorite, err := m.service.ToggleFavorite(c.Request.Context(), auth.UserIDFrom(c), seriesID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": favorite})
}

func (m *Module) listFavorites(c *gin.Context) {
	var page database.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	favorites, err := m.service.ListFavorites(c.Request.Context(), auth.UserIDFrom(c), page)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, favorites)
}

func (m *Module) getRating(c *gin.Context) {
	seriesID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	summary, err := m.service.RatingSummary(c.Request.Context(), auth.UserIDFrom(c), seriesID)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (m *Module) rateSeries(c *gin.Context) {
	seriesID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	var in RatingInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	rating, err := m.service.RateSeries(c.Request.Context(), auth.UserIDFrom(c), seriesID, in.Score)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, rating)
}

func (m *Module) deleteRating(c *gin.Context) {
	seriesID, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	if err := m.service.DeleteRating(c.Request.Context(), auth.UserIDFrom(c), seriesID); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (m *Module) listComments(c *gin.Context) {
	var target CommentTarget
	if err := c.ShouldBindQuery(&target); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	comments, err := m.service.ListComments(c.Request.Context(), auth.UserIDFrom(c), target)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

func (m *Module) createComment(c *gin.Context) {
	var in CommentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	comment, err := m.service.CreateComment(c.Request.Context(), auth.UserIDFrom(c), in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (m *Module) updateComment(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	who, ok := caller(c)
	if !ok {
		return
	}
	var in CommentUpdate
	if err := c.ShouldBindJSON(&in); err != nil {
		api.RespondWithBindError(c, err)
		return
	}
	comment, err := m.service.UpdateComment(c.Request.Context(), who, id, in)
	if err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}

func (m *Module) deleteComment(c *gin.Context) {
	id, ok := api.ParseID(c, "id")
	if !ok {
		return
	}
	who, ok := caller(c)
	if !ok {
		return
	}
	if err := m.service.DeleteComment(c.Request.Context(), who, id); err != nil {
		api.RespondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
