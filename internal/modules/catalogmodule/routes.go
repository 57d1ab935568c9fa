package catalogmodule

import (
	"github.com/gin-gonic/gin"
	"github.com/mantonx/mediacatalog/internal/apiroutes"
	"github.com/mantonx/mediacatalog/internal/auth"
	"github.com/mantonx/mediacatalog/internal/database"
)

// RegisterRoutes registers the catalog routes
func (m *Module) RegisterRoutes(router *gin.Engine) {
	guard := m.auth.Guard
	signedIn := guard.Require()
	staff := guard.Require(auth.Staff...)
	admin := guard.Require(database.RoleAdmin)

	apiGroup := router.Group("/api")

	series := apiGroup.Group("/series")
	{
		series.GET("", m.listSeries)
		series.POST("", staff, m.createSeries)
		series.GET("/:id", m.getSeries)
		series.PUT("/:id", staff, m.updateSeries)
		series.DELETE("/:id", admin, m.deleteSeries)

		series.GET("/:id/seasons", m.listSeasons)
		series.POST("/:id/seasons", staff, m.createSeason)

		series.GET("/:id/view-status", signedIn, m.getViewStatus)
		series.PUT("/:id/view-status", signedIn, m.setSeriesStatus)
		series.POST("/:id/favorite", signedIn, m.toggleFavorite)
		series.GET("/:id/rating", guard.Optional(), m.getRating)
		series.PUT("/:id/rating", signedIn, m.rateSeries)
		series.DELETE("/:id/rating", signedIn, m.deleteRating)
	}

	seasons := apiGroup.Group("/seasons")
	{
		seasons.GET("/:id", m.getSeason)
		seasons.PUT("/:id", staff, m.updateSeason)
		seasons.DELETE("/:id", staff, m.deleteSeason)
		seasons.PUT("/:id/actors", staff, m.setSeasonCredits)
		seasons.GET("/:id/episodes", m.listEpisodes)
		seasons.POST("/:id/episodes", staff, m.createEpisode)
		seasons.POST("/:id/episodes/generate", staff, m.generateEpisodes)
		seasons.PUT("/:id/view-status", signedIn, m.setSeasonStatus)
	}

	episodes := apiGroup.Group("/episodes")
	{
		episodes.GET("/:id", m.getEpisode)
		episodes.PUT("/:id", staff, m.updateEpisode)
		episodes.DELETE("/:id", staff, m.deleteEpisode)
		episodes.PUT("/:id/view-status", signedIn, m.setEpisodeStatus)
	}

	apiGroup.GET("/favorites", signedIn, m.listFavorites)

	comments := apiGroup.Group("/comments")
	{
		comments.GET("", guard.Optional(), m.listComments)
		comments.POST("", signedIn, m.createComment)
		comments.PUT("/:id", signedIn, m.updateComment)
		comments.DELETE("/:id", signedIn, m.deleteComment)
	}

	apiroutes.Register("/api/series", "GET", "Lists series with search, filters and paging.")
	apiroutes.RegisterWithAccess("/api/series", "POST", "Creates a series with its relations.", "ADMIN, MODERATOR")
	apiroutes.Register("/api/series/:id", "GET", "Returns a series with every relation.")
	apiroutes.RegisterWithAccess("/api/series/:id", "PUT", "Updates a series and the relation lists given.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/series/:id", "DELETE", "Deletes a series and everything it owns.", "ADMIN")
	apiroutes.Register("/api/series/:id/seasons", "GET", "Lists the seasons of a series.")
	apiroutes.RegisterWithAccess("/api/series/:id/seasons", "POST", "Adds a season.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/series/:id/view-status", "GET, PUT", "Reads or updates the caller's progress on a series.", "ANY")
	apiroutes.RegisterWithAccess("/api/series/:id/favorite", "POST", "Toggles a favorite.", "ANY")
	apiroutes.Register("/api/series/:id/rating", "GET", "Returns the average score, count and the caller's score.")
	apiroutes.RegisterWithAccess("/api/series/:id/rating", "PUT, DELETE", "Sets or removes the caller's score.", "ANY")
	apiroutes.Register("/api/seasons/:id", "GET", "Returns a season with episodes and credits.")
	apiroutes.RegisterWithAccess("/api/seasons/:id", "PUT, DELETE", "Updates or deletes a season.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/seasons/:id/actors", "PUT", "Replaces the actor credits of a season.", "ADMIN, MODERATOR")
	apiroutes.Register("/api/seasons/:id/episodes", "GET", "Lists the episodes of a season.")
	apiroutes.RegisterWithAccess("/api/seasons/:id/episodes", "POST", "Adds an episode.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/seasons/:id/episodes/generate", "POST", "Creates placeholder episodes up to the declared count.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/seasons/:id/view-status", "PUT", "Marks every episode of a season seen or unseen.", "ANY")
	apiroutes.Register("/api/episodes/:id", "GET", "Returns an episode.")
	apiroutes.RegisterWithAccess("/api/episodes/:id", "PUT, DELETE", "Updates or deletes an episode.", "ADMIN, MODERATOR")
	apiroutes.RegisterWithAccess("/api/episodes/:id/view-status", "PUT", "Marks an episode seen or unseen.", "ANY")
	apiroutes.RegisterWithAccess("/api/favorites", "GET", "Lists the caller's favorites.", "ANY")
	apiroutes.Register("/api/comments", "GET", "Lists the comments on a series, season or episode.")
	apiroutes.RegisterWithAccess("/api/comments", "POST", "Adds a comment.", "ANY")
	apiroutes.RegisterWithAccess("/api/comments/:id", "PUT, DELETE", "Edits or deletes a comment.", "ANY")
}
