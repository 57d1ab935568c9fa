package catalogmodule

import (
	"context"
	"strings"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditInput names an actor and the character they play
type CreditInput struct {
	ActorID   uint   `json:"actorId" binding:"required"`
	Character string `json:"character" binding:"max=191"`
}

// SeriesInput is the writable part of a series. Relation lists that are
// omitted (nil) are left unchanged on update; an empty list clears them.
type SeriesInput struct {
	Title         string              `json:"title" binding:"required,max=191"`
	OriginalTitle string              `json:"originalTitle" binding:"max=191"`
	Year          int                 `json:"year" binding:"min=0,max=3000"`
	Type          database.SeriesType `json:"type" binding:"omitempty,oneof=series film short special"`
	Synopsis      string              `json:"synopsis"`
	Poster        string              `json:"poster" binding:"max=1024"`
	Rating        *float64            `json:"rating" binding:"omitempty,min=0,max=10"`
	IMDBRating    *float64            `json:"imdbRating" binding:"omitempty,min=0,max=10"`
	Favorite      bool                `json:"favorite"`

	CountryID           *uint `json:"countryId"`
	UniverseID          *uint `json:"universeId"`
	ProductionCompanyID *uint `json:"productionCompanyId"`
	OriginalLanguageID  *uint `json:"originalLanguageId"`

	Credits     []CreditInput `json:"credits" binding:"omitempty,dive"`
	DirectorIDs []uint        `json:"directorIds"`
	TagIDs      []uint        `json:"tagIds"`
	GenreIDs    []uint        `json:"genreIds"`
	RelatedIDs  []uint        `json:"relatedIds"`
}

// SeriesFilter selects and orders the series list
type SeriesFilter struct {
	Search   string `form:"search"`
	Type     string `form:"type" binding:"omitempty,oneof=series film short special"`
	Year     int    `form:"year"`
	GenreID  uint   `form:"genreId"`
	TagID    uint   `form:"tagId"`
	Favorite *bool  `form:"favorite"`
	Sort     string `form:"sort" binding:"omitempty,oneof=title year rating recent"`
	database.PageRequest
}

var seriesOrder = map[string]string{
	"":       "title ASC, year ASC",
	"title":  "title ASC, year ASC",
	"year":   "year DESC, title ASC",
	"rating": "rating DESC, title ASC",
	"recent": "created_at DESC, id DESC",
}

// ListSeries returns one page of series with genres and country attached
func (s *Service) ListSeries(ctx context.Context, f SeriesFilter) (database.Page[database.Series], error) {
	q := s.db.WithContext(ctx).Model(&database.Series{})
	if f.Search != "" {
		like := database.ContainsPattern(f.Search)
		q = q.Where("LOWER(title) LIKE ?"+database.LikeEscapeClause+" OR LOWER(original_title) LIKE ?"+database.LikeEscapeClause, like, like)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.Year != 0 {
		q = q.Where("year = ?", f.Year)
	}
	if f.GenreID != 0 {
		q = q.Where("id IN (?)", s.db.Table("series_genres").Select("series_id").Where("genre_id = ?", f.GenreID))
	}
	if f.TagID != 0 {
		q = q.Where("id IN (?)", s.db.Model(&database.SeriesTag{}).Select("series_id").Where("tag_id = ?", f.TagID))
	}
	if f.Favorite != nil {
		q = q.Where("favorite = ?", *f.Favorite)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return database.Page[database.Series]{}, api.TranslateDBError(err, "series", "")
	}

	var items []database.Series
	err := q.Scopes(f.PageRequest.Scope()).
		Preload("Genres").
		Preload("Country").
		Order(seriesOrder[f.Sort]).
		Find(&items).Error
	if err != nil {
		return database.Page[database.Series]{}, api.TranslateDBError(err, "series", "")
	}
	return database.NewPage(items, total, f.PageRequest), nil
}

// GetSeries loads a series with every relation
func (s *Service) GetSeries(ctx context.Context, id uint) (*database.Series, error) {
	return s.loadSeries(s.db.WithContext(ctx), id)
}

func (s *Service) loadSeries(db *gorm.DB, id uint) (*database.Series, error) {
	var series database.Series
	err := db.
		Preload("Country").
		Preload("Universe").
		Preload("ProductionCompany").
		Preload("OriginalLanguage").
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("name") }).
		Preload("Related", func(db *gorm.DB) *gorm.DB { return db.Order("year, title") }).
		Preload("Credits.Actor").
		Preload("Directors.Director").
		Preload("Tags.Tag").
		Preload("Seasons", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		First(&series, id).Error
	if err != nil {
		return nil, api.TranslateDBError(err, "series", id)
	}
	return &series, nil
}

// CreateSeries inserts a series and its relations
func (s *Service) CreateSeries(ctx context.Context, in SeriesInput) (*database.Series, error) {
	series := &database.Series{}
	in.applyTo(series)

	var created *database.Series
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := checkSeriesLinks(tx, in); err != nil {
			return err
		}
		if err := tx.Omit(clause.Associations).Create(series).Error; err != nil {
			return api.TranslateDBError(err, "series", in.Title)
		}
		if err := replaceSeriesRelations(tx, series.ID, in); err != nil {
			return err
		}
		var err error
		created, err = s.loadSeries(tx, series.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	logger.Info("series created", "id", created.ID, "title", created.Title)
	return created, nil
}

// UpdateSeries replaces the scalar fields of a series and every relation
// list present in the input
func (s *Service) UpdateSeries(ctx context.Context, id uint, in SeriesInput) (*database.Series, error) {
	var updated *database.Series
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var series database.Series
		if err := tx.First(&series, id).Error; err != nil {
			return api.TranslateDBError(err, "series", id)
		}
		if err := checkSeriesLinks(tx, in); err != nil {
			return err
		}
		in.applyTo(&series)
		if err := tx.Omit(clause.Associations).Save(&series).Error; err != nil {
			return api.TranslateDBError(err, "series", in.Title)
		}
		if err := replaceSeriesRelations(tx, id, in); err != nil {
			return err
		}
		var err error
		updated, err = s.loadSeries(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteSeries removes a series and everything that belongs to it
func (s *Service) DeleteSeries(ctx context.Context, id uint) error {
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Series{}, "series", id); err != nil {
			return err
		}

		seasons := tx.Model(&database.Season{}).Select("id").Where("series_id = ?", id)
		episodes := tx.Model(&database.Episode{}).Select("id").Where("season_id IN (?)", seasons)

		steps := []struct {
			model interface{}
			query string
			args  []interface{}
		}{
			{&database.EpisodeViewStatus{}, "episode_id IN (?)", []interface{}{episodes}},
			{&database.Comment{}, "series_id = ? OR season_id IN (?) OR episode_id IN (?)", []interface{}{id, seasons, episodes}},
			{&database.Episode{}, "season_id IN (?)", []interface{}{seasons}},
			{&database.SeasonActor{}, "season_id IN (?)", []interface{}{seasons}},
			{&database.Season{}, "series_id = ?", []interface{}{id}},
			{&database.SeriesActor{}, "series_id = ?", []interface{}{id}},
			{&database.SeriesDirector{}, "series_id = ?", []interface{}{id}},
			{&database.SeriesTag{}, "series_id = ?", []interface{}{id}},
			{&database.SeriesViewStatus{}, "series_id = ?", []interface{}{id}},
			{&database.Rating{}, "series_id = ?", []interface{}{id}},
			{&database.Favorite{}, "series_id = ?", []interface{}{id}},
		}
		for _, step := range steps {
			if err := tx.Where(step.query, step.args...).Delete(step.model).Error; err != nil {
				return api.TranslateDBError(err, "series", id)
			}
		}

		if err := tx.Exec("DELETE FROM series_genres WHERE series_id = ?", id).Error; err != nil {
			return api.TranslateDBError(err, "series", id)
		}
		if err := tx.Exec("DELETE FROM series_related WHERE series_id = ? OR related_id = ?", id, id).Error; err != nil {
			return api.TranslateDBError(err, "series", id)
		}
		if err := tx.Model(&database.EmbeddableContent{}).Where("series_id = ?", id).Update("series_id", nil).Error; err != nil {
			return api.TranslateDBError(err, "series", id)
		}
		if err := tx.Delete(&database.Series{}, id).Error; err != nil {
			return api.TranslateDBError(err, "series", id)
		}
		return nil
	})
	if err != nil {
		return err
	}
	logger.Info("series deleted", "id", id)
	return nil
}

func (in SeriesInput) applyTo(series *database.Series) {
	series.Title = strings.TrimSpace(in.Title)
	series.OriginalTitle = strings.TrimSpace(in.OriginalTitle)
	series.Year = in.Year
	series.Type = in.Type
	if series.Type == "" {
		series.Type = database.SeriesTypeSeries
	}
	series.Synopsis = in.Synopsis
	series.Poster = in.Poster
	series.Rating = in.Rating
	series.IMDBRating = in.IMDBRating
	series.Favorite = in.Favorite
	series.CountryID = in.CountryID
	series.UniverseID = in.UniverseID
	series.ProductionCompanyID = in.ProductionCompanyID
	series.OriginalLanguageID = in.OriginalLanguageID
}

func checkSeriesLinks(tx *gorm.DB, in SeriesInput) error {
	links := []struct {
		id       *uint
		model    interface{}
		resource string
	}{
		{in.CountryID, &database.Country{}, "country"},
		{in.UniverseID, &database.Universe{}, "universe"},
		{in.ProductionCompanyID, &database.ProductionCompany{}, "production company"},
		{in.OriginalLanguageID, &database.Language{}, "language"},
	}
	for _, link := range links {
		if link.id == nil {
			continue
		}
		if err := mustExist(tx, link.model, link.resource, *link.id); err != nil {
			return err
		}
	}
	return nil
}

func replaceSeriesRelations(tx *gorm.DB, seriesID uint, in SeriesInput) error {
	if in.Credits != nil {
		if err := replaceSeriesCredits(tx, seriesID, in.Credits); err != nil {
			return err
		}
	}

	if in.DirectorIDs != nil {
		ids := uniqueIDs(in.DirectorIDs)
		if err := mustExistAll(tx, &database.Director{}, "director", ids); err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", seriesID).Delete(&database.SeriesDirector{}).Error; err != nil {
			return api.TranslateDBError(err, "series directors", seriesID)
		}
		for _, id := range ids {
			if err := tx.Create(&database.SeriesDirector{SeriesID: seriesID, DirectorID: id}).Error; err != nil {
				return api.TranslateDBError(err, "series director", id)
			}
		}
	}

	if in.TagIDs != nil {
		ids := uniqueIDs(in.TagIDs)
		if err := mustExistAll(tx, &database.Tag{}, "tag", ids); err != nil {
			return err
		}
		if err := tx.Where("series_id = ?", seriesID).Delete(&database.SeriesTag{}).Error; err != nil {
			return api.TranslateDBError(err, "series tags", seriesID)
		}
		for _, id := range ids {
			if err := tx.Create(&database.SeriesTag{SeriesID: seriesID, TagID: id}).Error; err != nil {
				return api.TranslateDBError(err, "series tag", id)
			}
		}
	}

	if in.GenreIDs != nil {
		ids := uniqueIDs(in.GenreIDs)
		if err := mustExistAll(tx, &database.Genre{}, "genre", ids); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM series_genres WHERE series_id = ?", seriesID).Error; err != nil {
			return api.TranslateDBError(err, "series genres", seriesID)
		}
		for _, id := range ids {
			if err := tx.Exec("INSERT INTO series_genres (series_id, genre_id) VALUES (?, ?)", seriesID, id).Error; err != nil {
				return api.TranslateDBError(err, "series genre", id)
			}
		}
	}

	if in.RelatedIDs != nil {
		ids := uniqueIDs(in.RelatedIDs)
		for _, id := range ids {
			if id == seriesID {
				return types.NewValidationError("a series cannot be related to itself")
			}
		}
		if err := mustExistAll(tx, &database.Series{}, "related series", ids); err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM series_related WHERE series_id = ?", seriesID).Error; err != nil {
			return api.TranslateDBError(err, "related series", seriesID)
		}
		for _, id := range ids {
			if err := tx.Exec("INSERT INTO series_related (series_id, related_id) VALUES (?, ?)", seriesID, id).Error; err != nil {
				return api.TranslateDBError(err, "related series", id)
			}
		}
	}
	return nil
}

func replaceSeriesCredits(tx *gorm.DB, seriesID uint, credits []CreditInput) error {
	credits = uniqueCredits(credits)
	actorIDs := make([]uint, 0, len(credits))
	for _, c := range credits {
		actorIDs = append(actorIDs, c.ActorID)
	}
	if err := mustExistAll(tx, &database.Actor{}, "actor", uniqueIDs(actorIDs)); err != nil {
		return err
	}
	if err := tx.Where("series_id = ?", seriesID).Delete(&database.SeriesActor{}).Error; err != nil {
		return api.TranslateDBError(err, "series credits", seriesID)
	}
	for _, c := range credits {
		row := database.SeriesActor{SeriesID: seriesID, ActorID: c.ActorID, CharacterName: c.Character}
		if err := tx.Create(&row).Error; err != nil {
			return api.TranslateDBError(err, "series credit", c.ActorID)
		}
	}
	return nil
}

// uniqueCredits trims character names and drops repeated (actor, character)
// pairs
func uniqueCredits(credits []CreditInput) []CreditInput {
	type key struct {
		actor     uint
		character string
	}
	seen := make(map[key]bool, len(credits))
	out := make([]CreditInput, 0, len(credits))
	for _, c := range credits {
		c.Character = strings.TrimSpace(c.Character)
		k := key{c.ActorID, c.Character}
		if c.ActorID == 0 || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}
