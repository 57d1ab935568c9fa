package catalogmodule

import (
	"context"
	"strings"
	"time"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeasonInput is the writable part of a season
type SeasonInput struct {
	Number       *int   `json:"number" binding:"required,min=0,max=1000"`
	Title        string `json:"title" binding:"max=191"`
	Year         int    `json:"year" binding:"min=0,max=3000"`
	Poster       string `json:"poster" binding:"max=1024"`
	EpisodeCount *int   `json:"episodeCount" binding:"omitempty,min=0,max=5000"`
}

// EpisodeInput is the writable part of an episode
type EpisodeInput struct {
	Number   *int       `json:"number" binding:"required,min=0,max=5000"`
	Title    string     `json:"title" binding:"max=191"`
	Synopsis string     `json:"synopsis"`
	AirDate  *time.Time `json:"airDate"`
	Duration int        `json:"duration" binding:"min=0,max=1440"`
}

// GenerateResult is the outcome of placeholder episode generation
type GenerateResult struct {
	Episodes []database.Episode `json:"episodes"`
	Created  int                `json:"created"`
}

// ListSeasons returns the seasons of a series in number order
func (s *Service) ListSeasons(ctx context.Context, seriesID uint) ([]database.Season, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &database.Series{}, "series", seriesID); err != nil {
		return nil, err
	}
	seasons := []database.Season{}
	if err := db.Where("series_id = ?", seriesID).Order("number").Find(&seasons).Error; err != nil {
		return nil, api.TranslateDBError(err, "seasons", seriesID)
	}
	return seasons, nil
}

// GetSeason loads a season with its episodes and credits
func (s *Service) GetSeason(ctx context.Context, id uint) (*database.Season, error) {
	return loadSeason(s.db.WithContext(ctx), id)
}

func loadSeason(db *gorm.DB, id uint) (*database.Season, error) {
	var season database.Season
	err := db.
		Preload("Episodes", func(db *gorm.DB) *gorm.DB { return db.Order("number") }).
		Preload("Credits.Actor").
		First(&season, id).Error
	if err != nil {
		return nil, api.TranslateDBError(err, "season", id)
	}
	return &season, nil
}

// CreateSeason adds a season to a series
func (s *Service) CreateSeason(ctx context.Context, seriesID uint, in SeasonInput) (*database.Season, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &database.Series{}, "series", seriesID); err != nil {
		return nil, err
	}
	season := &database.Season{SeriesID: seriesID}
	in.applyTo(season)
	if err := db.Omit(clause.Associations).Create(season).Error; err != nil {
		return nil, api.TranslateDBError(err, "season", *in.Number)
	}
	return season, nil
}

// UpdateSeason replaces the writable fields of a season
func (s *Service) UpdateSeason(ctx context.Context, id uint, in SeasonInput) (*database.Season, error) {
	db := s.db.WithContext(ctx)
	var season database.Season
	if err := db.First(&season, id).Error; err != nil {
		return nil, api.TranslateDBError(err, "season", id)
	}
	in.applyTo(&season)
	if err := db.Omit(clause.Associations).Save(&season).Error; err != nil {
		return nil, api.TranslateDBError(err, "season", *in.Number)
	}
	return &season, nil
}

// DeleteSeason removes a season with its episodes, credits and the state
// attached to them
func (s *Service) DeleteSeason(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Season{}, "season", id); err != nil {
			return err
		}
		episodes := tx.Model(&database.Episode{}).Select("id").Where("season_id = ?", id)
		if err := tx.Where("episode_id IN (?)", episodes).Delete(&database.EpisodeViewStatus{}).Error; err != nil {
			return api.TranslateDBError(err, "season", id)
		}
		if err := tx.Where("season_id = ? OR episode_id IN (?)", id, episodes).Delete(&database.Comment{}).Error; err != nil {
			return api.TranslateDBError(err, "season", id)
		}
		for _, model := range []interface{}{&database.Episode{}, &database.SeasonActor{}} {
			if err := tx.Where("season_id = ?", id).Delete(model).Error; err != nil {
				return api.TranslateDBError(err, "season", id)
			}
		}
		return api.TranslateDBError(tx.Delete(&database.Season{}, id).Error, "season", id)
	})
}

// SetSeasonCredits replaces the actor credits of a season
func (s *Service) SetSeasonCredits(ctx context.Context, seasonID uint, credits []CreditInput) (*database.Season, error) {
	var season *database.Season
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Season{}, "season", seasonID); err != nil {
			return err
		}
		credits = uniqueCredits(credits)
		actorIDs := make([]uint, 0, len(credits))
		for _, c := range credits {
			actorIDs = append(actorIDs, c.ActorID)
		}
		if err := mustExistAll(tx, &database.Actor{}, "actor", uniqueIDs(actorIDs)); err != nil {
			return err
		}
		if err := tx.Where("season_id = ?", seasonID).Delete(&database.SeasonActor{}).Error; err != nil {
			return api.TranslateDBError(err, "season credits", seasonID)
		}
		for _, c := range credits {
			row := database.SeasonActor{SeasonID: seasonID, ActorID: c.ActorID, CharacterName: c.Character}
			if err := tx.Create(&row).Error; err != nil {
				return api.TranslateDBError(err, "season credit", c.ActorID)
			}
		}
		var err error
		season, err = loadSeason(tx, seasonID)
		return err
	})
	return season, err
}

// ListEpisodes returns the episodes of a season in number order
func (s *Service) ListEpisodes(ctx context.Context, seasonID uint) ([]database.Episode, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &database.Season{}, "season", seasonID); err != nil {
		return nil, err
	}
	return listEpisodes(db, seasonID)
}

func listEpisodes(db *gorm.DB, seasonID uint) ([]database.Episode, error) {
	episodes := []database.Episode{}
	if err := db.Where("season_id = ?", seasonID).Order("number").Find(&episodes).Error; err != nil {
		return nil, api.TranslateDBError(err, "episodes", seasonID)
	}
	return episodes, nil
}

// GetEpisode loads one episode
func (s *Service) GetEpisode(ctx context.Context, id uint) (*database.Episode, error) {
	var episode database.Episode
	if err := s.db.WithContext(ctx).First(&episode, id).Error; err != nil {
		return nil, api.TranslateDBError(err, "episode", id)
	}
	return &episode, nil
}

// CreateEpisode adds an episode to a season. A blank title becomes the
// placeholder title.
func (s *Service) CreateEpisode(ctx context.Context, seasonID uint, in EpisodeInput) (*database.Episode, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &database.Season{}, "season", seasonID); err != nil {
		return nil, err
	}
	episode := &database.Episode{SeasonID: seasonID}
	in.applyTo(episode)
	if err := db.Create(episode).Error; err != nil {
		return nil, api.TranslateDBError(err, "episode", *in.Number)
	}
	return episode, nil
}

// UpdateEpisode replaces the writable fields of an episode
func (s *Service) UpdateEpisode(ctx context.Context, id uint, in EpisodeInput) (*database.Episode, error) {
	db := s.db.WithContext(ctx)
	var episode database.Episode
	if err := db.First(&episode, id).Error; err != nil {
		return nil, api.TranslateDBError(err, "episode", id)
	}
	in.applyTo(&episode)
	if err := db.Save(&episode).Error; err != nil {
		return nil, api.TranslateDBError(err, "episode", *in.Number)
	}
	return &episode, nil
}

// DeleteEpisode removes an episode with its view statuses and comments
func (s *Service) DeleteEpisode(ctx context.Context, id uint) error {
	return s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Episode{}, "episode", id); err != nil {
			return err
		}
		for _, model := range []interface{}{&database.EpisodeViewStatus{}, &database.Comment{}} {
			if err := tx.Where("episode_id = ?", id).Delete(model).Error; err != nil {
				return api.TranslateDBError(err, "episode", id)
			}
		}
		return api.TranslateDBError(tx.Delete(&database.Episode{}, id).Error, "episode", id)
	})
}

// GenerateEpisodes creates a placeholder episode for every number from 1
// to the season's declared episode count that has no row yet. Existing
// episodes are never touched.
func (s *Service) GenerateEpisodes(ctx context.Context, seasonID uint) (*GenerateResult, error) {
	result := &GenerateResult{}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		var season database.Season
		if err := tx.First(&season, seasonID).Error; err != nil {
			return api.TranslateDBError(err, "season", seasonID)
		}
		if season.EpisodeCount == nil {
			return types.NewValidationError("season has no declared episode count")
		}

		var existing []int
		if err := tx.Model(&database.Episode{}).Where("season_id = ?", seasonID).Pluck("number", &existing).Error; err != nil {
			return api.TranslateDBError(err, "episodes", seasonID)
		}
		present := make(map[int]bool, len(existing))
		for _, n := range existing {
			present[n] = true
		}

		var missing []database.Episode
		for n := 1; n <= *season.EpisodeCount; n++ {
			if !present[n] {
				missing = append(missing, database.Episode{SeasonID: seasonID, Number: n, Title: episodeTitle(n)})
			}
		}
		if len(missing) > 0 {
			if err := tx.CreateInBatches(&missing, 100).Error; err != nil {
				return api.TranslateDBError(err, "episodes", seasonID)
			}
		}

		episodes, err := listEpisodes(tx, seasonID)
		if err != nil {
			return err
		}
		result.Episodes = episodes
		result.Created = len(missing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Info("generated episodes", "season", seasonID, "created", result.Created)
	return result, nil
}

func (in SeasonInput) applyTo(season *database.Season) {
	season.Number = *in.Number
	season.Title = strings.TrimSpace(in.Title)
	season.Year = in.Year
	season.Poster = in.Poster
	season.EpisodeCount = in.EpisodeCount
}

func (in EpisodeInput) applyTo(episode *database.Episode) {
	episode.Number = *in.Number
	episode.Title = strings.TrimSpace(in.Title)
	if episode.Title == "" {
		episode.Title = episodeTitle(episode.Number)
	}
	episode.Synopsis = in.Synopsis
	episode.AirDate = in.AirDate
	episode.Duration = in.Duration
}
