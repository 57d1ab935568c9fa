package catalogmodule

import (
	"context"
	"time"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// SeriesStatusInput carries the fields to change. Nil fields are kept.
type SeriesStatusInput struct {
	State    *database.ViewState `json:"state"`
	Watched  *bool               `json:"watched"`
	Watching *bool               `json:"watching"`
}

// EpisodeStatusInput sets an episode to seen or unseen
type EpisodeStatusInput struct {
	Status database.EpisodeStatus `json:"status" binding:"required"`
}

// ViewStatusReport is the caller's progress on one series
type ViewStatusReport struct {
	Series   *database.SeriesViewStatus   `json:"series"`
	Episodes []database.EpisodeViewStatus `json:"episodes"`
}

// SeasonStatusResult is the outcome of marking a whole season
type SeasonStatusResult struct {
	Statuses []database.EpisodeViewStatus `json:"statuses"`
	Updated  int                          `json:"updated"`
}

func validState(s database.ViewState) bool {
	switch s {
	case database.ViewStatePending, database.ViewStateWatching, database.ViewStateWatched, database.ViewStateAbandoned:
		return true
	}
	return false
}

func validEpisodeStatus(s database.EpisodeStatus) bool {
	return s == database.EpisodeSeen || s == database.EpisodeUnseen
}

// SetSeriesStatus upserts the (user, series) row. Turning watching on
// stamps last_watched_at and turning it off keeps the stamp. Turning
// watched on stamps watched_date and turning it off clears it. Input that
// changes nothing leaves the row untouched.
func (s *Service) SetSeriesStatus(ctx context.Context, userID, seriesID uint, in SeriesStatusInput) (*database.SeriesViewStatus, error) {
	if in.State != nil && !validState(*in.State) {
		return nil, types.NewValidationError("invalid view state", string(*in.State))
	}

	var row database.SeriesViewStatus
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Series{}, "series", seriesID); err != nil {
			return err
		}

		err := tx.Where("user_id = ? AND series_id = ?", userID, seriesID).First(&row).Error
		isNew := database.IsNotFound(err)
		if err != nil && !isNew {
			return api.TranslateDBError(err, "view status", seriesID)
		}
		if isNew {
			row = database.SeriesViewStatus{UserID: userID, SeriesID: seriesID, State: database.ViewStatePending}
		}

		changed := applySeriesStatus(&row, in, s.now())
		switch {
		case isNew:
			err = tx.Create(&row).Error
		case changed:
			err = tx.Save(&row).Error
		}
		return api.TranslateDBError(err, "view status", seriesID)
	})
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func applySeriesStatus(row *database.SeriesViewStatus, in SeriesStatusInput, now time.Time) bool {
	changed := false
	if in.State != nil && *in.State != row.State {
		row.State = *in.State
		changed = true
	}
	if in.Watched != nil && *in.Watched != row.Watched {
		row.Watched = *in.Watched
		if row.Watched {
			row.WatchedDate = &now
		} else {
			row.WatchedDate = nil
		}
		changed = true
	}
	if in.Watching != nil && *in.Watching != row.Watching {
		row.Watching = *in.Watching
		if row.Watching {
			row.LastWatchedAt = &now
		}
		changed = true
	}
	return changed
}

// SetEpisodeStatus upserts the (user, episode) row. The status is checked
// before any query.
func (s *Service) SetEpisodeStatus(ctx context.Context, userID, episodeID uint, status database.EpisodeStatus) (*database.EpisodeViewStatus, error) {
	if !validEpisodeStatus(status) {
		return nil, types.NewValidationError("invalid episode status", "expected VISTA or NO_VISTA")
	}

	var row *database.EpisodeViewStatus
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Episode{}, "episode", episodeID); err != nil {
			return err
		}
		var err error
		row, _, err = upsertEpisodeStatus(tx, userID, episodeID, status, s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// SetSeasonStatus applies one status to every episode of a season in a
// single transaction
func (s *Service) SetSeasonStatus(ctx context.Context, userID, seasonID uint, status database.EpisodeStatus) (*SeasonStatusResult, error) {
	if !validEpisodeStatus(status) {
		return nil, types.NewValidationError("invalid episode status", "expected VISTA or NO_VISTA")
	}

	result := &SeasonStatusResult{Statuses: []database.EpisodeViewStatus{}}
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Season{}, "season", seasonID); err != nil {
			return err
		}
		var episodeIDs []uint
		if err := tx.Model(&database.Episode{}).Where("season_id = ?", seasonID).Order("number").Pluck("id", &episodeIDs).Error; err != nil {
			return api.TranslateDBError(err, "episodes", seasonID)
		}

		now := s.now()
		for _, id := range episodeIDs {
			row, changed, err := upsertEpisodeStatus(tx, userID, id, status, now)
			if err != nil {
				return err
			}
			if changed {
				result.Updated++
			}
			result.Statuses = append(result.Statuses, *row)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func upsertEpisodeStatus(tx *gorm.DB, userID, episodeID uint, status database.EpisodeStatus, now time.Time) (*database.EpisodeViewStatus, bool, error) {
	var row database.EpisodeViewStatus
	err := tx.Where("user_id = ? AND episode_id = ?", userID, episodeID).First(&row).Error
	if database.IsNotFound(err) {
		row = database.EpisodeViewStatus{UserID: userID, EpisodeID: episodeID, Status: status}
		if status == database.EpisodeSeen {
			row.WatchedDate = &now
		}
		if err := tx.Create(&row).Error; err != nil {
			return nil, false, api.TranslateDBError(err, "episode status", episodeID)
		}
		return &row, true, nil
	}
	if err != nil {
		return nil, false, api.TranslateDBError(err, "episode status", episodeID)
	}

	if row.Status == status {
		return &row, false, nil
	}
	row.Status = status
	if status == database.EpisodeSeen {
		row.WatchedDate = &now
	} else {
		row.WatchedDate = nil
	}
	if err := tx.Save(&row).Error; err != nil {
		return nil, false, api.TranslateDBError(err, "episode status", episodeID)
	}
	return &row, true, nil
}

// GetViewStatus returns the caller's series row (nil when never set) and
// every episode row belonging to the series
func (s *Service) GetViewStatus(ctx context.Context, userID, seriesID uint) (*ViewStatusReport, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &database.Series{}, "series", seriesID); err != nil {
		return nil, err
	}

	report := &ViewStatusReport{Episodes: []database.EpisodeViewStatus{}}
	var row database.SeriesViewStatus
	err := db.Where("user_id = ? AND series_id = ?", userID, seriesID).First(&row).Error
	switch {
	case err == nil:
		report.Series = &row
	case !database.IsNotFound(err):
		return nil, api.TranslateDBError(err, "view status", seriesID)
	}

	seasons := db.Model(&database.Season{}).Select("id").Where("series_id = ?", seriesID)
	episodes := db.Model(&database.Episode{}).Select("id").Where("season_id IN (?)", seasons)
	err = db.Where("user_id = ? AND episode_id IN (?)", userID, episodes).
		Order("episode_id").
		Find(&report.Episodes).Error
	if err != nil {
		return nil, api.TranslateDBError(err, "view status", seriesID)
	}
	return report, nil
}
