package catalogmodule

import (
	"context"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// RatingInput is a user's score
type RatingInput struct {
	Score int `json:"score" binding:"required,min=1,max=10"`
}

// RatingSummary aggregates the scores of a series
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
	Mine    *int    `json:"mine"`
}

// RateSeries creates or replaces the user's score for a series
func (s *Service) RateSeries(ctx context.Context, userID, seriesID uint, score int) (*database.Rating, error) {
	if score < 1 || score > 10 {
		return nil, types.NewValidationError("score must be between 1 and 10")
	}

	var rating database.Rating
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		if err := mustExist(tx, &database.Series{}, "series", seriesID); err != nil {
			return err
		}
		err := tx.Where("user_id = ? AND series_id = ?", userID, seriesID).First(&rating).Error
		if database.IsNotFound(err) {
			rating = database.Rating{UserID: userID, SeriesID: seriesID, Score: score}
			return api.TranslateDBError(tx.Create(&rating).Error, "rating", seriesID)
		}
		if err != nil {
			return api.TranslateDBError(err, "rating", seriesID)
		}
		if rating.Score == score {
			return nil
		}
		rating.Score = score
		return api.TranslateDBError(tx.Save(&rating).Error, "rating", seriesID)
	})
	if err != nil {
		return nil, err
	}
	return &rating, nil
}

// DeleteRating removes the user's score
func (s *Service) DeleteRating(ctx context.Context, userID, seriesID uint) error {
	res := s.db.WithContext(ctx).Where("user_id = ? AND series_id = ?", userID, seriesID).Delete(&database.Rating{})
	if res.Error != nil {
		return api.TranslateDBError(res.Error, "rating", seriesID)
	}
	if res.RowsAffected == 0 {
		return types.NewNotFoundError("rating", seriesID)
	}
	return nil
}

// RatingSummary returns the average and count of a series' scores plus
// the caller's own score when userID is set
func (s *Service) RatingSummary(ctx context.Context, userID, seriesID uint) (*RatingSummary, error) {
	db := s.db.WithContext(ctx)
	if err := mustExist(db, &database.Series{}, "series", seriesID); err != nil {
		return nil, err
	}

	var summary RatingSummary
	err := db.Model(&database.Rating{}).
		Select("COALESCE(AVG(score), 0) AS average, COUNT(*) AS count").
		Where("series_id = ?", seriesID).
		Scan(&summary).Error
	if err != nil {
		return nil, api.TranslateDBError(err, "ratings", seriesID)
	}

	if userID != 0 {
		var mine database.Rating
		err := db.Where("user_id = ? AND series_id = ?", userID, seriesID).First(&mine).Error
		switch {
		case err == nil:
			summary.Mine = &mine.Score
		case !database.IsNotFound(err):
			return nil, api.TranslateDBError(err, "rating", seriesID)
		}
	}
	return &summary, nil
}
