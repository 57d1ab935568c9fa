package catalogmodule

import (
	"context"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"gorm.io/gorm"
)

// ToggleFavorite adds the series to the user's favorites or removes it
// when already present. It returns the new state.
func (s *Service) ToggleFavorite(ctx context.Context, userID, seriesID uint) (bool, error) {
	var favorite bool
	err := s.inTx(ctx, func(tx *gorm.DB) error {
		res := tx.Where("user_id = ? AND series_id = ?", userID, seriesID).Delete(&database.Favorite{})
		if res.Error != nil {
			return api.TranslateDBError(res.Error, "favorite", seriesID)
		}
		if res.RowsAffected > 0 {
			favorite = false
			return nil
		}

		if err := mustExist(tx, &database.Series{}, "series", seriesID); err != nil {
			return err
		}
		if err := tx.Create(&database.Favorite{UserID: userID, SeriesID: seriesID}).Error; err != nil {
			return api.TranslateDBError(err, "favorite", seriesID)
		}
		favorite = true
		return nil
	})
	return favorite, err
}

// IsFavorite reports whether the user marked the series
func (s *Service) IsFavorite(ctx context.Context, userID, seriesID uint) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&database.Favorite{}).
		Where("user_id = ? AND series_id = ?", userID, seriesID).
		Count(&count).Error
	if err != nil {
		return false, api.TranslateDBError(err, "favorite", seriesID)
	}
	return count > 0, nil
}

// ListFavorites returns the user's favorites, newest first
func (s *Service) ListFavorites(ctx context.Context, userID uint, page database.PageRequest) (database.Page[database.Favorite], error) {
	q := s.db.WithContext(ctx).Model(&database.Favorite{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return database.Page[database.Favorite]{}, api.TranslateDBError(err, "favorites", userID)
	}

	var items []database.Favorite
	err := q.Scopes(page.Scope()).
		Preload("Series").
		Order("created_at DESC, id DESC").
		Find(&items).Error
	if err != nil {
		return database.Page[database.Favorite]{}, api.TranslateDBError(err, "favorites", userID)
	}
	return database.NewPage(items, total, page), nil
}
