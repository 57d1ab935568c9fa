package lookupmodule

import (
	"context"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// ListFilter searches a lookup by name
type ListFilter struct {
	Search string `form:"search"`
	database.PageRequest
}

// Store implements CRUD for one lookup model
type Store[T any] struct {
	db    *gorm.DB
	tx    *databasemodule.TransactionManager
	kind  Kind
	apply func(Input, *T)
}

// NewStore creates a store for kind
func NewStore[T any](db *gorm.DB, tx *databasemodule.TransactionManager, kind Kind, apply func(Input, *T)) *Store[T] {
	return &Store[T]{db: db, tx: tx, kind: kind, apply: apply}
}

// Kind returns the descriptor the store was built with
func (s *Store[T]) Kind() Kind {
	return s.kind
}

// List returns one page of rows ordered by name
func (s *Store[T]) List(ctx context.Context, f ListFilter) (database.Page[T], error) {
	q := s.db.WithContext(ctx).Model(new(T))
	if f.Search != "" {
		q = q.Where("LOWER(name) LIKE ?"+database.LikeEscapeClause, database.ContainsPattern(f.Search))
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return database.Page[T]{}, api.TranslateDBError(err, s.kind.Resource, "")
	}
	var items []T
	if err := q.Scopes(f.PageRequest.Scope()).Order("name ASC, id ASC").Find(&items).Error; err != nil {
		return database.Page[T]{}, api.TranslateDBError(err, s.kind.Resource, "")
	}
	return database.NewPage(items, total, f.PageRequest), nil
}

// Get loads one row
func (s *Store[T]) Get(ctx context.Context, id uint) (*T, error) {
	item := new(T)
	if err := s.db.WithContext(ctx).First(item, id).Error; err != nil {
		return nil, api.TranslateDBError(err, s.kind.Resource, id)
	}
	return item, nil
}

// Create inserts a row. Duplicate names are rejected.
func (s *Store[T]) Create(ctx context.Context, in Input) (*T, error) {
	if in.name() == "" {
		return nil, types.NewValidationError("name is required")
	}
	item := new(T)
	s.apply(in, item)
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, api.TranslateDBError(err, s.kind.Resource, in.name())
	}
	return item, nil
}

// Update replaces the writable fields of a row
func (s *Store[T]) Update(ctx context.Context, id uint, in Input) (*T, error) {
	if in.name() == "" {
		return nil, types.NewValidationError("name is required")
	}
	db := s.db.WithContext(ctx)
	item := new(T)
	if err := db.First(item, id).Error; err != nil {
		return nil, api.TranslateDBError(err, s.kind.Resource, id)
	}
	s.apply(in, item)
	if err := db.Save(item).Error; err != nil {
		return nil, api.TranslateDBError(err, s.kind.Resource, in.name())
	}
	return item, nil
}

// Delete removes a row together with its join rows, or clears the series
// columns pointing at it
func (s *Store[T]) Delete(ctx context.Context, id uint) error {
	err := s.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(new(T)).Where("id = ?", id).Count(&count).Error; err != nil {
			return api.TranslateDBError(err, s.kind.Resource, id)
		}
		if count == 0 {
			return types.NewNotFoundError(s.kind.Resource, id)
		}

		for _, jt := range s.kind.JoinTables {
			if err := tx.Exec("DELETE FROM "+jt.Table+" WHERE "+s.kind.Column+" = ?", id).Error; err != nil {
				return api.TranslateDBError(err, s.kind.Resource, id)
			}
		}
		if s.kind.SeriesColumn != "" {
			err := tx.Model(&database.Series{}).
				Where(s.kind.SeriesColumn+" = ?", id).
				Update(s.kind.SeriesColumn, nil).Error
			if err != nil {
				return api.TranslateDBError(err, s.kind.Resource, id)
			}
		}
		return api.TranslateDBError(tx.Delete(new(T), id).Error, s.kind.Resource, id)
	})
	if err != nil {
		return err
	}
	logger.Info("lookup deleted", "kind", s.kind.Path, "id", id)
	return nil
}
