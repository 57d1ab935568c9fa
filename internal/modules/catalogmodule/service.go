package catalogmodule

import (
	"context"
	"fmt"
	"time"

	"github.com/mantonx/mediacatalog/internal/api"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// Service implements the catalog operations. Multi-step writes run inside
// the transaction manager; reads go straight to db.
type Service struct {
	db  *gorm.DB
	tx  *databasemodule.TransactionManager
	now func() time.Time
}

// NewService creates a catalog service
func NewService(db *gorm.DB, tx *databasemodule.TransactionManager) *Service {
	return &Service{
		db:  db,
		tx:  tx,
		now: func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.tx.WithTransaction(ctx, fn)
}

// mustExist returns a 404 when no row of model has the given id
func mustExist(tx *gorm.DB, model interface{}, resource string, id uint) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return api.TranslateDBError(err, resource, id)
	}
	if count == 0 {
		return types.NewNotFoundError(resource, id)
	}
	return nil
}

// mustExistAll returns a 404 naming the first id with no row
func mustExistAll(tx *gorm.DB, model interface{}, resource string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	var found []uint
	if err := tx.Model(model).Where("id IN ?", ids).Pluck("id", &found).Error; err != nil {
		return api.TranslateDBError(err, resource, "")
	}
	present := make(map[uint]bool, len(found))
	for _, id := range found {
		present[id] = true
	}
	for _, id := range ids {
		if !present[id] {
			return types.NewNotFoundError(resource, id)
		}
	}
	return nil
}

func uniqueIDs(ids []uint) []uint {
	seen := make(map[uint]bool, len(ids))
	out := make([]uint, 0, len(ids))
	for _, id := range ids {
		if id == 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

func episodeTitle(n int) string {
	return fmt.Sprintf("Episodio %d", n)
}
