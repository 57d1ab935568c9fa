package lookupmodule

import (
	"context"
	"errors"

	"github.com/mantonx/mediacatalog/internal/logger"
	"github.com/mantonx/mediacatalog/internal/metrics"
	"github.com/mantonx/mediacatalog/internal/modules/databasemodule"
	"github.com/mantonx/mediacatalog/internal/types"
	"gorm.io/gorm"
)

// MergeRequest names the duplicate and the entity that absorbs it
type MergeRequest struct {
	SourceID uint `json:"sourceId" binding:"required"`
	TargetID uint `json:"targetId" binding:"required"`
}

// MergeResult counts what happened to the source's join rows
type MergeResult struct {
	Moved     int  `json:"moved"`
	Discarded int  `json:"discarded"`
	TargetID  uint `json:"targetId"`
}

// Merger folds duplicate lookups into a canonical one
type Merger struct {
	tx *databasemodule.TransactionManager
}

// NewMerger creates a merger running on tx
func NewMerger(tx *databasemodule.TransactionManager) *Merger {
	return &Merger{tx: tx}
}

type joinRow struct {
	ID      uint
	OwnerID uint
	Credit  string
}

// Merge repoints every join row of source to target, discarding rows whose
// natural key already exists on target, then deletes source. The whole
// operation is one transaction.
func (m *Merger) Merge(ctx context.Context, kind Kind, sourceID, targetID uint) (*MergeResult, error) {
	if !kind.Mergeable {
		return nil, types.NewValidationError(kind.Path + " cannot be merged")
	}
	if sourceID == 0 || targetID == 0 {
		return nil, types.NewValidationError("sourceId and targetId are required")
	}
	if sourceID == targetID {
		return nil, types.NewValidationError("cannot merge an entity into itself")
	}

	result := &MergeResult{TargetID: targetID}
	err := m.tx.WithTransaction(ctx, func(tx *gorm.DB) error {
		for _, id := range []uint{sourceID, targetID} {
			var count int64
			if err := tx.Table(kind.Table).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return types.NewNotFoundError(kind.Resource, id)
			}
		}

		for _, jt := range kind.JoinTables {
			moved, discarded, err := mergeJoinTable(tx, kind.Column, jt, sourceID, targetID)
			if err != nil {
				return err
			}
			result.Moved += moved
			result.Discarded += discarded
		}

		return tx.Exec("DELETE FROM "+kind.Table+" WHERE id = ?", sourceID).Error
	})
	if err != nil {
		var appErr *types.AppError
		if errors.As(err, &appErr) && appErr.Code != types.ErrorCodeInternal {
			metrics.Merges.WithLabelValues(kind.Path, "rejected").Inc()
			return nil, appErr
		}
		metrics.Merges.WithLabelValues(kind.Path, "failed").Inc()
		return nil, types.NewMergeError(kind.Resource, err)
	}

	metrics.Merges.WithLabelValues(kind.Path, "merged").Inc()
	logger.Info("merged lookup",
		"kind", kind.Path,
		"source", sourceID,
		"target", targetID,
		"moved", result.Moved,
		"discarded", result.Discarded,
	)
	return result, nil
}

func mergeJoinTable(tx *gorm.DB, column string, jt joinTable, sourceID, targetID uint) (int, int, error) {
	credit := "''"
	if jt.Credit != "" {
		credit = jt.Credit
	}

	var rows []joinRow
	err := tx.Table(jt.Table).
		Select("id, "+jt.Owner+" AS owner_id, "+credit+" AS credit").
		Where(column+" = ?", sourceID).
		Order("id").
		Scan(&rows).Error
	if err != nil {
		return 0, 0, err
	}

	moved, discarded := 0, 0
	for _, row := range rows {
		q := tx.Table(jt.Table).Where(column+" = ? AND "+jt.Owner+" = ?", targetID, row.OwnerID)
		if jt.Credit != "" {
			q = q.Where(jt.Credit+" = ?", row.Credit)
		}
		var existing int64
		if err := q.Count(&existing).Error; err != nil {
			return 0, 0, err
		}

		if existing > 0 {
			if err := tx.Exec("DELETE FROM "+jt.Table+" WHERE id = ?", row.ID).Error; err != nil {
				return 0, 0, err
			}
			discarded++
			continue
		}
		if err := tx.Exec("UPDATE "+jt.Table+" SET "+column+" = ? WHERE id = ?", targetID, row.ID).Error; err != nil {
			return 0, 0, err
		}
		moved++
	}
	return moved, discarded, nil
}
