package databasemodule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mantonx/mediacatalog/internal/logger"
	"gorm.io/gorm"
)

// TransactionManager runs units of work inside database transactions
type TransactionManager struct {
	db *gorm.DB
}

// NewTransactionManager creates a new transaction manager
func NewTransactionManager(db *gorm.DB) *TransactionManager {
	return &TransactionManager{db: db}
}

// DB returns the handle transactions are started from
func (tm *TransactionManager) DB() *gorm.DB {
	return tm.db
}

// WithTransaction executes fn within a transaction bound to ctx. The
// transaction commits when fn returns nil and rolls back on an error or a
// panic, which is re-raised after the rollback.
func (tm *TransactionManager) WithTransaction(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	txID := uuid.NewString()
	started := time.Now()

	tx := tm.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			logger.Error("transaction panicked, rolled back", "tx", txID, "panic", r)
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			logger.Error("failed to rollback transaction", "tx", txID, "error", rbErr)
		}
		logger.Debug("rolled back transaction", "tx", txID, "duration", time.Since(started), "error", err)
		return err
	}

	if err := tx.Commit().Error; err != nil {
		logger.Error("failed to commit transaction", "tx", txID, "error", err)
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	logger.Debug("committed transaction", "tx", txID, "duration", time.Since(started))
	return nil
}

// GetStats returns connection pool statistics
func (tm *TransactionManager) GetStats() map[string]interface{} {
	stats := make(map[string]interface{})

	if sqlDB, err := tm.db.DB(); err == nil {
		dbStats := sqlDB.Stats()
		stats["open_connections"] = dbStats.OpenConnections
		stats["in_use"] = dbStats.InUse
		stats["idle"] = dbStats.Idle
		stats["wait_count"] = dbStats.WaitCount
		stats["wait_duration_ms"] = dbStats.WaitDuration.Milliseconds()
	}

	return stats
}
