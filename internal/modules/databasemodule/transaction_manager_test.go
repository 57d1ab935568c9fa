package databasemodule

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mantonx/mediacatalog/internal/database"
	"github.com/mantonx/mediacatalog/internal/database/dbtest"
	"github.com/mantonx/mediacatalog/internal/modules/modulemanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestWithTransactionCommits(t *testing.T) {
	db := dbtest.New(t)
	tm := NewTransactionManager(db)

	err := tm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&database.Tag{Name: "noir"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, db.Model(&database.Tag{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTransactionRollsBackOnError(t *testing.T) {
	db := dbtest.New(t)
	tm := NewTransactionManager(db)
	sentinel := errors.New("stop")

	err := tm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&database.Tag{Name: "noir"}).Error; err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)

	var count int64
	require.NoError(t, db.Model(&database.Tag{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestWithTransactionRollsBackOnPanic(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectRollback()

	assert.Panics(t, func() {
		_ = tm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
			panic("boom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransactionReportsCommitFailure(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	err := tm.WithTransaction(context.Background(), func(tx *gorm.DB) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to commit transaction")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleHealthCheck(t *testing.T) {
	db := dbtest.New(t)
	m := NewModule(db)
	require.NoError(t, m.Init())

	health := m.HealthCheck(context.Background())
	assert.Equal(t, modulemanager.HealthStateHealthy, health.Status)
	assert.Contains(t, health.Details, "open_connections")

	empty := &Module{}
	assert.Equal(t, modulemanager.HealthStateUnknown, empty.HealthCheck(context.Background()).Status)
}

func TestWithTransactionRollsBackAfterExec(t *testing.T) {
	db, mock := dbtest.NewMock(t)
	tm := NewTransactionManager(db)
	sentinel := errors.New("stop")

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM tags WHERE id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	err := tm.WithTransaction(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM tags WHERE id = ?", 1).Error; err != nil {
			return err
		}
		return sentinel
	})
	assert.ErrorIs(t, err, sentinel)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestModuleMigratesEveryModel(t *testing.T) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, NewModule(db).Migrate(db))
	for _, model := range database.AllModels() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}
	assert.True(t, db.Migrator().HasTable("series_genres"))
}
