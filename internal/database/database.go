package database

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mantonx/mediacatalog/internal/config"
	applog "github.com/mantonx/mediacatalog/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Initialize opens the connection described by cfg and stores it as the
// shared handle returned by GetDB. Migrations are run by the modules.
func Initialize(cfg config.DatabaseFullConfig) (*gorm.DB, error) {
	var (
		db  *gorm.DB
		err error
	)

	gormConfig := &gorm.Config{
		Logger:         newGormLogger(cfg.LogQueries),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	}

	switch cfg.Type {
	case "postgres":
		db, err = gorm.Open(postgres.Open(postgresDSN(cfg)), gormConfig)
	case "sqlite":
		db, err = connectSQLite(cfg, gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", cfg.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s database: %w", cfg.Type, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	DB = db
	applog.Info("database initialized", "type", cfg.Type)
	return db, nil
}

func postgresDSN(cfg config.DatabaseFullConfig) string {
	if cfg.URL != "" {
		return cfg.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		cfg.Host, cfg.Username, cfg.Password, cfg.Database, cfg.Port, cfg.SSLMode)
}

func connectSQLite(cfg config.DatabaseFullConfig, gormConfig *gorm.Config) (*gorm.DB, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DatabasePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	// Foreign keys are off by default in sqlite
	dsn := cfg.DatabasePath + "?_foreign_keys=on&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func newGormLogger(logQueries bool) logger.Interface {
	level := logger.Warn
	if logQueries {
		level = logger.Info
	}
	return logger.New(applog.Standard(), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}

// SetDB replaces the shared handle. Used by tests and the CLI.
func SetDB(db *gorm.DB) {
	DB = db
}

// AllModels lists every model for migration tooling
func AllModels() []interface{} {
	return []interface{}{
		&User{}, &BannedIP{}, &AccessLog{},
		&Country{}, &Language{}, &ProductionCompany{}, &Universe{},
		&Actor{}, &Director{}, &Tag{}, &Genre{},
		&Series{}, &SeriesActor{}, &SeriesDirector{}, &SeriesTag{},
		&Season{}, &SeasonActor{}, &Episode{},
		&SeriesViewStatus{}, &EpisodeViewStatus{},
		&Comment{}, &Rating{}, &Favorite{},
		&FeatureRequest{}, &FeatureVote{},
		&RecommendedSite{}, &SuggestedSite{}, &EmbeddableContent{},
	}
}
