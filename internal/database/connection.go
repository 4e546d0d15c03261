// internal/database/connection.go
package database

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mywinecellar/cellar-api/internal/config"
	"github.com/mywinecellar/cellar-api/internal/models"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(gormLogLevel(cfg.LogLevel)),
	}

	// Connect to database
	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	// Test connection
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

func gormLogLevel(level string) logger.LogLevel {
	switch level {
	case "error":
		return logger.Error
	case "warn":
		return logger.Warn
	case "info":
		return logger.Info
	default:
		return logger.Silent
	}
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

// RunMigrations works against both Postgres and SQLite.
func RunMigrations(db *gorm.DB) error {
	logrus.Debug("Running database migrations")

	err := db.AutoMigrate(
		&models.Producer{},
		&models.Shape{},
		&models.Color{},
		&models.WineType{},
		&models.Closure{},
		&models.Wine{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	// Create indexes
	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Debug("Database migrations completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	indexes := []string{
		"CREATE INDEX IF NOT EXISTS idx_wines_name_vintage ON wines(name, vintage)",
		"CREATE INDEX IF NOT EXISTS idx_wines_taxonomy ON wines(shape_id, color_id, type_id, closure_id)",
	}

	for _, index := range indexes {
		if err := db.Exec(index).Error; err != nil {
			// Continue with other indexes instead of failing completely
			logrus.WithError(err).WithField("index", index).Warn("Failed to create index")
		}
	}

	return nil
}

// SeedTaxonomy makes sure the default shape, color, type and closure exist
// under defaultID, so wines created without taxonomy ids always resolve.
func SeedTaxonomy(db *gorm.DB, defaultID uint) error {
	base := models.BaseModel{ID: defaultID}

	seeds := []struct {
		table string
		value interface{}
	}{
		{"shapes", &models.Shape{BaseModel: base, Name: "Bordeaux", Description: "High-shouldered bottle"}},
		{"colors", &models.Color{BaseModel: base, Name: "Red"}},
		{"wine_types", &models.WineType{BaseModel: base, Name: "Table", Description: "Still table wine"}},
		{"closures", &models.Closure{BaseModel: base, Name: "Natural Cork"}},
	}

	for _, seed := range seeds {
		if err := db.Where("id = ?", defaultID).FirstOrCreate(seed.value).Error; err != nil {
			return fmt.Errorf("failed to seed %s: %w", seed.table, err)
		}
		if err := syncSequence(db, seed.table); err != nil {
			return err
		}
	}

	logrus.WithField("default_taxonomy_id", defaultID).Debug("Taxonomy defaults seeded")
	return nil
}

// syncSequence moves a Postgres serial past explicitly inserted ids.
func syncSequence(db *gorm.DB, table string) error {
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	query := fmt.Sprintf(
		"SELECT setval(pg_get_serial_sequence('%s', 'id'), (SELECT COALESCE(MAX(id), 1) FROM %s))",
		table, table,
	)
	if err := db.Exec(query).Error; err != nil {
		return fmt.Errorf("failed to sync %s id sequence: %w", table, err)
	}
	return nil
}

// Transaction helper
func WithTransaction(ctx context.Context, db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
