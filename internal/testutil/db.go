// Package testutil provides an in-memory SQLite store migrated with the
// production migrations.
package testutil

import (
	"fmt"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mywinecellar/cellar-api/internal/config"
	"github.com/mywinecellar/cellar-api/internal/database"
	"github.com/mywinecellar/cellar-api/internal/models"
)

var dbCounter atomic.Int64

// NewTestDB returns a fresh database with the default taxonomy seeded.
func NewTestDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_foreign_keys=on", name, dbCounter.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	require.NoError(t, database.SeedTaxonomy(db, config.DefaultTaxonomyID))
	return db
}

func CreateProducer(t testing.TB, db *gorm.DB, id uint, name string) *models.Producer {
	t.Helper()

	producer := &models.Producer{BaseModel: models.BaseModel{ID: id}, Name: name}
	require.NoError(t, db.Create(producer).Error)
	return producer
}

// CreateWine inserts a wine wired to the producer and the default taxonomy.
func CreateWine(t testing.TB, db *gorm.DB, wine *models.Wine) *models.Wine {
	t.Helper()

	defaultID := config.DefaultTaxonomyID
	for _, id := range []*uint{&wine.ShapeID, &wine.ColorID, &wine.TypeID, &wine.ClosureID} {
		if *id == 0 {
			*id = defaultID
		}
	}
	require.NoError(t, db.Omit("Producer", "Shape", "Color", "Type", "Closure").Create(wine).Error)
	return wine
}

// LoadWine reads a wine straight from the store, bypassing the services.
func LoadWine(t testing.TB, db *gorm.DB, id uint) *models.Wine {
	t.Helper()

	var wine models.Wine
	require.NoError(t, db.First(&wine, id).Error)
	return &wine
}
