// internal/services/taxonomy_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/mywinecellar/cellar-api/internal/apierr"
	"github.com/mywinecellar/cellar-api/internal/models"
)

// TaxonomyService resolves producer and taxonomy ids to their records.
// Every lookup takes an optional transaction; nil means the service's own
// connection.
type TaxonomyService struct {
	db *gorm.DB
}

// Taxonomy is the resolved set of reference entities for one wine.
type Taxonomy struct {
	Shape   *models.Shape
	Color   *models.Color
	Type    *models.WineType
	Closure *models.Closure
}

// TaxonomyIDs names the taxonomy rows to resolve. All ids must be non-zero.
type TaxonomyIDs struct {
	ShapeID   uint
	ColorID   uint
	TypeID    uint
	ClosureID uint
}

func NewTaxonomyService(db *gorm.DB) *TaxonomyService {
	return &TaxonomyService{db: db}
}

func (s *TaxonomyService) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return s.db
}

func (s *TaxonomyService) FindProducer(ctx context.Context, tx *gorm.DB, id uint) (*models.Producer, error) {
	return findByID[models.Producer](ctx, s.conn(tx), "producer", id)
}

func (s *TaxonomyService) FindShape(ctx context.Context, tx *gorm.DB, id uint) (*models.Shape, error) {
	return findByID[models.Shape](ctx, s.conn(tx), "shape", id)
}

func (s *TaxonomyService) FindColor(ctx context.Context, tx *gorm.DB, id uint) (*models.Color, error) {
	return findByID[models.Color](ctx, s.conn(tx), "color", id)
}

func (s *TaxonomyService) FindType(ctx context.Context, tx *gorm.DB, id uint) (*models.WineType, error) {
	return findByID[models.WineType](ctx, s.conn(tx), "type", id)
}

func (s *TaxonomyService) FindClosure(ctx context.Context, tx *gorm.DB, id uint) (*models.Closure, error) {
	return findByID[models.Closure](ctx, s.conn(tx), "closure", id)
}

// Resolve looks up all four taxonomy entities and stops at the first one
// that does not exist.
func (s *TaxonomyService) Resolve(ctx context.Context, tx *gorm.DB, ids TaxonomyIDs) (*Taxonomy, error) {
	var (
		taxonomy Taxonomy
		err      error
	)

	if taxonomy.Shape, err = s.FindShape(ctx, tx, ids.ShapeID); err != nil {
		return nil, err
	}
	if taxonomy.Color, err = s.FindColor(ctx, tx, ids.ColorID); err != nil {
		return nil, err
	}
	if taxonomy.Type, err = s.FindType(ctx, tx, ids.TypeID); err != nil {
		return nil, err
	}
	if taxonomy.Closure, err = s.FindClosure(ctx, tx, ids.ClosureID); err != nil {
		return nil, err
	}

	return &taxonomy, nil
}

func findByID[T any](ctx context.Context, db *gorm.DB, kind string, id uint) (*T, error) {
	if id == 0 {
		return nil, apierr.NotFoundf("%s %d not found", kind, id)
	}

	var entity T
	if err := db.WithContext(ctx).First(&entity, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFoundf("%s %d not found", kind, id)
		}
		return nil, fmt.Errorf("failed to load %s %d: %w", kind, id, err)
	}
	return &entity, nil
}
