// internal/services/wine_service.go
package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mywinecellar/cellar-api/internal/apierr"
	"github.com/mywinecellar/cellar-api/internal/config"
	"github.com/mywinecellar/cellar-api/internal/database"
	"github.com/mywinecellar/cellar-api/internal/metrics"
	"github.com/mywinecellar/cellar-api/internal/models"
)

const mebibyte = 1024 * 1024

// ImageStore keeps an external copy of wine images.
type ImageStore interface {
	Enabled() bool
	PutWineImage(ctx context.Context, wineID uint, image []byte, contentType string) (string, error)
}

// CreateWineParams carries the association ids for a new wine. An unset
// taxonomy id means the configured default; a set id is used as given.
type CreateWineParams struct {
	ProducerID uint
	ShapeID    models.Optional[uint]
	ColorID    models.Optional[uint]
	TypeID     models.Optional[uint]
	ClosureID  models.Optional[uint]
}

type WineService struct {
	db                *gorm.DB
	taxonomyService   *TaxonomyService
	images            ImageStore
	log               *logrus.Entry
	defaultTaxonomyID uint
	maxImageBytes     int64
}

func NewWineService(db *gorm.DB, taxonomyService *TaxonomyService, images ImageStore, catalog config.CatalogConfig, logger *logrus.Logger) *WineService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if catalog.DefaultTaxonomyID == 0 {
		catalog.DefaultTaxonomyID = config.DefaultTaxonomyID
	}
	if catalog.MaxImageBytes <= 0 {
		catalog.MaxImageBytes = config.DefaultMaxImageBytes
	}

	return &WineService{
		db:                db,
		taxonomyService:   taxonomyService,
		images:            images,
		log:               logger.WithField("service", "wine"),
		defaultTaxonomyID: catalog.DefaultTaxonomyID,
		maxImageBytes:     catalog.MaxImageBytes,
	}
}

// CreateWine inserts a new wine wired to its producer and taxonomy. All
// lookups and the insert run in one transaction.
func (s *WineService) CreateWine(ctx context.Context, req *WineRequest, params CreateWineParams) (wine *models.Wine, err error) {
	defer func() { metrics.ObserveWrite("create", err) }()

	if req == nil {
		return nil, apierr.BadRequest("wine request was null")
	}

	entity, err := MergeWine(nil, req)
	if err != nil {
		return nil, err
	}

	ids := TaxonomyIDs{
		ShapeID:   params.ShapeID.OrElse(s.defaultTaxonomyID),
		ColorID:   params.ColorID.OrElse(s.defaultTaxonomyID),
		TypeID:    params.TypeID.OrElse(s.defaultTaxonomyID),
		ClosureID: params.ClosureID.OrElse(s.defaultTaxonomyID),
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		producer, err := s.taxonomyService.FindProducer(ctx, tx, params.ProducerID)
		if err != nil {
			return err
		}

		taxonomy, err := s.taxonomyService.Resolve(ctx, tx, ids)
		if err != nil {
			return err
		}

		entity.ProducerID = producer.ID
		entity.ShapeID = taxonomy.Shape.ID
		entity.ColorID = taxonomy.Color.ID
		entity.TypeID = taxonomy.Type.ID
		entity.ClosureID = taxonomy.Closure.ID

		if err := tx.Omit(clause.Associations).Create(entity).Error; err != nil {
			return fmt.Errorf("failed to create wine: %w", err)
		}

		wine, err = s.loadWine(ctx, tx, entity.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"wine_id":     wine.ID,
		"producer_id": wine.ProducerID,
	}).Info("Wine created")
	return wine, nil
}

// EditWine applies req to the stored wine. Only the fields set in req are
// written; associations never change.
func (s *WineService) EditWine(ctx context.Context, wineID uint, req *WineRequest) (wine *models.Wine, err error) {
	defer func() { metrics.ObserveWrite("edit", err) }()

	if req == nil {
		return nil, apierr.BadRequestf("wine request for id %d was null", wineID)
	}

	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		existing, err := s.findWine(ctx, tx, wineID)
		if err != nil {
			return err
		}

		merged, fields, err := mergeWine(existing, req)
		if err != nil {
			return err
		}

		if len(fields) > 0 {
			if err := tx.Model(&models.Wine{}).Where("id = ?", wineID).Select(fields).Updates(merged).Error; err != nil {
				return fmt.Errorf("failed to update wine %d: %w", wineID, err)
			}
		}

		wine, err = s.loadWine(ctx, tx, wineID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"wine_id": wineID,
	}).Info("Wine updated")
	return wine, nil
}

// AttachImage replaces the wine's image with file. Images of MaxImageBytes
// or more are rejected and leave the stored image untouched.
func (s *WineService) AttachImage(ctx context.Context, wineID uint, file []byte) (wine *models.Wine, err error) {
	defer func() { metrics.ObserveWrite("image", err) }()

	if len(file) == 0 {
		return nil, apierr.BadRequest("image file was not included on the request")
	}

	var replaced bool
	err = database.WithTransaction(ctx, s.db, func(tx *gorm.DB) error {
		existing, err := s.findWine(ctx, tx, wineID)
		if err != nil {
			return err
		}
		replaced = existing.HasImage()

		if int64(len(file)) >= s.maxImageBytes {
			s.log.WithFields(logrus.Fields{
				"wine_id": wineID,
				"size":    len(file),
				"limit":   s.maxImageBytes,
			}).Debug("Image file exceeded size limit")
			return apierr.BadRequest(s.imageTooLargeMessage())
		}

		contentType := DetectImageType(file)
		updates := map[string]interface{}{
			"image":      file,
			"image_type": contentType,
		}

		if s.images != nil && s.images.Enabled() {
			key, err := s.images.PutWineImage(ctx, wineID, file, contentType)
			if err != nil {
				return err
			}
			updates["image_key"] = key
		}

		if err := tx.Model(existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to store image for wine %d: %w", wineID, err)
		}

		wine, err = s.loadWine(ctx, tx, wineID)
		return err
	})
	if err != nil {
		return nil, err
	}

	metrics.ImageBytes.Observe(float64(len(file)))
	s.log.WithFields(logrus.Fields{
		"wine_id":    wineID,
		"size":       len(file),
		"image_type": wine.ImageType,
		"replaced":   replaced,
	}).Info("Wine image attached")
	return wine, nil
}

func (s *WineService) MaxImageBytes() int64 {
	return s.maxImageBytes
}

func (s *WineService) imageTooLargeMessage() string {
	if s.maxImageBytes%mebibyte == 0 {
		return fmt.Sprintf("image cannot exceed %dMB", s.maxImageBytes/mebibyte)
	}
	return fmt.Sprintf("image cannot exceed %d bytes", s.maxImageBytes)
}

func (s *WineService) findWine(ctx context.Context, tx *gorm.DB, id uint) (*models.Wine, error) {
	var wine models.Wine
	if err := tx.WithContext(ctx).First(&wine, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFoundf("wine %d not found", id)
		}
		return nil, fmt.Errorf("failed to load wine %d: %w", id, err)
	}
	return &wine, nil
}

func (s *WineService) loadWine(ctx context.Context, tx *gorm.DB, id uint) (*models.Wine, error) {
	var wine models.Wine
	err := tx.WithContext(ctx).
		Preload("Producer").
		Preload("Shape").
		Preload("Color").
		Preload("Type").
		Preload("Closure").
		First(&wine, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apierr.NotFoundf("wine %d not found", id)
		}
		return nil, fmt.Errorf("failed to load wine %d: %w", id, err)
	}
	return &wine, nil
}
