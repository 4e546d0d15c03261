package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/mywinecellar/cellar-api/internal/apierr"
	"github.com/mywinecellar/cellar-api/internal/config"
	"github.com/mywinecellar/cellar-api/internal/models"
	"github.com/mywinecellar/cellar-api/internal/testutil"
)

const fiveMiB = 5242880

type fakeImageStore struct {
	mu      sync.Mutex
	enabled bool
	err     error
	puts    []uint
}

func (f *fakeImageStore) Enabled() bool { return f.enabled }

func (f *fakeImageStore) PutWineImage(_ context.Context, wineID uint, _ []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	f.puts = append(f.puts, wineID)
	return WineImageKey(wineID, contentType), nil
}

type WineServiceTestSuite struct {
	suite.Suite
	db      *gorm.DB
	images  *fakeImageStore
	logHook *logtest.Hook
	service *WineService
	ctx     context.Context
}

func (s *WineServiceTestSuite) SetupTest() {
	s.db = testutil.NewTestDB(s.T())
	s.images = &fakeImageStore{}
	s.ctx = context.Background()

	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	s.logHook = hook

	s.service = NewWineService(s.db, NewTaxonomyService(s.db), s.images, config.CatalogConfig{
		DefaultTaxonomyID: config.DefaultTaxonomyID,
		MaxImageBytes:     config.DefaultMaxImageBytes,
	}, logger)

	testutil.CreateProducer(s.T(), s.db, 42, "Domaine Y")
	s.Require().NoError(s.db.Create(&models.Shape{BaseModel: models.BaseModel{ID: 2}, Name: "Burgundy"}).Error)
	s.Require().NoError(s.db.Create(&models.Color{BaseModel: models.BaseModel{ID: 2}, Name: "White"}).Error)
}

func (s *WineServiceTestSuite) newRequest(body string) *WineRequest {
	return decodeRequest(s.T(), body)
}

func (s *WineServiceTestSuite) seedWine(id uint) *models.Wine {
	return testutil.CreateWine(s.T(), s.db, &models.Wine{
		BaseModel:   models.BaseModel{ID: id},
		Name:        "Seeded",
		Vintage:     2010,
		Size:        750,
		Alcohol:     12.5,
		Description: "Seeded notes",
		Image:       []byte("previous image"),
		ImageType:   "text/plain",
		ProducerID:  42,
	})
}

func (s *WineServiceTestSuite) assertStatus(err error, status int) {
	var apiErr *apierr.Error
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(status, apiErr.Status)
}

// Create

func (s *WineServiceTestSuite) TestCreateWithDefaultTaxonomy() {
	wine, err := s.service.CreateWine(s.ctx, s.newRequest(`{"name":"Chateau X","vintage":2015,"size":750}`), CreateWineParams{ProducerID: 42})
	s.Require().NoError(err)

	s.NotZero(wine.ID)
	s.Equal("Chateau X", wine.Name)
	s.Equal(models.Vintage(2015), wine.Vintage)
	s.Equal(750.0, wine.Size)

	s.Require().NotNil(wine.Producer)
	s.Equal(uint(42), wine.Producer.ID)
	for _, id := range []uint{wine.ShapeID, wine.ColorID, wine.TypeID, wine.ClosureID} {
		s.Equal(config.DefaultTaxonomyID, id)
	}
	s.Require().NotNil(wine.Shape)
	s.Require().NotNil(wine.Color)
	s.Require().NotNil(wine.Type)
	s.Require().NotNil(wine.Closure)
	s.Equal("Bordeaux", wine.Shape.Name)
	s.Equal(uint(1), wine.Closure.ID)

	var producer models.Producer
	s.Require().NoError(s.db.Preload("Wines").First(&producer, 42).Error)
	s.Require().Len(producer.Wines, 1)
	s.Equal(wine.ID, producer.Wines[0].ID)
}

func (s *WineServiceTestSuite) TestCreateWithExplicitTaxonomy() {
	wine, err := s.service.CreateWine(s.ctx, s.newRequest(`{"name":"Blanc","size":750}`), CreateWineParams{
		ProducerID: 42,
		ShapeID:    models.Some[uint](2),
		ColorID:    models.Some[uint](2),
	})
	s.Require().NoError(err)

	s.Equal(uint(2), wine.ShapeID)
	s.Equal("Burgundy", wine.Shape.Name)
	s.Equal(uint(2), wine.ColorID)
	s.Equal("White", wine.Color.Name)
	s.Equal(uint(1), wine.TypeID)
	s.Equal(uint(1), wine.ClosureID)
}

func (s *WineServiceTestSuite) TestCreateUsesConfiguredDefault() {
	for _, v := range []interface{}{
		&models.Shape{BaseModel: models.BaseModel{ID: 7}, Name: "Flute"},
		&models.Color{BaseModel: models.BaseModel{ID: 7}, Name: "Rose"},
		&models.WineType{BaseModel: models.BaseModel{ID: 7}, Name: "Sparkling"},
		&models.Closure{BaseModel: models.BaseModel{ID: 7}, Name: "Crown Cap"},
	} {
		s.Require().NoError(s.db.Create(v).Error)
	}

	service := NewWineService(s.db, NewTaxonomyService(s.db), nil, config.CatalogConfig{DefaultTaxonomyID: 7}, nil)
	wine, err := service.CreateWine(s.ctx, s.newRequest(`{"name":"Crémant","size":750}`), CreateWineParams{ProducerID: 42})
	s.Require().NoError(err)

	s.Equal("Flute", wine.Shape.Name)
	s.Equal("Rose", wine.Color.Name)
	s.Equal("Sparkling", wine.Type.Name)
	s.Equal("Crown Cap", wine.Closure.Name)
}

func (s *WineServiceTestSuite) TestCreateNilRequest() {
	wine, err := s.service.CreateWine(s.ctx, nil, CreateWineParams{ProducerID: 42})
	s.Nil(wine)
	s.assertStatus(err, http.StatusBadRequest)
	s.EqualError(err, "wine request was null")
}

func (s *WineServiceTestSuite) TestCreateMissingRequiredFields() {
	_, err := s.service.CreateWine(s.ctx, s.newRequest(`{"vintage":2015}`), CreateWineParams{ProducerID: 42})
	s.assertStatus(err, http.StatusBadRequest)
	s.assertWineCount(0)
}

func (s *WineServiceTestSuite) TestCreateUnknownProducer() {
	_, err := s.service.CreateWine(s.ctx, s.newRequest(`{"name":"X","size":750}`), CreateWineParams{ProducerID: 99})
	s.assertStatus(err, http.StatusNotFound)
	s.EqualError(err, "producer 99 not found")
	s.assertWineCount(0)
}

func (s *WineServiceTestSuite) TestCreateUnknownTaxonomy() {
	tests := []struct {
		params  CreateWineParams
		message string
	}{
		{CreateWineParams{ProducerID: 42, ShapeID: models.Some[uint](9)}, "shape 9 not found"},
		{CreateWineParams{ProducerID: 42, ColorID: models.Some[uint](9)}, "color 9 not found"},
		{CreateWineParams{ProducerID: 42, TypeID: models.Some[uint](9)}, "type 9 not found"},
		{CreateWineParams{ProducerID: 42, ClosureID: models.Some[uint](9)}, "closure 9 not found"},
	}

	for _, tt := range tests {
		_, err := s.service.CreateWine(s.ctx, s.newRequest(`{"name":"X","size":750}`), tt.params)
		s.assertStatus(err, http.StatusNotFound)
		s.EqualError(err, tt.message)
	}

	s.assertWineCount(0)

	var producer models.Producer
	s.Require().NoError(s.db.Preload("Wines").First(&producer, 42).Error)
	s.Empty(producer.Wines)
}

func (s *WineServiceTestSuite) TestCreateExplicitZeroTaxonomyIDIsNotFound() {
	tests := []struct {
		params  CreateWineParams
		message string
	}{
		{CreateWineParams{ProducerID: 42, ShapeID: models.Some[uint](0)}, "shape 0 not found"},
		{CreateWineParams{ProducerID: 42, ColorID: models.Some[uint](0)}, "color 0 not found"},
		{CreateWineParams{ProducerID: 42, TypeID: models.Some[uint](0)}, "type 0 not found"},
		{CreateWineParams{ProducerID: 42, ClosureID: models.Some[uint](0)}, "closure 0 not found"},
	}

	for _, tt := range tests {
		_, err := s.service.CreateWine(s.ctx, s.newRequest(`{"name":"X","size":750}`), tt.params)
		s.assertStatus(err, http.StatusNotFound)
		s.EqualError(err, tt.message)
	}

	s.assertWineCount(0)
}

// Edit

func (s *WineServiceTestSuite) TestEditOverwritesOnlySetFields() {
	seeded := s.seedWine(185)

	wine, err := s.service.EditWine(s.ctx, 185, s.newRequest(`{"name":"Renamed","bottle_aging":24}`))
	s.Require().NoError(err)

	s.Equal("Renamed", wine.Name)
	s.Equal(24, wine.BottleAging)
	s.Equal(seeded.Vintage, wine.Vintage)
	s.Equal(seeded.Size, wine.Size)
	s.Equal(seeded.Alcohol, wine.Alcohol)
	s.Equal(seeded.Description, wine.Description)
	s.Equal(seeded.Image, wine.Image)
	s.Equal(seeded.ProducerID, wine.ProducerID)
	s.Equal(seeded.ShapeID, wine.ShapeID)

	stored := testutil.LoadWine(s.T(), s.db, 185)
	s.Equal("Renamed", stored.Name)
	s.Equal(seeded.Description, stored.Description)
	s.Equal([]byte("previous image"), stored.Image)
}

func (s *WineServiceTestSuite) TestEditWritesZeroValues() {
	s.seedWine(185)

	wine, err := s.service.EditWine(s.ctx, 185, s.newRequest(`{"alcohol":0,"vintage":"NV","description":""}`))
	s.Require().NoError(err)

	stored := testutil.LoadWine(s.T(), s.db, wine.ID)
	s.Zero(stored.Alcohol)
	s.True(stored.Vintage.IsNonVintage())
	s.Empty(stored.Description)
}

func (s *WineServiceTestSuite) TestEditIsIdempotent() {
	s.seedWine(185)
	body := `{"name":"Twice","size":1500,"ph":3.5}`

	first, err := s.service.EditWine(s.ctx, 185, s.newRequest(body))
	s.Require().NoError(err)
	second, err := s.service.EditWine(s.ctx, 185, s.newRequest(body))
	s.Require().NoError(err)

	s.Equal(first.Name, second.Name)
	s.Equal(first.Size, second.Size)
	s.Equal(first.PH, second.PH)
	s.Equal(first.Vintage, second.Vintage)
	s.Equal(first.Description, second.Description)
	s.Equal(first.Image, second.Image)
}

func (s *WineServiceTestSuite) TestEditEmptyRequestChangesNothing() {
	seeded := s.seedWine(185)

	wine, err := s.service.EditWine(s.ctx, 185, s.newRequest(`{}`))
	s.Require().NoError(err)
	s.Equal(seeded.Name, wine.Name)
	s.Equal(seeded.Size, wine.Size)
}

func (s *WineServiceTestSuite) TestEditNilRequest() {
	_, err := s.service.EditWine(s.ctx, 185, nil)
	s.assertStatus(err, http.StatusBadRequest)
	s.EqualError(err, "wine request for id 185 was null")
}

func (s *WineServiceTestSuite) TestEditUnknownWine() {
	wine, err := s.service.EditWine(s.ctx, 404, s.newRequest(`{"name":"Ghost"}`))
	s.Nil(wine)
	s.assertStatus(err, http.StatusNotFound)
	s.EqualError(err, "wine 404 not found")
}

func (s *WineServiceTestSuite) TestEditInvalidValueLeavesWineUnchanged() {
	s.seedWine(185)

	_, err := s.service.EditWine(s.ctx, 185, s.newRequest(`{"name":"","size":900}`))
	s.assertStatus(err, http.StatusBadRequest)

	stored := testutil.LoadWine(s.T(), s.db, 185)
	s.Equal("Seeded", stored.Name)
	s.Equal(750.0, stored.Size)
}

// Image

func (s *WineServiceTestSuite) TestAttachImage() {
	s.seedWine(7)
	png := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 64)...)

	wine, err := s.service.AttachImage(s.ctx, 7, png)
	s.Require().NoError(err)

	s.Equal(png, wine.Image)
	s.Equal("image/png", wine.ImageType)
	s.Empty(wine.ImageKey)
	s.Equal(png, testutil.LoadWine(s.T(), s.db, 7).Image)

	entry := s.logHook.LastEntry()
	s.Require().NotNil(entry)
	s.Equal(true, entry.Data["replaced"])
}

func (s *WineServiceTestSuite) TestAttachImageBoundary() {
	s.seedWine(7)

	_, err := s.service.AttachImage(s.ctx, 7, make([]byte, fiveMiB))
	s.assertStatus(err, http.StatusBadRequest)
	s.EqualError(err, "image cannot exceed 5MB")

	wine, err := s.service.AttachImage(s.ctx, 7, make([]byte, fiveMiB-1))
	s.Require().NoError(err)
	s.Len(wine.Image, fiveMiB-1)
}

func (s *WineServiceTestSuite) TestAttachOversizedImageKeepsPreviousImage() {
	s.seedWine(7)

	_, err := s.service.AttachImage(s.ctx, 7, make([]byte, 6*1024*1024))
	s.EqualError(err, "image cannot exceed 5MB")

	s.Equal([]byte("previous image"), testutil.LoadWine(s.T(), s.db, 7).Image)

	entry := s.logHook.LastEntry()
	s.Require().NotNil(entry)
	s.Equal(logrus.DebugLevel, entry.Level)
	s.Equal(uint(7), entry.Data["wine_id"])
}

func (s *WineServiceTestSuite) TestAttachImageMissingFile() {
	for _, file := range [][]byte{nil, {}} {
		_, err := s.service.AttachImage(s.ctx, 7, file)
		s.assertStatus(err, http.StatusBadRequest)
		s.EqualError(err, "image file was not included on the request")
	}
}

func (s *WineServiceTestSuite) TestAttachImageUnknownWine() {
	_, err := s.service.AttachImage(s.ctx, 8, []byte("img"))
	s.assertStatus(err, http.StatusNotFound)
}

func (s *WineServiceTestSuite) TestAttachImageUnknownWineBeatsSizeCheck() {
	_, err := s.service.AttachImage(s.ctx, 8, make([]byte, fiveMiB))
	s.assertStatus(err, http.StatusNotFound)
}

func (s *WineServiceTestSuite) TestAttachImageMirrorsToStore() {
	s.seedWine(7)
	s.images.enabled = true

	wine, err := s.service.AttachImage(s.ctx, 7, []byte("GIF89a-----"))
	s.Require().NoError(err)

	s.Equal([]uint{7}, s.images.puts)
	s.Equal("wines/7/image.gif", wine.ImageKey)
	s.Equal("wines/7/image.gif", testutil.LoadWine(s.T(), s.db, 7).ImageKey)
}

func (s *WineServiceTestSuite) TestAttachImageMirrorFailureRollsBack() {
	s.seedWine(7)
	s.images.enabled = true
	s.images.err = errors.New("s3 unavailable")

	_, err := s.service.AttachImage(s.ctx, 7, []byte("new image"))
	s.Require().Error(err)
	s.Equal(http.StatusInternalServerError, apierr.StatusOf(err))

	stored := testutil.LoadWine(s.T(), s.db, 7)
	s.Equal([]byte("previous image"), stored.Image)
	s.Empty(stored.ImageKey)
}

func (s *WineServiceTestSuite) assertWineCount(want int64) {
	var count int64
	s.Require().NoError(s.db.Model(&models.Wine{}).Count(&count).Error)
	s.Equal(want, count)
}

func TestWineServiceSuite(t *testing.T) {
	suite.Run(t, new(WineServiceTestSuite))
}

func TestNewWineServiceDefaults(t *testing.T) {
	service := NewWineService(nil, nil, nil, config.CatalogConfig{}, nil)
	assert.Equal(t, config.DefaultTaxonomyID, service.defaultTaxonomyID)
	assert.Equal(t, config.DefaultMaxImageBytes, service.MaxImageBytes())
}

func TestImageTooLargeMessage(t *testing.T) {
	service := NewWineService(nil, nil, nil, config.CatalogConfig{MaxImageBytes: 2 * mebibyte}, nil)
	assert.Equal(t, "image cannot exceed 2MB", service.imageTooLargeMessage())

	service = NewWineService(nil, nil, nil, config.CatalogConfig{MaxImageBytes: 1000}, nil)
	require.Equal(t, "image cannot exceed 1000 bytes", service.imageTooLargeMessage())
}
