// internal/router/router.go
package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/mywinecellar/cellar-api/internal/config"
	"github.com/mywinecellar/cellar-api/internal/handlers"
	"github.com/mywinecellar/cellar-api/internal/metrics"
	"github.com/mywinecellar/cellar-api/internal/middleware"
	"github.com/mywinecellar/cellar-api/internal/services"
	"github.com/mywinecellar/cellar-api/internal/utils"
)

const version = "1.0.0"

// Initialize builds the engine. The returned stop func releases background
// workers started for the routes and must be called on shutdown.
func Initialize(db *gorm.DB, cfg *config.Config, logger *logrus.Logger) (*gin.Engine, func(), error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	// Initialize services
	storageService, err := services.NewStorageService(cfg.AWS)
	if err != nil {
		return nil, nil, err
	}
	taxonomyService := services.NewTaxonomyService(db)
	wineService := services.NewWineService(db, taxonomyService, storageService, cfg.Catalog, logger)

	// Initialize handlers
	wineHandler := handlers.NewWineHandler(wineService)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(middleware.I18nMiddleware(cfg.I18n.DefaultLocale))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{
			"status":  "healthy",
			"version": version,
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group(cfg.Catalog.APIPrefix)
	uploads := []gin.HandlerFunc{}
	var limiters []*middleware.RateLimiter
	if cfg.RateLimit.Enabled {
		general := middleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.Burst)
		limiters = append(limiters, general)
		api.Use(general.Middleware())

		if perMinute := cfg.RateLimit.UploadsPerMinute; perMinute > 0 {
			upload := middleware.NewRateLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute)
			limiters = append(limiters, upload)
			uploads = append(uploads, upload.Middleware())
		}
	}
	stop := func() {
		for _, l := range limiters {
			l.Stop()
		}
	}

	if cfg.JWT.Enabled() {
		api.Use(middleware.AuthRequired(utils.NewTokenVerifier(cfg.JWT.SecretKey, cfg.JWT.Issuer)))
	} else {
		logger.Warn("JWT_SECRET not set, wine routes are unauthenticated")
	}

	// Wine routes
	wines := api.Group("/wines")
	{
		wines.POST("/new", wineHandler.CreateWine)
		wines.PUT("/:wineId/edit", wineHandler.EditWine)
		wines.PUT("/:wineId/image", append(uploads, wineHandler.UploadWineImage)...)
	}

	return r, stop, nil
}
