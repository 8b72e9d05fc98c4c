package api

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/igocard/backend/config"
	"github.com/igocard/backend/internal/service"
)

// SetupAPI wires services and handlers onto the router. redisClient and
// s3Config may be nil; the profile service then runs without the lookup
// cache and without icon uploads.
func SetupAPI(router *gin.Engine, db *gorm.DB, redisClient *redis.Client, s3Config *config.S3Config, cfg *config.Config) {
	v1 := router.Group("/api/v1")
	{
		// Initialize services
		authService := service.NewAuthService(db, cfg.JWTSecret)
		var icons service.IconStore
		if s3Config != nil {
			icons = service.NewS3IconStore(s3Config)
		}
		profileService := service.NewProfileService(db, redisClient, icons, cfg.MaxSkillEntries)
		shareService := service.NewShareService(cfg.BaseURL)

		// Initialize handlers
		authHandler := NewAuthHandler(authService)
		profileHandler := NewProfileHandler(profileService, shareService, authService)

		// Register routes
		authHandler.RegisterRoutes(v1)
		profileHandler.RegisterRoutes(v1)
	}
}
