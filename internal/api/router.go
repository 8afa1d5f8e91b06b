package api

import (
	"github.com/gin-gonic/gin"
	"github.com/timmy/captionly/internal/api/handler"
	"github.com/timmy/captionly/internal/api/middleware"
	"github.com/timmy/captionly/internal/config"
	"github.com/timmy/captionly/internal/logger"
	"github.com/timmy/captionly/internal/service"
)

// RouterDeps groups what the HTTP layer needs.
type RouterDeps struct {
	Captions  *service.CaptionService
	Validator *service.Validator
	Logger    *logger.Logger
}

// SetupRouter configures the Gin router with all routes
func SetupRouter(cfg *config.ServerConfig, deps RouterDeps) *gin.Engine {
	switch cfg.Mode {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.DebugMode)
	}

	r := gin.New()
	// multipart parts above this size are spooled to temp files
	r.MaxMultipartMemory = deps.Validator.MaxImageBytes() + (1 << 20)

	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:  cfg.CORS.AllowedOrigins,
		AllowAllOrigins: cfg.CORS.AllowAllOrigins,
	}))

	healthHandler := handler.NewHealthHandler()
	captionHandler := handler.NewCaptionHandler(deps.Captions, deps.Validator)

	r.GET("/health", healthHandler.Health)

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/captions/generate", captionHandler.Generate)
		apiGroup.GET("/captions", captionHandler.List)
		apiGroup.GET("/captions/:id", captionHandler.Get)
		apiGroup.GET("/tones", captionHandler.Tones)
	}

	return r
}
