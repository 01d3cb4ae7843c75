package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/your-org/facecat/internal/api/handlers"
	"github.com/your-org/facecat/internal/api/ws"
	"github.com/your-org/facecat/internal/auth"
)

// RouterConfig wires the HTTP surface together.
type RouterConfig struct {
	APIKey     string
	System     *handlers.SystemHandler
	Videos     *handlers.VideoHandler
	Detections *handlers.DetectionHandler
	Hub        *ws.Hub
}

// NewRouter builds the gin engine with all routes registered.
// Probes and metrics are unauthenticated; everything under /v1
// requires the API key when one is configured.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	r.GET("/healthz", cfg.System.Healthz)
	r.GET("/readyz", cfg.System.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	v1.Use(auth.APIKeyMiddleware(cfg.APIKey))
	{
		v1.POST("/videos", cfg.Videos.ProcessUpload)
		v1.POST("/videos/path", cfg.Videos.ProcessPath)
		v1.GET("/outputs/:name", cfg.Videos.DownloadOutput)

		v1.GET("/detections", cfg.Detections.List)
		v1.GET("/detections/:id", cfg.Detections.Get)
		v1.GET("/detections/:id/face", cfg.Detections.Face)
		v1.DELETE("/detections", cfg.Detections.Clear)

		v1.GET("/ws", cfg.Hub.HandleWS)
	}

	return r
}
