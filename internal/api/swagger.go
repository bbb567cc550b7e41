package api

import (
	"net/http"

	"vision-worker-go/docs"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (s *Server) setupSwagger() {
	docs.SwaggerInfo.Version = s.config.Version
	docs.SwaggerInfo.Host = s.config.SwaggerHost

	s.router.GET("/api/info", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"title":       docs.SwaggerInfo.Title,
			"version":     s.config.Version,
			"description": docs.SwaggerInfo.Description,
			"swagger_ui":  "/docs/index.html",
			"endpoints": gin.H{
				"health":            "/health",
				"worker_info":       "/",
				"capture":           []string{"/start_capture", "/stop_capture", "/capture/status"},
				"frames":            []string{"/frame", "/unprocessed_frame", "/stream"},
				"detections":        "/detections",
				"detect":            "/detect",
				"model":             "/model",
				"detection_service": "/detection-service",
				"websocket":         "/ws/detections",
				"logs":              "/logs",
				"system":            "/system/stats",
			},
			"worker_id": s.config.WorkerID,
			"port":      s.config.Port,
		})
	})

	s.router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.router.GET("/docs", func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "/docs/index.html")
	})
}
