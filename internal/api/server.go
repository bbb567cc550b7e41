package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"vision-worker-go/internal/api/handlers"
	"vision-worker-go/internal/api/middleware"
	"vision-worker-go/internal/config"
	"vision-worker-go/internal/services"
	"vision-worker-go/internal/services/broadcast"
	"vision-worker-go/internal/services/publisher/mjpeg"
)

// Streams are the push surfaces fed by the capture loop. Events is optional
// and must be a nil interface when event publishing is disabled.
type Streams struct {
	MJPEG  *mjpeg.Publisher
	Hub    *broadcast.Hub
	Events handlers.EventStats
}

type Server struct {
	config *config.Config
	router *gin.Engine
	server *http.Server

	healthHandler    *handlers.HealthHandler
	workerHandler    *handlers.WorkerHandler
	captureHandler   *handlers.CaptureHandler
	detectionHandler *handlers.DetectionHandler
	logsHandler      *handlers.LogsHandler
	streamHandler    *handlers.StreamHandler
	systemHandler    *handlers.SystemHandler
}

func NewServer(cfg *config.Config, container *services.ServiceContainer, streams Streams) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	var clients handlers.ClientCounter
	if streams.Hub != nil {
		clients = streams.Hub
	}

	return &Server{
		config:           cfg,
		router:           router,
		healthHandler:    handlers.NewHealthHandler(container),
		workerHandler:    handlers.NewWorkerHandler(cfg, container),
		captureHandler:   handlers.NewCaptureHandler(container),
		detectionHandler: handlers.NewDetectionHandler(container),
		logsHandler:      handlers.NewLogsHandler(container),
		streamHandler:    handlers.NewStreamHandler(streams.MJPEG, streams.Hub),
		systemHandler:    handlers.NewSystemHandler(container, streams.Events, clients),
	}
}

func (s *Server) Setup() error {
	s.setupMiddleware()

	s.setupRoutes()

	s.setupSwagger()

	s.server = &http.Server{
		Addr:    s.config.Address(),
		Handler: s.router,
	}

	return nil
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recovery())
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.RequestContext())
	s.router.Use(middleware.Logger())
	s.router.Use(middleware.CORS())
}

// Start blocks until the server stops. A graceful Stop is not an error.
func (s *Server) Start() error {
	log.Info().Str("address", s.server.Addr).Msg("Starting vision worker API")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	log.Info().Msg("Stopping vision worker API")
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}
