package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"vision-worker-go/internal/api"
	"vision-worker-go/internal/api/handlers"
	"vision-worker-go/internal/config"
	"vision-worker-go/internal/helpers"
	"vision-worker-go/internal/logging"
	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services"
	"vision-worker-go/internal/services/broadcast"
	"vision-worker-go/internal/services/camera"
	"vision-worker-go/internal/services/camera/webcam"
	"vision-worker-go/internal/services/logbuffer"
	"vision-worker-go/internal/services/messaging"
	"vision-worker-go/internal/services/publisher/mjpeg"
)

func main() {
	cfg := config.Load()
	logging.Setup(cfg)

	log.Info().
		Str("worker_id", cfg.WorkerID).
		Str("version", cfg.Version).
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Bool("simulation_mode", cfg.SimulationMode).
		Str("engine", cfg.DetectionEngine).
		Msg("Starting vision worker")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logs := logbuffer.New(cfg.LogBufferSize, logging.NewServiceLogger(cfg, "logbuffer"))

	source := camera.New(ctx, camera.Options{
		Simulation: cfg.SimulationMode,
		Hardware: camera.HardwareConfig{
			Device: cfg.CameraDevice,
			Width:  cfg.ImageWidth,
			Height: cfg.ImageHeight,
			Warmup: cfg.CameraWarmup,
		},
		Open:   webcam.Open,
		Logs:   logs,
		Logger: logging.NewServiceLogger(cfg, "camera"),
	})

	container, err := services.NewServiceContainer(ctx, cfg, services.Dependencies{
		Source:  source,
		Factory: newFactory(cfg, logging.NewServiceLogger(cfg, "detection")),
		Logs:    logs,
		Logger:  logging.NewServiceLogger(cfg, "container"),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build service container")
	}

	publisher := mjpeg.NewPublisher(mjpeg.Options{
		Quality: cfg.JPEGQuality,
		FPS:     cfg.StreamFPS,
		Placeholder: func() *models.Frame {
			return helpers.MessageFrame(cfg.ImageWidth, cfg.ImageHeight, handlers.NoCaptureMessage)
		},
		Logger: logging.NewServiceLogger(cfg, "mjpeg"),
	})
	container.AddSink(publisher)
	container.OnShutdown(func(context.Context) error {
		publisher.Close()
		return nil
	})

	hub := broadcast.NewHub(cfg.WorkerID, logging.NewServiceLogger(cfg, "websocket"))
	container.AddSink(hub)
	container.OnShutdown(func(context.Context) error {
		hub.Close()
		return nil
	})

	streams := api.Streams{MJPEG: publisher, Hub: hub}
	if dispatcher := connectEvents(ctx, cfg, logs); dispatcher != nil {
		container.AddSink(dispatcher)
		container.OnShutdown(dispatcher.Shutdown)
		streams.Events = dispatcher
	}

	server := api.NewServer(cfg, container, streams)
	if err := server.Setup(); err != nil {
		log.Fatal().Err(err).Msg("Failed to setup API server")
	}

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			log.Error().Err(err).Msg("API server failed")
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	if err := container.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Service shutdown finished with errors")
		os.Exit(1)
	}
	log.Info().Msg("Shutdown complete")
}

// connectEvents returns nil when publishing is disabled or the broker is
// unreachable. Detection keeps running either way.
func connectEvents(ctx context.Context, cfg *config.Config, logs *logbuffer.Buffer) *messaging.Dispatcher {
	pub, err := messaging.Connect(ctx, cfg)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.EventsBackend).Msg("Event publishing disabled")
		logs.Warning("Event publishing disabled: "+err.Error(), "events_init")
		return nil
	}
	if pub == nil {
		return nil
	}
	return messaging.NewDispatcher(pub, cfg.EventsSubject, cfg.WorkerID, cfg.EventsBuffer, logging.NewServiceLogger(cfg, "events"))
}
