package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/config"
	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/camera"
	"vision-worker-go/internal/services/capture"
	"vision-worker-go/internal/services/detection"
	"vision-worker-go/internal/services/logbuffer"
)

// Dependencies are the collaborators built by main
type Dependencies struct {
	Source  camera.Source
	Factory *detection.Factory
	Logs    *logbuffer.Buffer
	Logger  zerolog.Logger
}

// ServiceContainer owns the capture loop, the active engine and the log buffer
type ServiceContainer struct {
	Config  *config.Config
	Logs    *logbuffer.Buffer
	Factory *detection.Factory
	Camera  camera.Source
	Capture *capture.Service

	engines  *detection.Active
	switchMu sync.Mutex
	logger   zerolog.Logger

	closersMu sync.Mutex
	closers   []func(context.Context) error
}

// NewServiceContainer builds the initial engine and the capture loop. When the
// configured engine can't be built the container starts on the simulated one
// and logs the failure.
func NewServiceContainer(ctx context.Context, cfg *config.Config, deps Dependencies) (*ServiceContainer, error) {
	if deps.Source == nil || deps.Factory == nil {
		return nil, errors.New("service container needs a camera source and an engine factory")
	}
	logs := deps.Logs
	if logs == nil {
		logs = logbuffer.New(cfg.LogBufferSize, deps.Logger)
	}

	sc := &ServiceContainer{
		Config:  cfg,
		Logs:    logs,
		Factory: deps.Factory,
		Camera:  deps.Source,
		logger:  deps.Logger,
	}

	engine, err := sc.initialEngine(ctx)
	if err != nil {
		return nil, err
	}
	sc.engines = detection.NewActive(engine)

	sc.Capture = capture.NewService(deps.Source, sc.engines, capture.NewStore(), capture.Options{
		Interval:      cfg.CaptureInterval,
		Threshold:     cfg.DetectionThreshold,
		LogDetections: cfg.LogDetections,
		Logs:          logs,
		Logger:        deps.Logger.With().Str("component", "capture").Logger(),
	})

	return sc, nil
}

func (sc *ServiceContainer) initialEngine(ctx context.Context) (detection.Engine, error) {
	kind := detection.ParseKind(sc.Config.DetectionEngine)
	if sc.Config.SimulationMode {
		kind = detection.KindSimulated
	}
	params := detection.Params{Model: sc.Config.DefaultModel, Simulation: sc.Config.SimulationMode}

	engine, err := sc.Factory.Build(ctx, kind, params)
	if err == nil {
		sc.logger.Info().Str("engine", string(kind)).Str("model", engine.CurrentModel()).Msg("Detection engine ready")
		return engine, nil
	}
	if kind == detection.KindSimulated {
		return nil, fmt.Errorf("failed to build simulated engine: %w", err)
	}

	sc.logger.Error().Err(err).Str("engine", string(kind)).Msg("Detection engine unavailable, falling back to simulated")
	sc.Logs.Error(fmt.Sprintf("Failed to start %s engine: %v", kind, err), "startup")

	engine, simErr := sc.Factory.Build(ctx, detection.KindSimulated, params)
	if simErr != nil {
		return nil, fmt.Errorf("failed to build %s engine: %w", kind, err)
	}
	sc.Logs.Decision(fmt.Sprintf("Running simulated detection instead of %s", kind), "startup")
	return engine, nil
}

// Engine is the engine the next capture iteration will use
func (sc *ServiceContainer) Engine() detection.Engine {
	return sc.engines.Load()
}

// AddSink forwards capture results to sink
func (sc *ServiceContainer) AddSink(sink capture.Sink) {
	sc.Capture.AddSink(sink)
}

// OnShutdown registers fn to run during Shutdown, last registered first
func (sc *ServiceContainer) OnShutdown(fn func(context.Context) error) {
	sc.closersMu.Lock()
	sc.closers = append(sc.closers, fn)
	sc.closersMu.Unlock()
}

// StartCapture is idempotent; it reports whether a new worker was launched
func (sc *ServiceContainer) StartCapture() bool {
	return sc.Capture.Start()
}

// StopCapture is idempotent and returns once the worker has exited
func (sc *ServiceContainer) StopCapture() bool {
	return sc.Capture.Stop()
}

func (sc *ServiceContainer) CaptureStatus() models.CaptureStatus {
	return sc.Capture.Status()
}

func (sc *ServiceContainer) HasFrame() bool {
	return sc.Capture.Store().HasFrame()
}

func (sc *ServiceContainer) LatestFrame() *models.Frame {
	return sc.Capture.Store().Frame()
}

func (sc *ServiceContainer) LatestDetections() []models.Detection {
	return sc.Capture.Store().Detections()
}

// Latest returns the frame and detections of one iteration
func (sc *ServiceContainer) Latest() (*models.Frame, []models.Detection, int64, bool) {
	return sc.Capture.Store().Latest()
}

// DetectOnce runs the active engine on frame. A non-positive threshold uses
// the configured one. A failure on an engine that was switched out meanwhile
// is retried once on its replacement.
func (sc *ServiceContainer) DetectOnce(ctx context.Context, frame *models.Frame, threshold float64) ([]models.Detection, error) {
	t := sc.threshold(threshold)
	engine := sc.Engine()
	dets, err := engine.Detect(ctx, frame, t)
	if err != nil {
		if next := sc.Engine(); next != engine {
			return next.Detect(ctx, frame, t)
		}
	}
	return dets, err
}

// Annotate draws fresh detections from the active engine onto a copy of
// frame, retrying once like DetectOnce
func (sc *ServiceContainer) Annotate(ctx context.Context, frame *models.Frame, threshold float64) (*models.Frame, error) {
	t := sc.threshold(threshold)
	engine := sc.Engine()
	out, err := engine.Annotate(ctx, frame, t)
	if err != nil {
		if next := sc.Engine(); next != engine {
			return next.Annotate(ctx, frame, t)
		}
	}
	return out, err
}

func (sc *ServiceContainer) threshold(t float64) float64 {
	if t > 0 {
		return t
	}
	return sc.Config.DetectionThreshold
}

// ChangeModel swaps the model of the active engine
func (sc *ServiceContainer) ChangeModel(ctx context.Context, id string) error {
	sc.switchMu.Lock()
	defer sc.switchMu.Unlock()

	engine := sc.Engine()
	previous := engine.CurrentModel()
	if err := engine.ChangeModel(ctx, id); err != nil {
		return err
	}
	sc.Logs.Decision(fmt.Sprintf("Model changed from %s to %s", previous, id), "model_endpoint")
	return nil
}

// SwitchEngine builds a new engine and installs it for the next iteration.
// The previous engine is closed only after the swap succeeded.
func (sc *ServiceContainer) SwitchEngine(ctx context.Context, kind detection.Kind, params detection.Params) (detection.Engine, error) {
	if params.Model == "" {
		params.Model = sc.Config.DefaultModel
	}

	sc.switchMu.Lock()
	defer sc.switchMu.Unlock()

	next, err := sc.Factory.Build(ctx, kind, params)
	if err != nil {
		return nil, err
	}

	old := sc.engines.Swap(next)
	if old != nil {
		if err := old.Close(); err != nil {
			sc.logger.Warn().Err(err).Str("engine", string(old.Kind())).Msg("Failed to close previous engine")
		}
	}

	sc.logger.Info().Str("engine", string(next.Kind())).Str("model", next.CurrentModel()).Msg("Detection engine switched")
	sc.Logs.Decision(fmt.Sprintf("Switched detection service to %s (model %s)", next.Kind(), next.CurrentModel()), "detection_service_endpoint")
	return next, nil
}

func (sc *ServiceContainer) Log(level logbuffer.Level, message, logContext string) {
	sc.Logs.Log(level, message, logContext)
}

func (sc *ServiceContainer) AllLogs() map[logbuffer.Level][]logbuffer.Entry {
	return sc.Logs.All()
}

func (sc *ServiceContainer) LogsByLevel(level logbuffer.Level) []logbuffer.Entry {
	return sc.Logs.ByLevel(level)
}

func (sc *ServiceContainer) ClearLogs() {
	sc.Logs.Clear()
}

// Shutdown stops the loop, closes the engine and camera, then runs the
// registered closers
func (sc *ServiceContainer) Shutdown(ctx context.Context) error {
	sc.StopCapture()

	var errs []error
	if e := sc.Engine(); e != nil {
		if err := e.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close engine: %w", err))
		}
	}
	if err := sc.Camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}

	sc.closersMu.Lock()
	closers := sc.closers
	sc.closersMu.Unlock()
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
