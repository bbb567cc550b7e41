package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"vision-worker-go/internal/logging"
	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/camera"
	"vision-worker-go/internal/services/detection"
	"vision-worker-go/internal/services/logbuffer"
)

const (
	DefaultInterval  = 100 * time.Millisecond
	DefaultThreshold = 0.3
)

// Sink receives every completed iteration. Publish must not block and must
// treat the result as read-only.
type Sink interface {
	Publish(result models.CaptureResult)
}

// SinkFunc adapts a function to Sink
type SinkFunc func(models.CaptureResult)

func (f SinkFunc) Publish(r models.CaptureResult) { f(r) }

// ErrNoEngine is returned by an iteration when no engine is installed
var ErrNoEngine = errors.New("no detection engine installed")

// Options configure a Service
type Options struct {
	Interval      time.Duration
	Threshold     float64
	LogDetections bool
	Logs          *logbuffer.Buffer
	Logger        zerolog.Logger
}

// Service owns the single capture worker. Start and Stop are idempotent and
// serialized; Stop returns after the worker has exited.
type Service struct {
	source  camera.Source
	engines *detection.Active
	store   *Store
	opts    Options

	state int32
	opMu  sync.Mutex

	mu              sync.Mutex
	cancel          context.CancelFunc
	done            chan struct{}
	sessionID       string
	startedAt       time.Time
	lastIterationAt time.Time
	lastErr         error

	iterations atomic.Int64
	seq        atomic.Int64

	sinksMu sync.RWMutex
	sinks   []Sink
}

func NewService(source camera.Source, engines *detection.Active, store *Store, opts Options) *Service {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	return &Service{
		source:  source,
		engines: engines,
		store:   store,
		opts:    opts,
	}
}

// AddSink registers a sink for all following iterations
func (s *Service) AddSink(sink Sink) {
	s.sinksMu.Lock()
	s.sinks = append(s.sinks, sink)
	s.sinksMu.Unlock()
}

func (s *Service) Store() *Store { return s.store }

func (s *Service) getState() models.CaptureState {
	switch atomic.LoadInt32(&s.state) {
	case stateRunning:
		return models.CaptureStateRunning
	case stateStopping:
		return models.CaptureStateStopping
	default:
		return models.CaptureStateStopped
	}
}

const (
	stateStopped int32 = iota
	stateRunning
	stateStopping
)

// Running reports whether a worker is active
func (s *Service) Running() bool {
	return atomic.LoadInt32(&s.state) == stateRunning
}

// Start launches the worker. It returns false if one is already running.
func (s *Service) Start() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if !atomic.CompareAndSwapInt32(&s.state, stateStopped, stateRunning) {
		return false
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	sessionID := uuid.NewString()

	s.mu.Lock()
	if s.cancel != nil {
		// previous worker ended on its own
		s.cancel()
	}
	s.cancel = cancel
	s.done = done
	s.sessionID = sessionID
	s.startedAt = time.Now()
	s.lastIterationAt = time.Time{}
	s.lastErr = nil
	s.mu.Unlock()
	s.iterations.Store(0)

	s.opts.Logger.Info().
		Str("session_id", sessionID).
		Dur("interval", s.opts.Interval).
		Bool("simulated_camera", s.source.Simulated()).
		Msg("Capture loop starting")

	go s.run(ctx, sessionID, done)
	return true
}

// Stop cancels the worker and waits for it to exit. It returns false if no
// worker was running.
func (s *Service) Stop() bool {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if done == nil {
		return false
	}

	stopped := atomic.CompareAndSwapInt32(&s.state, stateRunning, stateStopping)
	cancel()
	<-done

	s.mu.Lock()
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	return stopped
}

// Status is a snapshot of the loop lifecycle
func (s *Service) Status() models.CaptureStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := models.CaptureStatus{
		State:           s.getState(),
		SessionID:       s.sessionID,
		Iterations:      s.iterations.Load(),
		StartedAt:       s.startedAt,
		LastIterationAt: s.lastIterationAt,
		SimulatedCamera: s.source.Simulated(),
	}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}
	return st
}

// LastError is the error that ended the most recent worker, if any
func (s *Service) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Service) run(ctx context.Context, sessionID string, done chan struct{}) {
	logger := logging.WithSession(s.opts.Logger, sessionID)

	defer close(done)
	defer atomic.StoreInt32(&s.state, stateStopped)
	defer func() {
		if r := recover(); r != nil {
			s.fail(logger, fmt.Errorf("capture loop panic: %v", r))
		}
	}()

	// In-flight capture and inference are never interrupted
	work := context.WithoutCancel(ctx)
	timer := time.NewTimer(s.opts.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Int64("iterations", s.iterations.Load()).Msg("Capture loop stopped")
			return
		default:
		}

		if err := s.iterate(work, sessionID); err != nil {
			s.fail(logger, err)
			return
		}

		timer.Reset(s.opts.Interval)
		select {
		case <-ctx.Done():
			logger.Info().Int64("iterations", s.iterations.Load()).Msg("Capture loop stopped")
			return
		case <-timer.C:
		}
	}
}

func (s *Service) fail(logger zerolog.Logger, err error) {
	s.mu.Lock()
	s.lastErr = err
	s.mu.Unlock()

	logger.Error().Err(err).Msg("Capture loop ended")
	if s.opts.Logs != nil {
		s.opts.Logs.Error(fmt.Sprintf("Capture loop ended: %v", err), "capture_loop")
	}
}

func (s *Service) iterate(ctx context.Context, sessionID string) error {
	start := time.Now()

	frame, err := s.source.Capture(ctx)
	if err != nil {
		return fmt.Errorf("frame capture failed: %w", err)
	}

	// Read once so a concurrent swap applies from the next iteration
	engine := s.engines.Load()
	if engine == nil {
		return ErrNoEngine
	}
	detections, err := engine.Detect(ctx, frame, s.opts.Threshold)
	if err != nil {
		if s.engines.Load() != engine {
			// engine was replaced and closed mid-iteration
			s.opts.Logger.Debug().Err(err).Msg("Skipping iteration after engine swap")
			return nil
		}
		return fmt.Errorf("detection failed: %w", err)
	}

	seq := s.seq.Add(1)
	frame.Seq = seq
	s.store.Put(frame, detections, seq)

	now := time.Now()
	s.iterations.Add(1)
	s.mu.Lock()
	s.lastIterationAt = now
	s.mu.Unlock()

	if s.opts.LogDetections && s.opts.Logs != nil && len(detections) > 0 {
		s.opts.Logs.Detection(describe(detections), "capture_loop")
	}

	result := models.CaptureResult{
		SessionID:  sessionID,
		Seq:        seq,
		Frame:      frame,
		Detections: detections,
		EngineKind: string(engine.Kind()),
		Model:      engine.CurrentModel(),
		Duration:   now.Sub(start),
	}

	s.sinksMu.RLock()
	sinks := s.sinks
	s.sinksMu.RUnlock()
	for _, sink := range sinks {
		sink.Publish(result)
	}
	return nil
}

func describe(detections []models.Detection) string {
	parts := make([]string, len(detections))
	for i, d := range detections {
		parts[i] = fmt.Sprintf("%s (%.2f)", d.ClassName, d.Confidence)
	}
	return fmt.Sprintf("Detected %d objects: %s", len(detections), strings.Join(parts, ", "))
}
