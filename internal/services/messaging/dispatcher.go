package messaging

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/config"
	"vision-worker-go/internal/models"
)

// Publisher is a message bus connection
type Publisher interface {
	Publish(subject string, data interface{}) error
	IsConnected() bool
	Shutdown(ctx context.Context) error
}

// Connect opens the publisher selected by EVENTS_BACKEND. It returns nil,
// nil for "none".
func Connect(ctx context.Context, cfg *config.Config) (Publisher, error) {
	switch cfg.EventsBackend {
	case "", "none":
		return nil, nil
	case "nats":
		s, err := NewService(cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "mqtt":
		e := NewEmitter(cfg)
		if err := e.Connect(ctx); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown events backend %q", cfg.EventsBackend)
	}
}

// Dispatcher is a capture sink that publishes detection events from its own
// goroutine. A full queue drops the event.
type Dispatcher struct {
	pub      Publisher
	subject  string
	workerID string
	logger   zerolog.Logger

	queue   chan models.DetectionEvent
	done    chan struct{}
	once    sync.Once
	sent    atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64
}

// NewDispatcher starts the publishing goroutine. Call Close to stop it.
func NewDispatcher(pub Publisher, subject, workerID string, buffer int, logger zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 32
	}
	d := &Dispatcher{
		pub:      pub,
		subject:  subject,
		workerID: workerID,
		logger:   logger,
		queue:    make(chan models.DetectionEvent, buffer),
		done:     make(chan struct{}),
	}
	go d.run()
	return d
}

// Publish enqueues the result without blocking
func (d *Dispatcher) Publish(r models.CaptureResult) {
	select {
	case <-d.done:
		return
	default:
	}

	select {
	case d.queue <- models.NewDetectionEvent(d.workerID, r):
	default:
		d.dropped.Add(1)
		d.logger.Debug().Int64("seq", r.Seq).Msg("Dropped detection event - publish buffer full")
	}
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case ev := <-d.queue:
			if err := d.pub.Publish(d.subject, ev); err != nil {
				d.failed.Add(1)
				d.logger.Warn().Err(err).Int64("seq", ev.Seq).Msg("Failed to publish detection event")
				continue
			}
			d.sent.Add(1)
		}
	}
}

// Stats reports sent, dropped and failed event counts
func (d *Dispatcher) Stats() (sent, dropped, failed int64) {
	return d.sent.Load(), d.dropped.Load(), d.failed.Load()
}

// Close stops the goroutine; queued events are discarded
func (d *Dispatcher) Close() {
	d.once.Do(func() { close(d.done) })
}

// Shutdown closes the dispatcher, then the bus connection
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.Close()
	return d.pub.Shutdown(ctx)
}
