package camera

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/logbuffer"
)

// ErrHardwareUnavailable is reported when no real camera could be opened
var ErrHardwareUnavailable = errors.New("camera hardware unavailable")

// Source produces frames. Capture blocks until a frame is ready.
type Source interface {
	Capture(ctx context.Context) (*models.Frame, error)
	Simulated() bool
	Close() error
}

// Opener opens a hardware camera. The webcam package provides the gocv one.
type Opener func(ctx context.Context, cfg HardwareConfig) (Source, error)

// HardwareConfig describes the device to open
type HardwareConfig struct {
	Device string
	Width  int
	Height int
	Warmup time.Duration
}

// Options configure New
type Options struct {
	Simulation bool
	Hardware   HardwareConfig
	Open       Opener
	Logs       *logbuffer.Buffer
	Logger     zerolog.Logger
}

// New returns a hardware source when possible and a Synthetic one otherwise.
// A failed hardware open is logged as a warning and never returned.
func New(ctx context.Context, opts Options) Source {
	width, height := opts.Hardware.Width, opts.Hardware.Height
	if opts.Simulation {
		opts.Logger.Info().Int("width", width).Int("height", height).Msg("Camera running in simulation mode")
		return NewSynthetic(width, height)
	}

	var err error
	if opts.Open == nil {
		err = fmt.Errorf("%w: no camera driver compiled in", ErrHardwareUnavailable)
	} else {
		var src Source
		if src, err = opts.Open(ctx, opts.Hardware); err == nil {
			opts.Logger.Info().Str("device", opts.Hardware.Device).Msg("Camera opened")
			return src
		}
		if !errors.Is(err, ErrHardwareUnavailable) {
			err = fmt.Errorf("%w: %v", ErrHardwareUnavailable, err)
		}
	}

	opts.Logger.Warn().Err(err).Str("device", opts.Hardware.Device).Msg("Falling back to synthetic frames")
	if opts.Logs != nil {
		opts.Logs.Warning(fmt.Sprintf("Camera unavailable, using fake frames: %v", err), "camera_init")
	}
	return NewSynthetic(width, height)
}
