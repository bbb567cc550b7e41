// Package webcam opens local cameras through gocv. It needs a native OpenCV
// install and is only linked by the worker binary.
package webcam

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gocv.io/x/gocv"

	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/camera"
)

// Webcam wraps a gocv VideoCapture. Reads are serialized.
type Webcam struct {
	mu  sync.Mutex
	cap *gocv.VideoCapture
	img gocv.Mat
}

// Open satisfies camera.Opener
func Open(ctx context.Context, cfg camera.HardwareConfig) (camera.Source, error) {
	log.Info().Str("device", cfg.Device).Msg("Opening camera with OpenCV VideoCapture")

	cap, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open %s: %v", camera.ErrHardwareUnavailable, cfg.Device, err)
	}
	if !cap.IsOpened() {
		cap.Close()
		return nil, fmt.Errorf("%w: video capture is not opened for %s", camera.ErrHardwareUnavailable, cfg.Device)
	}

	cap.Set(gocv.VideoCaptureBufferSize, 1)
	if cfg.Width > 0 && cfg.Height > 0 {
		cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
		cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	}

	log.Info().
		Str("device", cfg.Device).
		Float64("actual_fps", cap.Get(gocv.VideoCaptureFPS)).
		Float64("actual_width", cap.Get(gocv.VideoCaptureFrameWidth)).
		Float64("actual_height", cap.Get(gocv.VideoCaptureFrameHeight)).
		Msg("VideoCapture opened successfully with actual properties")

	// Sensor warm-up
	select {
	case <-time.After(cfg.Warmup):
	case <-ctx.Done():
		cap.Close()
		return nil, ctx.Err()
	}

	return &Webcam{cap: cap, img: gocv.NewMat()}, nil
}

func (w *Webcam) Capture(_ context.Context) (*models.Frame, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if ok := w.cap.Read(&w.img); !ok {
		return nil, fmt.Errorf("failed to read frame from VideoCapture")
	}
	if w.img.Empty() {
		return nil, fmt.Errorf("received empty frame from VideoCapture")
	}
	if w.img.Channels() != 3 {
		return nil, fmt.Errorf("unsupported channel count %d", w.img.Channels())
	}

	return &models.Frame{
		Width:     w.img.Cols(),
		Height:    w.img.Rows(),
		Channels:  3,
		Data:      w.img.ToBytes(),
		Timestamp: time.Now(),
	}, nil
}

func (w *Webcam) Simulated() bool { return false }

func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.img.Close()
	return w.cap.Close()
}
