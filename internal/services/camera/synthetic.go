package camera

import (
	"context"
	"image/color"
	"math/rand/v2"
	"sync"
	"time"

	"vision-worker-go/internal/helpers"
	"vision-worker-go/internal/models"
)

const (
	DefaultWidth  = 1200
	DefaultHeight = 640
)

var fakeTextColor = color.RGBA{R: 255, A: 255}

// Synthetic generates gradient frames labelled "Fake Frame"
type Synthetic struct {
	width, height int
	mu            sync.Mutex
	rng           *rand.Rand
	now           func() time.Time
}

func NewSynthetic(width, height int) *Synthetic {
	if width <= 0 {
		width = DefaultWidth
	}
	if height <= 0 {
		height = DefaultHeight
	}
	return &Synthetic{
		width:  width,
		height: height,
		rng:    rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		now:    time.Now,
	}
}

// Capture builds a new frame: G is the vertical gradient, R the horizontal
// one, and B their sum weighted by a random level, saturated at 255
func (s *Synthetic) Capture(_ context.Context) (*models.Frame, error) {
	s.mu.Lock()
	level := s.rng.Float64()
	s.mu.Unlock()

	frame := models.NewFrame(s.width, s.height)
	frame.Timestamp = s.now()

	horiz := gradient(s.width)
	for y, v := range gradient(s.height) {
		row := frame.Data[y*s.width*3:]
		for x, h := range horiz {
			b := level*float64(v) + level*float64(h)
			row[x*3] = uint8(min(b+0.5, 255))
			row[x*3+1] = v
			row[x*3+2] = h
		}
	}

	helpers.DrawTextScaled(helpers.NewCanvas(frame), "Fake Frame", 50, 240-3*13, 3, fakeTextColor)
	return frame, nil
}

func (s *Synthetic) Simulated() bool { return true }

func (s *Synthetic) Close() error { return nil }

// gradient spreads 0..255 evenly over n samples
func gradient(n int) []uint8 {
	out := make([]uint8, n)
	if n == 1 {
		return out
	}
	for i := range out {
		out[i] = uint8(i * 255 / (n - 1))
	}
	return out
}
