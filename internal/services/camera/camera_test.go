package camera

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/logbuffer"
)

type stubSource struct{}

func (stubSource) Capture(context.Context) (*models.Frame, error) { return models.NewFrame(1, 1), nil }
func (stubSource) Simulated() bool { return false }
func (stubSource) Close() error { return nil }

func TestSyntheticFrameShape(t *testing.T) {
	s := NewSynthetic(0, 0)

	frame, err := s.Capture(context.Background())
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if frame.Width != DefaultWidth || frame.Height != DefaultHeight || frame.Channels != 3 {
		t.Fatalf("geometry = %dx%dx%d", frame.Width, frame.Height, frame.Channels)
	}
	if len(frame.Data) != DefaultWidth*DefaultHeight*3 {
		t.Fatalf("len(Data) = %d", len(frame.Data))
	}
	if frame.Timestamp.IsZero() {
		t.Error("timestamp not set")
	}
}

func TestSyntheticGradients(t *testing.T) {
	s := NewSynthetic(100, 50)
	frame, _ := s.Capture(context.Background())
	px := func(x, y int) []byte { i := (y*100 + x) * 3; return frame.Data[i : i+3] }

	// corners are outside the text area
	if p := px(0, 0); p[1] != 0 || p[2] != 0 {
		t.Errorf("top-left G,R = %d,%d, want 0,0", p[1], p[2])
	}
	if p := px(99, 49); p[1] != 255 || p[2] != 255 {
		t.Errorf("bottom-right G,R = %d,%d, want 255,255", p[1], p[2])
	}
	if p := px(99, 0); p[1] != 0 || p[2] != 255 {
		t.Errorf("top-right G,R = %d,%d, want 0,255", p[1], p[2])
	}
}

func TestSyntheticDrawsCaption(t *testing.T) {
	s := NewSynthetic(DefaultWidth, DefaultHeight)
	frame, _ := s.Capture(context.Background())

	var red int
	for y := 200; y < 245; y++ {
		for x := 50; x < 300; x++ {
			i := (y*DefaultWidth + x) * 3
			if frame.Data[i] == 0 && frame.Data[i+1] == 0 && frame.Data[i+2] == 255 {
				red++
			}
		}
	}
	if red == 0 {
		t.Error("caption not drawn near (50,240)")
	}
}

func TestSyntheticFramesAreIndependent(t *testing.T) {
	s := NewSynthetic(8, 8)
	a, _ := s.Capture(context.Background())
	b, _ := s.Capture(context.Background())
	if &a.Data[0] == &b.Data[0] {
		t.Error("frames share a buffer")
	}
}

func TestNewSimulation(t *testing.T) {
	opened := false
	src := New(context.Background(), Options{
		Simulation: true,
		Open: func(context.Context, HardwareConfig) (Source, error) {
			opened = true
			return stubSource{}, nil
		},
	})
	if !src.Simulated() {
		t.Error("Simulated() = false")
	}
	if opened {
		t.Error("hardware opened in simulation mode")
	}
}

func TestNewUsesHardware(t *testing.T) {
	src := New(context.Background(), Options{
		Open: func(context.Context, HardwareConfig) (Source, error) { return stubSource{}, nil },
	})
	if src.Simulated() {
		t.Error("fell back despite working opener")
	}
}

func TestNewFallsBackWithWarning(t *testing.T) {
	tests := []struct {
		name string
		open Opener
	}{
		{"no driver", nil},
		{"open fails", func(context.Context, HardwareConfig) (Source, error) {
			return nil, errors.New("no /dev/video0")
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs := logbuffer.New(0, zerolog.Nop())
			src := New(context.Background(), Options{
				Hardware: HardwareConfig{Device: "0", Width: 64, Height: 32},
				Open:     tt.open,
				Logs:     logs,
				Logger:   zerolog.Nop(),
			})

			if !src.Simulated() {
				t.Fatal("expected synthetic fallback")
			}
			frame, err := src.Capture(context.Background())
			if err != nil || frame.Width != 64 || frame.Height != 32 {
				t.Errorf("fallback frame = %+v, %v", frame, err)
			}
			warnings := logs.ByLevel(logbuffer.LevelWarning)
			if len(warnings) != 1 || !strings.Contains(warnings[0].Message, ErrHardwareUnavailable.Error()) {
				t.Errorf("warnings = %+v", warnings)
			}
		})
	}
}
