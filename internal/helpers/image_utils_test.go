package helpers

import (
	"errors"
	"image/color"
	"testing"

	"vision-worker-go/internal/models"
)

func TestCanvasRoundTripsBGR(t *testing.T) {
	frame := models.NewFrame(4, 2)
	c := NewCanvas(frame)

	c.Set(1, 1, color.RGBA{R: 10, G: 20, B: 30, A: 255})

	i := (1*4 + 1) * 3
	if frame.Data[i] != 30 || frame.Data[i+1] != 20 || frame.Data[i+2] != 10 {
		t.Errorf("BGR bytes = %v, want [30 20 10]", frame.Data[i:i+3])
	}
	if got := c.At(1, 1); got != (color.RGBA{R: 10, G: 20, B: 30, A: 255}) {
		t.Errorf("At = %v", got)
	}

	// out of bounds is ignored
	c.Set(99, 99, color.White)
	if got := c.At(-1, 0); got != (color.RGBA{}) {
		t.Errorf("At(out of bounds) = %v", got)
	}
}

func TestEncodeDecodeJPEG(t *testing.T) {
	frame := MessageFrame(64, 32, "hi")

	data, err := EncodeJPEG(frame, HighQuality)
	if err != nil {
		t.Fatalf("EncodeJPEG: %v", err)
	}
	if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
		t.Fatalf("output is not JPEG")
	}

	decoded, err := DecodeImage(data)
	if err != nil {
		t.Fatalf("DecodeImage: %v", err)
	}
	if decoded.Width != 64 || decoded.Height != 32 || decoded.Channels != 3 {
		t.Errorf("decoded geometry = %dx%dx%d", decoded.Width, decoded.Height, decoded.Channels)
	}
	if !decoded.Valid() {
		t.Error("decoded frame is not valid")
	}
}

func TestEncodeRejectsInvalidFrame(t *testing.T) {
	if _, err := EncodeJPEG(&models.Frame{Width: 2, Height: 2, Channels: 3, Data: []byte{1}}, 80); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestDecodeImageErrors(t *testing.T) {
	for name, in := range map[string][]byte{
		"empty":   nil,
		"garbage": []byte("definitely not an image"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeImage(in)
			if !errors.Is(err, ErrDecode) {
				t.Errorf("err = %v, want ErrDecode", err)
			}
		})
	}
}

func TestDrawDetectionsLeavesSourceUntouched(t *testing.T) {
	frame := models.NewFrame(40, 40)
	dets := []models.Detection{
		{ClassName: "AS", Confidence: 0.9, BBox: &models.Box{X1: 5, Y1: 5, X2: 30, Y2: 30}},
		{ClassName: "no-box", Confidence: 0.7},
	}

	out := DrawDetections(frame, dets)

	for _, b := range frame.Data {
		if b != 0 {
			t.Fatal("source frame was modified")
		}
	}
	c := NewCanvas(out)
	if got := c.At(5, 5); got != Palette[0] {
		t.Errorf("box corner = %v, want %v", got, Palette[0])
	}
	if got := c.At(15, 27); got != (color.RGBA{A: 255}) {
		t.Errorf("box interior = %v, want black", got)
	}
}

func TestMessageFrameBackground(t *testing.T) {
	frame := MessageFrame(200, 100, "Capture not started")
	if got := NewCanvas(frame).At(0, 0); got != (color.RGBA{R: 50, G: 50, B: 50, A: 255}) {
		t.Errorf("corner = %v, want gray 50", got)
	}
	var white int
	c := NewCanvas(frame)
	for y := 0; y < 100; y++ {
		for x := 0; x < 200; x++ {
			if c.At(x, y) == color.Color(color.RGBA{R: 255, G: 255, B: 255, A: 255}) {
				white++
			}
		}
	}
	if white == 0 {
		t.Error("no text pixels rendered")
	}
}

func TestDrawTextScaledStaysInTarget(t *testing.T) {
	frame := models.NewFrame(300, 100)
	c := NewCanvas(frame)
	red := color.RGBA{R: 255, A: 255}

	DrawTextScaled(c, "Fake", 10, 10, 3, red)

	var hits int
	for y := 0; y < 100; y++ {
		for x := 0; x < 300; x++ {
			if c.At(x, y) == color.Color(red) {
				hits++
				if x < 10 || y < 10 || x >= 10+TextWidth("Fake")*3 || y >= 10+13*3 {
					t.Fatalf("pixel (%d,%d) outside scaled text box", x, y)
				}
			}
		}
	}
	if hits == 0 {
		t.Error("no text pixels rendered")
	}
}
