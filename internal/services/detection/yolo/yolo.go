// Package yolo runs YOLOv8/YOLO11 ONNX exports through the OpenCV DNN module.
// It links gocv and therefore needs a native OpenCV install.
package yolo

import (
	"context"
	"fmt"
	"image"
	"os"

	"gocv.io/x/gocv"

	"vision-worker-go/internal/models"
	"vision-worker-go/internal/services/detection"
)

// Options tune preprocessing and box suppression
type Options struct {
	InputSize    int
	ScoreFloor   float32
	NMSThreshold float32
}

// Loader opens ONNX files as detection models on the CPU backend
type Loader struct {
	opts Options
}

func NewLoader(opts Options) *Loader {
	if opts.InputSize <= 0 {
		opts.InputSize = 640
	}
	if opts.ScoreFloor <= 0 {
		opts.ScoreFloor = 0.05
	}
	if opts.NMSThreshold <= 0 {
		opts.NMSThreshold = 0.45
	}
	return &Loader{opts: opts}
}

func (l *Loader) Load(_ context.Context, id, path string) (detection.Model, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model artifact for %s: %w", id, err)
	}

	net := gocv.ReadNetFromONNX(path)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("failed to read ONNX network from %s", path)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	return &model{net: net, opts: l.opts}, nil
}

type model struct {
	net  gocv.Net
	opts Options
}

// Infer expects output shaped [1, 4+classes, candidates] with cx, cy, w, h
// in input-size pixels followed by per-class scores
func (m *model) Infer(_ context.Context, frame *models.Frame) ([]detection.RawDetection, error) {
	if !frame.Valid() || frame.Channels != 3 {
		return nil, fmt.Errorf("invalid frame for inference")
	}

	img, err := gocv.NewMatFromBytes(frame.Height, frame.Width, gocv.MatTypeCV8UC3, frame.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to wrap frame: %w", err)
	}
	defer img.Close()

	size := m.opts.InputSize
	blob := gocv.BlobFromImage(img, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	m.net.SetInput(blob, "")
	out := m.net.Forward("")
	defer out.Close()

	dims := out.Size()
	if len(dims) != 3 || dims[1] <= 4 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	attrs, n := dims[1], dims[2]

	data, err := out.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read output tensor: %w", err)
	}

	sx := float32(frame.Width) / float32(size)
	sy := float32(frame.Height) / float32(size)

	var (
		boxes   []image.Rectangle
		scores  []float32
		classes []int
	)
	for i := 0; i < n; i++ {
		best, cls := float32(0), -1
		for c := 4; c < attrs; c++ {
			if s := data[c*n+i]; s > best {
				best, cls = s, c-4
			}
		}
		if best < m.opts.ScoreFloor {
			continue
		}

		cx, cy := data[i], data[n+i]
		w, h := data[2*n+i], data[3*n+i]
		boxes = append(boxes, image.Rect(
			int((cx-w/2)*sx), int((cy-h/2)*sy),
			int((cx+w/2)*sx), int((cy+h/2)*sy),
		))
		scores = append(scores, best)
		classes = append(classes, cls)
	}
	if len(boxes) == 0 {
		return []detection.RawDetection{}, nil
	}

	keep := gocv.NMSBoxes(boxes, scores, m.opts.ScoreFloor, m.opts.NMSThreshold)

	bounds := image.Rect(0, 0, frame.Width, frame.Height)
	result := make([]detection.RawDetection, 0, len(keep))
	for _, idx := range keep {
		r := boxes[idx].Intersect(bounds)
		result = append(result, detection.RawDetection{
			ClassID:    classes[idx],
			Confidence: float64(scores[idx]),
			Box:        models.Box{X1: r.Min.X, Y1: r.Min.Y, X2: r.Max.X, Y2: r.Max.Y},
		})
	}
	return result, nil
}

func (m *model) Close() error {
	return m.net.Close()
}
