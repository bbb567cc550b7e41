package models

import "time"

// Box is a pixel-space bounding box, top-left inclusive
type Box struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// Detection is one recognized object instance
type Detection struct {
	ClassName  string  `json:"class_name"`
	Confidence float64 `json:"confidence"`
	BBox       *Box    `json:"bbox,omitempty"`
}

// CloneDetections copies a detection list so callers can't alias cached state.
// A nil or empty input yields an empty, non-nil slice.
func CloneDetections(in []Detection) []Detection {
	out := make([]Detection, len(in))
	for i, d := range in {
		out[i] = d
		if d.BBox != nil {
			b := *d.BBox
			out[i].BBox = &b
		}
	}
	return out
}

// CaptureResult is what one completed capture iteration produced
type CaptureResult struct {
	SessionID  string
	Seq        int64
	Frame      *Frame
	Detections []Detection
	EngineKind string
	Model      string
	Duration   time.Duration
}

// DetectionEvent is the wire payload fanned out to the event bus and websocket clients
type DetectionEvent struct {
	WorkerID   string      `json:"worker_id,omitempty"`
	SessionID  string      `json:"session_id"`
	Seq        int64       `json:"seq"`
	Timestamp  time.Time   `json:"timestamp"`
	EngineKind string      `json:"engine"`
	Model      string      `json:"model"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Detections []Detection `json:"detections"`
	LatencyMS  float64     `json:"latency_ms"`
}

// NewDetectionEvent flattens a capture result into its wire form
func NewDetectionEvent(workerID string, r CaptureResult) DetectionEvent {
	ev := DetectionEvent{
		WorkerID:   workerID,
		SessionID:  r.SessionID,
		Seq:        r.Seq,
		Timestamp:  time.Now(),
		EngineKind: r.EngineKind,
		Model:      r.Model,
		Detections: CloneDetections(r.Detections),
		LatencyMS:  float64(r.Duration.Microseconds()) / 1000.0,
	}
	if r.Frame != nil {
		ev.Timestamp = r.Frame.Timestamp
		ev.Width = r.Frame.Width
		ev.Height = r.Frame.Height
	}
	return ev
}
