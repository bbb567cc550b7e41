package config

import (
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 7926 {
		t.Errorf("Port = %d, want 7926", cfg.Port)
	}
	if cfg.CaptureInterval != 100*time.Millisecond {
		t.Errorf("CaptureInterval = %v, want 100ms", cfg.CaptureInterval)
	}
	if cfg.DetectionThreshold != 0.3 {
		t.Errorf("DetectionThreshold = %v, want 0.3", cfg.DetectionThreshold)
	}
	if cfg.LogBufferSize != 1000 {
		t.Errorf("LogBufferSize = %d, want 1000", cfg.LogBufferSize)
	}
	if len(cfg.ClassNames) != 52 {
		t.Errorf("len(ClassNames) = %d, want 52", len(cfg.ClassNames))
	}
	if cfg.ModelPaths["yolo11n"] != "models/best.onnx" {
		t.Errorf("ModelPaths = %v", cfg.ModelPaths)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("SIMULATION_MODE", "true")
	t.Setenv("CAPTURE_INTERVAL", "250ms")
	t.Setenv("DETECTION_THRESHOLD", "0.55")
	t.Setenv("CLASS_NAMES", "cat, dog ,,bird")
	t.Setenv("EVENTS_BACKEND", "NATS")
	t.Setenv("MODEL_PATHS", "small=a.onnx,big=b.onnx")

	cfg := Load()

	if cfg.Port != 9000 {
		t.Errorf("Port = %d, want 9000", cfg.Port)
	}
	if !cfg.SimulationMode {
		t.Error("SimulationMode = false, want true")
	}
	if cfg.CaptureInterval != 250*time.Millisecond {
		t.Errorf("CaptureInterval = %v", cfg.CaptureInterval)
	}
	if cfg.DetectionThreshold != 0.55 {
		t.Errorf("DetectionThreshold = %v", cfg.DetectionThreshold)
	}
	if want := []string{"cat", "dog", "bird"}; !reflect.DeepEqual(cfg.ClassNames, want) {
		t.Errorf("ClassNames = %v, want %v", cfg.ClassNames, want)
	}
	if cfg.EventsBackend != "nats" {
		t.Errorf("EventsBackend = %q, want nats", cfg.EventsBackend)
	}
	if want := []string{"small", "big"}; !reflect.DeepEqual(cfg.ModelOrder, want) {
		t.Errorf("ModelOrder = %v, want %v", cfg.ModelOrder, want)
	}
}

func TestInvalidValuesFallBackToDefaults(t *testing.T) {
	t.Setenv("PORT", "not-a-port")
	t.Setenv("CAPTURE_INTERVAL", "soon")
	t.Setenv("SIMULATION_MODE", "maybe")

	cfg := Load()

	if cfg.Port != 7926 {
		t.Errorf("Port = %d, want default", cfg.Port)
	}
	if cfg.CaptureInterval != 100*time.Millisecond {
		t.Errorf("CaptureInterval = %v, want default", cfg.CaptureInterval)
	}
	if cfg.SimulationMode {
		t.Error("SimulationMode = true, want default false")
	}
}

func TestParseModelPaths(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantPaths map[string]string
		wantOrder []string
	}{
		{"single", "yolo11n=models/best.onnx", map[string]string{"yolo11n": "models/best.onnx"}, []string{"yolo11n"}},
		{"skips malformed", "a=1,broken,=x,b=", map[string]string{"a": "1"}, []string{"a"}},
		{"duplicate keeps first position", "a=1,b=2,a=3", map[string]string{"a": "3", "b": "2"}, []string{"a", "b"}},
		{"empty", "", map[string]string{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, order := parseModelPaths(tt.in)
			if !reflect.DeepEqual(paths, tt.wantPaths) {
				t.Errorf("paths = %v, want %v", paths, tt.wantPaths)
			}
			if !reflect.DeepEqual(order, tt.wantOrder) {
				t.Errorf("order = %v, want %v", order, tt.wantOrder)
			}
		})
	}
}
