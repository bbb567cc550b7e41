package detection

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"vision-worker-go/internal/models"
)

// Kind names a detection backend
type Kind string

const (
	KindSimulated Kind = "simulated"
	KindYOLO      Kind = "yolo"
	KindRemote    Kind = "remote"
)

// ParseKind normalizes user input such as " YOLO " to a Kind. It does not
// check that the kind is registered; Factory.Build does that.
func ParseKind(s string) Kind {
	return Kind(strings.ToLower(strings.TrimSpace(s)))
}

var (
	// ErrModelNotFound is returned when a model identifier is not in the catalog
	ErrModelNotFound = errors.New("model not found")
	// ErrUnknownKind is returned by the factory for unregistered engine kinds
	ErrUnknownKind = errors.New("unknown detection service kind")
	// ErrModelNotLoaded is returned by live engines that have no model handle
	ErrModelNotLoaded = errors.New("model not loaded")
)

// ModelLoadError reports a catalog entry whose artifact could not be loaded
type ModelLoadError struct {
	Model string
	Path  string
	Err   error
}

func (e *ModelLoadError) Error() string {
	return fmt.Sprintf("failed to load model %q from %s: %v", e.Model, e.Path, e.Err)
}

func (e *ModelLoadError) Unwrap() error { return e.Err }

// Engine turns frames into labelled detections. Implementations are safe for
// concurrent use.
type Engine interface {
	Kind() Kind
	// Detect runs inference and returns detections in emission order.
	// The result is never nil.
	Detect(ctx context.Context, frame *models.Frame, threshold float64) ([]models.Detection, error)
	// Annotate returns a copy of frame with fresh detections drawn on it
	Annotate(ctx context.Context, frame *models.Frame, threshold float64) (*models.Frame, error)
	// ChangeModel swaps the active model. On error the previous model stays active.
	ChangeModel(ctx context.Context, id string) error
	CurrentModel() string
	AvailableModels() []string
	IsLoaded() bool
	Close() error
}

// Params are the switch-time options passed to an engine constructor
type Params struct {
	Model string `json:"model"`
	// Simulation builds a simulated engine in place of the requested backend
	Simulation bool   `json:"simulation_mode"`
	Endpoint   string `json:"endpoint,omitempty"`
}
