package detection

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"vision-worker-go/internal/helpers"
	"vision-worker-go/internal/models"
)

// RawDetection is one backend result before thresholding and labelling
type RawDetection struct {
	ClassID    int
	Confidence float64
	Box        models.Box
}

// Model is a loaded inference handle
type Model interface {
	Infer(ctx context.Context, frame *models.Frame) ([]RawDetection, error)
	Close() error
}

// Loader opens the artifact at path as a Model
type Loader interface {
	Load(ctx context.Context, id, path string) (Model, error)
}

// LoaderFunc adapts a function to Loader
type LoaderFunc func(ctx context.Context, id, path string) (Model, error)

func (f LoaderFunc) Load(ctx context.Context, id, path string) (Model, error) {
	return f(ctx, id, path)
}

// LiveOptions configure NewLive
type LiveOptions struct {
	Catalog    *Catalog
	ClassNames []string
	Model      string
	Logger     zerolog.Logger
}

// Live runs a real model through a Loader-provided backend. inferMu
// serializes inference against handle swaps. stateMu guards the reported
// model id and loaded flag; writers hold both locks, so queries never wait
// on an in-flight Infer.
type Live struct {
	kind       Kind
	loader     Loader
	catalog    *Catalog
	classNames []string
	logger     zerolog.Logger

	inferMu sync.Mutex
	model   Model

	stateMu sync.RWMutex
	modelID string
	loaded  bool
}

// NewLive loads opts.Model and returns the engine. It fails with
// ErrModelNotFound or *ModelLoadError when the initial model is unusable.
func NewLive(ctx context.Context, kind Kind, loader Loader, opts LiveOptions) (*Live, error) {
	names := make([]string, len(opts.ClassNames))
	copy(names, opts.ClassNames)

	e := &Live{
		kind:       kind,
		loader:     loader,
		catalog:    opts.Catalog,
		classNames: names,
		logger:     opts.Logger.With().Str("engine", string(kind)).Logger(),
	}
	if err := e.ChangeModel(ctx, opts.Model); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Live) Kind() Kind { return e.kind }

func (e *Live) Detect(ctx context.Context, frame *models.Frame, threshold float64) ([]models.Detection, error) {
	e.inferMu.Lock()
	defer e.inferMu.Unlock()

	if e.model == nil {
		return nil, ErrModelNotLoaded
	}
	raw, err := e.model.Infer(ctx, frame)
	if err != nil {
		return nil, fmt.Errorf("inference with %s failed: %w", e.modelID, err)
	}

	out := make([]models.Detection, 0, len(raw))
	for _, r := range raw {
		if r.Confidence < threshold {
			continue
		}
		box := r.Box
		out = append(out, models.Detection{
			ClassName:  LabelFor(e.classNames, r.ClassID),
			Confidence: r.Confidence,
			BBox:       &box,
		})
	}
	return out, nil
}

func (e *Live) Annotate(ctx context.Context, frame *models.Frame, threshold float64) (*models.Frame, error) {
	dets, err := e.Detect(ctx, frame, threshold)
	if err != nil {
		return nil, err
	}
	return helpers.DrawDetections(frame, dets), nil
}

// ChangeModel loads id outside the lock so inference keeps running on the old
// handle meanwhile, then swaps and closes the old handle
func (e *Live) ChangeModel(ctx context.Context, id string) error {
	path, ok := e.catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}

	start := time.Now()
	m, err := e.loader.Load(ctx, id, path)
	if err != nil {
		return &ModelLoadError{Model: id, Path: path, Err: err}
	}

	e.inferMu.Lock()
	e.stateMu.Lock()
	old, oldID := e.model, e.modelID
	e.model, e.modelID, e.loaded = m, id, true
	e.stateMu.Unlock()
	e.inferMu.Unlock()

	e.logger.Info().
		Str("model", id).
		Str("path", path).
		Dur("load_time", time.Since(start)).
		Msg("Model loaded")

	if old != nil {
		if err := old.Close(); err != nil {
			e.logger.Warn().Err(err).Str("model", oldID).Msg("Failed to close previous model")
		}
	}
	return nil
}

func (e *Live) CurrentModel() string {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.modelID
}

func (e *Live) AvailableModels() []string { return e.catalog.IDs() }

func (e *Live) IsLoaded() bool {
	e.stateMu.RLock()
	defer e.stateMu.RUnlock()
	return e.loaded
}

// Close releases the model handle. The engine reports not loaded afterwards.
func (e *Live) Close() error {
	e.inferMu.Lock()
	e.stateMu.Lock()
	m := e.model
	e.model, e.loaded = nil, false
	e.stateMu.Unlock()
	e.inferMu.Unlock()

	if m == nil {
		return nil
	}
	return m.Close()
}
