package detection

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"

	"vision-worker-go/internal/models"
)

// Simulated fabricates detections without a model. It never touches hardware
// or model artifacts.
type Simulated struct {
	mu         sync.Mutex
	rng        *rand.Rand
	classNames []string
	catalog    *Catalog
	model      string
}

// SimulatedOptions configure NewSimulated. A nil Rand is seeded randomly.
type SimulatedOptions struct {
	Catalog    *Catalog
	ClassNames []string
	Model      string
	Rand       *rand.Rand
}

func NewSimulated(opts SimulatedOptions) *Simulated {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	names := make([]string, len(opts.ClassNames))
	copy(names, opts.ClassNames)
	return &Simulated{
		rng:        rng,
		classNames: names,
		catalog:    opts.Catalog,
		model:      opts.Model,
	}
}

func (s *Simulated) Kind() Kind { return KindSimulated }

// Detect returns 1 to 5 detections with labels drawn from the class table and
// confidences in [0.5, 1.0] rounded to two decimals
func (s *Simulated) Detect(_ context.Context, _ *models.Frame, _ float64) ([]models.Detection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.classNames) == 0 {
		return []models.Detection{}, nil
	}
	n := 1 + s.rng.IntN(5)
	out := make([]models.Detection, 0, n)
	for range n {
		out = append(out, models.Detection{
			ClassName:  s.classNames[s.rng.IntN(len(s.classNames))],
			Confidence: math.Round((0.5+0.5*s.rng.Float64())*100) / 100,
		})
	}
	return out, nil
}

// Annotate returns an unmodified copy of frame
func (s *Simulated) Annotate(_ context.Context, frame *models.Frame, _ float64) (*models.Frame, error) {
	return frame.Clone(), nil
}

// ChangeModel only records the identifier; nothing is loaded
func (s *Simulated) ChangeModel(_ context.Context, id string) error {
	if _, ok := s.catalog.Lookup(id); !ok {
		return fmt.Errorf("%w: %s", ErrModelNotFound, id)
	}
	s.mu.Lock()
	s.model = id
	s.mu.Unlock()
	return nil
}

func (s *Simulated) CurrentModel() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.model
}

func (s *Simulated) AvailableModels() []string { return s.catalog.IDs() }

func (s *Simulated) IsLoaded() bool { return false }

func (s *Simulated) Close() error { return nil }
