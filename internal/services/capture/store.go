package capture

import (
	"sync"

	"vision-worker-go/internal/models"
)

type slot struct {
	frame      *models.Frame
	detections []models.Detection
	seq        int64
}

// Store holds the latest frame and the detections computed from it. Both are
// always replaced together.
type Store struct {
	mu   sync.Mutex
	slot *slot
}

func NewStore() *Store {
	return &Store{}
}

// Put replaces the slot. The store takes ownership of frame; detections are
// copied.
func (s *Store) Put(frame *models.Frame, detections []models.Detection, seq int64) {
	next := &slot{
		frame:      frame,
		detections: models.CloneDetections(detections),
		seq:        seq,
	}

	s.mu.Lock()
	s.slot = next
	s.mu.Unlock()
}

func (s *Store) current() *slot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot
}

// Frame returns a copy of the latest frame, or nil before the first capture
func (s *Store) Frame() *models.Frame {
	cur := s.current()
	if cur == nil {
		return nil
	}
	return cur.frame.Clone()
}

// Detections returns a copy of the latest detections, never nil
func (s *Store) Detections() []models.Detection {
	cur := s.current()
	if cur == nil {
		return []models.Detection{}
	}
	return models.CloneDetections(cur.detections)
}

func (s *Store) HasFrame() bool {
	return s.current() != nil
}

// Latest returns copies of the frame and detections from one iteration
func (s *Store) Latest() (*models.Frame, []models.Detection, int64, bool) {
	cur := s.current()
	if cur == nil {
		return nil, []models.Detection{}, 0, false
	}
	return cur.frame.Clone(), models.CloneDetections(cur.detections), cur.seq, true
}
