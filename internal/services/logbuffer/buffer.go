package logbuffer

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultCapacity is the per-level entry limit
const DefaultCapacity = 1000

// TimestampLayout is the entry timestamp format
const TimestampLayout = "2006-01-02 15:04:05"

const unknownLevelSuffix = " [Logged with UNKNOWN level: defaulted to INFO]"

// Entry is one buffered log record
type Entry struct {
	Timestamp string `json:"timestamp"`
	Level     Level  `json:"level"`
	Message   string `json:"message"`
	Context   string `json:"context"`
}

// ring is a fixed-capacity FIFO; pushing into a full ring overwrites the oldest entry.
type ring struct {
	entries []Entry
	head    int
	size    int
}

func newRing(capacity int) *ring {
	return &ring{entries: make([]Entry, capacity)}
}

func (r *ring) push(e Entry) {
	idx := (r.head + r.size) % len(r.entries)
	r.entries[idx] = e
	if r.size < len(r.entries) {
		r.size++
		return
	}
	r.head = (r.head + 1) % len(r.entries)
}

func (r *ring) snapshot() []Entry {
	out := make([]Entry, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.entries[(r.head+i)%len(r.entries)]
	}
	return out
}

func (r *ring) reset() {
	clear(r.entries)
	r.head = 0
	r.size = 0
}

// Buffer keeps the most recent entries per level in memory for the logs API.
// Every entry is mirrored to zerolog.
type Buffer struct {
	mu       sync.Mutex
	rings    map[Level]*ring
	capacity int
	logger   zerolog.Logger
	now      func() time.Time
}

// New creates a buffer holding up to capacity entries per level. A
// non-positive capacity selects DefaultCapacity.
func New(capacity int, logger zerolog.Logger) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Buffer{
		rings:    make(map[Level]*ring, len(Levels)),
		capacity: capacity,
		logger:   logger,
		now:      time.Now,
	}
	for _, l := range Levels {
		b.rings[l] = newRing(capacity)
	}
	return b
}

// Capacity returns the per-level entry limit
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Log records an entry. It never fails: an unknown level is stored as INFO
// with a marker appended to the message.
func (b *Buffer) Log(level Level, message, context string) {
	if !level.IsValid() {
		level = LevelInfo
		message += unknownLevelSuffix
	}

	b.mu.Lock()
	entry := Entry{
		Timestamp: b.now().Format(TimestampLayout),
		Level:     level,
		Message:   message,
		Context:   context,
	}
	b.rings[level].push(entry)
	b.mu.Unlock()

	b.mirror(entry)
}

func (b *Buffer) Error(message, context string)     { b.Log(LevelError, message, context) }
func (b *Buffer) Warning(message, context string)   { b.Log(LevelWarning, message, context) }
func (b *Buffer) Info(message, context string)      { b.Log(LevelInfo, message, context) }
func (b *Buffer) Detection(message, context string) { b.Log(LevelDetection, message, context) }
func (b *Buffer) Decision(message, context string)  { b.Log(LevelDecision, message, context) }

// All returns a copy of every queue, keyed by level name. All five keys are
// always present.
func (b *Buffer) All() map[Level][]Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make(map[Level][]Entry, len(b.rings))
	for l, r := range b.rings {
		out[l] = r.snapshot()
	}
	return out
}

// ByLevel returns a copy of one queue, oldest first. Unknown levels yield an
// empty slice.
func (b *Buffer) ByLevel(level Level) []Entry {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rings[level]
	if !ok {
		return []Entry{}
	}
	return r.snapshot()
}

// Clear empties every queue
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, r := range b.rings {
		r.reset()
	}
}

func (b *Buffer) mirror(e Entry) {
	var ev *zerolog.Event
	switch e.Level {
	case LevelError:
		ev = b.logger.Error()
	case LevelWarning:
		ev = b.logger.Warn()
	case LevelDetection:
		ev = b.logger.Debug()
	default:
		ev = b.logger.Info()
	}
	ev.Str("level_tag", string(e.Level)).Str("context", e.Context).Msg(e.Message)
}
