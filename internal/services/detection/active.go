package detection

import "sync/atomic"

type engineRef struct{ Engine }

// Active holds the engine the capture loop reads once per iteration
type Active struct {
	p atomic.Pointer[engineRef]
}

func NewActive(e Engine) *Active {
	a := &Active{}
	a.p.Store(&engineRef{e})
	return a
}

// Load returns the current engine, or nil if none was ever stored
func (a *Active) Load() Engine {
	ref := a.p.Load()
	if ref == nil {
		return nil
	}
	return ref.Engine
}

// Swap installs e and returns the engine it replaced
func (a *Active) Swap(e Engine) Engine {
	old := a.p.Swap(&engineRef{e})
	if old == nil {
		return nil
	}
	return old.Engine
}
