package classifier

import (
	"sync/atomic"

	"github.com/okian/wicket/internal/domain/features"
)

// installed pairs a model with the generation it was installed at.
type installed struct {
	model      Model
	generation uint64
}

// Holder owns the current model. Installs are atomic pointer swaps so
// readers never observe a partially updated classifier.
type Holder struct {
	current atomic.Pointer[installed]
	gen     atomic.Uint64
}

// NewHolder returns an empty holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Store installs m and returns its generation.
func (h *Holder) Store(m Model) uint64 {
	g := h.gen.Add(1)
	h.current.Store(&installed{model: m, generation: g})
	return g
}

// Load returns the installed model, if any.
func (h *Holder) Load() (Model, bool) {
	cur := h.current.Load()
	if cur == nil {
		return nil, false
	}
	return cur.model, true
}

// Generation returns the generation of the installed model, 0 when none.
func (h *Holder) Generation() uint64 {
	cur := h.current.Load()
	if cur == nil {
		return 0
	}
	return cur.generation
}

// Trained reports whether a model is installed.
func (h *Holder) Trained() bool {
	return h.current.Load() != nil
}

// Predict runs the installed model on v.
func (h *Holder) Predict(v features.Vector) (bool, error) {
	m, ok := h.Load()
	if !ok {
		return false, ErrUntrained
	}
	return m.Predict(v), nil
}

// Reset removes the installed model. The generation counter keeps counting.
func (h *Holder) Reset() {
	h.current.Store(nil)
}
