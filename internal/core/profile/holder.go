package profile

import (
	"sync/atomic"

	"github.com/denchenko/gmm/internal/core/domain"
)

// Holder keeps the current connection profile.
// The whole profile is swapped at once, readers never see a partial update.
type Holder struct {
	current atomic.Pointer[domain.ConnectionProfile]
}

// NewHolder creates an empty Holder.
func NewHolder() *Holder {
	return &Holder{}
}

// Load returns the current profile and whether one is set.
func (h *Holder) Load() (domain.ConnectionProfile, bool) {
	p := h.current.Load()
	if p == nil {
		return domain.ConnectionProfile{}, false
	}

	return *p, true
}

// Store replaces the current profile.
func (h *Holder) Store(p domain.ConnectionProfile) {
	h.current.Store(&p)
}

// Clear removes the current profile.
func (h *Holder) Clear() {
	h.current.Store(nil)
}
