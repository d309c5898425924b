package devices

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mobile-next/idbtap/utils"
)

// Registry tracks open companions so they can be closed on shutdown.
type Registry struct {
	mu         sync.RWMutex
	companions map[string]Companion
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		companions: make(map[string]Companion),
	}
}

func registryKey(c Companion) string {
	return c.Backend() + "/" + c.ID()
}

// Register adds a companion for cleanup tracking.
func (r *Registry) Register(c Companion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.companions[registryKey(c)] = c
}

// Release forgets a companion that the caller already closed.
func (r *Registry) Release(c Companion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.companions, registryKey(c))
}

// Len returns the number of tracked companions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.companions)
}

// CloseAll closes every tracked companion and empties the registry. All
// companions are closed even when some fail.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.companions) == 0 {
		return nil
	}

	var errs []error
	for key, c := range r.companions {
		if err := c.Close(); err != nil {
			utils.Verbose("Error closing companion %s: %v", key, err)
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}

	r.companions = make(map[string]Companion)
	return errors.Join(errs...)
}
