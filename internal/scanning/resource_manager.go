package scanning

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ResourceManager bounds how many scans may run at once on one Scanner.
// Each scan owns its own worker pool, so this caps total socket usage.
type ResourceManager interface {
	// Acquire blocks until a slot is free or ctx is done.
	Acquire(ctx context.Context, scanID string) error
	// Release frees the slot held by scanID. Unknown IDs are ignored.
	Release(scanID string)
}

// FixedResourceManager implements ResourceManager with a fixed number of slots.
type FixedResourceManager struct {
	sem         *semaphore.Weighted
	mutex       sync.Mutex
	activeScans map[string]time.Time
}

// NewFixedResourceManager creates a resource manager with capacity slots.
func NewFixedResourceManager(capacity int) *FixedResourceManager {
	if capacity <= 0 {
		capacity = 1
	}
	return &FixedResourceManager{
		sem:         semaphore.NewWeighted(int64(capacity)),
		activeScans: make(map[string]time.Time),
	}
}

// Acquire implements ResourceManager.
func (rm *FixedResourceManager) Acquire(ctx context.Context, scanID string) error {
	if err := rm.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	rm.mutex.Lock()
	defer rm.mutex.Unlock()
	rm.activeScans[scanID] = time.Now()
	return nil
}

// Release implements ResourceManager.
func (rm *FixedResourceManager) Release(scanID string) {
	rm.mutex.Lock()
	defer rm.mutex.Unlock()

	if _, exists := rm.activeScans[scanID]; exists {
		delete(rm.activeScans, scanID)
		rm.sem.Release(1)
	}
}
