package cache

import (
	"context"
	"sync"
	"time"

	"github.com/pim/backend/internal/domain/shared"
)

// entry represents a held lock with expiration
type entry struct {
	expiresAt time.Time
}

// InMemoryRunLock implements RunLock using an in-memory map
// This is suitable for single-instance deployments and testing
type InMemoryRunLock struct {
	mu        sync.Mutex
	entries   map[string]entry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryRunLock creates a new in-memory run lock
// It starts a background goroutine to clean up expired entries
func NewInMemoryRunLock() *InMemoryRunLock {
	lock := &InMemoryRunLock{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}

	lock.wg.Add(1)
	go lock.cleanupLoop()

	return lock
}

// Acquire attempts to take the lock for key with the given TTL
// Returns true if the lock was taken, false if another holder has it
func (l *InMemoryRunLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if e, exists := l.entries[key]; exists {
		if time.Now().Before(e.expiresAt) {
			return false, nil // Held by another run
		}
		// Entry exists but expired, will be overwritten
	}

	l.entries[key] = entry{
		expiresAt: time.Now().Add(ttl),
	}

	return true, nil
}

// Release frees the lock for key. Releasing an unheld lock is a no-op.
func (l *InMemoryRunLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	delete(l.entries, key)
	return nil
}

// Close stops the cleanup goroutine and releases resources
// Safe to call multiple times
func (l *InMemoryRunLock) Close() error {
	l.closeOnce.Do(func() {
		close(l.stopChan)
		l.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (l *InMemoryRunLock) cleanupLoop() {
	defer l.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case <-ticker.C:
			l.cleanup()
		}
	}
}

// cleanup removes expired entries
func (l *InMemoryRunLock) cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	for key, e := range l.entries {
		if now.After(e.expiresAt) {
			delete(l.entries, key)
		}
	}
}

// Size returns the number of held locks (for testing/monitoring)
func (l *InMemoryRunLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Ensure InMemoryRunLock implements RunLock
var _ shared.RunLock = (*InMemoryRunLock)(nil)
