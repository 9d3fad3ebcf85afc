package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/store"
)

// RootManager owns the process-wide storage root.
//
// The root is opened and seeded on the first EnsureRoot call. Readiness is a
// barrier: callers that arrive while the first open is in progress block on
// the same mutex and observe the root only once seeding has finished. After
// that, EnsureRoot is a lock-free atomic load.
//
// A failed open or seed is not cached. The half-initialised store is closed
// and the error is returned to every caller waiting on that attempt; the
// next call tries again.
type RootManager struct {
	open   store.OpenFunc
	quota  uint64
	seeder *Seeder

	// onOpen is notified of every open attempt (may be nil).
	onOpen func(err error)

	mu     sync.Mutex
	root   atomic.Pointer[rootState]
	closed bool
}

// rootState is the immutable ready state published by EnsureRoot.
type rootState struct {
	store  store.Store
	report *SeedReport
}

// NewRootManager creates a manager that opens roots with open, requesting
// quotaBytes, and seeds them with seeder (nil skips seeding).
func NewRootManager(open store.OpenFunc, quotaBytes uint64, seeder *Seeder) *RootManager {
	return &RootManager{
		open:   open,
		quota:  quotaBytes,
		seeder: seeder,
	}
}

// OnOpen registers fn to be called with the result of every open attempt.
// It must be called before the first EnsureRoot.
func (m *RootManager) OnOpen(fn func(err error)) {
	m.onOpen = fn
}

// EnsureRoot returns the ready root, opening and seeding it on first use.
func (m *RootManager) EnsureRoot(ctx context.Context) (store.Store, error) {
	if st := m.root.Load(); st != nil {
		return st.store, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have finished while we waited.
	if st := m.root.Load(); st != nil {
		return st.store, nil
	}
	if m.closed {
		return nil, ErrRootClosed
	}

	st, err := m.openAndSeed(ctx)
	if m.onOpen != nil {
		m.onOpen(err)
	}
	if err != nil {
		return nil, err
	}

	m.root.Store(st)
	return st.store, nil
}

func (m *RootManager) openAndSeed(ctx context.Context) (*rootState, error) {
	logger.Debug("Opening storage root (quota=%d bytes)", m.quota)

	s, err := m.open(ctx, m.quota)
	if err != nil {
		return nil, fmt.Errorf("open storage root: %w", err)
	}

	report := &SeedReport{}
	if m.seeder != nil {
		report, err = m.seeder.Seed(ctx, s)
		if err != nil {
			if closeErr := s.Close(); closeErr != nil {
				logger.Warn("Closing storage root after failed seed: %v", closeErr)
			}
			return nil, err
		}
	}

	logger.Info("Storage root ready: %d directories created, %d files written",
		report.DirectoriesCreated, report.FilesWritten)

	return &rootState{store: s, report: report}, nil
}

// Ready reports whether the root has been opened and seeded.
func (m *RootManager) Ready() bool {
	return m.root.Load() != nil
}

// Root returns the ready root, or nil when it is not ready.
func (m *RootManager) Root() store.Store {
	if st := m.root.Load(); st != nil {
		return st.store
	}
	return nil
}

// SeedReport returns the report of the seeding run that made the root ready,
// or nil when it is not ready.
func (m *RootManager) SeedReport() *SeedReport {
	if st := m.root.Load(); st != nil {
		return st.report
	}
	return nil
}

// Close closes the root at process shutdown. Later EnsureRoot calls fail
// with ErrRootClosed.
func (m *RootManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	st := m.root.Swap(nil)
	if st == nil {
		return nil
	}
	return st.store.Close()
}
