package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/status"
	"github.com/marmos91/appshell/pkg/store"
	"github.com/marmos91/appshell/pkg/store/memory"
)

// countingOpener wraps memory.Open, counting calls and optionally failing or
// blocking them.
type countingOpener struct {
	calls   atomic.Int32
	failFor int32
	gate    chan struct{}

	mu     sync.Mutex
	opened []*closeTracker
}

// closeTracker records whether the store was closed.
type closeTracker struct {
	store.Store
	closed atomic.Bool
}

func (c *closeTracker) Close() error {
	c.closed.Store(true)
	return c.Store.Close()
}

func (o *countingOpener) open(ctx context.Context, quotaBytes uint64) (store.Store, error) {
	n := o.calls.Add(1)
	if o.gate != nil {
		<-o.gate
	}
	if n <= o.failFor {
		return nil, errors.New("sandbox quota request denied")
	}
	s, err := memory.Open(ctx, quotaBytes)
	if err != nil {
		return nil, err
	}
	tracked := &closeTracker{Store: s}
	o.mu.Lock()
	o.opened = append(o.opened, tracked)
	o.mu.Unlock()
	return tracked, nil
}

func TestEnsureRootOpensOnce(t *testing.T) {
	opener := &countingOpener{}
	roots := NewRootManager(opener.open, 0, NewSeeder(DefaultLayout(), false, 0))
	defer func() { _ = roots.Close() }()

	const callers = 32
	results := make([]store.Store, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := roots.EnsureRoot(context.Background())
			assert.NoError(t, err)
			results[i] = s
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), opener.calls.Load())
	for _, s := range results {
		assert.Same(t, results[0], s)
	}
	assert.True(t, roots.Ready())
	assert.Same(t, results[0], roots.Root())
	require.NotNil(t, roots.SeedReport())
	assert.Equal(t, 10, roots.SeedReport().DirectoriesCreated)
}

func TestEnsureRootIsABarrier(t *testing.T) {
	opener := &countingOpener{gate: make(chan struct{})}
	roots := NewRootManager(opener.open, 0, NewSeeder(DefaultLayout(), false, 0))
	defer func() { _ = roots.Close() }()
	fs := NewFS(roots)

	const callers = 16
	codes := make(chan status.Code, callers)
	for i := 0; i < callers; i++ {
		go func() {
			text, code := fs.ReadFile(context.Background(), "/samples/root/Getting Started/index.html", "utf8")
			if code == status.OK && text != "Getting Started" {
				code = status.ErrCantRead
			}
			codes <- code
		}()
	}

	assert.False(t, roots.Ready())
	assert.Nil(t, roots.Root())
	close(opener.gate)

	for i := 0; i < callers; i++ {
		assert.Equal(t, status.OK, <-codes)
	}
	assert.Equal(t, int32(1), opener.calls.Load())
}

func TestEnsureRootRetriesAfterFailure(t *testing.T) {
	opener := &countingOpener{failFor: 1}
	roots := NewRootManager(opener.open, 0, nil)
	defer func() { _ = roots.Close() }()

	var attempts []error
	roots.OnOpen(func(err error) { attempts = append(attempts, err) })

	_, err := roots.EnsureRoot(context.Background())
	require.Error(t, err)
	assert.False(t, roots.Ready())

	s, err := roots.EnsureRoot(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, s)
	assert.Equal(t, int32(2), opener.calls.Load())

	require.Len(t, attempts, 2)
	assert.Error(t, attempts[0])
	assert.NoError(t, attempts[1])
}

func TestEnsureRootClosesStoreWhenSeedFails(t *testing.T) {
	opener := &countingOpener{}
	strict := NewSeeder(Layout{Files: []FileSeed{{Path: "/missing/parent.txt"}}}, false, 0)
	roots := NewRootManager(opener.open, 0, strict)

	_, err := roots.EnsureRoot(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.Len(t, opener.opened, 1)
	assert.True(t, opener.opened[0].closed.Load())
	assert.False(t, roots.Ready())
}

func TestCloseStopsFurtherOpens(t *testing.T) {
	opener := &countingOpener{}
	roots := NewRootManager(opener.open, 0, nil)

	_, err := roots.EnsureRoot(context.Background())
	require.NoError(t, err)

	require.NoError(t, roots.Close())
	assert.True(t, opener.opened[0].closed.Load())
	assert.False(t, roots.Ready())

	_, err = roots.EnsureRoot(context.Background())
	assert.ErrorIs(t, err, ErrRootClosed)

	assert.NoError(t, roots.Close())
}
