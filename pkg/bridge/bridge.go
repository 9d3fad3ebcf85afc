// Package bridge implements the sandboxed filesystem bridge.
//
// It is built from three parts:
//   - RootManager opens the single storage root on first use and seeds it
//   - FS translates filesystem verbs into storage primitives and maps every
//     failure to a status.Code
//   - Bridge runs FS operations asynchronously and completes each one through
//     a callback that fires exactly once
//
// Usage:
//
//	roots := bridge.NewRootManager(memory.Open, 5<<20, bridge.NewSeeder(bridge.DefaultLayout(), false, 0))
//	b := bridge.New(roots, bridge.Options{})
//	defer b.Close()
//
//	b.WriteFile("/notes.txt", "hello", "utf8", func(code status.Code) {
//	    b.ReadFile("/notes.txt", "utf8", func(code status.Code, text string) {
//	        fmt.Println(code, text)
//	    })
//	})
package bridge

import (
	"context"
	"sync"
	"time"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/internal/ratelimiter"
	"github.com/marmos91/appshell/pkg/status"
)

// Options configures a Bridge.
type Options struct {
	// Metrics receives operation observations (nil = no-op).
	Metrics Metrics

	// Limiter throttles operation dispatch (nil = unlimited).
	Limiter *ratelimiter.RateLimiter
}

// Bridge is the asynchronous face of FS.
//
// Each call starts the operation and returns immediately. The callback runs
// on another goroutine once the operation has resolved, exactly once, even if
// the operation panics. Calls issued before the root is ready wait for it.
// A nil callback is allowed.
type Bridge struct {
	fs      *FS
	roots   *RootManager
	metrics Metrics
	limiter *ratelimiter.RateLimiter

	// ctx is the lifetime of dispatched operations; operations are never
	// cancelled individually.
	ctx context.Context

	// mu orders dispatch against Close so no operation is added to
	// inflight once Close has started waiting.
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates a Bridge over roots.
func New(roots *RootManager, opts Options) *Bridge {
	m := opts.Metrics
	if m == nil {
		m = noopMetrics{}
	}
	roots.OnOpen(m.RecordRootOpen)

	return &Bridge{
		fs:      NewFS(roots),
		roots:   roots,
		metrics: m,
		limiter: opts.Limiter,
		ctx:     context.Background(),
	}
}

// FS returns the synchronous operations behind the bridge.
func (b *Bridge) FS() *FS {
	return b.fs
}

// Roots returns the root manager.
func (b *Bridge) Roots() *RootManager {
	return b.roots
}

// dispatch runs op on its own goroutine and delivers the result to cb once.
func dispatch[T any](b *Bridge, op string, cb func(status.Code, T), run func(ctx context.Context) (T, status.Code)) {
	var once sync.Once
	complete := func(code status.Code, v T) {
		once.Do(func() {
			if cb != nil {
				cb(code, v)
			}
		})
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		logger.Warn("%s: bridge is closed", op)
		var zero T
		complete(status.ErrUnknown, zero)
		return
	}
	b.inflight.Add(1)
	b.mu.Unlock()

	go func() {
		defer b.inflight.Done()

		var zero T
		defer func() {
			if r := recover(); r != nil {
				logger.Error("%s panicked: %v", op, r)
				complete(status.ErrUnknown, zero)
			}
		}()

		if b.limiter != nil {
			if err := b.limiter.Wait(b.ctx); err != nil {
				logger.Error("%s: rate limiter: %v", op, err)
				complete(status.ErrUnknown, zero)
				return
			}
		}

		start := time.Now()
		v, code := run(b.ctx)
		b.metrics.RecordOperation(op, code, time.Since(start))

		complete(code, v)
	}()
}

// dispatchCode adapts single-argument callbacks to dispatch.
func dispatchCode(b *Bridge, op string, cb func(status.Code), run func(ctx context.Context) status.Code) {
	var wrapped func(status.Code, struct{})
	if cb != nil {
		wrapped = func(code status.Code, _ struct{}) { cb(code) }
	}
	dispatch(b, op, wrapped, func(ctx context.Context) (struct{}, status.Code) {
		return struct{}{}, run(ctx)
	})
}

// ReadDir lists a directory. See FS.ReadDir.
func (b *Bridge) ReadDir(path string, cb func(code status.Code, names []string)) {
	dispatch(b, "readdir", cb, func(ctx context.Context) ([]string, status.Code) {
		return b.fs.ReadDir(ctx, path)
	})
}

// MakeDir creates a directory. See FS.MakeDir.
func (b *Bridge) MakeDir(path string, mode uint32, cb func(code status.Code)) {
	dispatchCode(b, "makedir", cb, func(ctx context.Context) status.Code {
		return b.fs.MakeDir(ctx, path, mode)
	})
}

// Rename is unsupported. See FS.Rename.
func (b *Bridge) Rename(oldPath, newPath string, cb func(code status.Code)) {
	dispatchCode(b, "rename", cb, func(ctx context.Context) status.Code {
		return b.fs.Rename(ctx, oldPath, newPath)
	})
}

// Stat describes an entry. See FS.Stat.
func (b *Bridge) Stat(path string, cb func(code status.Code, stat Stat)) {
	dispatch(b, "stat", cb, func(ctx context.Context) (Stat, status.Code) {
		return b.fs.Stat(ctx, path)
	})
}

// ReadFile reads a file as text. See FS.ReadFile.
func (b *Bridge) ReadFile(path, encoding string, cb func(code status.Code, data string)) {
	dispatch(b, "readFile", cb, func(ctx context.Context) (string, status.Code) {
		return b.fs.ReadFile(ctx, path, encoding)
	})
}

// WriteFile writes a file. See FS.WriteFile.
func (b *Bridge) WriteFile(path, data, encoding string, cb func(code status.Code)) {
	dispatchCode(b, "writeFile", cb, func(ctx context.Context) status.Code {
		return b.fs.WriteFile(ctx, path, data, encoding)
	})
}

// Unlink is unsupported. See FS.Unlink.
func (b *Bridge) Unlink(path string, cb func(code status.Code)) {
	dispatchCode(b, "unlink", cb, func(ctx context.Context) status.Code {
		return b.fs.Unlink(ctx, path)
	})
}

// MoveToTrash removes an entry. See FS.MoveToTrash.
func (b *Bridge) MoveToTrash(path string, cb func(code status.Code)) {
	dispatchCode(b, "moveToTrash", cb, func(ctx context.Context) status.Code {
		return b.fs.MoveToTrash(ctx, path)
	})
}

// RefreshUsage reads quota consumption and reports it to the metrics sink.
func (b *Bridge) RefreshUsage(ctx context.Context) status.Code {
	usage, code := b.fs.Usage(ctx)
	if code != status.OK {
		return code
	}
	b.metrics.ObserveUsage(usage.UsedBytes, usage.QuotaBytes)
	return status.OK
}

// Wait blocks until every dispatched operation has delivered its callback.
func (b *Bridge) Wait() {
	b.inflight.Wait()
}

// Close waits for in-flight operations and closes the storage root.
// Operations issued after Close complete at once, on the calling goroutine,
// with ERR_UNKNOWN.
func (b *Bridge) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()

	b.Wait()
	return b.roots.Close()
}
