package bridge

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/store"
)

// FileSeed is a seed file and its initial content.
type FileSeed struct {
	Path    string `mapstructure:"path" yaml:"path" json:"path" validate:"required,startswith=/"`
	Content string `mapstructure:"content" yaml:"content" json:"content"`
}

// Layout is the set of entries a fresh storage root is populated with.
type Layout struct {
	// Directories are created in listed order within each depth.
	Directories []string

	Files []FileSeed
}

// DefaultLayout returns the reference seed layout.
func DefaultLayout() Layout {
	return Layout{
		Directories: []string{
			"/samples",
			"/samples/root",
			"/samples/root/Getting Started",
			"/extensions",
			"/extensions/default",
			"/extensions/dev",
			"/AppSupport",
			"/AppSupport/extensions",
			"/AppSupport/extensions/user",
			"/.git",
		},
		Files: []FileSeed{
			{Path: "/samples/root/Getting Started/index.html", Content: "Getting Started"},
			{Path: "/.git/HEAD", Content: "V1"},
		},
	}
}

// SeedReport summarises one seeding run.
type SeedReport struct {
	DirectoriesCreated  int
	DirectoriesExisting int
	FilesWritten        int
	FilesExisting       int

	// Collisions are seed paths occupied by an entry of the other kind.
	Collisions []string

	// Skipped are seed paths beneath a collision, which cannot be created.
	Skipped []string
}

// Seeder populates a storage root with a Layout.
//
// Seeding is idempotent: existing directories are kept, existing files are
// never overwritten, so re-running it against a seeded root changes nothing.
type Seeder struct {
	layout Layout

	// strict turns collisions into seeding failures.
	strict bool

	// concurrency bounds the fan-out of each phase (0 = unbounded).
	concurrency int
}

// NewSeeder creates a Seeder for layout.
func NewSeeder(layout Layout, strict bool, concurrency int) *Seeder {
	return &Seeder{layout: layout, strict: strict, concurrency: concurrency}
}

// seedRun carries the shared state of one Seed call.
type seedRun struct {
	mu      sync.Mutex
	report  SeedReport
	errs    []error
	blocked []string
}

func (r *seedRun) fail(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

// isBlocked reports whether p lies beneath a collided directory path.
// Caller must hold r.mu.
func (r *seedRun) isBlocked(p string) bool {
	for _, b := range r.blocked {
		if store.IsWithin(b, p) && p != b {
			return true
		}
	}
	return false
}

// Seed applies the layout to s and returns once every sub-operation has
// resolved.
//
// Phase 1 creates directories, one errgroup wave per depth so that parents
// always exist before their children. Phase 2 creates every seed file
// exclusively and writes its content; "already exists" counts as success.
//
// Collisions are logged and reported; in strict mode they also fail the run.
// All other failures are joined into the returned error, alongside a report
// of what did succeed.
func (s *Seeder) Seed(ctx context.Context, st store.Store) (*SeedReport, error) {
	run := &seedRun{}

	for _, wave := range directoryWaves(s.layout.Directories) {
		g := new(errgroup.Group)
		if s.concurrency > 0 {
			g.SetLimit(s.concurrency)
		}
		for _, dir := range wave {
			g.Go(func() error {
				s.seedDirectory(ctx, st, run, dir)
				return nil
			})
		}
		_ = g.Wait()
	}

	g := new(errgroup.Group)
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for _, file := range s.layout.Files {
		g.Go(func() error {
			s.seedFile(ctx, st, run, file)
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(run.report.Collisions)
	sort.Strings(run.report.Skipped)

	if s.strict {
		for _, p := range run.report.Collisions {
			run.errs = append(run.errs, fmt.Errorf("%s: %w", p, ErrSeedCollision))
		}
	}

	report := run.report
	if err := errors.Join(run.errs...); err != nil {
		return &report, fmt.Errorf("seeding failed: %w", err)
	}

	logger.Debug("Seeded storage root: dirs created=%d existing=%d, files written=%d existing=%d, collisions=%d",
		report.DirectoriesCreated, report.DirectoriesExisting,
		report.FilesWritten, report.FilesExisting, len(report.Collisions))

	return &report, nil
}

func (s *Seeder) seedDirectory(ctx context.Context, st store.Store, run *seedRun, dir string) {
	run.mu.Lock()
	blocked := run.isBlocked(dir)
	if blocked {
		run.report.Skipped = append(run.report.Skipped, dir)
	}
	run.mu.Unlock()
	if blocked {
		return
	}

	_, err := st.GetDirectory(ctx, dir, store.LookupOptions{Create: true, Exclusive: true})

	run.mu.Lock()
	defer run.mu.Unlock()

	switch {
	case err == nil:
		run.report.DirectoriesCreated++
	case errors.Is(err, store.ErrExists):
		run.report.DirectoriesExisting++
	case errors.Is(err, store.ErrTypeMismatch):
		logger.Warn("Seed directory %q exists as a file; leaving it in place", dir)
		run.report.Collisions = append(run.report.Collisions, dir)
		run.blocked = append(run.blocked, dir)
	default:
		run.errs = append(run.errs, fmt.Errorf("create directory %s: %w", dir, err))
		run.blocked = append(run.blocked, dir)
	}
}

func (s *Seeder) seedFile(ctx context.Context, st store.Store, run *seedRun, file FileSeed) {
	run.mu.Lock()
	blocked := run.isBlocked(file.Path)
	if blocked {
		run.report.Skipped = append(run.report.Skipped, file.Path)
	}
	run.mu.Unlock()
	if blocked {
		return
	}

	_, err := st.GetFile(ctx, file.Path, store.LookupOptions{Create: true, Exclusive: true})
	switch {
	case errors.Is(err, store.ErrExists):
		run.mu.Lock()
		run.report.FilesExisting++
		run.mu.Unlock()
		return
	case errors.Is(err, store.ErrTypeMismatch):
		logger.Warn("Seed file %q exists as a directory; leaving it in place", file.Path)
		run.mu.Lock()
		run.report.Collisions = append(run.report.Collisions, file.Path)
		run.mu.Unlock()
		return
	case err != nil:
		run.fail(fmt.Errorf("create file %s: %w", file.Path, err))
		return
	}

	if _, err := st.WriteFile(ctx, file.Path, []byte(file.Content)); err != nil {
		// An empty seed file would count as existing on the next run.
		if rerr := st.Remove(context.WithoutCancel(ctx), file.Path); rerr != nil {
			err = errors.Join(err, fmt.Errorf("remove partial seed file: %w", rerr))
		}
		run.fail(fmt.Errorf("write file %s: %w", file.Path, err))
		return
	}

	run.mu.Lock()
	run.report.FilesWritten++
	run.mu.Unlock()
}

// directoryWaves returns the listed directories plus any missing ancestors,
// grouped by depth. Listed order is preserved within a wave.
func directoryWaves(dirs []string) [][]string {
	seen := make(map[string]bool)
	var ordered []string

	add := func(p string) {
		if p == store.Root || seen[p] {
			return
		}
		seen[p] = true
		ordered = append(ordered, p)
	}

	for _, raw := range dirs {
		p, err := store.CleanPath(raw)
		if err != nil {
			logger.Warn("Ignoring invalid seed directory %q: %v", raw, err)
			continue
		}
		parts := store.Components(p)
		for i := 1; i < len(parts); i++ {
			add("/" + strings.Join(parts[:i], "/"))
		}
		add(p)
	}

	var waves [][]string
	for _, p := range ordered {
		depth := len(store.Components(p))
		for len(waves) < depth {
			waves = append(waves, nil)
		}
		waves[depth-1] = append(waves[depth-1], p)
	}
	return waves
}
