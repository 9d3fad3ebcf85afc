package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/store"
	"github.com/marmos91/appshell/pkg/store/memory"
)

func newMemoryStore(t *testing.T, quotaBytes uint64) store.Store {
	t.Helper()
	s, err := memory.New(context.Background(), quotaBytes)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// snapshot returns every path in s mapped to its file content ("" for directories).
func snapshot(t *testing.T, s store.Store) map[string]string {
	t.Helper()
	ctx := context.Background()
	out := make(map[string]string)

	var walk func(dir string)
	walk = func(dir string) {
		entries, err := s.ReadDir(ctx, dir)
		require.NoError(t, err)
		for _, e := range entries {
			if e.IsDir() {
				out[e.Path+"/"] = ""
				walk(e.Path)
				continue
			}
			data, err := s.ReadFile(ctx, e.Path)
			require.NoError(t, err)
			out[e.Path] = string(data)
		}
	}
	walk("/")
	return out
}

func TestSeedDefaultLayout(t *testing.T) {
	s := newMemoryStore(t, 0)

	report, err := NewSeeder(DefaultLayout(), false, 0).Seed(context.Background(), s)
	require.NoError(t, err)

	assert.Equal(t, 10, report.DirectoriesCreated)
	assert.Equal(t, 0, report.DirectoriesExisting)
	assert.Equal(t, 2, report.FilesWritten)
	assert.Empty(t, report.Collisions)

	assert.Equal(t, map[string]string{
		"/samples/":                                "",
		"/samples/root/":                           "",
		"/samples/root/Getting Started/":           "",
		"/samples/root/Getting Started/index.html": "Getting Started",
		"/extensions/":                             "",
		"/extensions/default/":                     "",
		"/extensions/dev/":                         "",
		"/AppSupport/":                             "",
		"/AppSupport/extensions/":                  "",
		"/AppSupport/extensions/user/":             "",
		"/.git/":                                   "",
		"/.git/HEAD":                               "V1",
	}, snapshot(t, s))
}

func TestSeedIsIdempotent(t *testing.T) {
	s := newMemoryStore(t, 0)
	seeder := NewSeeder(DefaultLayout(), false, 0)
	ctx := context.Background()

	_, err := seeder.Seed(ctx, s)
	require.NoError(t, err)
	first := snapshot(t, s)

	report, err := seeder.Seed(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, 0, report.DirectoriesCreated)
	assert.Equal(t, 10, report.DirectoriesExisting)
	assert.Equal(t, 0, report.FilesWritten)
	assert.Equal(t, 2, report.FilesExisting)

	assert.Equal(t, first, snapshot(t, s))
}

func TestSeedDoesNotOverwriteUserEdits(t *testing.T) {
	s := newMemoryStore(t, 0)
	seeder := NewSeeder(DefaultLayout(), false, 0)
	ctx := context.Background()

	_, err := seeder.Seed(ctx, s)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/.git/HEAD", []byte("edited"))
	require.NoError(t, err)

	_, err = seeder.Seed(ctx, s)
	require.NoError(t, err)

	data, err := s.ReadFile(ctx, "/.git/HEAD")
	require.NoError(t, err)
	assert.Equal(t, "edited", string(data))
}

func TestSeedCreatesMissingAncestors(t *testing.T) {
	s := newMemoryStore(t, 0)
	layout := Layout{
		Directories: []string{"/deep/er/est"},
		Files:       []FileSeed{{Path: "/deep/er/est/leaf.txt", Content: "leaf"}},
	}

	report, err := NewSeeder(layout, false, 2).Seed(context.Background(), s)
	require.NoError(t, err)
	assert.Equal(t, 3, report.DirectoriesCreated)
	assert.Equal(t, 1, report.FilesWritten)

	data, err := s.ReadFile(context.Background(), "/deep/er/est/leaf.txt")
	require.NoError(t, err)
	assert.Equal(t, "leaf", string(data))
}

func TestSeedCollisionIsDegraded(t *testing.T) {
	s := newMemoryStore(t, 0)
	ctx := context.Background()

	// A file squats where the seed expects the .git directory.
	_, err := s.GetFile(ctx, "/.git", store.LookupOptions{Create: true})
	require.NoError(t, err)

	report, err := NewSeeder(DefaultLayout(), false, 0).Seed(ctx, s)
	require.NoError(t, err)

	assert.Equal(t, []string{"/.git"}, report.Collisions)
	assert.Equal(t, []string{"/.git/HEAD"}, report.Skipped)
	assert.Equal(t, 9, report.DirectoriesCreated)
	assert.Equal(t, 1, report.FilesWritten)

	entry, err := s.GetFile(ctx, "/.git", store.LookupOptions{})
	require.NoError(t, err)
	assert.Equal(t, store.KindFile, entry.Kind)
}

func TestSeedCollisionStrict(t *testing.T) {
	s := newMemoryStore(t, 0)
	ctx := context.Background()

	_, err := s.GetDirectory(ctx, "/.git", store.LookupOptions{Create: true})
	require.NoError(t, err)
	_, err = s.GetDirectory(ctx, "/.git/HEAD", store.LookupOptions{Create: true})
	require.NoError(t, err)

	report, err := NewSeeder(DefaultLayout(), true, 0).Seed(ctx, s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSeedCollision)
	require.NotNil(t, report)
	assert.Equal(t, []string{"/.git/HEAD"}, report.Collisions)
}

func TestSeedReportsStoreFailures(t *testing.T) {
	s := newMemoryStore(t, 4)

	report, err := NewSeeder(DefaultLayout(), false, 0).Seed(context.Background(), s)
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)

	// Everything that fits was still applied.
	assert.Equal(t, 10, report.DirectoriesCreated)
	assert.Equal(t, 1, report.FilesWritten)
}

func TestSeedRetryAfterFailedWrite(t *testing.T) {
	s := newMemoryStore(t, 4)
	ctx := context.Background()
	seeder := NewSeeder(DefaultLayout(), false, 0)
	index := "/samples/root/Getting Started/index.html"

	_, err := seeder.Seed(ctx, s)
	require.ErrorIs(t, err, store.ErrQuotaExceeded)

	// The file whose content did not fit is not left behind empty.
	_, err = s.GetFile(ctx, index, store.LookupOptions{})
	assert.ErrorIs(t, err, store.ErrNotFound)

	report, err := seeder.Seed(ctx, s)
	require.ErrorIs(t, err, store.ErrQuotaExceeded)
	assert.Equal(t, 1, report.FilesExisting)
	assert.Equal(t, 0, report.FilesWritten)

	_, err = s.GetFile(ctx, index, store.LookupOptions{})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDirectoryWaves(t *testing.T) {
	waves := directoryWaves([]string{"/b/c", "/a", "/b", "bad", "/a/", "/d/e/f"})

	assert.Equal(t, [][]string{
		{"/b", "/a", "/d"},
		{"/b/c", "/d/e"},
		{"/d/e/f"},
	}, waves)
}
