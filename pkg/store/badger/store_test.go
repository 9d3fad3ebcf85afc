package badger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/store"
	storetesting "github.com/marmos91/appshell/pkg/store/testing"
)

func TestBadgerStore(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T, quotaBytes uint64) store.Store {
			s, err := New(context.Background(), Config{DBPath: t.TempDir()}, quotaBytes)
			require.NoError(t, err)
			return s
		},
	}
	suite.Run(t)
}

func TestBadgerStoreInMemory(t *testing.T) {
	suite := &storetesting.StoreTestSuite{
		NewStore: func(t *testing.T, quotaBytes uint64) store.Store {
			s, err := New(context.Background(), Config{InMemory: true}, quotaBytes)
			require.NoError(t, err)
			return s
		},
	}
	suite.Run(t)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := Config{DBPath: t.TempDir()}

	s, err := New(ctx, cfg, 1024)
	require.NoError(t, err)

	_, err = s.GetDirectory(ctx, "/.git", store.LookupOptions{Create: true})
	require.NoError(t, err)
	_, err = s.GetFile(ctx, "/.git/HEAD", store.LookupOptions{Create: true})
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/.git/HEAD", []byte("V1"))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := New(ctx, cfg, 1024)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	data, err := reopened.ReadFile(ctx, "/.git/HEAD")
	require.NoError(t, err)
	assert.Equal(t, "V1", string(data))

	_, err = reopened.GetFile(ctx, "/.git/HEAD", store.LookupOptions{Create: true, Exclusive: true})
	assert.ErrorIs(t, err, store.ErrExists)

	usage, err := reopened.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), usage.UsedBytes)
}

func TestBadgerStoreQuotaAppliesToPersistedUsage(t *testing.T) {
	ctx := context.Background()
	cfg := Config{DBPath: t.TempDir()}

	s, err := New(ctx, cfg, 0)
	require.NoError(t, err)
	_, err = s.GetFile(ctx, "/big", store.LookupOptions{Create: true})
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/big", make([]byte, 64))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	// Reopening with a smaller ceiling keeps the data but refuses growth.
	small, err := New(ctx, cfg, 32)
	require.NoError(t, err)
	defer func() { _ = small.Close() }()

	_, err = small.GetFile(ctx, "/more", store.LookupOptions{Create: true})
	require.NoError(t, err)
	_, err = small.WriteFile(ctx, "/more", []byte("x"))
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)
}

func TestOpener(t *testing.T) {
	open := Opener(Config{InMemory: true})

	s, err := open(context.Background(), 10)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	usage, err := s.Usage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint64(10), usage.QuotaBytes)
}

func TestCloseIsIdempotent(t *testing.T) {
	s, err := New(context.Background(), Config{InMemory: true}, 0)
	require.NoError(t, err)

	require.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
