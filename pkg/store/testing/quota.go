package testing

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/store"
)

// RunQuotaTests checks usage accounting against the quota ceiling.
func (suite *StoreTestSuite) RunQuotaTests(t *testing.T) {
	t.Run("UsageTracksWrites", suite.testUsageTracksWrites)
	t.Run("ExceededKeepsOldContent", suite.testExceededKeepsOldContent)
	t.Run("RemoveFreesSpace", suite.testRemoveFreesSpace)
	t.Run("Unlimited", suite.testUnlimited)
}

func (suite *StoreTestSuite) testUsageTracksWrites(t *testing.T) {
	s := suite.newStore(t, 100)
	ctx := testContext()

	usage, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), usage.UsedBytes)
	assert.Equal(t, uint64(100), usage.QuotaBytes)

	_, err = s.GetFile(ctx, "/a", create)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/a", bytes.Repeat([]byte("x"), 40))
	require.NoError(t, err)

	usage, err = s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), usage.UsedBytes)
	assert.Equal(t, uint64(60), usage.Available())

	// Overwrite replaces, not adds.
	_, err = s.WriteFile(ctx, "/a", bytes.Repeat([]byte("y"), 90))
	require.NoError(t, err)

	usage, err = s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(90), usage.UsedBytes)
}

func (suite *StoreTestSuite) testExceededKeepsOldContent(t *testing.T) {
	s := suite.newStore(t, 10)
	ctx := testContext()

	_, err := s.GetFile(ctx, "/a", create)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/a", []byte("12345"))
	require.NoError(t, err)

	_, err = s.GetFile(ctx, "/b", create)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/b", []byte("123456"))
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)

	data, err := s.ReadFile(ctx, "/b")
	require.NoError(t, err)
	assert.Empty(t, data)

	// Exactly filling the quota is allowed.
	_, err = s.WriteFile(ctx, "/b", []byte("12345"))
	require.NoError(t, err)

	_, err = s.WriteFile(ctx, "/a", []byte("123456"))
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)

	data, err = s.ReadFile(ctx, "/a")
	require.NoError(t, err)
	assert.Equal(t, "12345", string(data))
}

func (suite *StoreTestSuite) testRemoveFreesSpace(t *testing.T) {
	s := suite.newStore(t, 10)
	ctx := testContext()

	_, err := s.GetDirectory(ctx, "/d", create)
	require.NoError(t, err)
	_, err = s.GetFile(ctx, "/d/a", create)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/d/a", []byte("0123456789"))
	require.NoError(t, err)

	_, err = s.GetFile(ctx, "/b", create)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/b", []byte("x"))
	assert.ErrorIs(t, err, store.ErrQuotaExceeded)

	require.NoError(t, s.RemoveAll(ctx, "/d"))

	_, err = s.WriteFile(ctx, "/b", []byte("x"))
	assert.NoError(t, err)
}

func (suite *StoreTestSuite) testUnlimited(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetFile(ctx, "/big", create)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/big", bytes.Repeat([]byte("z"), 1<<16))
	require.NoError(t, err)

	usage, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, ^uint64(0), usage.Available())
}
