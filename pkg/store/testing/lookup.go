package testing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/store"
)

// RunLookupTests checks GetFile/GetDirectory flag semantics.
func (suite *StoreTestSuite) RunLookupTests(t *testing.T) {
	t.Run("RootIsADirectory", suite.testRootIsADirectory)
	t.Run("MissingWithoutCreate", suite.testMissingWithoutCreate)
	t.Run("CreateDirectory", suite.testCreateDirectory)
	t.Run("CreateFile", suite.testCreateFile)
	t.Run("CreateRequiresParent", suite.testCreateRequiresParent)
	t.Run("Exclusive", suite.testExclusive)
	t.Run("TypeMismatch", suite.testTypeMismatch)
	t.Run("InvalidPath", suite.testInvalidPath)
	t.Run("Closed", suite.testClosed)
}

func (suite *StoreTestSuite) testRootIsADirectory(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	root, err := s.GetDirectory(ctx, "/", lookup)
	require.NoError(t, err)
	assert.True(t, root.IsDir())
	assert.Equal(t, "/", root.Path)

	_, err = s.GetFile(ctx, "/", lookup)
	assert.ErrorIs(t, err, store.ErrTypeMismatch)
}

func (suite *StoreTestSuite) testMissingWithoutCreate(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetFile(ctx, "/missing.txt", lookup)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetDirectory(ctx, "/missing", lookup)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func (suite *StoreTestSuite) testCreateDirectory(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	dir, err := s.GetDirectory(ctx, "/samples", create)
	require.NoError(t, err)
	assert.Equal(t, "samples", dir.Name)
	assert.Equal(t, store.KindDirectory, dir.Kind)

	// Non-exclusive create of an existing directory resolves it.
	again, err := s.GetDirectory(ctx, "/samples/", create)
	require.NoError(t, err)
	assert.Equal(t, "/samples", again.Path)

	_, err = s.GetDirectory(ctx, "/samples", lookup)
	assert.NoError(t, err)
}

func (suite *StoreTestSuite) testCreateFile(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetDirectory(ctx, "/docs", create)
	require.NoError(t, err)

	f, err := s.GetFile(ctx, "/docs/Read Me.txt", create)
	require.NoError(t, err)
	assert.Equal(t, "Read Me.txt", f.Name)
	assert.Equal(t, store.KindFile, f.Kind)
	assert.Zero(t, f.Size)
	assert.False(t, f.ModTime.IsZero())

	data, err := s.ReadFile(ctx, "/docs/Read Me.txt")
	require.NoError(t, err)
	assert.Empty(t, data)
}

func (suite *StoreTestSuite) testCreateRequiresParent(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetDirectory(ctx, "/a/b", create)
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetFile(ctx, "/a/b.txt", create)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A file cannot act as a parent.
	_, err = s.GetFile(ctx, "/plain", create)
	require.NoError(t, err)
	_, err = s.GetFile(ctx, "/plain/child", create)
	assert.Error(t, err)
}

func (suite *StoreTestSuite) testExclusive(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetFile(ctx, "/HEAD", exclusive)
	require.NoError(t, err)

	_, err = s.GetFile(ctx, "/HEAD", exclusive)
	assert.ErrorIs(t, err, store.ErrExists)

	_, err = s.GetDirectory(ctx, "/.git", exclusive)
	require.NoError(t, err)

	_, err = s.GetDirectory(ctx, "/.git", exclusive)
	assert.ErrorIs(t, err, store.ErrExists)
}

func (suite *StoreTestSuite) testTypeMismatch(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetFile(ctx, "/entry", create)
	require.NoError(t, err)
	_, err = s.GetDirectory(ctx, "/dir", create)
	require.NoError(t, err)

	_, err = s.GetDirectory(ctx, "/entry", lookup)
	assert.ErrorIs(t, err, store.ErrTypeMismatch)
	_, err = s.GetDirectory(ctx, "/entry", create)
	assert.ErrorIs(t, err, store.ErrTypeMismatch)

	_, err = s.GetFile(ctx, "/dir", lookup)
	assert.ErrorIs(t, err, store.ErrTypeMismatch)
	_, err = s.GetFile(ctx, "/dir", create)
	assert.ErrorIs(t, err, store.ErrTypeMismatch)

	_, err = s.ReadFile(ctx, "/dir")
	assert.ErrorIs(t, err, store.ErrTypeMismatch)
	_, err = s.ReadDir(ctx, "/entry")
	assert.ErrorIs(t, err, store.ErrTypeMismatch)
}

func (suite *StoreTestSuite) testInvalidPath(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetFile(ctx, "relative.txt", create)
	assert.ErrorIs(t, err, store.ErrInvalidPath)

	_, err = s.GetDirectory(ctx, "", lookup)
	assert.ErrorIs(t, err, store.ErrInvalidPath)

	_, err = s.ReadFile(ctx, "no/slash")
	assert.ErrorIs(t, err, store.ErrInvalidPath)
}

func (suite *StoreTestSuite) testClosed(t *testing.T) {
	s := suite.NewStore(t, 0)
	ctx := testContext()

	require.NoError(t, s.Close())

	_, err := s.GetDirectory(ctx, "/", lookup)
	assert.ErrorIs(t, err, store.ErrClosed)

	_, err = s.Usage(ctx)
	assert.ErrorIs(t, err, store.ErrClosed)
}
