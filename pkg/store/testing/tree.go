package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/store"
)

// RunTreeTests checks listing, content and removal semantics.
func (suite *StoreTestSuite) RunTreeTests(t *testing.T) {
	t.Run("ReadDirSorted", suite.testReadDirSorted)
	t.Run("ReadDirMissing", suite.testReadDirMissing)
	t.Run("WriteAndRead", suite.testWriteAndRead)
	t.Run("WriteRequiresExistingFile", suite.testWriteRequiresExistingFile)
	t.Run("ModTimeNonDecreasing", suite.testModTimeNonDecreasing)
	t.Run("ReadReturnsCopy", suite.testReadReturnsCopy)
	t.Run("Remove", suite.testRemove)
	t.Run("RemoveAll", suite.testRemoveAll)
	t.Run("RemoveRoot", suite.testRemoveRoot)
}

func (suite *StoreTestSuite) testReadDirSorted(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetDirectory(ctx, "/samples", create)
	require.NoError(t, err)
	for _, name := range []string{"zeta.txt", "alpha.txt", "mid.txt"} {
		_, err = s.GetFile(ctx, "/samples/"+name, create)
		require.NoError(t, err)
	}
	_, err = s.GetDirectory(ctx, "/samples/root", create)
	require.NoError(t, err)

	entries, err := s.ReadDir(ctx, "/samples")
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
		assert.NotEqual(t, ".", e.Name)
		assert.NotEqual(t, "..", e.Name)
		assert.Equal(t, "/samples/"+e.Name, e.Path)
	}
	assert.Equal(t, []string{"alpha.txt", "mid.txt", "root", "zeta.txt"}, names)
	assert.Equal(t, store.KindDirectory, entries[2].Kind)
	assert.Equal(t, store.KindFile, entries[0].Kind)

	empty, err := s.ReadDir(ctx, "/samples/root")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func (suite *StoreTestSuite) testReadDirMissing(t *testing.T) {
	s := suite.newStore(t, 0)

	_, err := s.ReadDir(testContext(), "/nope")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func (suite *StoreTestSuite) testWriteAndRead(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetFile(ctx, "/hello.txt", create)
	require.NoError(t, err)

	entry, err := s.WriteFile(ctx, "/hello.txt", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), entry.Size)

	data, err := s.ReadFile(ctx, "/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// Replacing shrinks the content.
	_, err = s.WriteFile(ctx, "/hello.txt", []byte("hi"))
	require.NoError(t, err)
	data, err = s.ReadFile(ctx, "/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, "hi", string(data))

	f, err := s.GetFile(ctx, "/hello.txt", lookup)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), f.Size)
}

func (suite *StoreTestSuite) testWriteRequiresExistingFile(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.WriteFile(ctx, "/ghost.txt", []byte("x"))
	assert.ErrorIs(t, err, store.ErrNotFound)

	_, err = s.GetDirectory(ctx, "/dir", create)
	require.NoError(t, err)
	_, err = s.WriteFile(ctx, "/dir", []byte("x"))
	assert.ErrorIs(t, err, store.ErrTypeMismatch)
}

func (suite *StoreTestSuite) testModTimeNonDecreasing(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	created, err := s.GetFile(ctx, "/clock.txt", create)
	require.NoError(t, err)

	prev := created.ModTime
	for i := 0; i < 5; i++ {
		entry, err := s.WriteFile(ctx, "/clock.txt", []byte{byte(i)})
		require.NoError(t, err)
		assert.False(t, entry.ModTime.Before(prev), "write %d moved mtime backwards", i)
		prev = entry.ModTime
	}

	looked, err := s.GetFile(ctx, "/clock.txt", lookup)
	require.NoError(t, err)
	assert.WithinDuration(t, prev, looked.ModTime, time.Millisecond)
}

func (suite *StoreTestSuite) testReadReturnsCopy(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetFile(ctx, "/copy.txt", create)
	require.NoError(t, err)

	in := []byte("abc")
	_, err = s.WriteFile(ctx, "/copy.txt", in)
	require.NoError(t, err)
	in[0] = 'X'

	out, err := s.ReadFile(ctx, "/copy.txt")
	require.NoError(t, err)
	out[1] = 'Y'

	again, err := s.ReadFile(ctx, "/copy.txt")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func (suite *StoreTestSuite) testRemove(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	_, err := s.GetDirectory(ctx, "/dir", create)
	require.NoError(t, err)
	_, err = s.GetFile(ctx, "/dir/file", create)
	require.NoError(t, err)

	err = s.Remove(ctx, "/dir")
	assert.ErrorIs(t, err, store.ErrNotEmpty)

	require.NoError(t, s.Remove(ctx, "/dir/file"))
	_, err = s.GetFile(ctx, "/dir/file", lookup)
	assert.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.Remove(ctx, "/dir"))
	_, err = s.GetDirectory(ctx, "/dir", lookup)
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.Remove(ctx, "/dir")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func (suite *StoreTestSuite) testRemoveAll(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	for _, dir := range []string{"/a", "/a/b", "/a/b/c", "/ab"} {
		_, err := s.GetDirectory(ctx, dir, create)
		require.NoError(t, err)
	}
	for _, file := range []string{"/a/one", "/a/b/two", "/a/b/c/three", "/ab/keep"} {
		_, err := s.GetFile(ctx, file, create)
		require.NoError(t, err)
		_, err = s.WriteFile(ctx, file, []byte(file))
		require.NoError(t, err)
	}

	require.NoError(t, s.RemoveAll(ctx, "/a"))

	for _, gone := range []string{"/a/one", "/a/b/two", "/a/b/c/three"} {
		_, err := s.GetFile(ctx, gone, lookup)
		assert.ErrorIs(t, err, store.ErrNotFound, gone)
	}
	_, err := s.GetDirectory(ctx, "/a/b", lookup)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A sibling sharing the name prefix survives.
	data, err := s.ReadFile(ctx, "/ab/keep")
	require.NoError(t, err)
	assert.Equal(t, "/ab/keep", string(data))

	usage, err := s.Usage(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(len("/ab/keep")), usage.UsedBytes)

	err = s.RemoveAll(ctx, "/a")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func (suite *StoreTestSuite) testRemoveRoot(t *testing.T) {
	s := suite.newStore(t, 0)
	ctx := testContext()

	assert.ErrorIs(t, s.Remove(ctx, "/"), store.ErrInvalidModification)
	assert.ErrorIs(t, s.RemoveAll(ctx, "/"), store.ErrInvalidModification)
}
