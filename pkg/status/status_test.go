package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The numeric values are a host contract; this pins them.
func TestCodeValues(t *testing.T) {
	want := map[Code]int{
		OK:                     0,
		ErrUnknown:             1,
		ErrInvalidParams:       2,
		ErrNotFound:            3,
		ErrCantRead:            4,
		ErrUnsupportedEncoding: 5,
		ErrCantWrite:           6,
		ErrOutOfSpace:          7,
		ErrNotFile:             8,
		ErrNotDirectory:        9,
		ErrFileExists:          10,
	}
	for code, n := range want {
		assert.Equal(t, n, int(code), code.String())
	}
}

func TestProcessCodeValues(t *testing.T) {
	assert.Equal(t, 0, int(ProcessOK))
	assert.Equal(t, -1, int(ErrProcessNotYetStarted))
	assert.Equal(t, -2, int(ErrProcessPortNotYetSet))
	assert.Equal(t, -3, int(ErrProcessFailed))
}

func TestCodeString(t *testing.T) {
	assert.Equal(t, "NO_ERROR", OK.String())
	assert.Equal(t, "ERR_NOT_FOUND", ErrNotFound.String())
	assert.Equal(t, "ERR_FILE_EXISTS", ErrFileExists.String())
	assert.Equal(t, "UNKNOWN_42", Code(42).String())

	assert.Equal(t, "ERR_PROCESS_FAILED", ErrProcessFailed.String())
	assert.Equal(t, "UNKNOWN_-9", ProcessCode(-9).String())
}

func TestIsOK(t *testing.T) {
	assert.True(t, OK.IsOK())
	assert.False(t, ErrUnknown.IsOK())
}
