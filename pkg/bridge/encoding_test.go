package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/appshell/pkg/status"
)

func TestResolveEncoding(t *testing.T) {
	for _, label := range []string{"", "utf8", "utf-8", "UTF-8", "unicode-1-1-utf-8"} {
		name, err := resolveEncoding(label)
		require.NoError(t, err, "label %q", label)
		assert.Equal(t, DefaultEncoding, name)
	}

	for _, label := range []string{"latin1", "utf-16le", "gbk", "ebcdic", "not-an-encoding"} {
		_, err := resolveEncoding(label)
		assert.Error(t, err, "label %q", label)
	}
}

func TestDecodeText(t *testing.T) {
	text, code := decodeText("test", "/f", []byte("plain ünïcode"))
	assert.Equal(t, status.OK, code)
	assert.Equal(t, "plain ünïcode", text)

	_, code = decodeText("test", "/f", []byte{0xc3, 0x28})
	assert.Equal(t, status.ErrUnsupportedEncoding, code)
}

func TestEncodeText(t *testing.T) {
	data, code := encodeText("test", "/f", "ok")
	assert.Equal(t, status.OK, code)
	assert.Equal(t, []byte("ok"), data)

	_, code = encodeText("test", "/f", string([]byte{0xff}))
	assert.Equal(t, status.ErrUnsupportedEncoding, code)
}
