package bridge

import (
	"fmt"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/status"
)

// DefaultEncoding is the only text encoding the bridge reads and writes.
const DefaultEncoding = "utf-8"

// resolveEncoding normalises an encoding label using the WHATWG index, so
// "utf8", "UTF-8" and "unicode-1-1-utf-8" all name the same encoding.
// An empty label selects DefaultEncoding.
func resolveEncoding(label string) (string, error) {
	if label == "" {
		return DefaultEncoding, nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return "", fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	name, err := htmlindex.Name(enc)
	if err != nil {
		return "", fmt.Errorf("unnamed encoding %q: %w", label, err)
	}
	if name != DefaultEncoding {
		return "", fmt.Errorf("encoding %q (%s) is not supported", label, name)
	}
	return name, nil
}

// checkEncoding maps an unusable label to ERR_UNSUPPORTED_ENCODING.
func checkEncoding(op, path, label string) status.Code {
	if _, err := resolveEncoding(label); err != nil {
		logger.Warn("%s %q: %v", op, path, err)
		return status.ErrUnsupportedEncoding
	}
	return status.OK
}

// decodeText converts stored bytes into text. Content that is not valid
// UTF-8 cannot be honoured; the most likely charset is logged to help the
// user convert the file.
func decodeText(op, path string, data []byte) (string, status.Code) {
	if utf8.Valid(data) {
		return string(data), status.OK
	}

	detected := "unknown"
	if result, err := chardet.NewTextDetector().DetectBest(data); err == nil {
		detected = fmt.Sprintf("%s (confidence %d%%)", result.Charset, result.Confidence)
	}
	logger.Warn("%s %q: content is not valid %s, detected %s", op, path, DefaultEncoding, detected)

	return "", status.ErrUnsupportedEncoding
}

// encodeText converts caller text into stored bytes.
func encodeText(op, path, data string) ([]byte, status.Code) {
	if !utf8.ValidString(data) {
		logger.Warn("%s %q: data is not valid %s", op, path, DefaultEncoding)
		return nil, status.ErrUnsupportedEncoding
	}
	return []byte(data), status.OK
}
