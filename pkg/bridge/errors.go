package bridge

import (
	"context"
	"errors"

	"github.com/marmos91/appshell/internal/logger"
	"github.com/marmos91/appshell/pkg/status"
	"github.com/marmos91/appshell/pkg/store"
)

var (
	// ErrRootClosed is returned by EnsureRoot after Close.
	ErrRootClosed = errors.New("storage root closed")

	// ErrSeedCollision is joined into the seed error, in strict mode, for every
	// seed path occupied by an entry of the other kind.
	ErrSeedCollision = errors.New("seed path occupied by an entry of the other kind")
)

// ============================================================================
// Error Mapping - Store Errors → Status Codes
// ============================================================================

// mapError converts a store error into the status code for one stage of an
// operation.
//
// Each operation stage documents the code it reports for a generic failure
// (fallback): a failed lookup in readFile is ERR_NOT_FOUND, a failed read is
// ERR_CANT_READ. Two store conditions override the fallback everywhere:
//   - store.ErrInvalidPath → ERR_INVALID_PARAMS
//   - store.ErrQuotaExceeded → ERR_OUT_OF_SPACE
//
// Logging follows who caused the failure:
//   - missing entries: debug (stat probes miss routinely)
//   - other caller mistakes (bad path, wrong kind, quota): warn
//   - store faults: error
func mapError(op, path string, err error, fallback status.Code) status.Code {
	if err == nil {
		return status.OK
	}

	code := fallback
	switch {
	case errors.Is(err, store.ErrInvalidPath):
		code = status.ErrInvalidParams
	case errors.Is(err, store.ErrQuotaExceeded):
		code = status.ErrOutOfSpace
	}

	switch {
	case errors.Is(err, store.ErrNotFound):
		logger.Debug("%s %q: %v -> %s", op, path, err, code)
	case isClientError(err):
		logger.Warn("%s %q: %v -> %s", op, path, err, code)
	default:
		logger.Error("%s %q: %v -> %s", op, path, err, code)
	}

	return code
}

// mapRootError converts an EnsureRoot failure into a status code.
// A root whose quota or seed content cannot be granted is out of space;
// anything else is unknown.
func mapRootError(op, path string, err error) status.Code {
	code := status.ErrUnknown
	if errors.Is(err, store.ErrQuotaExceeded) {
		code = status.ErrOutOfSpace
	}
	logger.Error("%s %q: storage root unavailable: %v -> %s", op, path, err, code)
	return code
}

func isClientError(err error) bool {
	return errors.Is(err, store.ErrInvalidPath) ||
		errors.Is(err, store.ErrTypeMismatch) ||
		errors.Is(err, store.ErrExists) ||
		errors.Is(err, store.ErrNotEmpty) ||
		errors.Is(err, store.ErrQuotaExceeded) ||
		errors.Is(err, store.ErrInvalidModification) ||
		errors.Is(err, context.Canceled)
}
