// Package status defines the numeric result codes shared by every bridge and
// shell operation.
//
// The values are part of the host contract: upper layers switch on them, so
// they must never be renumbered. Failure is reported only through these codes;
// no Go error crosses the bridge boundary.
package status

import "fmt"

// Code is a filesystem result code.
type Code int

const (
	// OK indicates the operation succeeded.
	OK Code = 0

	// ErrUnknown indicates an unclassified failure.
	ErrUnknown Code = 1

	// ErrInvalidParams indicates malformed arguments (empty or relative path, etc.).
	ErrInvalidParams Code = 2

	// ErrNotFound indicates the file or directory does not exist.
	ErrNotFound Code = 3

	// ErrCantRead indicates the file or directory could not be read.
	ErrCantRead Code = 4

	// ErrUnsupportedEncoding indicates the requested encoding cannot be honoured.
	ErrUnsupportedEncoding Code = 5

	// ErrCantWrite indicates the file could not be written.
	ErrCantWrite Code = 6

	// ErrOutOfSpace indicates the sandbox quota is exhausted.
	ErrOutOfSpace Code = 7

	// ErrNotFile indicates the path does not point to a file.
	ErrNotFile Code = 8

	// ErrNotDirectory indicates the path does not point to a directory.
	ErrNotDirectory Code = 9

	// ErrFileExists indicates the file already exists.
	ErrFileExists Code = 10
)

// String returns the canonical name of the code, suitable for metric labels
// and CLI output. Unknown values render as "UNKNOWN_<n>".
func (c Code) String() string {
	switch c {
	case OK:
		return "NO_ERROR"
	case ErrUnknown:
		return "ERR_UNKNOWN"
	case ErrInvalidParams:
		return "ERR_INVALID_PARAMS"
	case ErrNotFound:
		return "ERR_NOT_FOUND"
	case ErrCantRead:
		return "ERR_CANT_READ"
	case ErrUnsupportedEncoding:
		return "ERR_UNSUPPORTED_ENCODING"
	case ErrCantWrite:
		return "ERR_CANT_WRITE"
	case ErrOutOfSpace:
		return "ERR_OUT_OF_SPACE"
	case ErrNotFile:
		return "ERR_NOT_FILE"
	case ErrNotDirectory:
		return "ERR_NOT_DIRECTORY"
	case ErrFileExists:
		return "ERR_FILE_EXISTS"
	default:
		return fmt.Sprintf("UNKNOWN_%d", int(c))
	}
}

// IsOK reports whether c signals success.
func (c Code) IsOK() bool {
	return c == OK
}

// ProcessCode reports the lifecycle state of the host's background process
// (the embedded server the shell may launch).
type ProcessCode int

const (
	// ProcessOK indicates the process is running and its port is known.
	ProcessOK ProcessCode = 0

	// ErrProcessNotYetStarted indicates the process has not launched yet. Try again later.
	ErrProcessNotYetStarted ProcessCode = -1

	// ErrProcessPortNotYetSet indicates the process is launching but has not
	// published its port. Try again later.
	ErrProcessPortNotYetSet ProcessCode = -2

	// ErrProcessFailed indicates a fatal error; the process cannot be restarted.
	ErrProcessFailed ProcessCode = -3
)

func (c ProcessCode) String() string {
	switch c {
	case ProcessOK:
		return "NO_ERROR"
	case ErrProcessNotYetStarted:
		return "ERR_PROCESS_NOT_YET_STARTED"
	case ErrProcessPortNotYetSet:
		return "ERR_PROCESS_PORT_NOT_YET_SET"
	case ErrProcessFailed:
		return "ERR_PROCESS_FAILED"
	default:
		return fmt.Sprintf("UNKNOWN_%d", int(c))
	}
}
