package store

import (
	"fmt"
	"path"
	"strings"
)

// Root is the path of the storage root.
const Root = "/"

// CleanPath validates and normalises a sandbox path.
//
// The path must be absolute and free of NUL bytes. "." and ".." elements are
// resolved lexically; ".." never escapes the root.
func CleanPath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("empty path: %w", ErrInvalidPath)
	}
	if !strings.HasPrefix(p, "/") {
		return "", fmt.Errorf("%q is not absolute: %w", p, ErrInvalidPath)
	}
	if strings.ContainsRune(p, 0) {
		return "", fmt.Errorf("%q contains NUL: %w", p, ErrInvalidPath)
	}
	return path.Clean(p), nil
}

// Split returns the parent directory and the final element of a cleaned path.
// The root has no parent: Split("/") returns ("", "/").
func Split(p string) (parent, name string) {
	if p == Root {
		return "", Root
	}
	parent, name = path.Split(p)
	if parent != Root {
		parent = strings.TrimSuffix(parent, "/")
	}
	return parent, name
}

// Components returns the elements of a cleaned path, root first excluded.
// Components("/a/b") returns ["a", "b"]; Components("/") returns nil.
func Components(p string) []string {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

// Join appends name to the cleaned directory path dir.
func Join(dir, name string) string {
	if dir == Root {
		return Root + name
	}
	return dir + "/" + name
}

// IsWithin reports whether p equals dir or lies beneath it.
func IsWithin(dir, p string) bool {
	if dir == Root || p == dir {
		return true
	}
	return strings.HasPrefix(p, dir+"/")
}
