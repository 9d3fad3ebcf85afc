package badger

import (
	"encoding/binary"

	"github.com/google/uuid"
)

// Database Key Namespace Design
// ==============================
//
// Entries are identified by random UUIDs so a rename never has to rewrite
// the keys of descendants. The tree is stored as:
//
// Data Type        Prefix   Key Format                   Value Type
// ===================================================================
// Root ID          "root"   root                         uuid (16 bytes)
// Entry Record     "f:"     f:<uuid>                     record (JSON)
// Children Map     "c:"     c:<parentUUID>:<childName>   uuid (16 bytes)
// File Content     "b:"     b:<uuid>                     raw bytes
// Usage Counter    "u:"     u:used                       uint64 (big endian)
//
// Listing a directory is a prefix scan over "c:<parentUUID>:". Badger
// iterates keys in byte order, so children come back sorted by name.

const (
	prefixFile     = "f:"
	prefixChild    = "c:"
	prefixBlob     = "b:"
	keyRootID      = "root"
	keyUsedCounter = "u:used"
)

func keyFile(id uuid.UUID) []byte {
	return []byte(prefixFile + id.String())
}

func keyBlob(id uuid.UUID) []byte {
	return []byte(prefixBlob + id.String())
}

func keyChild(parent uuid.UUID, name string) []byte {
	return []byte(prefixChild + parent.String() + ":" + name)
}

// keyChildPrefix returns the scan prefix for all children of parent.
func keyChildPrefix(parent uuid.UUID) []byte {
	return []byte(prefixChild + parent.String() + ":")
}

func encodeUint64(v uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, v)
	return buf
}

func decodeUint64(buf []byte) uint64 {
	if len(buf) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(buf)
}
