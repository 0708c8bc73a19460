package identity

import (
	"crypto/sha256"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// UIDs are issued under the UUID-derived OID arc. "2.25." plus a decimal
// 128-bit integer stays within the 64-character DICOM UID limit.
const uidRoot = "2.25."

// MaxUIDLength is the DICOM limit for a UI value.
const MaxUIDLength = 64

// UIDMode selects whether repeated originals share a replacement UID.
type UIDMode string

const (
	// UIDConsistent returns the same replacement for repeated
	// (tag, original) pairs within a run, preserving cross-file links.
	UIDConsistent UIDMode = "consistent"
	// UIDGenerate returns a fresh UID on every call.
	UIDGenerate UIDMode = "generate"
)

// UIDMapper generates replacement UIDs for linkage fields. Like Mapper it
// is run-scoped and safe for serialized access; the consistent-mode cache
// grows monotonically and is discarded with the run.
type UIDMapper struct {
	mu   sync.Mutex
	mode UIDMode
	seen map[string]string
}

// NewUIDMapper returns a mapper in the given mode.
func NewUIDMapper(mode UIDMode) *UIDMapper {
	return &UIDMapper{
		mode: mode,
		seen: make(map[string]string),
	}
}

// Mode returns the mapper's UID handling mode.
func (u *UIDMapper) Mode() UIDMode {
	return u.mode
}

// New returns the replacement UID for an original value of the given field.
// In consistent mode the same (field, original) pair always yields the same
// replacement within the run; in generate mode every call is fresh.
func (u *UIDMapper) New(field, original string) string {
	if u.mode != UIDConsistent {
		return Fresh()
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	key := field + "_" + original
	if uid, ok := u.seen[key]; ok {
		return uid
	}
	uid := Fresh()
	u.seen[key] = uid
	return uid
}

// Len returns the number of cached consistent-mode entries.
func (u *UIDMapper) Len() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.seen)
}

// Fresh returns a new globally-unique UID.
func Fresh() string {
	id := uuid.New()
	n := new(big.Int).SetBytes(id[:])
	return uidRoot + n.String()
}

// HashedUID deterministically derives a UID from the input string. Meant
// for reproducible runs where the same original must map to the same
// replacement across separate invocations without shared state.
func HashedUID(s string) string {
	sum := sha256.Sum256([]byte(s))
	n := new(big.Int).SetBytes(sum[:16])
	return uidRoot + n.String()
}

// ValidUID reports whether s is a syntactically valid DICOM UID: dotted
// numeric components, no leading zeros on multi-digit components, at most
// 64 characters.
func ValidUID(s string) bool {
	if s == "" || len(s) > MaxUIDLength {
		return false
	}
	for _, part := range strings.Split(s, ".") {
		if part == "" {
			return false
		}
		if len(part) > 1 && part[0] == '0' {
			return false
		}
		for _, r := range part {
			if r < '0' || r > '9' {
				return false
			}
		}
	}
	return true
}

// String implements fmt.Stringer for diagnostics.
func (u *UIDMapper) String() string {
	return fmt.Sprintf("UIDMapper(mode=%s, cached=%d)", u.mode, u.Len())
}
