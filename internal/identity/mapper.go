package identity

import (
	"crypto/md5"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// Sequential replacement IDs are issued from this fixed offset. The pool
// ends at sequenceEnd; above that the mapper degrades to hashed IDs.
const (
	sequenceStart = 9000001
	sequenceEnd   = 9999999
)

// Mapper issues stable replacement identifiers for original patient IDs.
// It is run-scoped: create one per batch, discard it at the end. Distinct
// originals get distinct replacements while the sequential pool lasts;
// once exhausted, replacements are derived by hashing the original into
// the remaining digit space. Hashed IDs can collide - this is a documented
// limitation of the fallback, not something the mapper papers over.
type Mapper struct {
	mu      sync.Mutex
	forward map[string]string
	next    int
}

// NewMapper returns an empty mapper starting at the sequential offset.
func NewMapper() *Mapper {
	return &Mapper{
		forward: make(map[string]string),
		next:    sequenceStart,
	}
}

// Anonymize returns the replacement identifier for originalID, allocating
// one on first sight. Calling it twice with the same value in the same run
// returns the same replacement. Empty originals are mapped like any other
// value. It never fails.
func (m *Mapper) Anonymize(originalID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id, ok := m.forward[originalID]; ok {
		return id
	}

	var id string
	if m.next > sequenceEnd {
		id = hashedID(originalID)
	} else {
		id = fmt.Sprintf("%07d", m.next)
		m.next++
	}

	m.forward[originalID] = id
	return id
}

// hashedID reduces the original into the 9xxxxxx digit space. Used only
// after pool exhaustion; collisions are possible.
func hashedID(originalID string) string {
	sum := md5.Sum([]byte(originalID))
	n := binary.BigEndian.Uint64(sum[:8]) % 1000000
	return fmt.Sprintf("9%06d", n)
}

// Len returns the number of originals mapped so far.
func (m *Mapper) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.forward)
}

// Snapshot returns a copy of the original-to-replacement map.
func (m *Mapper) Snapshot() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.forward))
	for k, v := range m.forward {
		out[k] = v
	}
	return out
}

// mapperFile is the JSON layout for the optional side file.
type mapperFile struct {
	PatientIDMap map[string]string `json:"patient_id_map"`
	Updated      string            `json:"updated"`
	Note         string            `json:"note"`
}

// Save writes the mapping to a JSON side file for audit. The core never
// reads it back; persistence across runs is an external concern.
func (m *Mapper) Save(path string) error {
	snap := m.Snapshot()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("could not create mapping directory: %w", err)
	}

	data, err := json.MarshalIndent(mapperFile{
		PatientIDMap: snap,
		Updated:      time.Now().Format(time.RFC3339),
		Note:         "original patient ID -> replacement; keep this file private",
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal mapping: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("could not save mapping file: %w", err)
	}
	return nil
}

// MaskID redacts a patient identifier for display, keeping the first and
// last two characters of anything long enough to stay ambiguous.
func MaskID(id string) string {
	if len(id) > 4 {
		return id[:2] + "***" + id[len(id)-2:]
	}
	return "***"
}

// SortedOriginals returns the mapped originals in stable order, for
// deterministic report output.
func (m *Mapper) SortedOriginals() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.forward))
	for k := range m.forward {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
