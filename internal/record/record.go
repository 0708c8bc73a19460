// Package record defines the field-level capability interface the
// anonymization and validation engines work against. One decoded medical
// image file is a Record: an ordered mapping from DICOM keyword to a
// string-convertible value. The concrete implementation backed by a DICOM
// dataset lives in internal/dicom; Map is an in-memory implementation.
package record

import "fmt"

// Record is one decoded file's field set. Fields are addressed by DICOM
// keyword (e.g. "PatientName"). Values cross this boundary as text; the
// codec adapter is responsible for any type coercion on Set.
type Record interface {
	// Has reports whether the field is present.
	Has(field string) bool
	// Get returns the field's value as text and whether it was present.
	Get(field string) (string, bool)
	// Set replaces the field's value. Fields absent from the record are
	// left absent: Set returns nil without creating them.
	Set(field, value string) error
	// RemovePrivate deletes all vendor-private fields and returns how
	// many were removed.
	RemovePrivate() int
}

// PixelSource is implemented by records that carry decodable image data.
type PixelSource interface {
	// Pixels returns the decoded pixel array shape (rows, columns and,
	// for multi-frame objects, a leading frame count) and the raw bytes.
	Pixels() (shape []int, data []byte, err error)
}

// Map is an ordered in-memory Record. Fields keep insertion order, which
// keeps change logs stable.
type Map struct {
	order   []string
	values  map[string]string
	private int
}

// NewMap returns an empty in-memory record.
func NewMap() *Map {
	return &Map{values: make(map[string]string)}
}

// Put inserts or replaces a field, creating it if absent.
func (m *Map) Put(field, value string) *Map {
	if _, ok := m.values[field]; !ok {
		m.order = append(m.order, field)
	}
	m.values[field] = value
	return m
}

// PutPrivate records n vendor-private fields without naming them.
func (m *Map) PutPrivate(n int) *Map {
	m.private += n
	return m
}

func (m *Map) Has(field string) bool {
	_, ok := m.values[field]
	return ok
}

func (m *Map) Get(field string) (string, bool) {
	v, ok := m.values[field]
	return v, ok
}

func (m *Map) Set(field, value string) error {
	if _, ok := m.values[field]; !ok {
		return nil
	}
	m.values[field] = value
	return nil
}

func (m *Map) RemovePrivate() int {
	n := m.private
	m.private = 0
	return n
}

// Fields returns the field names in insertion order.
func (m *Map) Fields() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *Map) String() string {
	return fmt.Sprintf("record.Map(%d fields)", len(m.order))
}
