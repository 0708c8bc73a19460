// Package dicom adapts github.com/suyashkumar/dicom datasets to the
// record.Record interface the engines work against. Fields are addressed
// by DICOM keyword; all values cross the boundary as text.
package dicom

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Dataset wraps a parsed DICOM dataset.
type Dataset struct {
	Data     dicom.Dataset
	FilePath string
}

// Load reads and parses the file, pixel data included.
func Load(path string) (*Dataset, error) {
	return load(path)
}

// LoadMetadata reads only the metadata, skipping pixel data. Used for
// matching-index construction where decoding pixels would be wasted work.
func LoadMetadata(path string) (*Dataset, error) {
	return load(path, dicom.SkipPixelData())
}

func load(path string, opts ...dicom.ParseOption) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("could not stat file: %w", err)
	}

	ds, err := dicom.Parse(file, info.Size(), nil, opts...)
	if err != nil {
		return nil, fmt.Errorf("could not parse DICOM: %w", err)
	}

	return &Dataset{Data: ds, FilePath: path}, nil
}

// findByKeyword resolves a DICOM keyword to its element, if present.
func (d *Dataset) findByKeyword(field string) (*dicom.Element, tag.Tag, bool) {
	info, err := tag.FindByName(field)
	if err != nil {
		return nil, tag.Tag{}, false
	}
	elem, err := d.Data.FindElementByTag(info.Tag)
	if err != nil || elem == nil {
		return nil, info.Tag, false
	}
	return elem, info.Tag, true
}

// Has reports whether the record carries the field.
func (d *Dataset) Has(field string) bool {
	_, _, ok := d.findByKeyword(field)
	return ok
}

// Get returns the field's value as text. Multi-valued fields are joined
// with the DICOM value separator.
func (d *Dataset) Get(field string) (string, bool) {
	elem, _, ok := d.findByKeyword(field)
	if !ok || elem.Value == nil {
		return "", ok
	}
	return valueText(elem.Value.GetValue()), true
}

// valueText renders an element value in a stable textual form.
func valueText(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []string:
		return strings.Join(val, "\\")
	case []int:
		parts := make([]string, len(val))
		for i, n := range val {
			parts[i] = strconv.Itoa(n)
		}
		return strings.Join(parts, "\\")
	case []float64:
		parts := make([]string, len(val))
		for i, f := range val {
			parts[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		return strings.Join(parts, "\\")
	case []byte:
		return fmt.Sprintf("<%d bytes>", len(val))
	default:
		return fmt.Sprintf("%v", val)
	}
}

// Modality returns the DICOM modality, or "" when absent.
func (d *Dataset) Modality() string {
	v, _ := d.Get("Modality")
	return v
}
