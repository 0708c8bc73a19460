package dicom

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/suyashkumar/dicom"
)

// Set replaces the field's value in place. Fields absent from the record
// are left absent. A value the element cannot carry surfaces as an error;
// the caller decides whether to skip or abort.
func (d *Dataset) Set(field, value string) error {
	elem, t, ok := d.findByKeyword(field)
	if !ok {
		return nil
	}

	newValue, err := dicom.NewValue([]string{value})
	if err != nil {
		return fmt.Errorf("could not build value for %s: %w", field, err)
	}

	newElem := &dicom.Element{
		Tag:                    t,
		ValueRepresentation:    elem.ValueRepresentation,
		RawValueRepresentation: elem.RawValueRepresentation,
		ValueLength:            uint32(len(value)),
		Value:                  newValue,
	}

	for i, e := range d.Data.Elements {
		if e.Tag == t {
			d.Data.Elements[i] = newElem
			return nil
		}
	}
	return nil
}

// RemovePrivate strips vendor-private elements (odd group numbers) and
// returns the removed count.
func (d *Dataset) RemovePrivate() int {
	kept := d.Data.Elements[:0]
	removed := 0
	for _, e := range d.Data.Elements {
		if e.Tag.Group%2 == 1 {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	d.Data.Elements = kept
	return removed
}

// PrivateCount returns the number of vendor-private elements present.
func (d *Dataset) PrivateCount() int {
	count := 0
	for _, e := range d.Data.Elements {
		if e.Tag.Group%2 == 1 {
			count++
		}
	}
	return count
}

// Save writes the dataset. Verification is relaxed the same way the
// files were parsed: real-world DICOM rarely follows VR rules strictly.
func (d *Dataset) Save(outputPath string) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("could not create output directory: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("could not create output file: %w", err)
	}
	defer file.Close()

	if err := dicom.Write(file, d.Data,
		dicom.SkipVRVerification(),
		dicom.SkipValueTypeVerification(),
		dicom.DefaultMissingTransferSyntax(),
	); err != nil {
		return fmt.Errorf("could not write DICOM: %w", err)
	}
	return nil
}
