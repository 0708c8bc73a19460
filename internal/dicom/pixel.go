package dicom

import (
	"fmt"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"
)

// Pixels decodes the pixel data into raw little-endian bytes plus its
// shape. Multi-frame objects get a leading frame count in the shape.
// Decode failures come back as errors for the caller to record as a flag.
func (d *Dataset) Pixels() (shape []int, data []byte, err error) {
	rows := d.intTag(tag.Rows)
	cols := d.intTag(tag.Columns)
	if rows == 0 || cols == 0 {
		return nil, nil, fmt.Errorf("invalid image dimensions: %dx%d", cols, rows)
	}

	pixelElem, err := d.Data.FindElementByTag(tag.PixelData)
	if err != nil {
		return nil, nil, fmt.Errorf("no pixel data found: %w", err)
	}

	samples := d.intTagDefault(tag.SamplesPerPixel, 1)
	bitsAllocated := d.intTagDefault(tag.BitsAllocated, 8)
	bytesPerSample := (bitsAllocated + 7) / 8

	switch v := pixelElem.Value.GetValue().(type) {
	case dicom.PixelDataInfo:
		if len(v.Frames) == 0 {
			return nil, nil, fmt.Errorf("no frames in pixel data")
		}
		if len(v.Frames) > 1 {
			shape = []int{len(v.Frames), rows, cols}
		} else {
			shape = []int{rows, cols}
		}
		data = make([]byte, 0, len(v.Frames)*rows*cols*samples*bytesPerSample)
		for _, frame := range v.Frames {
			if frame.NativeData.Data == nil {
				return nil, nil, fmt.Errorf("native frame data is nil")
			}
			for _, pixel := range frame.NativeData.Data {
				for _, sample := range pixel {
					if bytesPerSample == 1 {
						data = append(data, byte(sample))
					} else {
						data = append(data, byte(sample), byte(sample>>8))
					}
				}
			}
		}
		return shape, data, nil

	case []byte:
		return []int{rows, cols}, v, nil

	default:
		return nil, nil, fmt.Errorf("unsupported pixel data type: %T", v)
	}
}

// HasPixels reports whether the record carries a pixel data element.
func (d *Dataset) HasPixels() bool {
	_, err := d.Data.FindElementByTag(tag.PixelData)
	return err == nil
}

func (d *Dataset) intTag(t tag.Tag) int {
	return d.intTagDefault(t, 0)
}

func (d *Dataset) intTagDefault(t tag.Tag, def int) int {
	elem, err := d.Data.FindElementByTag(t)
	if err != nil || elem == nil || elem.Value == nil {
		return def
	}
	switch v := elem.Value.GetValue().(type) {
	case []int:
		if len(v) > 0 && v[0] != 0 {
			return v[0]
		}
	case int:
		if v != 0 {
			return v
		}
	case []uint16:
		if len(v) > 0 && v[0] != 0 {
			return int(v[0])
		}
	case uint16:
		if v != 0 {
			return int(v)
		}
	}
	return def
}
