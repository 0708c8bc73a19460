package validator

import (
	"bytes"
	"log/slog"

	"rt-dicom-toolkit/internal/profile"
	"rt-dicom-toolkit/internal/record"
)

// FieldComparison is one field's before/after classification.
type FieldComparison struct {
	Original   string `json:"original"`
	Anonymized string `json:"anonymized"`
	Status     string `json:"status"`
	OK         bool   `json:"ok"`
}

// PixelComparison reports the pixel-data check. Shape or decode problems
// are flags here, never failures of the comparison itself.
type PixelComparison struct {
	Checked         bool   `json:"checked"`
	OriginalShape   []int  `json:"original_shape,omitempty"`
	AnonymizedShape []int  `json:"anonymized_shape,omitempty"`
	ShapeMatch      bool   `json:"shape_match"`
	Match           bool   `json:"match"`
	Note            string `json:"note,omitempty"`
}

// Result classifies one matched file pair across the five rule groups.
type Result struct {
	Modality string `json:"modality"`

	MustAnonymize map[string]FieldComparison `json:"must_anonymize"`
	UID           map[string]FieldComparison `json:"uid"`
	Structural    map[string]FieldComparison `json:"structural"`
	Optional      map[string]FieldComparison `json:"optional"`
	RTSpecific    map[string]FieldComparison `json:"rt_specific"`

	PrivateOriginal   int `json:"private_original"`
	PrivateAnonymized int `json:"private_anonymized"`

	Pixels PixelComparison `json:"pixels"`
}

// privateCounter is implemented by records that can count vendor-private
// fields without removing them.
type privateCounter interface {
	PrivateCount() int
}

// Compare classifies every rule-group field of a matched pair. level
// controls how the optional group is judged: under full anonymization an
// unchanged optional field is a warning, under partial either state is
// acceptable.
func Compare(orig, anon record.Record, rules Rules, level profile.Level) *Result {
	r := &Result{
		MustAnonymize: make(map[string]FieldComparison, len(rules.MustAnonymize)),
		UID:           make(map[string]FieldComparison, len(rules.UID)),
		Structural:    make(map[string]FieldComparison, len(rules.Structural)),
		Optional:      make(map[string]FieldComparison, len(rules.Optional)),
		RTSpecific:    make(map[string]FieldComparison, len(rules.RTSpecific)),
	}
	r.Modality, _ = orig.Get("Modality")

	for _, field := range rules.MustAnonymize {
		r.MustAnonymize[field] = compareMustAnonymize(orig, anon, field)
	}
	for _, field := range rules.UID {
		r.UID[field] = compareUID(orig, anon, field)
	}
	for _, field := range rules.Structural {
		r.Structural[field] = compareStructural(orig, anon, field)
	}
	for _, field := range rules.Optional {
		r.Optional[field] = compareOptional(orig, anon, field, level)
	}
	for _, field := range rules.RTSpecific {
		if field == "ROIName" {
			r.RTSpecific[field] = compareROIName(orig, anon)
		} else {
			r.RTSpecific[field] = compareMustAnonymize(orig, anon, field)
		}
	}

	if pc, ok := orig.(privateCounter); ok {
		r.PrivateOriginal = pc.PrivateCount()
	}
	if pc, ok := anon.(privateCounter); ok {
		r.PrivateAnonymized = pc.PrivateCount()
	}

	r.Pixels = comparePixels(orig, anon)
	return r
}

// compareMustAnonymize: the field passes when the anonymized side is
// absent, empty, or textually different from the original.
func compareMustAnonymize(orig, anon record.Record, field string) FieldComparison {
	origVal, _ := orig.Get(field)
	anonVal, anonOK := anon.Get(field)

	fc := FieldComparison{Original: origVal, Anonymized: anonVal}
	switch {
	case !anonOK:
		fc.Status, fc.OK = "removed", true
	case anonVal == "":
		fc.Status, fc.OK = "cleared", true
	case origVal != anonVal:
		fc.Status, fc.OK = "changed", true
	default:
		fc.Status, fc.OK = "unchanged", false
	}
	return fc
}

// compareUID: the linkage must be broken, so the field passes when the
// value differs; absence also counts as changed.
func compareUID(orig, anon record.Record, field string) FieldComparison {
	origVal, _ := orig.Get(field)
	anonVal, anonOK := anon.Get(field)

	fc := FieldComparison{Original: origVal, Anonymized: anonVal}
	switch {
	case !anonOK:
		fc.Status, fc.OK = "removed", true
	case origVal != anonVal:
		fc.Status, fc.OK = "changed", true
	default:
		fc.Status, fc.OK = "unchanged", false
	}
	return fc
}

// compareStructural: these fields carry no identity and must survive
// byte-for-byte; any difference is a defect.
func compareStructural(orig, anon record.Record, field string) FieldComparison {
	origVal, origOK := orig.Get(field)
	anonVal, anonOK := anon.Get(field)

	fc := FieldComparison{Original: origVal, Anonymized: anonVal}
	if origVal == anonVal && origOK == anonOK {
		fc.Status, fc.OK = "preserved", true
	} else {
		fc.Status, fc.OK = "modified", false
	}
	return fc
}

// compareOptional: under full anonymization the field is expected to
// change (unchanged is a warning); under partial either state passes.
func compareOptional(orig, anon record.Record, field string, level profile.Level) FieldComparison {
	origVal, _ := orig.Get(field)
	anonVal, anonOK := anon.Get(field)

	fc := FieldComparison{Original: origVal, Anonymized: anonVal}
	if level == profile.LevelFull {
		switch {
		case !anonOK:
			fc.Status, fc.OK = "removed", true
		case origVal != anonVal:
			fc.Status, fc.OK = "changed", true
		default:
			fc.Status, fc.OK = "unchanged", false
		}
		return fc
	}

	fc.OK = true
	if origVal == anonVal {
		fc.Status = "preserved"
	} else {
		fc.Status = "changed"
	}
	return fc
}

// compareROIName applies the anatomical keyword exception: organ names
// must survive verbatim, everything else must be rewritten. The inverse
// of either is a defect.
func compareROIName(orig, anon record.Record) FieldComparison {
	origVal, origOK := orig.Get("ROIName")
	anonVal, _ := anon.Get("ROIName")

	fc := FieldComparison{Original: origVal, Anonymized: anonVal}
	if !origOK {
		fc.Status, fc.OK = "absent", true
		return fc
	}

	if profile.ContainsOrganKeyword(origVal) {
		if origVal == anonVal {
			fc.Status, fc.OK = "organ name preserved", true
		} else {
			fc.Status, fc.OK = "organ name changed", false
		}
		return fc
	}

	if origVal != anonVal {
		fc.Status, fc.OK = "anonymized", true
	} else {
		fc.Status, fc.OK = "not anonymized", false
	}
	return fc
}

// pixelPresence lets the codec adapter report whether pixel data exists
// at all, so records without images are skipped rather than flagged.
type pixelPresence interface {
	HasPixels() bool
}

// comparePixels checks decoded pixel data on both sides when available.
func comparePixels(orig, anon record.Record) PixelComparison {
	origPx, ok1 := orig.(record.PixelSource)
	anonPx, ok2 := anon.(record.PixelSource)
	if !ok1 || !ok2 {
		return PixelComparison{}
	}
	if hp, ok := orig.(pixelPresence); ok && !hp.HasPixels() {
		return PixelComparison{}
	}
	if hp, ok := anon.(pixelPresence); ok && !hp.HasPixels() {
		return PixelComparison{}
	}

	origShape, origData, err := origPx.Pixels()
	if err != nil {
		return PixelComparison{Note: "original pixel data not decodable: " + err.Error()}
	}
	anonShape, anonData, err := anonPx.Pixels()
	if err != nil {
		return PixelComparison{
			OriginalShape: origShape,
			Note:          "anonymized pixel data not decodable: " + err.Error(),
		}
	}

	pc := PixelComparison{
		Checked:         true,
		OriginalShape:   origShape,
		AnonymizedShape: anonShape,
		ShapeMatch:      equalShape(origShape, anonShape),
	}
	if pc.ShapeMatch {
		pc.Match = bytes.Equal(origData, anonData)
	}
	if !pc.ShapeMatch {
		slog.Warn("pixel shape mismatch between original and anonymized",
			"original", origShape, "anonymized", anonShape)
	}
	return pc
}

func equalShape(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
