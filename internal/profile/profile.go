// Package profile defines the declarative field-to-rule table driving
// anonymization. The base table covers patient identity, study and
// institution fields, the four linkage UIDs, dates and times, and the
// RT-specific descriptive fields; options prune or rebind entries.
package profile

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"

	"rt-dicom-toolkit/internal/identity"
)

// Level selects how much of the table applies.
type Level string

const (
	// LevelFull applies the entire table.
	LevelFull Level = "full"
	// LevelPartial drops date/time and institution rules, leaving those
	// fields untouched downstream.
	LevelPartial Level = "partial"
)

// PatientIDMethod selects how patient IDs are replaced.
type PatientIDMethod string

const (
	// PatientIDHash maps through the numeric identifier mapper.
	PatientIDHash PatientIDMethod = "hash"
	// PatientIDSequential issues Patient_NNN labels in encounter order.
	PatientIDSequential PatientIDMethod = "sequential"
)

// DatePolicy selects how date fields are rewritten under full
// anonymization. The two policies come from diverging variants of the
// source rule tables; neither is "the" correct one, so the choice is
// explicit configuration.
type DatePolicy string

const (
	// DatePlaceholder replaces dates with a fixed 20000101.
	DatePlaceholder DatePolicy = "placeholder"
	// DateYearOnly substitutes the year with 2000 and keeps month/day.
	// Weaker than full replacement; month and day survive.
	DateYearOnly DatePolicy = "year-only"
)

// Options configures profile construction.
type Options struct {
	Level           Level
	UIDHandling     identity.UIDMode
	PatientIDMethod PatientIDMethod
	DatePolicy      DatePolicy
}

// DefaultOptions mirror the source defaults: full anonymization,
// consistent UIDs, hash-mapped patient IDs, placeholder dates.
func DefaultOptions() Options {
	return Options{
		Level:           LevelFull,
		UIDHandling:     identity.UIDConsistent,
		PatientIDMethod: PatientIDHash,
		DatePolicy:      DatePlaceholder,
	}
}

// Profile maps a field identifier to its replacement rule. At most one
// rule per field.
type Profile map[string]Rule

// Field groups used by option-driven pruning.
var (
	dateFields = []string{"StudyDate", "SeriesDate", "AcquisitionDate", "ContentDate"}
	timeFields = []string{"StudyTime", "SeriesTime", "AcquisitionTime", "ContentTime"}
	uidFields  = []string{"StudyInstanceUID", "SeriesInstanceUID", "SOPInstanceUID", "FrameOfReferenceUID"}
)

// organKeywords are anatomical names that must survive anonymization:
// region-of-interest labels carrying them stay clinically meaningful for
// treatment review and contain no patient identity.
var organKeywords = []string{"lung", "heart", "liver", "kidney", "spinal", "brain"}

// Build constructs the profile for the given options, binding rules that
// need mapper state to the run context.
func Build(opts Options, run *identity.Run) Profile {
	p := Profile{
		// Patient identity
		"PatientName":             ConstantRule("ANONYMOUS"),
		"PatientID":               patientIDRule(opts.PatientIDMethod, run),
		"PatientBirthDate":        ConstantRule("19000101"),
		"PatientSex":              ConstantRule("O"),
		"PatientAge":              ConstantRule("000Y"),
		"PatientWeight":           ConstantRule(""),
		"PatientAddress":          ConstantRule(""),
		"PatientTelephoneNumbers": ConstantRule(""),

		// Study and institution
		"StudyID":                 DeriveRule(shortHash),
		"AccessionNumber":         ConstantRule(""),
		"InstitutionName":         ConstantRule("ANONYMOUS_INSTITUTION"),
		"InstitutionAddress":      ConstantRule(""),
		"ReferringPhysicianName":  ConstantRule("ANONYMOUS_PHYSICIAN"),
		"PhysiciansOfRecord":      ConstantRule(""),
		"PerformingPhysicianName": ConstantRule(""),
		"OperatorsName":           ConstantRule(""),

		// Device
		"DeviceSerialNumber":    ConstantRule(""),
		"StationName":           ConstantRule("ANONYMOUS_STATION"),
		"ManufacturerModelName": ConstantRule(""),

		// RT descriptive fields
		"StructureSetLabel": DeriveRule(anonymousSuffix("ANONYMOUS_", 5)),
		"StructureSetName":  DeriveRule(anonymousSuffix("ANONYMOUS_", 5)),
		"ROIName":           DeriveRule(roiName),
		"DoseComment":       ConstantRule("ANONYMIZED"),
		"PlanLabel":         DeriveRule(anonymousSuffix("ANONYMOUS_PLAN_", 5)),
	}

	for _, f := range uidFields {
		if opts.UIDHandling == identity.UIDConsistent {
			p[f] = ConsistentUIDRule()
		} else {
			p[f] = DeriveRule(func(string) (string, error) {
				return identity.Fresh(), nil
			})
		}
	}

	for _, f := range dateFields {
		p[f] = dateRule(opts.DatePolicy)
	}
	for _, f := range timeFields {
		p[f] = ConstantRule("000000.000")
	}

	if opts.Level == LevelPartial {
		for _, f := range dateFields {
			delete(p, f)
		}
		for _, f := range timeFields {
			delete(p, f)
		}
		delete(p, "InstitutionName")
		delete(p, "StationName")
	}

	return p
}

func patientIDRule(method PatientIDMethod, run *identity.Run) Rule {
	if method == PatientIDSequential {
		return DeriveRule(func(original string) (string, error) {
			return run.SequentialPatientID(original), nil
		})
	}
	return DeriveRule(func(original string) (string, error) {
		return run.IDs.Anonymize(original), nil
	})
}

func dateRule(policy DatePolicy) Rule {
	if policy == DateYearOnly {
		return DeriveRule(func(original string) (string, error) {
			if len(original) == 8 {
				return "2000" + original[4:], nil
			}
			return "20000101", nil
		})
	}
	return ConstantRule("20000101")
}

// shortHash replaces a value with the first 8 hex digits of its digest,
// keeping distinct studies distinguishable without exposing the original.
func shortHash(original string) (string, error) {
	sum := md5.Sum([]byte(original))
	return hex.EncodeToString(sum[:])[:8], nil
}

// anonymousSuffix keeps the last n characters of the original for human
// traceability behind a fixed prefix.
func anonymousSuffix(prefix string, n int) func(string) (string, error) {
	return func(original string) (string, error) {
		return prefix + lastN(original, n), nil
	}
}

// roiName preserves names that contain an anatomical keyword and rewrites
// everything else to a derived label with a short traceable suffix.
func roiName(original string) (string, error) {
	if ContainsOrganKeyword(original) {
		return original, nil
	}
	return "ROI_" + lastN(original, 10), nil
}

// ContainsOrganKeyword reports whether the name carries one of the fixed
// anatomical keywords, case-insensitively. The validator applies the same
// exception when classifying ROI names.
func ContainsOrganKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, organ := range organKeywords {
		if strings.Contains(lower, organ) {
			return true
		}
	}
	return false
}

func lastN(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}

// String summarizes the profile for logs.
func (p Profile) String() string {
	return fmt.Sprintf("profile(%d rules)", len(p))
}
