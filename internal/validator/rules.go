// Package validator checks an anonymized file-set against its originals:
// it pairs files up, compares field groups under the rule semantics the
// anonymizer used, and folds the outcomes into a summary report.
package validator

// Rules lists the field groups a validation run examines. Each group has
// its own pass criterion: must-anonymize fields must differ, UID fields
// must change, structural fields must survive untouched, optional fields
// depend on the declared anonymization level, and RT-specific fields
// follow the anonymizer's descriptive-field rules including the organ
// name exception.
type Rules struct {
	MustAnonymize []string
	UID           []string
	Structural    []string
	Optional      []string
	RTSpecific    []string
}

// DefaultRules returns the standard RT validation rule set.
func DefaultRules() Rules {
	return Rules{
		MustAnonymize: []string{
			"PatientName",
			"PatientID",
			"PatientBirthDate",
			"PatientAddress",
			"PatientTelephoneNumbers",
			"ReferringPhysicianName",
			"PhysiciansOfRecord",
			"PerformingPhysicianName",
			"InstitutionName",
			"InstitutionAddress",
			"StationName",
			"OperatorsName",
		},
		UID: []string{
			"StudyInstanceUID",
			"SeriesInstanceUID",
			"SOPInstanceUID",
			"FrameOfReferenceUID",
		},
		Structural: []string{
			"Modality",
			"SOPClassUID",
			"ImageType",
			"SamplesPerPixel",
			"PhotometricInterpretation",
			"BitsAllocated",
			"BitsStored",
			"HighBit",
			"PixelRepresentation",
			"NumberOfFrames",
		},
		Optional: []string{
			"StudyDate",
			"SeriesDate",
			"AcquisitionDate",
			"ContentDate",
			"StudyTime",
			"SeriesTime",
			"AcquisitionTime",
			"ContentTime",
			"AccessionNumber",
			"StudyID",
			"SeriesNumber",
			"AcquisitionNumber",
			"InstanceNumber",
			"ImagePositionPatient",
			"ImageOrientationPatient",
			"DeviceSerialNumber",
		},
		RTSpecific: []string{
			"StructureSetLabel",
			"StructureSetName",
			"ROIName",
			"DoseComment",
			"PlanLabel",
		},
	}
}
