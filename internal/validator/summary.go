package validator

// Counter is a pass/fail tally for one field.
type Counter struct {
	Pass int `json:"pass"`
	Fail int `json:"fail"`
}

// Total returns how many comparisons the counter saw.
func (c *Counter) Total() int { return c.Pass + c.Fail }

// Rate returns the pass percentage, or -1 when nothing was counted.
func (c *Counter) Rate() float64 {
	if c.Total() == 0 {
		return -1
	}
	return float64(c.Pass) / float64(c.Total()) * 100
}

// Summary holds the running aggregates of a validation batch. It is a
// single-writer structure scoped to one run.
type Summary struct {
	TotalOriginal   int `json:"total_original"`
	TotalAnonymized int `json:"total_anonymized"`
	Matched         int `json:"matched_files"`

	MustAnonymize map[string]*Counter `json:"must_anonymize_stats"`
	UID           map[string]*Counter `json:"uid_stats"`
	Structural    map[string]*Counter `json:"structure_stats"`
	RTSpecific    map[string]*Counter `json:"rt_specific_stats"`

	PrivateRemoved   int `json:"private_removed"`
	PrivateRemaining int `json:"private_remaining"`

	PixelChecked    int `json:"pixel_checked"`
	PixelMatched    int `json:"pixel_matched"`
	PixelShapeDiffs int `json:"pixel_shape_diffs"`

	Modalities     map[string]int    `json:"modality_stats"`
	PatientIDMap   map[string]string `json:"patient_id_map"`
	UnmatchedFiles []string          `json:"unmatched_files,omitempty"`
	SkippedFiles   []string          `json:"skipped_files,omitempty"`
}

// NewSummary returns a summary with a counter per rule-group field.
func NewSummary(rules Rules) *Summary {
	s := &Summary{
		MustAnonymize: make(map[string]*Counter, len(rules.MustAnonymize)),
		UID:           make(map[string]*Counter, len(rules.UID)),
		Structural:    make(map[string]*Counter, len(rules.Structural)),
		RTSpecific:    make(map[string]*Counter, len(rules.RTSpecific)),
		Modalities:    make(map[string]int),
		PatientIDMap:  make(map[string]string),
	}
	for _, f := range rules.MustAnonymize {
		s.MustAnonymize[f] = &Counter{}
	}
	for _, f := range rules.UID {
		s.UID[f] = &Counter{}
	}
	for _, f := range rules.Structural {
		s.Structural[f] = &Counter{}
	}
	for _, f := range rules.RTSpecific {
		s.RTSpecific[f] = &Counter{}
	}
	return s
}

// Fold adds one matched pair's result to the running aggregates.
func (s *Summary) Fold(r *Result) {
	s.Matched++
	if r.Modality != "" {
		s.Modalities[r.Modality]++
	}

	fold := func(counters map[string]*Counter, results map[string]FieldComparison) {
		for field, fc := range results {
			c, ok := counters[field]
			if !ok {
				c = &Counter{}
				counters[field] = c
			}
			if fc.OK {
				c.Pass++
			} else {
				c.Fail++
			}
		}
	}
	fold(s.MustAnonymize, r.MustAnonymize)
	fold(s.UID, r.UID)
	fold(s.Structural, r.Structural)
	fold(s.RTSpecific, r.RTSpecific)

	if r.PrivateAnonymized == 0 {
		s.PrivateRemoved++
	} else {
		s.PrivateRemaining++
	}

	if r.Pixels.Checked {
		s.PixelChecked++
		if r.Pixels.Match {
			s.PixelMatched++
		}
		if !r.Pixels.ShapeMatch {
			s.PixelShapeDiffs++
		}
	}

	// Record the patient ID correspondence when both sides carried one.
	if fc, ok := r.MustAnonymize["PatientID"]; ok && fc.Original != "" && fc.Anonymized != "" {
		s.PatientIDMap[fc.Original] = fc.Anonymized
	}
}

// MustAnonymizeRate returns the overall pass percentage across every
// must-anonymize field, or -1 when nothing was compared.
func (s *Summary) MustAnonymizeRate() float64 {
	pass, total := 0, 0
	for _, c := range s.MustAnonymize {
		pass += c.Pass
		total += c.Total()
	}
	if total == 0 {
		return -1
	}
	return float64(pass) / float64(total) * 100
}
