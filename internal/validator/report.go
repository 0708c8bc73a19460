package validator

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"rt-dicom-toolkit/internal/identity"
)

// Traffic-light thresholds for the report, in percent. They color the
// report only; nothing fails a run because of them.
const (
	rateGood   = 95
	rateReview = 80
)

func marker(rate float64) string {
	switch {
	case rate >= rateGood:
		return "[OK]"
	case rate >= rateReview:
		return "[WARN]"
	default:
		return "[FAIL]"
	}
}

// Render produces the line-oriented text report from a summary.
func Render(s *Summary, rules Rules) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== Anonymization Validation Summary ===\n")
	fmt.Fprintf(&b, "Validated at: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Original files: %d\n", s.TotalOriginal)
	fmt.Fprintf(&b, "Anonymized files: %d\n", s.TotalAnonymized)
	fmt.Fprintf(&b, "Matched files: %d\n", s.Matched)
	if len(s.UnmatchedFiles) > 0 {
		fmt.Fprintf(&b, "Unmatched files: %d\n", len(s.UnmatchedFiles))
	}
	if len(s.SkippedFiles) > 0 {
		fmt.Fprintf(&b, "Skipped files: %d\n", len(s.SkippedFiles))
	}
	b.WriteString("\n")

	if rate := s.MustAnonymizeRate(); rate >= 0 {
		fmt.Fprintf(&b, "Required-field anonymization rate: %.1f%%\n", rate)
		switch {
		case rate >= rateGood:
			b.WriteString("[OK] Anonymization: good (95% or more of required fields anonymized)\n")
		case rate >= rateReview:
			b.WriteString("[WARN] Anonymization: needs review (80-94% of required fields anonymized)\n")
		default:
			b.WriteString("[FAIL] Anonymization: insufficient (below 80%)\n")
		}
		b.WriteString("\n")
	}

	writeGroup(&b, "--- Required anonymization fields ---", rules.MustAnonymize, s.MustAnonymize)
	writeGroup(&b, "--- UID replacement ---", rules.UID, s.UID)
	writeGroup(&b, "--- Structural field preservation ---", rules.Structural, s.Structural)
	writeGroup(&b, "--- RT-specific fields ---", rules.RTSpecific, s.RTSpecific)

	b.WriteString("--- Private field removal ---\n")
	if total := s.PrivateRemoved + s.PrivateRemaining; total > 0 {
		rate := float64(s.PrivateRemoved) / float64(total) * 100
		fmt.Fprintf(&b, "%s private fields removed: %d/%d (%.1f%%)\n",
			marker(rate), s.PrivateRemoved, total, rate)
	}
	b.WriteString("\n")

	if s.PixelChecked > 0 {
		b.WriteString("--- Pixel data ---\n")
		fmt.Fprintf(&b, "Checked: %d, identical: %d, shape mismatches: %d\n",
			s.PixelChecked, s.PixelMatched, s.PixelShapeDiffs)
		b.WriteString("\n")
	}

	b.WriteString("--- Modality distribution ---\n")
	for _, m := range sortedKeys(s.Modalities) {
		fmt.Fprintf(&b, "%s: %d file(s)\n", m, s.Modalities[m])
	}

	if len(s.PatientIDMap) > 0 {
		b.WriteString("\n--- Patient ID correspondence (up to 10 shown) ---\n")
		origIDs := make([]string, 0, len(s.PatientIDMap))
		for id := range s.PatientIDMap {
			origIDs = append(origIDs, id)
		}
		sort.Strings(origIDs)
		for i, id := range origIDs {
			if i == 10 {
				fmt.Fprintf(&b, "... %d more\n", len(origIDs)-10)
				break
			}
			fmt.Fprintf(&b, "%s -> %s\n", identity.MaskID(id), s.PatientIDMap[id])
		}
	}

	return b.String()
}

func writeGroup(b *strings.Builder, header string, fields []string, counters map[string]*Counter) {
	b.WriteString(header + "\n")
	for _, field := range fields {
		c, ok := counters[field]
		if !ok || c.Total() == 0 {
			continue
		}
		rate := c.Rate()
		fmt.Fprintf(b, "%s %s: %d/%d (%.1f%%)\n", marker(rate), field, c.Pass, c.Total(), rate)
	}
	b.WriteString("\n")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SaveReport writes the rendered report to a timestamped file in dir and
// returns its path.
func SaveReport(report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("could not create report directory: %w", err)
	}
	name := fmt.Sprintf("validation_summary_%s.txt", time.Now().Format("20060102_150405"))
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(report), 0o644); err != nil {
		return "", fmt.Errorf("could not save report: %w", err)
	}
	return path, nil
}
