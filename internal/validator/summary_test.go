package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt-dicom-toolkit/internal/profile"
)

func TestCounterRate(t *testing.T) {
	c := &Counter{Pass: 19, Fail: 1}
	assert.Equal(t, 20, c.Total())
	assert.InDelta(t, 95.0, c.Rate(), 0.001)

	empty := &Counter{}
	assert.Equal(t, -1.0, empty.Rate())
}

func TestSummaryFold(t *testing.T) {
	rules := DefaultRules()
	s := NewSummary(rules)

	r := Compare(originalRecord(), anonymizedRecord(), rules, profile.LevelFull)
	s.Fold(r)

	assert.Equal(t, 1, s.Matched)
	assert.Equal(t, 1, s.Modalities["RTPLAN"])
	assert.Equal(t, 1, s.MustAnonymize["PatientName"].Pass)
	assert.Equal(t, 1, s.UID["StudyInstanceUID"].Pass)
	assert.Equal(t, 1, s.Structural["Modality"].Pass)
	assert.Equal(t, "9000001", s.PatientIDMap["12345678"])
	assert.Equal(t, 1, s.PrivateRemoved)

	// A second pair with an unchanged name drags the rate down.
	anon := anonymizedRecord().Put("PatientName", "Doe^John")
	s.Fold(Compare(originalRecord(), anon, rules, profile.LevelFull))

	assert.Equal(t, 2, s.Matched)
	assert.Equal(t, 1, s.MustAnonymize["PatientName"].Fail)
	rate := s.MustAnonymizeRate()
	assert.Greater(t, rate, 0.0)
	assert.Less(t, rate, 100.0)
}

func TestMustAnonymizeRateEmpty(t *testing.T) {
	s := NewSummary(DefaultRules())
	assert.Equal(t, -1.0, s.MustAnonymizeRate())
}

func TestMarker(t *testing.T) {
	assert.Equal(t, "[OK]", marker(100))
	assert.Equal(t, "[OK]", marker(95))
	assert.Equal(t, "[WARN]", marker(94.9))
	assert.Equal(t, "[WARN]", marker(80))
	assert.Equal(t, "[FAIL]", marker(79.9))
	assert.Equal(t, "[FAIL]", marker(0))
}

func TestRender(t *testing.T) {
	rules := DefaultRules()
	s := NewSummary(rules)
	s.TotalOriginal = 2
	s.TotalAnonymized = 2
	s.Fold(Compare(originalRecord(), anonymizedRecord(), rules, profile.LevelFull))

	report := Render(s, rules)

	assert.Contains(t, report, "Anonymization Validation Summary")
	assert.Contains(t, report, "Matched files: 1")
	assert.Contains(t, report, "Required-field anonymization rate: 100.0%")
	assert.Contains(t, report, "[OK] Anonymization: good")
	assert.Contains(t, report, "[OK] PatientName: 1/1 (100.0%)")
	assert.Contains(t, report, "RTPLAN: 1 file(s)")

	// Patient IDs appear masked, never verbatim.
	assert.NotContains(t, report, "12345678")
	assert.Contains(t, report, "12***78 -> 9000001")
}

func TestRenderEmptyBatch(t *testing.T) {
	rules := DefaultRules()
	s := NewSummary(rules)
	s.TotalOriginal = 3

	report := Render(s, rules)
	assert.Contains(t, report, "Matched files: 0")
	assert.NotContains(t, report, "Required-field anonymization rate")
}

func TestRenderInsufficientVerdict(t *testing.T) {
	rules := DefaultRules()
	s := NewSummary(rules)

	anon := originalRecord() // nothing anonymized at all
	s.Fold(Compare(originalRecord(), anon, rules, profile.LevelFull))

	report := Render(s, rules)
	assert.Contains(t, report, "[FAIL] Anonymization: insufficient")
}

func TestSaveReport(t *testing.T) {
	dir := t.TempDir()
	path, err := SaveReport("report body\n", dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(path, dir))
	require.FileExists(t, path)
}
