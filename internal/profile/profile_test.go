package profile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt-dicom-toolkit/internal/identity"
)

func TestBuildFull(t *testing.T) {
	run := identity.NewRun(identity.UIDConsistent)
	p := Build(DefaultOptions(), run)

	for _, f := range []string{
		"PatientName", "PatientID", "PatientBirthDate",
		"StudyDate", "StudyTime", "StudyInstanceUID",
		"InstitutionName", "StationName", "ROIName",
	} {
		_, ok := p[f]
		assert.Truef(t, ok, "full profile is missing %s", f)
	}

	got, err := p["PatientName"].Eval("PatientName", "Doe^John", run)
	require.NoError(t, err)
	assert.Equal(t, "ANONYMOUS", got)

	got, err = p["StudyDate"].Eval("StudyDate", "20230515", run)
	require.NoError(t, err)
	assert.Equal(t, "20000101", got)

	got, err = p["StudyTime"].Eval("StudyTime", "143521", run)
	require.NoError(t, err)
	assert.Equal(t, "000000.000", got)
}

func TestBuildPartial(t *testing.T) {
	opts := DefaultOptions()
	opts.Level = LevelPartial
	p := Build(opts, identity.NewRun(identity.UIDConsistent))

	for _, f := range []string{
		"StudyDate", "SeriesDate", "AcquisitionDate", "ContentDate",
		"StudyTime", "SeriesTime", "AcquisitionTime", "ContentTime",
		"InstitutionName", "StationName",
	} {
		_, ok := p[f]
		assert.Falsef(t, ok, "partial profile should not contain %s", f)
	}

	// Identity and linkage rules survive.
	_, ok := p["PatientName"]
	assert.True(t, ok)
	_, ok = p["StudyInstanceUID"]
	assert.True(t, ok)
}

func TestPatientIDMethods(t *testing.T) {
	run := identity.NewRun(identity.UIDConsistent)

	opts := DefaultOptions()
	opts.PatientIDMethod = PatientIDSequential
	p := Build(opts, run)

	got, err := p["PatientID"].Eval("PatientID", "12345678", run)
	require.NoError(t, err)
	assert.Equal(t, "Patient_001", got)

	got, err = p["PatientID"].Eval("PatientID", "12345678", run)
	require.NoError(t, err)
	assert.Equal(t, "Patient_001", got)

	run = identity.NewRun(identity.UIDConsistent)
	p = Build(DefaultOptions(), run)
	got, err = p["PatientID"].Eval("PatientID", "12345678", run)
	require.NoError(t, err)
	assert.Equal(t, "9000001", got)
}

func TestUIDRules(t *testing.T) {
	run := identity.NewRun(identity.UIDConsistent)
	p := Build(DefaultOptions(), run)

	a, err := p["StudyInstanceUID"].Eval("StudyInstanceUID", "1.2.3", run)
	require.NoError(t, err)
	b, err := p["StudyInstanceUID"].Eval("StudyInstanceUID", "1.2.3", run)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.True(t, identity.ValidUID(a))
	assert.NotEqual(t, "1.2.3", a)

	opts := DefaultOptions()
	opts.UIDHandling = identity.UIDGenerate
	run = identity.NewRun(identity.UIDGenerate)
	p = Build(opts, run)

	a, err = p["StudyInstanceUID"].Eval("StudyInstanceUID", "1.2.3", run)
	require.NoError(t, err)
	b, err = p["StudyInstanceUID"].Eval("StudyInstanceUID", "1.2.3", run)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestDatePolicies(t *testing.T) {
	run := identity.NewRun(identity.UIDConsistent)

	opts := DefaultOptions()
	opts.DatePolicy = DateYearOnly
	p := Build(opts, run)

	got, err := p["StudyDate"].Eval("StudyDate", "20230515", run)
	require.NoError(t, err)
	assert.Equal(t, "20000515", got)

	// Malformed dates fall back to the placeholder.
	got, err = p["StudyDate"].Eval("StudyDate", "2023", run)
	require.NoError(t, err)
	assert.Equal(t, "20000101", got)
}

func TestROINameRule(t *testing.T) {
	run := identity.NewRun(identity.UIDConsistent)
	p := Build(DefaultOptions(), run)
	rule := p["ROIName"]

	got, err := rule.Eval("ROIName", "Left Lung", run)
	require.NoError(t, err)
	assert.Equal(t, "Left Lung", got)

	got, err = rule.Eval("ROIName", "PTV_JohnDoe", run)
	require.NoError(t, err)
	assert.NotEqual(t, "PTV_JohnDoe", got)
	assert.Contains(t, got, "ROI_")
}

func TestContainsOrganKeyword(t *testing.T) {
	assert.True(t, ContainsOrganKeyword("Left Lung"))
	assert.True(t, ContainsOrganKeyword("SPINAL_CORD"))
	assert.True(t, ContainsOrganKeyword("BrainStem"))
	assert.False(t, ContainsOrganKeyword("PTV_70Gy"))
	assert.False(t, ContainsOrganKeyword(""))
}

func TestShortHash(t *testing.T) {
	a, err := shortHash("STUDY-001")
	require.NoError(t, err)
	b, err := shortHash("STUDY-001")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 8)
	assert.NotEqual(t, "STUDY-001", a)
}

func TestEvalUnknownKind(t *testing.T) {
	r := Rule{Kind: Kind(99)}
	_, err := r.Eval("PatientName", "x", identity.NewRun(identity.UIDConsistent))
	assert.Error(t, err)
}
