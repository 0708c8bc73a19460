package cli

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rt-dicom-toolkit/internal/identity"
	"rt-dicom-toolkit/internal/profile"
)

func TestNewRootCmd(t *testing.T) {
	root := NewRootCmd()
	assert.Equal(t, "rtkit", root.Use)

	names := make([]string, 0, 2)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Contains(t, names, "anonymize")
	assert.Contains(t, names, "validate")
}

func setOptions(t *testing.T, level, uid, idMethod, datePolicy string) {
	t.Helper()
	viper.Set("anonymize.level", level)
	viper.Set("anonymize.uid_handling", uid)
	viper.Set("anonymize.patient_id_method", idMethod)
	viper.Set("anonymize.date_policy", datePolicy)
	t.Cleanup(viper.Reset)
}

func TestProfileOptions(t *testing.T) {
	setOptions(t, "partial", "generate", "sequential", "year-only")

	opts, err := profileOptions()
	require.NoError(t, err)
	assert.Equal(t, profile.LevelPartial, opts.Level)
	assert.Equal(t, identity.UIDGenerate, opts.UIDHandling)
	assert.Equal(t, profile.PatientIDSequential, opts.PatientIDMethod)
	assert.Equal(t, profile.DateYearOnly, opts.DatePolicy)
}

func TestProfileOptionsRejectsInvalid(t *testing.T) {
	setOptions(t, "everything", "consistent", "hash", "placeholder")
	_, err := profileOptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid level")

	setOptions(t, "full", "consistent", "hash", "sometimes")
	_, err = profileOptions()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid date-policy")
}
