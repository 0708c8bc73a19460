package progress

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeInput(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("payload"), 0o644))
	return path
}

func TestTrackerMarkAndResume(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, ".progress.json")
	input := writeInput(t, dir, "a.dcm")

	tr := NewTracker(state)
	assert.False(t, tr.Done(input))

	tr.MarkSuccess(input, "/out/a.dcm")
	assert.True(t, tr.Done(input))

	// A fresh tracker over the same state file resumes.
	tr2 := NewTracker(state)
	assert.True(t, tr2.Done(input))

	success, errors := tr2.Counts()
	assert.Equal(t, 1, success)
	assert.Equal(t, 0, errors)
}

func TestTrackerDetectsChangedInput(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "a.dcm")

	tr := NewTracker(filepath.Join(dir, ".progress.json"))
	tr.MarkSuccess(input, "")
	require.True(t, tr.Done(input))

	// Growing the file invalidates the recorded fingerprint.
	require.NoError(t, os.WriteFile(input, []byte("different payload"), 0o644))
	assert.False(t, tr.Done(input))
}

func TestTrackerErrorsNotDone(t *testing.T) {
	dir := t.TempDir()
	input := writeInput(t, dir, "a.dcm")

	tr := NewTracker(filepath.Join(dir, ".progress.json"))
	tr.MarkError(input, "parse failed")
	assert.False(t, tr.Done(input))

	success, errors := tr.Counts()
	assert.Equal(t, 0, success)
	assert.Equal(t, 1, errors)
}

func TestTrackerClearFailed(t *testing.T) {
	dir := t.TempDir()
	a := writeInput(t, dir, "a.dcm")
	b := writeInput(t, dir, "b.dcm")

	tr := NewTracker(filepath.Join(dir, ".progress.json"))
	tr.MarkSuccess(a, "")
	tr.MarkError(b, "parse failed")

	assert.Equal(t, 1, tr.ClearFailed())
	assert.Equal(t, 0, tr.ClearFailed())

	success, errors := tr.Counts()
	assert.Equal(t, 1, success)
	assert.Equal(t, 0, errors)
}

func TestTrackerCorruptStateStartsFresh(t *testing.T) {
	dir := t.TempDir()
	state := filepath.Join(dir, ".progress.json")
	require.NoError(t, os.WriteFile(state, []byte("{not json"), 0o644))

	tr := NewTracker(state)
	success, errors := tr.Counts()
	assert.Equal(t, 0, success)
	assert.Equal(t, 0, errors)
}

func TestTrackerNoPath(t *testing.T) {
	tr := NewTracker("")
	tr.MarkSuccess("/some/file.dcm", "")
	// In-memory only, nothing written anywhere, no panic.
	success, _ := tr.Counts()
	assert.Equal(t, 1, success)
}

func TestErrorLog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "logs", "errors.log")

	l, err := NewErrorLog(path)
	require.NoError(t, err)
	assert.Equal(t, "No errors", l.Summary())

	l.Record("/in/a.dcm", "not a DICOM file")
	l.Record("/in/b.dcm", "truncated")
	require.NoError(t, l.Close())

	assert.Equal(t, 2, l.Count())
	assert.Contains(t, l.Summary(), "2 errors")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "a.dcm | not a DICOM file")
	assert.Contains(t, string(data), "b.dcm | truncated")
}

func TestErrorLogNoPath(t *testing.T) {
	l, err := NewErrorLog("")
	require.NoError(t, err)
	l.Record("/in/a.dcm", "boom")
	assert.Equal(t, 1, l.Count())
	require.NoError(t, l.Close())
}
