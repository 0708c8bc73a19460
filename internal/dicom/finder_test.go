package dicom

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
}

// dicomHeader is a minimal preamble: 128 zero bytes then "DICM".
func dicomHeader() []byte {
	header := make([]byte, 132)
	copy(header[128:], "DICM")
	return header
}

func TestFindFilesByExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.dcm"), []byte("short"))
	writeFile(t, filepath.Join(dir, "b.DCM"), []byte("short"))
	writeFile(t, filepath.Join(dir, "c.dicom"), []byte("short"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("not dicom"))

	files, err := FindFiles(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.dcm"),
		filepath.Join(dir, "b.DCM"),
		filepath.Join(dir, "c.dicom"),
	}, files)
}

func TestFindFilesByMagicBytes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "exported"), dicomHeader())
	writeFile(t, filepath.Join(dir, "random.bin"), []byte("just some bytes"))

	files, err := FindFiles(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "exported")}, files)
}

func TestFindFilesRecursive(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "top.dcm"), []byte("x"))
	writeFile(t, filepath.Join(dir, "sub", "nested.dcm"), []byte("x"))
	writeFile(t, filepath.Join(dir, ".git", "blob.dcm"), []byte("x"))

	files, err := FindFiles(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "sub", "nested.dcm"),
		filepath.Join(dir, "top.dcm"),
	}, files)

	files, err = FindFiles(dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "top.dcm")}, files)
}

func TestFindFilesSkipsHousekeeping(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "DICOMDIR"), dicomHeader())
	writeFile(t, filepath.Join(dir, ".progress.json"), []byte("{}"))
	writeFile(t, filepath.Join(dir, "scan.dcm"), []byte("x"))

	files, err := FindFiles(dir, true)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "scan.dcm")}, files)
}

func TestHasMagicBytes(t *testing.T) {
	dir := t.TempDir()

	good := filepath.Join(dir, "good")
	writeFile(t, good, dicomHeader())
	assert.True(t, hasMagicBytes(good))

	tooShort := filepath.Join(dir, "short")
	writeFile(t, tooShort, []byte("DICM"))
	assert.False(t, hasMagicBytes(tooShort))

	assert.False(t, hasMagicBytes(filepath.Join(dir, "missing")))
}
