package validator

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"rt-dicom-toolkit/internal/record"
)

// Loader turns a path into a record. Production wires the DICOM adapter;
// tests inject in-memory records.
type Loader func(path string) (record.Record, error)

// DeriveKey builds the fallback matching key from a record's metadata:
// modality, series number, instance number, truncated spatial position
// and class identifier. A key needs at least two populated components to
// count; sparser metadata would pair files on next to nothing. Keys are
// not unique - a collision silently yields a best-effort match.
func DeriveKey(rec record.Record) (string, bool) {
	var parts []string

	if v, ok := rec.Get("Modality"); ok && v != "" {
		parts = append(parts, "MOD:"+v)
	}
	if v, ok := rec.Get("SeriesNumber"); ok && v != "" {
		parts = append(parts, "SER:"+v)
	}
	if v, ok := rec.Get("InstanceNumber"); ok && v != "" {
		parts = append(parts, "INS:"+v)
	}
	if v, ok := rec.Get("ImagePositionPatient"); ok && v != "" {
		if pos, ok := truncatePosition(v); ok {
			parts = append(parts, "POS:"+pos)
		}
	}
	if v, ok := rec.Get("SOPClassUID"); ok && v != "" {
		parts = append(parts, "SOP:"+v)
	}

	if len(parts) < 2 {
		return "", false
	}
	return strings.Join(parts, "|"), true
}

// truncatePosition renders each position component as a whole number so
// sub-millimeter jitter between exports does not defeat matching.
func truncatePosition(v string) (string, bool) {
	comps := strings.Split(v, "\\")
	out := make([]string, 0, len(comps))
	for _, c := range comps {
		f, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return "", false
		}
		out = append(out, fmt.Sprintf("%d", int(f)))
	}
	return strings.Join(out, ","), true
}

// Index pairs anonymized files back to originals: identical relative path
// first, derived metadata key as the fallback.
type Index struct {
	root   string
	byPath map[string]string
	byKey  map[string]string
}

// BuildIndex loads metadata for every original file and indexes it by
// relative path and derived key. Unreadable files are logged and skipped.
func BuildIndex(originalDir string, files []string, loadMeta Loader) *Index {
	ix := &Index{
		root:   originalDir,
		byPath: make(map[string]string, len(files)),
		byKey:  make(map[string]string),
	}

	for _, path := range files {
		if rel, err := filepath.Rel(originalDir, path); err == nil {
			ix.byPath[rel] = path
		}

		rec, err := loadMeta(path)
		if err != nil {
			slog.Warn("could not read original for matching", "file", path, "error", err)
			continue
		}
		if key, ok := DeriveKey(rec); ok {
			ix.byKey[key] = path
		}
	}
	return ix
}

// Match finds the original counterpart of an anonymized file. rec may be
// nil when the anonymized file's metadata was unreadable; path matching
// still applies.
func (ix *Index) Match(relPath string, rec record.Record) (string, bool) {
	if orig, ok := ix.byPath[relPath]; ok {
		return orig, true
	}
	if rec == nil {
		return "", false
	}
	key, ok := DeriveKey(rec)
	if !ok {
		return "", false
	}
	orig, ok := ix.byKey[key]
	return orig, ok
}
