package validator

import (
	"fmt"
	"log/slog"
	"path/filepath"

	dcm "rt-dicom-toolkit/internal/dicom"
	"rt-dicom-toolkit/internal/profile"
	"rt-dicom-toolkit/internal/record"
)

// ProgressFunc reports per-file validation progress.
type ProgressFunc func(current, total int, filename, status string)

// BatchConfig drives a directory-pair validation run.
type BatchConfig struct {
	OriginalDir   string
	AnonymizedDir string

	Rules Rules
	Level profile.Level

	// Load and LoadMeta default to the DICOM adapter when nil.
	Load     Loader
	LoadMeta Loader
	// ListFiles defaults to the DICOM finder when nil.
	ListFiles func(dir string) ([]string, error)

	OutputWriter func(string)
	Progress     ProgressFunc
}

// PairResult is one matched pair's comparison, tagged with both paths.
type PairResult struct {
	OriginalFile   string  `json:"original_file"`
	AnonymizedFile string  `json:"anonymized_file"`
	Result         *Result `json:"results"`
}

// ValidateBatch loads both trees, matches each anonymized file to its
// original and folds per-pair comparisons into a summary. Unmatched and
// unreadable files are reported in the summary, never fatal; a run with
// zero matches still completes. The only error is failing to enumerate
// either directory.
func ValidateBatch(cfg BatchConfig) (*Summary, []*PairResult, error) {
	output := cfg.OutputWriter
	if output == nil {
		output = func(string) {}
	}
	if cfg.Load == nil {
		cfg.Load = func(path string) (record.Record, error) { return dcm.Load(path) }
	}
	if cfg.LoadMeta == nil {
		cfg.LoadMeta = func(path string) (record.Record, error) { return dcm.LoadMetadata(path) }
	}
	if cfg.ListFiles == nil {
		cfg.ListFiles = func(dir string) ([]string, error) { return dcm.FindFiles(dir, true) }
	}

	originals, err := cfg.ListFiles(cfg.OriginalDir)
	if err != nil {
		return nil, nil, fmt.Errorf("could not enumerate original files: %w", err)
	}
	anonymized, err := cfg.ListFiles(cfg.AnonymizedDir)
	if err != nil {
		return nil, nil, fmt.Errorf("could not enumerate anonymized files: %w", err)
	}

	output(fmt.Sprintf("Original DICOM files: %d\n", len(originals)))
	output(fmt.Sprintf("Anonymized DICOM files: %d\n", len(anonymized)))

	summary := NewSummary(cfg.Rules)
	summary.TotalOriginal = len(originals)
	summary.TotalAnonymized = len(anonymized)

	index := BuildIndex(cfg.OriginalDir, originals, cfg.LoadMeta)

	var pairs []*PairResult
	for i, anonPath := range anonymized {
		name := filepath.Base(anonPath)
		report(cfg.Progress, i+1, len(anonymized), name, "matching")

		rel, err := filepath.Rel(cfg.AnonymizedDir, anonPath)
		if err != nil {
			rel = name
		}

		var anonMeta record.Record
		if meta, err := cfg.LoadMeta(anonPath); err == nil {
			anonMeta = meta
		} else {
			slog.Warn("could not read anonymized file metadata", "file", anonPath, "error", err)
		}

		origPath, ok := index.Match(rel, anonMeta)
		if !ok {
			output(fmt.Sprintf("No matching original for %s\n", rel))
			summary.UnmatchedFiles = append(summary.UnmatchedFiles, rel)
			continue
		}

		origRec, err := cfg.Load(origPath)
		if err != nil {
			slog.Warn("could not load original, pair skipped", "file", origPath, "error", err)
			summary.SkippedFiles = append(summary.SkippedFiles, rel)
			continue
		}
		anonRec, err := cfg.Load(anonPath)
		if err != nil {
			slog.Warn("could not load anonymized file, pair skipped", "file", anonPath, "error", err)
			summary.SkippedFiles = append(summary.SkippedFiles, rel)
			continue
		}

		report(cfg.Progress, i+1, len(anonymized), name, "comparing")
		result := Compare(origRec, anonRec, cfg.Rules, cfg.Level)
		summary.Fold(result)

		pairs = append(pairs, &PairResult{
			OriginalFile:   origPath,
			AnonymizedFile: anonPath,
			Result:         result,
		})
	}

	return summary, pairs, nil
}

func report(fn ProgressFunc, current, total int, name, status string) {
	if fn != nil {
		fn(current, total, name, status)
	}
}
