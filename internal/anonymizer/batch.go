package anonymizer

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	dcm "rt-dicom-toolkit/internal/dicom"
	"rt-dicom-toolkit/internal/identity"
	"rt-dicom-toolkit/internal/profile"
	"rt-dicom-toolkit/internal/progress"
)

// ProgressFunc reports per-file progress to the caller's surface.
type ProgressFunc func(current, total int, filename, status string)

// Config drives a directory anonymization run.
type Config struct {
	InputDir  string
	OutputDir string
	LogDir    string

	Options       profile.Options
	RemovePrivate bool
	KeepStructure bool
	Recursive     bool
	RetryFailed   bool

	// MappingFile, when set, receives the patient ID map as JSON.
	MappingFile string

	OutputWriter func(string)
	Progress     ProgressFunc
}

// FileDetail is one file's outcome in the run summary.
type FileDetail struct {
	File           string `json:"file"`
	Type           string `json:"type"`
	Status         string `json:"status"`
	Error          string `json:"error,omitempty"`
	ChangedFields  int    `json:"changed_fields"`
	PrivateRemoved int    `json:"private_removed"`
}

// Summary aggregates a run. It is serialized to the log directory as the
// per-run JSON artifact.
type Summary struct {
	Started      string            `json:"started"`
	Finished     string            `json:"finished"`
	Processed    int               `json:"processed"`
	Succeeded    int               `json:"succeeded"`
	Skipped      int               `json:"skipped"`
	Errored      int               `json:"errored"`
	Files        []FileDetail      `json:"files"`
	PatientIDMap map[string]string `json:"patient_id_map"`
}

// ProcessDirectory anonymizes every DICOM file under cfg.InputDir into
// cfg.OutputDir. Per-file failures are counted, never fatal; only the
// inability to enumerate input files aborts the run. The identifier and
// UID maps live on a run context created here and discarded on return.
func ProcessDirectory(cfg Config) (*Summary, error) {
	output := cfg.OutputWriter
	if output == nil {
		output = func(string) {}
	}

	if info, err := os.Stat(cfg.InputDir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("input directory does not exist: %s", cfg.InputDir)
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = filepath.Join(cfg.InputDir, "anonymized")
	}
	if cfg.LogDir == "" {
		cfg.LogDir = filepath.Join(cfg.OutputDir, "logs")
	}
	if err := os.MkdirAll(cfg.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("could not create log directory: %w", err)
	}

	files, err := dcm.FindFiles(cfg.InputDir, cfg.Recursive)
	if err != nil {
		return nil, fmt.Errorf("could not enumerate input files: %w", err)
	}

	// Files already written by a previous run must not be re-anonymized.
	files = excludeSubtree(files, cfg.OutputDir)

	summary := &Summary{
		Started:      time.Now().Format(time.RFC3339),
		PatientIDMap: map[string]string{},
	}

	if len(files) == 0 {
		output(fmt.Sprintf("No DICOM files found in %s\n", cfg.InputDir))
		summary.Finished = time.Now().Format(time.RFC3339)
		return summary, nil
	}
	output(fmt.Sprintf("Found %d DICOM file(s) in %s\n", len(files), cfg.InputDir))

	tracker := progress.NewTracker(filepath.Join(cfg.OutputDir, ".progress.json"))
	if cfg.RetryFailed {
		if n := tracker.ClearFailed(); n > 0 {
			output(fmt.Sprintf("Cleared %d failed entries for retry\n", n))
		}
	}

	errLog, err := progress.NewErrorLog(filepath.Join(cfg.LogDir, "errors.log"))
	if err != nil {
		return nil, fmt.Errorf("could not create error log: %w", err)
	}
	defer errLog.Close()

	run := identity.NewRun(cfg.Options.UIDHandling)
	prof := profile.Build(cfg.Options, run)

	for i, path := range files {
		name := filepath.Base(path)
		summary.Processed++

		if tracker.Done(path) {
			summary.Skipped++
			report(cfg.Progress, i+1, len(files), name, "skipped")
			continue
		}
		report(cfg.Progress, i+1, len(files), name, "processing")

		detail := processOne(cfg, path, prof, run, output)
		summary.Files = append(summary.Files, detail)

		switch detail.Status {
		case "success":
			summary.Succeeded++
			tracker.MarkSuccess(path, outputPath(cfg, path))
		case "skipped":
			summary.Skipped++
		default:
			summary.Errored++
			tracker.MarkError(path, detail.Error)
			errLog.Record(path, detail.Error)
		}
		report(cfg.Progress, i+1, len(files), name, detail.Status)
	}

	summary.Finished = time.Now().Format(time.RFC3339)
	summary.PatientIDMap = run.PatientIDMap()

	if err := writeSummary(cfg.LogDir, summary); err != nil {
		slog.Warn("could not write run summary", "error", err)
	}
	if cfg.MappingFile != "" {
		if err := run.IDs.Save(cfg.MappingFile); err != nil {
			slog.Warn("could not save mapping file", "error", err)
		}
	}

	output(fmt.Sprintf("\n%s\n", strings.Repeat("=", 50)))
	output(fmt.Sprintf("Complete! %d succeeded, %d skipped, %d errored\n",
		summary.Succeeded, summary.Skipped, summary.Errored))
	output(fmt.Sprintf("  %s\n", errLog.Summary()))
	output(fmt.Sprintf("Output: %s\n", cfg.OutputDir))

	return summary, nil
}

// processOne anonymizes a single file. All failures come back as a
// detail status; nothing here aborts the batch.
func processOne(cfg Config, path string, prof profile.Profile, run *identity.Run, output func(string)) FileDetail {
	name := filepath.Base(path)

	ds, err := dcm.Load(path)
	if err != nil {
		output(fmt.Sprintf("Not a readable DICOM file, skipping: %s\n", name))
		return FileDetail{File: name, Type: "non-DICOM", Status: "skipped", Error: err.Error()}
	}

	fileType := describeModality(ds.Modality())

	if id, ok := ds.Get("PatientID"); ok && id != "" {
		// Touch the mapper up front so the log can show the pairing even
		// when the rule later rewrites the field.
		if cfg.Options.PatientIDMethod == profile.PatientIDHash {
			newID := run.IDs.Anonymize(id)
			output(fmt.Sprintf("Patient ID: %s -> %s\n", identity.MaskID(id), newID))
		}
	}

	changes := Apply(ds, prof, cfg.RemovePrivate, run)

	dst := outputPath(cfg, path)
	if err := ds.Save(dst); err != nil {
		output(fmt.Sprintf("Could not save %s: %v\n", name, err))
		return FileDetail{
			File: name, Type: fileType, Status: "error", Error: err.Error(),
			ChangedFields: len(changes.Changes), PrivateRemoved: changes.PrivateRemoved,
		}
	}

	return FileDetail{
		File: name, Type: fileType, Status: "success",
		ChangedFields: len(changes.Changes), PrivateRemoved: changes.PrivateRemoved,
	}
}

func outputPath(cfg Config, path string) string {
	if cfg.KeepStructure {
		if rel, err := filepath.Rel(cfg.InputDir, path); err == nil {
			return filepath.Join(cfg.OutputDir, rel)
		}
	}
	return filepath.Join(cfg.OutputDir, filepath.Base(path))
}

func excludeSubtree(files []string, dir string) []string {
	prefix := dir + string(filepath.Separator)
	kept := files[:0]
	for _, f := range files {
		if !strings.HasPrefix(f, prefix) {
			kept = append(kept, f)
		}
	}
	return kept
}

func report(fn ProgressFunc, current, total int, name, status string) {
	if fn != nil {
		fn(current, total, name, status)
	}
}

// describeModality maps a DICOM modality to the run summary's file type.
func describeModality(modality string) string {
	switch modality {
	case "RTPLAN":
		return "RT plan"
	case "RTDOSE":
		return "dose distribution"
	case "RTSTRUCT":
		return "structure set"
	case "CT", "RTIMAGE":
		return "CT image"
	case "MR":
		return "MR image"
	case "":
		return "unknown"
	default:
		return modality
	}
}

func writeSummary(logDir string, s *Summary) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("rt_anonymization_summary_%s.json", time.Now().Format("20060102_150405"))
	return os.WriteFile(filepath.Join(logDir, name), data, 0o644)
}
