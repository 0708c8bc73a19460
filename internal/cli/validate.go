package cli

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"rt-dicom-toolkit/internal/profile"
	"rt-dicom-toolkit/internal/validator"
)

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate an anonymized file-set against its originals",
		Long: `Pair every anonymized DICOM file with its original (by relative path,
falling back to a derived metadata key), compare the rule-group fields
on each pair and print a summary report. Unmatched files are reported
but never fatal; a run with zero matches still completes.`,
		RunE: runValidate,
	}

	cmd.Flags().String("original", "", "directory of original DICOM files (required)")
	cmd.Flags().String("anonymized", "", "directory of anonymized DICOM files (required)")
	cmd.Flags().String("level", "full", "anonymization level the set was produced with (full, partial)")
	cmd.Flags().String("report-dir", "", "directory to save the text report (default: print only)")
	_ = cmd.MarkFlagRequired("original")
	_ = cmd.MarkFlagRequired("anonymized")

	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	originalDir, _ := cmd.Flags().GetString("original")
	anonymizedDir, _ := cmd.Flags().GetString("anonymized")
	levelStr, _ := cmd.Flags().GetString("level")
	reportDir, _ := cmd.Flags().GetString("report-dir")

	level := profile.Level(levelStr)
	switch level {
	case profile.LevelFull, profile.LevelPartial:
	default:
		return fmt.Errorf("invalid level %q (want full or partial)", levelStr)
	}

	var bar *progressbar.ProgressBar
	progressFn := func(current, total int, _, status string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("validating"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		if status == "comparing" {
			_ = bar.Set(current)
		}
	}

	rules := validator.DefaultRules()
	summary, _, err := validator.ValidateBatch(validator.BatchConfig{
		OriginalDir:   originalDir,
		AnonymizedDir: anonymizedDir,
		Rules:         rules,
		Level:         level,
		OutputWriter:  func(string) {},
		Progress:      progressFn,
	})
	if err != nil {
		return err
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}

	report := validator.Render(summary, rules)
	fmt.Println(report)

	if reportDir != "" {
		path, err := validator.SaveReport(report, reportDir)
		if err != nil {
			return err
		}
		fmt.Printf("Report saved: %s\n", path)
	}
	return nil
}
