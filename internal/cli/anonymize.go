package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"rt-dicom-toolkit/internal/anonymizer"
	"rt-dicom-toolkit/internal/identity"
	"rt-dicom-toolkit/internal/profile"
)

func anonymizeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Anonymize a directory of DICOM files",
		Long: `Anonymize every DICOM file under the input directory into the output
directory, rewriting patient identity, institution, date/time, linkage
UID and RT-specific descriptive fields per the selected options.

The patient ID map for the run is written to a JSON side file; keep it
private, anyone holding it can re-identify patients.`,
		RunE: runAnonymize,
	}

	cmd.Flags().StringP("input", "i", "", "input directory containing DICOM files (required)")
	cmd.Flags().StringP("output", "o", "", "output directory (default: {input}/anonymized)")
	cmd.Flags().String("log-dir", "", "log directory (default: {output}/logs)")
	cmd.Flags().String("level", "full", "anonymization level (full, partial)")
	cmd.Flags().String("uid-handling", "consistent", "UID handling (consistent, generate)")
	cmd.Flags().String("patient-id-method", "hash", "patient ID method (hash, sequential)")
	cmd.Flags().String("date-policy", "placeholder", "date policy under full level (placeholder, year-only)")
	cmd.Flags().Bool("keep-private", false, "keep vendor-private fields instead of removing them")
	cmd.Flags().Bool("flatten", false, "flatten the output tree instead of keeping structure")
	cmd.Flags().StringP("mapping", "m", "", "patient mapping file (default: {output}/patient_mapping.json)")
	cmd.Flags().BoolP("recursive", "r", true, "search subdirectories")
	cmd.Flags().Bool("retry", false, "retry files that failed in a previous run")
	_ = cmd.MarkFlagRequired("input")

	_ = viper.BindPFlag("anonymize.level", cmd.Flags().Lookup("level"))
	_ = viper.BindPFlag("anonymize.uid_handling", cmd.Flags().Lookup("uid-handling"))
	_ = viper.BindPFlag("anonymize.patient_id_method", cmd.Flags().Lookup("patient-id-method"))
	_ = viper.BindPFlag("anonymize.date_policy", cmd.Flags().Lookup("date-policy"))

	return cmd
}

func runAnonymize(cmd *cobra.Command, _ []string) error {
	input, _ := cmd.Flags().GetString("input")
	output, _ := cmd.Flags().GetString("output")
	logDir, _ := cmd.Flags().GetString("log-dir")
	keepPrivate, _ := cmd.Flags().GetBool("keep-private")
	flatten, _ := cmd.Flags().GetBool("flatten")
	mapping, _ := cmd.Flags().GetString("mapping")
	recursive, _ := cmd.Flags().GetBool("recursive")
	retry, _ := cmd.Flags().GetBool("retry")

	opts, err := profileOptions()
	if err != nil {
		return err
	}

	if output == "" {
		output = filepath.Join(input, "anonymized")
	}
	if mapping == "" {
		mapping = filepath.Join(output, "patient_mapping.json")
	}

	fmt.Println("RT DICOM Anonymizer")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Input:      %s\n", input)
	fmt.Printf("Output:     %s\n", output)
	fmt.Printf("Level:      %s\n", opts.Level)
	fmt.Printf("UIDs:       %s\n", opts.UIDHandling)
	fmt.Printf("Patient ID: %s\n", opts.PatientIDMethod)
	fmt.Printf("Dates:      %s\n", opts.DatePolicy)
	fmt.Println()

	var bar *progressbar.ProgressBar
	progressFn := func(current, total int, _, status string) {
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetDescription("anonymizing"),
				progressbar.OptionSetWriter(os.Stderr),
				progressbar.OptionShowCount(),
			)
		}
		if status != "processing" && status != "matching" {
			_ = bar.Set(current)
		}
	}

	summary, err := anonymizer.ProcessDirectory(anonymizer.Config{
		InputDir:      input,
		OutputDir:     output,
		LogDir:        logDir,
		Options:       opts,
		RemovePrivate: !keepPrivate,
		KeepStructure: !flatten,
		Recursive:     recursive,
		RetryFailed:   retry,
		MappingFile:   mapping,
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

	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("Complete! %d succeeded, %d skipped, %d errored\n",
		summary.Succeeded, summary.Skipped, summary.Errored)
	fmt.Printf("Patients:  %d mapped\n", len(summary.PatientIDMap))
	fmt.Printf("Output:    %s\n", output)
	fmt.Printf("Mapping:   %s\n", mapping)
	return nil
}

// profileOptions reads the rule-table options from viper with flag
// values layered over config file and RTKIT_* environment variables.
func profileOptions() (profile.Options, error) {
	opts := profile.Options{
		Level:           profile.Level(viper.GetString("anonymize.level")),
		UIDHandling:     identity.UIDMode(viper.GetString("anonymize.uid_handling")),
		PatientIDMethod: profile.PatientIDMethod(viper.GetString("anonymize.patient_id_method")),
		DatePolicy:      profile.DatePolicy(viper.GetString("anonymize.date_policy")),
	}

	switch opts.Level {
	case profile.LevelFull, profile.LevelPartial:
	default:
		return opts, fmt.Errorf("invalid level %q (want full or partial)", opts.Level)
	}
	switch opts.UIDHandling {
	case identity.UIDConsistent, identity.UIDGenerate:
	default:
		return opts, fmt.Errorf("invalid uid-handling %q (want consistent or generate)", opts.UIDHandling)
	}
	switch opts.PatientIDMethod {
	case profile.PatientIDHash, profile.PatientIDSequential:
	default:
		return opts, fmt.Errorf("invalid patient-id-method %q (want hash or sequential)", opts.PatientIDMethod)
	}
	switch opts.DatePolicy {
	case profile.DatePlaceholder, profile.DateYearOnly:
	default:
		return opts, fmt.Errorf("invalid date-policy %q (want placeholder or year-only)", opts.DatePolicy)
	}
	return opts, nil
}
