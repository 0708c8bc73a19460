// Package cli wires the anonymization and validation engines to a cobra
// command-line surface.
package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// NewRootCmd builds the rtkit command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "rtkit",
		Short: "RT DICOM anonymization and validation toolkit",
		Long: `rtkit rewrites sensitive fields inside radiotherapy DICOM files
according to a configurable rule set, and verifies that an anonymized
file-set conforms to those rules relative to the originals.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/rtkit/config.yaml)")
	root.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(anonymizeCmd())
	root.AddCommand(validateCmd())

	return root
}

// Execute runs the command tree.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home + "/.config/rtkit")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	viper.SetEnvPrefix("RTKIT")
	viper.AutomaticEnv()

	// A missing default config is fine; an explicit one must load.
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		return fmt.Errorf("could not read config file: %w", err)
	}

	setupLogging(viper.GetString("logging.level"))
	return nil
}

func setupLogging(level string) {
	var lv slog.Level
	switch level {
	case "debug":
		lv = slog.LevelDebug
	case "warn":
		lv = slog.LevelWarn
	case "error":
		lv = slog.LevelError
	default:
		lv = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lv})))
}
