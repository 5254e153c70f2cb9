package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshuapare/binkit/internal/logger"
	"github.com/joshuapare/binkit/pkg/types"
)

var (
	// Global flags
	verbose    bool
	quiet      bool
	jsonOut    bool
	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "binctl",
	Short: "Inspect and rewrite schema-described binary archives",
	Long: `binctl inspects the pointer-relocatable archives of a game data
project. It can dump raw archive structure without a schema, and with a
project file (binkit.yaml) load every store, resolve cross-store references
and show or rewrite the decoded records.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initLogging()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		BoolVarP(&quiet, "quiet", "q", false, "Suppress all output except errors")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().
		StringVarP(&configPath, "config", "c", "binkit.yaml", "Project file")
}

func initLogging() error {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return logger.Init(logger.Options{
		Enabled: !quiet,
		Level:   level,
		Writer:  os.Stderr,
	})
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		logger.Error("command failed", "kind", types.KindOf(err), "err", err)
		fmt.Fprintln(os.Stderr, err)
		if types.IsKind(err, types.ErrKindReference) {
			fmt.Fprintln(os.Stderr, "hint: set references.strict_read: false to skip unresolved references")
		}
		os.Exit(1)
	}
}

// printInfo prints an info message if not in quiet mode
func printInfo(format string, args ...any) {
	if !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printVerbose prints a verbose message if verbose mode is enabled
func printVerbose(format string, args ...any) {
	if verbose && !quiet {
		fmt.Fprintf(os.Stdout, format, args...)
	}
}

// printJSON outputs data as JSON
func printJSON(v any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
