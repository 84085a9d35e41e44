// Package main provides the CLI entry point for the vpclean preprocessing engine.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vpclean/preprocess/internal/cli"
	"github.com/vpclean/preprocess/internal/config"
	"github.com/vpclean/preprocess/internal/errhandling"
	"github.com/vpclean/preprocess/internal/logger"
	"github.com/vpclean/preprocess/internal/pathutil"
	"github.com/vpclean/preprocess/internal/profile"
	"github.com/vpclean/preprocess/internal/runtime"
	"github.com/vpclean/preprocess/internal/tableio"
	"github.com/vpclean/preprocess/pkg/dataset"
	"github.com/vpclean/preprocess/pkg/rules"
)

// Environment variables read as defaults. A .env file in the working
// directory is loaded first when present.
const (
	envSettings  = "VPCLEAN_SETTINGS"
	envLogLevel  = "VPCLEAN_LOG_LEVEL"
	envLogFormat = "VPCLEAN_LOG_FORMAT"
)

var (
	// Build information (set via ldflags during build)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// app holds the flag values of one command tree.
type app struct {
	// Global flags
	verbose   bool
	quiet     bool
	logFormat string
	logFile   string

	// Reading flags shared by clean and profile
	delimiter   string
	nullMarkers []string

	// Clean command flags
	settingsPath   string
	encountersPath string
	outputPath     string
	trimNames      bool
	restrict       bool
	dropUnmapped   bool
	skipStages     []string

	// Profile command flags
	variables []string
}

func main() {
	os.Exit(execute(os.Args[1:], os.Stdout, os.Stderr))
}

// execute runs the CLI with args and returns the process exit code.
func execute(args []string, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	logger.CloseLogFile()
	if err != nil {
		cli.PrintLoadError(stderr, err, a.verbose, a.quiet)
		return cli.ExitCode(err)
	}
	return cli.ExitSuccess
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "vpclean",
		Short: "vpclean - Rule-driven cleaning of long-format clinical data",
		Long: `vpclean cleans long-format tables of clinical measurements.

Each row holds one measurement of one variable. A settings file (JSON/YAML)
declares per-variable rules: removals, unit conversions, dictionaries,
clipping and age-dependent normalization. Rules run in a fixed stage order.

Examples:
  # Validate a settings file
  vpclean validate settings.yaml

  # Clean a table and write the result
  vpclean clean data.csv --settings settings.yaml --output clean.csv

  # Compute normalization parameters for two variables
  vpclean profile data.csv --variable "Heart rate (bpm)" --variable "Weight (kg)"`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.configure,
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable verbose output")
	root.PersistentFlags().BoolVarP(&a.quiet, "quiet", "q", false, "Suppress non-error output")
	root.PersistentFlags().StringVar(&a.logFormat, "log-format", "", "Log format: json or human (default json, or "+envLogFormat+")")
	root.PersistentFlags().StringVar(&a.logFile, "log-file", "", "Also write JSON logs to this file")

	root.AddCommand(a.cleanCmd(), a.validateCmd(), a.profileCmd(), versionCmd())
	return root
}

// configure loads .env defaults and sets up logging before any command runs.
func (a *app) configure(_ *cobra.Command, _ []string) error {
	envErr := godotenv.Load()

	level := logger.ParseLevel(os.Getenv(envLogLevel))
	switch {
	case a.verbose:
		level = slog.LevelDebug
	case a.quiet:
		level = slog.LevelError
	}

	formatName := a.logFormat
	if formatName == "" {
		formatName = os.Getenv(envLogFormat)
	}
	format, err := logger.ParseFormat(formatName)
	if err != nil {
		return err
	}

	logger.SetLevelAndFormat(level, format)
	if a.logFile != "" {
		if err := logger.SetLogFile(a.logFile, level, format); err != nil {
			return errhandling.NewIOError("opening log file", err)
		}
	}

	if envErr != nil && !errors.Is(envErr, fs.ErrNotExist) {
		logger.Warn("failed to load .env file", slog.String("error", envErr.Error()))
	}
	if a.settingsPath == "" {
		a.settingsPath = os.Getenv(envSettings)
	}
	return nil
}

func (a *app) addReadFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&a.delimiter, "delimiter", tableio.DefaultDelimiter, "Field delimiter of the data file")
	cmd.Flags().StringArrayVar(&a.nullMarkers, "null-marker", nil, "Field value read as missing (repeatable). Empty fields are kept as empty text by default")
}

func (a *app) cleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean <data-file>",
		Short: "Clean a long-format data file",
		Long: `Clean a long-format data file according to a settings file.

The settings file is parsed and validated first. The cleaned table is written
to --output, or to stdout when no output is given. A data file of "-" is read
from stdin. The run summary is printed to stderr.

Exit codes:
  0 - Cleaning succeeded
  1 - Settings validation errors
  2 - Parse errors (settings or data file)
  3 - Data rule errors (cast, unmapped value, malformed rule, missing column)
  4 - I/O errors

Examples:
  vpclean clean data.csv --settings settings.yaml --output clean.csv
  vpclean clean data.tsv --delimiter $'\t' --settings settings.json --restrict
  vpclean clean data.csv --settings settings.yaml --skip-stage clip`,
		Args: cobra.ExactArgs(1),
		RunE: a.runClean,
	}

	cmd.Flags().StringVarP(&a.settingsPath, "settings", "s", "", "Settings file (default "+envSettings+")")
	cmd.Flags().StringVar(&a.encountersPath, "encounters", "", "Encounter table with episode start timestamps, used by age normalization")
	cmd.Flags().StringVarP(&a.outputPath, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&a.trimNames, "trim-names", false, "Strip surrounding whitespace from variable names first")
	cmd.Flags().BoolVar(&a.restrict, "restrict", false, "Drop rows whose variable is not in the settings")
	cmd.Flags().BoolVar(&a.dropUnmapped, "drop-unmapped", false, "Drop encoded rows whose value has no encoding instead of failing")
	cmd.Flags().StringSliceVar(&a.skipStages, "skip-stage", nil, "Stage to skip by name (repeatable)")
	a.addReadFlags(cmd)
	return cmd
}

func (a *app) runClean(cmd *cobra.Command, args []string) error {
	dataPath := args[0]
	if a.settingsPath == "" {
		return &config.LoadError{Err: fmt.Errorf("no settings file: use --settings or set %s", envSettings)}
	}
	if err := pathutil.ValidateOutputPath(a.outputPath, dataPath, a.settingsPath, a.encountersPath); err != nil {
		return errhandling.NewIOError(err.Error(), err)
	}

	logger.Debug("loading settings", slog.String("path", a.settingsPath))
	settings, err := config.LoadSettings(a.settingsPath)
	if err != nil {
		return err
	}

	readOpts := tableio.ReaderOptions{Delimiter: a.delimiter, NullMarkers: a.nullMarkers}
	tbl, err := readTable(cmd, dataPath, readOpts)
	if err != nil {
		return err
	}
	var encounters *dataset.Table
	if a.encountersPath != "" {
		if encounters, err = readTable(cmd, a.encountersPath, readOpts); err != nil {
			return err
		}
	}

	opts := []runtime.Option{
		runtime.WithSource(a.settingsPath, dataPath),
		runtime.WithSkipStages(a.skipStages...),
	}
	if a.trimNames {
		opts = append(opts, runtime.WithTrimVariableNames())
	}
	if a.restrict {
		opts = append(opts, runtime.WithRestrictToIncluded())
	}
	if a.dropUnmapped {
		opts = append(opts, runtime.WithDropUnmappedText())
	}

	result, err := runtime.NewEngine(opts...).Run(tbl, settings, encounters)
	if err != nil {
		return err
	}

	writeOpts := tableio.WriterOptions{Delimiter: a.delimiter}
	if pathutil.IsStdio(a.outputPath) {
		if err := tableio.Write(cmd.OutOrStdout(), result.Table, writeOpts); err != nil {
			return errhandling.NewIOError("writing stdout", err)
		}
	} else {
		if err := tableio.WriteFile(a.outputPath, result.Table, writeOpts); err != nil {
			return err
		}
		logger.Info("output written",
			slog.String("path", a.outputPath),
			slog.Int("rows", result.Table.Len()),
		)
	}

	cli.PrintRunResult(cmd.ErrOrStderr(), result, cli.OutputOptions{Verbose: a.verbose, Quiet: a.quiet})
	return nil
}

func (a *app) validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <settings-file>",
		Short: "Validate a settings file",
		Long: `Validate a settings file against the settings schema.

Supports both JSON and YAML formats. The format is auto-detected
based on file extension (.json, .yaml, .yml) or content.

Exit codes:
  0 - Settings are valid
  1 - Validation errors (schema violations or inconsistent rules)
  2 - Parse errors (invalid JSON/YAML syntax)
  4 - The file could not be read

Examples:
  vpclean validate settings.json
  vpclean validate --verbose settings.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: a.runValidate,
	}
}

func (a *app) runValidate(cmd *cobra.Command, args []string) error {
	settingsPath := args[0]
	out := cmd.OutOrStdout()

	if !a.quiet {
		fmt.Fprintf(out, "Validating settings: %s\n", settingsPath)
	}

	result := config.ParseConfig(settingsPath)
	if !result.IsValid() {
		return &config.LoadError{Result: result}
	}
	settings, err := config.ConvertToSettings(result.Data)
	if err != nil {
		return &config.LoadError{Err: err}
	}

	if !a.quiet {
		fmt.Fprintf(out, "✓ Settings are valid (format: %s)\n", result.Format)
		if a.verbose {
			names := config.SortedVariableNames(result.Data)
			fmt.Fprintf(out, "  Variables: %d\n", len(names))
			for _, name := range names {
				fmt.Fprintf(out, "    %s\n", name)
			}
			fmt.Fprintf(out, "  Age groups: %d\n", len(settings.AgeGroups))
			if episodes, ok := settings.Episodes.Get(); ok {
				fmt.Fprintf(out, "  Episodes: %d\n", len(episodes))
			}
		}
	}
	return nil
}

func (a *app) profileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile <data-file>",
		Short: "Compute median and quartiles per variable",
		Long: `Compute the median and quartiles of each variable's numeric values.

The result is printed as YAML variable blocks that can be pasted into a
settings file as fixed normalization parameters. Values that are missing
or not numeric are ignored.

Examples:
  vpclean profile data.csv
  vpclean profile data.csv --variable "Heart rate (bpm)"`,
		Args: cobra.ExactArgs(1),
		RunE: a.runProfile,
	}
	cmd.Flags().StringArrayVar(&a.variables, "variable", nil, "Variable to profile (repeatable, default all)")
	a.addReadFlags(cmd)
	return cmd
}

func (a *app) runProfile(cmd *cobra.Command, args []string) error {
	tbl, err := readTable(cmd, args[0], tableio.ReaderOptions{Delimiter: a.delimiter, NullMarkers: a.nullMarkers})
	if err != nil {
		return err
	}

	summaries, err := profile.New(rules.DefaultLayout(), logger.Logger).Profile(tbl, a.variables)
	if err != nil {
		return err
	}
	if a.verbose {
		cli.PrintProfileSummary(cmd.ErrOrStderr(), summaries)
	}
	if err := profile.WriteYAML(cmd.OutOrStdout(), summaries); err != nil {
		return errhandling.NewIOError("writing profile", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  "Print version, commit hash, and build date information.",
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %s\n", version)
			fmt.Fprintf(out, "Commit: %s\n", commit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	}
}

// readTable reads a data file, or stdin when path is "-".
func readTable(cmd *cobra.Command, path string, opts tableio.ReaderOptions) (*dataset.Table, error) {
	if path == pathutil.Stdio {
		tbl, err := tableio.Read(cmd.InOrStdin(), opts)
		if err != nil {
			return nil, fmt.Errorf("stdin: %w", err)
		}
		return tbl, nil
	}
	logger.Debug("reading data", slog.String("path", path))
	return tableio.ReadFile(path, opts)
}
