// Command secmaster builds and queries a bitemporal security master from
// a stream of point-in-time attribute facts.
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/hedgineer/secmaster/internal/config"
	"github.com/hedgineer/secmaster/internal/demo"
	"github.com/hedgineer/secmaster/internal/factmodel"
	"github.com/hedgineer/secmaster/internal/io/columnar"
	"github.com/hedgineer/secmaster/internal/io/factlog"
	"github.com/hedgineer/secmaster/internal/io/pretty"
	"github.com/hedgineer/secmaster/internal/join"
	"github.com/hedgineer/secmaster/internal/master"
	"github.com/hedgineer/secmaster/internal/merge"
	"github.com/hedgineer/secmaster/internal/project"
)

var (
	generatePath  string
	mergePath     string
	watch         bool
	filterClass   string
	positionsPath string
	useSQL        bool
	statePath     string
	exportCSVPath string
	logFile       string
	logLevel      string
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "secmaster:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secmaster",
		Short: "Bitemporal security master builder and query tool",
		RunE:  run,
	}

	cmd.Flags().StringVarP(&generatePath, "generate", "g", "", "write a synthetic fact log (and a sibling positions CSV) to this path")
	cmd.Flags().StringVarP(&mergePath, "merge", "m", "", "merge the fact log at this path into the master state")
	cmd.Flags().BoolVar(&watch, "watch", false, "with --merge, re-run on every change to the fact log")
	cmd.Flags().StringVarP(&filterClass, "filter", "f", "", `filter the printed master table to asset_class == this value ("none" selects asset_class IS NULL)`)
	cmd.Flags().StringVarP(&positionsPath, "positions", "p", "", "read a positions CSV and print the joined table")
	cmd.Flags().BoolVarP(&useSQL, "sql", "s", false, "persist the master state through SQLite instead of Parquet")
	cmd.Flags().StringVar(&statePath, "state", "", "master state file/database path (default from config)")
	cmd.Flags().StringVar(&exportCSVPath, "export-csv", "", "export the (optionally filtered) master table to this CSV path")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write structured logs here instead of stderr")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "zerolog level: debug, info, warn, error")

	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	if err := config.Initialize(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	resolveFlag(cmd, "filter", &filterClass)
	resolveBoolFlag(cmd, "sql", &useSQL)
	resolveFlag(cmd, "state", &statePath)
	resolveFlag(cmd, "log-file", &logFile)
	resolveFlag(cmd, "log-level", &logLevel)
	if statePath == "" {
		statePath = config.GetString("state")
	}
	if logLevel == "" {
		logLevel = config.GetString("log-level")
	}

	logger := setupLogger(logFile, logLevel)
	ctx := context.Background()

	logger.Debug().Str("subcommand", "root").
		Bool("generate", generatePath != "").
		Bool("merge", mergePath != "").
		Bool("positions", positionsPath != "").
		Msg("invoked")

	if generatePath != "" {
		if err := runGenerate(generatePath, logger); err != nil {
			return fmt.Errorf("generate: %w", err)
		}
	}

	if mergePath != "" {
		doMerge := func() error { return runMerge(ctx, mergePath, statePath, useSQL, logger) }
		if err := doMerge(); err != nil {
			return fmt.Errorf("merge: %w", err)
		}
		if watch {
			return watchAndMerge(mergePath, logger, doMerge)
		}
	}

	if positionsPath != "" {
		if err := runPositions(ctx, positionsPath, statePath, useSQL, filterClass, logger); err != nil {
			return fmt.Errorf("positions: %w", err)
		}
		return nil
	}

	if exportCSVPath != "" {
		if err := runExportCSV(ctx, statePath, exportCSVPath, useSQL, filterClass, logger); err != nil {
			return fmt.Errorf("export-csv: %w", err)
		}
		return nil
	}

	if filterClass != "" && mergePath == "" && generatePath == "" {
		return runPrintFiltered(ctx, statePath, useSQL, filterClass, logger)
	}

	return nil
}

// resolveFlag applies config's layered value only when the flag wasn't
// explicitly set on the command line, matching the teacher's
// flags-over-viper-over-defaults precedence.
func resolveFlag(cmd *cobra.Command, name string, dst *string) {
	if cmd.Flags().Changed(name) {
		return
	}
	if v := config.GetString(name); v != "" {
		*dst = v
	}
}

func resolveBoolFlag(cmd *cobra.Command, name string, dst *bool) {
	if cmd.Flags().Changed(name) {
		return
	}
	*dst = config.GetBool(name)
}

func randSeed() int64 { return time.Now().UnixNano() }

func runGenerate(path string, logger zerolog.Logger) error {
	rng := rand.New(rand.NewSource(randSeed()))
	start, end := demo.DefaultWindow()

	facts := demo.GenerateFacts(rng, 200, 20, start, end)
	positions := demo.GeneratePositions(rng, 40, 20, start, end)

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := factlog.Write(f, facts); err != nil {
		return err
	}

	positionsFile := path + ".positions.csv"
	pf, err := os.Create(positionsFile)
	if err != nil {
		return err
	}
	defer pf.Close()
	if err := factlog.WritePositions(pf, positions); err != nil {
		return err
	}

	logger.Debug().Str("facts", path).Str("positions", positionsFile).Msg("generated synthetic data")
	return nil
}

func runMerge(ctx context.Context, factLogPath, statePath string, useSQL bool, logger zerolog.Logger) error {
	f, err := os.Open(factLogPath)
	if err != nil {
		return err
	}
	defer f.Close()

	facts, err := factlog.Read(f)
	if err != nil {
		return err
	}

	sm, err := loadState(ctx, statePath, useSQL, logger)
	if err != nil {
		return err
	}

	priority := factmodel.AttributePriority{}
	if sm == nil {
		logger.Debug().Int("facts", len(facts)).Msg("building master from scratch")
		sm = master.Build(facts, priority)
	} else {
		logger.Debug().Int("facts", len(facts)).Int("existing_rows", len(sm.Rows)).Msg("merging into existing master")
		onCase := func(ff factmodel.FlatFact, caseName string) {
			logger.Debug().Int64("subject_id", ff.SubjectID).Str("case", caseName).Msg("merge case selected")
		}
		sm = merge.MergeBatch(sm, facts, priority, onCase)
	}

	return saveState(ctx, statePath, useSQL, sm)
}

func runPositions(ctx context.Context, positionsPath, statePath string, useSQL bool, filterClass string, logger zerolog.Logger) error {
	sm, err := loadState(ctx, statePath, useSQL, logger)
	if err != nil {
		return err
	}
	if sm == nil {
		return fmt.Errorf("no master state at %s", statePath)
	}

	if filterClass != "" {
		sm, err = applyFilter(sm, filterClass)
		if err != nil {
			return err
		}
	}

	pf, err := os.Open(positionsPath)
	if err != nil {
		return err
	}
	defer pf.Close()

	positions, err := factlog.ReadPositions(pf)
	if err != nil {
		return err
	}

	result := join.JoinPositions(sm, positions)
	pretty.PrintJoin(os.Stdout, result)
	return nil
}

func runPrintFiltered(ctx context.Context, statePath string, useSQL bool, filterClass string, logger zerolog.Logger) error {
	sm, err := loadState(ctx, statePath, useSQL, logger)
	if err != nil {
		return err
	}
	if sm == nil {
		return fmt.Errorf("no master state at %s", statePath)
	}

	sm, err = applyFilter(sm, filterClass)
	if err != nil {
		return err
	}

	pretty.PrintBundle(os.Stdout, sm)
	return nil
}

// runExportCSV writes the (optionally filtered) master bundle to csvPath
// using the wide-table Arrow-backed CSV writer, the "delimited text
// files" collaborator for the master table (distinct from -p/-g's
// narrower raw fact/positions CSV format).
func runExportCSV(ctx context.Context, statePath, csvPath string, useSQL bool, filterClass string, logger zerolog.Logger) error {
	sm, err := loadState(ctx, statePath, useSQL, logger)
	if err != nil {
		return err
	}
	if sm == nil {
		return fmt.Errorf("no master state at %s", statePath)
	}

	if filterClass != "" {
		sm, err = applyFilter(sm, filterClass)
		if err != nil {
			return err
		}
	}

	f, err := os.Create(csvPath)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := columnar.WriteCSV(f, sm); err != nil {
		return err
	}

	logger.Debug().Str("path", csvPath).Int("rows", len(sm.Rows)).Msg("exported master table to csv")
	return nil
}

// applyFilter implements the -f/--filter contract: the literal string
// "none" (case-insensitive) selects asset_class IS NULL, matching
// spec.md §6; any other value is an exact match, and columns left
// entirely null by the filter are dropped per P5.
func applyFilter(sm *factmodel.Bundle, class string) (*factmodel.Bundle, error) {
	value := factmodel.NewString(class)
	if strings.EqualFold(class, "none") {
		value = factmodel.Null
	}

	filtered, err := project.FilterByAttribute(sm, "asset_class", value)
	if err != nil {
		return nil, err
	}
	return project.RemoveEmptyColumns(filtered), nil
}
