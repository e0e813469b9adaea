package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"bigclean/internal/config"
	"bigclean/internal/generate"
	"bigclean/internal/pipeline"
)

func newGenerateCommand() *cobra.Command {
	var p generate.Params

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate dirty CSV partitions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			files, err := generate.Dataset(cmd.Context(), p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d files in %s\n", len(files), p.OutputDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.OutputDir, "output", "data/raw", "output folder for raw CSV files")
	cmd.Flags().IntVar(&p.TotalRows, "rows", 1_000_000, "total rows to generate")
	cmd.Flags().IntVar(&p.Partitions, "partitions", 20, "number of CSV files to create")
	cmd.Flags().Int64Var(&p.Seed, "seed", 42, "random seed")

	return cmd
}

// cleanFlags binds the clean/run-all flag set onto a config.Run, with an
// optional JSON config file as the base layer (flags win when set).
func cleanFlags(cmd *cobra.Command, run *config.Run, cfgPath *string) {
	cmd.Flags().StringVar(cfgPath, "config", "", "optional run config JSON path")
	cmd.Flags().StringVar(&run.InputGlob, "input-glob", config.DefaultInputGlob, "glob for raw CSV files")
	cmd.Flags().StringVar(&run.CuratedDir, "curated", config.DefaultCuratedDir, "output folder for the curated store and export")
	cmd.Flags().StringVar(&run.ReportPath, "report", config.DefaultReportPath, "path for the quality report JSON")
	cmd.Flags().IntVar(&run.BatchSize, "batch-size", config.DefaultBatchSize, "loader flush threshold")
	cmd.Flags().StringVar(&run.Storage.Kind, "storage-kind", config.DefaultStorage, "curated store backend (sqlite, postgres)")
	cmd.Flags().StringVar(&run.Storage.DSN, "dsn", "", "storage DSN (sqlite defaults to <curated>/curated.db)")
}

// resolveRun merges the optional config file with flags: file values apply
// wherever the user did not set the corresponding flag.
func resolveRun(cmd *cobra.Command, flags config.Run, cfgPath string) (config.Run, error) {
	if cfgPath == "" {
		return flags.WithDefaults(), nil
	}
	run, err := config.Load(cfgPath)
	if err != nil {
		return config.Run{}, err
	}
	if cmd.Flags().Changed("input-glob") {
		run.InputGlob = flags.InputGlob
	}
	if cmd.Flags().Changed("curated") {
		run.CuratedDir = flags.CuratedDir
	}
	if cmd.Flags().Changed("report") {
		run.ReportPath = flags.ReportPath
	}
	if cmd.Flags().Changed("batch-size") {
		run.BatchSize = flags.BatchSize
	}
	if cmd.Flags().Changed("storage-kind") {
		run.Storage.Kind = flags.Storage.Kind
	}
	if cmd.Flags().Changed("dsn") {
		run.Storage.DSN = flags.Storage.DSN
	}
	return run.WithDefaults(), nil
}

func runClean(cmd *cobra.Command, run config.Run) error {
	q, err := pipeline.Run(cmd.Context(), run)
	if err != nil {
		return err
	}
	out, err := q.JSON()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func newCleanCommand() *cobra.Command {
	var (
		flags   config.Run
		cfgPath string
	)

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Run the cleaning pipeline and produce the curated store, export, and report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			run, err := resolveRun(cmd, flags, cfgPath)
			if err != nil {
				return err
			}
			return runClean(cmd, run)
		},
	}
	cleanFlags(cmd, &flags, &cfgPath)

	return cmd
}

func newRunAllCommand() *cobra.Command {
	var (
		p       generate.Params
		flags   config.Run
		cfgPath string
	)

	cmd := &cobra.Command{
		Use:   "run-all",
		Short: "Generate then clean in one command",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := generate.Dataset(cmd.Context(), p); err != nil {
				return err
			}
			run, err := resolveRun(cmd, flags, cfgPath)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("input-glob") {
				run.InputGlob = filepath.Join(p.OutputDir, "*.csv")
			}
			return runClean(cmd, run)
		},
	}

	cmd.Flags().StringVar(&p.OutputDir, "raw-output", "data/raw", "output folder for raw CSV files")
	cmd.Flags().IntVar(&p.TotalRows, "rows", 1_000_000, "total rows to generate")
	cmd.Flags().IntVar(&p.Partitions, "partitions", 20, "number of CSV files to create")
	cmd.Flags().Int64Var(&p.Seed, "seed", 42, "random seed")
	cleanFlags(cmd, &flags, &cfgPath)

	return cmd
}
