package main

import (
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"expenditure/internal/app"
	"expenditure/internal/config"
	"expenditure/internal/infrastructure"
	"expenditure/internal/operations"
	"expenditure/pkg/contracts/domain"
)

// globalOptions are shared by every subcommand
type globalOptions struct {
	configFile string
	baseDir    string
	logLevel   string
}

type runOptions struct {
	rawDir         string
	transformedDir string
	cleanedDir     string
	categories     []string
	workers        int
	noCombined     bool
	noTransformed  bool
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           config.AppName,
		Short:         "Normalize state expenditure spreadsheets into tidy datasets",
		SilenceUsage:  true,
		SilenceErrors: false,
		Version:       config.AppVersion,
	}

	root.PersistentFlags().StringVar(&opts.configFile, "config", "", "YAML configuration file (defaults to config.yaml when present)")
	root.PersistentFlags().StringVar(&opts.baseDir, "base-dir", "", "directory relative paths are resolved against")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn or error")

	root.AddCommand(newRunCmd(opts), newServeCmd(opts))
	return root
}

func newRunCmd(global *globalOptions) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Process every raw spreadsheet once and write the cleaned outputs",
		Long: `The run command discovers .csv and .xlsx files in the raw directory, extracts
the state-by-year table from each, imputes missing values with the state mean
and writes transformed, cleaned and combined CSV files. Files that cannot be
processed are listed in the report and do not fail the run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			opts.apply(cmd, cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			a, err := newApplication(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = a.Stop(cmd.Context()) }()

			result, err := a.RunBatch(cmd.Context(), domain.RunRequest{Categories: opts.categories})
			if err != nil {
				return fmt.Errorf("batch failed: %w", err)
			}

			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.rawDir, "raw", "", "directory holding the raw spreadsheets")
	flags.StringVar(&opts.transformedDir, "transformed", "", "directory for the melted per-category files")
	flags.StringVar(&opts.cleanedDir, "out", "", "directory for the cleaned and combined files")
	flags.StringSliceVar(&opts.categories, "category", nil, "only process these categories (repeatable)")
	flags.IntVar(&opts.workers, "workers", 0, "files processed in parallel")
	flags.BoolVar(&opts.noCombined, "no-combined", false, "skip the combined analysis file")
	flags.BoolVar(&opts.noTransformed, "no-transformed", false, "skip the melted per-category files")

	return cmd
}

func newServeCmd(global *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the runs and categories HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(global)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}

			a, err := newApplication(cfg)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides configuration)")
	return cmd
}

// apply lets explicit flags win over file and environment configuration
func (o *runOptions) apply(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("raw") {
		cfg.Paths.RawDir = o.rawDir
	}
	if flags.Changed("transformed") {
		cfg.Paths.TransformedDir = o.transformedDir
	}
	if flags.Changed("out") {
		cfg.Paths.CleanedDir = o.cleanedDir
	}
	if flags.Changed("workers") {
		cfg.Pipeline.Workers = o.workers
	}
	if o.noCombined {
		cfg.Pipeline.WriteCombined = false
	}
	if o.noTransformed {
		cfg.Pipeline.WriteTransformed = false
	}
}

func loadConfig(global *globalOptions) (*config.Config, error) {
	cfg, err := config.Load(global.configFile)
	if err != nil {
		return nil, err
	}
	if global.baseDir != "" {
		cfg.Paths.BaseDir = global.baseDir
	}
	if global.logLevel != "" {
		cfg.Logging.Level = global.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApplication(cfg *config.Config) (*app.Application, error) {
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("Startup failed", slog.String("error", err.Error()))
		return nil, err
	}
	return a, nil
}

// printResult writes a human-readable summary of the batch to w
func printResult(w io.Writer, result *operations.BatchResult) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "CATEGORY\tSOURCE\tRECORDS\tSTATES\tYEARS\tIMPUTED\n")
	for _, table := range result.Ordered() {
		s := table.Summary
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\n", table.Category, table.Source, s.Records, s.States, s.Years, s.Imputed)
	}

	if len(result.Report.Skipped) > 0 {
		fmt.Fprintf(tw, "\nSKIPPED\tREASON\n")
		for _, skip := range result.Report.Skipped {
			fmt.Fprintf(tw, "%s\t%s\n", skip.Filename, skip.Reason)
		}
	}

	if n := len(result.Report.Anomalies); n > 0 {
		fmt.Fprintf(tw, "\n%d data anomalies recorded\n", n)
	}
}
