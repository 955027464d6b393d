package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/spf13/cobra"

	"gojsm/adapters/db/postgres/migrations"
	"gojsm/adapters/excel"
	"gojsm/adapters/postgres"
	"gojsm/app"
	"gojsm/domain/dataset"
	"gojsm/domain/run"
	"gojsm/internal"
	"gojsm/internal/config"
	"gojsm/internal/engine"
	"gojsm/internal/profiling"
	"gojsm/internal/report"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rootCmd := &cobra.Command{
		Use:           "gojsm",
		Short:         "JSM-method causal induction over boolean example tables",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&opts.configPath, "config", os.Getenv("JSM_CONFIG_FILE"), "YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (ERROR, WARN, INFO, DEBUG, TRACE)")

	rootCmd.AddCommand(
		newRunCmd(opts),
		newRunsCmd(opts),
	)
	return rootCmd
}

// environment is what every command needs: configuration, a logger on
// stderr and, when a database is configured and wanted, a repository.
type environment struct {
	config *config.Config
	logger *internal.Logger
	db     *sqlx.DB
}

func (o *rootOptions) load(stderr io.Writer) (*environment, error) {
	cfg, err := config.LoadFile(o.configPath)
	if err != nil {
		return nil, err
	}
	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}
	return &environment{
		config: cfg,
		logger: internal.NewWriterLogger(internal.ParseLogLevel(level), stderr),
	}, nil
}

func (e *environment) connect(ctx context.Context) error {
	if !e.config.Database.Enabled() {
		return fmt.Errorf("no database configured: set DATABASE_URL or database.url")
	}
	db, err := sqlx.ConnectContext(ctx, e.config.Database.Driver, e.config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if e.config.Database.Driver == "sqlite3" {
		db.SetMaxOpenConns(1)
	}
	if _, err := migrations.NewMigrator(db, e.logger).Up(ctx); err != nil {
		db.Close()
		return err
	}
	e.db = db
	return nil
}

func (e *environment) close() {
	if e.db != nil {
		e.db.Close()
	}
}

func (e *environment) service(tabular excel.ExcelConfig) *app.JSMService {
	deps := app.ServiceDeps{
		Tabular: excel.NewDataReader(tabular, e.logger),
		Logger:  e.logger,
	}
	if e.db != nil {
		deps.Repo = postgres.NewRunRepository(e.db)
	}
	return app.NewJSMService(deps)
}

func newRunCmd(root *rootOptions) *cobra.Command {
	var (
		method       string
		extThreshold int
		intThreshold int
		ban          bool
		steps        int
		trace        bool
		target       string
		idColumn     string
		sheet        string
		persist      bool
		format       string
	)

	cmd := &cobra.Command{
		Use:   "run <file|url>",
		Short: "Fit and predict a dataset (.xlsx, .csv, .json or an http(s) URL to JSON)",
		Long: `Load a dataset, induce positive and negative causes, classify undecided
examples by analogy until nothing changes, and report the causes, the final
labeling and whether every labeled example is explained.

Example: gojsm run patients.csv --method norris --ext-threshold 2 --int-threshold 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			env, err := root.load(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer env.close()

			jsmCfg := env.config.JSM
			flags := cmd.Flags()
			if flags.Changed("method") {
				jsmCfg.Method = method
			}
			if flags.Changed("ext-threshold") {
				jsmCfg.ExtThreshold = extThreshold
			}
			if flags.Changed("int-threshold") {
				jsmCfg.IntThreshold = intThreshold
			}
			if flags.Changed("ban-counterexamples") {
				jsmCfg.BanCounterexamples = ban
			}
			if flags.Changed("steps") {
				jsmCfg.MaxSteps = steps
			}

			ctx := cmd.Context()
			if persist {
				if err := env.connect(ctx); err != nil {
					return err
				}
			}

			tabular := excel.DefaultExcelConfig()
			tabular.TargetColumn = target
			tabular.IDColumn = idColumn
			if sheet != "" {
				tabular.SheetName = sheet
			}
			svc := env.service(tabular)

			var ds *dataset.Dataset
			source := args[0]
			if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
				ds, err = svc.LoadURL(ctx, source)
			} else {
				ds, err = svc.LoadFile(ctx, source)
			}
			if err != nil {
				return err
			}

			req := app.RunRequest{Options: jsmCfg.Options(), Steps: jsmCfg.MaxSteps, Persist: persist}
			if trace {
				stderr := cmd.ErrOrStderr()
				req.Trace = func(ev engine.TraceEvent) {
					fmt.Fprintf(stderr, "step %d: +%v -%v ?%v !%v (%d moved)\n",
						ev.Step, ev.Positive, ev.Negative, ev.Undecided, ev.Contradictory, ev.Migrations)
				}
			}

			rn, err := svc.RunDataset(ctx, ds, req)
			if err != nil {
				return err
			}
			return writeRun(cmd.OutOrStdout(), rn, format)
		},
	}

	defaults := engine.DefaultOptions()
	flags := cmd.Flags()
	flags.StringVar(&method, "method", defaults.Method, "Closure method: norris, khazanovskiy or chaining")
	flags.IntVar(&extThreshold, "ext-threshold", defaults.Thresholds.Extensional, "Minimum number of supporting examples per cause")
	flags.IntVar(&intThreshold, "int-threshold", defaults.Thresholds.Intensional, "Minimum number of attributes per cause")
	flags.BoolVar(&ban, "ban-counterexamples", defaults.BanCounterexamples, "Reject causes contained in any opposing example")
	flags.IntVar(&steps, "steps", 0, "Maximum number of rounds (0 runs to a fixed point)")
	flags.BoolVar(&trace, "trace", false, "Print the partitions after every round to stderr")
	flags.StringVar(&target, "target", "target", "Label column of tabular files")
	flags.StringVar(&idColumn, "id-column", "", "Id column of tabular files (default: a column named id, else row order)")
	flags.StringVar(&sheet, "sheet", "", "Worksheet of .xlsx files (default: Sheet1, else the first sheet)")
	flags.BoolVar(&persist, "persist", false, "Store the run in the configured database")
	flags.StringVar(&format, "format", "text", "Output format: text, json or markdown")

	return cmd
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "markdown", "md":
		return nil
	default:
		return fmt.Errorf("unknown format %q: use text, json or markdown", format)
	}
}

func writeRun(w io.Writer, rn *run.Run, format string) error {
	if err := checkFormat(format); err != nil {
		return err
	}
	switch format {
	case "text":
		return report.Text(w, rn)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rn)
	case "markdown", "md":
		prof, err := profiling.ProfileRun(rn)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, report.Markdown(rn, prof))
		return err
	}
	return nil
}
