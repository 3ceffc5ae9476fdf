package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"gorm.io/gorm"

	"github.com/omfgitsmark/mtgsqlive/internal/config"
	"github.com/omfgitsmark/mtgsqlive/internal/importer"
	"github.com/omfgitsmark/mtgsqlive/internal/loader"
	"github.com/omfgitsmark/mtgsqlive/internal/logging"
	"github.com/omfgitsmark/mtgsqlive/internal/metrics"
)

type app struct {
	cfg      *config.Settings
	logLevel slog.Level

	stdin          *os.File
	stdout, stderr io.Writer
}

func newApp(cfg *config.Settings, stdin *os.File, stdout, stderr io.Writer) *app {
	return &app{cfg: cfg, stdin: stdin, stdout: stdout, stderr: stderr}
}

func (a *app) rootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mtgsqlive -i AllSets.json -s host[:port] -u user [-p password] -d database",
		Short: "Load an MTGJSON export into MySQL",
		Long: `mtgsqlive reads an MTGJSON v4 export (an AllSets file or a directory of
set files) and loads its sets, cards and tokens into a MySQL database,
creating the tables it needs. Re-running an import updates rows in place.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("password") {
				a.cfg.PasswordSet = true
			}
			a.logLevel = logging.Setup(a.cfg.LogLevel)
			if a.cfg.ToggleF || a.cfg.ToggleR {
				slog.Debug("Toggles set", "f", a.cfg.ToggleF, "r", a.cfg.ToggleR)
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runImport(cmd.Context())
		},
	}
	cmd.SetOut(a.stdout)
	cmd.SetErr(a.stderr)

	a.connectionFlags(cmd.PersistentFlags())

	flags := cmd.Flags()
	flags.StringVarP(&a.cfg.Input, "input", "i", a.cfg.Input, "AllSets JSON file or directory of set files")
	flags.IntVar(&a.cfg.BatchSize, "batch-size", a.cfg.BatchSize, "Records written per transaction")
	flags.BoolVar(&a.cfg.StrictMode, "strict", a.cfg.StrictMode, "Reject records with unknown fields instead of dropping the fields")
	flags.StringVar(&a.cfg.MetricsFile, "metrics-file", a.cfg.MetricsFile, "Write Prometheus metrics to this textfile when done")
	flags.BoolVarP(&a.cfg.ToggleF, "f", "f", a.cfg.ToggleF, "Accepted for compatibility")
	flags.BoolVarP(&a.cfg.ToggleR, "r", "r", a.cfg.ToggleR, "Accepted for compatibility")

	cmd.AddCommand(a.schemaCommand(), a.cardCommand(), a.tokenCommand(), a.setCommand())
	return cmd
}

func (a *app) connectionFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&a.cfg.Server, "server", "s", a.cfg.Server, "MySQL server as host[:port]")
	fs.StringVarP(&a.cfg.User, "user", "u", a.cfg.User, "MySQL user")
	fs.StringVarP(&a.cfg.Password, "password", "p", a.cfg.Password, "MySQL password (prompted for when omitted)")
	fs.StringVarP(&a.cfg.Database, "database", "d", a.cfg.Database, "MySQL database")
	fs.StringVar(&a.cfg.LogLevel, "log-level", a.cfg.LogLevel, "Log level (DEBUG, INFO, WARN, ERROR)")
}

// connect opens the database connection, asking for the password first if
// none was given.
func (a *app) connect(ctx context.Context) (*gorm.DB, error) {
	if err := a.cfg.ValidateConnection(); err != nil {
		return nil, err
	}
	host, port, err := loader.ParseServer(a.cfg.Server)
	if err != nil {
		return nil, err
	}
	if !a.cfg.PasswordSet {
		pw, err := promptPassword(a.stdin, a.stderr, a.cfg.User, host)
		if err != nil {
			return nil, err
		}
		a.cfg.Password = pw
		a.cfg.PasswordSet = true
	}

	target := loader.Target{
		Host:     host,
		Port:     port,
		User:     a.cfg.User,
		Password: a.cfg.Password,
		Database: a.cfg.Database,
	}
	return loader.Open(ctx, target, loader.Options{
		LogLevel:    a.logLevel,
		PoolMetrics: a.cfg.MetricsFile != "",
	})
}

func (a *app) runImport(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}

	db, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer loader.Close(db)

	var collector *metrics.Collector
	if a.cfg.MetricsFile != "" {
		collector = metrics.New()
	}

	summary, err := importer.Run(ctx, db, importer.Options{
		Input:     a.cfg.Input,
		Strict:    a.cfg.StrictMode,
		BatchSize: a.cfg.BatchSize,
	}, collector)

	if collector != nil {
		if werr := collector.WriteTextfile(a.cfg.MetricsFile); werr != nil {
			slog.Error("Failed to write metrics", "error", werr)
		}
	}
	if summary != nil {
		printSummary(a.stdout, summary)
	}
	if err != nil {
		return err
	}

	if err := summary.Err(); err != nil {
		slog.Warn("Import incomplete", "error", err)
		return err
	}
	return nil
}

func printSummary(w io.Writer, s *importer.Summary) {
	fmt.Fprintf(w, "sets:           %d\n", s.Sets)
	fmt.Fprintf(w, "cards:          %d\n", s.Cards)
	fmt.Fprintf(w, "tokens:         %d\n", s.Tokens)
	fmt.Fprintf(w, "loaded:         %d\n", s.Loaded)
	fmt.Fprintf(w, "rejected:       %d\n", s.Rejected)
	fmt.Fprintf(w, "failed:         %d\n", s.Failed)
	fmt.Fprintf(w, "failed batches: %d of %d\n", s.FailedBatches, s.Batches)
}
