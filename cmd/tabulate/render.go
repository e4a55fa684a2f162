package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	// database/sql drivers selectable with --driver.
	_ "github.com/lib/pq"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"github.com/bjaus/tabulate"
	"github.com/bjaus/tabulate/filecache"
	"github.com/bjaus/tabulate/source"
)

// pgxDriver selects the native pgx cursor instead of database/sql.
const pgxDriver = "pgx"

func newRenderCommand() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a report into one or more formats",
		Long: `Render reads records from --input (CSV with a header line) or from
--query run against --driver/--dsn, and writes one file per --format into
--out. Formats render concurrently, each over its own cursor.

Drivers: sqlite, postgres, sqlserver, pgx.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, configPath)
			if err != nil {
				return err
			}
			return runRender(cmd.Context(), cfg, cmd)
		},
	}

	f := cmd.Flags()
	f.StringVar(&configPath, "config", "", "config file (yaml)")
	f.String("definition", "", "report definition file (yaml)")
	f.String("query", "", "SQL query producing the records")
	f.String("driver", "sqlite", "database driver: sqlite, postgres, sqlserver or pgx")
	f.String("dsn", "", "database connection string")
	f.String("input", "", "CSV file with a header line")
	f.String("delimiter", "", "CSV input delimiter (default ',')")
	f.StringSlice("format", []string{string(tabulate.CSV)}, "output formats, comma separated")
	f.String("out", ".", "output directory")
	f.String("cache-dir", "", "cache rendered artifacts in this directory")
	f.Duration("cache-ttl", 0, "artifact cache lifetime (0 disables caching)")
	f.String("log-level", "info", "log level")
	return cmd
}

// sourceFactory opens one independent source per render, with the func that
// releases it.
type sourceFactory func(ctx context.Context) (tabulate.Source, func(), error)

func runRender(ctx context.Context, cfg *renderConfig, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log, err := cfg.logger()
	if err != nil {
		return err
	}
	log.SetOutput(cmd.ErrOrStderr())

	def, err := tabulate.LoadDefinition(cfg.Definition)
	if err != nil {
		return err
	}
	report, err := def.Report()
	if err != nil {
		return err
	}
	report.WithLogger(log)

	reg := prometheus.NewRegistry()
	metrics, err := tabulate.NewMetrics(reg)
	if err != nil {
		return err
	}
	report.WithMetrics(metrics)

	if cfg.CacheDir != "" && cfg.CacheTTL > 0 {
		store, err := filecache.New(cfg.CacheDir)
		if err != nil {
			return err
		}
		report.CacheUsing(store).CacheFor(cfg.CacheTTL)
	}

	open, closeAll, err := sources(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAll()

	if err := os.MkdirAll(cfg.Out, 0o755); err != nil {
		return err
	}
	base := slug(report.Title())

	g, gctx := errgroup.WithContext(ctx)
	for _, format := range cfg.parsedFormats() {
		r := report.Clone()
		path := filepath.Join(cfg.Out, base+"."+format.Ext())
		g.Go(func() error {
			return renderOne(gctx, r, format, path, open, log)
		})
	}
	err = g.Wait()
	logMetrics(reg, log)
	return err
}

func renderOne(ctx context.Context, r *tabulate.Report, format tabulate.Format, path string, open sourceFactory, log logrus.FieldLogger) error {
	src, done, err := open(ctx)
	if err != nil {
		return err
	}
	defer done()

	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := r.Render(ctx, out, format, src); err != nil {
		out.Close()
		return fmt.Errorf("%s: %w", format, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.WithField("path", path).Info("report written")
	return nil
}

// sources prepares the record origin shared by all renders. The returned
// closer releases shared handles once every render finished.
func sources(ctx context.Context, cfg *renderConfig) (sourceFactory, func(), error) {
	var comma rune
	if cfg.Delimiter != "" {
		comma = []rune(cfg.Delimiter)[0]
	}
	switch {
	case cfg.Input != "":
		return func(context.Context) (tabulate.Source, func(), error) {
			f, err := os.Open(cfg.Input)
			if err != nil {
				return nil, nil, err
			}
			return source.CSV(f, comma), func() { f.Close() }, nil
		}, func() {}, nil

	case cfg.Driver == pgxDriver:
		return func(ctx context.Context) (tabulate.Source, func(), error) {
			conn, err := pgx.Connect(ctx, cfg.DSN)
			if err != nil {
				return nil, nil, err
			}
			return source.Pgx(ctx, conn, cfg.Query), func() { conn.Close(context.Background()) }, nil
		}, func() {}, nil

	default:
		db, err := sql.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return func(ctx context.Context) (tabulate.Source, func(), error) {
			return source.SQL(ctx, db, cfg.Query), func() {}, nil
		}, func() { db.Close() }, nil
	}
}

// logMetrics reports the render counters at debug level.
func logMetrics(reg *prometheus.Registry, log logrus.FieldLogger) {
	families, err := reg.Gather()
	if err != nil {
		log.WithError(err).Warn("gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			fields := logrus.Fields{"metric": mf.GetName()}
			for _, lp := range m.GetLabel() {
				fields[lp.GetName()] = lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				fields["value"] = m.GetCounter().GetValue()
			case m.GetHistogram() != nil:
				fields["count"] = m.GetHistogram().GetSampleCount()
				fields["sum"] = m.GetHistogram().GetSampleSum()
			}
			log.WithFields(fields).Debug("metric")
		}
	}
}

func slug(title string) string {
	var sb strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
			dash = false
			continue
		}
		if !dash && sb.Len() > 0 {
			sb.WriteByte('-')
			dash = true
		}
	}
	s := strings.TrimSuffix(sb.String(), "-")
	if s == "" {
		return "report"
	}
	return s
}
