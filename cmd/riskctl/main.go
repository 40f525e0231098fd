package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockrisk/internal/analysis"
	"github.com/andresuchdata/stockrisk/internal/app"
	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
	"github.com/andresuchdata/stockrisk/internal/provider/demo"
	"github.com/andresuchdata/stockrisk/internal/provider/objectstore"
	"github.com/andresuchdata/stockrisk/internal/provider/snapshot"
	"github.com/andresuchdata/stockrisk/internal/provider/sqlstore"
	"github.com/andresuchdata/stockrisk/internal/service"
	"github.com/andresuchdata/stockrisk/pkg/logger"
)

func main() {
	cfg := config.Load()
	logger.Setup(cfg.Log.Format, cfg.Log.Level)

	if err := newApp(cfg).Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("riskctl failed")
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:  "riskctl",
		Usage: "Inventory stockout and overstock risk analysis",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Run one analysis and print the worklist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "source",
						Usage: fmt.Sprintf("Data source (%v)", app.Kinds),
						Value: cfg.Source.Kind,
					},
					&cli.IntFlag{
						Name:  "window",
						Usage: "Sales history window in days",
						Value: cfg.Analysis.WindowDays,
					},
					&cli.StringFlag{
						Name:  "filter",
						Usage: "Worklist filter: all, stockout or overstock",
						Value: string(domain.FilterAll),
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format: table or json",
						Value: formatTable,
					},
				},
				Action: func(c *cli.Context) error {
					return runAnalyze(c, cfg)
				},
			},
			{
				Name:  "seed",
				Usage: "Load demo data into a data source",
				Subcommands: []*cli.Command{
					{
						Name:  "db",
						Usage: "Create the schema and replace its contents with demo data",
						Flags: []cli.Flag{windowFlag(cfg)},
						Action: func(c *cli.Context) error {
							return seedDatabase(c, cfg)
						},
					},
					{
						Name:  "bucket",
						Usage: "Upload demo snapshot files to the configured bucket",
						Flags: []cli.Flag{windowFlag(cfg)},
						Action: func(c *cli.Context) error {
							return seedBucket(c, cfg)
						},
					},
				},
			},
			{
				Name:  "export",
				Usage: "Write demo snapshot files to a local directory",
				Flags: []cli.Flag{
					windowFlag(cfg),
					&cli.StringFlag{
						Name:  "dir",
						Usage: "Output directory",
						Value: "./data",
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "File format: csv or xlsx",
						Value: string(snapshot.FormatCSV),
					},
				},
				Action: func(c *cli.Context) error {
					return exportSnapshot(c, cfg)
				},
			},
		},
	}
}

func windowFlag(cfg *config.Config) cli.Flag {
	return &cli.IntFlag{
		Name:  "window",
		Usage: "Days of demo sales history to generate",
		Value: cfg.Analysis.WindowDays,
	}
}

func runAnalyze(c *cli.Context, cfg *config.Config) error {
	filter, err := domain.ParseRiskFilter(c.String("filter"))
	if err != nil {
		return err
	}
	format := c.String("format")
	if format != formatTable && format != formatJSON {
		return fmt.Errorf("unknown format %q (want %s or %s)", format, formatTable, formatJSON)
	}

	kind := c.String("source")
	source, closeSource, err := app.NewSource(c.Context, kind, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	svc := service.NewRiskService(source, nil, nil, service.Options{
		SourceName: kind,
		WindowDays: c.Int("window"),
		Workers:    cfg.Analysis.Workers,
	})
	run, err := svc.Refresh(c.Context)
	if err != nil {
		return err
	}

	items := analysis.Filter(run.Items, filter)
	if format == formatJSON {
		return writeJSON(c.App.Writer, run, items)
	}
	return writeTable(c.App.Writer, run, items)
}

func demoSnapshot(ctx context.Context, cfg *config.Config, days int) (domain.Snapshot, error) {
	return demo.New(cfg.Source.DemoSeed).Fetch(ctx, provider.NewWindow(days))
}

func seedDatabase(c *cli.Context, cfg *config.Config) error {
	db, err := sqlstore.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	store := sqlstore.NewStore(db)
	if err := store.Migrate(c.Context); err != nil {
		return err
	}

	snap, err := demoSnapshot(c.Context, cfg, c.Int("window"))
	if err != nil {
		return err
	}
	if err := store.ReplaceSnapshot(c.Context, snap); err != nil {
		return fmt.Errorf("seed database: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "seeded %d items and %d sales into %s\n", len(snap.Inventory), len(snap.Sales), cfg.Database.DBName)
	invalidateCachedRuns(c.Context, cfg.Cache)
	return nil
}

func seedBucket(c *cli.Context, cfg *config.Config) error {
	store, err := app.NewObjectStorage(c.Context, cfg.Storage)
	if err != nil {
		return err
	}

	snap, err := demoSnapshot(c.Context, cfg, c.Int("window"))
	if err != nil {
		return err
	}
	if err := objectstore.Upload(c.Context, store, snap, cfg.Storage.InventoryKey, cfg.Storage.SalesKey); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "uploaded %s and %s to bucket %s\n", cfg.Storage.InventoryKey, cfg.Storage.SalesKey, cfg.Storage.Bucket)
	invalidateCachedRuns(c.Context, cfg.Cache)
	return nil
}

var newRunCache = cache.NewRunCache

// invalidateCachedRuns drops the runs servers cached from the data that was
// just replaced. Seeding has already succeeded, so failures are only logged.
func invalidateCachedRuns(ctx context.Context, cfg config.CacheConfig) {
	if !cfg.Enabled {
		return
	}

	runs, err := newRunCache(cfg)
	if err != nil {
		log.Warn().Err(err).Msg("Cached analysis runs not invalidated: cache unavailable")
		return
	}
	n, err := runs.InvalidateAll(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Cached analysis runs not invalidated")
		return
	}
	log.Info().Int("runs", n).Msg("Invalidated cached analysis runs")
}

func exportSnapshot(c *cli.Context, cfg *config.Config) error {
	format := snapshot.Format(c.String("format"))
	if format != snapshot.FormatCSV && format != snapshot.FormatXLSX {
		return fmt.Errorf("unknown format %q (want csv or xlsx)", format)
	}

	dir := c.String("dir")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	snap, err := demoSnapshot(c.Context, cfg, c.Int("window"))
	if err != nil {
		return err
	}

	invPath := filepath.Join(dir, "inventory."+string(format))
	salesPath := filepath.Join(dir, "sales."+string(format))
	if err := snapshot.WriteFiles(snap, invPath, salesPath); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "wrote %s and %s\n", invPath, salesPath)
	return nil
}
