// Package app wires configuration into the data sources used by the server
// and the CLI.
package app

import (
	"context"
	"fmt"
	"slices"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
	"github.com/andresuchdata/stockrisk/internal/provider/demo"
	"github.com/andresuchdata/stockrisk/internal/provider/drive"
	"github.com/andresuchdata/stockrisk/internal/provider/objectstore"
	"github.com/andresuchdata/stockrisk/internal/provider/snapshot"
	"github.com/andresuchdata/stockrisk/internal/provider/sqlstore"
	"github.com/andresuchdata/stockrisk/internal/provider/square"
	"github.com/andresuchdata/stockrisk/internal/storage"
)

// Data source kinds accepted by DATA_SOURCE.
const (
	KindDemo     = "demo"
	KindSquare   = "square"
	KindDatabase = "database"
	KindFile     = "file"
	KindBucket   = "bucket"
	KindDrive    = "drive"
)

// Kinds lists every supported data source kind.
var Kinds = []string{KindDemo, KindSquare, KindDatabase, KindFile, KindBucket, KindDrive}

// NewProvider builds the provider for kind. The returned func releases any
// connection the provider holds and is never nil.
func NewProvider(ctx context.Context, kind string, cfg *config.Config) (provider.Provider, func(), error) {
	noop := func() {}

	switch kind {
	case KindDemo, "":
		return demo.New(cfg.Source.DemoSeed), noop, nil

	case KindSquare:
		client, err := square.NewClient(square.ConfigFrom(cfg.Square))
		if err != nil {
			return nil, noop, err
		}
		return client, noop, nil

	case KindDatabase:
		db, err := sqlstore.Open(cfg.Database)
		if err != nil {
			return nil, noop, err
		}
		return sqlstore.NewStore(db), func() { _ = db.Close() }, nil

	case KindFile:
		return snapshot.NewFileProvider(cfg.File.InventoryPath, cfg.File.SalesPath), noop, nil

	case KindBucket:
		store, err := NewObjectStorage(ctx, cfg.Storage)
		if err != nil {
			return nil, noop, err
		}
		return objectstore.New(store, cfg.Storage.InventoryKey, cfg.Storage.SalesKey), noop, nil

	case KindDrive:
		if cfg.Drive.CredentialsJSON == "" || cfg.Drive.FolderID == "" {
			return nil, noop, fmt.Errorf("drive credentials and folder id are required: %w", provider.ErrNotConfigured)
		}
		svc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
		if err != nil {
			return nil, noop, err
		}
		return drive.New(svc, cfg.Drive.FolderID, cfg.Drive.InventoryFile, cfg.Drive.SalesFile), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown data source %q (want one of %v)", kind, Kinds)
	}
}

// NewSource builds the configured source. With fallback enabled, a primary
// that cannot be constructed still yields a source: every fetch then serves
// demo data and records why.
func NewSource(ctx context.Context, kind string, cfg *config.Config) (provider.Source, func(), error) {
	if kind != "" && !slices.Contains(Kinds, kind) {
		return nil, func() {}, fmt.Errorf("unknown data source %q (want one of %v)", kind, Kinds)
	}

	primary, closeFn, err := NewProvider(ctx, kind, cfg)

	if kind == KindDemo || kind == "" || !cfg.Source.FallbackToDemo {
		if err != nil {
			return nil, closeFn, err
		}
		return provider.Direct(primary), closeFn, nil
	}

	if err != nil {
		log.Warn().Err(err).Str("source", kind).Msg("Data source unavailable, analyses will use demo data")
		primary = unavailable{name: kind, err: err}
	}
	return provider.WithFallback(primary, demo.New(cfg.Source.DemoSeed)), closeFn, nil
}

// NewObjectStorage connects to the configured S3-compatible bucket.
func NewObjectStorage(ctx context.Context, cfg config.StorageConfig) (storage.ObjectStorage, error) {
	return storage.NewMinioClient(ctx, storage.MinioConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		UseSSL:    cfg.UseSSL,
	})
}

// unavailable stands in for a provider that could not be constructed.
type unavailable struct {
	name string
	err  error
}

func (u unavailable) Name() string { return u.name }

func (u unavailable) Fetch(ctx context.Context, window provider.Window) (domain.Snapshot, error) {
	return domain.Snapshot{}, u.err
}
