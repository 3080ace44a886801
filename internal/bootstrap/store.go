package bootstrap

import (
	"context"
	"fmt"

	"github.com/engdocs/docregister-backend/config"
	"github.com/engdocs/docregister-backend/internal/documents/lifecycle"
	"github.com/engdocs/docregister-backend/internal/documents/repository"
	"github.com/engdocs/docregister-backend/internal/storage/files"
	"github.com/engdocs/docregister-backend/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Backends holds the opened store and the connections behind it. Pool and
// Redis are nil unless the configured backend uses them.
type Backends struct {
	Store repository.Store
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

func (b *Backends) Close() {
	if b.Store != nil {
		b.Store.Close()
	}
	if b.Pool != nil {
		b.Pool.Close()
	}
}

// OpenStore connects the configured register backend. For postgres the
// schema is applied before the store is returned.
func OpenStore(ctx context.Context, cfg *config.Config) (*Backends, error) {
	switch cfg.App.StoreBackend {
	case config.StoreMemory:
		return &Backends{Store: repository.NewMemoryStore()}, nil

	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}
		return &Backends{Store: repository.NewRedisStore(rdb), Redis: rdb}, nil

	case config.StorePostgres:
		pool, err := OpenDB(ctx, DBOptions{DSN: cfg.Database.DSN})
		if err != nil {
			return nil, err
		}
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		db, err := postgres.NewConnection(ctx, &cfg.Database)
		if err != nil {
			pool.Close()
			return nil, err
		}
		return &Backends{Store: repository.NewPostgresStore(db), Pool: pool}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", cfg.App.StoreBackend)
}

func OpenFiles(ctx context.Context, cfg *config.FilesConfig) (files.Storage, error) {
	switch cfg.Backend {
	case config.FilesLocal:
		return files.NewLocalStore(cfg.Dir)
	case config.FilesS3:
		return files.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.S3Prefix)
	}
	return nil, fmt.Errorf("unknown files backend %q", cfg.Backend)
}

func NewEngine(cfg *config.ApprovalConfig) (*lifecycle.Engine, error) {
	mode, err := lifecycle.ParseOverrideMode(cfg.OverrideMode)
	if err != nil {
		return nil, err
	}
	return lifecycle.NewEngine(lifecycle.NewMarkerPolicy(cfg.Markers...), mode), nil
}
