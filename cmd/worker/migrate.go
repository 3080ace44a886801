package main

import (
	"context"
	"fmt"
	"log"

	"github.com/engdocs/docregister-backend/config"
	"github.com/engdocs/docregister-backend/internal/bootstrap"
	"github.com/engdocs/docregister-backend/internal/storage/postgres"
)

func runMigrate(_ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	ctx := context.Background()

	pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{DSN: cfg.Database.DSN})
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		return err
	}
	log.Printf("[info] schema applied")
	return nil
}
