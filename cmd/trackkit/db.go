package main

import (
	"context"
	"fmt"

	"trackkit/internal/config"
	"trackkit/internal/store"
	"trackkit/internal/store/postgres"
	"trackkit/internal/store/sqlite"
)

func openDB(ctx context.Context, cfg *config.ProjectConfig) (store.Store, error) {
	dsn := cfg.Catalog.DSN
	switch {
	case dsn == "":
		return nil, fmt.Errorf("catalog.dsn is required")
	case config.IsSQLiteDSN(dsn):
		return sqlite.New(ctx, dsn)
	case config.IsPostgresDSN(dsn):
		return postgres.New(ctx, dsn)
	default:
		return nil, fmt.Errorf("unsupported catalog dsn scheme: %s", dsn)
	}
}
