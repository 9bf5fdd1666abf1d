// Package store opens the record store selected by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/snowpit-service/internal/adapter/filestore"
	"github.com/couchcryptid/snowpit-service/internal/adapter/sqlite"
	"github.com/couchcryptid/snowpit-service/internal/config"
	"github.com/couchcryptid/snowpit-service/internal/domain"
)

// Backend is a store that can list its collections, report readiness and be
// closed.
type Backend interface {
	domain.Store
	domain.Catalog
	CheckReadiness(ctx context.Context) error
	Close() error
}

type fileBackend struct{ *filestore.Store }

func (fileBackend) Close() error { return nil }

// Open returns the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Backend, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		logger.Info("using sqlite store", "path", cfg.SQLitePath)
		s, err := sqlite.Open(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.StoreFile, "":
		logger.Info("using file store", "dir", cfg.DataDir)
		return fileBackend{filestore.New(cfg.DataDir, logger)}, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
