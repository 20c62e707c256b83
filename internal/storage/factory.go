package storage

import (
	"fmt"

	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/storage/influx"
	"github.com/groupride/convoy/internal/storage/memory"
	"github.com/groupride/convoy/internal/storage/postgres"
	sqlitestorage "github.com/groupride/convoy/internal/storage/sqlite"
	"github.com/rs/zerolog"
)

// NewBackend creates a storage backend based on configuration. The backend
// is not initialized.
func NewBackend(cfg config.StorageConfig, logger zerolog.Logger) (Backend, error) {
	switch cfg.Type {
	case "", "none":
		return Nop{}, nil
	case "memory":
		return memory.New(cfg.Memory), nil
	case "sqlite":
		return sqlitestorage.New(cfg.SQLite, cfg.FlushInterval, logger)
	case "postgres":
		return postgres.New(cfg.Postgres, cfg.FlushInterval, logger), nil
	case "influx":
		return influx.New(cfg.Influx, logger), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, cfg.Type)
	}
}
