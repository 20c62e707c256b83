// Package postgres implements the ride log on PostgreSQL by wrapping the
// GORM backend with connection handling.
package postgres

import (
	"fmt"
	"time"

	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/database"
	gormstorage "github.com/groupride/convoy/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Opener connects to the database. Tests replace it.
type Opener func(cfg config.PostgresConfig, log zerolog.Logger) (*gorm.DB, error)

// Backend connects on Init and delegates writes to the GORM backend.
type Backend struct {
	*gormstorage.Backend
	cfg           config.PostgresConfig
	flushInterval time.Duration
	log           zerolog.Logger
	open          Opener
	db            *gorm.DB
}

// New creates a new PostgreSQL backend. No connection is made until Init.
func New(cfg config.PostgresConfig, flushInterval time.Duration, log zerolog.Logger) *Backend {
	return &Backend{
		cfg:           cfg,
		flushInterval: flushInterval,
		log:           log.With().Str("component", "postgres").Logger(),
		open:          database.OpenPostgres,
	}
}

// Init connects, migrates the schema and starts the DB writer.
func (b *Backend) Init() error {
	db, err := b.open(b.cfg, b.log)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	b.db = db
	b.Backend = gormstorage.New(gormstorage.Dependencies{
		DB:            db,
		FlushInterval: b.flushInterval,
		Logger:        b.log,
	})
	return b.Backend.Init()
}

// Close flushes pending writes and closes the connection.
func (b *Backend) Close() error {
	if b.Backend == nil {
		return nil
	}
	err := b.Backend.Close()
	if cerr := database.Close(b.db); err == nil {
		err = cerr
	}
	return err
}
