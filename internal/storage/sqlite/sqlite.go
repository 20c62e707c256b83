// Package sqlitestorage implements the ride log on SQLite, either in a file or
// in memory with periodic disk dumps via VACUUM INTO. It wraps the GORM
// backend; the only SQLite-specific concerns are opening the database and
// the dump loop.
package sqlitestorage

import (
	"fmt"
	"time"

	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/database"
	gormstorage "github.com/groupride/convoy/internal/storage/gorm"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Backend wraps the GORM backend for SQLite-specific behavior.
type Backend struct {
	*gormstorage.Backend
	db       *gorm.DB
	cfg      config.SQLiteConfig
	log      zerolog.Logger
	stopChan chan struct{}
	done     chan struct{}
}

// New opens the database and creates the backend.
func New(cfg config.SQLiteConfig, flushInterval time.Duration, log zerolog.Logger) (*Backend, error) {
	log = log.With().Str("component", "sqlite").Logger()

	db, err := database.OpenSQLite(cfg.Path, log)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite DB: %w", err)
	}

	return &Backend{
		Backend: gormstorage.New(gormstorage.Dependencies{
			DB:            db,
			FlushInterval: flushInterval,
			Logger:        log,
		}),
		db:  db,
		cfg: cfg,
		log: log,
	}, nil
}

// dumps reports whether the dump loop applies: only in-memory databases
// with a dump path and interval are dumped.
func (b *Backend) dumps() bool {
	return b.cfg.Path == "" && b.cfg.DumpPath != "" && b.cfg.DumpInterval > 0
}

// Init initializes the embedded GORM backend and starts the dump goroutine.
func (b *Backend) Init() error {
	if err := b.Backend.Init(); err != nil {
		return err
	}

	if b.dumps() {
		b.stopChan = make(chan struct{})
		b.done = make(chan struct{})
		go b.dumpLoop()
	}

	return nil
}

// Close stops the dump goroutine, flushes the GORM backend, writes a final
// dump and closes the database.
func (b *Backend) Close() error {
	if b.stopChan != nil {
		close(b.stopChan)
		<-b.done
		b.stopChan = nil
	}

	err := b.Backend.Close()
	if err == nil && b.dumps() {
		err = b.dump()
	}
	if cerr := database.Close(b.db); err == nil {
		err = cerr
	}
	return err
}

func (b *Backend) dump() error {
	took, err := database.Timed(func() error {
		return database.DumpToDisk(b.db, b.cfg.DumpPath)
	})
	if err != nil {
		return err
	}
	b.log.Debug().Dur("took", took).Str("path", b.cfg.DumpPath).Msg("Dumped to disk")
	return nil
}

func (b *Backend) dumpLoop() {
	defer close(b.done)

	ticker := time.NewTicker(b.cfg.DumpInterval)
	defer ticker.Stop()

	for {
		select {
		case <-b.stopChan:
			return
		case <-ticker.C:
			if err := b.dump(); err != nil {
				b.log.Error().Err(err).Msg("Error dumping to disk")
			}
		}
	}
}
