// Package influx writes the ride log as InfluxDB points. When the server is
// unreachable at Init, points go to a gzip line-protocol backup file instead.
package influx

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_api "github.com/influxdata/influxdb-client-go/v2/api"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/geo"
	"github.com/groupride/convoy/pkg/core"
	"github.com/rs/zerolog"
)

const (
	positionMeasurement = "participant_position"
	snapshotMeasurement = "ride_snapshot"
)

// Backend holds either a live writer or the backup file.
type Backend struct {
	cfg    config.InfluxConfig
	logger zerolog.Logger

	client influxdb2.Client
	writer influxdb2_api.WriteAPI

	mu         sync.Mutex
	backupFile *os.File
	backup     *gzip.Writer
}

// New creates a new InfluxDB backend. No connection is made until Init.
func New(cfg config.InfluxConfig, logger zerolog.Logger) *Backend {
	return &Backend{
		cfg:    cfg,
		logger: logger.With().Str("component", "influx").Logger(),
	}
}

// Init pings the server and creates the write API, or opens the backup file
// when the server cannot be reached.
func (b *Backend) Init() error {
	b.client = influxdb2.NewClientWithOptions(
		b.cfg.URL,
		b.cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(500).
			SetFlushInterval(1000),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	running, err := b.client.Ping(ctx)
	if err != nil || !running {
		if b.cfg.BackupPath == "" {
			b.client.Close()
			return fmt.Errorf("influxDB unreachable and no backup path set: %v", err)
		}
		b.logger.Warn().Err(err).Str("backupPath", b.cfg.BackupPath).
			Msg("Failed to reach InfluxDB, writing to backup file")

		file, err := os.OpenFile(b.cfg.BackupPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			b.client.Close()
			return fmt.Errorf("error creating backup file: %w", err)
		}
		b.backupFile = file
		b.backup = gzip.NewWriter(file)
		return nil
	}

	b.writer = b.client.WriteAPI(b.cfg.Org, b.cfg.Bucket)
	go func(errorsCh <-chan error) {
		for writeErr := range errorsCh {
			b.logger.Error().Err(writeErr).Str("bucket", b.cfg.Bucket).
				Msg("Error sending data to InfluxDB")
		}
	}(b.writer.Errors())

	b.logger.Info().Str("bucket", b.cfg.Bucket).Msg("InfluxDB client initialized")
	return nil
}

// Live reports whether points go to the server rather than the backup file.
func (b *Backend) Live() bool {
	return b.writer != nil
}

// Points converts a snapshot to one point per participant plus one summary
// point.
func Points(s core.Snapshot) []*influxdb2_write.Point {
	device := string(s.Device)
	ids := s.Locations.Identifiers()
	points := make([]*influxdb2_write.Point, 0, len(ids)+1)

	for _, id := range ids {
		loc := s.Locations[id]
		x, y := geo.To3857(loc.Coordinate())
		points = append(points, influxdb2.NewPoint(
			positionMeasurement,
			map[string]string{"device": device, "participant": id},
			map[string]any{
				"latitude":  loc.Latitude,
				"longitude": loc.Longitude,
				"x":         x,
				"y":         y,
			},
			s.RecordedAt,
		))
	}

	points = append(points, influxdb2.NewPoint(
		snapshotMeasurement,
		map[string]string{"device": device},
		map[string]any{"participants": len(ids)},
		s.RecordedAt,
	))
	return points
}

// RecordSnapshot writes the snapshot's points.
func (b *Backend) RecordSnapshot(_ context.Context, s core.Snapshot) error {
	points := Points(s)

	if b.writer != nil {
		for _, p := range points {
			b.writer.WritePoint(p)
		}
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return errors.New("influxDB client not initialized and backup writer not available")
	}
	for _, p := range points {
		// PointToLineProtocol terminates the line itself.
		line := influxdb2_write.PointToLineProtocol(p, time.Nanosecond)
		if _, err := b.backup.Write([]byte(line)); err != nil {
			return fmt.Errorf("error writing to InfluxDB backup file: %w", err)
		}
	}
	return nil
}

// Close flushes the writer or the backup file.
func (b *Backend) Close() error {
	if b.writer != nil {
		b.writer.Flush()
	}
	if b.client != nil {
		b.client.Close()
		b.client = nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.backup == nil {
		return nil
	}
	err := b.backup.Close()
	if cerr := b.backupFile.Close(); err == nil {
		err = cerr
	}
	b.backup = nil
	return err
}
