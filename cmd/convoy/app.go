package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/groupride/convoy/internal/api"
	"github.com/groupride/convoy/internal/channel"
	"github.com/groupride/convoy/internal/config"
	"github.com/groupride/convoy/internal/geo"
	"github.com/groupride/convoy/internal/identity"
	"github.com/groupride/convoy/internal/locsync"
	"github.com/groupride/convoy/internal/logging"
	"github.com/groupride/convoy/internal/mapview"
	"github.com/groupride/convoy/internal/position"
	"github.com/groupride/convoy/internal/reconcile"
	"github.com/groupride/convoy/internal/storage"
	"github.com/groupride/convoy/internal/uiloop"
	"github.com/groupride/convoy/internal/visibility"
	"github.com/groupride/convoy/pkg/core"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// updateBuffer is the per-subscriber buffer of the published set stream.
const updateBuffer = 4

func resolveDevice(cfg config.DeviceConfig) (core.DeviceIdentity, error) {
	source := identity.Generated()
	if cfg.VendorID != "" {
		source = identity.Static(cfg.VendorID)
	}
	return identity.NewResolver(source).Identity()
}

// newFetcher builds the location service client for the configured
// transport. The returned func releases its connection.
func newFetcher(ctx context.Context, cfg config.APIConfig, logger zerolog.Logger) (locsync.Fetcher, func(), error) {
	switch cfg.Transport {
	case "", "http":
		client := api.New(cfg.ServerURL, cfg.APIKey, cfg.Timeout)
		if err := client.Healthcheck(ctx); err != nil {
			logger.Warn().Err(err).Str("url", cfg.ServerURL).Msg("Location service is not healthy, syncing anyway")
		} else {
			logger.Info().Str("url", cfg.ServerURL).Msg("Location service is healthy")
		}
		return client, func() {}, nil
	case "nats":
		conn, err := api.Connect(cfg.NATS.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to nats: %w", err)
		}
		client := api.NewNATSClient(conn, cfg.NATS.Subject, cfg.Timeout)
		logger.Info().Str("url", cfg.NATS.URL).Str("subject", client.Subject()).Msg("Using NATS transport")
		return client, conn.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown transport: %q", cfg.Transport)
	}
}

func runApp(ctx context.Context, logger zerolog.Logger, metrics http.Handler) error {
	device, err := resolveDevice(config.GetDeviceConfig())
	if err != nil {
		return fmt.Errorf("resolving device identity: %w", err)
	}

	positions := position.NewStore()
	if raw := config.GetDeviceConfig().Position; raw != "" {
		c, err := geo.ParsePosition(raw)
		if err != nil {
			return fmt.Errorf("device position: %w", err)
		}
		positions.Set(c)
	}

	mc := config.GetMapConfig()
	perm, err := core.ParsePermissionState(mc.InitialPermission)
	if err != nil {
		return err
	}
	theme, err := core.ParseThemeMode(mc.Theme)
	if err != nil {
		return err
	}

	apiCfg := config.GetAPIConfig()
	fetcher, closeFetcher, err := newFetcher(ctx, apiCfg, logger)
	if err != nil {
		return err
	}
	defer closeFetcher()

	loop, err := uiloop.New(logging.NewKV(logger.With().Str("component", "uiloop").Logger()), uiloop.Named("ui"))
	if err != nil {
		return fmt.Errorf("creating ui loop: %w", err)
	}
	defer loop.Close()

	hub := mapview.NewHub(logger)
	defer hub.Close()
	surface := mapview.NewSurface(mapview.Tiles{Day: mc.DayTiles, Night: mc.NightTiles}, hub, logger)

	reconciler, err := reconcile.New(surface)
	if err != nil {
		return fmt.Errorf("creating reconciler: %w", err)
	}
	coordinator := reconcile.NewCoordinator(reconciler, logger)

	permissions := channel.NewLatest[core.PermissionState]()
	themes := channel.NewLatest[core.ThemeMode]()
	watcher := visibility.NewWatcher(perm, theme, surface, loop, logger)

	sc := config.GetStorageConfig()
	backend, err := storage.NewBackend(sc, logger)
	if err != nil {
		return err
	}
	if err := backend.Init(); err != nil {
		return fmt.Errorf("initializing %s ride log: %w", sc.Type, err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error().Err(err).Msg("Closing ride log failed")
		}
	}()

	updates := channel.NewBroadcast[core.LocationSet](updateBuffer)
	markerUpdates := updates.Subscribe()

	var recorder *storage.Recorder
	var recordUpdates channel.Receiver[core.LocationSet]
	if _, nop := backend.(storage.Nop); !nop {
		recorder, err = storage.NewRecorder(backend, device, nil, logger)
		if err != nil {
			return err
		}
		recordUpdates = updates.Subscribe()
	}

	var trails mapview.TrailSource
	if tr, ok := backend.(storage.TrailReader); ok {
		trails = tr
	}

	engine, err := locsync.New(locsync.Config{RequestTimeout: apiCfg.Timeout}, locsync.Dependencies{
		Fetcher:   fetcher,
		Position:  positions,
		Publisher: updates,
		Identity:  device,
		Logger:    logger,
	})
	if err != nil {
		return fmt.Errorf("creating sync engine: %w", err)
	}

	server := mapview.NewServer(mapview.Options{
		ListenAddr:  mc.ListenAddr,
		Surface:     surface,
		Hub:         hub,
		Loop:        loop,
		Position:    positions,
		Permissions: permissions,
		Themes:      themes,
		Trails:      trails,
		Metrics:     metrics,
		Logger:      logger,
	})

	// Consumers of the set stream exit when it closes, so the engine can
	// drain in-flight cycles before they stop reading.
	var streamGroup errgroup.Group
	streamGroup.Go(func() error {
		return coordinator.Run(context.Background(), loop, markerUpdates)
	})
	if recorder != nil {
		streamGroup.Go(func() error {
			return recorder.Run(context.Background(), recordUpdates)
		})
	}

	svcCtx, cancelSvc := context.WithCancel(ctx)
	defer cancelSvc()
	services, svcCtx := errgroup.WithContext(svcCtx)
	services.Go(func() error {
		return watcher.Run(svcCtx, permissions, themes)
	})
	services.Go(func() error {
		return server.Run(svcCtx)
	})

	interval := config.GetSyncConfig().Interval
	if err := engine.Start(interval); err != nil {
		cancelSvc()
		_ = services.Wait()
		updates.Close()
		_ = streamGroup.Wait()
		return fmt.Errorf("starting sync engine: %w", err)
	}
	logger.Info().
		Str("device", string(device)).
		Dur("interval", interval).
		Str("storage", sc.Type).
		Str("listen", mc.ListenAddr).
		Msg("Convoy running")

	<-svcCtx.Done()
	logger.Info().Msg("Shutting down")

	engine.Stop()
	engine.Wait()
	updates.Close()
	streamErr := streamGroup.Wait()

	cancelSvc()
	svcErr := services.Wait()
	permissions.Close()
	themes.Close()

	return errors.Join(ignoreCanceled(streamErr), ignoreCanceled(svcErr))
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
