package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-booking/internal/application"
	"github.com/example/room-booking/internal/config"
	httptransport "github.com/example/room-booking/internal/http"
	"github.com/example/room-booking/internal/logging"
	"github.com/example/room-booking/internal/notification"
	"github.com/example/room-booking/internal/persistence"
	"github.com/example/room-booking/internal/persistence/postgres"
	"github.com/example/room-booking/internal/persistence/sqlite"
)

func main() {
	bootstrap := logging.New(os.Stdout, slog.LevelInfo, "room-booking")

	cfg, err := config.Load()
	if err != nil {
		bootstrap.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		bootstrap.Error("invalid log level", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, level, "room-booking")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// run serves the API until ctx is cancelled.
func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	storage, err := openStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := storage.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	notifier, closeNotifier := newNotifier(cfg, logger)
	defer closeNotifier()

	handler := newHandler(cfg, storage, notifier, uuid.NewString, time.Now, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("room booking API listening", "addr", server.Addr, "db_driver", cfg.DBDriver, "redis", cfg.RedisEnabled())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("room booking API stopped")
	return nil
}

// storage is the driver independent view of a migrated store.
type storage struct {
	rooms    persistence.RoomRepository
	meetings persistence.MeetingRepository
	ping     func(context.Context) error
	close    func() error
}

func (s *storage) Ping(ctx context.Context) error {
	return s.ping(ctx)
}

func (s *storage) Close() error {
	return s.close()
}

func openStorage(ctx context.Context, cfg config.Config) (*storage, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		store, err := postgres.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return &storage{rooms: store.Rooms(), meetings: store.Meetings(), ping: store.Ping, close: store.Close}, nil
	case config.DriverSQLite, "":
		store, err := sqlite.Open(cfg.SQLiteDSN)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		return &storage{rooms: store.Rooms(), meetings: store.Meetings(), ping: store.Ping, close: store.Close}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
}

func newNotifier(cfg config.Config, logger *slog.Logger) (application.Notifier, func()) {
	if !cfg.RedisEnabled() {
		return notification.Nop{}, func() {}
	}
	client := notification.NewRedisClient(notification.RedisConfig{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		Channel:  cfg.RedisChannel,
	})
	publisher := notification.NewRedisPublisher(client, cfg.RedisChannel, logger)
	return publisher, func() {
		if err := publisher.Close(); err != nil {
			logger.Error("failed to close redis client", "error", err)
		}
	}
}

func newHandler(cfg config.Config, storage *storage, notifier application.Notifier, idGenerator func() string, now func() time.Time, logger *slog.Logger) http.Handler {
	rooms := newRoomRepositoryAdapter(storage.rooms)
	meetings := newMeetingRepositoryAdapter(storage.meetings)

	roomService := application.NewRoomServiceWithConfig(rooms, meetings, idGenerator, now, application.RoomServiceConfig{
		MaxCapacity: cfg.MaxRoomCapacity,
		Logger:      logger,
	})
	meetingService := application.NewMeetingServiceWithConfig(meetings, rooms, idGenerator, now, application.MeetingServiceConfig{
		Notifier: notifier,
		Logger:   logger,
	})

	return httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:       httptransport.NewRoomHandler(roomService, cfg.DisplayLocation, logger),
		Meetings:    httptransport.NewMeetingHandler(meetingService, cfg.DisplayLocation, logger),
		Verifier:    httptransport.NewTokenVerifier(cfg.JWTSecret, now),
		Health:      storage,
		CORSOrigins: cfg.CORSOrigins,
		Logger:      logger,
	})
}
