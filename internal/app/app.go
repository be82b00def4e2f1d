package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oziev02/ImageGallery/internal/config"
	"github.com/oziev02/ImageGallery/internal/gallery"
	"github.com/oziev02/ImageGallery/internal/migrations"
	"github.com/oziev02/ImageGallery/internal/observability"
	"github.com/oziev02/ImageGallery/internal/repo"
	"github.com/oziev02/ImageGallery/internal/service"
	httptransport "github.com/oziev02/ImageGallery/internal/transport/http"
	kafkatransport "github.com/oziev02/ImageGallery/internal/transport/kafka"
)

type App struct {
	cfg           *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	httpServer    *httptransport.Server
	kafkaConsumer kafkatransport.Consumer
	kafkaProducer kafkatransport.Producer
	gallerySvc    service.GalleryService
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := observability.NewLogger(cfg.Log.Level, cfg.Log.Format)

	// Initialize database
	db, err := initDB(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize repositories
	imageRepo := repo.NewImageRepository(db)
	storageRepo := repo.NewStorageRepository(cfg.Storage.BasePath)

	// One gallery store per process, shared by the feed and the HTTP API
	store := gallery.NewStore(gallery.NewState(cfg.Gallery.Preferences()), logger.With("component", "gallery"))

	producer := kafkatransport.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic)

	// Initialize services
	gallerySvc := service.NewGalleryService(store, imageRepo, storageRepo, producer, cfg.Gallery.PageSize, logger)
	previewSvc := service.NewPreviewService(store, imageRepo, storageRepo)

	kafkaConsumer := kafkatransport.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic, cfg.Kafka.ConsumerGroup, logger)

	handler := httptransport.NewHandler(gallerySvc, previewSvc, logger)
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := httptransport.NewServer(addr, handler, cfg.Server.ReadTimeout, cfg.Server.WriteTimeout)

	return &App{
		cfg:           cfg,
		logger:        logger,
		db:            db,
		httpServer:    httpServer,
		kafkaConsumer: kafkaConsumer,
		kafkaProducer: producer,
		gallerySvc:    gallerySvc,
	}, nil
}

func (a *App) Start() error {
	a.logger.Info("starting application", "addr", a.httpServer.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Load the first page before the feed starts adding to it
	if _, err := a.gallerySvc.LoadOlder(ctx); err != nil {
		a.logger.Warn("failed to load initial gallery page", "error", err)
	}

	go func() {
		if err := a.kafkaConsumer.Start(ctx, a.gallerySvc); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("kafka consumer error", "error", err)
		}
	}()

	go func() {
		if err := a.httpServer.Start(); err != nil {
			a.logger.Error("http server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	a.logger.Info("shutting down application")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	cancel() // Stop Kafka consumer

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown http server: %w", err)
	}

	if err := a.kafkaConsumer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka consumer: %w", err)
	}

	if err := a.kafkaProducer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka producer: %w", err)
	}

	a.db.Close()

	return nil
}

func initDB(cfg *config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Ping(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(cfg, logger); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database initialized")
	return db, nil
}

func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	sourceDriver, err := iofs.New(migrations.Files, ".")
	if err != nil {
		return fmt.Errorf("failed to create source driver: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("database schema is up to date")
			return nil
		}
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Info("database migrations completed successfully")
	return nil
}
