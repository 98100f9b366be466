package main

import (
	"context"
	"fmt"
	"log"
	"os"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"aacsb-sync/config"
	"aacsb-sync/models"
	"aacsb-sync/providers/hyapi"
	"aacsb-sync/services"
	"aacsb-sync/storage"
)

func main() {
	logging, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("can't initialize zap logger: %v", err)
	}

	if err := newRootCmd(logging).Execute(); err != nil {
		logging.Error("Befehl fehlgeschlagen", zap.Error(err))
		_ = logging.Sync()
		os.Exit(1)
	}
	_ = logging.Sync()
}

// app hält die gemeinsam genutzten Abhängigkeiten eines Befehls.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	db       *gorm.DB
	store    *storage.GormStore
	registry *prometheus.Registry
	metrics  *services.Metrics
}

func newApp(logger *zap.Logger) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("config load error: %w", err)
	}

	db, err := storage.Open(cfg.DSN(), logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		store:    storage.NewGormStore(db, logger),
		registry: reg,
		metrics:  services.NewMetrics(reg),
	}, nil
}

func (a *app) Close() {
	if sqlDB, err := a.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

func (a *app) reconciler() (*services.Reconciler, error) {
	return services.NewReconciler(a.cfg, a.store, a.metrics, a.logger)
}

func (a *app) apiClient() (*hyapi.Client, error) {
	loc, err := a.cfg.Location()
	if err != nil {
		return nil, err
	}
	return hyapi.NewClient(a.cfg, a.logger, loc), nil
}

// archive liefert nil, wenn kein Archiv-Bucket konfiguriert ist.
func (a *app) archive(ctx context.Context) (*storage.Archive, error) {
	if !a.cfg.ArchiveEnabled() {
		return nil, nil
	}
	client, err := storage.NewS3Client(ctx, storage.S3Settings{
		URL:    a.cfg.ArchiveS3URL,
		Region: a.cfg.ArchiveS3Region,
		Key:    a.cfg.ArchiveS3Key,
		Secret: a.cfg.ArchiveS3Secret,
	})
	if err != nil {
		return nil, fmt.Errorf("archive client: %w", err)
	}
	return storage.NewArchive(client, a.cfg.ArchiveS3Bucket, a.logger), nil
}

// apiSync gleicht eine Entität gegen die institutionelle API ab.
type apiSync struct {
	Reconciler *services.Reconciler
	Client     *hyapi.Client
}

func (s *apiSync) Run(ctx context.Context, entity string, opts services.Options) (*models.SyncRun, error) {
	switch entity {
	case models.EntityFaculty:
		return s.Reconciler.ReconcileFaculty(ctx, s.Client, opts)
	case models.EntityResearch:
		return s.Reconciler.ReconcileResearch(ctx, s.Client, opts)
	}
	return nil, fmt.Errorf("unknown entity %q", entity)
}
