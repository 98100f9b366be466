package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"aacsb-sync/apperrors"
	"aacsb-sync/models"
	"aacsb-sync/services"
)

// syncRunner startet einen Abgleichlauf für eine Entität.
type syncRunner interface {
	Run(ctx context.Context, entity string, opts services.Options) (*models.SyncRun, error)
}

// Server stellt die Betriebsendpunkte bereit und führt geplante Abgleiche aus.
// Pro Entität läuft in diesem Prozess höchstens ein Abgleich.
type Server struct {
	Sync     syncRunner
	Ping     func(ctx context.Context) error
	Gatherer prometheus.Gatherer
	Logger   *zap.Logger

	mu      sync.Mutex
	running map[string]bool
	wg      sync.WaitGroup
}

func NewServer(runner syncRunner, ping func(ctx context.Context) error, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	return &Server{
		Sync:     runner,
		Ping:     ping,
		Gatherer: gatherer,
		Logger:   logger,
		running:  make(map[string]bool),
	}
}

// Router baut die gin-Routen.
func (s *Server) Router() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/healthz", s.healthz)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	router.POST("/sync/:entity", s.triggerSync)
	return router
}

// Schedule registriert den täglichen API-Abgleich.
func (s *Server) Schedule(spec string) (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc(spec, func() {
		s.Logger.Info("Running scheduled sync job...")
		s.ScheduledSync(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid SYNC_CRON_SCHEDULE %q: %w", spec, err)
	}
	return c, nil
}

// ScheduledSync gleicht erst Lehrpersonen, dann Forschungsergebnisse ab,
// damit neue Lehrpersonen für die Zuordnung der Ergebnisse schon existieren.
func (s *Server) ScheduledSync(ctx context.Context) {
	for _, entity := range []string{models.EntityFaculty, models.EntityResearch} {
		if !s.acquire(entity) {
			s.Logger.Warn("Abgleich läuft bereits, überspringe", zap.String("entity", entity))
			continue
		}
		s.runSync(ctx, entity)
		s.release(entity)
	}
}

// Wait blockiert, bis alle angestoßenen Läufe beendet sind.
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()
	if err := s.Ping(ctx); err != nil {
		s.Logger.Error("Health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) triggerSync(c *gin.Context) {
	entity := c.Param("entity")
	if entity != models.EntityFaculty && entity != models.EntityResearch {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown entity"})
		return
	}
	if !s.acquire(entity) {
		c.JSON(http.StatusConflict, gin.H{"error": "sync already running"})
		return
	}

	go func() {
		defer s.release(entity)
		s.runSync(context.Background(), entity)
	}()

	c.JSON(http.StatusAccepted, gin.H{"message": fmt.Sprintf("Sync for %s triggered.", entity)})
}

func (s *Server) acquire(entity string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running[entity] {
		return false
	}
	s.running[entity] = true
	s.wg.Add(1)
	return true
}

func (s *Server) release(entity string) {
	s.mu.Lock()
	delete(s.running, entity)
	s.mu.Unlock()
	s.wg.Done()
}

func (s *Server) runSync(ctx context.Context, entity string) {
	log := s.Logger.With(zap.String("entity", entity))
	run, err := s.Sync.Run(ctx, entity, services.Options{})
	switch {
	case errors.Is(err, apperrors.ErrRunInProgress):
		// Ein anderer Prozess hält die Sperre.
		log.Warn("Abgleich läuft bereits in einem anderen Prozess")
	case err != nil:
		log.Error("Sync job failed", zap.Error(err))
	default:
		log.Info("Sync job completed",
			zap.String("run_id", run.RunID.String()),
			zap.Int("inserted", run.Inserted),
			zap.Int("updated", run.Updated),
			zap.Int("failed", run.Failed))
	}
}
