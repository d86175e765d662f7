package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/blog-api/internal/config"
	"github.com/blog-api/internal/metrics"
	"github.com/blog-api/internal/repository"
	"github.com/rs/zerolog"
)

// maintenanceService is the concrete implementation of MaintenanceService
type maintenanceService struct {
	repos    *repository.Repositories
	popular  *popularService
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	running  bool
	mu       sync.Mutex
}

// newMaintenanceService creates a new MaintenanceService
func newMaintenanceService(repos *repository.Repositories, popular *popularService, cfg config.MaintenanceConfig, log zerolog.Logger) *maintenanceService {
	interval := cfg.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	return &maintenanceService{
		repos:    repos,
		popular:  popular,
		interval: interval,
		now:      time.Now,
		log:      log.With().Str("service", "maintenance").Logger(),
	}
}

// StartProcessor rebuilds the popular posts ranking, then purges expired
// blacklisted tokens on every tick. It blocks until ctx is cancelled or
// StopProcessor is called.
func (s *maintenanceService) StartProcessor(ctx context.Context) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	s.mu.Unlock()
	defer s.wg.Done()

	s.log.Info().Dur("interval", s.interval).Msg("Maintenance processor started")

	if _, err := s.popular.Rebuild(s.ctx); err != nil {
		s.log.Warn().Err(err).Msg("Failed to rebuild popular posts ranking")
	}
	s.purge()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.log.Info().Msg("Maintenance processor stopping")
			return
		case <-ticker.C:
			s.purge()
		}
	}
}

// StopProcessor stops the background processor and waits for it to exit
func (s *maintenanceService) StopProcessor() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cancel()
	s.wg.Wait()
	s.running = false
	s.log.Info().Msg("Maintenance processor stopped")
}

// RunOnce purges blacklisted tokens whose expiry has passed
func (s *maintenanceService) RunOnce(ctx context.Context) (int64, error) {
	purged, err := s.repos.Token.PurgeExpired(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired tokens: %w", err)
	}
	metrics.PurgedTokensTotal.Add(float64(purged))
	return purged, nil
}

func (s *maintenanceService) purge() {
	purged, err := s.RunOnce(s.ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Token purge failed")
		return
	}
	if purged > 0 {
		s.log.Info().Int64("purged", purged).Msg("Expired blacklisted tokens purged")
	}
}
