package service

import (
	"context"
	"sync"
	"time"

	"github.com/Gianlz/MedBayes/internal/domain"
	"go.uber.org/zap"
)

const defaultExpirerInterval = 1 * time.Hour

// ExpirerService periodically deletes consultations older than the retention window.
type ExpirerService struct {
	pruner        domain.ConsultationPruner
	retentionDays int
	logger        *zap.Logger

	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewExpirerService(pruner domain.ConsultationPruner, retentionDays int, logger *zap.Logger) *ExpirerService {
	return &ExpirerService{
		pruner:        pruner,
		retentionDays: retentionDays,
		logger:        logger,
		interval:      defaultExpirerInterval,
		stopCh:        make(chan struct{}),
	}
}

func (s *ExpirerService) SetInterval(d time.Duration) {
	s.interval = d
}

// Start runs the expirer on a periodic schedule in a background goroutine.
func (s *ExpirerService) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		s.logger.Info("consultation expirer started",
			zap.Duration("interval", s.interval),
			zap.Int("retention_days", s.retentionDays))

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
				s.run(ctx)
				cancel()
			case <-s.stopCh:
				s.logger.Info("consultation expirer stopped")
				return
			}
		}
	}()
}

// Stop gracefully stops the expirer.
func (s *ExpirerService) Stop() {
	close(s.stopCh)
	s.wg.Wait()
}

func (s *ExpirerService) run(ctx context.Context) {
	if s.retentionDays <= 0 {
		return
	}
	deleted, err := s.pruner.DeleteOlderThan(ctx, s.retentionDays)
	if err != nil {
		s.logger.Error("failed to delete expired consultations", zap.Error(err))
		return
	}
	if deleted > 0 {
		s.logger.Info("deleted consultations past retention",
			zap.Int("retention_days", s.retentionDays),
			zap.Int64("count", deleted))
	}
}
