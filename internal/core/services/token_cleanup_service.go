package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"bankcards/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// TokenCleanupService periodically deletes revoked and expired refresh tokens
type TokenCleanupService struct {
	sessions *SessionStore
	interval time.Duration
	cron     *cron.Cron
}

// NewTokenCleanupService creates a cleanup scheduler running every interval
func NewTokenCleanupService(sessions *SessionStore, interval time.Duration) *TokenCleanupService {
	logger := cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))

	return &TokenCleanupService{
		sessions: sessions,
		interval: interval,
		cron: cron.New(cron.WithChain(
			cron.Recover(logger),
			cron.SkipIfStillRunning(logger),
		)),
	}
}

// Start schedules the cleanup job
func (s *TokenCleanupService) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("invalid cleanup interval: %s", s.interval)
	}

	if _, err := s.cron.AddFunc("@every "+s.interval.String(), s.RunOnce); err != nil {
		return fmt.Errorf("failed to schedule token cleanup: %w", err)
	}
	s.cron.Start()

	log.Printf("🧹 Token cleanup scheduled every %s", s.interval)
	return nil
}

// Stop stops scheduling and waits for a running cleanup to finish
func (s *TokenCleanupService) Stop() {
	<-s.cron.Stop().Done()
	log.Println("🛑 Token cleanup stopped")
}

// RunOnce performs one cleanup pass. Errors are logged, never returned.
func (s *TokenCleanupService) RunOnce() {
	start := time.Now()

	deleted, err := s.sessions.Cleanup(context.Background())
	elapsed := time.Since(start)
	metrics.TokenCleanupDuration.Observe(elapsed.Seconds())

	if err != nil {
		log.Printf("❌ Token cleanup failed after %s: %v", elapsed, err)
		return
	}

	metrics.RefreshTokensCleaned.Add(float64(deleted))
	log.Printf("🧹 Token cleanup removed %d token(s) in %s", deleted, elapsed)
}
