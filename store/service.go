package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tickflow/featstore/logging"
)

// Service runs a FeatureStore with a background auto-commit loop, so
// producers can use the buffered ingestion path without owning the commit
// cadence. The store remains fully usable without a Service.
type Service struct {
	store    *FeatureStore
	interval time.Duration

	// State
	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// Channels
	commitCh chan struct{}

	log *slog.Logger

	// now is swapped in tests to control commit reference time.
	now func() time.Time

	// Statistics
	autoCommits   atomic.Int64
	forcedCommits atomic.Int64
	commitErrors  atomic.Int64
}

// NewService creates a service around an existing store. interval is the
// auto-commit period; zero disables the ticker, leaving only ForceCommit.
func NewService(store *FeatureStore, interval time.Duration) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	return &Service{
		store:    store,
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		commitCh: make(chan struct{}, 1),
		log:      logging.Component("store-service"),
		now:      time.Now,
	}
}

// Store returns the underlying feature store.
func (s *Service) Store() *FeatureStore {
	return s.store
}

// Start starts the background commit worker.
func (s *Service) Start() error {
	if s.running.Load() {
		return fmt.Errorf("service already running")
	}

	s.running.Store(true)

	s.wg.Add(1)
	go s.commitWorker()

	s.log.Info("started", "auto_commit_interval", s.interval)
	return nil
}

// Stop stops the service gracefully, committing any remaining pending
// insights.
func (s *Service) Stop() error {
	if !s.running.Load() {
		return nil
	}

	s.running.Store(false)
	s.cancel()
	s.wg.Wait()

	// Final commit
	if err := s.store.Commit(s.now()); err != nil {
		return fmt.Errorf("final commit: %w", err)
	}

	s.log.Info("stopped")
	return nil
}

// ForceCommit triggers an immediate commit. No-op if one is already pending.
func (s *Service) ForceCommit() {
	select {
	case s.commitCh <- struct{}{}:
	default:
		// Commit already pending
	}
}

// IsRunning returns whether the service is running.
func (s *Service) IsRunning() bool {
	return s.running.Load()
}

// commitWorker periodically commits pending insights.
func (s *Service) commitWorker() {
	defer s.wg.Done()

	var tick <-chan time.Time
	if s.interval > 0 {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-tick:
			s.commit(false)
		case <-s.commitCh:
			s.commit(true)
		}
	}
}

func (s *Service) commit(forced bool) {
	if err := s.store.Commit(s.now()); err != nil {
		s.commitErrors.Add(1)
		s.log.Error("commit failed", "error", err)
		return
	}

	if forced {
		s.forcedCommits.Add(1)
	} else {
		s.autoCommits.Add(1)
	}
}

// ServiceStats holds combined service statistics.
type ServiceStats struct {
	Running       bool
	AutoCommits   int64
	ForcedCommits int64
	CommitErrors  int64
	Store         StoreStats
}

// Stats returns current statistics.
func (s *Service) Stats() ServiceStats {
	return ServiceStats{
		Running:       s.running.Load(),
		AutoCommits:   s.autoCommits.Load(),
		ForcedCommits: s.forcedCommits.Load(),
		CommitErrors:  s.commitErrors.Load(),
		Store:         s.store.StatsSnapshot(),
	}
}
