package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robomo/discord-bridge/internal/biz/repo"
	"github.com/robomo/discord-bridge/internal/metrics"
)

// ReindexScheduler triggers the QA backend's index rebuild on a fixed
// interval. Fire and forget: a failed trigger is logged and the next tick
// tries again.
type ReindexScheduler struct {
	reindex   repo.ReindexRepo
	indexName string
	interval  time.Duration
	log       zerolog.Logger

	running bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewReindexScheduler creates a scheduler. A non-positive interval or empty
// index name disables it.
func NewReindexScheduler(reindex repo.ReindexRepo, indexName string, interval time.Duration, log zerolog.Logger) *ReindexScheduler {
	return &ReindexScheduler{
		reindex:   reindex,
		indexName: indexName,
		interval:  interval,
		log:       log.With().Str("component", "reindex").Logger(),
		stopCh:    make(chan struct{}),
	}
}

// Start starts the scheduler loop.
func (s *ReindexScheduler) Start() {
	if s.running || s.interval <= 0 || s.indexName == "" {
		return
	}
	s.running = true
	s.wg.Add(1)
	go s.loop()
	s.log.Info().Dur("interval", s.interval).Str("index", s.indexName).Msg("reindex scheduler started")
}

// Stop stops the scheduler and waits for the loop to exit.
func (s *ReindexScheduler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info().Msg("reindex scheduler stopped")
}

func (s *ReindexScheduler) loop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce()
		case <-s.stopCh:
			return
		}
	}
}

func (s *ReindexScheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if err := s.reindex.TriggerReindex(ctx, s.indexName); err != nil {
		s.log.Error().Err(err).Str("index", s.indexName).Msg("reindex trigger failed")
		return
	}
	metrics.ReindexTriggers.Inc()
}
