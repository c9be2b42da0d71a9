package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

type mockReindexRepo struct {
	mu      sync.Mutex
	calls   int
	indexes []string
	err     error
}

func (m *mockReindexRepo) TriggerReindex(ctx context.Context, indexName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.indexes = append(m.indexes, indexName)
	return m.err
}

func (m *mockReindexRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestReindexScheduler_TriggersOnInterval(t *testing.T) {
	repo := &mockReindexRepo{}
	s := NewReindexScheduler(repo, "momento-docs", 10*time.Millisecond, zerolog.Nop())

	s.Start()
	time.Sleep(55 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, repo.count(), 2)
	assert.Equal(t, "momento-docs", repo.indexes[0])
}

func TestReindexScheduler_FailuresDoNotStopLoop(t *testing.T) {
	repo := &mockReindexRepo{err: errors.New("backend down")}
	s := NewReindexScheduler(repo, "momento-docs", 10*time.Millisecond, zerolog.Nop())

	s.Start()
	time.Sleep(35 * time.Millisecond)
	s.Stop()

	assert.GreaterOrEqual(t, repo.count(), 2)
}

func TestReindexScheduler_DisabledWithoutInterval(t *testing.T) {
	repo := &mockReindexRepo{}
	s := NewReindexScheduler(repo, "momento-docs", 0, zerolog.Nop())

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, 0, repo.count())
}

func TestReindexScheduler_DisabledWithoutIndexName(t *testing.T) {
	repo := &mockReindexRepo{}
	s := NewReindexScheduler(repo, "", time.Millisecond, zerolog.Nop())

	s.Start()
	time.Sleep(20 * time.Millisecond)
	s.Stop()

	assert.Equal(t, 0, repo.count())
}

func TestReindexScheduler_StopIsIdempotent(t *testing.T) {
	repo := &mockReindexRepo{}
	s := NewReindexScheduler(repo, "momento-docs", time.Hour, zerolog.Nop())

	s.Start()
	s.Stop()
	s.Stop()
}
