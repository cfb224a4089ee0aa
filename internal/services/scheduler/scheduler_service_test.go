package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

type stubRetrieval struct {
	mu     sync.Mutex
	ready  bool
	primed int
}

func (s *stubRetrieval) PrimeIndex(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.primed++
	s.ready = true
	return nil
}

func (s *stubRetrieval) Answer(ctx context.Context, question string) (string, error) {
	return "", nil
}

func (s *stubRetrieval) IndexReady(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ready
}

func (s *stubRetrieval) primeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.primed
}

func TestStartStop(t *testing.T) {
	svc := NewService(&stubRetrieval{}, nil, arbor.NewLogger())
	assert.False(t, svc.IsRunning())

	require.NoError(t, svc.Start(""))
	assert.True(t, svc.IsRunning())

	// double start is rejected
	assert.Error(t, svc.Start(""))

	require.NoError(t, svc.Stop())
	assert.False(t, svc.IsRunning())

	// stopping twice is a no-op
	assert.NoError(t, svc.Stop())
}

func TestStartRejectsBadSchedule(t *testing.T) {
	svc := NewService(&stubRetrieval{}, nil, arbor.NewLogger())
	assert.Error(t, svc.Start("not a cron expression"))
}

func TestRefreshSkipsWhenIndexReady(t *testing.T) {
	stub := &stubRetrieval{ready: true}
	svc := NewService(stub, nil, arbor.NewLogger())

	svc.refreshIndex()
	assert.Zero(t, stub.primeCount())
}

func TestRefreshPrimesStaleIndex(t *testing.T) {
	stub := &stubRetrieval{}
	svc := NewService(stub, nil, arbor.NewLogger())

	svc.refreshIndex()
	assert.Equal(t, 1, stub.primeCount())

	// a second tick sees the fresh index and does nothing
	svc.refreshIndex()
	assert.Equal(t, 1, stub.primeCount())
}
