package server

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// blockingService starts, then blocks until stopped, recording both events.
type blockingService struct {
	name    string
	started chan struct{}
	done    chan struct{}

	mu      sync.Mutex
	stopLog *[]string
}

func newBlockingService(name string, stopLog *[]string) *blockingService {
	return &blockingService{
		name:    name,
		started: make(chan struct{}),
		done:    make(chan struct{}),
		stopLog: stopLog,
	}
}

func (s *blockingService) Start() error {
	close(s.started)
	<-s.done
	return nil
}

func (s *blockingService) Stop() {
	s.mu.Lock()
	*s.stopLog = append(*s.stopLog, s.name)
	s.mu.Unlock()
	close(s.done)
}

func TestLifecycle_StopsInReverseOrder(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	var stopLog []string
	first := newBlockingService("first", &stopLog)
	second := newBlockingService("second", &stopLog)
	lc.Add("first", first)
	lc.Add("second", second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- lc.Run(ctx)
	}()

	for _, svc := range []*blockingService{first, second} {
		select {
		case <-svc.started:
		case <-time.After(2 * time.Second):
			t.Fatalf("service %s did not start in time", svc.name)
		}
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}

	assert.Equal(t, []string{"second", "first"}, stopLog)
}

func TestLifecycle_ReturnsFailingServiceError(t *testing.T) {
	lc := NewLifecycle(zaptest.NewLogger(t))

	boom := errors.New("listener exploded")
	lc.Add("flaky", &FuncService{
		StartFn: func() error { return boom },
		StopFn:  func() {},
	})

	var stopLog []string
	steady := newBlockingService("steady", &stopLog)
	lc.Add("steady", steady)

	done := make(chan error, 1)
	go func() {
		done <- lc.Run(context.Background())
	}()

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, boom)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down after service failure")
	}
	assert.Equal(t, []string{"steady"}, stopLog)
}

func TestFuncService(t *testing.T) {
	var started, stopped bool
	svc := &FuncService{
		StartFn: func() error {
			started = true
			return nil
		},
		StopFn: func() { stopped = true },
	}

	require.NoError(t, svc.Start())
	assert.True(t, started)
	svc.Stop()
	assert.True(t, stopped)
}
