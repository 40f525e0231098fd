package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

type countingRefresher struct {
	calls int32
	err   error
}

func (r *countingRefresher) Refresh(ctx context.Context) (*domain.AnalysisRun, error) {
	atomic.AddInt32(&r.calls, 1)
	return &domain.AnalysisRun{}, r.err
}

func TestRunScheduler_RefreshesUntilCancelled(t *testing.T) {
	r := &countingRefresher{err: errors.New("source down")}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		RunScheduler(ctx, r, 5*time.Millisecond)
		close(done)
	}()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&r.calls) >= 3 }, time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
}

func TestRunScheduler_DisabledInterval(t *testing.T) {
	r := &countingRefresher{}
	RunScheduler(context.Background(), r, 0)
	assert.Zero(t, atomic.LoadInt32(&r.calls))
}
