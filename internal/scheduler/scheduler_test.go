package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/rebalancer/internal/event"
)

func TestScheduler_StopsOnTaskError(t *testing.T) {
	fatal := errors.New("예상치 못한 실패")
	calls := 0
	rec := &event.Recorder{}

	s := NewScheduler(time.Millisecond, TaskFunc(func(context.Context) (time.Duration, error) {
		calls++
		if calls == 3 {
			return 0, fatal
		}
		return 0, nil
	}), rec)

	err := s.Start(context.Background())
	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 3, calls)
	assert.True(t, rec.Has(event.KindCycle, event.Error))
}

func TestScheduler_NextOverridesInterval(t *testing.T) {
	var mu sync.Mutex
	var stamps []time.Time

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := NewScheduler(time.Hour, TaskFunc(func(context.Context) (time.Duration, error) {
		mu.Lock()
		defer mu.Unlock()
		stamps = append(stamps, time.Now())
		if len(stamps) == 2 {
			cancel()
		}
		// 설정 주기(1시간) 대신 짧은 대기
		return 10 * time.Millisecond, nil
	}), nil)

	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("스케줄러가 대기 시간 재정의를 따르지 않음")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, stamps, 2)
}

func TestScheduler_Stop(t *testing.T) {
	s := NewScheduler(time.Hour, TaskFunc(func(context.Context) (time.Duration, error) {
		return 0, nil
	}), nil)

	done := make(chan error, 1)
	go func() { done <- s.Start(context.Background()) }()

	s.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Stop 이후에도 스케줄러가 종료되지 않음")
	}
}
