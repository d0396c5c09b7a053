package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/assist-by/rebalancer/internal/event"
)

// Task는 스케줄러가 실행할 작업을 정의하는 인터페이스입니다.
// next가 0보다 크면 기본 주기 대신 그 시간만큼 대기합니다.
// 에러를 반환하면 스케줄러가 중지됩니다.
type Task interface {
	Execute(ctx context.Context) (next time.Duration, err error)
}

// TaskFunc는 함수를 Task로 사용합니다
type TaskFunc func(ctx context.Context) (time.Duration, error)

// Execute는 함수를 호출합니다
func (f TaskFunc) Execute(ctx context.Context) (time.Duration, error) {
	return f(ctx)
}

// Scheduler는 정해진 주기로 작업을 실행하는 스케줄러입니다
type Scheduler struct {
	interval time.Duration
	task     Task
	events   event.Sink
	stopCh   chan struct{}
}

// NewScheduler는 새로운 스케줄러를 생성합니다
func NewScheduler(interval time.Duration, task Task, events event.Sink) *Scheduler {
	return &Scheduler{
		interval: interval,
		task:     task,
		events:   event.OrNop(events),
		stopCh:   make(chan struct{}),
	}
}

// Start는 스케줄러를 시작합니다. 첫 작업은 즉시 실행합니다.
// ctx 종료나 Stop 호출이면 작업 사이에서만 멈추며, 작업 에러는 그대로 반환합니다.
func (s *Scheduler) Start(ctx context.Context) error {
	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case <-s.stopCh:
			return nil

		case <-timer.C:
			// 작업 실행
			next, err := s.task.Execute(ctx)
			if err != nil {
				s.events.Emit(event.New(event.KindCycle, event.Error,
					fmt.Sprintf("작업 실행 실패, 스케줄러 중지: %v", err)))
				return err
			}

			wait := s.interval
			if next > 0 {
				wait = next
			}

			s.events.Emit(event.New(event.KindCycle, event.Debug,
				fmt.Sprintf("다음 실행까지 %v 대기 (다음 실행: %s)",
					wait.Round(time.Second),
					time.Now().Add(wait).Format("15:04:05"))))

			// 타이머 리셋
			timer.Reset(wait)
		}
	}
}

// Stop은 스케줄러를 중지합니다
func (s *Scheduler) Stop() {
	close(s.stopCh)
}
