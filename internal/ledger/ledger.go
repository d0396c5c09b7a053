// Package ledger는 종료된 주문 결과를 원장에 기록합니다.
package ledger

import (
	"context"
	"fmt"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
)

// Sink는 원장 레코드를 저장하는 대상입니다
type Sink interface {
	Record(ctx context.Context, rec domain.LedgerRecord) error
}

// Book은 주문 결과를 원장 레코드로 변환해 모든 Sink에 기록합니다.
// 결과 하나당 Sink마다 정확히 한 행을 남기며, 기록 실패는 이벤트로만 알립니다.
type Book struct {
	sinks  []Sink
	events event.Sink
}

// NewBook은 새로운 원장을 생성합니다
func NewBook(events event.Sink, sinks ...Sink) *Book {
	return &Book{
		sinks:  sinks,
		events: event.OrNop(events),
	}
}

// Report는 order.Reporter를 구현합니다
func (b *Book) Report(ctx context.Context, o domain.OrderOutcome) {
	rec := o.LedgerRecord()

	for _, s := range b.sinks {
		if err := s.Record(ctx, rec); err != nil {
			b.events.Emit(event.New(event.KindLedger, event.Error,
				fmt.Sprintf("원장 기록 실패: %v", err)).
				With("order_id", rec.OrderID).
				With("status", string(rec.Status)))
		}
	}

	b.events.Emit(event.New(event.KindLedger, event.Debug, "원장 기록").
		With("action", string(rec.Action)).
		With("contracts", rec.Contracts).
		With("status", string(rec.Status)))
}
