package notification

import (
	"context"
	"fmt"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
)

const (
	ColorSuccess = 0x00FF00 // 녹색
	ColorError   = 0xFF0000 // 빨간색
	ColorInfo    = 0x0000FF // 파란색
	ColorWarning = 0xFFA500 // 주황색
)

// Notifier는 알림 전송 인터페이스를 정의합니다
type Notifier interface {
	// SendError는 에러 알림을 전송합니다
	SendError(err error) error

	// SendInfo는 일반 정보 알림을 전송합니다
	SendInfo(message string) error

	// SendTradeInfo는 주문 결과 정보를 전송합니다
	SendTradeInfo(info TradeInfo) error
}

// TradeInfo는 주문 결과 정보를 정의합니다
type TradeInfo struct {
	Symbol     string  // 심볼 (예: XBTUSDM)
	Action     string  // OPEN_SHORT, CLOSE_SHORT
	Status     string  // FILLED, PARTIAL, CANCELLED, TIMEOUT, REJECTED
	Contracts  int64   // 계약 수 (부분 체결이면 체결분)
	LimitPrice float64 // 지정가 (시장가면 0)
	OrderID    string  // 주문 ID
	Reason     string  // 실패/부분 체결 사유
	DryRun     bool    // 모의 실행 여부
}

// GetColorForStatus는 주문 결과 상태에 따른 색상을 반환합니다
func GetColorForStatus(status string) int {
	switch domain.LedgerStatus(status) {
	case domain.LedgerFilled:
		return ColorSuccess
	case domain.LedgerPartial, domain.LedgerCancelled:
		return ColorWarning
	case domain.LedgerTimeout, domain.LedgerRejected:
		return ColorError
	default:
		return ColorInfo
	}
}

// OutcomeReporter는 주문 결과를 Notifier로 전달하는 order.Reporter 구현체입니다
type OutcomeReporter struct {
	notifier Notifier
	events   event.Sink
	dryRun   bool
}

// NewOutcomeReporter는 새로운 OutcomeReporter를 생성합니다
func NewOutcomeReporter(n Notifier, events event.Sink, dryRun bool) *OutcomeReporter {
	return &OutcomeReporter{notifier: n, events: event.OrNop(events), dryRun: dryRun}
}

// Report는 결과를 알림으로 전송합니다. 전송 실패는 이벤트로만 남깁니다.
func (r *OutcomeReporter) Report(_ context.Context, o domain.OrderOutcome) {
	rec := o.LedgerRecord()
	info := TradeInfo{
		Symbol:    rec.Symbol,
		Action:    string(rec.Action),
		Status:    string(rec.Status),
		Contracts: rec.Contracts,
		OrderID:   rec.OrderID,
		Reason:    rec.Error,
		DryRun:    r.dryRun,
	}
	if rec.HasLimit {
		info.LimitPrice = rec.LimitPrice
	}

	if err := r.notifier.SendTradeInfo(info); err != nil {
		r.events.Emit(event.New(event.KindTrade, event.Warning,
			fmt.Sprintf("주문 결과 알림 전송 실패: %v", err)))
	}
}
