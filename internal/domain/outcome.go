package domain

import "time"

// OutcomeKind는 단일 주문 시도의 종료 상태를 정의합니다
type OutcomeKind string

const (
	OutcomeFilled          OutcomeKind = "FILLED"
	OutcomePartiallyFilled OutcomeKind = "PARTIAL"
	OutcomeCancelled       OutcomeKind = "CANCELLED"
	OutcomeTimedOut        OutcomeKind = "TIMEOUT"
	OutcomeRejected        OutcomeKind = "REJECTED"
)

// OrderOutcome은 주문 시도 하나의 최종 결과입니다.
// 생성 후 변경하지 않으며 원장 레코드 하나로 기록됩니다.
type OrderOutcome struct {
	Kind            OutcomeKind
	Action          Action
	Request         OrderRequest
	OrderID         string
	FilledContracts int64  // PartiallyFilled일 때 체결된 계약 수
	Reason          string // Rejected/TimedOut/Cancelled 사유
	Time            time.Time
}

// Success는 결과가 정상 체결인지 반환합니다
func (o OrderOutcome) Success() bool {
	return o.Kind == OutcomeFilled
}

// LedgerRecord는 원장에 기록할 행을 생성합니다.
// 실제 체결가는 추적하지 않으므로 FilledPrice는 항상 비어 있습니다.
func (o OrderOutcome) LedgerRecord() LedgerRecord {
	contracts := o.Request.Contracts
	if o.Kind == OutcomePartiallyFilled {
		contracts = o.FilledContracts
	}

	rec := LedgerRecord{
		Time:      o.Time,
		Action:    o.Action,
		Symbol:    o.Request.Symbol,
		Contracts: contracts,
		OrderID:   o.OrderID,
		Status:    LedgerStatus(o.Kind),
		Error:     o.Reason,
	}
	if o.Request.Type == Limit && o.Request.Price > 0 {
		rec.LimitPrice = o.Request.Price
		rec.Slippage = o.Request.Slippage
		rec.HasLimit = true
	}
	return rec
}
