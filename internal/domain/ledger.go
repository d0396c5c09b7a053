package domain

import (
	"fmt"
	"strconv"
	"time"
)

// LedgerStatus는 원장 레코드의 상태 값입니다
type LedgerStatus string

const (
	LedgerFilled    LedgerStatus = "FILLED"
	LedgerPartial   LedgerStatus = "PARTIAL"
	LedgerCancelled LedgerStatus = "CANCELLED"
	LedgerTimeout   LedgerStatus = "TIMEOUT"
	LedgerRejected  LedgerStatus = "REJECTED"
)

// LedgerHeader는 원장 파일의 컬럼 순서입니다
var LedgerHeader = []string{
	"timestamp", "action", "symbol", "contracts", "limit_price",
	"filled_price", "order_id", "slippage", "status", "error",
}

// LedgerRecord는 종료된 주문 결과 한 건의 원장 행입니다
type LedgerRecord struct {
	Time       time.Time
	Action     Action
	Symbol     string
	Contracts  int64
	LimitPrice float64 // 시장가 주문이면 HasLimit=false
	HasLimit   bool
	OrderID    string
	Slippage   float64
	Status     LedgerStatus
	Error      string
}

// Row는 레코드를 LedgerHeader 순서의 문자열 슬라이스로 변환합니다
func (r LedgerRecord) Row() []string {
	limit, slippage := "", ""
	if r.HasLimit {
		limit = fmt.Sprintf("%.1f", r.LimitPrice)
		slippage = fmt.Sprintf("%+.1f%%", r.Slippage)
	}
	return []string{
		r.Time.Format("2006-01-02 15:04:05"),
		string(r.Action),
		r.Symbol,
		strconv.FormatInt(r.Contracts, 10),
		limit,
		"", // 체결가는 추적하지 않음
		r.OrderID,
		slippage,
		string(r.Status),
		r.Error,
	}
}
