package domain

import "time"

// OrderRequest는 주문 요청 정보를 표현합니다
type OrderRequest struct {
	ClientOID   string      // 시도마다 새로 발급하는 클라이언트 주문 ID
	Symbol      string      // 심볼 (예: XBTUSDM)
	Side        OrderSide   // 매수/매도
	Contracts   int64       // 계약 수 (양의 정수)
	Leverage    int         // 레버리지
	ReduceOnly  bool        // 포지션 감소 전용 여부
	MarginMode  MarginMode  // 마진 모드
	Type        OrderType   // 주문 유형
	TimeInForce TimeInForce // 지정가 주문 유효 기간
	Price       float64     // 지정가 (Limit 주문 시)
	Slippage    float64     // 슬리피지 (%)
}

// Notional은 주문의 명목 가치(USD)를 반환합니다
func (r OrderRequest) Notional() float64 {
	if r.Contracts < 0 {
		return float64(-r.Contracts)
	}
	return float64(r.Contracts)
}

// IsResting은 체결 감시가 필요한 GTC 지정가 주문인지 확인합니다
func (r OrderRequest) IsResting() bool {
	return r.Type == Limit && r.TimeInForce == GTC
}

// OrderAck는 주문 생성 응답을 표현합니다
type OrderAck struct {
	OrderID   string
	ClientOID string
}

// OrderDetails는 주문 상세 정보를 표현합니다
type OrderDetails struct {
	OrderID     string
	ClientOID   string
	Symbol      string
	Status      string  // open, done
	Size        float64 // 주문 수량
	DealSize    float64 // 체결 수량
	Price       float64 // 주문 가격
	IsActive    bool
	CancelExist bool
	CreatedAt   time.Time
}

// Done은 거래소에서 주문이 종료 상태인지 확인합니다
func (d OrderDetails) Done() bool {
	return d.Status == "done"
}
