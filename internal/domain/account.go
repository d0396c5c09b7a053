package domain

// AccountOverview는 코인 마진 선물 계정의 잔고 정보를 표현합니다
type AccountOverview struct {
	Currency         string  // 마진 통화 (예: XBT)
	AccountEquity    float64 // 계정 순자산 (코인 단위)
	AvailableBalance float64 // 사용 가능한 잔고
	MarginBalance    float64 // 마진 잔고
	PositionMargin   float64 // 포지션 마진
	OrderMargin      float64 // 주문 마진
	UnrealisedPNL    float64 // 미실현 손익
}

// Position은 포지션 정보를 표현합니다
type Position struct {
	Symbol        string  // 심볼 (예: XBTUSDM)
	Quantity      float64 // 계약 수 (양수: 롱, 음수: 숏)
	IsInverse     bool    // 인버스(코인 마진) 계약 여부
	MarkPrice     float64 // 마크 가격
	EntryPrice    float64 // 평균 진입가
	UnrealizedPnL float64 // 미실현 손익 (코인 단위)
}

// IsInverseShort는 고정 명목가치 숏 포지션인지 확인합니다
func (p Position) IsInverseShort() bool {
	return p.IsInverse && p.Quantity < 0
}

// AccountSnapshot은 한 사이클 동안 사용하는 계정 상태입니다.
// 인버스 계약 1개는 1 USD로 간주합니다.
type AccountSnapshot struct {
	ExternalHolding float64    // 외부 보관 코인 수량 (고정값)
	FuturesEquity   float64    // 선물 계정 순자산 (코인 단위)
	Positions       []Position // 열린 포지션
}
