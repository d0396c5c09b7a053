package domain

// RebalanceMetrics는 포트폴리오 배분 계산 결과입니다.
// 금액은 모두 호가 통화(USD) 기준이며 비율은 퍼센트입니다.
type RebalanceMetrics struct {
	ExternalHolding float64 // 외부 보관 코인 수량
	FuturesEquity   float64 // 선물 계정 코인 수량
	TotalUnits      float64 // 전체 코인 수량
	Price           float64 // 계산에 사용한 가격

	ExternalQuote       float64 // 외부 보관분 가치
	FuturesQuote        float64 // 선물 계정 가치
	TotalPortfolioQuote float64 // 전체 포트폴리오 가치

	GrossExposure float64 // 총 코인 노출
	ShortExposure float64 // 인버스 숏 노출 (계약 수 = USD)
	NetExposure   float64 // 순 코인 노출

	CurrentAllocation      float64 // 현재 코인 배분 비율
	CurrentQuoteAllocation float64 // 현재 USD 배분 비율
	TargetAllocation       float64 // 목표 코인 배분 비율
	TargetQuoteAllocation  float64 // 목표 USD 배분 비율
	Deviation              float64 // 현재 - 목표 (양수: 코인 과다)

	TargetHoldingQuote float64 // 목표 코인 노출
	TargetShortQuote   float64 // 목표 숏 노출
	RequiredAdjustment float64 // 편차 기준 필요한 조정 금액
	ShortAdjustment    float64 // 목표 숏 - 현재 숏 (부호 포함)
	ContractsToAdjust  int64   // 조정할 계약 수 (0 방향 절사)

	NeedsRebalancing bool    // |편차| > 임계값
	Threshold        float64 // 사용한 임계값

	ShortPositions []Position // 숏 노출에 포함된 포지션
}

// Action은 편차 부호에 따른 리밸런싱 방향을 반환합니다
func (m RebalanceMetrics) Action() Action {
	if !m.NeedsRebalancing {
		return ActionNone
	}
	if m.Deviation > 0 {
		return ActionOpenShort
	}
	return ActionCloseShort
}
