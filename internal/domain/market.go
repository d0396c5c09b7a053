package domain

import "time"

// MarketQuote는 최우선 호가와 최근 체결가를 표현합니다
type MarketQuote struct {
	BestBid   float64
	BestAsk   float64
	LastPrice float64
	Timestamp time.Time
}

// NewMarketQuote는 호가를 생성합니다.
// 매수/매도 호가 중 하나라도 0이면 둘 다 최근 체결가로 대체합니다.
func NewMarketQuote(bid, ask, last float64, ts time.Time) MarketQuote {
	if (bid == 0 || ask == 0) && last > 0 {
		bid, ask = last, last
	}
	return MarketQuote{
		BestBid:   bid,
		BestAsk:   ask,
		LastPrice: last,
		Timestamp: ts,
	}
}

// Valid는 지정가 계산에 사용할 수 있는 호가인지 확인합니다
func (q MarketQuote) Valid() bool {
	return q.BestBid > 0 && q.BestAsk > 0
}

// Reference는 주문 방향에 맞는 기준 가격을 반환합니다.
// 매수(숏 청산)는 매도 호가, 매도(숏 진입)는 매수 호가를 사용합니다.
func (q MarketQuote) Reference(side OrderSide) float64 {
	if side == Buy {
		return q.BestAsk
	}
	return q.BestBid
}
