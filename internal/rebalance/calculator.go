// Package rebalance는 포트폴리오 배분 지표를 계산합니다.
package rebalance

import (
	"math"

	"github.com/assist-by/rebalancer/internal/domain"
)

// Compute는 계정 스냅샷과 가격으로 배분 지표와 리밸런싱 필요 여부를 계산합니다.
// I/O가 없고 같은 입력에 대해 항상 같은 결과를 반환합니다.
//
// 인버스 숏 계약 1개는 1 USD 노출로 계산하며,
// 조정 계약 수는 반올림하지 않고 0 방향으로 절사합니다.
func Compute(snap domain.AccountSnapshot, price, targetPct, thresholdPct float64) domain.RebalanceMetrics {
	m := domain.RebalanceMetrics{
		ExternalHolding:       snap.ExternalHolding,
		FuturesEquity:         snap.FuturesEquity,
		Price:                 price,
		TargetAllocation:      targetPct,
		TargetQuoteAllocation: 100 - targetPct,
		Threshold:             thresholdPct,
	}

	// 1. 전체 코인 수량
	m.TotalUnits = snap.ExternalHolding + snap.FuturesEquity

	// 2. 인버스 숏 노출
	for _, p := range snap.Positions {
		if p.IsInverseShort() {
			m.ShortExposure += math.Abs(p.Quantity)
			m.ShortPositions = append(m.ShortPositions, p)
		}
	}

	// 3~4. 총/순 노출
	m.ExternalQuote = snap.ExternalHolding * price
	m.FuturesQuote = snap.FuturesEquity * price
	m.TotalPortfolioQuote = m.TotalUnits * price
	m.GrossExposure = m.TotalPortfolioQuote
	m.NetExposure = m.GrossExposure - m.ShortExposure

	// 포트폴리오 가치가 없으면 배분 비율은 0이고 리밸런싱하지 않음
	if m.TotalPortfolioQuote <= 0 {
		return m
	}

	// 5~6. 현재 배분과 편차
	m.CurrentAllocation = m.NetExposure / m.TotalPortfolioQuote * 100
	m.CurrentQuoteAllocation = m.ShortExposure / m.TotalPortfolioQuote * 100
	m.Deviation = m.CurrentAllocation - targetPct

	// 7~8. 목표 숏과 조정량
	m.TargetHoldingQuote = m.TotalPortfolioQuote * targetPct / 100
	m.TargetShortQuote = m.TotalPortfolioQuote * (100 - targetPct) / 100
	m.RequiredAdjustment = m.Deviation / 100 * m.TotalPortfolioQuote
	m.ShortAdjustment = m.TargetShortQuote - m.ShortExposure
	m.ContractsToAdjust = int64(math.Trunc(math.Abs(m.ShortAdjustment)))

	// 9. 임계값 초과 여부 (경계값은 포함하지 않음)
	m.NeedsRebalancing = math.Abs(m.Deviation) > thresholdPct

	return m
}
