package order

import (
	"context"

	"github.com/assist-by/rebalancer/internal/domain"
)

// Reporters는 여러 Reporter에 결과를 전달합니다
type Reporters []Reporter

// Report는 모든 Reporter에 결과를 전달합니다
func (rs Reporters) Report(ctx context.Context, o domain.OrderOutcome) {
	for _, r := range rs {
		if r != nil {
			r.Report(ctx, o)
		}
	}
}
