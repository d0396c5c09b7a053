package order

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
)

// LimitPrice는 기준 호가와 슬리피지로 지정가를 계산합니다.
// 매수는 매도 호가 × (1 + s/100), 매도는 매수 호가 × (1 - s/100)이며
// 양수 슬리피지는 항상 즉시 체결 방향입니다.
func LimitPrice(q domain.MarketQuote, side domain.OrderSide, slippagePct, tick float64) float64 {
	ref := q.Reference(side)
	var price float64
	if side == domain.Buy {
		price = ref * (1 + slippagePct/100)
	} else {
		price = ref * (1 - slippagePct/100)
	}
	return RoundToTick(price, tick)
}

// RoundToTick은 가격을 호가 단위에 맞춰 반올림합니다
func RoundToTick(price, tick float64) float64 {
	if tick <= 0 {
		return price
	}
	t := decimal.NewFromFloat(tick)
	return decimal.NewFromFloat(price).Div(t).Round(0).Mul(t).InexactFloat64()
}

// pricing은 주문 유형과 TIF를 결정하고 지정가 주문이면 가격을 계산합니다.
// 호가를 가져오지 못하면 시장가 주문으로 전환합니다.
func (c *Controller) pricing(ctx context.Context, req *domain.OrderRequest) {
	req.Type = c.cfg.OrderType
	req.TimeInForce = c.cfg.TimeInForce
	req.Slippage = c.cfg.Slippage

	if req.Type != domain.Limit {
		return
	}

	// 유리한 가격에 대기하는 주문은 즉시 취소 정책을 쓸 수 없음
	if req.Slippage < 0 && req.TimeInForce != domain.GTC {
		req.TimeInForce = domain.GTC
		c.events.Emit(event.New(event.KindPricing, event.Info,
			fmt.Sprintf("음수 슬리피지(%+.3f%%)로 GTC 사용", req.Slippage)))
	}

	quote, err := c.exchange.GetBestBidAsk(ctx, req.Symbol)
	if err != nil || !quote.Valid() {
		reason := "유효하지 않은 호가"
		if err != nil {
			reason = err.Error()
		}
		c.events.Emit(event.New(event.KindPricing, event.Warning,
			"지정가 계산 실패, 시장가 주문으로 전환").
			With("reason", reason))
		req.Type = domain.Market
		req.Price = 0
		return
	}

	req.Price = LimitPrice(quote, req.Side, req.Slippage, c.cfg.PriceTick)

	c.events.Emit(event.New(event.KindPricing, event.Info, "지정가 계산").
		With("side", string(req.Side)).
		With("best_bid", quote.BestBid).
		With("best_ask", quote.BestAsk).
		With("reference", quote.Reference(req.Side)).
		With("slippage", req.Slippage).
		With("limit_price", req.Price))
}
