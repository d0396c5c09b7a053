package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
)

// tickerResponse는 /api/v1/ticker 응답입니다
type tickerResponse struct {
	Symbol       string          `json:"symbol"`
	Price        decimal.Decimal `json:"price"`
	BestBidPrice decimal.Decimal `json:"bestBidPrice"`
	BestAskPrice decimal.Decimal `json:"bestAskPrice"`
	Ts           int64           `json:"ts"` // 나노초
}

// GetServerTime은 인증 없이 서버 시간을 조회합니다
func (c *Client) GetServerTime(ctx context.Context) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, timeSyncTimeout)
	defer cancel()

	data, err := c.doRequest(ctx, "서버 시간 조회", http.MethodGet, "/api/v1/timestamp", nil, false)
	if err != nil {
		return time.Time{}, err
	}

	var ms decimal.Decimal
	if err := json.Unmarshal(data, &ms); err != nil {
		return time.Time{}, fmt.Errorf("서버 시간 파싱 실패: %w", err)
	}

	return time.UnixMilli(ms.IntPart()), nil
}

func (c *Client) ticker(ctx context.Context, op, symbol string) (*tickerResponse, error) {
	path := "/api/v1/ticker?symbol=" + url.QueryEscape(symbol)
	data, err := c.doRequest(ctx, op, http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}

	var t tickerResponse
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("%s 파싱 실패: %w", op, err)
	}
	return &t, nil
}

// GetTicker는 최근 체결가를 조회합니다
func (c *Client) GetTicker(ctx context.Context, symbol string) (float64, error) {
	t, err := c.ticker(ctx, "시세 조회", symbol)
	if err != nil {
		return 0, err
	}
	return t.Price.InexactFloat64(), nil
}

// GetBestBidAsk는 최우선 호가를 조회합니다.
// 호가가 비어 있으면 최근 체결가로 대체합니다.
func (c *Client) GetBestBidAsk(ctx context.Context, symbol string) (domain.MarketQuote, error) {
	t, err := c.ticker(ctx, "호가 조회", symbol)
	if err != nil {
		return domain.MarketQuote{}, err
	}

	bid := t.BestBidPrice.InexactFloat64()
	ask := t.BestAskPrice.InexactFloat64()
	last := t.Price.InexactFloat64()

	if (bid == 0 || ask == 0) && last > 0 {
		c.events.Emit(event.New(event.KindPricing, event.Warning,
			"최우선 호가 없음, 최근 체결가로 대체").
			With("symbol", symbol).
			With("last_price", last))
	}

	var ts time.Time
	if t.Ts > 0 {
		ts = time.Unix(0, t.Ts)
	}

	return domain.NewMarketQuote(bid, ask, last, ts), nil
}
