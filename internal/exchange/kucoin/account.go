package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
)

// accountResponse는 /api/v1/account-overview 응답입니다
type accountResponse struct {
	Currency         string          `json:"currency"`
	AccountEquity    decimal.Decimal `json:"accountEquity"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	MarginBalance    decimal.Decimal `json:"marginBalance"`
	PositionMargin   decimal.Decimal `json:"positionMargin"`
	OrderMargin      decimal.Decimal `json:"orderMargin"`
	UnrealisedPNL    decimal.Decimal `json:"unrealisedPNL"`
}

// positionResponse는 /api/v1/positions 응답 항목입니다
type positionResponse struct {
	Symbol        string          `json:"symbol"`
	CurrentQty    decimal.Decimal `json:"currentQty"`
	IsInverse     bool            `json:"isInverse"`
	MarkPrice     decimal.Decimal `json:"markPrice"`
	AvgEntryPrice decimal.Decimal `json:"avgEntryPrice"`
	UnrealisedPnl decimal.Decimal `json:"unrealisedPnl"`
	IsOpen        bool            `json:"isOpen"`
}

// GetAccount는 선물 계정 잔고를 조회합니다
func (c *Client) GetAccount(ctx context.Context) (*domain.AccountOverview, error) {
	data, err := c.tryVariants(ctx, "계정 조회", currencyVariants("/api/v1/account-overview", c.currency))
	if err != nil {
		return nil, err
	}

	var a accountResponse
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("계정 정보 파싱 실패: %w", err)
	}

	return &domain.AccountOverview{
		Currency:         a.Currency,
		AccountEquity:    a.AccountEquity.InexactFloat64(),
		AvailableBalance: a.AvailableBalance.InexactFloat64(),
		MarginBalance:    a.MarginBalance.InexactFloat64(),
		PositionMargin:   a.PositionMargin.InexactFloat64(),
		OrderMargin:      a.OrderMargin.InexactFloat64(),
		UnrealisedPNL:    a.UnrealisedPNL.InexactFloat64(),
	}, nil
}

// GetPositions는 열린 포지션만 조회합니다
func (c *Client) GetPositions(ctx context.Context) ([]domain.Position, error) {
	data, err := c.tryVariants(ctx, "포지션 조회", currencyVariants("/api/v1/positions", c.currency))
	if err != nil {
		return nil, err
	}

	var raw []positionResponse
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("포지션 정보 파싱 실패: %w", err)
	}

	positions := make([]domain.Position, 0, len(raw))
	for _, p := range raw {
		if !p.IsOpen {
			continue
		}
		positions = append(positions, domain.Position{
			Symbol:        p.Symbol,
			Quantity:      p.CurrentQty.InexactFloat64(),
			IsInverse:     p.IsInverse,
			MarkPrice:     p.MarkPrice.InexactFloat64(),
			EntryPrice:    p.AvgEntryPrice.InexactFloat64(),
			UnrealizedPnL: p.UnrealisedPnl.InexactFloat64(),
		})
	}

	return positions, nil
}

// GetPositionMode는 심볼의 포지션 모드를 조회합니다.
// 0, 1 이외의 값은 에러로 처리합니다.
func (c *Client) GetPositionMode(ctx context.Context, symbol string) (domain.PositionMode, error) {
	path := "/api/v2/position/getPositionMode?symbol=" + url.QueryEscape(symbol)
	data, err := c.doRequest(ctx, "포지션 모드 조회", http.MethodGet, path, nil, true)
	if err != nil {
		return "", err
	}

	var result struct {
		PositionMode *decimal.Decimal `json:"positionMode"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("포지션 모드 파싱 실패: %w", err)
	}
	if result.PositionMode == nil {
		return "", fmt.Errorf("포지션 모드 값이 없습니다")
	}
	if !result.PositionMode.IsInteger() {
		return "", fmt.Errorf("알 수 없는 포지션 모드 값: %s", result.PositionMode.String())
	}

	mode, err := domain.PositionModeFromWire(int(result.PositionMode.IntPart()))
	if err != nil {
		return "", err
	}

	c.events.Emit(event.New(event.KindMode, event.Info, "현재 포지션 모드").
		With("symbol", symbol).
		With("mode", string(mode)))
	return mode, nil
}

// SetPositionMode는 심볼의 포지션 모드를 변경합니다
func (c *Client) SetPositionMode(ctx context.Context, symbol string, mode domain.PositionMode) error {
	wire, err := mode.Wire()
	if err != nil {
		return err
	}

	body := struct {
		Symbol       string `json:"symbol"`
		PositionMode int    `json:"positionMode"`
	}{
		Symbol:       symbol,
		PositionMode: wire,
	}

	if _, err := c.doRequest(ctx, "포지션 모드 변경", http.MethodPost, "/api/v2/position/changePositionMode", body, true); err != nil {
		return err
	}

	c.events.Emit(event.New(event.KindMode, event.Info, "포지션 모드 변경 완료").
		With("symbol", symbol).
		With("mode", string(mode)))
	return nil
}
