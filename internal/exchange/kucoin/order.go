package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/assist-by/rebalancer/internal/domain"
)

// orderBody는 /api/v1/orders 요청 본문입니다
type orderBody struct {
	ClientOid   string `json:"clientOid"`
	Side        string `json:"side"`
	Symbol      string `json:"symbol"`
	Type        string `json:"type"`
	Leverage    string `json:"leverage"`
	Size        int64  `json:"size"`
	ReduceOnly  bool   `json:"reduceOnly"`
	MarginMode  string `json:"marginMode"`
	Price       string `json:"price,omitempty"`
	TimeInForce string `json:"timeInForce,omitempty"`
}

// orderDetailsResponse는 /api/v1/orders/{id} 응답입니다
type orderDetailsResponse struct {
	ID          string          `json:"id"`
	ClientOid   string          `json:"clientOid"`
	Symbol      string          `json:"symbol"`
	Status      string          `json:"status"`
	Size        decimal.Decimal `json:"size"`
	DealSize    decimal.Decimal `json:"dealSize"`
	Price       decimal.Decimal `json:"price"`
	IsActive    bool            `json:"isActive"`
	CancelExist bool            `json:"cancelExist"`
	CreatedAt   int64           `json:"createdAt"`
}

func newOrderBody(r domain.OrderRequest) orderBody {
	size := r.Contracts
	if size < 0 {
		size = -size
	}

	body := orderBody{
		ClientOid:  r.ClientOID,
		Side:       string(r.Side),
		Symbol:     r.Symbol,
		Type:       string(r.Type),
		Leverage:   strconv.Itoa(r.Leverage),
		Size:       size,
		ReduceOnly: r.ReduceOnly,
		MarginMode: string(r.MarginMode),
	}

	if r.Type == domain.Limit && r.Price > 0 {
		body.Price = decimal.NewFromFloat(r.Price).String()
		body.TimeInForce = string(r.TimeInForce)
	}

	return body
}

// PlaceOrder는 주문을 생성합니다
func (c *Client) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderAck, error) {
	data, err := c.doRequest(ctx, "주문 생성", http.MethodPost, "/api/v1/orders", newOrderBody(order), true)
	if err != nil {
		return nil, err
	}

	var result struct {
		OrderID string `json:"orderId"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("주문 응답 파싱 실패: %w", err)
	}

	return &domain.OrderAck{
		OrderID:   result.OrderID,
		ClientOID: order.ClientOID,
	}, nil
}

// CancelOrder는 주문을 취소합니다
func (c *Client) CancelOrder(ctx context.Context, orderID string) error {
	path := "/api/v1/orders/" + url.PathEscape(orderID)
	_, err := c.doRequest(ctx, "주문 취소", http.MethodDelete, path, nil, true)
	return err
}

// GetOrderDetails는 주문 상세 정보를 조회합니다
func (c *Client) GetOrderDetails(ctx context.Context, orderID string) (*domain.OrderDetails, error) {
	path := "/api/v1/orders/" + url.PathEscape(orderID)
	data, err := c.doRequest(ctx, "주문 조회", http.MethodGet, path, nil, true)
	if err != nil {
		return nil, err
	}

	var d orderDetailsResponse
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("주문 정보 파싱 실패: %w", err)
	}

	details := &domain.OrderDetails{
		OrderID:     d.ID,
		ClientOID:   d.ClientOid,
		Symbol:      d.Symbol,
		Status:      d.Status,
		Size:        d.Size.InexactFloat64(),
		DealSize:    d.DealSize.InexactFloat64(),
		Price:       d.Price.InexactFloat64(),
		IsActive:    d.IsActive,
		CancelExist: d.CancelExist,
	}
	if d.CreatedAt > 0 {
		details.CreatedAt = time.UnixMilli(d.CreatedAt)
	}
	if details.OrderID == "" {
		details.OrderID = orderID
	}

	return details, nil
}
