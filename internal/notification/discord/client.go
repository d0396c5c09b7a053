package discord

import (
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client는 Discord 웹훅 클라이언트입니다
type Client struct {
	infoWebhook  string
	errorWebhook string
	tradeWebhook string
	http         *resty.Client
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithErrorWebhook은 에러 알림 전용 웹훅을 설정합니다
func WithErrorWebhook(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.errorWebhook = url
		}
	}
}

// WithTradeWebhook은 주문 결과 전용 웹훅을 설정합니다
func WithTradeWebhook(url string) ClientOption {
	return func(c *Client) {
		if url != "" {
			c.tradeWebhook = url
		}
	}
}

// WithTimeout은 HTTP 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.http.SetTimeout(timeout)
	}
}

// NewClient는 새로운 Discord 클라이언트를 생성합니다.
// 별도 웹훅이 없으면 모든 알림을 기본 웹훅으로 보냅니다.
func NewClient(webhook string, opts ...ClientOption) *Client {
	c := &Client{
		infoWebhook:  webhook,
		errorWebhook: webhook,
		tradeWebhook: webhook,
		http:         resty.New().SetTimeout(10 * time.Second),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// sendToWebhook은 웹훅으로 메시지를 전송합니다
func (c *Client) sendToWebhook(webhookURL string, msg WebhookMessage) error {
	if webhookURL == "" {
		return nil
	}

	resp, err := c.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(webhookURL)
	if err != nil {
		return fmt.Errorf("웹훅 전송 실패: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("웹훅 응답 에러(%d): %s", resp.StatusCode(), resp.String())
	}

	return nil
}
