package discord

import (
	"time"

	"github.com/assist-by/rebalancer/internal/notification"
)

// SendError는 에러 알림을 전송합니다
func (c *Client) SendError(err error) error {
	return c.sendToWebhook(c.errorWebhook, errorEmbed(err, time.Now()).message())
}

// SendInfo는 일반 정보 알림을 전송합니다
func (c *Client) SendInfo(message string) error {
	return c.sendToWebhook(c.infoWebhook, infoEmbed(message, time.Now()).message())
}

// SendTradeInfo는 주문 결과 정보를 전송합니다
func (c *Client) SendTradeInfo(info notification.TradeInfo) error {
	return c.sendToWebhook(c.tradeWebhook, tradeEmbed(info, time.Now()).message())
}
