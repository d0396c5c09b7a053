package discord

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/assist-by/rebalancer/internal/notification"
)

// WebhookMessage는 Discord 웹훅 메시지를 정의합니다
type WebhookMessage struct {
	Content string  `json:"content,omitempty"`
	Embeds  []Embed `json:"embeds,omitempty"`
}

// Embed는 Discord 메시지 임베드를 정의합니다
type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []EmbedField `json:"fields,omitempty"`
	Footer      *EmbedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

// EmbedField는 임베드 필드를 정의합니다
type EmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// EmbedFooter는 임베드 푸터를 정의합니다
type EmbedFooter struct {
	Text string `json:"text"`
}

// 임베드 색상 상수
const (
	ColorError = 0xFF0000 // 빨간색
	ColorInfo  = 0x0099FF // 파란색
)

// Discord 임베드 길이 제한 (문자 수)
const (
	maxTitle       = 256
	maxDescription = 4096
	maxFieldValue  = 1024
)

const footer = "Assist by Rebalancer 🤖"

// newEmbed는 공통 푸터와 시각을 가진 임베드를 만듭니다
func newEmbed(title string, color int, at time.Time) *Embed {
	return &Embed{
		Title:     clip(title, maxTitle),
		Color:     color,
		Footer:    &EmbedFooter{Text: footer},
		Timestamp: at.Format(time.RFC3339),
	}
}

// describe는 설명을 설정합니다. code가 true이면 코드 블록으로 감쌉니다.
func (e *Embed) describe(text string, code bool) *Embed {
	if code {
		e.Description = "```" + clip(text, maxDescription-6) + "```"
		return e
	}
	e.Description = clip(text, maxDescription)
	return e
}

func (e *Embed) field(name, value string, inline bool) *Embed {
	e.Fields = append(e.Fields, EmbedField{Name: name, Value: clip(value, maxFieldValue), Inline: inline})
	return e
}

func (e *Embed) message() WebhookMessage {
	return WebhookMessage{Embeds: []Embed{*e}}
}

// errorEmbed는 에러 알림 임베드를 만듭니다
func errorEmbed(err error, at time.Time) *Embed {
	return newEmbed("에러 발생", ColorError, at).describe(fmt.Sprintf("%v", err), true)
}

// infoEmbed는 제목 없는 정보 알림 임베드를 만듭니다
func infoEmbed(msg string, at time.Time) *Embed {
	return newEmbed("", ColorInfo, at).describe(msg, false)
}

// tradeEmbed는 주문 결과 한 건을 임베드로 만듭니다.
// 필드 순서는 상태, 계약 수, 가격, 주문 ID입니다.
func tradeEmbed(info notification.TradeInfo, at time.Time) *Embed {
	title := fmt.Sprintf("%s %s: %s", tradeEmoji(info.Status), strings.ReplaceAll(info.Action, "_", " "), info.Symbol)
	if info.DryRun {
		title = "[모의] " + title
	}

	price := "MARKET"
	if info.LimitPrice > 0 {
		price = fmt.Sprintf("$%.1f", info.LimitPrice)
	}

	e := newEmbed(title, notification.GetColorForStatus(info.Status), at).
		field("상태", info.Status, true).
		field("계약 수", fmt.Sprintf("%d", info.Contracts), true).
		field("가격", price, true)

	if info.OrderID != "" {
		e.field("주문 ID", info.OrderID, false)
	}
	if info.Reason != "" {
		e.describe(info.Reason, true)
	}
	return e
}

// tradeEmoji는 주문 결과 상태에 따른 이모지를 반환합니다
func tradeEmoji(status string) string {
	switch status {
	case "FILLED":
		return "✅"
	case "PARTIAL":
		return "🌓"
	case "CANCELLED":
		return "🚫"
	default:
		return "⚠️"
	}
}

// clip은 문자열을 limit 문자 이내로 자르고 잘린 경우 말줄임표를 붙입니다
func clip(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit-1]) + "…"
}
