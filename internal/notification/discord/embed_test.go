package discord

import (
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/rebalancer/internal/notification"
)

var sentAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func TestTradeEmbed(t *testing.T) {
	tests := []struct {
		name      string
		info      notification.TradeInfo
		title     string
		fields    int
		desc      string
		priceText string
	}{
		{
			name:      "지정가 부분 체결",
			info:      notification.TradeInfo{Symbol: "XBTUSDM", Action: "OPEN_SHORT", Status: "PARTIAL", Contracts: 400, LimitPrice: 50025, OrderID: "ord-1", Reason: "Filled 400/1000"},
			title:     "🌓 OPEN SHORT: XBTUSDM",
			fields:    4,
			desc:      "```Filled 400/1000```",
			priceText: "$50025.0",
		},
		{
			name:      "모의 시장가 체결",
			info:      notification.TradeInfo{Symbol: "XBTUSDM", Action: "CLOSE_SHORT", Status: "FILLED", Contracts: 100, DryRun: true},
			title:     "[모의] ✅ CLOSE SHORT: XBTUSDM",
			fields:    3,
			priceText: "MARKET",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := tradeEmbed(tt.info, sentAt)
			assert.Equal(t, tt.title, e.Title)
			assert.Equal(t, tt.desc, e.Description)
			assert.Equal(t, notification.GetColorForStatus(tt.info.Status), e.Color)
			assert.Equal(t, "2024-05-01T12:00:00Z", e.Timestamp)
			require.NotNil(t, e.Footer)
			assert.Equal(t, footer, e.Footer.Text)
			require.Len(t, e.Fields, tt.fields)
			assert.Equal(t, tt.priceText, e.Fields[2].Value)
		})
	}
}

func TestErrorEmbed_ClipsToDiscordLimit(t *testing.T) {
	e := errorEmbed(errors.New(strings.Repeat("가", 5000)), sentAt)

	assert.Equal(t, ColorError, e.Color)
	assert.Equal(t, maxDescription, utf8.RuneCountInString(e.Description))
	assert.True(t, strings.HasPrefix(e.Description, "```"))
	assert.True(t, strings.HasSuffix(e.Description, "…```"))
}

func TestClip(t *testing.T) {
	assert.Equal(t, "abc", clip("abc", 3))
	assert.Equal(t, "ab…", clip("abcd", 3))
	assert.Equal(t, "주문…", clip("주문 ID", 3))
}

func TestInfoEmbed_Message(t *testing.T) {
	msg := infoEmbed("시작", sentAt).message()

	require.Len(t, msg.Embeds, 1)
	assert.Empty(t, msg.Embeds[0].Title)
	assert.Equal(t, "시작", msg.Embeds[0].Description)
	assert.Equal(t, ColorInfo, msg.Embeds[0].Color)
}
