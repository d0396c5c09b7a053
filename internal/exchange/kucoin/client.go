// internal/exchange/kucoin/client.go
package kucoin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/assist-by/rebalancer/internal/event"
	"github.com/assist-by/rebalancer/internal/exchange"
)

const (
	// DefaultBaseURL은 KuCoin 선물 API 기본 주소입니다
	DefaultBaseURL = "https://api-futures.kucoin.com"

	successCode     = "200000"
	defaultTimeout  = 10 * time.Second
	timeSyncTimeout = 5 * time.Second
	maxClockDrift   = 5000 * time.Millisecond
)

var _ exchange.Exchange = (*Client)(nil)

// Credentials는 API 인증 정보입니다
type Credentials struct {
	APIKey     string
	APISecret  string
	Passphrase string
}

// Client는 KuCoin 선물 API 클라이언트를 구현합니다
type Client struct {
	signer   *signer
	baseURL  string
	currency string
	timeout  time.Duration
	http     *resty.Client
	events   event.Sink
	now      func() time.Time
}

// ClientOption은 클라이언트 생성 옵션을 정의합니다
type ClientOption func(*Client)

// WithTimeout은 요청 타임아웃을 설정합니다
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithBaseURL은 기본 URL을 설정합니다
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithCurrency는 이전 형식 엔드포인트에 사용할 마진 통화를 설정합니다
func WithCurrency(currency string) ClientOption {
	return func(c *Client) {
		c.currency = currency
	}
}

// WithEvents는 이벤트 Sink를 설정합니다
func WithEvents(sink event.Sink) ClientOption {
	return func(c *Client) {
		c.events = event.OrNop(sink)
	}
}

// WithClock은 서명 타임스탬프와 시간 동기화 확인에 사용할 시계를 설정합니다
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient는 새로운 KuCoin 선물 클라이언트를 생성합니다.
// 생성 시 서버 시간과 로컬 시간을 비교하며, 차이가 커도 경고만 남깁니다.
func NewClient(ctx context.Context, creds Credentials, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		currency: "XBT",
		timeout:  defaultTimeout,
		events:   event.Nop{},
		now:      time.Now,
	}

	// 옵션 적용
	for _, opt := range opts {
		opt(c)
	}

	c.signer = newSigner(creds.APIKey, creds.APISecret, creds.Passphrase)
	c.http = resty.New().SetTimeout(c.timeout)

	c.checkTimeSync(ctx)

	return c
}

// checkTimeSync는 서버 시간과의 차이를 확인합니다
func (c *Client) checkTimeSync(ctx context.Context) {
	serverTime, err := c.GetServerTime(ctx)
	if err != nil {
		c.events.Emit(event.New(event.KindTimeSync, event.Warning,
			fmt.Sprintf("시간 동기화 확인 실패: %v", err)))
		return
	}

	drift := c.now().Sub(serverTime)
	if drift < 0 {
		drift = -drift
	}

	if drift > maxClockDrift {
		c.events.Emit(event.New(event.KindTimeSync, event.Warning,
			fmt.Sprintf("시스템 시간이 %.1f초 어긋남 - 인증 오류 가능", drift.Seconds())).
			With("drift_ms", drift.Milliseconds()))
		return
	}

	c.events.Emit(event.New(event.KindTimeSync, event.Info, "시간 동기화 확인").
		With("drift_ms", drift.Milliseconds()))
}

// envelope는 KuCoin 응답 공통 형식입니다
type envelope struct {
	Code json.RawMessage `json:"code"`
	Data json.RawMessage `json:"data"`
	Msg  string          `json:"msg"`
}

// code는 문자열/숫자 어느 쪽으로 와도 코드 문자열을 반환합니다
func (e envelope) code() string {
	return strings.Trim(string(bytes.TrimSpace(e.Code)), `"`)
}

// doRequest는 HTTP 요청을 실행하고 data 필드를 반환합니다.
// path는 쿼리 문자열을 포함하며 서명에도 그대로 사용됩니다.
func (c *Client) doRequest(ctx context.Context, op, method, path string, body interface{}, needSign bool) (json.RawMessage, error) {
	var bodyStr string
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s 요청 본문 생성 실패: %w", op, err)
		}
		bodyStr = string(raw)
	}

	req := c.http.R().SetContext(ctx)
	if needSign {
		req.SetHeaderMultiValues(c.signer.headers(c.now(), method, path, bodyStr))
	} else {
		req.SetHeader("Content-Type", "application/json")
	}
	if bodyStr != "" {
		req.SetBody(bodyStr)
	}

	resp, err := req.Execute(method, c.baseURL+path)
	if err != nil {
		return nil, &exchange.TransportError{Op: op, Err: err}
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.StatusCode() != http.StatusOK {
		msg := env.Msg
		if decodeErr != nil || msg == "" {
			msg = fmt.Sprintf("HTTP %d: %s", resp.StatusCode(), strings.TrimSpace(string(resp.Body())))
		}
		return nil, &exchange.APIError{
			Op:         op,
			HTTPStatus: resp.StatusCode(),
			Code:       env.code(),
			Message:    msg,
		}
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("%s 응답 파싱 실패: %w", op, decodeErr)
	}

	if env.code() != successCode {
		msg := env.Msg
		if msg == "" {
			msg = "Unknown error"
		}
		return nil, &exchange.APIError{
			Op:         op,
			HTTPStatus: resp.StatusCode(),
			Code:       env.code(),
			Message:    msg,
		}
	}

	return env.Data, nil
}
