// Package order는 리밸런싱 결정을 안전 점검을 거친 주문으로 실행합니다.
package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
	"github.com/assist-by/rebalancer/internal/exchange"
)

const (
	defaultPollInterval = 5 * time.Second
	dryRunPrefix        = "DRY_RUN_"
)

// Config는 주문 실행 설정입니다
type Config struct {
	Symbol              string
	Leverage            int
	MarginMode          domain.MarginMode
	PositionMode        domain.PositionMode
	AutoSetPositionMode bool
	OrderType           domain.OrderType
	TimeInForce         domain.TimeInForce
	Slippage            float64 // 슬리피지 (%)
	PriceTick           float64 // 지정가 호가 단위
	MaxOrderNotional    float64 // 최대 주문 금액 (USD)
	MinOrderNotional    float64 // 최소 주문 금액 (USD)
	GTCTimeout          time.Duration
	MaxResubmits        int // 부분 체결 후 재주문 최대 횟수 (0: 무제한)
	DryRun              bool
	DryRunVerifyMode    bool // 모의 실행에서도 포지션 모드를 조회만 해서 확인
}

// Reporter는 종료된 주문 결과를 받습니다
type Reporter interface {
	Report(ctx context.Context, outcome domain.OrderOutcome)
}

// Result는 리밸런싱 실행 결과입니다. 실패도 에러 대신 값으로 전달합니다.
type Result struct {
	Success   bool
	Action    domain.Action
	OrderID   string
	Err       error
	Contracts int64 // 요청한 계약 수
	Filled    int64 // 체결된 계약 수 (부분 체결 합산)
	Attempts  int
	DryRun    bool
	Outcomes  []domain.OrderOutcome
}

// Controller는 주문 생명주기를 관리합니다
type Controller struct {
	exchange     exchange.Exchange
	reporter     Reporter
	events       event.Sink
	cfg          Config
	now          func() time.Time
	sleep        func(time.Duration)
	pollInterval time.Duration
	newID        func() string
}

// Option은 Controller 생성 옵션을 정의합니다
type Option func(*Controller)

// WithClock은 현재 시간과 대기 함수를 설정합니다
func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(c *Controller) {
		c.now = now
		c.sleep = sleep
	}
}

// WithPollInterval은 GTC 주문 상태 확인 주기를 설정합니다
func WithPollInterval(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithIDGenerator는 클라이언트 주문 ID 생성기를 설정합니다
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		c.newID = gen
	}
}

// NewController는 새로운 주문 컨트롤러를 생성합니다
func NewController(ex exchange.Exchange, reporter Reporter, events event.Sink, cfg Config, opts ...Option) *Controller {
	c := &Controller{
		exchange:     ex,
		reporter:     reporter,
		events:       event.OrNop(events),
		cfg:          cfg,
		now:          time.Now,
		sleep:        time.Sleep,
		pollInterval: defaultPollInterval,
		newID:        uuid.NewString,
	}

	for _, opt := range opts {
		opt(c)
	}

	if cfg.DryRun {
		c.events.Emit(event.New(event.KindStartup, event.Info, "모의 실행 모드 - 실제 주문을 넣지 않습니다"))
	}

	return c
}

// ExecuteRebalance는 지표에 따라 숏 포지션을 늘리거나 줄입니다.
// 리밸런싱이 필요 없으면 아무 작업 없이 성공을 반환합니다.
func (c *Controller) ExecuteRebalance(ctx context.Context, m domain.RebalanceMetrics) Result {
	action := m.Action()
	if action == domain.ActionNone {
		return Result{Success: true, Action: domain.ActionNone, DryRun: c.cfg.DryRun}
	}

	c.events.Emit(event.New(event.KindTrade, event.Info, "리밸런싱 필요").
		With("deviation", fmt.Sprintf("%+.2f%%", m.Deviation)).
		With("contracts", m.ContractsToAdjust).
		With("usd_value", abs(m.ShortAdjustment)).
		With("action", string(action)))

	if action == domain.ActionOpenShort {
		return c.OpenShort(ctx, m.ContractsToAdjust)
	}
	return c.CloseShort(ctx, m.ContractsToAdjust)
}

// OpenShort는 설정된 레버리지로 숏 포지션을 늘립니다
func (c *Controller) OpenShort(ctx context.Context, contracts int64) Result {
	return c.execute(ctx, domain.ActionOpenShort, contracts, c.cfg.Leverage)
}

// CloseShort는 감소 전용 매수로 숏 포지션을 줄입니다
func (c *Controller) CloseShort(ctx context.Context, contracts int64) Result {
	return c.execute(ctx, domain.ActionCloseShort, contracts, 1)
}

// attempt는 단일 주문 시도의 결과입니다
type attempt struct {
	outcome   domain.OrderOutcome
	remainder int64 // 부분 체결 후 남은 계약 수
	err       error
}

// execute는 부분 체결 시 남은 수량으로 재주문하며, 재주문 횟수는 MaxResubmits로 제한합니다
func (c *Controller) execute(ctx context.Context, action domain.Action, contracts int64, leverage int) Result {
	res := Result{
		Action:    action,
		Contracts: contracts,
		DryRun:    c.cfg.DryRun,
	}

	remaining := contracts
	resubmits := 0

	for {
		a := c.attempt(ctx, action, remaining, leverage)
		c.report(ctx, a.outcome)

		res.Attempts++
		res.Outcomes = append(res.Outcomes, a.outcome)
		if a.outcome.OrderID != "" {
			res.OrderID = a.outcome.OrderID
		}

		switch a.outcome.Kind {
		case domain.OutcomeFilled:
			res.Filled += a.outcome.Request.Contracts
			res.Success = true
			return res

		case domain.OutcomePartiallyFilled:
			res.Filled += a.outcome.FilledContracts
			if a.err != nil {
				res.Err = a.err
				return res
			}
			if c.cfg.MaxResubmits > 0 && resubmits >= c.cfg.MaxResubmits {
				res.Err = NewOrderError(c.cfg.Symbol, "resubmit", ErrResubmitLimit)
				c.events.Emit(event.New(event.KindGTC, event.Warning, "재주문 한도 도달, 남은 수량은 다음 사이클에서 처리").
					With("remaining", a.remainder).
					With("resubmits", resubmits))
				return res
			}
			resubmits++
			remaining = a.remainder
			c.events.Emit(event.New(event.KindGTC, event.Info,
				fmt.Sprintf("남은 %d 계약 새 가격으로 재주문", remaining)).
				With("resubmit", resubmits))

		default:
			res.Err = a.err
			return res
		}
	}
}

// attempt는 안전 점검, 모드 확인, 가격 결정, 제출, 감시를 순서대로 진행합니다
func (c *Controller) attempt(ctx context.Context, action domain.Action, contracts int64, leverage int) attempt {
	req := domain.OrderRequest{
		Symbol:     c.cfg.Symbol,
		Side:       action.Side(),
		Contracts:  contracts,
		Leverage:   leverage,
		ReduceOnly: action.ReduceOnly(),
		MarginMode: c.cfg.MarginMode,
		Type:       c.cfg.OrderType,
	}

	// 1. 안전 점검 (네트워크 호출 전)
	if err := c.checkSafety(req); err != nil {
		return c.reject(action, req, err, CodeOf(err))
	}

	// 2. 포지션 모드 확인
	if !c.cfg.DryRun || c.cfg.DryRunVerifyMode {
		if err := c.verifyPositionMode(ctx); err != nil {
			return c.reject(action, req, err, CodeModeMismatch)
		}
	}

	// 3. 가격 결정
	c.pricing(ctx, &req)

	// 4. 제출 (시도마다 새 ID)
	req.ClientOID = c.newID()

	if c.cfg.DryRun {
		orderID := dryRunPrefix + truncate(req.ClientOID, 8)
		c.events.Emit(tradeEvent("[모의] "+describe(action, req), req).With("order_id", orderID))
		return attempt{outcome: c.outcome(domain.OutcomeFilled, action, req, orderID, "")}
	}

	ack, err := c.exchange.PlaceOrder(ctx, req)
	if err != nil {
		c.events.Emit(event.New(event.KindTrade, event.Error, "주문 생성 실패").
			With("error", err.Error()).
			With("client_oid", req.ClientOID))
		if req.Type == domain.Limit && req.TimeInForce != domain.GTC {
			c.events.Emit(event.New(event.KindTrade, event.Warning,
				fmt.Sprintf("[%s] 주문 미체결 - 다음 사이클에서 재시도", req.TimeInForce)))
		}
		a := c.reject(action, req, NewOrderError(req.Symbol, "place_order", errors.Join(ErrOrderPlacement, err)), "")
		a.outcome.Reason = err.Error()
		return a
	}

	c.events.Emit(tradeEvent(describe(action, req), req).With("order_id", ack.OrderID))

	// 5. GTC 지정가 주문은 체결 감시
	if req.IsResting() {
		return c.monitor(ctx, action, req, ack.OrderID)
	}

	return attempt{outcome: c.outcome(domain.OutcomeFilled, action, req, ack.OrderID, "")}
}

// checkSafety는 주문 금액 한도를 확인합니다
func (c *Controller) checkSafety(req domain.OrderRequest) error {
	notional := req.Notional()

	if notional > c.cfg.MaxOrderNotional {
		c.events.Emit(event.New(event.KindSafety, event.Error,
			fmt.Sprintf("주문 금액 $%.0f가 최대 $%.0f 초과", notional, c.cfg.MaxOrderNotional)))
		return NewOrderError(req.Symbol, "safety_check", ErrExceedsMax)
	}

	if notional < c.cfg.MinOrderNotional || notional <= 0 {
		c.events.Emit(event.New(event.KindSafety, event.Warning,
			fmt.Sprintf("주문 금액 $%.0f가 최소 $%.0f 미만", notional, c.cfg.MinOrderNotional)))
		return NewOrderError(req.Symbol, "safety_check", ErrBelowMin)
	}

	return nil
}

// verifyPositionMode는 현재 포지션 모드가 설정과 같은지 확인합니다.
// 다르고 자동 설정이 켜져 있으면 변경을 시도합니다. 모의 실행에서는 변경하지 않습니다.
func (c *Controller) verifyPositionMode(ctx context.Context) error {
	symbol := c.cfg.Symbol

	current, err := c.exchange.GetPositionMode(ctx, symbol)
	if err != nil {
		c.events.Emit(event.New(event.KindMode, event.Warning, "현재 포지션 모드 조회 실패").
			With("error", err.Error()))
		return NewOrderError(symbol, "verify_position_mode", fmt.Errorf("%w: %v", ErrModeMismatch, err))
	}

	if current == c.cfg.PositionMode {
		c.events.Emit(event.New(event.KindMode, event.Debug, "포지션 모드 확인").
			With("mode", string(current)))
		return nil
	}

	c.events.Emit(event.New(event.KindMode, event.Warning, "포지션 모드 불일치").
		With("current", string(current)).
		With("expected", string(c.cfg.PositionMode)))

	if !c.cfg.AutoSetPositionMode || c.cfg.DryRun {
		c.events.Emit(event.New(event.KindMode, event.Warning,
			fmt.Sprintf("포지션 모드를 %s로 직접 변경하거나 AUTO_SET_POSITION_MODE=true로 설정하세요", c.cfg.PositionMode)))
		return NewOrderError(symbol, "verify_position_mode",
			fmt.Errorf("%w: 현재 %s, 설정 %s", ErrModeMismatch, current, c.cfg.PositionMode))
	}

	if err := c.exchange.SetPositionMode(ctx, symbol, c.cfg.PositionMode); err != nil {
		c.events.Emit(event.New(event.KindMode, event.Error, "포지션 모드 변경 실패").
			With("error", err.Error()))
		return NewOrderError(symbol, "set_position_mode", fmt.Errorf("%w: %v", ErrModeMismatch, err))
	}

	return nil
}

// reject는 거부된 시도의 결과를 생성합니다
func (c *Controller) reject(action domain.Action, req domain.OrderRequest, err error, code string) attempt {
	reason := code
	if reason == "" {
		reason = err.Error()
	}
	return attempt{
		outcome: c.outcome(domain.OutcomeRejected, action, req, "", reason),
		err:     err,
	}
}

func (c *Controller) outcome(kind domain.OutcomeKind, action domain.Action, req domain.OrderRequest, orderID, reason string) domain.OrderOutcome {
	return domain.OrderOutcome{
		Kind:    kind,
		Action:  action,
		Request: req,
		OrderID: orderID,
		Reason:  reason,
		Time:    c.now(),
	}
}

func (c *Controller) report(ctx context.Context, o domain.OrderOutcome) {
	if c.reporter == nil {
		return
	}
	c.reporter.Report(ctx, o)
}

func tradeEvent(msg string, req domain.OrderRequest) event.Event {
	return event.New(event.KindTrade, event.Info, msg).
		With("symbol", req.Symbol).
		With("contracts", req.Contracts).
		With("client_oid", req.ClientOID)
}

// describe는 "OPEN_SHORT 1000 @ $50050.0" 형식의 주문 설명을 반환합니다
func describe(action domain.Action, req domain.OrderRequest) string {
	if req.Type == domain.Limit && req.Price > 0 {
		return fmt.Sprintf("%s %d @ $%.1f %s", action, req.Contracts, req.Price, req.TimeInForce)
	}
	return fmt.Sprintf("%s %d MARKET", action, req.Contracts)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
