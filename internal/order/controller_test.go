package order

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
	"github.com/assist-by/rebalancer/internal/exchange"
)

// fakeExchange는 테스트용 거래소입니다
type fakeExchange struct {
	mu sync.Mutex

	quote    domain.MarketQuote
	quoteErr error

	mode       domain.PositionMode
	modeErr    error
	setModeErr error
	modeSets   []domain.PositionMode

	placeErr error
	placed   []domain.OrderRequest

	// details는 주문 ID별로 조회 횟수(0부터)에 따른 응답을 반환합니다
	details      map[string]func(call int) (*domain.OrderDetails, error)
	detailsCalls map[string]int
	cancelled    []string
	cancelErr    error

	calls int
}

var _ exchange.Exchange = (*fakeExchange)(nil)

func newFakeExchange() *fakeExchange {
	return &fakeExchange{
		quote:        domain.NewMarketQuote(50000, 50010, 50005, time.Time{}),
		mode:         domain.OneWay,
		details:      map[string]func(int) (*domain.OrderDetails, error){},
		detailsCalls: map[string]int{},
	}
}

func (f *fakeExchange) hit() {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
}

func (f *fakeExchange) GetServerTime(ctx context.Context) (time.Time, error) {
	f.hit()
	return time.Now(), nil
}

func (f *fakeExchange) GetTicker(ctx context.Context, symbol string) (float64, error) {
	f.hit()
	return f.quote.LastPrice, nil
}

func (f *fakeExchange) GetBestBidAsk(ctx context.Context, symbol string) (domain.MarketQuote, error) {
	f.hit()
	return f.quote, f.quoteErr
}

func (f *fakeExchange) GetAccount(ctx context.Context) (*domain.AccountOverview, error) {
	f.hit()
	return &domain.AccountOverview{}, nil
}

func (f *fakeExchange) GetPositions(ctx context.Context) ([]domain.Position, error) {
	f.hit()
	return nil, nil
}

func (f *fakeExchange) GetPositionMode(ctx context.Context, symbol string) (domain.PositionMode, error) {
	f.hit()
	return f.mode, f.modeErr
}

func (f *fakeExchange) SetPositionMode(ctx context.Context, symbol string, mode domain.PositionMode) error {
	f.hit()
	f.modeSets = append(f.modeSets, mode)
	if f.setModeErr != nil {
		return f.setModeErr
	}
	f.mode = mode
	return nil
}

func (f *fakeExchange) PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderAck, error) {
	f.hit()
	f.placed = append(f.placed, order)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &domain.OrderAck{OrderID: fmt.Sprintf("ord-%d", len(f.placed)), ClientOID: order.ClientOID}, nil
}

func (f *fakeExchange) CancelOrder(ctx context.Context, orderID string) error {
	f.hit()
	f.cancelled = append(f.cancelled, orderID)
	return f.cancelErr
}

func (f *fakeExchange) GetOrderDetails(ctx context.Context, orderID string) (*domain.OrderDetails, error) {
	f.hit()
	call := f.detailsCalls[orderID]
	f.detailsCalls[orderID] = call + 1
	fn, ok := f.details[orderID]
	if !ok {
		return nil, errors.New("order not exist")
	}
	return fn(call)
}

// openOrder는 항상 같은 미완료 상태를 반환합니다
func openOrder(size, deal float64) func(int) (*domain.OrderDetails, error) {
	return func(int) (*domain.OrderDetails, error) {
		return &domain.OrderDetails{Status: "open", Size: size, DealSize: deal}, nil
	}
}

func doneOrder(size, deal float64) func(int) (*domain.OrderDetails, error) {
	return func(int) (*domain.OrderDetails, error) {
		return &domain.OrderDetails{Status: "done", Size: size, DealSize: deal}, nil
	}
}

// fakeClock은 sleep 호출 시에만 시간이 흐르는 시계입니다
type fakeClock struct {
	t      time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps++
	c.t = c.t.Add(d)
}

type recordingReporter struct {
	outcomes []domain.OrderOutcome
}

func (r *recordingReporter) Report(_ context.Context, o domain.OrderOutcome) {
	r.outcomes = append(r.outcomes, o)
}

func baseConfig() Config {
	return Config{
		Symbol:           "XBTUSDM",
		Leverage:         2,
		MarginMode:       domain.Isolated,
		PositionMode:     domain.OneWay,
		OrderType:        domain.Market,
		TimeInForce:      domain.IOC,
		Slippage:         0.1,
		PriceTick:        0.1,
		MaxOrderNotional: 10000,
		MinOrderNotional: 100,
		GTCTimeout:       30 * time.Second,
		MaxResubmits:     3,
	}
}

func gtcConfig() Config {
	cfg := baseConfig()
	cfg.OrderType = domain.Limit
	cfg.TimeInForce = domain.GTC
	cfg.Slippage = -0.05
	return cfg
}

func newTestController(ex *fakeExchange, cfg Config) (*Controller, *recordingReporter, *event.Recorder, *fakeClock) {
	rep := &recordingReporter{}
	rec := &event.Recorder{}
	clock := &fakeClock{t: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	c := NewController(ex, rep, rec, cfg, WithClock(clock.Now, clock.Sleep))
	return c, rep, rec, clock
}

func TestController_GTCPartialFillResubmitsRemainder(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(1000, 400)
	ex.details["ord-2"] = doneOrder(600, 600)
	c, rep, _, _ := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	require.True(t, res.Success)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, int64(1000), res.Filled)
	assert.Equal(t, "ord-2", res.OrderID)

	require.Len(t, ex.placed, 2)
	assert.Equal(t, int64(1000), ex.placed[0].Contracts)
	assert.Equal(t, int64(600), ex.placed[1].Contracts)
	assert.NotEqual(t, ex.placed[0].ClientOID, ex.placed[1].ClientOID)
	assert.Equal(t, []string{"ord-1"}, ex.cancelled)

	require.Len(t, rep.outcomes, 2)
	partial := rep.outcomes[0].LedgerRecord()
	assert.Equal(t, domain.LedgerPartial, partial.Status)
	assert.Equal(t, int64(400), partial.Contracts)
	assert.Equal(t, "ord-1", partial.OrderID)
	assert.Equal(t, "Filled 400/1000", partial.Error)

	filled := rep.outcomes[1].LedgerRecord()
	assert.Equal(t, domain.LedgerFilled, filled.Status)
	assert.Equal(t, int64(600), filled.Contracts)
}

func TestController_SafetyGate(t *testing.T) {
	tests := []struct {
		name      string
		contracts int64
		wantErr   error
		wantCode  string
	}{
		{"최대 한도 초과", 20000, ErrExceedsMax, CodeExceedsMax},
		{"최소 한도 미만", 50, ErrBelowMin, CodeBelowMin},
		{"0 계약", 0, ErrBelowMin, CodeBelowMin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex := newFakeExchange()
			c, rep, rec, _ := newTestController(ex, baseConfig())

			res := c.OpenShort(context.Background(), tt.contracts)

			assert.False(t, res.Success)
			assert.ErrorIs(t, res.Err, tt.wantErr)
			assert.Equal(t, tt.wantCode, CodeOf(res.Err))
			assert.Zero(t, ex.calls, "안전 점검 전에는 네트워크 호출 없음")
			assert.Empty(t, ex.placed)

			require.Len(t, rep.outcomes, 1)
			assert.Equal(t, domain.OutcomeRejected, rep.outcomes[0].Kind)
			assert.Equal(t, tt.wantCode, rep.outcomes[0].Reason)
			assert.NotEmpty(t, rec.OfKind(event.KindSafety))
		})
	}
}

func TestController_PositionMode(t *testing.T) {
	t.Run("불일치이고 자동 설정 꺼짐", func(t *testing.T) {
		ex := newFakeExchange()
		ex.mode = domain.HedgeMode
		c, rep, _, _ := newTestController(ex, baseConfig())

		res := c.OpenShort(context.Background(), 1000)

		assert.False(t, res.Success)
		assert.Equal(t, CodeModeMismatch, CodeOf(res.Err))
		assert.Empty(t, ex.placed)
		assert.Empty(t, ex.modeSets)
		require.Len(t, rep.outcomes, 1)
		assert.Equal(t, domain.LedgerRejected, rep.outcomes[0].LedgerRecord().Status)
	})

	t.Run("불일치이고 자동 설정 성공", func(t *testing.T) {
		ex := newFakeExchange()
		ex.mode = domain.HedgeMode
		cfg := baseConfig()
		cfg.AutoSetPositionMode = true
		c, _, _, _ := newTestController(ex, cfg)

		res := c.OpenShort(context.Background(), 1000)

		assert.True(t, res.Success)
		assert.Equal(t, []domain.PositionMode{domain.OneWay}, ex.modeSets)
		assert.Len(t, ex.placed, 1)
	})

	t.Run("자동 설정 실패", func(t *testing.T) {
		ex := newFakeExchange()
		ex.mode = domain.HedgeMode
		ex.setModeErr = errors.New("Position exists, can not change mode")
		cfg := baseConfig()
		cfg.AutoSetPositionMode = true
		c, _, _, _ := newTestController(ex, cfg)

		res := c.OpenShort(context.Background(), 1000)

		assert.False(t, res.Success)
		assert.ErrorIs(t, res.Err, ErrModeMismatch)
		assert.Empty(t, ex.placed)
	})

	t.Run("모드 조회 실패", func(t *testing.T) {
		ex := newFakeExchange()
		ex.modeErr = errors.New("unknown position mode value: 7")
		c, _, _, _ := newTestController(ex, baseConfig())

		res := c.OpenShort(context.Background(), 1000)

		assert.ErrorIs(t, res.Err, ErrModeMismatch)
		assert.Empty(t, ex.placed)
	})
}

func TestController_DryRun(t *testing.T) {
	t.Run("네트워크 없이 체결 처리", func(t *testing.T) {
		ex := newFakeExchange()
		ex.mode = domain.HedgeMode
		cfg := baseConfig()
		cfg.DryRun = true
		c, rep, _, _ := newTestController(ex, cfg)

		res := c.OpenShort(context.Background(), 1000)

		require.True(t, res.Success)
		assert.True(t, res.DryRun)
		assert.True(t, strings.HasPrefix(res.OrderID, "DRY_RUN_"))
		assert.Len(t, res.OrderID, len("DRY_RUN_")+8)
		assert.Zero(t, ex.calls)
		require.Len(t, rep.outcomes, 1)
		assert.Equal(t, domain.LedgerFilled, rep.outcomes[0].LedgerRecord().Status)
	})

	t.Run("모드 확인 옵션은 조회만 하고 변경하지 않음", func(t *testing.T) {
		ex := newFakeExchange()
		ex.mode = domain.HedgeMode
		cfg := baseConfig()
		cfg.DryRun = true
		cfg.DryRunVerifyMode = true
		cfg.AutoSetPositionMode = true
		c, _, _, _ := newTestController(ex, cfg)

		res := c.OpenShort(context.Background(), 1000)

		assert.False(t, res.Success)
		assert.Equal(t, CodeModeMismatch, CodeOf(res.Err))
		assert.Empty(t, ex.modeSets)
		assert.Empty(t, ex.placed)
	})
}

func TestController_Pricing(t *testing.T) {
	t.Run("숏 진입 지정가는 매수 호가 기준", func(t *testing.T) {
		ex := newFakeExchange()
		cfg := baseConfig()
		cfg.OrderType = domain.Limit
		cfg.TimeInForce = domain.IOC
		cfg.Slippage = 0.1
		c, rep, _, _ := newTestController(ex, cfg)

		res := c.OpenShort(context.Background(), 1000)

		require.True(t, res.Success)
		require.Len(t, ex.placed, 1)
		assert.Equal(t, domain.Limit, ex.placed[0].Type)
		assert.Equal(t, domain.IOC, ex.placed[0].TimeInForce)
		assert.InDelta(t, 49950.0, ex.placed[0].Price, 1e-9)

		rec := rep.outcomes[0].LedgerRecord()
		assert.True(t, rec.HasLimit)
		assert.Equal(t, "49950.0", rec.Row()[4])
		assert.Equal(t, "+0.1%", rec.Row()[7])
	})

	t.Run("숏 청산은 감소 전용 매수, 레버리지 1", func(t *testing.T) {
		ex := newFakeExchange()
		cfg := baseConfig()
		cfg.OrderType = domain.Limit
		cfg.Slippage = 0.1
		c, _, _, _ := newTestController(ex, cfg)

		res := c.CloseShort(context.Background(), 500)

		require.True(t, res.Success)
		req := ex.placed[0]
		assert.Equal(t, domain.Buy, req.Side)
		assert.True(t, req.ReduceOnly)
		assert.Equal(t, 1, req.Leverage)
		assert.InDelta(t, 50060.0, req.Price, 1e-9)
	})

	t.Run("음수 슬리피지는 GTC 강제", func(t *testing.T) {
		ex := newFakeExchange()
		ex.details["ord-1"] = doneOrder(1000, 1000)
		cfg := baseConfig()
		cfg.OrderType = domain.Limit
		cfg.TimeInForce = domain.IOC
		cfg.Slippage = -0.05
		c, _, _, _ := newTestController(ex, cfg)

		res := c.OpenShort(context.Background(), 1000)

		require.True(t, res.Success)
		assert.Equal(t, domain.GTC, ex.placed[0].TimeInForce)
		assert.InDelta(t, 50025.0, ex.placed[0].Price, 1e-9)
	})

	t.Run("호가 조회 실패 시 시장가로 전환", func(t *testing.T) {
		ex := newFakeExchange()
		ex.quoteErr = errors.New("timeout")
		cfg := baseConfig()
		cfg.OrderType = domain.Limit
		c, rep, rec, _ := newTestController(ex, cfg)

		res := c.OpenShort(context.Background(), 1000)

		require.True(t, res.Success)
		assert.Equal(t, domain.Market, ex.placed[0].Type)
		assert.Zero(t, ex.placed[0].Price)
		assert.False(t, rep.outcomes[0].LedgerRecord().HasLimit)
		assert.True(t, rec.Has(event.KindPricing, event.Warning))
	})
}

func TestLimitPrice(t *testing.T) {
	q := domain.NewMarketQuote(50000, 50010, 50005, time.Time{})

	tests := []struct {
		name     string
		side     domain.OrderSide
		slippage float64
		want     float64
	}{
		{"매수 공격적", domain.Buy, 0.1, 50060.0},
		{"매수 보수적", domain.Buy, -0.1, 49959.99},
		{"매도 공격적", domain.Sell, 0.1, 49950.0},
		{"매도 보수적", domain.Sell, -0.1, 50050.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LimitPrice(q, tt.side, tt.slippage, 0.1)
			assert.InDelta(t, RoundToTick(tt.want, 0.1), got, 1e-9)
		})
	}

	assert.InDelta(t, 48000.0, LimitPrice(domain.NewMarketQuote(0, 0, 48000, time.Time{}), domain.Sell, 0, 0.1), 1e-9)
}

func TestRoundToTick(t *testing.T) {
	assert.InDelta(t, 50050.0, RoundToTick(50050.000000001, 0.1), 1e-9)
	assert.InDelta(t, 49960.0, RoundToTick(49959.99, 0.1), 1e-9)
	assert.InDelta(t, 123.45, RoundToTick(123.45, 0), 1e-12)
	assert.InDelta(t, 50000.5, RoundToTick(50000.26, 0.5), 1e-9)
}

func TestController_GTCCancelFailureStopsResubmit(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(1000, 400)
	ex.cancelErr = errors.New("order not exist or not allow to be cancelled")
	c, rep, rec, _ := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrCancelFailed)
	assert.Equal(t, int64(400), res.Filled)
	assert.Equal(t, 1, res.Attempts)
	assert.Len(t, ex.placed, 1)
	assert.Equal(t, []string{"ord-1"}, ex.cancelled)
	assert.True(t, rec.Has(event.KindGTC, event.Error))

	require.Len(t, rep.outcomes, 1)
	partial := rep.outcomes[0].LedgerRecord()
	assert.Equal(t, domain.LedgerPartial, partial.Status)
	assert.Equal(t, int64(400), partial.Contracts)
}

func TestController_GTCNoFillCancelFailure(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(1000, 0)
	ex.cancelErr = errors.New("timeout")
	c, rep, _, _ := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrCancelFailed)
	assert.Len(t, ex.placed, 1)
	require.Len(t, rep.outcomes, 1)
	assert.Equal(t, domain.LedgerCancelled, rep.outcomes[0].LedgerRecord().Status)
}

func TestController_GTCNoFillCancelsWithoutResubmit(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(1000, 0)
	c, rep, _, clock := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrOrderNotFilled)
	assert.Len(t, ex.placed, 1)
	assert.Equal(t, []string{"ord-1"}, ex.cancelled)
	assert.Equal(t, 6, clock.sleeps)

	require.Len(t, rep.outcomes, 1)
	rec := rep.outcomes[0].LedgerRecord()
	assert.Equal(t, domain.LedgerCancelled, rec.Status)
	assert.Equal(t, "GTC timeout - no fill", rec.Error)
	assert.Equal(t, int64(1000), rec.Contracts)
}

func TestController_GTCStatusLostAtTimeout(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = func(call int) (*domain.OrderDetails, error) {
		if call < 6 {
			return &domain.OrderDetails{Status: "open", Size: 1000}, nil
		}
		return nil, errors.New("connection reset")
	}
	c, rep, _, _ := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrOrderStatusLost)
	assert.Empty(t, ex.cancelled)
	require.Len(t, rep.outcomes, 1)
	assert.Equal(t, domain.LedgerTimeout, rep.outcomes[0].LedgerRecord().Status)
	assert.Equal(t, "GTC timeout - could not get order status", rep.outcomes[0].Reason)
}

func TestController_GTCFilledAtLastCheck(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = func(call int) (*domain.OrderDetails, error) {
		if call < 6 {
			return &domain.OrderDetails{Status: "open", Size: 1000, DealSize: 200}, nil
		}
		return &domain.OrderDetails{Status: "open", Size: 1000, DealSize: 1000}, nil
	}
	c, rep, _, _ := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.True(t, res.Success)
	assert.Empty(t, ex.cancelled)
	require.Len(t, rep.outcomes, 1)
	assert.Equal(t, domain.OutcomeFilled, rep.outcomes[0].Kind)
}

func TestController_GTCFilledDuringMonitor(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = func(call int) (*domain.OrderDetails, error) {
		if call < 2 {
			return &domain.OrderDetails{Status: "open", Size: 1000}, nil
		}
		return &domain.OrderDetails{Status: "done", Size: 1000, DealSize: 1000}, nil
	}
	c, _, _, clock := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.True(t, res.Success)
	assert.Equal(t, 2, clock.sleeps)
	assert.Empty(t, ex.cancelled)
}

func TestController_GTCClosedEarlyWithPartialFill(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = doneOrder(1000, 250)
	ex.details["ord-2"] = doneOrder(750, 750)
	c, rep, _, _ := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.True(t, res.Success)
	assert.Empty(t, ex.cancelled, "이미 종료된 주문은 취소하지 않음")
	require.Len(t, ex.placed, 2)
	assert.Equal(t, int64(750), ex.placed[1].Contracts)
	assert.Equal(t, domain.OutcomePartiallyFilled, rep.outcomes[0].Kind)
}

func TestController_ResubmitLimit(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(4000, 2000)
	ex.details["ord-2"] = openOrder(2000, 1000)
	ex.details["ord-3"] = openOrder(1000, 500)
	cfg := gtcConfig()
	cfg.MaxResubmits = 1
	c, rep, _, _ := newTestController(ex, cfg)

	res := c.OpenShort(context.Background(), 4000)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrResubmitLimit)
	assert.Equal(t, CodeResubmitLimit, CodeOf(res.Err))
	assert.Len(t, ex.placed, 2)
	assert.Equal(t, int64(3000), res.Filled)
	assert.Len(t, rep.outcomes, 2)
}

func TestController_UnlimitedResubmits(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(4000, 2000)
	ex.details["ord-2"] = openOrder(2000, 1000)
	ex.details["ord-3"] = openOrder(1000, 500)
	ex.details["ord-4"] = doneOrder(500, 500)
	cfg := gtcConfig()
	cfg.MaxResubmits = 0
	c, _, _, _ := newTestController(ex, cfg)

	res := c.OpenShort(context.Background(), 4000)

	assert.True(t, res.Success)
	assert.Equal(t, 4, res.Attempts)
	assert.Equal(t, int64(4000), res.Filled)
}

func TestController_ResubmitBelowMinimumIsRejected(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(1000, 950)
	c, rep, _, _ := newTestController(ex, gtcConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrBelowMin)
	assert.Len(t, ex.placed, 1)
	require.Len(t, rep.outcomes, 2)
	assert.Equal(t, domain.OutcomePartiallyFilled, rep.outcomes[0].Kind)
	assert.Equal(t, domain.OutcomeRejected, rep.outcomes[1].Kind)
	assert.Equal(t, int64(50), rep.outcomes[1].Request.Contracts)
}

func TestController_PlacementFailurePreservesMessage(t *testing.T) {
	ex := newFakeExchange()
	ex.placeErr = &exchange.APIError{Op: "주문 생성", HTTPStatus: 200, Code: "300003", Message: "Balance insufficient"}
	c, rep, _, _ := newTestController(ex, baseConfig())

	res := c.OpenShort(context.Background(), 1000)

	assert.False(t, res.Success)
	assert.ErrorIs(t, res.Err, ErrOrderPlacement)
	apiErr, isAPI := exchange.AsAPIError(res.Err)
	require.True(t, isAPI)
	assert.Equal(t, "300003", apiErr.Code)

	require.Len(t, rep.outcomes, 1)
	assert.Equal(t, domain.OutcomeRejected, rep.outcomes[0].Kind)
	assert.Equal(t, "Balance insufficient", rep.outcomes[0].Reason)
}

func TestController_ExecuteRebalance(t *testing.T) {
	t.Run("리밸런싱 불필요", func(t *testing.T) {
		ex := newFakeExchange()
		c, rep, _, _ := newTestController(ex, baseConfig())

		res := c.ExecuteRebalance(context.Background(), domain.RebalanceMetrics{NeedsRebalancing: false, Deviation: 0.5})

		assert.True(t, res.Success)
		assert.Equal(t, domain.ActionNone, res.Action)
		assert.Zero(t, ex.calls)
		assert.Empty(t, rep.outcomes)
	})

	t.Run("양수 편차는 숏 진입", func(t *testing.T) {
		ex := newFakeExchange()
		c, _, _, _ := newTestController(ex, baseConfig())

		res := c.ExecuteRebalance(context.Background(), domain.RebalanceMetrics{
			NeedsRebalancing: true, Deviation: 5, ContractsToAdjust: 2500,
		})

		require.True(t, res.Success)
		assert.Equal(t, domain.ActionOpenShort, res.Action)
		assert.Equal(t, domain.Sell, ex.placed[0].Side)
		assert.False(t, ex.placed[0].ReduceOnly)
		assert.Equal(t, 2, ex.placed[0].Leverage)
		assert.Equal(t, int64(2500), ex.placed[0].Contracts)
	})

	t.Run("음수 편차는 숏 청산", func(t *testing.T) {
		ex := newFakeExchange()
		c, _, _, _ := newTestController(ex, baseConfig())

		res := c.ExecuteRebalance(context.Background(), domain.RebalanceMetrics{
			NeedsRebalancing: true, Deviation: -5, ContractsToAdjust: 2500,
		})

		require.True(t, res.Success)
		assert.Equal(t, domain.ActionCloseShort, res.Action)
		assert.Equal(t, domain.Buy, ex.placed[0].Side)
		assert.True(t, ex.placed[0].ReduceOnly)
	})
}

func TestController_FreshClientIDPerAttempt(t *testing.T) {
	ex := newFakeExchange()
	ex.details["ord-1"] = openOrder(1000, 400)
	ex.details["ord-2"] = doneOrder(600, 600)
	rep := &recordingReporter{}
	clock := &fakeClock{t: time.Now()}
	seq := 0
	c := NewController(ex, rep, nil, gtcConfig(),
		WithClock(clock.Now, clock.Sleep),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("client-%d", seq)
		}),
	)

	res := c.OpenShort(context.Background(), 1000)

	require.True(t, res.Success)
	assert.Equal(t, "client-1", ex.placed[0].ClientOID)
	assert.Equal(t, "client-2", ex.placed[1].ClientOID)
}
