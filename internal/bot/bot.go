// Package bot은 한 번의 리밸런싱 사이클을 실행합니다.
package bot

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
	"github.com/assist-by/rebalancer/internal/exchange"
	"github.com/assist-by/rebalancer/internal/observability"
	"github.com/assist-by/rebalancer/internal/order"
	"github.com/assist-by/rebalancer/internal/rebalance"
)

// Rebalancer는 리밸런싱 지표를 주문으로 실행합니다
type Rebalancer interface {
	ExecuteRebalance(ctx context.Context, m domain.RebalanceMetrics) order.Result
}

// Observer는 사이클 결과를 받습니다
type Observer interface {
	ObservePortfolio(m domain.RebalanceMetrics, at time.Time)
	ObserveCycle(result string, d time.Duration)
}

// Config는 사이클 설정입니다
type Config struct {
	Symbol             string
	ColdStorageBTC     float64 // 거래소 밖에 보관 중인 BTC
	TargetAllocation   float64 // 목표 BTC 비중 (%)
	RebalanceThreshold float64 // 리밸런싱 임계값 (%)
	AutoRebalance      bool
	SettleDelay        time.Duration // 리밸런싱 성공 후 대기 시간
	MaxOrderUSD        float64       // 0이면 상한 검사 안 함
	MinOrderUSD        float64       // 0이면 하한 검사 안 함
}

// Bot은 조회 → 계산 → 주문 순서로 사이클을 실행합니다
type Bot struct {
	exchange   exchange.Exchange
	rebalancer Rebalancer
	observer   Observer
	events     event.Sink
	cfg        Config
	now        func() time.Time
}

// New는 새로운 Bot을 생성합니다. observer는 nil일 수 있습니다.
func New(ex exchange.Exchange, r Rebalancer, observer Observer, events event.Sink, cfg Config) *Bot {
	return &Bot{
		exchange:   ex,
		rebalancer: r,
		observer:   observer,
		events:     event.OrNop(events),
		cfg:        cfg,
		now:        time.Now,
	}
}

// Execute는 scheduler.Task를 구현합니다.
// 조회 실패는 다음 주기로 넘기고, 패닉만 에러로 반환해 루프를 멈춥니다.
func (b *Bot) Execute(ctx context.Context) (next time.Duration, err error) {
	start := b.now()
	result := observability.CycleOK

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("사이클 실행 중 패닉: %v", r)
			result = observability.CycleFailed
		}
		if b.observer != nil {
			b.observer.ObserveCycle(result, b.now().Sub(start))
		}
	}()

	m, ok := b.snapshot(ctx)
	if !ok {
		result = observability.CycleDegraded
		return 0, nil
	}

	if b.observer != nil {
		b.observer.ObservePortfolio(m, b.now())
	}
	b.events.Emit(event.New(event.KindPortfolio, event.Info, StatusLine(m)).
		With("deviation", fmt.Sprintf("%+.2f%%", m.Deviation)).
		With("contracts", m.ContractsToAdjust))

	if !m.NeedsRebalancing {
		return 0, nil
	}

	if !b.cfg.AutoRebalance {
		b.events.Emit(event.New(event.KindPortfolio, event.Info, "자동 리밸런싱 비활성 - 수동 조치 필요").
			With("action", string(m.Action())).
			With("contracts", m.ContractsToAdjust))
		return 0, nil
	}

	if b.skipBySize(m) {
		return 0, nil
	}

	res := b.rebalancer.ExecuteRebalance(ctx, m)
	if !res.Success {
		result = observability.CycleFailed
		b.events.Emit(event.New(event.KindCycle, event.Error,
			fmt.Sprintf("리밸런싱 실패: %s", errorText(res.Err))).
			With("action", string(res.Action)).
			With("attempts", res.Attempts))
		return 0, nil
	}

	result = observability.CycleRebalanced
	b.events.Emit(event.New(event.KindCycle, event.Info,
		fmt.Sprintf("주문 정산 대기 %v", b.cfg.SettleDelay)))
	return b.cfg.SettleDelay, nil
}

// skipBySize는 조정 금액이 주문 한도를 벗어나면 이벤트를 남기고 true를 반환합니다
func (b *Bot) skipBySize(m domain.RebalanceMetrics) bool {
	adj := math.Abs(m.ShortAdjustment)

	if b.cfg.MaxOrderUSD > 0 && adj > b.cfg.MaxOrderUSD {
		b.events.Emit(event.New(event.KindSafety, event.Warning,
			fmt.Sprintf("조정 금액 $%s가 최대 $%s 초과 - 자동 리밸런싱 건너뜀",
				groupThousands(adj), groupThousands(b.cfg.MaxOrderUSD))).
			With("action", string(m.Action())).
			With("contracts", m.ContractsToAdjust))
		return true
	}

	if b.cfg.MinOrderUSD > 0 && adj < b.cfg.MinOrderUSD {
		b.events.Emit(event.New(event.KindSafety, event.Info,
			fmt.Sprintf("조정 금액 $%.2f가 최소 $%.2f 미만 - 리밸런싱 건너뜀", adj, b.cfg.MinOrderUSD)).
			With("action", string(m.Action())).
			With("contracts", m.ContractsToAdjust))
		return true
	}

	return false
}

// snapshot은 가격과 계정을 조회해 지표를 계산합니다.
// 가격이나 계정을 읽지 못하면 false를 반환합니다.
func (b *Bot) snapshot(ctx context.Context) (domain.RebalanceMetrics, bool) {
	price, err := b.exchange.GetTicker(ctx, b.cfg.Symbol)
	if err != nil {
		b.events.Emit(event.New(event.KindPortfolio, event.Error,
			fmt.Sprintf("가격 조회 실패: %v", err)))
		price = 0
	}

	account, err := b.exchange.GetAccount(ctx)
	if err != nil {
		b.events.Emit(event.New(event.KindAccount, event.Error,
			fmt.Sprintf("계정 조회 실패: %v", err)))
		account = nil
	}

	positions, err := b.exchange.GetPositions(ctx)
	if err != nil {
		b.events.Emit(event.New(event.KindAccount, event.Error,
			fmt.Sprintf("포지션 조회 실패: %v", err)))
		positions = nil
	}

	if price <= 0 || account == nil {
		return domain.RebalanceMetrics{}, false
	}

	snap := domain.AccountSnapshot{
		ExternalHolding: b.cfg.ColdStorageBTC,
		FuturesEquity:   account.AccountEquity,
		Positions:       positions,
	}

	return rebalance.Compute(snap, price, b.cfg.TargetAllocation, b.cfg.RebalanceThreshold), true
}

// StatusLine은 사이클 상태 한 줄을 만듭니다
func StatusLine(m domain.RebalanceMetrics) string {
	status := "Balanced"
	if m.NeedsRebalancing {
		status = "Rebalance needed"
	}
	return fmt.Sprintf("[OK] $%s | %.1f%% BTC | %s", groupThousands(m.TotalPortfolioQuote), m.CurrentAllocation, status)
}

// groupThousands는 금액을 정수로 반올림해 천 단위 구분 기호를 붙입니다
func groupThousands(v float64) string {
	s := strconv.FormatInt(int64(math.Abs(math.Round(v))), 10)
	for i := len(s) - 3; i > 0; i -= 3 {
		s = s[:i] + "," + s[i:]
	}
	if v <= -0.5 {
		s = "-" + s
	}
	return s
}

func errorText(err error) string {
	if err == nil {
		return "Unknown error"
	}
	return err.Error()
}
