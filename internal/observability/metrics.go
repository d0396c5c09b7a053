// Package observability는 리밸런서의 Prometheus 메트릭을 제공합니다.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/assist-by/rebalancer/internal/domain"
)

const namespace = "rebalancer"

// 사이클 결과 라벨
const (
	CycleOK         = "ok"
	CycleDegraded   = "degraded"
	CycleRebalanced = "rebalanced"
	CycleFailed     = "failed"
)

// Metrics는 리밸런서 메트릭 모음입니다
type Metrics struct {
	registry *prometheus.Registry

	// 사이클 메트릭
	CyclesTotal         *prometheus.CounterVec
	CycleDuration       prometheus.Histogram
	LastSuccessfulCycle prometheus.Gauge

	// 포트폴리오 메트릭
	PortfolioValueUSD prometheus.Gauge
	AllocationPct     prometheus.Gauge
	DeviationPct      prometheus.Gauge
	ShortExposureUSD  prometheus.Gauge
	Price             prometheus.Gauge

	// 주문 메트릭
	OrderOutcomes   *prometheus.CounterVec
	ContractsFilled *prometheus.CounterVec
}

// NewMetrics는 전용 레지스트리에 등록된 메트릭을 생성합니다
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		CyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "runs_total",
			Help:      "Total number of rebalance cycles by result",
		}, []string{"result"}),
		CycleDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "duration_seconds",
			Help:      "Rebalance cycle duration in seconds, including order monitoring",
			Buckets:   []float64{0.1, 0.5, 1, 5, 30, 60, 300, 900},
		}),
		LastSuccessfulCycle: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "cycle",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix timestamp of the last cycle that read the account successfully",
		}),

		PortfolioValueUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "value_usd",
			Help:      "Total portfolio value in USD",
		}),
		AllocationPct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "allocation_percent",
			Help:      "Current net BTC allocation in percent",
		}),
		DeviationPct: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "deviation_percent",
			Help:      "Signed deviation from the target allocation in percent",
		}),
		ShortExposureUSD: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "portfolio",
			Name:      "short_exposure_usd",
			Help:      "Inverse short exposure in USD",
		}),
		Price: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "market",
			Name:      "price_usd",
			Help:      "Last price used for the allocation",
		}),

		OrderOutcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "outcomes_total",
			Help:      "Total number of terminal order outcomes by action and status",
		}, []string{"action", "status"}),
		ContractsFilled: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "contracts_filled_total",
			Help:      "Total number of contracts filled by action",
		}, []string{"action"}),
	}
}

// Report는 order.Reporter를 구현합니다
func (m *Metrics) Report(_ context.Context, o domain.OrderOutcome) {
	rec := o.LedgerRecord()
	m.OrderOutcomes.WithLabelValues(string(rec.Action), string(rec.Status)).Inc()

	switch o.Kind {
	case domain.OutcomeFilled, domain.OutcomePartiallyFilled:
		m.ContractsFilled.WithLabelValues(string(rec.Action)).Add(float64(rec.Contracts))
	}
}

// ObservePortfolio는 사이클의 계산 결과를 게이지에 반영합니다
func (m *Metrics) ObservePortfolio(rm domain.RebalanceMetrics, at time.Time) {
	m.PortfolioValueUSD.Set(rm.TotalPortfolioQuote)
	m.AllocationPct.Set(rm.CurrentAllocation)
	m.DeviationPct.Set(rm.Deviation)
	m.ShortExposureUSD.Set(rm.ShortExposure)
	m.Price.Set(rm.Price)
	m.LastSuccessfulCycle.Set(float64(at.Unix()))
}

// ObserveCycle은 사이클 결과와 소요 시간을 기록합니다
func (m *Metrics) ObserveCycle(result string, d time.Duration) {
	m.CyclesTotal.WithLabelValues(result).Inc()
	m.CycleDuration.Observe(d.Seconds())
}

// Handler는 /metrics 핸들러를 반환합니다
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve는 ctx가 끝날 때까지 /metrics를 제공합니다
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
