package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	osSignal "os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/assist-by/rebalancer/internal/bot"
	"github.com/assist-by/rebalancer/internal/config"
	"github.com/assist-by/rebalancer/internal/event"
	"github.com/assist-by/rebalancer/internal/exchange/kucoin"
	"github.com/assist-by/rebalancer/internal/ledger"
	"github.com/assist-by/rebalancer/internal/logger"
	"github.com/assist-by/rebalancer/internal/notification"
	"github.com/assist-by/rebalancer/internal/notification/discord"
	"github.com/assist-by/rebalancer/internal/observability"
	"github.com/assist-by/rebalancer/internal/order"
	"github.com/assist-by/rebalancer/internal/scheduler"
)

func main() {
	os.Exit(run())
}

func run() int {
	// 명령줄 플래그 정의
	envFile := flag.String("env", ".env", ".env 파일 경로")
	onceFlag := flag.Bool("once", false, "사이클을 한 번만 실행하고 종료")
	ledgerFlag := flag.Bool("ledger", false, "SQLite 원장 내용을 출력하고 종료")

	// 플래그 파싱
	flag.Parse()

	// 컨텍스트 생성
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 설정 로드
	cfg, err := config.LoadConfig(*envFile)
	if err != nil {
		logrus.Errorf("설정 로드 실패: %v", err)
		return 1
	}

	// 로거 생성
	logSink, err := logger.New(cfg.Logger())
	if err != nil {
		logrus.Errorf("로거 생성 실패: %v", err)
		return 1
	}
	defer logSink.Close()

	if *ledgerFlag {
		return dumpLedger(ctx, cfg.Logging.LedgerDBPath)
	}

	// 메트릭 생성
	metrics := observability.NewMetrics()
	if cfg.Metrics.Addr != "" {
		go func() {
			if err := metrics.Serve(ctx, cfg.Metrics.Addr); err != nil {
				logSink.Emit(event.New(event.KindStartup, event.Warning,
					fmt.Sprintf("메트릭 서버 실행 실패: %v", err)))
			}
		}()
	}

	// Discord 클라이언트 생성 (웹훅이 없으면 알림 없음)
	var notifier notification.Notifier
	if cfg.Discord.Webhook != "" {
		notifier = discord.NewClient(
			cfg.Discord.Webhook,
			discord.WithTradeWebhook(cfg.Discord.TradeWebhook),
			discord.WithErrorWebhook(cfg.Discord.ErrorWebhook),
			discord.WithTimeout(10*time.Second),
		)
	}

	notifyInfo := func(msg string) {
		if notifier == nil {
			return
		}
		if err := notifier.SendInfo(msg); err != nil {
			logSink.Emit(event.New(event.KindStartup, event.Warning, fmt.Sprintf("알림 전송 실패: %v", err)))
		}
	}
	notifyError := func(e error) {
		if notifier == nil {
			return
		}
		if err := notifier.SendError(e); err != nil {
			logSink.Emit(event.New(event.KindShutdown, event.Warning, fmt.Sprintf("에러 알림 전송 실패: %v", err)))
		}
	}

	// 원장 생성
	var sinks []ledger.Sink
	if cfg.Logging.TradingLedger {
		csvWriter, err := ledger.NewCSVWriter(cfg.Logging.LedgerDir)
		if err != nil {
			logSink.Emit(event.New(event.KindStartup, event.Error, fmt.Sprintf("CSV 원장 생성 실패: %v", err)))
			return 1
		}
		sinks = append(sinks, csvWriter)
	}
	if cfg.Logging.LedgerDBPath != "" {
		store, err := ledger.OpenSQLite(ctx, cfg.Logging.LedgerDBPath)
		if err != nil {
			logSink.Emit(event.New(event.KindStartup, event.Error, fmt.Sprintf("SQLite 원장 열기 실패: %v", err)))
			return 1
		}
		defer store.Close()
		sinks = append(sinks, store)
	}

	reporters := order.Reporters{
		ledger.NewBook(logSink, sinks...),
		metrics,
	}
	if notifier != nil {
		reporters = append(reporters, notification.NewOutcomeReporter(notifier, logSink, cfg.Trading.DryRun))
	}

	// KuCoin 클라이언트 생성 (서버 시간 확인 포함)
	client := kucoin.NewClient(ctx,
		kucoin.Credentials{
			APIKey:     cfg.KuCoin.APIKey,
			APISecret:  cfg.KuCoin.APISecret,
			Passphrase: cfg.KuCoin.Passphrase,
		},
		kucoin.WithBaseURL(cfg.KuCoin.Endpoint),
		kucoin.WithCurrency(cfg.KuCoin.AccountCurrency),
		kucoin.WithTimeout(time.Duration(cfg.KuCoin.TimeoutSeconds)*time.Second),
		kucoin.WithEvents(logSink),
	)

	// 주문 컨트롤러 생성
	orderCfg, err := cfg.Order()
	if err != nil {
		logSink.Emit(event.New(event.KindStartup, event.Error, fmt.Sprintf("주문 설정 오류: %v", err)))
		return 1
	}
	controller := order.NewController(client, reporters, logSink, orderCfg,
		order.WithPollInterval(cfg.GTCPollInterval()))

	// 리밸런싱 봇 생성
	rebalancer := bot.New(client, controller, metrics, logSink, bot.Config{
		Symbol:             cfg.Portfolio.Symbol,
		ColdStorageBTC:     cfg.Portfolio.ColdStorageBTC,
		TargetAllocation:   cfg.Portfolio.TargetAllocation,
		RebalanceThreshold: cfg.Portfolio.RebalanceThreshold,
		AutoRebalance:      cfg.Trading.AutoRebalance,
		SettleDelay:        cfg.SettleDelay(),
		MaxOrderUSD:        cfg.Trading.MaxOrderUSD,
		MinOrderUSD:        cfg.Trading.MinOrderUSD,
	})

	mode := "LIVE MODE"
	if cfg.Trading.DryRun {
		mode = "DRY RUN"
	}
	startup := fmt.Sprintf("리밸런서 시작 - 목표 %.1f%% BTC | 임계값 ±%.1f%% | %s",
		cfg.Portfolio.TargetAllocation, cfg.Portfolio.RebalanceThreshold, mode)
	logSink.Emit(event.New(event.KindStartup, event.Info, startup).
		With("symbol", cfg.Portfolio.Symbol).
		With("order_type", string(orderCfg.OrderType)).
		With("auto_rebalance", cfg.Trading.AutoRebalance))
	notifyInfo("🚀 " + startup)

	if *onceFlag {
		if _, err := rebalancer.Execute(ctx); err != nil {
			logSink.Emit(event.New(event.KindCycle, event.Error, fmt.Sprintf("사이클 실행 실패: %v", err)))
			notifyError(err)
			return 1
		}
		return 0
	}

	// 스케줄러 생성 (fetchInterval)
	sched := scheduler.NewScheduler(cfg.FetchInterval(), rebalancer, logSink)

	// 시그널 처리
	sigChan := notifyOnce(syscall.SIGINT, syscall.SIGTERM)

	// 스케줄러 시작
	errCh := make(chan error, 1)
	go func() {
		errCh <- sched.Start(ctx)
	}()

	exitCode := 0
	select {
	case sig := <-sigChan:
		logSink.Emit(event.New(event.KindShutdown, event.Info, fmt.Sprintf("시스템 종료 신호 수신: %v", sig)))
		// 스케줄러 중지 (진행 중인 사이클이 끝난 뒤 멈춤)
		sched.Stop()
		<-errCh
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logSink.Emit(event.New(event.KindShutdown, event.Error, fmt.Sprintf("메인 루프 치명적 오류: %v", err)))
			notifyError(err)
			exitCode = 1
		}
	}

	cancel()

	// 종료 알림 전송
	notifyInfo("👋 리밸런서가 종료되었습니다.")
	logSink.Emit(event.New(event.KindShutdown, event.Info, "프로그램을 종료합니다."))

	return exitCode
}

// notifyOnce는 첫 신호 하나만 전달하고 신호 구독을 해제합니다.
// 정산 대기 중 두 번째 신호는 기본 동작으로 프로세스를 종료합니다.
func notifyOnce(sigs ...os.Signal) <-chan os.Signal {
	relay := make(chan os.Signal, 1)
	out := make(chan os.Signal, 1)
	osSignal.Notify(relay, sigs...)
	go func() {
		sig := <-relay
		osSignal.Stop(relay)
		out <- sig
	}()
	return out
}

// dumpLedger는 SQLite 원장을 원장 파일 형식으로 출력합니다
func dumpLedger(ctx context.Context, path string) int {
	if path == "" {
		logrus.Error("LEDGER_DB_PATH가 설정되지 않았습니다")
		return 1
	}

	store, err := ledger.OpenSQLite(ctx, path)
	if err != nil {
		logrus.Errorf("SQLite 원장 열기 실패: %v", err)
		return 1
	}
	defer store.Close()

	records, err := store.Records(ctx)
	if err != nil {
		logrus.Errorf("원장 조회 실패: %v", err)
		return 1
	}

	if err := ledger.WriteRows(os.Stdout, records); err != nil {
		logrus.Errorf("원장 출력 실패: %v", err)
		return 1
	}

	return 0
}
