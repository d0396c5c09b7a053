package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/logger"
	"github.com/assist-by/rebalancer/internal/order"
)

type Config struct {
	// 쿠코인 API 설정
	KuCoin struct {
		APIKey          string `envconfig:"KUCOIN_API_KEY" required:"true"`
		APISecret       string `envconfig:"KUCOIN_API_SECRET" required:"true"`
		Passphrase      string `envconfig:"KUCOIN_API_PASSPHRASE" required:"true"`
		Endpoint        string `envconfig:"KUCOIN_FUTURES_ENDPOINT" default:"https://api-futures.kucoin.com"`
		AccountCurrency string `envconfig:"KUCOIN_ACCOUNT_CURRENCY" default:"XBT"`
		TimeoutSeconds  int    `envconfig:"KUCOIN_TIMEOUT_SECONDS" default:"10"`
	}

	// 포트폴리오 설정
	Portfolio struct {
		ColdStorageBTC       float64 `envconfig:"COLD_STORAGE_BTC_AMOUNT" default:"0"`
		Symbol               string  `envconfig:"FUTURES_SYMBOL" default:"XBTUSDM"`
		TargetAllocation     float64 `envconfig:"TARGET_BTC_ALLOCATION" default:"50"`
		RebalanceThreshold   float64 `envconfig:"REBALANCE_THRESHOLD" default:"1.0"`
		FetchIntervalSeconds int     `envconfig:"FETCH_INTERVAL" default:"5"`
		SettleDelaySeconds   int     `envconfig:"SETTLE_DELAY_SECONDS" default:"10"`
	}

	// 거래 설정
	Trading struct {
		AutoRebalance       bool    `envconfig:"AUTO_REBALANCE" default:"false"`
		DryRun              bool    `envconfig:"DRY_RUN" default:"true"`
		DryRunVerifyMode    bool    `envconfig:"DRY_RUN_VERIFY_POSITION_MODE" default:"false"`
		MaxOrderUSD         float64 `envconfig:"MAX_ORDER_SIZE_USD" default:"10000"`
		MinOrderUSD         float64 `envconfig:"MIN_ORDER_SIZE_USD" default:"100"`
		Leverage            int     `envconfig:"LEVERAGE" default:"1"`
		MarginMode          string  `envconfig:"MARGIN_MODE" default:"ISOLATED"`
		PositionMode        string  `envconfig:"POSITION_MODE" default:"ONE_WAY"`
		AutoSetPositionMode bool    `envconfig:"AUTO_SET_POSITION_MODE" default:"false"`
		OrderType           string  `envconfig:"ORDER_TYPE" default:"market"`
		TimeInForce         string  `envconfig:"TIME_IN_FORCE" default:"IOC"`
		SlippagePercentage  float64 `envconfig:"SLIPPAGE_PERCENTAGE" default:"0.1"`
		PriceTick           float64 `envconfig:"PRICE_TICK_SIZE" default:"0.1"`
		GTCTimeoutSeconds   int     `envconfig:"GTC_TIMEOUT_SECONDS" default:"300"`
		GTCPollSeconds      int     `envconfig:"GTC_POLL_INTERVAL" default:"5"`
		GTCMaxResubmits     int     `envconfig:"GTC_MAX_RESUBMITS" default:"3"`
	}

	// 로그 설정
	Logging struct {
		Level         string `envconfig:"LOG_LEVEL" default:"info"`
		SystemFile    bool   `envconfig:"FILE_SYSTEM_LOGGING_ENABLED" default:"true"`
		FilePath      string `envconfig:"LOG_FILE" default:"trading_bot.log"`
		FileLevel     string `envconfig:"FILE_LOG_LEVEL" default:"TRADE"`
		RotationHours int    `envconfig:"FILE_LOG_ROTATION_HOURS" default:"168"`
		MaxBackups    int    `envconfig:"LOG_MAX_BACKUPS" default:"4"`
		Compress      bool   `envconfig:"LOG_COMPRESS" default:"false"`
		TradingLedger bool   `envconfig:"FILE_TRADING_LOGGING_ENABLED" default:"true"`
		LedgerDir     string `envconfig:"LEDGER_DIR" default:"."`
		LedgerDBPath  string `envconfig:"LEDGER_DB_PATH"`
	}

	// 디스코드 웹훅 설정 (비어 있으면 알림 없음)
	Discord struct {
		Webhook      string `envconfig:"DISCORD_WEBHOOK"`
		TradeWebhook string `envconfig:"DISCORD_TRADE_WEBHOOK"`
		ErrorWebhook string `envconfig:"DISCORD_ERROR_WEBHOOK"`
	}

	// 메트릭 설정 (비어 있으면 비활성)
	Metrics struct {
		Addr string `envconfig:"METRICS_ADDR"`
	}
}

// ValidateConfig는 설정이 유효한지 확인합니다.
func ValidateConfig(cfg *Config) error {
	if cfg.Trading.Leverage < 1 || cfg.Trading.Leverage > 100 {
		return fmt.Errorf("레버리지는 1 이상 100 이하이어야 합니다")
	}

	if cfg.Portfolio.ColdStorageBTC < 0 {
		return fmt.Errorf("COLD_STORAGE_BTC_AMOUNT는 0 이상이어야 합니다")
	}

	if cfg.Portfolio.TargetAllocation < 0 || cfg.Portfolio.TargetAllocation > 100 {
		return fmt.Errorf("TARGET_BTC_ALLOCATION은 0 이상 100 이하이어야 합니다")
	}

	if cfg.Portfolio.RebalanceThreshold < 0 {
		return fmt.Errorf("REBALANCE_THRESHOLD는 0 이상이어야 합니다")
	}

	if cfg.Portfolio.FetchIntervalSeconds < 1 {
		return fmt.Errorf("FETCH_INTERVAL은 1초 이상이어야 합니다")
	}

	if cfg.Portfolio.SettleDelaySeconds < 0 {
		return fmt.Errorf("SETTLE_DELAY_SECONDS는 0 이상이어야 합니다")
	}

	if cfg.Trading.MinOrderUSD < 0 || cfg.Trading.MaxOrderUSD <= cfg.Trading.MinOrderUSD {
		return fmt.Errorf("주문 금액 범위가 잘못되었습니다 (최소 %.2f, 최대 %.2f)",
			cfg.Trading.MinOrderUSD, cfg.Trading.MaxOrderUSD)
	}

	if math.Abs(cfg.Trading.SlippagePercentage) >= 100 {
		return fmt.Errorf("SLIPPAGE_PERCENTAGE는 -100 초과 100 미만이어야 합니다")
	}

	if cfg.Trading.PriceTick <= 0 {
		return fmt.Errorf("PRICE_TICK_SIZE는 0보다 커야 합니다")
	}

	if cfg.Trading.GTCTimeoutSeconds < 1 || cfg.Trading.GTCPollSeconds < 1 {
		return fmt.Errorf("GTC_TIMEOUT_SECONDS와 GTC_POLL_INTERVAL은 1초 이상이어야 합니다")
	}

	if cfg.Trading.GTCMaxResubmits < 0 {
		return fmt.Errorf("GTC_MAX_RESUBMITS는 0 이상이어야 합니다 (0: 무제한)")
	}

	if cfg.KuCoin.TimeoutSeconds < 1 {
		return fmt.Errorf("KUCOIN_TIMEOUT_SECONDS는 1초 이상이어야 합니다")
	}

	if _, err := logger.ParseTier(cfg.Logging.FileLevel); err != nil {
		return err
	}

	if _, err := cfg.Order(); err != nil {
		return err
	}

	return nil
}

// Order는 주문 컨트롤러 설정을 만듭니다
func (c *Config) Order() (order.Config, error) {
	marginMode, err := domain.ParseMarginMode(c.Trading.MarginMode)
	if err != nil {
		return order.Config{}, err
	}

	positionMode, err := domain.ParsePositionMode(c.Trading.PositionMode)
	if err != nil {
		return order.Config{}, err
	}

	orderType, err := domain.ParseOrderType(c.Trading.OrderType)
	if err != nil {
		return order.Config{}, err
	}

	tif, err := domain.ParseTimeInForce(c.Trading.TimeInForce)
	if err != nil {
		return order.Config{}, err
	}

	return order.Config{
		Symbol:              c.Portfolio.Symbol,
		Leverage:            c.Trading.Leverage,
		MarginMode:          marginMode,
		PositionMode:        positionMode,
		AutoSetPositionMode: c.Trading.AutoSetPositionMode,
		OrderType:           orderType,
		TimeInForce:         tif,
		Slippage:            c.Trading.SlippagePercentage,
		PriceTick:           c.Trading.PriceTick,
		MaxOrderNotional:    c.Trading.MaxOrderUSD,
		MinOrderNotional:    c.Trading.MinOrderUSD,
		GTCTimeout:          time.Duration(c.Trading.GTCTimeoutSeconds) * time.Second,
		MaxResubmits:        c.Trading.GTCMaxResubmits,
		DryRun:              c.Trading.DryRun,
		DryRunVerifyMode:    c.Trading.DryRunVerifyMode,
	}, nil
}

// Logger는 로거 설정을 만듭니다
func (c *Config) Logger() logger.Config {
	tier, _ := logger.ParseTier(c.Logging.FileLevel)
	return logger.Config{
		Level:         c.Logging.Level,
		FileEnabled:   c.Logging.SystemFile,
		FilePath:      c.Logging.FilePath,
		FileTier:      tier,
		RotationHours: c.Logging.RotationHours,
		MaxBackups:    c.Logging.MaxBackups,
		Compress:      c.Logging.Compress,
	}
}

// FetchInterval은 조회 주기를 반환합니다
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.Portfolio.FetchIntervalSeconds) * time.Second
}

// SettleDelay는 리밸런싱 후 대기 시간을 반환합니다
func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.Portfolio.SettleDelaySeconds) * time.Second
}

// GTCPollInterval은 GTC 주문 상태 확인 주기를 반환합니다
func (c *Config) GTCPollInterval() time.Duration {
	return time.Duration(c.Trading.GTCPollSeconds) * time.Second
}

// LoadConfig는 환경변수에서 설정을 로드합니다.
// .env 파일이 없으면 환경변수만 사용합니다.
func LoadConfig(files ...string) (*Config, error) {
	// .env 파일 로드
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf(".env 파일 로드 실패: %w", err)
	}

	var cfg Config
	// 환경변수를 구조체로 파싱
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("환경변수 처리 실패: %w", err)
	}

	// 설정값 검증
	if err := ValidateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("설정값 검증 실패: %w", err)
	}

	return &cfg, nil
}
