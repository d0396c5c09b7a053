// internal/exchange/exchange.go
package exchange

import (
	"context"
	"time"

	"github.com/assist-by/rebalancer/internal/domain"
)

// Exchange는 코인 마진 선물 거래소와의 상호작용을 위한 인터페이스입니다.
// 모든 호출은 동기식이며 실패 시 로컬 상태를 남기지 않습니다.
type Exchange interface {
	// 시장 데이터 조회
	GetServerTime(ctx context.Context) (time.Time, error)
	GetTicker(ctx context.Context, symbol string) (float64, error)
	GetBestBidAsk(ctx context.Context, symbol string) (domain.MarketQuote, error)

	// 계정 데이터 조회
	GetAccount(ctx context.Context) (*domain.AccountOverview, error)
	GetPositions(ctx context.Context) ([]domain.Position, error)

	// 설정 기능
	GetPositionMode(ctx context.Context, symbol string) (domain.PositionMode, error)
	SetPositionMode(ctx context.Context, symbol string, mode domain.PositionMode) error

	// 거래 기능
	PlaceOrder(ctx context.Context, order domain.OrderRequest) (*domain.OrderAck, error)
	CancelOrder(ctx context.Context, orderID string) error
	GetOrderDetails(ctx context.Context, orderID string) (*domain.OrderDetails, error)
}
