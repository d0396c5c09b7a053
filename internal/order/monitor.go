package order

import (
	"context"
	"fmt"
	"math"

	"github.com/assist-by/rebalancer/internal/domain"
	"github.com/assist-by/rebalancer/internal/event"
)

// 원장 error 컬럼에 기록하는 사유입니다
const (
	reasonNoFill       = "GTC timeout - no fill"
	reasonClosedNoFill = "Order closed - no fill"
	reasonStatusLost   = "GTC timeout - could not get order status"
)

// monitor는 GTC 주문을 고정 주기로 확인하며 체결 또는 타임아웃까지 대기합니다.
// 체결가는 복원하지 않으므로 원장에는 요청한 지정가만 남습니다.
func (c *Controller) monitor(ctx context.Context, action domain.Action, req domain.OrderRequest, orderID string) attempt {
	timeout := c.cfg.GTCTimeout
	start := c.now()

	c.events.Emit(event.New(event.KindGTC, event.Info,
		fmt.Sprintf("주문 %s 최대 %v 감시", orderID, timeout)))

	for {
		elapsed := c.now().Sub(start)
		if elapsed >= timeout {
			break
		}

		d, err := c.exchange.GetOrderDetails(ctx, orderID)
		if err != nil {
			c.events.Emit(event.New(event.KindGTC, event.Warning, "주문 상태 조회 실패").
				With("order_id", orderID).
				With("error", err.Error()))
		} else {
			filled, total := fillOf(d, req)
			c.events.Emit(event.New(event.KindGTC, event.Debug,
				fmt.Sprintf("상태: %s, 체결: %d/%d (%.0f초 경과)", d.Status, filled, total, elapsed.Seconds())))

			if d.Done() {
				if filled >= total {
					c.events.Emit(event.New(event.KindGTC, event.Info, "주문 전량 체결").
						With("order_id", orderID))
					return attempt{outcome: c.outcome(domain.OutcomeFilled, action, req, orderID, "")}
				}
				// 타임아웃 전에 종료되었지만 일부만 체결됨. 잔량은 이미 취소된 상태
				return c.reconcile(action, req, orderID, filled, total, reasonClosedNoFill)
			}
		}

		c.sleep(c.pollInterval)
	}

	c.events.Emit(event.New(event.KindGTC, event.Warning,
		fmt.Sprintf("타임아웃 도달 (%v)", timeout)).
		With("order_id", orderID))

	// 마지막 순간 체결 여부를 한 번 더 확인
	d, err := c.exchange.GetOrderDetails(ctx, orderID)
	if err != nil {
		c.events.Emit(event.New(event.KindGTC, event.Error, "타임아웃 후 주문 상태 조회 실패").
			With("order_id", orderID).
			With("error", err.Error()))
		return attempt{
			outcome: c.outcome(domain.OutcomeTimedOut, action, req, orderID, reasonStatusLost),
			err:     NewOrderError(req.Symbol, "monitor_gtc", fmt.Errorf("%w: %v", ErrOrderStatusLost, err)),
		}
	}

	filled, total := fillOf(d, req)
	c.events.Emit(event.New(event.KindGTC, event.Info,
		fmt.Sprintf("주문 상태: %d/%d 체결", filled, total)))

	if filled >= total {
		return attempt{outcome: c.outcome(domain.OutcomeFilled, action, req, orderID, "")}
	}

	c.events.Emit(event.New(event.KindGTC, event.Warning, "미체결 잔량 취소").
		With("order_id", orderID))
	cancelErr := c.exchange.CancelOrder(ctx, orderID)
	if cancelErr != nil {
		c.events.Emit(event.New(event.KindGTC, event.Error, "주문 취소 실패").
			With("order_id", orderID).
			With("error", cancelErr.Error()))
	} else {
		c.events.Emit(event.New(event.KindGTC, event.Info, "주문 취소 완료").
			With("order_id", orderID))
	}

	a := c.reconcile(action, req, orderID, filled, total, reasonNoFill)
	if cancelErr != nil {
		// 잔량이 아직 호가창에 있을 수 있으므로 재주문하지 않음
		a.remainder = 0
		a.err = NewOrderError(req.Symbol, "cancel_order", fmt.Errorf("%w: %v", ErrCancelFailed, cancelErr))
	}
	return a
}

// reconcile은 미완료 주문을 정리합니다.
// 체결이 전혀 없으면 재주문하지 않고, 일부 체결이면 남은 수량을 반환합니다.
func (c *Controller) reconcile(action domain.Action, req domain.OrderRequest, orderID string, filled, total int64, noFillReason string) attempt {
	if filled <= 0 {
		return attempt{
			outcome: c.outcome(domain.OutcomeCancelled, action, req, orderID, noFillReason),
			err:     NewOrderError(req.Symbol, "monitor_gtc", ErrOrderNotFilled),
		}
	}

	o := c.outcome(domain.OutcomePartiallyFilled, action, req, orderID, fmt.Sprintf("Filled %d/%d", filled, total))
	o.FilledContracts = filled

	c.events.Emit(event.New(event.KindGTC, event.Info, "부분 체결").
		With("order_id", orderID).
		With("filled", filled).
		With("total", total))

	return attempt{outcome: o, remainder: total - filled}
}

// fillOf는 체결 수량과 주문 수량을 정수 계약 수로 반환합니다.
// 응답에 주문 수량이 없으면 요청 수량을 사용합니다.
func fillOf(d *domain.OrderDetails, req domain.OrderRequest) (filled, total int64) {
	total = int64(math.Round(d.Size))
	if total <= 0 {
		total = req.Contracts
	}
	filled = int64(math.Round(d.DealSize))
	return filled, total
}
