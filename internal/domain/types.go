package domain

import (
	"fmt"
	"strings"
)

// OrderSide는 주문 방향을 정의합니다
type OrderSide string

const (
	Buy  OrderSide = "buy"
	Sell OrderSide = "sell"
)

// OrderType은 주문 유형을 정의합니다
type OrderType string

const (
	Market OrderType = "market"
	Limit  OrderType = "limit"
)

// TimeInForce는 지정가 주문의 유효 기간 정책을 정의합니다
type TimeInForce string

const (
	IOC TimeInForce = "IOC" // 즉시 체결 후 잔량 취소
	FOK TimeInForce = "FOK" // 전량 체결 아니면 취소
	GTC TimeInForce = "GTC" // 취소 전까지 유효
)

// MarginMode는 마진 모드를 정의합니다
type MarginMode string

const (
	Isolated MarginMode = "ISOLATED"
	Cross    MarginMode = "CROSS"
)

// PositionMode는 계정의 포지션 모드를 정의합니다
type PositionMode string

const (
	OneWay    PositionMode = "ONE_WAY"
	HedgeMode PositionMode = "HEDGE_MODE"
)

// PositionModeFromWire는 거래소의 정수 인코딩을 포지션 모드로 변환합니다.
// 0, 1 이외의 값은 기본값으로 대체하지 않고 에러를 반환합니다.
func PositionModeFromWire(v int) (PositionMode, error) {
	switch v {
	case 0:
		return OneWay, nil
	case 1:
		return HedgeMode, nil
	default:
		return "", fmt.Errorf("알 수 없는 포지션 모드 값: %d", v)
	}
}

// Wire는 포지션 모드를 거래소 정수 인코딩으로 변환합니다
func (m PositionMode) Wire() (int, error) {
	switch m {
	case OneWay:
		return 0, nil
	case HedgeMode:
		return 1, nil
	default:
		return -1, fmt.Errorf("잘못된 포지션 모드: %q (ONE_WAY 또는 HEDGE_MODE)", string(m))
	}
}

// ParseOrderType은 설정 문자열을 주문 유형으로 변환합니다
func ParseOrderType(s string) (OrderType, error) {
	switch OrderType(strings.ToLower(strings.TrimSpace(s))) {
	case Market:
		return Market, nil
	case Limit:
		return Limit, nil
	default:
		return "", fmt.Errorf("잘못된 주문 유형: %q (market 또는 limit)", s)
	}
}

// ParseTimeInForce는 설정 문자열을 TIF로 변환합니다
func ParseTimeInForce(s string) (TimeInForce, error) {
	switch TimeInForce(strings.ToUpper(strings.TrimSpace(s))) {
	case IOC:
		return IOC, nil
	case FOK:
		return FOK, nil
	case GTC:
		return GTC, nil
	default:
		return "", fmt.Errorf("잘못된 TIF: %q (IOC, FOK, GTC)", s)
	}
}

// ParseMarginMode는 설정 문자열을 마진 모드로 변환합니다
func ParseMarginMode(s string) (MarginMode, error) {
	switch MarginMode(strings.ToUpper(strings.TrimSpace(s))) {
	case Isolated:
		return Isolated, nil
	case Cross:
		return Cross, nil
	default:
		return "", fmt.Errorf("잘못된 마진 모드: %q (ISOLATED 또는 CROSS)", s)
	}
}

// ParsePositionMode는 설정 문자열을 포지션 모드로 변환합니다
func ParsePositionMode(s string) (PositionMode, error) {
	switch PositionMode(strings.ToUpper(strings.TrimSpace(s))) {
	case OneWay:
		return OneWay, nil
	case HedgeMode:
		return HedgeMode, nil
	default:
		return "", fmt.Errorf("잘못된 포지션 모드: %q (ONE_WAY 또는 HEDGE_MODE)", s)
	}
}

// Action은 리밸런싱 방향을 정의합니다
type Action string

const (
	ActionNone       Action = "NONE"
	ActionOpenShort  Action = "OPEN_SHORT"
	ActionCloseShort Action = "CLOSE_SHORT"
)

// Side는 액션에 해당하는 주문 방향을 반환합니다
func (a Action) Side() OrderSide {
	if a == ActionCloseShort {
		return Buy
	}
	return Sell
}

// ReduceOnly는 액션이 기존 숏을 줄이는 주문인지 반환합니다
func (a Action) ReduceOnly() bool {
	return a == ActionCloseShort
}
