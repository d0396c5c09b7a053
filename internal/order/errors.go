package order

import (
	"errors"
	"fmt"
)

// Error 타입들은 주문 처리 중 발생할 수 있는 에러를 정의합니다
var (
	ErrExceedsMax      = fmt.Errorf("주문 금액이 최대 한도를 초과합니다")
	ErrBelowMin        = fmt.Errorf("주문 금액이 최소 한도 미만입니다")
	ErrModeMismatch    = fmt.Errorf("포지션 모드가 설정과 일치하지 않습니다")
	ErrResubmitLimit   = fmt.Errorf("GTC 재주문 한도에 도달했습니다")
	ErrOrderPlacement  = fmt.Errorf("주문 생성에 실패했습니다")
	ErrOrderNotFilled  = fmt.Errorf("GTC 주문이 체결되지 않았습니다")
	ErrOrderStatusLost = fmt.Errorf("GTC 주문 상태를 확인할 수 없습니다")
	ErrCancelFailed    = fmt.Errorf("미체결 잔량 취소에 실패했습니다")
)

// 원장과 결과에 기록하는 에러 코드입니다
const (
	CodeExceedsMax    = "EXCEEDS_MAX"
	CodeBelowMin      = "BELOW_MIN"
	CodeModeMismatch  = "MODE_MISMATCH"
	CodeResubmitLimit = "RESUBMIT_LIMIT"
)

// OrderError는 주문 처리 에러를 확장한 구조체입니다
type OrderError struct {
	Symbol string
	Op     string
	Err    error
}

// Error는 error 인터페이스를 구현합니다
func (e *OrderError) Error() string {
	if e.Symbol != "" {
		return fmt.Sprintf("주문 에러 [%s, 작업: %s]: %v", e.Symbol, e.Op, e.Err)
	}
	return fmt.Sprintf("주문 에러 [작업: %s]: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다 (errors.Is/As 지원을 위함)
func (e *OrderError) Unwrap() error {
	return e.Err
}

// NewOrderError는 새로운 OrderError를 생성합니다
func NewOrderError(symbol, op string, err error) *OrderError {
	return &OrderError{
		Symbol: symbol,
		Op:     op,
		Err:    err,
	}
}

// CodeOf는 에러에 해당하는 코드를 반환합니다. 알 수 없는 에러는 빈 문자열입니다.
func CodeOf(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrExceedsMax):
		return CodeExceedsMax
	case errors.Is(err, ErrBelowMin):
		return CodeBelowMin
	case errors.Is(err, ErrModeMismatch):
		return CodeModeMismatch
	case errors.Is(err, ErrResubmitLimit):
		return CodeResubmitLimit
	default:
		return ""
	}
}
