package exchange

import (
	"errors"
	"fmt"
	"strings"
)

// TransportError는 네트워크 오류나 타임아웃으로 실패한 호출을 나타냅니다
type TransportError struct {
	Op  string
	Err error
}

// Error는 error 인터페이스를 구현합니다
func (e *TransportError) Error() string {
	return fmt.Sprintf("%s 요청 실패: %v", e.Op, e.Err)
}

// Unwrap은 내부 에러를 반환합니다
func (e *TransportError) Unwrap() error {
	return e.Err
}

// APIError는 거래소가 성공 이외의 응답을 돌려준 경우입니다.
// Message는 거래소 메시지를 그대로 보관합니다.
// 인증 실패도 이 형태로 나타납니다.
type APIError struct {
	Op         string
	HTTPStatus int
	Code       string
	Message    string
}

// Error는 거래소 메시지를 수정 없이 반환합니다
func (e *APIError) Error() string {
	return e.Message
}

// VariantsError는 엔드포인트 변형을 모두 시도했지만 실패한 경우입니다.
// 마지막 에러 메시지를 그대로 보존합니다.
type VariantsError struct {
	Op    string
	Tried []string
	Last  error
}

// Error는 마지막 에러 메시지를 그대로 반환합니다
func (e *VariantsError) Error() string {
	if e.Last == nil {
		return fmt.Sprintf("%s: 모든 요청 방식 실패 (%s)", e.Op, strings.Join(e.Tried, ", "))
	}
	return e.Last.Error()
}

// Unwrap은 마지막 에러를 반환합니다
func (e *VariantsError) Unwrap() error {
	return e.Last
}

// IsTransport는 에러가 전송 계층 실패인지 확인합니다
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// AsAPIError는 에러 체인에서 APIError를 찾습니다
func AsAPIError(err error) (*APIError, bool) {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
