package kucoin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/assist-by/rebalancer/internal/event"
	"github.com/assist-by/rebalancer/internal/exchange"
)

// requestVariant는 같은 데이터를 조회하는 엔드포인트 형태 하나입니다
type requestVariant struct {
	name string
	path string
}

// currencyVariants는 파라미터 없는 형태를 먼저, 통화 지정 형태를 나중에 시도합니다
func currencyVariants(base, currency string) []requestVariant {
	return []requestVariant{
		{name: "without parameters", path: base},
		{
			name: fmt.Sprintf("with currency=%s", currency),
			path: base + "?currency=" + url.QueryEscape(currency),
		},
	}
}

// tryVariants는 변형을 순서대로 즉시 시도합니다.
// HTTP 400이나 실패 코드는 다음 변형으로 넘어가며 모두 실패한 경우에만 에러를 반환합니다.
func (c *Client) tryVariants(ctx context.Context, op string, variants []requestVariant) (json.RawMessage, error) {
	tried := make([]string, 0, len(variants))
	var last error

	for _, v := range variants {
		tried = append(tried, v.name)

		data, err := c.doRequest(ctx, op, http.MethodGet, v.path, nil, true)
		if err != nil {
			c.events.Emit(event.New(event.KindAccount, event.Debug,
				fmt.Sprintf("%s 실패 (%s), 다음 방식 시도", op, v.name)).
				With("error", err.Error()))
			last = err
			continue
		}

		c.events.Emit(event.New(event.KindAccount, event.Info,
			fmt.Sprintf("%s 성공 (방식: %s)", op, v.name)))
		return data, nil
	}

	c.events.Emit(event.New(event.KindAccount, event.Error,
		fmt.Sprintf("%s 실패 - 모든 방식 시도", op)).
		With("last_error", errString(last)))

	return nil, &exchange.VariantsError{Op: op, Tried: tried, Last: last}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
