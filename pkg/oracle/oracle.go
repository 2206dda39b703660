// Package oracle 提供以参考稳定币计价的报价源。
package oracle

import (
	"errors"
	"fmt"
)

// ErrPriceUnavailable 报价源明确表示没有流动性或没有价格
var ErrPriceUnavailable = errors.New("price unavailable")

func unavailable(symbol, reference, reason string) error {
	return fmt.Errorf("%w: %s/%s %s", ErrPriceUnavailable, symbol, reference, reason)
}
