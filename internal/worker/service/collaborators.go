package service

import (
	"context"

	"balance-sync/internal/worker/model"

	"github.com/shopspring/decimal"
)

// BalanceProvider 链上持仓数据源，每个账户每次同步调用一次
type BalanceProvider interface {
	GetWalletTokenBalances(ctx context.Context, network string, address string) ([]model.Holding, error)
}

// PriceOracle 返回卖出 amount 个 symbol 可换得的 reference 数量，
// 无流动性时返回 oracle.ErrPriceUnavailable
type PriceOracle interface {
	Quote(ctx context.Context, symbol, reference string, amount decimal.Decimal) (decimal.Decimal, error)
}
