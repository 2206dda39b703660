package dao

import (
	"context"

	"balance-sync/internal/worker/model"
)

// BalanceStore 余额缓存与历史的读写
type BalanceStore interface {
	// ListByAccounts 只加载本次涉及账户的缓存行
	ListByAccounts(ctx context.Context, accountIDs []int64) ([]model.CurrentBalance, error)

	// UpdateBalances 按 id 更新已存在的缓存行
	UpdateBalances(ctx context.Context, balances []model.CurrentBalance) error

	// InsertBalances 插入新缓存行，(account_id, token_id) 冲突时覆盖
	InsertBalances(ctx context.Context, balances []model.CurrentBalance) error

	// AppendSnapshots 追加历史记录
	AppendSnapshots(ctx context.Context, snapshots []model.BalanceSnapshot) error
}

// BalanceDAO 在单个事务中执行 fn，fn 返回错误时整体回滚
type BalanceDAO interface {
	BalanceStore
	Transaction(ctx context.Context, fn func(store BalanceStore) error) error
}
