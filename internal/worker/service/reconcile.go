package service

import (
	"context"
	"fmt"
	"time"

	"balance-sync/internal/worker/config"
	"balance-sync/internal/worker/dao"
	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/monitor"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ComputedBalance 一个 (account, token) 的本次计算结果
type ComputedBalance struct {
	Account model.Account
	Token   model.Token
	Balance model.CurrentBalance
}

// AccountResult 单账户估值汇总
type AccountResult struct {
	Account       model.Account
	TokensUpdated int
	TotalValueUSD decimal.Decimal
}

// ReconcileResult 事务提交后的结果，供汇总和提交后写出使用
type ReconcileResult struct {
	RunAt     time.Time
	Accounts  []AccountResult
	Balances  []ComputedBalance
	Updated   int
	Inserted  int
	Snapshots int
	Unpriced  []string
	Skipped   int
}

type Reconciler struct {
	balances dao.BalanceDAO
	policy   string
	tl       *zap.Logger
}

func NewReconciler(balances dao.BalanceDAO, policy string, logger *zap.Logger) *Reconciler {
	if policy == "" {
		policy = config.UnpricedFlag
	}
	return &Reconciler{balances: balances, policy: policy, tl: logger}
}

// Apply 先在内存中生成完整计划，再在一个事务里完成 load/update/insert/snapshot
func (r *Reconciler) Apply(ctx context.Context, fetched []model.AccountHoldings, book PriceBook, runAt time.Time) (*ReconcileResult, error) {
	result := &ReconcileResult{RunAt: runAt, Unpriced: book.Unresolved()}

	accountIDs := make([]int64, 0, len(fetched))
	seen := make(map[model.BalanceKey]struct{})
	for _, holdings := range fetched {
		accountResult := AccountResult{Account: holdings.Account, TotalValueUSD: decimal.Zero}
		for _, amount := range holdings.Amounts {
			bal, ok := r.value(holdings.Account, amount, book, runAt)
			if !ok {
				result.Skipped++
				continue
			}
			if _, dup := seen[bal.Key()]; dup {
				r.tl.Warn("duplicate balance in run, keeping first",
					zap.Int64("account_id", bal.AccountID), zap.Int64("token_id", bal.TokenID))
				continue
			}
			seen[bal.Key()] = struct{}{}

			result.Balances = append(result.Balances, ComputedBalance{Account: holdings.Account, Token: amount.Token, Balance: bal})
			accountResult.TokensUpdated++
			accountResult.TotalValueUSD = accountResult.TotalValueUSD.Add(bal.BalanceUSD)
		}
		if accountResult.TokensUpdated == 0 {
			continue
		}
		accountIDs = append(accountIDs, holdings.Account.ID)
		result.Accounts = append(result.Accounts, accountResult)
	}

	if len(result.Balances) == 0 {
		return result, nil
	}

	err := r.balances.Transaction(ctx, func(store dao.BalanceStore) error {
		existing, err := store.ListByAccounts(ctx, accountIDs)
		if err != nil {
			return fmt.Errorf("load current balances: %w", err)
		}
		byKey := make(map[model.BalanceKey]int64, len(existing))
		for _, row := range existing {
			byKey[row.Key()] = row.ID
		}

		var updates, inserts []model.CurrentBalance
		snapshots := make([]model.BalanceSnapshot, 0, len(result.Balances))
		for _, cb := range result.Balances {
			bal := cb.Balance
			if id, ok := byKey[bal.Key()]; ok {
				bal.ID = id
				updates = append(updates, bal)
			} else {
				inserts = append(inserts, bal)
			}
			snapshots = append(snapshots, bal.Snapshot(runAt))
		}

		if err := store.UpdateBalances(ctx, updates); err != nil {
			return err
		}
		if err := store.InsertBalances(ctx, inserts); err != nil {
			return fmt.Errorf("insert current balances: %w", err)
		}
		if err := store.AppendSnapshots(ctx, snapshots); err != nil {
			return fmt.Errorf("append snapshots: %w", err)
		}

		result.Updated = len(updates)
		result.Inserted = len(inserts)
		result.Snapshots = len(snapshots)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}

	monitor.SyncBalanceWrites.WithLabelValues("update").Add(float64(result.Updated))
	monitor.SyncBalanceWrites.WithLabelValues("insert").Add(float64(result.Inserted))
	monitor.SyncBalanceWrites.WithLabelValues("snapshot").Add(float64(result.Snapshots))
	return result, nil
}

// value 按未定价策略计算估值，返回 false 表示该持仓不写入
func (r *Reconciler) value(account model.Account, amount model.TokenAmount, book PriceBook, runAt time.Time) (model.CurrentBalance, bool) {
	bal := model.CurrentBalance{
		AccountID: account.ID,
		TokenID:   amount.Token.ID,
		Balance:   amount.Amount,
		UpdatedAt: runAt,
	}

	quote := book.Get(amount.Token.Symbol)
	if quote.Resolved {
		bal.PriceUSD = quote.Price
		bal.BalanceUSD = amount.Amount.Mul(quote.Price)
		return bal, true
	}

	switch r.policy {
	case config.UnpricedSkip:
		return bal, false
	case config.UnpricedPeg:
		bal.PriceUSD = decimal.NewFromInt(1)
		bal.BalanceUSD = amount.Amount
	default:
		bal.PriceUSD = decimal.Zero
		bal.BalanceUSD = decimal.Zero
	}
	bal.PriceUnavailable = true
	return bal, true
}
