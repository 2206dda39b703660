package dao

import (
	"context"
	"fmt"

	"balance-sync/internal/worker/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const balanceBatchSize = 500

type balanceDAO struct {
	db *gorm.DB
}

func NewBalanceDAO(db *gorm.DB) BalanceDAO {
	return &balanceDAO{db: db}
}

func (b *balanceDAO) Transaction(ctx context.Context, fn func(store BalanceStore) error) error {
	return b.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&balanceDAO{db: tx})
	})
}

func (b *balanceDAO) ListByAccounts(ctx context.Context, accountIDs []int64) ([]model.CurrentBalance, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	var balances []model.CurrentBalance
	err := b.db.WithContext(ctx).
		Where("account_id IN ?", accountIDs).
		Find(&balances).Error
	if err != nil {
		return nil, err
	}
	return balances, nil
}

func (b *balanceDAO) UpdateBalances(ctx context.Context, balances []model.CurrentBalance) error {
	for _, bal := range balances {
		err := b.db.WithContext(ctx).
			Model(&model.CurrentBalance{}).
			Where("id = ?", bal.ID).
			Updates(map[string]interface{}{
				"balance":           bal.Balance,
				"balance_usd":       bal.BalanceUSD,
				"price_usd":         bal.PriceUSD,
				"price_unavailable": bal.PriceUnavailable,
				"updated_at":        bal.UpdatedAt,
			}).Error
		if err != nil {
			return fmt.Errorf("update balance id=%d: %w", bal.ID, err)
		}
	}
	return nil
}

func (b *balanceDAO) InsertBalances(ctx context.Context, balances []model.CurrentBalance) error {
	if len(balances) == 0 {
		return nil
	}
	return b.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "account_id"}, {Name: "token_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"balance", "balance_usd", "price_usd", "price_unavailable", "updated_at"}),
		}).
		CreateInBatches(balances, balanceBatchSize).Error
}

func (b *balanceDAO) AppendSnapshots(ctx context.Context, snapshots []model.BalanceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return b.db.WithContext(ctx).CreateInBatches(snapshots, balanceBatchSize).Error
}
