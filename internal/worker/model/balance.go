package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentBalance 每个 (account, token) 只保留一行，upsert 目标
type CurrentBalance struct {
	ID               int64           `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	AccountID        int64           `gorm:"column:account_id;not null;uniqueIndex:uk_current_balances_account_token" json:"account_id"`
	TokenID          int64           `gorm:"column:token_id;not null;uniqueIndex:uk_current_balances_account_token" json:"token_id"`
	Balance          decimal.Decimal `gorm:"column:balance;type:numeric(78,18);not null" json:"balance"`
	BalanceUSD       decimal.Decimal `gorm:"column:balance_usd;type:numeric(38,18);not null" json:"balance_usd"`
	PriceUSD         decimal.Decimal `gorm:"column:price_usd;type:numeric(38,18);not null" json:"price_usd"`
	PriceUnavailable bool            `gorm:"column:price_unavailable;not null;default:false" json:"price_unavailable"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
}

func (CurrentBalance) TableName() string {
	return "current_balances"
}

// BalanceSnapshot 只追加的历史记录
type BalanceSnapshot struct {
	ID               int64           `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	AccountID        int64           `gorm:"column:account_id;not null;index:idx_balance_snapshots_account_recorded" json:"account_id"`
	TokenID          int64           `gorm:"column:token_id;not null" json:"token_id"`
	Balance          decimal.Decimal `gorm:"column:balance;type:numeric(78,18);not null" json:"balance"`
	BalanceUSD       decimal.Decimal `gorm:"column:balance_usd;type:numeric(38,18);not null" json:"balance_usd"`
	PriceUSD         decimal.Decimal `gorm:"column:price_usd;type:numeric(38,18);not null" json:"price_usd"`
	PriceUnavailable bool            `gorm:"column:price_unavailable;not null;default:false" json:"price_unavailable"`
	UpdatedAt        time.Time       `gorm:"column:updated_at;not null" json:"updated_at"`
	RecordedAt       time.Time       `gorm:"column:recorded_at;not null;index:idx_balance_snapshots_account_recorded" json:"recorded_at"`
}

func (BalanceSnapshot) TableName() string {
	return "balance_snapshots"
}

// BalanceKey (account, token) 组合键
type BalanceKey struct {
	AccountID int64
	TokenID   int64
}

func (b CurrentBalance) Key() BalanceKey {
	return BalanceKey{AccountID: b.AccountID, TokenID: b.TokenID}
}

// Snapshot 以当前缓存行生成一条历史记录
func (b CurrentBalance) Snapshot(recordedAt time.Time) BalanceSnapshot {
	return BalanceSnapshot{
		AccountID:        b.AccountID,
		TokenID:          b.TokenID,
		Balance:          b.Balance,
		BalanceUSD:       b.BalanceUSD,
		PriceUSD:         b.PriceUSD,
		PriceUnavailable: b.PriceUnavailable,
		UpdatedAt:        b.UpdatedAt,
		RecordedAt:       recordedAt,
	}
}
