package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioSummary 单账户估值，提交后写入缓存供查询使用
type PortfolioSummary struct {
	AccountID     int64           `json:"account_id"`
	UserID        string          `json:"user_id"`
	Address       string          `json:"address"`
	Network       string          `json:"network"`
	TokenCount    int             `json:"token_count"`
	TotalValueUSD decimal.Decimal `json:"total_value_usd"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// SnapshotEvent 投递到 Kafka 的快照消息
type SnapshotEvent struct {
	AccountID        int64     `json:"account_id"`
	Address          string    `json:"address"`
	Network          string    `json:"network"`
	TokenID          int64     `json:"token_id"`
	Symbol           string    `json:"symbol"`
	ContractAddress  string    `json:"contract_address"`
	Balance          string    `json:"balance"`
	BalanceUSD       string    `json:"balance_usd"`
	PriceUSD         string    `json:"price_usd"`
	PriceUnavailable bool      `json:"price_unavailable"`
	RecordedAt       time.Time `json:"recorded_at"`
}
