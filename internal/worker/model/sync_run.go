package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

const (
	SyncRunSucceeded = "succeeded"
	SyncRunFailed    = "failed"
)

// SyncRun 每次同步的审计记录
type SyncRun struct {
	ID                int64          `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	StartedAt         time.Time      `gorm:"column:started_at;not null;index" json:"started_at"`
	FinishedAt        time.Time      `gorm:"column:finished_at;not null" json:"finished_at"`
	Status            string         `gorm:"column:status;type:varchar(16);not null" json:"status"`
	AccountsTotal     int            `gorm:"column:accounts_total" json:"accounts_total"`
	AccountsSucceeded int            `gorm:"column:accounts_succeeded" json:"accounts_succeeded"`
	AccountsFailed    int            `gorm:"column:accounts_failed" json:"accounts_failed"`
	BalancesUpdated   int            `gorm:"column:balances_updated" json:"balances_updated"`
	BalancesInserted  int            `gorm:"column:balances_inserted" json:"balances_inserted"`
	SnapshotsAppended int            `gorm:"column:snapshots_appended" json:"snapshots_appended"`
	PricesUnresolved  pq.StringArray `gorm:"column:prices_unresolved;type:text[]" json:"prices_unresolved"`
	FailedAccounts    pq.Int64Array  `gorm:"column:failed_accounts;type:bigint[]" json:"failed_accounts"`
	Summary           datatypes.JSON `gorm:"column:summary" json:"summary"`
	Error             string         `gorm:"column:error;type:text" json:"error"`
}

func (SyncRun) TableName() string {
	return "sync_runs"
}
