package dao

import (
	"balance-sync/internal/worker/model"

	"gorm.io/gorm"
)

// DAOManager 管理所有DAO实例
type DAOManager struct {
	AccountDAO AccountDAO
	TokenDAO   TokenDAO
	BalanceDAO BalanceDAO
	SyncRunDAO SyncRunDAO
}

// NewDAOManager 创建DAO管理器实例
func NewDAOManager(db *gorm.DB) *DAOManager {
	return &DAOManager{
		AccountDAO: NewAccountDAO(db),
		TokenDAO:   NewTokenDAO(db),
		BalanceDAO: NewBalanceDAO(db),
		SyncRunDAO: NewSyncRunDAO(db),
	}
}

// AutoMigrate 建表，仅在 postgres.auto_migrate 打开时调用
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Account{},
		&model.Token{},
		&model.CurrentBalance{},
		&model.BalanceSnapshot{},
		&model.SyncRun{},
	)
}
