package model

import "time"

// Account 托管中的钱包，由开户流程写入，同步任务只读取 is_active 的记录
type Account struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	UserID    string    `gorm:"column:user_id;type:varchar(128);not null;index" json:"user_id"`
	Address   string    `gorm:"column:address;type:varchar(128);not null" json:"address"`
	Network   string    `gorm:"column:network;type:varchar(32);not null" json:"network"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true;index" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
}

func (Account) TableName() string {
	return "wallet_accounts"
}
