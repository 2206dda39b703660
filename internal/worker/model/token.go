package model

import (
	"strings"
	"time"
)

// Token 同一网络下 contract_address 唯一
type Token struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement:true" json:"id"`
	Symbol          string    `gorm:"column:symbol;type:varchar(64);not null;index" json:"symbol"`
	Name            string    `gorm:"column:name;type:varchar(256)" json:"name"`
	ContractAddress string    `gorm:"column:contract_address;type:varchar(128);not null;uniqueIndex:uk_tokens_contract_network" json:"contract_address"`
	Decimals        int32     `gorm:"column:decimals;not null" json:"decimals"`
	Network         string    `gorm:"column:network;type:varchar(32);not null;uniqueIndex:uk_tokens_contract_network" json:"network"`
	IsActive        bool      `gorm:"column:is_active;not null;default:true" json:"is_active"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Token) TableName() string {
	return "tokens"
}

// NormalizeSymbol 符号统一大写比较
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
