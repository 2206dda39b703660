package dao

import (
	"context"

	"balance-sync/internal/worker/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// tokenDAO 实现TokenDAO接口
type tokenDAO struct {
	db *gorm.DB
}

// NewTokenDAO 创建TokenDAO实例
func NewTokenDAO(db *gorm.DB) TokenDAO {
	return &tokenDAO{db: db}
}

func (t *tokenDAO) ListActive(ctx context.Context) ([]model.Token, error) {
	var tokens []model.Token
	err := t.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&tokens).Error
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

// UpsertByContract 不做进程内缓存，每次回查以拿到最新的 is_active
func (t *tokenDAO) UpsertByContract(ctx context.Context, token *model.Token) (*model.Token, error) {
	// 并发发现同一代币时由唯一索引去重
	err := t.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "contract_address"}, {Name: "network"}},
			DoNothing: true,
		}).
		Create(token).Error
	if err != nil {
		return nil, err
	}

	var stored model.Token
	err = t.db.WithContext(ctx).
		Where("contract_address = ? AND network = ?", token.ContractAddress, token.Network).
		First(&stored).Error
	if err != nil {
		return nil, err
	}
	return &stored, nil
}
