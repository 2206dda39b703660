package dao

import (
	"context"

	"balance-sync/internal/worker/model"

	"gorm.io/gorm"
)

type accountDAO struct {
	db *gorm.DB
}

func NewAccountDAO(db *gorm.DB) AccountDAO {
	return &accountDAO{db: db}
}

func (a *accountDAO) ListActive(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := a.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("id").
		Find(&accounts).Error
	if err != nil {
		return nil, err
	}
	return accounts, nil
}
