package dao

import (
	"context"

	"balance-sync/internal/worker/model"

	"gorm.io/gorm"
)

// SyncRunDAO 同步审计记录
type SyncRunDAO interface {
	Create(ctx context.Context, run *model.SyncRun) error
}

type syncRunDAO struct {
	db *gorm.DB
}

func NewSyncRunDAO(db *gorm.DB) SyncRunDAO {
	return &syncRunDAO{db: db}
}

func (s *syncRunDAO) Create(ctx context.Context, run *model.SyncRun) error {
	return s.db.WithContext(ctx).Create(run).Error
}
