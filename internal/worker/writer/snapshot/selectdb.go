package snapshot

import (
	"context"
	"time"

	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/writer"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

const selectDBBatchSize = 3000

// SelectDBSnapshotWriter 将已提交的快照镜像到分析库
type SelectDBSnapshotWriter struct {
	db *gorm.DB
	tl *zap.Logger
}

func NewSelectDBSnapshotWriter(db *gorm.DB, tl *zap.Logger) writer.BatchWriter[model.BalanceSnapshot] {
	return &SelectDBSnapshotWriter{db: db, tl: tl}
}

func (sw *SelectDBSnapshotWriter) BWrite(ctx context.Context, snapshots []model.BalanceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	start := time.Now()

	newCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var err error
	for attempt := 0; attempt < writer.RETRY_COUNT; attempt++ {
		err = sw.db.WithContext(newCtx).CreateInBatches(snapshots, selectDBBatchSize).Error
		if err == nil {
			break
		}
		sw.tl.Warn("❌ SelectDB insert failed", zap.Int("attempt", attempt+1), zap.Error(err))
		time.Sleep(100 * time.Millisecond)
	}
	if err != nil {
		return err
	}

	sw.tl.Info("✅ SelectDB snapshot mirror success", zap.Int("len", len(snapshots)), zap.Duration("cost", time.Since(start)))
	return nil
}

func (sw *SelectDBSnapshotWriter) Close() error {
	return nil
}
