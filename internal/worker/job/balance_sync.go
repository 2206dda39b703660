package job

import (
	"context"
	"errors"

	"balance-sync/internal/worker/service"

	"go.uber.org/zap"
)

const BalanceSyncJobName = "balance_sync"

type syncer interface {
	Sync(ctx context.Context) (*service.SyncSummary, error)
}

// BalanceSync 定时执行余额同步
type BalanceSync struct {
	sync syncer
	tl   *zap.Logger
}

func NewBalanceSync(sync syncer, logger *zap.Logger) *BalanceSync {
	return &BalanceSync{sync: sync, tl: logger}
}

func (j *BalanceSync) Run(ctx context.Context) error {
	summary, err := j.sync.Sync(ctx)
	if errors.Is(err, service.ErrRunInProgress) {
		// 手动触发的同步仍在进行，跳过本轮
		j.tl.Info("balance sync skipped, previous run still in progress")
		return nil
	}
	if err != nil {
		return err
	}
	j.tl.Info("balance sync job done", zap.String("message", summary.Message), zap.Int("accounts", len(summary.Results)))
	return nil
}
