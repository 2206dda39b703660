package portfolio

import (
	"context"
	"time"

	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/writer"
	"balance-sync/pkg/utils"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// PORTFOLIO_TTL 略长于同步周期，停止同步后自然过期
const PORTFOLIO_TTL = 26 * time.Hour

type RedisPortfolioWriter struct {
	rdb *redis.Client
	tl  *zap.Logger
	ttl time.Duration
}

func NewRedisPortfolioWriter(rdb *redis.Client, tl *zap.Logger) writer.BatchWriter[model.PortfolioSummary] {
	return &RedisPortfolioWriter{rdb: rdb, tl: tl, ttl: PORTFOLIO_TTL}
}

func (w *RedisPortfolioWriter) BWrite(ctx context.Context, summaries []model.PortfolioSummary) error {
	if len(summaries) == 0 {
		return nil
	}

	pipe := w.rdb.Pipeline()
	for _, s := range summaries {
		data, err := sonic.Marshal(s)
		if err != nil {
			w.tl.Warn("marshal portfolio summary failed", zap.Int64("account_id", s.AccountID), zap.Error(err))
			continue
		}
		pipe.Set(ctx, utils.PortfolioSummaryKey(s.AccountID), data, w.ttl)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		w.tl.Warn("redis portfolio pipeline failed", zap.Int("len", len(summaries)), zap.Error(err))
		return err
	}
	return nil
}

func (w *RedisPortfolioWriter) Close() error {
	return nil
}
