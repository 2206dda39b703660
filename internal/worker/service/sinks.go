package service

import (
	"context"

	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/writer"
)

// Sink 事务提交后的下游写出，失败只记录不影响本次同步结果
type Sink interface {
	Name() string
	Publish(ctx context.Context, result *ReconcileResult) error
}

type writerSink[T any] struct {
	name  string
	w     writer.BatchWriter[T]
	build func(result *ReconcileResult) []T
}

func (s *writerSink[T]) Name() string {
	return s.name
}

func (s *writerSink[T]) Publish(ctx context.Context, result *ReconcileResult) error {
	items := s.build(result)
	if len(items) == 0 {
		return nil
	}
	return s.w.BWrite(ctx, items)
}

// NewPortfolioSink 每个账户一条估值汇总
func NewPortfolioSink(w writer.BatchWriter[model.PortfolioSummary]) Sink {
	return &writerSink[model.PortfolioSummary]{name: "portfolio", w: w, build: portfolioSummaries}
}

// NewSnapshotEventSink 每条快照一条事件
func NewSnapshotEventSink(w writer.BatchWriter[model.SnapshotEvent]) Sink {
	return &writerSink[model.SnapshotEvent]{name: "snapshot_event", w: w, build: snapshotEvents}
}

// NewSnapshotMirrorSink 快照镜像到分析库
func NewSnapshotMirrorSink(w writer.BatchWriter[model.BalanceSnapshot]) Sink {
	return &writerSink[model.BalanceSnapshot]{name: "snapshot_mirror", w: w, build: snapshotRows}
}

func portfolioSummaries(result *ReconcileResult) []model.PortfolioSummary {
	out := make([]model.PortfolioSummary, 0, len(result.Accounts))
	for _, a := range result.Accounts {
		out = append(out, model.PortfolioSummary{
			AccountID:     a.Account.ID,
			UserID:        a.Account.UserID,
			Address:       a.Account.Address,
			Network:       a.Account.Network,
			TokenCount:    a.TokensUpdated,
			TotalValueUSD: a.TotalValueUSD,
			UpdatedAt:     result.RunAt,
		})
	}
	return out
}

func snapshotEvents(result *ReconcileResult) []model.SnapshotEvent {
	out := make([]model.SnapshotEvent, 0, len(result.Balances))
	for _, cb := range result.Balances {
		out = append(out, model.SnapshotEvent{
			AccountID:        cb.Account.ID,
			Address:          cb.Account.Address,
			Network:          cb.Account.Network,
			TokenID:          cb.Token.ID,
			Symbol:           cb.Token.Symbol,
			ContractAddress:  cb.Token.ContractAddress,
			Balance:          cb.Balance.Balance.String(),
			BalanceUSD:       cb.Balance.BalanceUSD.String(),
			PriceUSD:         cb.Balance.PriceUSD.String(),
			PriceUnavailable: cb.Balance.PriceUnavailable,
			RecordedAt:       result.RunAt,
		})
	}
	return out
}

func snapshotRows(result *ReconcileResult) []model.BalanceSnapshot {
	out := make([]model.BalanceSnapshot, 0, len(result.Balances))
	for _, cb := range result.Balances {
		out = append(out, cb.Balance.Snapshot(result.RunAt))
	}
	return out
}
