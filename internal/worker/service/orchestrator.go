package service

import (
	"context"
	"fmt"
	"sort"

	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/monitor"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"
)

type accountFetcher interface {
	Fetch(ctx context.Context, account model.Account, index *TokenIndex) (model.AccountHoldings, error)
}

// AccountFailure 单账户失败，不影响其他账户
type AccountFailure struct {
	Account model.Account
	Err     error
}

// BatchResult 所有分组完成后的汇总
type BatchResult struct {
	Succeeded []model.AccountHoldings
	Failed    []AccountFailure
}

type accountOutcome struct {
	pos      int
	holdings model.AccountHoldings
	err      error
}

// Orchestrator 按 batchSize 分组，组内并发拉取，组间串行
type Orchestrator struct {
	fetcher   accountFetcher
	batchSize int
	tl        *zap.Logger
}

func NewOrchestrator(fetcher accountFetcher, batchSize int, logger *zap.Logger) *Orchestrator {
	if batchSize <= 0 {
		batchSize = 1
	}
	return &Orchestrator{fetcher: fetcher, batchSize: batchSize, tl: logger}
}

func (o *Orchestrator) Run(ctx context.Context, accounts []model.Account, index *TokenIndex) BatchResult {
	outcomes := make([]accountOutcome, 0, len(accounts))
	for start := 0; start < len(accounts); start += o.batchSize {
		end := min(start+o.batchSize, len(accounts))
		outcomes = append(outcomes, o.runGroup(ctx, accounts, start, end, index)...)
		o.tl.Debug("batch group done", zap.Int("from", start), zap.Int("to", end), zap.Int("total", len(accounts)))
	}
	sort.Slice(outcomes, func(i, j int) bool { return outcomes[i].pos < outcomes[j].pos })

	var result BatchResult
	for _, out := range outcomes {
		account := accounts[out.pos]
		if out.err != nil {
			monitor.SyncAccountsProcessed.WithLabelValues("failed").Inc()
			o.tl.Warn("account sync failed",
				zap.Int64("account_id", account.ID),
				zap.String("address", account.Address),
				zap.String("network", account.Network),
				zap.Error(out.err))
			result.Failed = append(result.Failed, AccountFailure{Account: account, Err: out.err})
			continue
		}
		if len(out.holdings.Amounts) == 0 {
			monitor.SyncAccountsProcessed.WithLabelValues("empty").Inc()
		} else {
			monitor.SyncAccountsProcessed.WithLabelValues("succeeded").Inc()
		}
		result.Succeeded = append(result.Succeeded, out.holdings)
	}
	return result
}

func (o *Orchestrator) runGroup(ctx context.Context, accounts []model.Account, start, end int, index *TokenIndex) []accountOutcome {
	p := pool.NewWithResults[accountOutcome]().WithMaxGoroutines(o.batchSize)
	for i := start; i < end; i++ {
		p.Go(func() accountOutcome {
			return o.fetchOne(ctx, i, accounts[i], index)
		})
	}
	return p.Wait()
}

func (o *Orchestrator) fetchOne(ctx context.Context, pos int, account model.Account, index *TokenIndex) (out accountOutcome) {
	out.pos = pos
	defer func() {
		if rec := recover(); rec != nil {
			out.err = fmt.Errorf("fetch panicked: %v", rec)
		}
	}()
	if err := ctx.Err(); err != nil {
		out.err = err
		return out
	}
	out.holdings, out.err = o.fetcher.Fetch(ctx, account, index)
	return out
}
