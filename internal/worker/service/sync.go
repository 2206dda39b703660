package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"balance-sync/internal/worker/cache"
	"balance-sync/internal/worker/config"
	"balance-sync/internal/worker/dao"
	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/monitor"
	"balance-sync/pkg/logger"

	"github.com/bytedance/sonic"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const tracerName = "balance-sync"

// AccountSummary 单账户同步结果
type AccountSummary struct {
	Account       string  `json:"account"`
	AccountID     int64   `json:"accountId"`
	TokensUpdated int     `json:"tokensUpdated"`
	TotalValueUSD float64 `json:"totalValueUsd"`
}

// SyncSummary 触发接口返回的结构
type SyncSummary struct {
	Success         bool             `json:"success"`
	Message         string           `json:"message"`
	Results         []AccountSummary `json:"results"`
	ExecutionTimeMs *int64           `json:"executionTimeMs,omitempty"`
	Timestamp       string           `json:"timestamp,omitempty"`
}

// Deps 同步所需的协作者，Runs/Lock/Sinks 可选
type Deps struct {
	Accounts dao.AccountDAO
	Tokens   dao.TokenDAO
	Balances dao.BalanceDAO
	Runs     dao.SyncRunDAO
	Provider BalanceProvider
	Oracle   PriceOracle
	Lock     cache.RunLock
	Sinks    []Sink
}

type Synchronizer struct {
	secret       []byte
	runTimeout   time.Duration
	allowList    []string
	accounts     dao.AccountDAO
	tokens       dao.TokenDAO
	runs         dao.SyncRunDAO
	lock         cache.RunLock
	sinks        []Sink
	orchestrator *Orchestrator
	resolver     *PriceResolver
	reconciler   *Reconciler
	tl           *zap.Logger
	now          func() time.Time
}

func NewSynchronizer(cfg config.Config, deps Deps, log *zap.Logger) (*Synchronizer, error) {
	refAmount, err := decimal.NewFromString(cfg.Oracle.ReferenceAmount)
	if err != nil || !refAmount.IsPositive() {
		return nil, fmt.Errorf("invalid oracle.reference_amount %q", cfg.Oracle.ReferenceAmount)
	}
	if deps.Lock == nil {
		deps.Lock = cache.NewLocalRunLock()
	}

	return &Synchronizer{
		secret:       []byte(cfg.Sync.Secret),
		runTimeout:   cfg.Sync.RunTimeoutDuration(),
		allowList:    cfg.Sync.StablecoinSymbols,
		accounts:     deps.Accounts,
		tokens:       deps.Tokens,
		runs:         deps.Runs,
		lock:         deps.Lock,
		sinks:        deps.Sinks,
		orchestrator: NewOrchestrator(NewFetcher(deps.Provider, deps.Tokens, log), cfg.Sync.BatchSize, log),
		resolver:     NewPriceResolver(deps.Oracle, cfg.Sync.ReferenceSymbol, refAmount, cfg.Oracle.Concurrency, log),
		reconciler:   NewReconciler(deps.Balances, cfg.Sync.UnpricedPolicy, log),
		tl:           log,
		now:          time.Now,
	}, nil
}

// Trigger 外部触发入口，凭证错误时直接返回，不做任何读取或外部调用
func (s *Synchronizer) Trigger(ctx context.Context, credential string) (*SyncSummary, error) {
	if len(s.secret) == 0 || subtle.ConstantTimeCompare([]byte(credential), s.secret) != 1 {
		return nil, ErrUnauthorized
	}
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}
	return s.Sync(ctx)
}

// Sync 执行一次完整同步，调度器直接调用
func (s *Synchronizer) Sync(ctx context.Context) (*SyncSummary, error) {
	release, ok, err := s.lock.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: acquire run lock: %w", ErrSetup, err)
	}
	if !ok {
		monitor.SyncRunsTotal.WithLabelValues("skipped").Inc()
		return nil, ErrRunInProgress
	}
	defer release()

	ctx, span := logger.StartSpan(ctx, tracerName, "balance_sync")
	defer span.End()
	tl := logger.NewLoggerWithTrace(ctx, s.tl)

	start := s.now()
	runAt := start.UTC()
	run := &model.SyncRun{StartedAt: runAt, Status: model.SyncRunFailed}

	accounts, err := s.accounts.ListActive(ctx)
	if err != nil {
		return nil, s.fail(ctx, tl, run, start, fmt.Errorf("%w: load accounts: %w", ErrSetup, err))
	}
	if len(accounts) == 0 {
		tl.Info("no active accounts, skip sync")
		monitor.SyncRunsTotal.WithLabelValues("empty").Inc()
		return &SyncSummary{Success: true, Message: "No active accounts", Results: []AccountSummary{}}, nil
	}

	tokens, err := s.tokens.ListActive(ctx)
	if err != nil {
		return nil, s.fail(ctx, tl, run, start, fmt.Errorf("%w: load tokens: %w", ErrSetup, err))
	}
	index := NewTokenIndex(tokens, s.allowList)
	tl.Info("balance sync started", zap.Int("accounts", len(accounts)), zap.Int("tokens", len(tokens)))

	batch := s.orchestrator.Run(ctx, accounts, index)
	book := s.resolver.Resolve(ctx, distinctSymbols(batch.Succeeded))

	result, err := s.reconciler.Apply(ctx, batch.Succeeded, book, runAt)
	if err != nil {
		run.AccountsTotal = len(accounts)
		run.AccountsFailed = len(batch.Failed)
		return nil, s.fail(ctx, tl, run, start, err)
	}

	s.publish(ctx, tl, result)

	elapsed := s.now().Sub(start)
	ms := elapsed.Milliseconds()
	summary := &SyncSummary{
		Success:         true,
		Message:         fmt.Sprintf("Synced %d of %d accounts", len(result.Accounts), len(accounts)),
		Results:         make([]AccountSummary, 0, len(result.Accounts)),
		ExecutionTimeMs: &ms,
		Timestamp:       runAt.Format(time.RFC3339),
	}
	for _, a := range result.Accounts {
		summary.Results = append(summary.Results, AccountSummary{
			Account:       a.Account.Address,
			AccountID:     a.Account.ID,
			TokensUpdated: a.TokensUpdated,
			TotalValueUSD: a.TotalValueUSD.InexactFloat64(),
		})
	}

	run.Status = model.SyncRunSucceeded
	run.AccountsTotal = len(accounts)
	run.AccountsSucceeded = len(batch.Succeeded)
	run.AccountsFailed = len(batch.Failed)
	run.BalancesUpdated = result.Updated
	run.BalancesInserted = result.Inserted
	run.SnapshotsAppended = result.Snapshots
	run.PricesUnresolved = pq.StringArray(result.Unpriced)
	for _, f := range batch.Failed {
		run.FailedAccounts = append(run.FailedAccounts, f.Account.ID)
	}
	if data, err := sonic.Marshal(summary); err == nil {
		run.Summary = datatypes.JSON(data)
	}
	s.record(ctx, tl, run, start)

	monitor.SyncRunsTotal.WithLabelValues(model.SyncRunSucceeded).Inc()
	monitor.SyncRunDuration.Observe(elapsed.Seconds())
	tl.Info("balance sync finished",
		zap.Int("accounts", len(accounts)),
		zap.Int("succeeded", len(batch.Succeeded)),
		zap.Int("failed", len(batch.Failed)),
		zap.Int("updated", result.Updated),
		zap.Int("inserted", result.Inserted),
		zap.Int("snapshots", result.Snapshots),
		zap.Strings("unpriced", result.Unpriced),
		zap.Duration("cost", elapsed))
	return summary, nil
}

func (s *Synchronizer) fail(ctx context.Context, tl *zap.Logger, run *model.SyncRun, start time.Time, err error) error {
	run.Status = model.SyncRunFailed
	run.Error = err.Error()
	s.record(ctx, tl, run, start)
	monitor.SyncRunsTotal.WithLabelValues(model.SyncRunFailed).Inc()
	monitor.SyncRunDuration.Observe(s.now().Sub(start).Seconds())
	tl.Error("balance sync failed", zap.Error(err))
	return err
}

func (s *Synchronizer) record(ctx context.Context, tl *zap.Logger, run *model.SyncRun, start time.Time) {
	if s.runs == nil {
		return
	}
	run.FinishedAt = run.StartedAt.Add(s.now().Sub(start))
	if err := s.runs.Create(context.WithoutCancel(ctx), run); err != nil {
		tl.Warn("record sync run failed", zap.Error(err))
	}
}

func (s *Synchronizer) publish(ctx context.Context, tl *zap.Logger, result *ReconcileResult) {
	sinkCtx := context.WithoutCancel(ctx)
	for _, sink := range s.sinks {
		if err := sink.Publish(sinkCtx, result); err != nil {
			monitor.SyncSinkFailures.WithLabelValues(sink.Name()).Inc()
			tl.Warn("post-commit sink failed", zap.String("sink", sink.Name()), zap.Error(err))
		}
	}
}

func distinctSymbols(fetched []model.AccountHoldings) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, h := range fetched {
		for _, a := range h.Amounts {
			sym := model.NormalizeSymbol(a.Token.Symbol)
			if _, ok := seen[sym]; ok {
				continue
			}
			seen[sym] = struct{}{}
			out = append(out, sym)
		}
	}
	return out
}
