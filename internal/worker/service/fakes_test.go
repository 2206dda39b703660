package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"balance-sync/internal/worker/dao"
	"balance-sync/internal/worker/model"
	"balance-sync/pkg/oracle"
	"balance-sync/pkg/utils"

	"github.com/shopspring/decimal"
)

const (
	addrA     = "0x1111111111111111111111111111111111111111"
	addrB     = "0x2222222222222222222222222222222222222222"
	addrC     = "0x3333333333333333333333333333333333333333"
	usdcAddr  = "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48"
	wethAddr  = "0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2"
	usdceAddr = "0xff970a61a04b1ca14834a43f5de4533ebddb5cc8"
	scamAddr  = "0x9999999999999999999999999999999999999999"
)

var (
	usdcToken = model.Token{ID: 1, Symbol: "USDC", Name: "USD Coin", ContractAddress: usdcAddr, Decimals: 6, Network: "ETH", IsActive: true}
	wethToken = model.Token{ID: 2, Symbol: "WETH", Name: "Wrapped Ether", ContractAddress: wethAddr, Decimals: 18, Network: "ETH", IsActive: true}
)

type fakeAccounts struct {
	accounts []model.Account
	err      error
	calls    atomic.Int32
}

func (f *fakeAccounts) ListActive(context.Context) ([]model.Account, error) {
	f.calls.Add(1)
	return f.accounts, f.err
}

type fakeTokens struct {
	mu       sync.Mutex
	tokens   []model.Token
	err      error
	calls    atomic.Int32
	upserts  atomic.Int32
	inserted []model.Token
}

func (f *fakeTokens) ListActive(context.Context) ([]model.Token, error) {
	f.calls.Add(1)
	return f.tokens, f.err
}

func (f *fakeTokens) UpsertByContract(_ context.Context, token *model.Token) (*model.Token, error) {
	f.upserts.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	key := utils.TokenContractKey(token.Network, token.ContractAddress)
	for _, t := range append(append([]model.Token{}, f.tokens...), f.inserted...) {
		if utils.TokenContractKey(t.Network, strings.ToLower(t.ContractAddress)) == key {
			existing := t
			return &existing, nil
		}
	}
	stored := *token
	stored.ID = int64(100 + len(f.inserted))
	f.inserted = append(f.inserted, stored)
	return &stored, nil
}

// fakeBalances 内存版余额存储，事务失败时丢弃暂存数据
type fakeBalances struct {
	mu        sync.Mutex
	current   map[model.BalanceKey]model.CurrentBalance
	snapshots []model.BalanceSnapshot
	nextID    int64
	failOn    string
	txCalls   atomic.Int32
	loadedFor [][]int64
}

func newFakeBalances() *fakeBalances {
	return &fakeBalances{current: map[model.BalanceKey]model.CurrentBalance{}}
}

type stagedBalances struct {
	parent    *fakeBalances
	current   map[model.BalanceKey]model.CurrentBalance
	snapshots []model.BalanceSnapshot
	nextID    int64
}

func (f *fakeBalances) Transaction(ctx context.Context, fn func(store dao.BalanceStore) error) error {
	f.txCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()

	staged := &stagedBalances{parent: f, current: map[model.BalanceKey]model.CurrentBalance{}, nextID: f.nextID}
	for k, v := range f.current {
		staged.current[k] = v
	}
	if err := fn(staged); err != nil {
		return err
	}
	f.current = staged.current
	f.snapshots = append(f.snapshots, staged.snapshots...)
	f.nextID = staged.nextID
	return nil
}

func (f *fakeBalances) ListByAccounts(ctx context.Context, ids []int64) ([]model.CurrentBalance, error) {
	return nil, errors.New("use Transaction")
}
func (f *fakeBalances) UpdateBalances(context.Context, []model.CurrentBalance) error {
	return errors.New("use Transaction")
}
func (f *fakeBalances) InsertBalances(context.Context, []model.CurrentBalance) error {
	return errors.New("use Transaction")
}
func (f *fakeBalances) AppendSnapshots(context.Context, []model.BalanceSnapshot) error {
	return errors.New("use Transaction")
}

func (f *fakeBalances) writes() (current int, snapshots int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.current), len(f.snapshots)
}

func (s *stagedBalances) ListByAccounts(_ context.Context, ids []int64) ([]model.CurrentBalance, error) {
	s.parent.loadedFor = append(s.parent.loadedFor, ids)
	wanted := make(map[int64]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []model.CurrentBalance
	for _, row := range s.current {
		if wanted[row.AccountID] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *stagedBalances) UpdateBalances(_ context.Context, rows []model.CurrentBalance) error {
	if s.parent.failOn == "update" {
		return errors.New("update failed")
	}
	for _, row := range rows {
		if _, ok := s.current[row.Key()]; !ok {
			return errors.New("update of missing row")
		}
		s.current[row.Key()] = row
	}
	return nil
}

func (s *stagedBalances) InsertBalances(_ context.Context, rows []model.CurrentBalance) error {
	if s.parent.failOn == "insert" {
		return errors.New("insert failed")
	}
	for _, row := range rows {
		if _, ok := s.current[row.Key()]; ok {
			return errors.New("duplicate (account_id, token_id)")
		}
		s.nextID++
		row.ID = s.nextID
		s.current[row.Key()] = row
	}
	return nil
}

func (s *stagedBalances) AppendSnapshots(_ context.Context, rows []model.BalanceSnapshot) error {
	if s.parent.failOn == "snapshot" {
		return errors.New("snapshot failed")
	}
	s.snapshots = append(s.snapshots, rows...)
	return nil
}

type fakeRuns struct {
	mu   sync.Mutex
	runs []model.SyncRun
}

func (f *fakeRuns) Create(_ context.Context, run *model.SyncRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}

type fakeProvider struct {
	holdings map[string][]model.Holding
	errs     map[string]error
	calls    atomic.Int32
}

func (f *fakeProvider) GetWalletTokenBalances(_ context.Context, _ string, address string) ([]model.Holding, error) {
	f.calls.Add(1)
	if err, ok := f.errs[address]; ok {
		return nil, err
	}
	return f.holdings[address], nil
}

type fakeOracle struct {
	prices map[string]decimal.Decimal
	errs   map[string]error
	calls  atomic.Int32
	mu     sync.Mutex
	asked  []string
}

func (f *fakeOracle) Quote(_ context.Context, symbol, _ string, amount decimal.Decimal) (decimal.Decimal, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.asked = append(f.asked, symbol)
	f.mu.Unlock()
	if err, ok := f.errs[symbol]; ok {
		return decimal.Zero, err
	}
	price, ok := f.prices[symbol]
	if !ok {
		return decimal.Zero, oracle.ErrPriceUnavailable
	}
	return price.Mul(amount), nil
}

type recordingSink struct {
	name    string
	err     error
	results []*ReconcileResult
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Publish(_ context.Context, result *ReconcileResult) error {
	s.results = append(s.results, result)
	return s.err
}

func usdcHolding(raw string) model.Holding {
	return model.Holding{ContractAddress: usdcAddr, Symbol: "USDC", Name: "USD Coin", RawAmount: raw, Decimals: 6}
}

func wethHolding(raw string) model.Holding {
	return model.Holding{ContractAddress: wethAddr, Symbol: "WETH", Name: "Wrapped Ether", RawAmount: raw, Decimals: 18}
}
