package service

import (
	"context"
	"fmt"
	"strings"

	"balance-sync/internal/worker/dao"
	"balance-sync/internal/worker/model"
	"balance-sync/internal/worker/monitor"
	"balance-sync/pkg/utils"

	"go.uber.org/zap"
)

const (
	discardSpam     = "spam"
	discardZero     = "zero"
	discardUnknown  = "unknown"
	discardInactive = "inactive"
)

// Fetcher 拉取单个账户持仓并归一化，价格留给 PriceResolver
type Fetcher struct {
	provider BalanceProvider
	tokens   dao.TokenDAO
	tl       *zap.Logger
}

func NewFetcher(provider BalanceProvider, tokens dao.TokenDAO, logger *zap.Logger) *Fetcher {
	return &Fetcher{provider: provider, tokens: tokens, tl: logger}
}

// Fetch 返回的错误只代表该账户失败
func (f *Fetcher) Fetch(ctx context.Context, account model.Account, index *TokenIndex) (model.AccountHoldings, error) {
	result := model.AccountHoldings{Account: account}
	if err := utils.ValidateAddress(account.Address, account.Network); err != nil {
		return result, err
	}

	holdings, err := f.provider.GetWalletTokenBalances(ctx, account.Network, account.Address)
	if err != nil {
		return result, fmt.Errorf("fetch balances for %s: %w", account.Address, err)
	}
	holdings = utils.DeduplicateHoldings(account.Network, holdings)

	for _, h := range holdings {
		if h.PossibleSpam {
			f.discard(account, h, discardSpam)
			continue
		}

		// 未识别的代币直接丢弃，不解析余额
		token, known := index.Lookup(account.Network, h.ContractAddress)
		if !known && !index.Recognizes(h.Symbol) {
			f.discard(account, h, discardUnknown)
			continue
		}

		amount, err := utils.ParseRawAmount(h.RawAmount, h.Decimals)
		if err != nil {
			return result, fmt.Errorf("normalize %s (%s): %w", h.Symbol, h.ContractAddress, err)
		}
		if !amount.IsPositive() {
			f.discard(account, h, discardZero)
			continue
		}

		if !known {
			token, err = f.discover(ctx, account.Network, h)
			if err != nil {
				return result, err
			}
			if !token.IsActive {
				f.discard(account, h, discardInactive)
				continue
			}
			index.Add(token)
		}

		result.Amounts = append(result.Amounts, model.TokenAmount{
			Token:     token,
			RawAmount: h.RawAmount,
			Amount:    amount,
		})
	}
	return result, nil
}

// discover 首次见到被认可的代币时写入 tokens 表，并发重复由唯一索引兜底
func (f *Fetcher) discover(ctx context.Context, network string, h model.Holding) (model.Token, error) {
	name := strings.TrimSpace(h.Name)
	if name == "" {
		name = strings.TrimSpace(h.Symbol)
	}
	stored, err := f.tokens.UpsertByContract(ctx, &model.Token{
		Symbol:          strings.TrimSpace(h.Symbol),
		Name:            name,
		ContractAddress: utils.NormalizeAddress(h.ContractAddress, network),
		Decimals:        int32(h.Decimals),
		Network:         network,
		IsActive:        true,
	})
	if err != nil {
		return model.Token{}, fmt.Errorf("upsert token %s (%s): %w", h.Symbol, h.ContractAddress, err)
	}
	f.tl.Info("discovered token",
		zap.String("network", network),
		zap.String("symbol", stored.Symbol),
		zap.String("contract", stored.ContractAddress),
		zap.Int64("token_id", stored.ID))
	return *stored, nil
}

func (f *Fetcher) discard(account model.Account, h model.Holding, reason string) {
	monitor.SyncHoldingsDiscarded.WithLabelValues(reason).Inc()
	f.tl.Debug("discard holding",
		zap.Int64("account_id", account.ID),
		zap.String("symbol", h.Symbol),
		zap.String("contract", h.ContractAddress),
		zap.String("reason", reason))
}
