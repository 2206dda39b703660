package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"balance-sync/internal/worker/model"
	"balance-sync/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFetcherNormalizesAndFilters(t *testing.T) {
	provider := &fakeProvider{holdings: map[string][]model.Holding{
		addrA: {
			usdcHolding("2500000"),
			usdcHolding("9999999"), // 重复合约，保留第一条
			wethHolding("0"),
			{ContractAddress: scamAddr, Symbol: "SCAM", RawAmount: "1", Decimals: 0},
		},
	}}
	tokens := &fakeTokens{}
	f := NewFetcher(provider, tokens, zap.NewNop())
	index := NewTokenIndex([]model.Token{usdcToken, wethToken}, []string{"USDC"})

	out, err := f.Fetch(context.Background(), model.Account{ID: 1, Address: addrA, Network: "ETH"}, index)
	require.NoError(t, err)
	require.Len(t, out.Amounts, 1)
	assert.Equal(t, usdcToken.ID, out.Amounts[0].Token.ID)
	assert.Equal(t, "2.5", out.Amounts[0].Amount.String())
	assert.Zero(t, tokens.upserts.Load())
}

func TestFetcherBadRawAmountFailsAccount(t *testing.T) {
	provider := &fakeProvider{holdings: map[string][]model.Holding{
		addrA: {{ContractAddress: usdcAddr, Symbol: "USDC", RawAmount: "12abc", Decimals: 6}},
	}}
	f := NewFetcher(provider, &fakeTokens{}, zap.NewNop())

	_, err := f.Fetch(context.Background(), model.Account{ID: 1, Address: addrA, Network: "ETH"}, NewTokenIndex([]model.Token{usdcToken}, nil))
	assert.Error(t, err)
}

func TestFetcherUnknownTokenWithBadAmountIsDiscarded(t *testing.T) {
	// 未识别代币的余额格式错误不影响同账户其他持仓
	provider := &fakeProvider{holdings: map[string][]model.Holding{
		addrA: {
			usdcHolding("100000000"),
			{ContractAddress: scamAddr, Symbol: "JUNK", RawAmount: "1.5e+21", Decimals: 18},
		},
	}}
	tokens := &fakeTokens{}
	f := NewFetcher(provider, tokens, zap.NewNop())

	out, err := f.Fetch(context.Background(), model.Account{ID: 1, Address: addrA, Network: "ETH"}, NewTokenIndex([]model.Token{usdcToken}, nil))
	require.NoError(t, err)
	require.Len(t, out.Amounts, 1)
	assert.Equal(t, usdcToken.ID, out.Amounts[0].Token.ID)
	assert.Equal(t, "100", out.Amounts[0].Amount.String())
	assert.Zero(t, tokens.upserts.Load())
}

func TestFetcherDiscoversAllowListedTokenOnce(t *testing.T) {
	usdce := model.Holding{ContractAddress: usdceAddr, Symbol: "USDC.e", Name: "Bridged USDC", RawAmount: "1000000", Decimals: 6}
	provider := &fakeProvider{holdings: map[string][]model.Holding{
		addrA: {usdce},
		addrB: {usdce},
		addrC: {usdce},
	}}
	tokens := &fakeTokens{}
	f := NewFetcher(provider, tokens, zap.NewNop())
	index := NewTokenIndex([]model.Token{usdcToken}, []string{"USDC", "USDC.E"})

	var wg sync.WaitGroup
	results := make([]model.AccountHoldings, 3)
	for i, addr := range []string{addrA, addrB, addrC} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := f.Fetch(context.Background(), model.Account{ID: int64(i + 1), Address: addr, Network: "ETH"}, index)
			assert.NoError(t, err)
			results[i] = out
		}()
	}
	wg.Wait()

	require.Len(t, tokens.inserted, 1)
	discovered := tokens.inserted[0]
	assert.Equal(t, "USDC.e", discovered.Symbol)
	assert.Equal(t, usdceAddr, discovered.ContractAddress)
	assert.Equal(t, int32(6), discovered.Decimals)
	for _, r := range results {
		require.Len(t, r.Amounts, 1)
		assert.Equal(t, discovered.ID, r.Amounts[0].Token.ID)
	}
	_, ok := index.Lookup("ETH", usdceAddr)
	assert.True(t, ok)
}

func TestFetcherRecognizesKnownSymbolOnNewContract(t *testing.T) {
	// 已知符号的新合约也会入库
	provider := &fakeProvider{holdings: map[string][]model.Holding{
		addrA: {{ContractAddress: scamAddr, Symbol: "weth", RawAmount: "1", Decimals: 0}},
	}}
	tokens := &fakeTokens{}
	f := NewFetcher(provider, tokens, zap.NewNop())

	out, err := f.Fetch(context.Background(), model.Account{ID: 1, Address: addrA, Network: "ETH"}, NewTokenIndex([]model.Token{wethToken}, nil))
	require.NoError(t, err)
	require.Len(t, out.Amounts, 1)
	assert.Equal(t, int32(1), tokens.upserts.Load())
}

func TestFetcherNativeBalance(t *testing.T) {
	native := utils.GetNativeToken("ETH")
	ethToken := model.Token{ID: 3, Symbol: "ETH", Name: "Ether", ContractAddress: strings.ToLower(utils.NativeEvmAddress), Decimals: 18, Network: "ETH", IsActive: true}
	provider := &fakeProvider{holdings: map[string][]model.Holding{
		addrA: {{ContractAddress: native.ContractAddress, Symbol: native.Symbol, Name: native.Name, RawAmount: "500000000000000000", Decimals: native.Decimals}},
	}}
	tokens := &fakeTokens{}
	f := NewFetcher(provider, tokens, zap.NewNop())

	out, err := f.Fetch(context.Background(), model.Account{ID: 1, Address: addrA, Network: "ETH"}, NewTokenIndex([]model.Token{ethToken}, nil))
	require.NoError(t, err)
	require.Len(t, out.Amounts, 1)
	assert.Equal(t, ethToken.ID, out.Amounts[0].Token.ID)
	assert.Equal(t, "0.5", out.Amounts[0].Amount.String())
	assert.Zero(t, tokens.upserts.Load())
}
