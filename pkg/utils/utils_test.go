package utils

import (
	"testing"

	"balance-sync/internal/worker/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRawAmount(t *testing.T) {
	amount, err := ParseRawAmount("100000000", 6)
	require.NoError(t, err)
	assert.Equal(t, "100", amount.String())

	amount, err = ParseRawAmount("500000000000000000", 18)
	require.NoError(t, err)
	assert.Equal(t, "0.5", amount.String())

	amount, err = ParseRawAmount("0", 18)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	amount, err = ParseRawAmount("", 18)
	require.NoError(t, err)
	assert.True(t, amount.IsZero())

	_, err = ParseRawAmount("12abc", 6)
	assert.Error(t, err)

	_, err = ParseRawAmount("-1", 6)
	assert.Error(t, err)

	_, err = ParseRawAmount("1", -1)
	assert.Error(t, err)
}

func TestNormalizeAddress(t *testing.T) {
	assert.Equal(t,
		"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48",
		NormalizeAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "eth"))

	sol := "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	assert.Equal(t, sol, NormalizeAddress(sol, "solana"))
	assert.Equal(t, "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48",
		ChecksumAddress("0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", "eth"))
}

func TestValidateAddress(t *testing.T) {
	assert.NoError(t, ValidateAddress("0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", "bsc"))
	assert.Error(t, ValidateAddress("not-an-address", "bsc"))
	assert.Error(t, ValidateAddress("", "bsc"))
	assert.NoError(t, ValidateAddress("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", "SOLANA"))
	assert.Error(t, ValidateAddress("0x0000", "solana"))
}

func TestDeduplicateHoldings(t *testing.T) {
	holdings := []model.Holding{
		{ContractAddress: "0xA0b86991c6218b36c1d19D4a2e9Eb0cE3606eB48", Symbol: "USDC", RawAmount: "1"},
		{ContractAddress: "0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48", Symbol: "USDC", RawAmount: "2"},
		{ContractAddress: "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2", Symbol: "WETH", RawAmount: "3"},
	}
	out := DeduplicateHoldings("eth", holdings)
	require.Len(t, out, 2)
	assert.Equal(t, "1", out[0].RawAmount)
	assert.Equal(t, "WETH", out[1].Symbol)
}

func TestGetNativeToken(t *testing.T) {
	eth := GetNativeToken("ethereum")
	assert.Equal(t, "ETH", eth.Symbol)
	assert.Equal(t, 18, eth.Decimals)
	assert.NoError(t, ValidateAddress(eth.ContractAddress, "eth"))

	assert.Equal(t, "BNB", GetNativeToken("bsc").Symbol)
	assert.Equal(t, "FANTOM", GetNativeToken("fantom").Symbol)

	sol := GetNativeToken("SOLANA")
	assert.Equal(t, "SOL", sol.Symbol)
	assert.Equal(t, 9, sol.Decimals)
	assert.NoError(t, ValidateAddress(sol.ContractAddress, "solana"))
}
