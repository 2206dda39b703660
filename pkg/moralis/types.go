package moralis

import (
	"fmt"
	"strconv"
	"strings"
)

// FlexInt 兼容数字和字符串两种返回格式
type FlexInt int

func (f *FlexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid integer %s: %w", string(data), err)
	}
	*f = FlexInt(n)
	return nil
}

// Erc20Balance /api/v2.2/{address}/erc20 返回的单个持仓
type Erc20Balance struct {
	TokenAddress     string  `json:"token_address"`
	Symbol           string  `json:"symbol"`
	Name             string  `json:"name"`
	Logo             *string `json:"logo"`
	Decimals         FlexInt `json:"decimals"`
	Balance          string  `json:"balance"` // 原始余额字符串
	PossibleSpam     bool    `json:"possible_spam"`
	VerifiedContract bool    `json:"verified_contract"`
}

// SolanaTokenBalance /account/mainnet/{address}/tokens 返回的单个持仓
type SolanaTokenBalance struct {
	AssociatedTokenAddress string  `json:"associatedTokenAddress"`
	Mint                   string  `json:"mint"`
	AmountRaw              string  `json:"amountRaw"`
	Amount                 string  `json:"amount"`
	Decimals               FlexInt `json:"decimals"`
	Name                   string  `json:"name"`
	Symbol                 string  `json:"symbol"`
	PossibleSpam           bool    `json:"possibleSpam"`
}

// NativeBalance /api/v2.2/{address}/balance 返回的原生币余额（wei）
type NativeBalance struct {
	Balance string `json:"balance"`
}

// SolanaNativeBalance /account/mainnet/{address}/balance 返回的 SOL 余额
type SolanaNativeBalance struct {
	Lamports string `json:"lamports"`
	Solana   string `json:"solana"`
}
