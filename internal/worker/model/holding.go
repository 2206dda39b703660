package model

import "github.com/shopspring/decimal"

// Holding 数据源返回的原始持仓
type Holding struct {
	ContractAddress string
	Symbol          string
	Name            string
	RawAmount       string
	Decimals        int
	PossibleSpam    bool
}

// TokenAmount 归一化后的持仓，价格在后续阶段解析
type TokenAmount struct {
	Token     Token
	RawAmount string
	Amount    decimal.Decimal
}

// AccountHoldings 单个账户一次拉取成功的结果
type AccountHoldings struct {
	Account Account
	Amounts []TokenAmount
}
