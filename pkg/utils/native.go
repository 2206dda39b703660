package utils

import "strings"

// EVM 原生币占位合约地址
const NativeEvmAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// SOL 原生币使用 System Program 地址占位，避免与 wrapped SOL mint 冲突
const NativeSolanaAddress = "11111111111111111111111111111111"

// NativeToken 链原生币的元信息
type NativeToken struct {
	ContractAddress string
	Symbol          string
	Name            string
	Decimals        int
}

var evmNativeSymbols = map[string]NativeToken{
	"ETH":       {Symbol: "ETH", Name: "Ether"},
	"ETHEREUM":  {Symbol: "ETH", Name: "Ether"},
	"ARBITRUM":  {Symbol: "ETH", Name: "Ether"},
	"BASE":      {Symbol: "ETH", Name: "Ether"},
	"OPTIMISM":  {Symbol: "ETH", Name: "Ether"},
	"BSC":       {Symbol: "BNB", Name: "BNB"},
	"POLYGON":   {Symbol: "POL", Name: "Polygon Ecosystem Token"},
	"MATIC":     {Symbol: "POL", Name: "Polygon Ecosystem Token"},
	"AVALANCHE": {Symbol: "AVAX", Name: "Avalanche"},
}

// GetNativeToken 未知 EVM 网络按网络名大写作为符号
func GetNativeToken(network string) NativeToken {
	if IsSolanaNetwork(network) {
		return NativeToken{ContractAddress: NativeSolanaAddress, Symbol: "SOL", Name: "Solana", Decimals: 9}
	}
	key := strings.ToUpper(strings.TrimSpace(network))
	native, ok := evmNativeSymbols[key]
	if !ok {
		native = NativeToken{Symbol: key, Name: key}
	}
	native.ContractAddress = NativeEvmAddress
	native.Decimals = 18
	return native
}

