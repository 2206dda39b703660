package utils

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

const NetworkSolana = "SOLANA"

// IsSolanaNetwork 除 solana 外均按 EVM 处理
func IsSolanaNetwork(network string) bool {
	return strings.EqualFold(strings.TrimSpace(network), NetworkSolana)
}

// ValidateAddress 校验钱包或合约地址格式
func ValidateAddress(addr string, network string) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return fmt.Errorf("empty address")
	}
	if IsSolanaNetwork(network) {
		if _, err := solana.PublicKeyFromBase58(addr); err != nil {
			return fmt.Errorf("invalid solana address %s: %w", addr, err)
		}
		return nil
	}
	if !common.IsHexAddress(addr) {
		return fmt.Errorf("invalid evm address %s", addr)
	}
	return nil
}

// NormalizeAddress EVM 地址统一小写，非 EVM 网络原样返回
func NormalizeAddress(addr string, network string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" || IsSolanaNetwork(network) {
		return addr
	}
	return strings.ToLower(common.HexToAddress(addr).Hex())
}

// ChecksumAddress 将 EVM 地址转换为 EIP-55 Checksum 格式
func ChecksumAddress(addr string, network string) string {
	addr = strings.TrimSpace(addr)
	if addr == "" || IsSolanaNetwork(network) {
		return addr
	}
	return common.HexToAddress(addr).Hex()
}

// AdjustDecimals 调整精度显示
func AdjustDecimals(value *big.Int, decimals uint8) decimal.Decimal {
	return decimal.NewFromBigInt(value, -int32(decimals))
}

// ParseRawAmount 将原始整数余额按精度换算为可读数量
func ParseRawAmount(raw string, decimals int) (decimal.Decimal, error) {
	if decimals < 0 || decimals > 255 {
		return decimal.Zero, fmt.Errorf("invalid decimals %d", decimals)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return decimal.Zero, fmt.Errorf("invalid raw amount %q", raw)
	}
	if value.Sign() < 0 {
		return decimal.Zero, fmt.Errorf("negative raw amount %q", raw)
	}
	return AdjustDecimals(value, uint8(decimals)), nil
}
