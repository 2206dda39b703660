package utils

import "balance-sync/internal/worker/model"

// DeduplicateHoldings 按合约地址去重，保留第一次出现的记录
func DeduplicateHoldings(network string, holdings []model.Holding) []model.Holding {
	deduplicated := make([]model.Holding, 0, len(holdings))
	seen := make(map[string]struct{}, len(holdings))
	for _, holding := range holdings {
		key := NormalizeAddress(holding.ContractAddress, network)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		deduplicated = append(deduplicated, holding)
	}
	return deduplicated
}
