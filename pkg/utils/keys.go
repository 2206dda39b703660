package utils

import (
	"fmt"
	"strings"
)

func PortfolioSummaryKey(accountID int64) string {
	return fmt.Sprintf("balance_sync:portfolio:%d", accountID)
}

func PriceKey(symbol, reference string) string {
	return fmt.Sprintf("balance_sync:price:%s_%s", strings.ToUpper(symbol), strings.ToUpper(reference))
}

func TokenContractKey(network, contractAddress string) string {
	return fmt.Sprintf("%s|%s", strings.ToUpper(network), contractAddress)
}

func SyncRunLockKey() string {
	return "balance_sync:run_lock"
}
