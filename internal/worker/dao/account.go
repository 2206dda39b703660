package dao

import (
	"context"

	"balance-sync/internal/worker/model"
)

// AccountDAO 钱包账户只读访问
type AccountDAO interface {
	// ListActive 返回所有 is_active 的账户，按 id 升序
	ListActive(ctx context.Context) ([]model.Account, error)
}
