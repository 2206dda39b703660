package dao

import (
	"context"

	"balance-sync/internal/worker/model"
)

// TokenDAO 定义token数据访问接口
type TokenDAO interface {
	// ListActive 加载所有启用的代币，构建已知代币索引
	ListActive(ctx context.Context) ([]model.Token, error)

	// UpsertByContract 按 (contract_address, network) 插入，已存在则返回已有记录
	UpsertByContract(ctx context.Context, token *model.Token) (*model.Token, error)
}
