package oracle

import (
	"context"
	"fmt"
	"strings"

	"balance-sync/pkg/elasticsearch"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type searcher interface {
	Search(ctx context.Context, indexName string, query map[string]interface{}) (*elasticsearch.SearchResult, error)
}

// ESOracle 从代币索引的 price_usd 字段读取价格，仅适用于 USD 稳定币计价
type ESOracle struct {
	es     searcher
	index  string
	logger *zap.Logger
}

func NewESOracle(es searcher, index string, logger *zap.Logger) *ESOracle {
	return &ESOracle{es: es, index: index, logger: logger}
}

func (o *ESOracle) Quote(ctx context.Context, symbol, reference string, amount decimal.Decimal) (decimal.Decimal, error) {
	query := map[string]interface{}{
		"size": 1,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"should": []interface{}{
					map[string]interface{}{"term": map[string]interface{}{"symbol.keyword": symbol}},
					map[string]interface{}{"term": map[string]interface{}{"symbol": strings.ToLower(symbol)}},
				},
				"minimum_should_match": 1,
			},
		},
		"sort":    []interface{}{map[string]interface{}{"liquidity": map[string]interface{}{"order": "desc", "unmapped_type": "double"}}},
		"_source": []string{"symbol", "price_usd"},
	}

	res, err := o.es.Search(ctx, o.index, query)
	if err != nil {
		return decimal.Zero, fmt.Errorf("search price %s failed: %w", symbol, err)
	}
	if len(res.Hits.Hits) == 0 {
		return decimal.Zero, unavailable(symbol, reference, "not indexed")
	}

	price, ok := res.Hits.Hits[0].Source["price_usd"].(float64)
	if !ok || price <= 0 {
		o.logger.Debug("token price field missing", zap.String("symbol", symbol), zap.Any("source", res.Hits.Hits[0].Source))
		return decimal.Zero, unavailable(symbol, reference, "price_usd missing")
	}
	return decimal.NewFromFloat(price).Mul(amount), nil
}
