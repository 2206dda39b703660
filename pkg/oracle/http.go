package oracle

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"balance-sync/internal/worker/config"
	"balance-sync/pkg/httpclient"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type quoteResp struct {
	BuyAmount          string `json:"buyAmount"`
	LiquidityAvailable *bool  `json:"liquidityAvailable"`
}

// HTTPOracle 通过聚合器报价接口询价：卖出 amount 个 symbol 能换到多少 reference
type HTTPOracle struct {
	baseURL    string
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewHTTPOracle(cfg config.OracleConfig, logger *zap.Logger) *HTTPOracle {
	return &HTTPOracle{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: httpclient.NewHTTPClient(httpclient.HTTPClientConfig{
			Timeout:     time.Duration(cfg.Timeout) * time.Second,
			RateLimit:   cfg.RateLimit,
			BearerToken: cfg.APIKey,
		}, logger),
		logger: logger,
	}
}

func (o *HTTPOracle) Quote(ctx context.Context, symbol, reference string, amount decimal.Decimal) (decimal.Decimal, error) {
	var resp quoteResp
	err := o.httpClient.Get(ctx, o.baseURL+"/quote", map[string]string{
		"sellToken":  symbol,
		"buyToken":   reference,
		"sellAmount": amount.String(),
	}, nil, &resp)
	if err != nil {
		var httpErr *httpclient.HTTPError
		if errors.As(err, &httpErr) && (httpErr.Code == http.StatusNotFound || httpErr.Code == http.StatusUnprocessableEntity) {
			return decimal.Zero, unavailable(symbol, reference, fmt.Sprintf("status %d", httpErr.Code))
		}
		return decimal.Zero, fmt.Errorf("quote %s/%s failed: %w", symbol, reference, err)
	}

	if resp.LiquidityAvailable != nil && !*resp.LiquidityAvailable {
		return decimal.Zero, unavailable(symbol, reference, "no liquidity")
	}
	out, err := decimal.NewFromString(resp.BuyAmount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("quote %s/%s invalid buyAmount %q: %w", symbol, reference, resp.BuyAmount, err)
	}
	if !out.IsPositive() {
		return decimal.Zero, unavailable(symbol, reference, "zero quote")
	}
	return out, nil
}

func (o *HTTPOracle) Close() error {
	return o.httpClient.Close()
}
