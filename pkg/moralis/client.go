package moralis

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"balance-sync/internal/worker/config"
	"balance-sync/internal/worker/model"
	"balance-sync/pkg/httpclient"
	"balance-sync/pkg/utils"

	"go.uber.org/zap"
)

// 内部网络名到 Moralis chain 参数的映射，未列出的直接小写
var chainAliases = map[string]string{
	"ETHEREUM": "eth",
	"ETH":      "eth",
	"BSC":      "bsc",
	"POLYGON":  "polygon",
	"MATIC":    "polygon",
	"ARBITRUM": "arbitrum",
	"BASE":     "base",
	"OPTIMISM": "optimism",
}

type MoralisClient struct {
	baseURL    string
	gatewayURL string
	httpClient *httpclient.HTTPClient
	logger     *zap.Logger
}

func NewMoralisClient(cfg config.MoralisConfig, logger *zap.Logger) *MoralisClient {
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		RateLimit:  cfg.RateLimit,
		MaxRetries: cfg.MaxRetries,
		XApiKey:    cfg.APIKey,
	}

	return &MoralisClient{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		gatewayURL: strings.TrimRight(cfg.GatewayURL, "/"),
		httpClient: httpclient.NewHTTPClient(httpCfg, logger),
		logger:     logger,
	}
}

// GetWalletTokenBalances 查询钱包在指定网络上的全部持仓，原生币排在第一位
func (m *MoralisClient) GetWalletTokenBalances(ctx context.Context, network string, address string) ([]model.Holding, error) {
	var (
		native model.Holding
		tokens []model.Holding
		err    error
	)
	if utils.IsSolanaNetwork(network) {
		if native, err = m.getSolanaNativeBalance(ctx, address); err != nil {
			return nil, err
		}
		tokens, err = m.getSolanaTokenBalances(ctx, address)
	} else {
		if native, err = m.getEvmNativeBalance(ctx, network, address); err != nil {
			return nil, err
		}
		tokens, err = m.getEvmTokenBalances(ctx, network, address)
	}
	if err != nil {
		return nil, err
	}
	return append([]model.Holding{native}, tokens...), nil
}

func nativeHolding(network string, raw string) model.Holding {
	native := utils.GetNativeToken(network)
	return model.Holding{
		ContractAddress: native.ContractAddress,
		Symbol:          native.Symbol,
		Name:            native.Name,
		RawAmount:       raw,
		Decimals:        native.Decimals,
	}
}

func (m *MoralisClient) getEvmNativeBalance(ctx context.Context, network string, address string) (model.Holding, error) {
	endpoint := fmt.Sprintf("%s/api/v2.2/%s/balance", m.baseURL, url.PathEscape(address))
	query := map[string]string{"chain": ChainParam(network)}

	var balance NativeBalance
	if err := m.httpClient.Get(ctx, endpoint, query, nil, &balance); err != nil {
		return model.Holding{}, fmt.Errorf("fetch evm native balance failed, network: %s, address: %s, error: %w", network, address, err)
	}
	return nativeHolding(network, balance.Balance), nil
}

func (m *MoralisClient) getSolanaNativeBalance(ctx context.Context, address string) (model.Holding, error) {
	endpoint := fmt.Sprintf("%s/account/mainnet/%s/balance", m.gatewayURL, url.PathEscape(address))

	var balance SolanaNativeBalance
	if err := m.httpClient.Get(ctx, endpoint, nil, nil, &balance); err != nil {
		return model.Holding{}, fmt.Errorf("fetch solana native balance failed, address: %s, error: %w", address, err)
	}
	return nativeHolding(utils.NetworkSolana, balance.Lamports), nil
}

func (m *MoralisClient) getEvmTokenBalances(ctx context.Context, network string, address string) ([]model.Holding, error) {
	endpoint := fmt.Sprintf("%s/api/v2.2/%s/erc20", m.baseURL, url.PathEscape(address))
	query := map[string]string{"chain": ChainParam(network)}

	var balances []Erc20Balance
	if err := m.httpClient.Get(ctx, endpoint, query, nil, &balances); err != nil {
		return nil, fmt.Errorf("fetch evm token balances failed, network: %s, address: %s, error: %w", network, address, err)
	}

	holdings := make([]model.Holding, 0, len(balances))
	for _, b := range balances {
		holdings = append(holdings, model.Holding{
			ContractAddress: b.TokenAddress,
			Symbol:          b.Symbol,
			Name:            b.Name,
			RawAmount:       b.Balance,
			Decimals:        int(b.Decimals),
			PossibleSpam:    b.PossibleSpam,
		})
	}
	m.logger.Debug("fetched evm token balances", zap.String("network", network), zap.String("address", address), zap.Int("count", len(holdings)))
	return holdings, nil
}

func (m *MoralisClient) getSolanaTokenBalances(ctx context.Context, address string) ([]model.Holding, error) {
	endpoint := fmt.Sprintf("%s/account/mainnet/%s/tokens", m.gatewayURL, url.PathEscape(address))

	var balances []SolanaTokenBalance
	if err := m.httpClient.Get(ctx, endpoint, nil, nil, &balances); err != nil {
		return nil, fmt.Errorf("fetch solana token balances failed, address: %s, error: %w", address, err)
	}

	holdings := make([]model.Holding, 0, len(balances))
	for _, b := range balances {
		holdings = append(holdings, model.Holding{
			ContractAddress: b.Mint,
			Symbol:          b.Symbol,
			Name:            b.Name,
			RawAmount:       b.AmountRaw,
			Decimals:        int(b.Decimals),
			PossibleSpam:    b.PossibleSpam,
		})
	}
	m.logger.Debug("fetched solana token balances", zap.String("address", address), zap.Int("count", len(holdings)))
	return holdings, nil
}

func (m *MoralisClient) Close() error {
	return m.httpClient.Close()
}

func ChainParam(network string) string {
	key := strings.ToUpper(strings.TrimSpace(network))
	if alias, ok := chainAliases[key]; ok {
		return alias
	}
	return strings.ToLower(key)
}
