package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"balance-sync/pkg/logger"

	"github.com/fsnotify/fsnotify"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "BALANCE_SYNC"

// 未解析价格的处理策略
const (
	UnpricedFlag = "flag"
	UnpricedSkip = "skip"
	UnpricedPeg  = "peg"
)

// 价格源驱动
const (
	OracleDriverHTTP          = "http"
	OracleDriverElasticsearch = "elasticsearch"
)

// Config 定义整个配置的结构
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	SelectDB      SelectDBConfig      `mapstructure:"selectdb"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Kafka         KafkaConfig         `mapstructure:"kafka"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Monitor       MonitorConfig       `mapstructure:"monitor"`
	Server        ServerConfig        `mapstructure:"server"`
	Moralis       MoralisConfig       `mapstructure:"moralis"`
	Oracle        OracleConfig        `mapstructure:"oracle"`
	Sync          SyncConfig          `mapstructure:"sync"`
}

// LogConfig Log 日志配置
type LogConfig struct {
	Level string `mapstructure:"level"`
	Dir   string `mapstructure:"dir"`
}

// PostgresConfig PostgreSQL 配置
type PostgresConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// SelectDBConfig 快照镜像库，DSN 为空则不启用
type SelectDBConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig Redis 配置，Address 为空则不启用
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// KafkaConfig 快照事件投递，Brokers 为空则不启用
type KafkaConfig struct {
	Brokers       string `mapstructure:"brokers"`
	TopicSnapshot string `mapstructure:"topic_snapshot"`
}

type ElasticsearchConfig struct {
	Addresses       []string `mapstructure:"addresses"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	TokensIndexName string   `mapstructure:"tokens_index_name"`
}

type MonitorConfig struct {
	Enable         bool   `mapstructure:"enable"`
	PrometheusAddr string `mapstructure:"prometheus_addr"`
}

// ServerConfig 手动触发同步的 HTTP 服务
type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type MoralisConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	GatewayURL string `mapstructure:"gateway_url"`
	APIKey     string `mapstructure:"api_key"`
	RateLimit  int    `mapstructure:"rate_limit"`
	Timeout    int    `mapstructure:"timeout"`
	MaxRetries int    `mapstructure:"max_retries"`
}

type OracleConfig struct {
	Driver          string `mapstructure:"driver"`
	BaseURL         string `mapstructure:"base_url"`
	APIKey          string `mapstructure:"api_key"`
	RateLimit       int    `mapstructure:"rate_limit"`
	Timeout         int    `mapstructure:"timeout"`
	ReferenceAmount string `mapstructure:"reference_amount"`
	CacheTTL        int    `mapstructure:"cache_ttl"` // 秒，0 表示不缓存
	Concurrency     int    `mapstructure:"concurrency"`
}

type SyncConfig struct {
	Secret            string   `mapstructure:"secret"`
	Interval          int      `mapstructure:"interval"` // 秒
	RunTimeout        int      `mapstructure:"run_timeout"`
	BatchSize         int      `mapstructure:"batch_size"`
	ReferenceSymbol   string   `mapstructure:"reference_symbol"`
	StablecoinSymbols []string `mapstructure:"stablecoin_symbols"`
	UnpricedPolicy    string   `mapstructure:"unpriced_policy"`
	LockTTL           int      `mapstructure:"lock_ttl"`
	SkipInitialRun    bool     `mapstructure:"skip_initial_run"` // 启动时不立即执行
}

func (s SyncConfig) IntervalDuration() time.Duration {
	return time.Duration(s.Interval) * time.Second
}

func (s SyncConfig) RunTimeoutDuration() time.Duration {
	return time.Duration(s.RunTimeout) * time.Second
}

func (s SyncConfig) LockTTLDuration() time.Duration {
	return time.Duration(s.LockTTL) * time.Second
}

// ApplyDefaults 补齐未配置的字段
func (c *Config) ApplyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Kafka.TopicSnapshot == "" {
		c.Kafka.TopicSnapshot = "balance_snapshots"
	}
	if c.Elasticsearch.TokensIndexName == "" {
		c.Elasticsearch.TokensIndexName = "token_prices"
	}
	if c.Moralis.BaseURL == "" {
		c.Moralis.BaseURL = "https://deep-index.moralis.io"
	}
	if c.Moralis.GatewayURL == "" {
		c.Moralis.GatewayURL = "https://solana-gateway.moralis.io"
	}
	if c.Moralis.RateLimit <= 0 {
		c.Moralis.RateLimit = 300
	}
	if c.Moralis.Timeout <= 0 {
		c.Moralis.Timeout = 30
	}
	if c.Oracle.Driver == "" {
		c.Oracle.Driver = OracleDriverHTTP
	}
	if c.Oracle.RateLimit <= 0 {
		c.Oracle.RateLimit = 600
	}
	if c.Oracle.Timeout <= 0 {
		c.Oracle.Timeout = 10
	}
	if c.Oracle.ReferenceAmount == "" {
		c.Oracle.ReferenceAmount = "1"
	}
	if c.Oracle.Concurrency <= 0 {
		c.Oracle.Concurrency = 8
	}
	if c.Sync.Interval <= 0 {
		c.Sync.Interval = 3600
	}
	if c.Sync.BatchSize <= 0 {
		c.Sync.BatchSize = 10
	}
	if c.Sync.ReferenceSymbol == "" {
		c.Sync.ReferenceSymbol = "USDC"
	}
	if len(c.Sync.StablecoinSymbols) == 0 {
		c.Sync.StablecoinSymbols = []string{"USDC", "USDC.E", "USDBC"}
	}
	if c.Sync.UnpricedPolicy == "" {
		c.Sync.UnpricedPolicy = UnpricedFlag
	}
	if c.Sync.LockTTL <= 0 {
		c.Sync.LockTTL = 1800
	}
}

// Validate 检查启动所需的配置
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Sync.Secret) == "" {
		errs = append(errs, errors.New("sync.secret is required"))
	}
	if c.Sync.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("sync.batch_size must be positive, got %d", c.Sync.BatchSize))
	}
	switch c.Sync.UnpricedPolicy {
	case UnpricedFlag, UnpricedSkip, UnpricedPeg:
	default:
		errs = append(errs, fmt.Errorf("unknown sync.unpriced_policy %q", c.Sync.UnpricedPolicy))
	}
	switch c.Oracle.Driver {
	case OracleDriverHTTP:
		if c.Oracle.BaseURL == "" {
			errs = append(errs, errors.New("oracle.base_url is required for http driver"))
		}
	case OracleDriverElasticsearch:
		if len(c.Elasticsearch.Addresses) == 0 {
			errs = append(errs, errors.New("elasticsearch.addresses is required for elasticsearch driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown oracle.driver %q", c.Oracle.Driver))
	}
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		errs = append(errs, errors.New("postgres.dsn is required"))
	}
	return errors.Join(errs...)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigName("config.worker")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config/")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// 仅 AutomaticEnv 时 AllSettings 不包含文件中缺失的 key
	for _, key := range []string{"sync.secret", "postgres.dsn", "moralis.api_key", "oracle.api_key", "redis.password"} {
		_ = v.BindEnv(key)
	}
	return v
}

var v = newViper()

func InitConfig() Config {
	cfg, err := Load(v)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	return cfg
}

// Load 读取配置文件并解码
func Load(v *viper.Viper) (Config, error) {
	var config Config
	if err := v.ReadInConfig(); err != nil {
		return config, err
	}
	if err := Decode(v.AllSettings(), &config); err != nil {
		return config, err
	}
	return config, nil
}

// Decode 将 viper 设置解码为 Config 并补齐默认值
func Decode(settings map[string]any, config *Config) error {
	if err := mapstructure.Decode(settings, config); err != nil {
		return err
	}
	config.ApplyDefaults()
	return nil
}

func WatchConfig(config *Config) {
	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		newConfig, err := Load(v)
		if err != nil {
			return
		}
		*config = newConfig
		logger.SetLogLevel(config.Log.Level)
	})
}
