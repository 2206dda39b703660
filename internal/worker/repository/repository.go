package repository

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"balance-sync/internal/worker/config"
	"balance-sync/pkg/database"
	"balance-sync/pkg/elasticsearch"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var once sync.Once
var r *repositoryImpl

func New(cfg config.Config, logger *zap.Logger) Repository {
	once.Do(func() {
		r = &repositoryImpl{
			cfg:    cfg,
			logger: logger,
		}
		r.init()
	})
	return r
}

type repositoryImpl struct {
	cfg      config.Config
	logger   *zap.Logger
	db       *gorm.DB
	selectDB *gorm.DB
	rdb      *redis.Client
	mq       *kafka.Writer
	es       *elasticsearch.Client
}

func (r *repositoryImpl) init() {
	var err error
	r.db, err = database.InitPG(r.cfg.Postgres.DSN)
	if err != nil {
		panic(err)
	}

	// 初始化selectDB（可选，DSN 为空则跳过）
	if strings.TrimSpace(r.cfg.SelectDB.DSN) != "" {
		r.selectDB, err = database.InitSelectDB(r.cfg.SelectDB.DSN)
		if err != nil {
			r.logger.Warn("failed to connect to selectdb, continue without it", zap.Error(err))
		}
	} else {
		r.logger.Info("selectdb dsn empty, skip selectdb initialization")
	}

	if r.cfg.Redis.Address != "" {
		r.rdb = redis.NewClient(&redis.Options{
			Addr:     r.cfg.Redis.Address,
			Password: r.cfg.Redis.Password,
			DB:       r.cfg.Redis.DB,
			PoolSize: 20,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := r.rdb.Ping(ctx).Err(); err != nil {
			r.logger.Warn("failed to connect to redis, continue", zap.Error(err))
		}
		cancel()
	}

	if strings.TrimSpace(r.cfg.Kafka.Brokers) != "" {
		brokers := strings.Split(r.cfg.Kafka.Brokers, ",")
		r.mq = &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchSize:    500,
			BatchBytes:   1024 * 1024, // 1MB
			RequiredAcks: kafka.RequireOne,
			Compression:  kafka.Snappy,
			MaxAttempts:  5,
			WriteTimeout: 5 * time.Second,
		}
	}

	if len(r.cfg.Elasticsearch.Addresses) > 0 {
		r.es, err = elasticsearch.NewClient(elasticsearch.Config{
			Addresses: r.cfg.Elasticsearch.Addresses,
			Username:  r.cfg.Elasticsearch.Username,
			Password:  r.cfg.Elasticsearch.Password,
		}, r.logger)
		if err != nil {
			r.logger.Warn("failed to create elasticsearch client", zap.Error(err))
		}
	}
}

func (r *repositoryImpl) GetDB() *gorm.DB {
	return r.db
}

func (r *repositoryImpl) GetSelectDB() *gorm.DB {
	return r.selectDB
}

func (r *repositoryImpl) GetRDB() *redis.Client {
	return r.rdb
}

func (r *repositoryImpl) GetMQ() MQClient {
	return r.mq
}

func (r *repositoryImpl) GetES() *elasticsearch.Client {
	return r.es
}

func (r *repositoryImpl) Close() error {
	var errs []error
	if r.db != nil {
		if sqlDB, err := r.db.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if r.selectDB != nil {
		if sqlDB, err := r.selectDB.DB(); err == nil {
			errs = append(errs, sqlDB.Close())
		}
	}
	if r.rdb != nil {
		errs = append(errs, r.rdb.Close())
	}
	if r.mq != nil {
		errs = append(errs, r.mq.Close())
	}
	return errors.Join(errs...)
}
