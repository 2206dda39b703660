package repository

import (
	"balance-sync/pkg/elasticsearch"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"gorm.io/gorm"
)

type RedisClient = *redis.Client
type DBClient = *gorm.DB
type MQClient = *kafka.Writer

// Repository 持有外部存储连接，可选组件未配置时返回 nil
type Repository interface {
	GetDB() DBClient
	GetSelectDB() DBClient
	GetRDB() RedisClient
	GetMQ() MQClient
	GetES() *elasticsearch.Client
	Close() error
}
