package database

import (
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// PoolConfig 连接池参数
type PoolConfig struct {
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

var (
	pgPool = PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    50,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnMaxLifetime: time.Hour,
	}
	selectDBPool = PoolConfig{
		MaxIdleConns:    10,
		MaxOpenConns:    40,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnMaxLifetime: time.Hour,
	}
)

func InitPG(dsn string) (*gorm.DB, error) {
	return open(postgres.Open(dsn), pgPool)
}

// InitSelectDB SelectDB 兼容 MySQL 协议
func InitSelectDB(dsn string) (*gorm.DB, error) {
	return open(mysql.Open(dsn), selectDBPool)
}

func open(dialector gorm.Dialector, pool PoolConfig) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Error),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	sqlDB.SetConnMaxIdleTime(pool.ConnMaxIdleTime)
	sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	return db, nil
}
