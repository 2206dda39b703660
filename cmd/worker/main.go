package main

import (
	"context"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"balance-sync/internal/worker"
	"balance-sync/internal/worker/config"
	"balance-sync/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 初始化配置文件
	cfg := config.InitConfig()

	// 初始化 trace provider
	shutdownTrace := logger.InitTrace("balance-sync", "worker")
	// 启动主 span
	ctx, span := logger.StartSpan(context.Background(), "main", "main")
	defer span.End()

	// 创建 root logger 并注入 trace 上下文
	rootLogger := logger.NewLogger("worker")
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	if err := cfg.Validate(); err != nil {
		tl.Fatal("invalid config", zap.Error(err))
	}

	// 启动配置热加载监听
	go config.WatchConfig(&cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// 初始化worker
	core, err := worker.New(ctx, cfg, tl)
	if err != nil {
		tl.Fatal("failed to init worker", zap.Error(err))
	}

	// 启动 worker
	go func() {
		tl.Info("Starting balance-sync worker...")
		core.Start(ctx)
	}()

	// 监听操作系统信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	tl.Info("Received shutdown signal, starting graceful shutdown...")

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()

	// 关闭资源
	cancel()
	core.Stop(stopCtx)
	_ = shutdownTrace(stopCtx)
	_ = rootLogger.Sync()
}
