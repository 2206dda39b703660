package main

import (
	"context"
	"os"
	"time"

	"balance-sync/internal/worker"
	"balance-sync/internal/worker/config"
	"balance-sync/internal/worker/repository"
	"balance-sync/pkg/logger"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// 一次性同步，供运维手动补跑

func main() {
	startTime := time.Now()
	// 初始化配置文件
	cfg := config.InitConfig()

	// 初始化 trace provider
	shutdownTrace := logger.InitTrace("balance-sync", "script")
	// 启动主 span
	ctx, span := logger.StartSpan(context.Background(), "main", "main")

	// 创建 root logger 并注入 trace 上下文
	rootLogger := logger.NewLogger("script")
	logger.SetLogLevel(cfg.Log.Level)
	tl := logger.WithTrace(ctx, rootLogger)

	if err := cfg.Validate(); err != nil {
		tl.Fatal("invalid config", zap.Error(err))
	}

	if cfg.Sync.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Sync.RunTimeoutDuration())
		defer cancel()
	}

	// 初始化 repository
	repo := repository.New(cfg, tl)

	exitCode := 0
	components, err := worker.BuildSynchronizer(ctx, cfg, repo, tl)
	if err != nil {
		tl.Error("Failed to build synchronizer", zap.Error(err))
		exitCode = 1
	} else {
		tl.Info("Starting one-off balance sync...")
		summary, err := components.Sync.Sync(ctx)
		if err != nil {
			tl.Error("Balance sync failed", zap.Error(err))
			exitCode = 1
		} else {
			out, _ := sonic.MarshalIndent(summary, "", "  ")
			_, _ = os.Stdout.Write(append(out, '\n'))
			tl.Info("Task completed successfully", zap.Duration("taken_time", time.Since(startTime)))
		}
		_ = components.Close()
	}

	_ = repo.Close()
	span.End()
	_ = shutdownTrace(context.Background())
	_ = rootLogger.Sync()
	os.Exit(exitCode)
}
