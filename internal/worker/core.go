package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"balance-sync/internal/worker/cache"
	"balance-sync/internal/worker/config"
	"balance-sync/internal/worker/dao"
	"balance-sync/internal/worker/job"
	"balance-sync/internal/worker/monitor"
	"balance-sync/internal/worker/repository"
	"balance-sync/internal/worker/server"
	"balance-sync/internal/worker/service"
	"balance-sync/internal/worker/writer"
	"balance-sync/internal/worker/writer/portfolio"
	"balance-sync/internal/worker/writer/snapshot"
	"balance-sync/pkg/moralis"
	"balance-sync/pkg/oracle"
	"balance-sync/pkg/utils"

	"go.uber.org/zap"
)

// Components 同步服务及其需要随进程关闭的资源
type Components struct {
	Sync    *service.Synchronizer
	closers []func() error
}

func (c *Components) Close() error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		errs = append(errs, c.closers[i]())
	}
	return errors.Join(errs...)
}

// BuildSynchronizer 根据配置组装同步服务，worker 与一次性脚本共用
func BuildSynchronizer(ctx context.Context, cfg config.Config, repo repository.Repository, tl *zap.Logger) (*Components, error) {
	db := repo.GetDB()
	if cfg.Postgres.AutoMigrate {
		if err := dao.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	daos := dao.NewDAOManager(db)
	comps := &Components{}

	provider := moralis.NewMoralisClient(cfg.Moralis, tl)
	comps.closers = append(comps.closers, provider.Close)

	var quoter service.PriceOracle
	switch cfg.Oracle.Driver {
	case config.OracleDriverElasticsearch:
		es := repo.GetES()
		if es == nil {
			return nil, errors.New("oracle driver elasticsearch requires an elasticsearch client")
		}
		quoter = oracle.NewESOracle(es, cfg.Elasticsearch.TokensIndexName, tl)
	default:
		httpOracle := oracle.NewHTTPOracle(cfg.Oracle, tl)
		comps.closers = append(comps.closers, httpOracle.Close)
		quoter = httpOracle
	}
	rdb := repo.GetRDB()
	if cfg.Oracle.CacheTTL > 0 {
		quoter = cache.NewPriceCache(quoter, tl, rdb, time.Duration(cfg.Oracle.CacheTTL)*time.Second)
	}

	var lock cache.RunLock = cache.NewLocalRunLock()
	if rdb != nil {
		lock = cache.NewRedisRunLock(rdb, utils.SyncRunLockKey(), cfg.Sync.LockTTLDuration())
	}

	var sinks []service.Sink
	if rdb != nil {
		sinks = append(sinks, service.NewPortfolioSink(portfolio.NewRedisPortfolioWriter(rdb, tl)))
	}
	if mq := repo.GetMQ(); mq != nil {
		sinks = append(sinks, service.NewSnapshotEventSink(snapshot.NewKafkaSnapshotWriter(mq, tl, cfg.Kafka.TopicSnapshot)))
	}
	if selectDB := repo.GetSelectDB(); selectDB != nil {
		mirror := writer.NewAsyncBatchWriter(tl, snapshot.NewSelectDBSnapshotWriter(selectDB, tl), 1000, time.Second, "snapshot_selectdb_writer", 1)
		mirror.Start(ctx)
		comps.closers = append(comps.closers, mirror.Close)
		sinks = append(sinks, service.NewSnapshotMirrorSink(mirror))
	}

	sync, err := service.NewSynchronizer(cfg, service.Deps{
		Accounts: daos.AccountDAO,
		Tokens:   daos.TokenDAO,
		Balances: daos.BalanceDAO,
		Runs:     daos.SyncRunDAO,
		Provider: provider,
		Oracle:   quoter,
		Lock:     lock,
		Sinks:    sinks,
	}, tl)
	if err != nil {
		_ = comps.Close()
		return nil, err
	}
	comps.Sync = sync
	return comps, nil
}

type Core struct {
	cfg        config.Config
	tl         *zap.Logger
	repo       repository.Repository
	components *Components
	scheduler  *job.Scheduler
	server     *server.Server
	metrics    *monitor.MetricsServer
}

func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*Core, error) {
	// 初始化repo
	repo := repository.New(cfg, logger)

	components, err := BuildSynchronizer(ctx, cfg, repo, logger)
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	// 初始化作业调度器
	scheduler := job.NewScheduler(logger)
	balanceSync := job.NewBalanceSync(components.Sync, logger)
	scheduler.Register(job.JobSpec{
		Name:           job.BalanceSyncJobName,
		Interval:       cfg.Sync.IntervalDuration(),
		Timeout:        cfg.Sync.RunTimeoutDuration(),
		SkipInitialRun: cfg.Sync.SkipInitialRun,
	}, balanceSync.Run)

	return &Core{
		cfg:        cfg,
		repo:       repo,
		tl:         logger,
		components: components,
		scheduler:  scheduler,
		server:     server.NewServer(cfg.Server, components.Sync, logger),
		metrics:    monitor.NewMetricsServer(cfg.Monitor, logger),
	}, nil
}

func (c *Core) Start(ctx context.Context) {
	c.tl.Info("Starting worker core...")
	// 启动监控服务
	c.metrics.Run()

	// 启动触发接口
	c.server.Run()

	// 启动调度器
	c.scheduler.Start(ctx)
	c.tl.Info("Worker started successfully")

	// 等待外部关闭信号
	<-ctx.Done()
	c.tl.Info("Shutting down worker due to context cancellation...")
}

// Stop 优雅关闭 Core 的所有资源
func (c *Core) Stop(ctx context.Context) {
	c.tl.Info("Stopping worker core...")

	if err := c.server.Stop(ctx); err != nil {
		c.tl.Warn("stop trigger server failed", zap.Error(err))
	}

	// 停止调度器
	c.scheduler.Stop(ctx)

	// 停止 Prometheus 监控服务
	_ = c.metrics.Stop(ctx)

	if err := c.components.Close(); err != nil {
		c.tl.Warn("close components failed", zap.Error(err))
	}
	if err := c.repo.Close(); err != nil {
		c.tl.Warn("close repository failed", zap.Error(err))
	}

	c.tl.Info("Worker core stopped.")
}
