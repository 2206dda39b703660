package job

import (
	"context"
	"errors"
	"sync"
	"time"

	"balance-sync/internal/worker/monitor"

	"go.uber.org/zap"
)

// JobFunc 定义作业执行函数
type JobFunc func(ctx context.Context) error

// JobSpec 周期作业的调度参数，Timeout<=0 时为 Interval/2，
// SkipInitialRun 为 true 时等第一个 tick 再执行
type JobSpec struct {
	Name           string
	Interval       time.Duration
	Timeout        time.Duration
	SkipInitialRun bool
}

type scheduledJob struct {
	spec JobSpec
	fn   JobFunc
}

// Scheduler 周期作业调度器，同一作业的执行串行，上一次未结束时不会叠加
type Scheduler struct {
	mu      sync.Mutex
	jobs    map[string]*scheduledJob
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewScheduler 创建调度器
func NewScheduler(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		jobs:   make(map[string]*scheduledJob),
		logger: logger,
	}
}

// Register 注册周期作业，同名覆盖
func (s *Scheduler) Register(spec JobSpec, fn JobFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if spec.Timeout <= 0 {
		spec.Timeout = spec.Interval / 2
	}
	s.jobs[spec.Name] = &scheduledJob{spec: spec, fn: fn}
	s.logger.Info("Registered job",
		zap.String("job", spec.Name),
		zap.Duration("interval", spec.Interval),
		zap.Duration("timeout", spec.Timeout),
		zap.Bool("skip_initial_run", spec.SkipInitialRun))
}

// Start 启动调度器，ctx 取消或调用 Stop 时所有作业退出
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return
	}
	s.running = true

	runCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	for _, job := range s.jobs {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.loop(runCtx, job)
		}()
	}
}

// Stop 取消正在执行的作业并等待退出，ctx 到期后不再等待
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.cancel()
	s.mu.Unlock()

	s.logger.Warn("Stopping scheduler...")

	waitCh := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(waitCh)
	}()

	select {
	case <-waitCh:
		s.logger.Info("All jobs stopped successfully")
	case <-ctx.Done():
		s.logger.Warn("Context deadline exceeded while waiting for jobs to stop")
	}
}

func (s *Scheduler) loop(ctx context.Context, job *scheduledJob) {
	ticker := time.NewTicker(job.spec.Interval)
	defer ticker.Stop()

	if !job.spec.SkipInitialRun {
		s.execute(ctx, job)
	}

	for {
		select {
		case <-ticker.C:
			s.execute(ctx, job)
		case <-ctx.Done():
			s.logger.Info("Stopping job", zap.String("job", job.spec.Name))
			return
		}
	}
}

// execute 执行一次作业，错误只记录
func (s *Scheduler) execute(ctx context.Context, job *scheduledJob) {
	jobCtx, cancel := context.WithTimeout(ctx, job.spec.Timeout)
	defer cancel()

	startTime := time.Now()
	err := job.fn(jobCtx)
	elapsed := time.Since(startTime)
	monitor.SchedulerJobDuration.WithLabelValues(job.spec.Name).Observe(elapsed.Seconds())

	switch {
	case err == nil:
		monitor.SchedulerJobRuns.WithLabelValues(job.spec.Name, "ok").Inc()
		s.logger.Debug("Job execution completed", zap.String("job", job.spec.Name), zap.Duration("duration", elapsed))
	case errors.Is(err, context.DeadlineExceeded):
		monitor.SchedulerJobRuns.WithLabelValues(job.spec.Name, "timeout").Inc()
		s.logger.Error("Job execution timed out",
			zap.String("job", job.spec.Name),
			zap.Duration("timeout", job.spec.Timeout),
			zap.Error(err))
	default:
		monitor.SchedulerJobRuns.WithLabelValues(job.spec.Name, "failed").Inc()
		s.logger.Error("Job execution failed",
			zap.String("job", job.spec.Name),
			zap.Duration("duration", elapsed),
			zap.Error(err))
	}
}
