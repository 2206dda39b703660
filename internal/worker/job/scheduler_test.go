package job

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"balance-sync/internal/worker/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSchedulerRunsImmediatelyAndOnTick(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	var runs atomic.Int32
	s.Register(JobSpec{Name: "tick", Interval: 20 * time.Millisecond}, func(ctx context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	assert.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(stopCtx)
}

func TestSchedulerAppliesTimeout(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	deadlines := make(chan time.Duration, 1)
	s.Register(JobSpec{Name: "timeout", Interval: time.Hour, Timeout: 50 * time.Millisecond}, func(ctx context.Context) error {
		dl, ok := ctx.Deadline()
		if ok {
			select {
			case deadlines <- time.Until(dl):
			default:
			}
		}
		return nil
	})

	s.Start(context.Background())
	select {
	case d := <-deadlines:
		assert.LessOrEqual(t, d, 50*time.Millisecond)
	case <-time.After(time.Second):
		t.Fatal("job did not run")
	}
	s.Stop(context.Background())
}

func TestSchedulerDefaultTimeoutIsHalfInterval(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	s.Register(JobSpec{Name: "half", Interval: time.Minute}, func(context.Context) error { return nil })
	assert.Equal(t, 30*time.Second, s.jobs["half"].spec.Timeout)
}

func TestSchedulerSkipInitialRun(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	var runs atomic.Int32
	s.Register(JobSpec{Name: "lazy", Interval: time.Hour, SkipInitialRun: true}, func(context.Context) error {
		runs.Add(1)
		return nil
	})

	s.Start(context.Background())
	time.Sleep(30 * time.Millisecond)
	s.Stop(context.Background())
	assert.Zero(t, runs.Load())
}

func TestSchedulerStopCancelsRunningJob(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	started := make(chan struct{})
	cancelled := make(chan struct{})
	s.Register(JobSpec{Name: "slow", Interval: time.Hour}, func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	s.Start(context.Background())
	<-started

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(stopCtx)

	select {
	case <-cancelled:
	default:
		t.Fatal("running job was not cancelled")
	}
}

func TestSchedulerStopWithoutStart(t *testing.T) {
	s := NewScheduler(zap.NewNop())
	s.Register(JobSpec{Name: "idle", Interval: time.Second}, func(context.Context) error { return nil })
	s.Stop(context.Background())
}

type fakeSyncer struct {
	summary *service.SyncSummary
	err     error
	calls   int
}

func (f *fakeSyncer) Sync(context.Context) (*service.SyncSummary, error) {
	f.calls++
	return f.summary, f.err
}

func TestBalanceSyncJob(t *testing.T) {
	ok := &fakeSyncer{summary: &service.SyncSummary{Success: true, Message: "Synced 1 of 1 accounts"}}
	require.NoError(t, NewBalanceSync(ok, zap.NewNop()).Run(context.Background()))
	assert.Equal(t, 1, ok.calls)

	busy := &fakeSyncer{err: service.ErrRunInProgress}
	assert.NoError(t, NewBalanceSync(busy, zap.NewNop()).Run(context.Background()))

	failing := &fakeSyncer{err: service.ErrPersistence}
	assert.ErrorIs(t, NewBalanceSync(failing, zap.NewNop()).Run(context.Background()), service.ErrPersistence)
}
