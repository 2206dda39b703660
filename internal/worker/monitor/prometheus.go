package monitor

import "github.com/prometheus/client_golang/prometheus"

var (
	// SyncRunsTotal 同步任务相关
	SyncRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_sync_runs_total",
			Help: "Total number of balance sync runs by final status.",
		},
		[]string{"status"},
	)
	SyncRunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "balance_sync_run_duration_seconds",
			Help:    "Wall time of a balance sync run.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
	)
	SyncAccountsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_sync_accounts_total",
			Help: "Accounts processed by outcome (succeeded, failed, empty).",
		},
		[]string{"outcome"},
	)
	SyncHoldingsDiscarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_sync_holdings_discarded_total",
			Help: "Provider holdings dropped before reconciliation, by reason.",
		},
		[]string{"reason"},
	)
	SyncPriceResolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_sync_price_resolutions_total",
			Help: "Price lookups by outcome (resolved, unavailable, error).",
		},
		[]string{"outcome"},
	)
	SyncBalanceWrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_sync_balance_writes_total",
			Help: "Rows written by the reconciliation step, by kind (update, insert, snapshot).",
		},
		[]string{"kind"},
	)
	SyncSinkFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balance_sync_sink_failures_total",
			Help: "Post-commit sink write failures.",
		},
		[]string{"sink"},
	)

	// SchedulerJobRuns 调度器指标
	SchedulerJobRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scheduler_job_runs_total",
			Help: "Scheduled job executions by job and status (ok, failed, timeout).",
		},
		[]string{"job", "status"},
	)
	SchedulerJobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scheduler_job_duration_seconds",
			Help:    "Wall time of a scheduled job execution.",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"job"},
	)

	// AsyncWriterMessagesQueued AsyncWriter 指标
	AsyncWriterMessagesQueued = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_queued_total",
			Help: "Total number of messages queued to async writer.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterMessagesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_messages_dropped_total",
			Help: "Total number of messages dropped due to full queue.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterBatchSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "async_writer_batch_size",
			Help:    "Number of items in each batch submitted to the writer.",
			Buckets: []float64{10, 50, 100, 200, 500, 1000},
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_flush_count_total",
			Help: "Total number of batch flushes triggered.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "async_writer_flush_duration_seconds",
			Help:    "Time taken to flush a batch.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0},
		},
		[]string{"writer_id"},
	)
	AsyncWriterItemsWritten = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_items_written_total",
			Help: "Total number of items successfully written by the async writer.",
		},
		[]string{"writer_id"},
	)
	AsyncWriterWriteErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "async_writer_write_errors_total",
			Help: "Total number of failed batch writes.",
		},
		[]string{"writer_id"},
	)
)

func init() {
	prometheus.MustRegister(
		// 同步任务指标
		SyncRunsTotal,
		SyncRunDuration,
		SyncAccountsProcessed,
		SyncHoldingsDiscarded,
		SyncPriceResolutions,
		SyncBalanceWrites,
		SyncSinkFailures,

		// 调度器指标
		SchedulerJobRuns,
		SchedulerJobDuration,

		// async 写入指标
		AsyncWriterMessagesQueued,
		AsyncWriterMessagesDropped,
		AsyncWriterBatchSize,
		AsyncWriterFlushCount,
		AsyncWriterFlushDuration,
		AsyncWriterItemsWritten,
		AsyncWriterWriteErrors,
	)
}
