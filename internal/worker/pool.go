// Package worker implements the buffered worker pool used for combat ingestion.
// HTTP handlers enqueue accepted records and return immediately; workers
// batch them into the combat store:
// - Backpressure handling via load shedding
// - Batch inserts for efficient ClickHouse writes
// - Graceful shutdown with flush guarantees
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/pokestudy/battle-api/internal/models"
)

// Prometheus metrics
var (
	combatsIngested = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battle_combats_ingested_total",
		Help: "Total number of combat records accepted into the queue",
	})

	combatsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battle_combats_processed_total",
		Help: "Total number of combat records written by workers",
	})

	combatsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battle_combats_failed_total",
		Help: "Total number of combat records that failed to write",
	})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "battle_worker_queue_depth",
		Help: "Current depth of the worker queue",
	})

	batchInsertDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "battle_batch_insert_duration_seconds",
		Help:    "Duration of combat batch inserts",
		Buckets: prometheus.DefBuckets,
	})

	combatsLoadShed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "battle_combats_load_shed_total",
		Help: "Total number of combat records dropped due to load shedding",
	})
)

// CombatWriter persists a batch of combats
type CombatWriter interface {
	WriteCombats(ctx context.Context, combats []models.IngestedCombat) error
}

// Job represents a unit of work for the worker pool
type Job struct {
	Combat models.IngestedCombat
}

// PoolConfig configures the worker pool
type PoolConfig struct {
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration
	WriteTimeout  time.Duration
	Writer        CombatWriter
	// OnFlush runs after every successful write with the number of records
	OnFlush func(n int)
	Logger  *zap.Logger
}

// Pool manages a pool of workers for async combat writes
type Pool struct {
	config   PoolConfig
	jobQueue chan Job
	wg       sync.WaitGroup
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *zap.SugaredLogger

	mu      sync.RWMutex
	stopped bool
}

// NewPool creates a new worker pool
func NewPool(cfg PoolConfig) *Pool {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 500
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	return &Pool{
		config:   cfg,
		jobQueue: make(chan Job, cfg.QueueSize),
		logger:   cfg.Logger.Sugar(),
	}
}

// Start launches the worker goroutines
func (p *Pool) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	go p.reportQueueDepth()

	p.logger.Infow("Worker pool started",
		"workers", p.config.WorkerCount,
		"queueSize", p.config.QueueSize,
		"batchSize", p.config.BatchSize,
	)
}

// Stop closes the queue, waits for workers to drain it, then stops the reporter
func (p *Pool) Stop() {
	p.logger.Info("Stopping worker pool...")

	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	close(p.jobQueue)
	p.mu.Unlock()

	p.wg.Wait()
	if p.cancel != nil {
		p.cancel()
	}
	p.logger.Info("Worker pool stopped")
}

// Enqueue adds a combat to the queue without blocking. It returns false when
// the queue is full or the pool has stopped; the record is then dropped.
func (p *Pool) Enqueue(combat models.IngestedCombat) bool {
	if combat.ReceivedAt.IsZero() {
		combat.ReceivedAt = time.Now().UTC()
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		combatsLoadShed.Inc()
		return false
	}

	select {
	case p.jobQueue <- Job{Combat: combat}:
		combatsIngested.Inc()
		return true
	default:
		combatsLoadShed.Inc()
		return false
	}
}

// QueueDepth returns current queue size
func (p *Pool) QueueDepth() int {
	return len(p.jobQueue)
}

// worker processes jobs from the queue in batches
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	batch := make([]models.IngestedCombat, 0, p.config.BatchSize)
	ticker := time.NewTicker(p.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}

		start := time.Now()
		if err := p.processBatch(batch); err != nil {
			p.logger.Errorw("Batch processing failed",
				"worker", id,
				"batchSize", len(batch),
				"error", err,
			)
			combatsFailed.Add(float64(len(batch)))
		} else {
			p.logger.Infow("Batch processed successfully", "worker", id, "batchSize", len(batch), "duration", time.Since(start))
			combatsProcessed.Add(float64(len(batch)))
			if p.config.OnFlush != nil {
				p.config.OnFlush(len(batch))
			}
		}
		batchInsertDuration.Observe(time.Since(start).Seconds())

		batch = batch[:0]
	}

	for {
		select {
		case job, ok := <-p.jobQueue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, job.Combat)
			if len(batch) >= p.config.BatchSize {
				flush()
			}

		case <-ticker.C:
			flush()
		}
	}
}

// processBatch writes one batch. It uses its own timeout rather than the pool
// context so records drained during shutdown are still written.
func (p *Pool) processBatch(batch []models.IngestedCombat) error {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.WriteTimeout)
	defer cancel()
	return p.config.Writer.WriteCombats(ctx, batch)
}

func (p *Pool) reportQueueDepth() {
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			queueDepth.Set(float64(len(p.jobQueue)))
		case <-p.ctx.Done():
			return
		}
	}
}
