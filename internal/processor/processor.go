package processor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/queue"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/redis"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/worker"
)

const (
	ProcessingTimeout = time.Minute
	HealthInterval    = time.Second * 30
	ShutdownTimeout   = time.Minute
	HighLagThreshold  = 1000
)

type Processor interface {
	Process(ctx context.Context, job *queue.Job) error
	Type() string
}

type Options struct {
	Queue     queue.QueueConfig
	Consumers int
	Workers   int
}

// ProcessorService runs queue consumers that hand every job to a shared
// worker pool and wait for its verdict before acking.
type ProcessorService struct {
	adapter   redis.RedisAdapter
	opts      Options
	queues    []*queue.Queue
	processor Processor
	metrics   *ServiceMetrics
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	worker    *worker.WorkerManager
}

func NewProcessorService(adapter redis.RedisAdapter, opts Options) *ProcessorService {
	if opts.Consumers <= 0 {
		opts.Consumers = 1
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &ProcessorService{
		adapter: adapter,
		opts:    opts,
		metrics: NewServiceMetrics(),
		ctx:     ctx,
		cancel:  cancel,
		worker:  worker.NewWorkerManager(opts.Workers*2, opts.Workers, nil),
	}
}

func (s *ProcessorService) RegisterProcessor(p Processor) {
	s.processor = p
	logger.Info("registered processor", "type", p.Type())
}

func (s *ProcessorService) Start() error {
	if s.processor == nil {
		return fmt.Errorf("no processor registered")
	}
	logger.Info("starting processor service", "queue", s.opts.Queue.Name)

	s.worker.SetWorker(s.workerHandler)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.worker.Start()
	}()

	for i := 0; i < s.opts.Consumers; i++ {
		cfg := s.opts.Queue
		cfg.ConsumerName = fmt.Sprintf("%s-%d", cfg.ConsumerName, i)

		q, err := queue.NewQueue(s.adapter, cfg)
		if err != nil {
			return fmt.Errorf("failed to create queue consumer %d: %w", i, err)
		}
		if err := q.Consume(s.jobHandler); err != nil {
			return fmt.Errorf("failed to start consumer %d: %w", i, err)
		}
		s.queues = append(s.queues, q)
	}

	s.wg.Add(1)
	go s.healthChecker()

	logger.Info("processor service started", "consumers", len(s.queues), "workers", s.opts.Workers)
	return nil
}

func (s *ProcessorService) healthChecker() {
	defer s.wg.Done()

	ticker := time.NewTicker(HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.performHealthCheck()
		case <-s.ctx.Done():
			return
		}
	}
}

func (s *ProcessorService) performHealthCheck() {
	if err := s.adapter.Ping(); err != nil {
		logger.Error("health check failed: redis unreachable", "error", err)
		return
	}
	if len(s.queues) == 0 {
		return
	}

	// every consumer shares one stream, so one reading covers them all
	stats, err := s.queues[0].Stats()
	if err != nil {
		logger.Warn("health check: queue stats unavailable", "error", err)
		return
	}
	if stats.PendingJobs > HighLagThreshold {
		logger.Warn("health check: queue has high lag", "pending", stats.PendingJobs)
	}
	if stats.DeadLetters > 0 {
		logger.Warn("health check: dead-lettered bulk jobs", "count", stats.DeadLetters)
	}
	s.reportMetrics()
}

func (s *ProcessorService) reportMetrics() {
	stats := s.metrics.GetStats()
	logger.Info("processor metrics",
		"total_processed", stats["total_processed"],
		"total_failed", stats["total_failed"],
		"avg_duration_ms", stats["avg_duration_ms"],
		"uptime_seconds", stats["uptime_seconds"])
}

func (s *ProcessorService) Stop() {
	logger.Info("shutting down processor service")
	s.cancel()

	var stopping sync.WaitGroup
	for i, q := range s.queues {
		stopping.Add(1)
		go func(index int, q *queue.Queue) {
			defer stopping.Done()
			if err := q.Stop(ShutdownTimeout); err != nil {
				logger.Error("error stopping queue consumer", "consumer", index, "error", err)
			}
		}(i, q)
	}
	stopping.Wait()

	s.worker.Exit()
	s.wg.Wait()
	s.reportMetrics()
	logger.Info("processor service stopped")
}

type pendingJob struct {
	job    *queue.Job
	result chan error
	ctx    context.Context
}

// jobHandler runs on a consumer goroutine and blocks until a worker is done
// with the job.
func (s *ProcessorService) jobHandler(ctx context.Context, job *queue.Job) error {
	jobCtx, cancel := context.WithTimeout(ctx, ProcessingTimeout)
	defer cancel()

	p := &pendingJob{job: job, result: make(chan error, 1), ctx: jobCtx}
	if !s.worker.Enqueue(p) {
		return fmt.Errorf("worker pool stopped before job %s", job.ID)
	}

	select {
	case err := <-p.result:
		return err
	case <-jobCtx.Done():
		return fmt.Errorf("timeout waiting for worker to process job %s: %w", job.ID, jobCtx.Err())
	}
}

func (s *ProcessorService) workerHandler(workerIndex int, j interface{}) {
	p, ok := j.(*pendingJob)
	if !ok {
		logger.Error("invalid job type in worker", "worker", workerIndex)
		return
	}
	if p.ctx.Err() != nil {
		logger.Warn("job cancelled before processing started", "worker", workerIndex, "job", p.job.ID)
		return
	}

	start := time.Now()
	err := s.processor.Process(p.ctx, p.job)
	if err != nil {
		s.metrics.RecordFailure()
		logger.Error("failed to process job", "worker", workerIndex, "job", p.job.ID, "error", err)
	} else {
		s.metrics.RecordSuccess(time.Since(start))
	}

	// result is buffered; a timed-out handler simply never reads it
	p.result <- err
}
