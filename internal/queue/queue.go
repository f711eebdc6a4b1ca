package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/prom"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/redis"
)

const (
	fieldPayload    = "payload"
	fieldEnqueuedAt = "enqueued_at"
	metaPrefix      = "meta_"
)

// Job is one stream entry handed to a JobHandler.
type Job struct {
	ID         string
	Payload    []byte
	Metadata   map[string]string
	EnqueuedAt time.Time
	// Deliveries counts how often the entry was handed out, this time included.
	Deliveries int64
}

// Decode unmarshals the JSON payload into v.
func (j *Job) Decode(v interface{}) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return errors.Wrapf(err, "decode job %s", j.ID)
	}
	return nil
}

// JobHandler processes one job. A nil return acks it; an error leaves it
// pending so it is claimed again after the visibility timeout.
type JobHandler func(ctx context.Context, job *Job) error

type QueueConfig struct {
	Name              string
	ConsumerGroup     string
	ConsumerName      string
	MaxRetries        int
	VisibilityTimeout time.Duration
	PollInterval      time.Duration
	BatchSize         int64
	MaxLen            int64
	EnableDLQ         bool
}

// Queue is a redis stream with one consumer group. Jobs are delivered at
// least once.
type Queue struct {
	adapter redis.RedisAdapter
	config  QueueConfig
	handler JobHandler
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	once    sync.Once
}

type QueueStats struct {
	TotalJobs     int64
	PendingJobs   int64
	ConsumerCount int64
	DeadLetters   int64
}

func NewQueue(adapter redis.RedisAdapter, config QueueConfig) (*Queue, error) {
	if config.Name == "" {
		return nil, fmt.Errorf("queue name is required")
	}
	if config.ConsumerGroup == "" {
		config.ConsumerGroup = config.Name + "-group"
	}
	if config.ConsumerName == "" {
		config.ConsumerName = fmt.Sprintf("consumer-%d", time.Now().UnixNano())
	}
	if config.MaxRetries <= 0 {
		config.MaxRetries = 3
	}
	if config.VisibilityTimeout <= 0 {
		config.VisibilityTimeout = 30 * time.Second
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Second
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}

	ctx, cancel := context.WithCancel(context.Background())
	q := &Queue{
		adapter: adapter,
		config:  config,
		ctx:     ctx,
		cancel:  cancel,
	}

	// BUSYGROUP only means another process created the group first
	if err := adapter.XGroupCreateMkStream(config.Name, config.ConsumerGroup, "0"); err != nil &&
		!strings.Contains(err.Error(), "BUSYGROUP") {
		cancel()
		return nil, errors.Wrapf(err, "create consumer group %s", config.ConsumerGroup)
	}
	return q, nil
}

func (q *Queue) Name() string {
	return q.config.Name
}

func (q *Queue) Publish(_ context.Context, payload []byte, metadata map[string]string) (string, error) {
	values := map[string]interface{}{
		fieldPayload:    string(payload),
		fieldEnqueuedAt: time.Now().Unix(),
	}
	for k, v := range metadata {
		values[metaPrefix+k] = v
	}

	id, err := q.adapter.XAdd(q.config.Name, values)
	if err != nil {
		return "", fmt.Errorf("failed to publish job: %w", err)
	}
	if q.config.MaxLen > 0 {
		_ = q.adapter.XTrimApprox(q.config.Name, q.config.MaxLen)
	}
	return id, nil
}

func (q *Queue) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}
	return q.Publish(ctx, payload, metadata)
}

// Consume starts the poll loop in the background; Stop ends it.
func (q *Queue) Consume(handler JobHandler) error {
	if handler == nil {
		return fmt.Errorf("job handler is required")
	}
	q.handler = handler
	q.wg.Add(1)
	go q.consumeLoop()
	return nil
}

func (q *Queue) consumeLoop() {
	defer q.wg.Done()

	ticker := time.NewTicker(q.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.ctx.Done():
			return
		case <-ticker.C:
			q.Poll()
		}
	}
}

// Poll handles one batch of new jobs and then reclaims jobs whose consumer
// went quiet for longer than the visibility timeout.
func (q *Queue) Poll() {
	q.readNew()
	q.claimStuck()
}

func (q *Queue) readNew() {
	entries, err := q.adapter.XReadGroup(q.config.ConsumerGroup, q.config.ConsumerName, q.config.Name, ">", q.config.BatchSize)
	if err != nil {
		if !errors.Is(err, redis.NilError) {
			logger.Error("failed to read jobs", "queue", q.config.Name, "error", err)
		}
		return
	}
	for _, entry := range entries {
		job := toJob(entry)
		job.Deliveries = 1
		q.handle(job)
	}
}

func (q *Queue) claimStuck() {
	pending, err := q.adapter.XPendingExt(q.config.Name, q.config.ConsumerGroup, "-", "+", 100)
	if err != nil || len(pending) == 0 {
		return
	}

	deliveries := make(map[string]int64)
	var ids []string
	for _, p := range pending {
		if p.Idle >= q.config.VisibilityTimeout {
			ids = append(ids, p.ID)
			deliveries[p.ID] = p.RetryCount
		}
	}
	if len(ids) == 0 {
		return
	}

	entries, err := q.adapter.XClaim(q.config.Name, q.config.ConsumerGroup, q.config.ConsumerName, q.config.VisibilityTimeout, ids...)
	if err != nil {
		logger.Error("failed to claim stuck jobs", "queue", q.config.Name, "error", err)
		return
	}
	for _, entry := range entries {
		job := toJob(entry)
		job.Deliveries = deliveries[entry.ID] + 1
		q.handle(job)
	}
}

func (q *Queue) handle(job *Job) {
	if job.Deliveries > int64(q.config.MaxRetries) {
		logger.Warn("job exceeded max retries", "queue", q.config.Name, "job", job.ID, "deliveries", job.Deliveries)
		q.deadLetter(job)
		q.ack(job.ID)
		return
	}

	ctx, cancel := context.WithTimeout(q.ctx, q.config.VisibilityTimeout)
	defer cancel()

	if err := q.handler(ctx, job); err != nil {
		logger.Warn("job failed, will retry", "queue", q.config.Name, "job", job.ID, "deliveries", job.Deliveries, "error", err)
		return
	}
	q.ack(job.ID)
}

func (q *Queue) ack(id string) {
	if err := q.adapter.XAck(q.config.Name, q.config.ConsumerGroup, id); err != nil {
		logger.Error("failed to ack job", "queue", q.config.Name, "job", id, "error", err)
	}
}

func (q *Queue) deadLetterName() string {
	return q.config.Name + ":dlq"
}

func (q *Queue) deadLetter(job *Job) {
	if !q.config.EnableDLQ {
		return
	}
	values := map[string]interface{}{
		fieldPayload:     string(job.Payload),
		"original_id":    job.ID,
		"deliveries":     job.Deliveries,
		"failed_at":      time.Now().Unix(),
		"original_queue": q.config.Name,
	}
	for k, v := range job.Metadata {
		values[metaPrefix+k] = v
	}
	if _, err := q.adapter.XAdd(q.deadLetterName(), values); err != nil {
		logger.Error("failed to dead-letter job", "queue", q.config.Name, "job", job.ID, "error", err)
	}
}

func toJob(entry redis.StreamMessage) *Job {
	job := &Job{ID: entry.ID, Metadata: make(map[string]string)}
	for k, v := range entry.Values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		switch {
		case k == fieldPayload:
			job.Payload = []byte(s)
		case k == fieldEnqueuedAt:
			if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
				job.EnqueuedAt = time.Unix(unix, 0)
			}
		case strings.HasPrefix(k, metaPrefix):
			job.Metadata[strings.TrimPrefix(k, metaPrefix)] = s
		}
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now()
	}
	return job
}

func (q *Queue) Stop(timeout time.Duration) error {
	q.once.Do(q.cancel)

	done := make(chan struct{})
	go func() {
		q.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("timeout waiting for queue to stop")
	}
}

// Stats reads the stream lengths and exports the backlog as a gauge.
func (q *Queue) Stats() (*QueueStats, error) {
	total, err := q.adapter.XLen(q.config.Name)
	if err != nil {
		return nil, err
	}
	stats := &QueueStats{TotalJobs: total}

	if pending, err := q.adapter.XPending(q.config.Name, q.config.ConsumerGroup); err == nil && pending != nil {
		stats.PendingJobs = pending.Count
		stats.ConsumerCount = int64(len(pending.Consumers))
	}
	if q.config.EnableDLQ {
		if dead, err := q.adapter.XLen(q.deadLetterName()); err == nil {
			stats.DeadLetters = dead
		}
	}

	prom.SetQueueDepth(q.config.Name, float64(stats.PendingJobs))
	return stats, nil
}
