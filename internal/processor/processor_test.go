package processor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProcessor struct {
	mu   sync.Mutex
	seen []string
	done chan struct{}
}

func (p *recordingProcessor) Type() string { return "recording" }

func (p *recordingProcessor) Process(ctx context.Context, job *queue.Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = append(p.seen, job.Metadata["job_id"])
	if len(p.seen) == 2 {
		close(p.done)
	}
	return nil
}

func TestProcessorService_ConsumesThroughWorkerPool(t *testing.T) {
	_, adapter := setupTestRedis(t)
	cfg := queue.QueueConfig{
		Name:              "bulk-deposits",
		ConsumerGroup:     "processors",
		ConsumerName:      "test",
		PollInterval:      20 * time.Millisecond,
		VisibilityTimeout: 5 * time.Second,
	}

	publisher, err := queue.NewQueue(adapter, cfg)
	require.NoError(t, err)
	ctx := context.Background()
	_, err = publisher.PublishJSON(ctx, map[string]string{}, map[string]string{"job_id": "a"})
	require.NoError(t, err)
	_, err = publisher.PublishJSON(ctx, map[string]string{}, map[string]string{"job_id": "b"})
	require.NoError(t, err)

	rec := &recordingProcessor{done: make(chan struct{})}
	service := NewProcessorService(adapter, Options{Queue: cfg, Consumers: 2, Workers: 2})
	service.RegisterProcessor(rec)
	require.NoError(t, service.Start())

	select {
	case <-rec.done:
	case <-time.After(3 * time.Second):
		t.Fatal("jobs not processed")
	}
	service.Stop()

	assert.ElementsMatch(t, []string{"a", "b"}, rec.seen)
	stats := service.metrics.GetStats()
	assert.Equal(t, int64(2), stats["total_processed"])
}

func TestProcessorService_StartWithoutProcessor(t *testing.T) {
	_, adapter := setupTestRedis(t)
	service := NewProcessorService(adapter, Options{Queue: queue.QueueConfig{Name: "bulk-deposits"}})
	assert.Error(t, service.Start())
}
