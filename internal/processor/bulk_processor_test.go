package processor

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/queue"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockChunkApplier struct {
	mock.Mock
}

func (m *MockChunkApplier) ApplyChunk(ctx context.Context, job model.BulkDepositJob, index int) (model.BulkChunkResult, error) {
	args := m.Called(ctx, job.JobID, index)
	return args.Get(0).(model.BulkChunkResult), args.Error(1)
}

func (m *MockChunkApplier) MarkChunk(ctx context.Context, job model.BulkDepositJob, chunk model.BulkChunkResult) error {
	return m.Called(ctx, job.JobID, chunk.Index).Error(0)
}

func bulkJob(t *testing.T, entries int) *queue.Job {
	req := model.BulkDepositRequest{Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	for i := 0; i < entries; i++ {
		req.Entries = append(req.Entries, model.BulkDepositEntry{MemberID: string(rune('A' + i)), Amount: decimal.NewFromInt(100)})
	}
	payload, err := json.Marshal(model.BulkDepositJob{JobID: "job-1", GroupID: "g1", ChunkSize: 2, Request: req})
	require.NoError(t, err)
	return &queue.Job{ID: "1-0", Payload: payload, Deliveries: 1}
}

func committed(index int) model.BulkChunkResult {
	return model.BulkChunkResult{Index: index, Status: model.ChunkStatusCommitted}
}

func TestBulkDepositProcessor_AppliesEveryChunk(t *testing.T) {
	_, adapter := setupTestRedis(t)
	applier := new(MockChunkApplier)
	p := NewBulkDepositProcessor(applier, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))
	ctx := context.Background()

	applier.On("ApplyChunk", ctx, "job-1", 0).Return(committed(0), nil).Once()
	applier.On("ApplyChunk", ctx, "job-1", 1).Return(committed(1), nil).Once()

	require.NoError(t, p.Process(ctx, bulkJob(t, 3)))
	applier.AssertExpectations(t)
	assert.Equal(t, "bulk-deposit", p.Type())
}

func TestBulkDepositProcessor_RedeliveryNeverReapplies(t *testing.T) {
	_, adapter := setupTestRedis(t)
	applier := new(MockChunkApplier)
	p := NewBulkDepositProcessor(applier, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))
	ctx := context.Background()

	applier.On("ApplyChunk", ctx, "job-1", 0).Return(committed(0), nil).Once()
	applier.On("ApplyChunk", ctx, "job-1", 1).Return(committed(1), nil).Once()
	require.NoError(t, p.Process(ctx, bulkJob(t, 4)))

	applier.On("MarkChunk", ctx, "job-1", 0).Return(nil).Once()
	applier.On("MarkChunk", ctx, "job-1", 1).Return(nil).Once()
	redelivered := bulkJob(t, 4)
	redelivered.Deliveries = 2
	require.NoError(t, p.Process(ctx, redelivered))

	applier.AssertNumberOfCalls(t, "ApplyChunk", 2)
	applier.AssertExpectations(t)
}

func TestBulkDepositProcessor_FailedChunkIsFinal(t *testing.T) {
	_, adapter := setupTestRedis(t)
	applier := new(MockChunkApplier)
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	p := NewBulkDepositProcessor(applier, idem)
	ctx := context.Background()

	failed := model.BulkChunkResult{Index: 0, Status: model.ChunkStatusFailed, Error: "constraint violation"}
	applier.On("ApplyChunk", ctx, "job-1", 0).Return(failed, nil).Once()

	require.NoError(t, p.Process(ctx, bulkJob(t, 2)))

	outcome, err := idem.Outcome(ctx, ChunkKey("job-1", 0))
	require.NoError(t, err)
	assert.Equal(t, model.ChunkStatusFailed, outcome.Status)
}

func TestBulkDepositProcessor_StatusWriteFailureRetries(t *testing.T) {
	_, adapter := setupTestRedis(t)
	applier := new(MockChunkApplier)
	p := NewBulkDepositProcessor(applier, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))
	ctx := context.Background()
	redisDown := errors.New("redis down")

	applier.On("ApplyChunk", ctx, "job-1", 0).Return(committed(0), redisDown).Once()
	applier.On("MarkChunk", ctx, "job-1", 0).Return(redisDown).Once()
	assert.Error(t, p.Process(ctx, bulkJob(t, 1)))

	applier.On("MarkChunk", ctx, "job-1", 0).Return(nil).Once()
	assert.NoError(t, p.Process(ctx, bulkJob(t, 1)))

	applier.AssertNumberOfCalls(t, "ApplyChunk", 1)
}

func TestBulkDepositProcessor_UndecodableJob(t *testing.T) {
	_, adapter := setupTestRedis(t)
	applier := new(MockChunkApplier)
	p := NewBulkDepositProcessor(applier, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))

	err := p.Process(context.Background(), &queue.Job{ID: "1-0", Payload: []byte("{not json")})
	assert.NoError(t, err)
	applier.AssertNotCalled(t, "ApplyChunk", mock.Anything, mock.Anything, mock.Anything)
}
