package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/redis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockJobPublisher struct {
	mock.Mock
}

func (m *MockJobPublisher) PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error) {
	args := m.Called(ctx, data, metadata)
	return args.String(0), args.Error(1)
}

// flakyWriter writes the batch and then fails when it holds failOn, so the
// surrounding store transaction must roll the rows back.
type flakyWriter struct {
	*repository.TransactionRepository
	failOn string
}

func (w flakyWriter) CreateBatch(ctx context.Context, txns []*model.Transaction) ([]*model.Transaction, error) {
	created, err := w.TransactionRepository.CreateBatch(ctx, txns)
	if err != nil {
		return nil, err
	}
	for _, t := range txns {
		if t.MemberID == w.failOn {
			return nil, errors.New("disk full")
		}
	}
	return created, nil
}

func bulkRequest(ids ...string) model.BulkDepositRequest {
	req := model.BulkDepositRequest{Date: day(2024, 5, 1), Description: "May contribution"}
	for _, id := range ids {
		req.Entries = append(req.Entries, model.BulkDepositEntry{MemberID: id, Amount: dec("200")})
	}
	return req
}

func setupJobStore(t *testing.T) *repository.BulkJobRepository {
	mr := miniredis.RunT(t)
	adapter, err := redis.NewRedisAdapter(t.Name()+"-"+mr.Addr(), "test:", &goredis.UniversalOptions{
		Addrs: []string{mr.Addr()},
	})
	require.NoError(t, err)
	return repository.NewBulkJobRepository(adapter, time.Hour)
}

func TestBulkDepositService_Deposit(t *testing.T) {
	f := setupLedger(t)
	for _, id := range []string{"A", "B", "C", "D", "E"} {
		f.addMember(t, id, model.MemberStatusActive)
	}
	service := NewBulkDepositService(f.txns, f.members, nil, nil, 2)

	result, err := service.Deposit(f.ctx, bulkRequest("A", "B", "C", "D", "E"))
	require.NoError(t, err)
	require.Len(t, result.Chunks, 3)
	assert.Equal(t, 3, result.Committed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, []string{"E"}, result.Chunks[2].MemberIDs)

	all, err := f.txns.ListAll(f.ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

func TestBulkDepositService_Deposit_ChunkFailureIsolated(t *testing.T) {
	f := setupLedger(t)
	for _, id := range []string{"A", "B", "C", "D"} {
		f.addMember(t, id, model.MemberStatusActive)
	}
	service := NewBulkDepositService(flakyWriter{f.txns, "C"}, f.members, nil, nil, 2)

	result, err := service.Deposit(f.ctx, bulkRequest("A", "B", "C", "D"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Committed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, model.ChunkStatusCommitted, result.Chunks[0].Status)
	assert.Equal(t, model.ChunkStatusFailed, result.Chunks[1].Status)
	assert.Equal(t, "disk full", result.Chunks[1].Error)

	all, err := f.txns.ListAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, txn := range all {
		assert.Contains(t, []string{"A", "B"}, txn.MemberID)
	}
}

func TestBulkDepositService_Deposit_RejectsBeforeWriting(t *testing.T) {
	f := setupLedger(t)
	f.addMember(t, "A", model.MemberStatusActive)
	f.addMember(t, "Z", model.MemberStatusClosed)
	service := NewBulkDepositService(f.txns, f.members, nil, nil, 2)

	_, err := service.Deposit(f.ctx, bulkRequest("A", "ghost"))
	var verr *model.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "entries[1].member_id", verr.Field)

	_, err = service.Deposit(f.ctx, bulkRequest("A", "Z"))
	assert.ErrorIs(t, err, model.ErrValidation)

	all, err := f.txns.ListAll(f.ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestBulkDepositService_EnqueueAndApply(t *testing.T) {
	f := setupLedger(t)
	for _, id := range []string{"A", "B", "C"} {
		f.addMember(t, id, model.MemberStatusActive)
	}
	jobs := setupJobStore(t)
	publisher := new(MockJobPublisher)
	service := NewBulkDepositService(f.txns, f.members, jobs, publisher, 2)

	var published model.BulkDepositJob
	publisher.On("PublishJSON", f.ctx, mock.AnythingOfType("model.BulkDepositJob"), mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(1).(model.BulkDepositJob) }).
		Return("1-0", nil)

	queued, err := service.Enqueue(f.ctx, bulkRequest("A", "B", "C"))
	require.NoError(t, err)
	assert.NotEmpty(t, queued.JobID)
	assert.Equal(t, 2, queued.Pending)
	assert.Equal(t, queued.JobID, published.JobID)
	assert.Equal(t, "group-1", published.GroupID)

	chunk, err := service.ApplyChunk(context.Background(), published, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ChunkStatusCommitted, chunk.Status)

	status, err := service.Status(f.ctx, queued.JobID)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Committed)
	assert.Equal(t, 1, status.Pending)

	_, err = service.ApplyChunk(context.Background(), published, 5)
	assert.Error(t, err)

	all, err := f.txns.ListAll(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "C", all[0].MemberID)
	publisher.AssertExpectations(t)
}

func TestBulkDepositService_EnqueueUnavailable(t *testing.T) {
	f := setupLedger(t)
	service := NewBulkDepositService(f.txns, f.members, nil, nil, 2)

	_, err := service.Enqueue(f.ctx, bulkRequest("A"))
	assert.ErrorIs(t, err, ErrAsyncUnavailable)
}
