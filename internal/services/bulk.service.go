package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/prom"
)

var ErrAsyncUnavailable = errors.New("asynchronous bulk deposits are not configured")

type BulkTransactionWriter interface {
	CreateBatch(ctx context.Context, txns []*model.Transaction) ([]*model.Transaction, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type BulkJobStore interface {
	Init(ctx context.Context, jobID string, chunks []model.BulkChunkResult) error
	SaveChunk(ctx context.Context, jobID string, chunk model.BulkChunkResult) error
	Get(ctx context.Context, jobID string) (*model.BulkDepositResult, error)
}

type JobPublisher interface {
	PublishJSON(ctx context.Context, data interface{}, metadata map[string]string) (string, error)
}

// BulkDepositService records many deposits on one date in chunks. Each chunk
// commits in its own store transaction; a failed chunk leaves no rows behind
// and does not stop the others.
type BulkDepositService struct {
	txnRepo    BulkTransactionWriter
	memberRepo MemberReader
	jobs       BulkJobStore
	publisher  JobPublisher
	chunkSize  int
}

// NewBulkDepositService wires the synchronous path; jobs and publisher may be
// nil, which disables Enqueue.
func NewBulkDepositService(txnRepo BulkTransactionWriter, memberRepo MemberReader, jobs BulkJobStore, publisher JobPublisher, chunkSize int) *BulkDepositService {
	return &BulkDepositService{
		txnRepo:    txnRepo,
		memberRepo: memberRepo,
		jobs:       jobs,
		publisher:  publisher,
		chunkSize:  chunkSize,
	}
}

func (s *BulkDepositService) Deposit(ctx context.Context, p model.BulkDepositRequest) (*model.BulkDepositResult, error) {
	if err := s.prepare(ctx, &p); err != nil {
		return nil, err
	}

	result := &model.BulkDepositResult{Chunks: model.PendingChunks(p, s.chunkSize)}
	for i, entries := range p.Chunks(s.chunkSize) {
		result.Chunks[i] = s.commitChunk(ctx, p, entries, result.Chunks[i])
	}
	result.Tally()

	logger.Info("bulk deposit recorded", "group", model.GroupFromContext(ctx),
		"entries", len(p.Entries), "committed", result.Committed, "failed", result.Failed)
	return result, nil
}

// Enqueue validates the request, stores every chunk as pending and publishes
// the job for the processor.
func (s *BulkDepositService) Enqueue(ctx context.Context, p model.BulkDepositRequest) (*model.BulkDepositResult, error) {
	if s.publisher == nil || s.jobs == nil {
		return nil, ErrAsyncUnavailable
	}
	if err := s.prepare(ctx, &p); err != nil {
		return nil, err
	}

	job := model.BulkDepositJob{
		JobID:     uuid.NewString(),
		GroupID:   model.GroupFromContext(ctx),
		ChunkSize: s.chunkSize,
		Request:   p,
	}
	chunks := model.PendingChunks(p, s.chunkSize)
	if err := s.jobs.Init(ctx, job.JobID, chunks); err != nil {
		return nil, err
	}
	if _, err := s.publisher.PublishJSON(ctx, job, map[string]string{"job_id": job.JobID, "group": job.GroupID}); err != nil {
		return nil, fmt.Errorf("publish bulk job %s: %w", job.JobID, err)
	}

	result := &model.BulkDepositResult{JobID: job.JobID, Chunks: chunks}
	result.Tally()
	logger.Info("bulk deposit queued", "group", job.GroupID, "job_id", job.JobID, "chunks", len(chunks))
	return result, nil
}

// ApplyChunk commits one chunk of a queued job and stores its outcome. The
// returned error is only set when the outcome could not be stored.
func (s *BulkDepositService) ApplyChunk(ctx context.Context, job model.BulkDepositJob, index int) (model.BulkChunkResult, error) {
	ctx = model.WithGroup(ctx, job.GroupID)
	chunks := job.Request.Chunks(job.ChunkSize)
	if index < 0 || index >= len(chunks) {
		return model.BulkChunkResult{}, fmt.Errorf("job %s has no chunk %d", job.JobID, index)
	}

	pending := model.PendingChunks(job.Request, job.ChunkSize)[index]
	chunk := s.commitChunk(ctx, job.Request, chunks[index], pending)
	if s.jobs != nil {
		if err := s.jobs.SaveChunk(ctx, job.JobID, chunk); err != nil {
			return chunk, err
		}
	}
	return chunk, nil
}

// MarkChunk stores an outcome decided outside ApplyChunk, such as a chunk
// already applied by an earlier delivery.
func (s *BulkDepositService) MarkChunk(ctx context.Context, job model.BulkDepositJob, chunk model.BulkChunkResult) error {
	if s.jobs == nil {
		return nil
	}
	return s.jobs.SaveChunk(model.WithGroup(ctx, job.GroupID), job.JobID, chunk)
}

func (s *BulkDepositService) Status(ctx context.Context, jobID string) (*model.BulkDepositResult, error) {
	if s.jobs == nil {
		return nil, ErrAsyncUnavailable
	}
	return s.jobs.Get(ctx, jobID)
}

func (s *BulkDepositService) commitChunk(ctx context.Context, p model.BulkDepositRequest, entries []model.BulkDepositEntry, chunk model.BulkChunkResult) model.BulkChunkResult {
	err := s.txnRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		_, err := s.txnRepo.CreateBatch(ctx, p.ChunkTransactions(entries))
		return err
	})
	if err != nil {
		logger.Error("bulk chunk failed", "group", model.GroupFromContext(ctx), "chunk", chunk.Index, "error", err)
		chunk.Status = model.ChunkStatusFailed
		chunk.Error = err.Error()
	} else {
		chunk.Status = model.ChunkStatusCommitted
		chunk.Error = ""
	}
	prom.IncBulkChunk(string(chunk.Status))
	return chunk
}

// prepare validates the request and checks every member exists and is open
// before anything is written.
func (s *BulkDepositService) prepare(ctx context.Context, p *model.BulkDepositRequest) error {
	if err := p.Validate(); err != nil {
		return err
	}
	members, err := s.memberRepo.List(ctx)
	if err != nil {
		return err
	}
	byID := make(map[string]*model.Member, len(members))
	for _, m := range members {
		byID[m.ID] = m
	}
	for i, e := range p.Entries {
		field := fmt.Sprintf("entries[%d].member_id", i)
		m, ok := byID[e.MemberID]
		if !ok {
			return model.NewValidationError(field, fmt.Sprintf("member %q not found", e.MemberID))
		}
		if m.Status == model.MemberStatusClosed {
			return model.NewValidationError(field, fmt.Sprintf("member %q is closed", e.MemberID))
		}
	}
	return nil
}
