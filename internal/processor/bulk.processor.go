package processor

import (
	"context"
	"errors"
	"fmt"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/queue"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
)

type ChunkApplier interface {
	ApplyChunk(ctx context.Context, job model.BulkDepositJob, index int) (model.BulkChunkResult, error)
	MarkChunk(ctx context.Context, job model.BulkDepositJob, chunk model.BulkChunkResult) error
}

// BulkDepositProcessor applies the chunks of queued bulk deposits. Chunks
// already applied by an earlier delivery are skipped, so a redelivered job
// never writes a deposit twice.
type BulkDepositProcessor struct {
	applier     ChunkApplier
	idempotency *IdempotencyService
}

func NewBulkDepositProcessor(applier ChunkApplier, idempotency *IdempotencyService) *BulkDepositProcessor {
	return &BulkDepositProcessor{
		applier:     applier,
		idempotency: idempotency,
	}
}

func (p *BulkDepositProcessor) Type() string {
	return "bulk-deposit"
}

// Process returns an error only when the job should be delivered again.
func (p *BulkDepositProcessor) Process(ctx context.Context, j *queue.Job) error {
	var job model.BulkDepositJob
	if err := j.Decode(&job); err != nil {
		// a payload that does not decode never will; ack it
		logger.Error("dropping undecodable bulk job", "stream_id", j.ID, "error", err)
		return nil
	}

	var retry error
	for index := range job.Request.Chunks(job.ChunkSize) {
		if err := p.processChunk(ctx, job, index); err != nil {
			retry = errors.Join(retry, err)
		}
	}
	if retry != nil {
		return fmt.Errorf("bulk job %s incomplete: %w", job.JobID, retry)
	}

	logger.Info("bulk job processed", "job_id", job.JobID, "group", job.GroupID, "deliveries", j.Deliveries)
	return nil
}

func (p *BulkDepositProcessor) processChunk(ctx context.Context, job model.BulkDepositJob, index int) error {
	key := ChunkKey(job.JobID, index)
	claim, done, err := p.idempotency.Claim(ctx, key)
	if errors.Is(err, ErrAlreadyApplied) {
		// the status write may have been lost with the earlier delivery
		return p.applier.MarkChunk(ctx, job, *done)
	}
	if err != nil {
		return err
	}

	chunk, err := p.applier.ApplyChunk(ctx, job, index)
	if chunk.Status == "" {
		_ = p.idempotency.Release(ctx, claim)
		return err
	}
	// a committed or failed chunk is final; failed financial writes are not retried
	if markErr := p.idempotency.MarkApplied(ctx, claim, chunk); markErr != nil {
		return markErr
	}
	if err != nil {
		return p.applier.MarkChunk(ctx, job, chunk)
	}
	return nil
}
