package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/redis"
)

const (
	bulkJobKeyPrefix  = "bulk:job:"
	bulkJobGroupField = "group"
	bulkJobChunkField = "chunk:"
)

// BulkJobRepository keeps the per-chunk status of asynchronous bulk deposits
// in one redis hash per job.
type BulkJobRepository struct {
	redis redis.RedisAdapter
	ttl   time.Duration
}

func NewBulkJobRepository(adapter redis.RedisAdapter, ttl time.Duration) *BulkJobRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &BulkJobRepository{redis: adapter, ttl: ttl}
}

// Init stores the job's chunks, normally all pending, under the group of ctx.
func (r *BulkJobRepository) Init(ctx context.Context, jobID string, chunks []model.BulkChunkResult) error {
	key := bulkJobKeyPrefix + jobID
	if err := r.redis.HSet(key, bulkJobGroupField, model.GroupFromContext(ctx)); err != nil {
		return storeErr("init bulk job", err)
	}
	for _, c := range chunks {
		if err := r.saveChunk(key, c); err != nil {
			return err
		}
	}
	if err := r.redis.Expire(key, r.ttl); err != nil {
		return storeErr("expire bulk job", err)
	}
	return nil
}

func (r *BulkJobRepository) SaveChunk(_ context.Context, jobID string, chunk model.BulkChunkResult) error {
	return r.saveChunk(bulkJobKeyPrefix+jobID, chunk)
}

func (r *BulkJobRepository) saveChunk(key string, chunk model.BulkChunkResult) error {
	raw, err := json.Marshal(chunk)
	if err != nil {
		return errors.Wrap(err, "encode bulk chunk")
	}
	if err := r.redis.HSet(key, bulkJobChunkField+strconv.Itoa(chunk.Index), raw); err != nil {
		return storeErr("save bulk chunk", err)
	}
	return nil
}

// Get returns the job status. Jobs of another group read as not found.
func (r *BulkJobRepository) Get(ctx context.Context, jobID string) (*model.BulkDepositResult, error) {
	fields, err := r.redis.HGetAll(bulkJobKeyPrefix + jobID)
	if err != nil {
		return nil, storeErr("get bulk job", err)
	}
	group, ok := fields[bulkJobGroupField]
	if !ok || group != model.GroupFromContext(ctx) {
		return nil, ErrJobNotFound
	}

	result := &model.BulkDepositResult{JobID: jobID}
	for field, raw := range fields {
		if !strings.HasPrefix(field, bulkJobChunkField) {
			continue
		}
		var chunk model.BulkChunkResult
		if err := json.Unmarshal([]byte(raw), &chunk); err != nil {
			return nil, errors.Wrapf(err, "decode bulk chunk %s", field)
		}
		result.Chunks = append(result.Chunks, chunk)
	}
	sort.Slice(result.Chunks, func(i, j int) bool { return result.Chunks[i].Index < result.Chunks[j].Index })
	result.Tally()
	return result, nil
}
