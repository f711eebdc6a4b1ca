package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/logger"
	"github.com/shambhoomaddheshiya/yuva-finance/pkg/redis"
)

var (
	ErrAlreadyApplied    = errors.New("chunk already applied")
	ErrLockAcquireFailed = errors.New("failed to acquire chunk lock")
)

type IdempotencyConfig struct {
	// LockTTL bounds how long a crashed consumer can hold a chunk.
	LockTTL time.Duration
	// DoneTTL must outlive every redelivery of the job.
	DoneTTL time.Duration

	LockKeyPrefix string
	DoneKeyPrefix string
}

func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		LockTTL:       30 * time.Second,
		DoneTTL:       7 * 24 * time.Hour,
		LockKeyPrefix: "bulk:lock:",
		DoneKeyPrefix: "bulk:done:",
	}
}

// ChunkKey identifies one chunk of one bulk job.
func ChunkKey(jobID string, index int) string {
	return fmt.Sprintf("%s:%d", jobID, index)
}

// IdempotencyService makes chunk application safe under redelivery: a chunk
// is applied at most once per key, and its outcome is kept for replays.
type IdempotencyService struct {
	redis  redis.RedisAdapter
	config IdempotencyConfig
}

func NewIdempotencyService(redisAdapter redis.RedisAdapter, config IdempotencyConfig) *IdempotencyService {
	return &IdempotencyService{
		redis:  redisAdapter,
		config: config,
	}
}

type ChunkClaim struct {
	Key      string
	acquired bool
}

// Claim takes the chunk lock. It returns ErrAlreadyApplied together with the
// recorded outcome when the chunk was applied before.
func (s *IdempotencyService) Claim(ctx context.Context, key string) (*ChunkClaim, *model.BulkChunkResult, error) {
	if done, err := s.Outcome(ctx, key); err != nil {
		return nil, nil, err
	} else if done != nil {
		logger.Debug("chunk already applied, skipping", "key", key)
		return nil, done, ErrAlreadyApplied
	}

	lockValue := []byte(fmt.Sprintf("%d", time.Now().UnixNano()))
	acquired, err := s.redis.SetNX(s.config.LockKeyPrefix+key, lockValue, s.config.LockTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrLockAcquireFailed, err)
	}
	if !acquired {
		return nil, nil, ErrLockAcquireFailed
	}
	return &ChunkClaim{Key: key, acquired: true}, nil, nil
}

// MarkApplied records the outcome of the chunk and drops the lock.
func (s *IdempotencyService) MarkApplied(ctx context.Context, claim *ChunkClaim, outcome model.BulkChunkResult) error {
	raw, err := json.Marshal(outcome)
	if err != nil {
		return err
	}
	if err := s.redis.Set(s.config.DoneKeyPrefix+claim.Key, raw, s.config.DoneTTL); err != nil {
		return fmt.Errorf("failed to mark chunk %s applied: %w", claim.Key, err)
	}
	return s.Release(ctx, claim)
}

// Release drops the lock without recording an outcome, so a later delivery
// can try again.
func (s *IdempotencyService) Release(_ context.Context, claim *ChunkClaim) error {
	if claim == nil || !claim.acquired {
		return nil
	}
	if err := s.redis.Del(s.config.LockKeyPrefix + claim.Key); err != nil {
		logger.Warn("failed to release chunk lock", "key", claim.Key, "error", err)
		return err
	}
	claim.acquired = false
	return nil
}

// Outcome returns the recorded outcome of key, or nil if it was never applied.
func (s *IdempotencyService) Outcome(_ context.Context, key string) (*model.BulkChunkResult, error) {
	raw, err := s.redis.Get(s.config.DoneKeyPrefix + key)
	if errors.Is(err, redis.NilError) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read chunk %s outcome: %w", key, err)
	}
	var outcome model.BulkChunkResult
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return nil, fmt.Errorf("failed to decode chunk %s outcome: %w", key, err)
	}
	return &outcome, nil
}
