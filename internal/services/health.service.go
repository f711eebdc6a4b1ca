package services

import (
	"context"

	"github.com/pkg/errors"
)

type DBPinger interface {
	Ping(ctx context.Context) error
}

type RedisPinger interface {
	Ping() error
}

type HealthService struct {
	db    DBPinger
	redis RedisPinger
}

// NewHealthService checks db and, when set, redis.
func NewHealthService(db DBPinger, redis RedisPinger) *HealthService {
	return &HealthService{db: db, redis: redis}
}

func (s *HealthService) Check(ctx context.Context) error {
	if s.db != nil {
		if err := s.db.Ping(ctx); err != nil {
			return errors.Wrap(err, "database unreachable")
		}
	}
	if s.redis != nil {
		if err := s.redis.Ping(); err != nil {
			return errors.Wrap(err, "redis unreachable")
		}
	}
	return nil
}
