package services

import (
	"context"
	"errors"

	"github.com/shambhoomaddheshiya/yuva-finance/internal/model"
	"github.com/shambhoomaddheshiya/yuva-finance/internal/repository"
)

type SettingsRepository interface {
	Get(ctx context.Context) (*model.GroupSettings, error)
	Upsert(ctx context.Context, s *model.GroupSettings) (*model.GroupSettings, error)
}

type SettingsService struct {
	repo SettingsRepository
}

func NewSettingsService(repo SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

// Get returns the group's settings, or empty ones if none were saved yet.
func (s *SettingsService) Get(ctx context.Context) (*model.GroupSettings, error) {
	settings, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrSettingsNotFound) {
		return &model.GroupSettings{GroupID: model.GroupFromContext(ctx)}, nil
	}
	return settings, err
}

func (s *SettingsService) Update(ctx context.Context, p model.SettingsUpdateRequest) (*model.GroupSettings, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Upsert(ctx, p.ToSettings())
}
