// Package service implements buyer and configuration management.
package service

import (
	"context"
	"errors"

	"leadexchange_backend/internal/buyers/domain"
	"leadexchange_backend/internal/buyers/repository"
	"leadexchange_backend/platform/apperr"
	"leadexchange_backend/platform/logger"

	"github.com/google/uuid"
)

// BuyersRepository is the persistence surface the service depends on.
type BuyersRepository interface {
	CreateBuyer(ctx context.Context, buyer domain.Buyer) (domain.Buyer, error)
	GetBuyer(ctx context.Context, id uuid.UUID) (domain.Buyer, error)
	ListBuyers(ctx context.Context) ([]domain.Buyer, error)
	UpdateBuyer(ctx context.Context, buyer domain.Buyer) (domain.Buyer, error)
	CreateConfig(ctx context.Context, cfg domain.Config) (domain.Config, error)
	UpdateConfig(ctx context.Context, cfg domain.Config) (domain.Config, error)
	GetConfigByID(ctx context.Context, id uuid.UUID) (domain.Config, error)
	ListConfigsByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Config, error)
}

type Service struct {
	repo BuyersRepository
	log  *logger.Logger
}

func New(repo BuyersRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) CreateBuyer(ctx context.Context, buyer domain.Buyer) (domain.Buyer, error) {
	if err := buyer.Validate(); err != nil {
		return domain.Buyer{}, apperr.Validation(err.Error())
	}
	created, err := s.repo.CreateBuyer(ctx, buyer)
	if err != nil {
		return domain.Buyer{}, apperr.Wrap(apperr.KindInternal, "failed to create buyer", err)
	}
	s.log.Info("buyer created", "buyer_id", created.ID, "name", created.Name)
	return created, nil
}

func (s *Service) GetBuyer(ctx context.Context, id uuid.UUID) (domain.Buyer, error) {
	buyer, err := s.repo.GetBuyer(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Buyer{}, apperr.NotFound("buyer not found")
	}
	if err != nil {
		return domain.Buyer{}, apperr.Wrap(apperr.KindInternal, "failed to load buyer", err)
	}
	return buyer, nil
}

func (s *Service) ListBuyers(ctx context.Context) ([]domain.Buyer, error) {
	buyers, err := s.repo.ListBuyers(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list buyers", err)
	}
	return buyers, nil
}

func (s *Service) UpdateBuyer(ctx context.Context, buyer domain.Buyer) (domain.Buyer, error) {
	if err := buyer.Validate(); err != nil {
		return domain.Buyer{}, apperr.Validation(err.Error())
	}
	updated, err := s.repo.UpdateBuyer(ctx, buyer)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Buyer{}, apperr.NotFound("buyer not found")
	}
	if err != nil {
		return domain.Buyer{}, apperr.Wrap(apperr.KindInternal, "failed to update buyer", err)
	}
	s.log.Info("buyer updated", "buyer_id", updated.ID)
	return updated, nil
}

// CreateConfig validates and stores a buyer-service configuration. Validation
// happens here so a broken mapping or response vocabulary never reaches an
// auction.
func (s *Service) CreateConfig(ctx context.Context, cfg domain.Config) (domain.Config, error) {
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, apperr.Validation(err.Error())
	}
	if _, err := s.GetBuyer(ctx, cfg.BuyerID); err != nil {
		return domain.Config{}, err
	}
	created, err := s.repo.CreateConfig(ctx, cfg)
	if err != nil {
		return domain.Config{}, apperr.Wrap(apperr.KindInternal, "failed to create buyer config", err)
	}
	s.log.Info("buyer config created",
		"config_id", created.ID, "buyer_id", created.BuyerID, "service_type", created.ServiceType)
	return created, nil
}

func (s *Service) UpdateConfig(ctx context.Context, cfg domain.Config) (domain.Config, error) {
	if err := cfg.Validate(); err != nil {
		return domain.Config{}, apperr.Validation(err.Error())
	}
	updated, err := s.repo.UpdateConfig(ctx, cfg)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Config{}, apperr.NotFound("buyer config not found")
	}
	if err != nil {
		return domain.Config{}, apperr.Wrap(apperr.KindInternal, "failed to update buyer config", err)
	}
	s.log.Info("buyer config updated", "config_id", updated.ID)
	return updated, nil
}

func (s *Service) GetConfig(ctx context.Context, id uuid.UUID) (domain.Config, error) {
	cfg, err := s.repo.GetConfigByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Config{}, apperr.NotFound("buyer config not found")
	}
	if err != nil {
		return domain.Config{}, apperr.Wrap(apperr.KindInternal, "failed to load buyer config", err)
	}
	return cfg, nil
}

func (s *Service) ListConfigs(ctx context.Context, buyerID uuid.UUID) ([]domain.Config, error) {
	configs, err := s.repo.ListConfigsByBuyer(ctx, buyerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list buyer configs", err)
	}
	return configs, nil
}
