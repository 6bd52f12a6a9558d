// Package service resolves which buyers are eligible to bid on a lead.
package service

import (
	"context"
	"errors"

	buyersdomain "leadexchange_backend/internal/buyers/domain"
	"leadexchange_backend/internal/coverage/domain"
	"leadexchange_backend/internal/coverage/repository"
	"leadexchange_backend/platform/apperr"
	"leadexchange_backend/platform/logger"

	"github.com/google/uuid"
)

// CoverageRepository is the persistence surface the service depends on.
type CoverageRepository interface {
	Create(ctx context.Context, entry domain.Entry) (domain.Entry, error)
	Update(ctx context.Context, entry domain.Entry) (domain.Entry, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Entry, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]domain.Entry, error)
	FindEligible(ctx context.Context, serviceType, zipCode string) ([]repository.EligibleRow, error)
}

// Candidate is one buyer cleared to participate in an auction, with the bid
// range already resolved (ZIP-level overrides applied over the config range).
type Candidate struct {
	Buyer    buyersdomain.Buyer
	Config   buyersdomain.Config
	Priority int
	Bids     buyersdomain.BidRange
}

type Service struct {
	repo CoverageRepository
	log  *logger.Logger
}

func New(repo CoverageRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// FindEligibleBuyers returns auction candidates for one lead cell, highest
// priority first. An empty slice is a valid outcome; the caller decides what
// "no coverage" means.
func (s *Service) FindEligibleBuyers(ctx context.Context, serviceType, zipCode string) ([]Candidate, error) {
	rows, err := s.repo.FindEligible(ctx, serviceType, zipCode)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to resolve coverage", err)
	}

	candidates := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		bids := row.Config.Bids
		if row.Entry.MinBid != nil {
			bids.Min = *row.Entry.MinBid
		}
		if row.Entry.MaxBid != nil {
			bids.Max = *row.Entry.MaxBid
		}
		candidates = append(candidates, Candidate{
			Buyer:    row.Buyer,
			Config:   row.Config,
			Priority: row.Entry.Priority,
			Bids:     bids,
		})
	}

	s.log.Debug("coverage resolved",
		"service_type", serviceType, "zip_code", zipCode, "candidates", len(candidates))
	return candidates, nil
}

func (s *Service) CreateEntry(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	if err := entry.Validate(); err != nil {
		return domain.Entry{}, apperr.Validation(err.Error())
	}
	created, err := s.repo.Create(ctx, entry)
	if err != nil {
		return domain.Entry{}, apperr.Wrap(apperr.KindInternal, "failed to create coverage entry", err)
	}
	s.log.Info("coverage entry created",
		"entry_id", created.ID, "buyer_id", created.BuyerID,
		"service_type", created.ServiceType, "zip_code", created.ZipCode)
	return created, nil
}

func (s *Service) UpdateEntry(ctx context.Context, entry domain.Entry) (domain.Entry, error) {
	if err := entry.Validate(); err != nil {
		return domain.Entry{}, apperr.Validation(err.Error())
	}
	updated, err := s.repo.Update(ctx, entry)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Entry{}, apperr.NotFound("coverage entry not found")
	}
	if err != nil {
		return domain.Entry{}, apperr.Wrap(apperr.KindInternal, "failed to update coverage entry", err)
	}
	return updated, nil
}

func (s *Service) GetEntry(ctx context.Context, id uuid.UUID) (domain.Entry, error) {
	entry, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.Entry{}, apperr.NotFound("coverage entry not found")
	}
	if err != nil {
		return domain.Entry{}, apperr.Wrap(apperr.KindInternal, "failed to load coverage entry", err)
	}
	return entry, nil
}

func (s *Service) DeleteEntry(ctx context.Context, id uuid.UUID) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound("coverage entry not found")
	}
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to delete coverage entry", err)
	}
	return nil
}

func (s *Service) ListEntries(ctx context.Context, buyerID uuid.UUID) ([]domain.Entry, error) {
	entries, err := s.repo.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list coverage entries", err)
	}
	return entries, nil
}
