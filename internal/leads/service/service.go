// Package service implements lead lifecycle operations: intake, the status
// machine transitions, credits, and history reads. All lead mutation in the
// system funnels through this package.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"leadexchange_backend/internal/events"
	"leadexchange_backend/internal/leads/domain"
	"leadexchange_backend/internal/leads/repository"
	"leadexchange_backend/platform/apperr"
	"leadexchange_backend/platform/logger"
	"leadexchange_backend/platform/phone"

	"github.com/google/uuid"
)

// LeadsRepository is the storage contract the service depends on.
type LeadsRepository interface {
	Create(ctx context.Context, params repository.CreateLeadParams) (repository.Lead, error)
	GetByID(ctx context.Context, id uuid.UUID) (repository.Lead, error)
	ListByStatus(ctx context.Context, status domain.Status, limit int) ([]repository.Lead, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) (repository.Lead, error)
	IssueCredit(ctx context.Context, params repository.IssueCreditParams) (repository.Lead, error)
	ListHistory(ctx context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error)
	ListStaleInFlight(ctx context.Context, cutoff time.Time, limit int) ([]repository.Lead, error)
}

// AuctionEnqueuer schedules an auction run for a freshly created lead.
type AuctionEnqueuer interface {
	EnqueueAuctionRun(ctx context.Context, leadID uuid.UUID) error
}

type Service struct {
	repo     LeadsRepository
	enqueuer AuctionEnqueuer
	bus      events.Bus
	log      *logger.Logger
}

func New(repo LeadsRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// SetEventBus wires the domain event bus.
func (s *Service) SetEventBus(bus events.Bus) {
	s.bus = bus
}

// SetAuctionEnqueuer wires the background auction queue.
func (s *Service) SetAuctionEnqueuer(enqueuer AuctionEnqueuer) {
	s.enqueuer = enqueuer
}

// SubmitParams carries an inbound consumer submission.
type SubmitParams struct {
	ServiceType string
	ZipCode     string
	FormAnswers map[string]any
	HomeOwner   bool
	Timeframe   string
	Compliance  map[string]any
}

// Submit persists a new PENDING lead, publishes lead.created, and enqueues an
// auction run.
func (s *Service) Submit(ctx context.Context, params SubmitParams) (repository.Lead, error) {
	if params.ServiceType == "" {
		return repository.Lead{}, apperr.Validation("service type is required")
	}
	if params.ZipCode == "" {
		return repository.Lead{}, apperr.Validation("zip code is required")
	}
	if params.FormAnswers == nil {
		params.FormAnswers = map[string]any{}
	}

	// Canonicalize the phone answer so every buyer mapping starts from E.164.
	if raw, ok := params.FormAnswers["phone"].(string); ok && raw != "" {
		params.FormAnswers["phone"] = phone.NormalizeE164(raw)
	}

	score := qualityScore(params)
	lead, err := s.repo.Create(ctx, repository.CreateLeadParams{
		ServiceType:  params.ServiceType,
		ZipCode:      params.ZipCode,
		FormAnswers:  params.FormAnswers,
		HomeOwner:    params.HomeOwner,
		Timeframe:    params.Timeframe,
		Compliance:   params.Compliance,
		QualityScore: &score,
	})
	if err != nil {
		s.log.DatabaseError("leads.create", err)
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:   events.NewBaseEvent(),
			LeadID:      lead.ID,
			ServiceType: lead.ServiceType,
			ZipCode:     lead.ZipCode,
		})
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueAuctionRun(ctx, lead.ID); err != nil {
			// The lead is saved; the expiry sweep or a manual trigger can
			// still pick it up, so intake does not fail.
			s.log.Error("failed to enqueue auction run", "lead_id", lead.ID, "error", err)
		}
	}

	return lead, nil
}

// Get returns one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err)
	}
	return lead, nil
}

// ListByStatus returns leads in one status, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status domain.Status, limit int) ([]repository.Lead, error) {
	if !domain.KnownStatus(status) {
		return nil, apperr.Validation(fmt.Sprintf("unknown status %q", status))
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	leads, err := s.repo.ListByStatus(ctx, status, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list leads", err)
	}
	return leads, nil
}

// TransitionParams drives one status machine call.
type TransitionParams struct {
	LeadID         uuid.UUID
	NewStatus      domain.Status
	NewDisposition *domain.Disposition
	Reason         string
	ActorID        *uuid.UUID
	Source         domain.ChangeSource

	// WinningBuyerID/WinningBid accompany the SOLD transition only.
	WinningBuyerID *uuid.UUID
	WinningBid     *float64
}

// Transition validates and applies one status/disposition change with
// optimistic concurrency. Concurrent modification surfaces as a typed error
// the caller must retry with a fresh read.
func (s *Service) Transition(ctx context.Context, params TransitionParams) (repository.Lead, error) {
	if !domain.KnownStatus(params.NewStatus) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown status %q", params.NewStatus))
	}
	if !domain.KnownSource(params.Source) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown change source %q", params.Source))
	}
	if params.Source.RequiresReason() && params.Reason == "" {
		return repository.Lead{}, apperr.Validation("admin transitions require a reason")
	}
	if params.NewStatus == domain.StatusSold && (params.WinningBuyerID == nil || params.WinningBid == nil) {
		return repository.Lead{}, apperr.Validation("SOLD requires a winning buyer and bid")
	}
	if params.NewStatus != domain.StatusSold && (params.WinningBuyerID != nil || params.WinningBid != nil) {
		return repository.Lead{}, apperr.Validation("winning buyer and bid only accompany SOLD")
	}

	lead, err := s.Get(ctx, params.LeadID)
	if err != nil {
		return repository.Lead{}, err
	}

	if !domain.CanTransitionStatus(lead.Status, params.NewStatus) {
		return repository.Lead{}, apperr.InvalidTransition(
			fmt.Sprintf("cannot transition from %s to %s", lead.Status, params.NewStatus),
		).WithDetails(map[string]any{"allowed": domain.AllowedStatusTargets(lead.Status)})
	}
	if params.NewDisposition != nil {
		if !domain.KnownDisposition(*params.NewDisposition) {
			return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown disposition %q", *params.NewDisposition))
		}
		if !domain.CanTransitionDisposition(lead.Disposition, *params.NewDisposition) {
			return repository.Lead{}, apperr.InvalidTransition(
				fmt.Sprintf("cannot transition disposition from %s to %s", lead.Disposition, *params.NewDisposition),
			).WithDetails(map[string]any{"allowed": domain.AllowedDispositionTargets(lead.Disposition)})
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		LeadID:          params.LeadID,
		PrevStatus:      lead.Status,
		NewStatus:       params.NewStatus,
		PrevDisposition: lead.Disposition,
		NewDisposition:  params.NewDisposition,
		Reason:          params.Reason,
		ActorID:         params.ActorID,
		Source:          params.Source,
		WinningBuyerID:  params.WinningBuyerID,
		WinningBid:      params.WinningBid,
	})
	if errors.Is(err, repository.ErrConcurrentModification) {
		return repository.Lead{}, apperr.ConcurrentModification("lead was modified concurrently, retry with a fresh read")
	}
	if err != nil {
		s.log.DatabaseError("leads.update_status", err)
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead status", err)
	}

	s.log.StatusTransition(updated.ID.String(), string(lead.Status), string(updated.Status), string(params.Source))

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadStatusChanged{
			BaseEvent:  events.NewBaseEvent(),
			LeadID:     updated.ID,
			PrevStatus: string(lead.Status),
			NewStatus:  string(updated.Status),
			Source:     string(params.Source),
			Reason:     params.Reason,
		})
		if updated.Status == domain.StatusSold && updated.WinningBuyerID != nil && updated.WinningBid != nil {
			s.bus.Publish(ctx, events.LeadSold{
				BaseEvent:  events.NewBaseEvent(),
				LeadID:     updated.ID,
				BuyerID:    *updated.WinningBuyerID,
				WinningBid: *updated.WinningBid,
			})
		}
	}

	return updated, nil
}

// TransitionDisposition applies a disposition-only change; the status column
// is part of the conditional update but keeps its value. Buyer webhooks and
// admin actions use this for the post-sale lifecycle.
func (s *Service) TransitionDisposition(ctx context.Context, leadID uuid.UUID, newDisposition domain.Disposition, reason string, actorID *uuid.UUID, source domain.ChangeSource) (repository.Lead, error) {
	if !domain.KnownDisposition(newDisposition) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown disposition %q", newDisposition))
	}
	if !domain.KnownSource(source) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown change source %q", source))
	}
	if source.RequiresReason() && reason == "" {
		return repository.Lead{}, apperr.Validation("admin transitions require a reason")
	}

	lead, err := s.Get(ctx, leadID)
	if err != nil {
		return repository.Lead{}, err
	}

	if !domain.CanTransitionDisposition(lead.Disposition, newDisposition) {
		return repository.Lead{}, apperr.InvalidTransition(
			fmt.Sprintf("cannot transition disposition from %s to %s", lead.Disposition, newDisposition),
		).WithDetails(map[string]any{"allowed": domain.AllowedDispositionTargets(lead.Disposition)})
	}

	updated, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		LeadID:          leadID,
		PrevStatus:      lead.Status,
		NewStatus:       lead.Status,
		PrevDisposition: lead.Disposition,
		NewDisposition:  &newDisposition,
		Reason:          reason,
		ActorID:         actorID,
		Source:          source,
	})
	if errors.Is(err, repository.ErrConcurrentModification) {
		return repository.Lead{}, apperr.ConcurrentModification("lead was modified concurrently, retry with a fresh read")
	}
	if err != nil {
		s.log.DatabaseError("leads.update_disposition", err)
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead disposition", err)
	}

	s.log.Info("lead disposition changed",
		"lead_id", leadID, "from", lead.Disposition, "to", updated.Disposition, "source", source)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadDispositionChanged{
			BaseEvent:       events.NewBaseEvent(),
			LeadID:          updated.ID,
			PrevDisposition: string(lead.Disposition),
			NewDisposition:  string(updated.Disposition),
			Source:          string(source),
			Reason:          reason,
		})
	}

	return updated, nil
}

// IssueCredit applies the specialized credit transition: the current
// disposition must allow reaching CREDITED and the amount must be positive.
func (s *Service) IssueCredit(ctx context.Context, leadID uuid.UUID, amount float64, reason string, actorID *uuid.UUID) (repository.Lead, error) {
	if amount <= 0 {
		return repository.Lead{}, apperr.Validation("credit amount must be positive")
	}
	if reason == "" {
		return repository.Lead{}, apperr.Validation("credit requires a reason")
	}

	lead, err := s.Get(ctx, leadID)
	if err != nil {
		return repository.Lead{}, err
	}

	if !domain.CanCredit(lead.Disposition) {
		return repository.Lead{}, apperr.InvalidTransition(
			fmt.Sprintf("cannot credit a lead with disposition %s", lead.Disposition),
		).WithDetails(map[string]any{"allowed": domain.AllowedDispositionTargets(lead.Disposition)})
	}

	updated, err := s.repo.IssueCredit(ctx, repository.IssueCreditParams{
		LeadID:          leadID,
		PrevStatus:      lead.Status,
		PrevDisposition: lead.Disposition,
		Amount:          amount,
		Reason:          reason,
		ActorID:         actorID,
	})
	if errors.Is(err, repository.ErrConcurrentModification) {
		return repository.Lead{}, apperr.ConcurrentModification("lead was modified concurrently, retry with a fresh read")
	}
	if err != nil {
		s.log.DatabaseError("leads.issue_credit", err)
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to issue credit", err)
	}

	return updated, nil
}

// GetStatusHistory returns the append-only transition log for a lead.
func (s *Service) GetStatusHistory(ctx context.Context, leadID uuid.UUID) ([]repository.HistoryEntry, error) {
	if _, err := s.Get(ctx, leadID); err != nil {
		return nil, err
	}
	entries, err := s.repo.ListHistory(ctx, leadID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to load status history", err)
	}
	return entries, nil
}

// ExpireStale transitions in-flight leads (PROCESSING or AUCTIONED) older
// than maxAge to EXPIRED. Returns how many leads were expired.
func (s *Service) ExpireStale(ctx context.Context, maxAge time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	stale, err := s.repo.ListStaleInFlight(ctx, cutoff, limit)
	if err != nil {
		return 0, apperr.Wrap(apperr.KindInternal, "failed to list stale leads", err)
	}

	expired := 0
	for _, lead := range stale {
		_, err := s.Transition(ctx, TransitionParams{
			LeadID:    lead.ID,
			NewStatus: domain.StatusExpired,
			Reason:    fmt.Sprintf("no auction completed within %s", maxAge),
			Source:    domain.SourceSystem,
		})
		if err != nil {
			// A concurrent auction finishing first is fine; skip and move on.
			if apperr.Is(err, apperr.KindConcurrentModification) || apperr.Is(err, apperr.KindInvalidTransition) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// qualityScore is a simple completeness score in [0, 1] recorded at intake.
func qualityScore(params SubmitParams) float64 {
	score := 0.0
	checks := []bool{
		params.FormAnswers["phone"] != nil,
		params.FormAnswers["email"] != nil,
		params.FormAnswers["first_name"] != nil || params.FormAnswers["name"] != nil,
		params.Timeframe != "",
		params.HomeOwner,
		len(params.Compliance) > 0,
	}
	for _, ok := range checks {
		if ok {
			score += 1.0 / float64(len(checks))
		}
	}
	return score
}
