// Package transport defines request/response DTOs for the leads HTTP API.
package transport

import (
	"time"

	"leadexchange_backend/internal/leads/repository"

	"github.com/google/uuid"
)

// SubmitLeadRequest is the public intake payload.
type SubmitLeadRequest struct {
	ServiceType string         `json:"serviceType" validate:"required,min=1,max=100"`
	ZipCode     string         `json:"zipCode" validate:"required,min=3,max=10"`
	FormAnswers map[string]any `json:"formAnswers" validate:"required"`
	HomeOwner   bool           `json:"homeOwner"`
	Timeframe   string         `json:"timeframe" validate:"omitempty,max=100"`
	Compliance  map[string]any `json:"compliance,omitempty"`
}

// TransitionRequest drives an admin status change.
type TransitionRequest struct {
	Status      string  `json:"status" validate:"required"`
	Disposition *string `json:"disposition,omitempty"`
	Reason      string  `json:"reason" validate:"required,min=3,max=500"`
}

// DispositionRequest drives an admin disposition-only change.
type DispositionRequest struct {
	Disposition string `json:"disposition" validate:"required"`
	Reason      string `json:"reason" validate:"required,min=3,max=500"`
}

// CreditRequest issues a refund for a returned lead.
type CreditRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
	Reason string  `json:"reason" validate:"required,min=3,max=500"`
}

// LeadResponse is the full lead view for admin consumers.
type LeadResponse struct {
	ID             uuid.UUID      `json:"id"`
	ServiceType    string         `json:"serviceType"`
	ZipCode        string         `json:"zipCode"`
	FormAnswers    map[string]any `json:"formAnswers"`
	HomeOwner      bool           `json:"homeOwner"`
	Timeframe      string         `json:"timeframe,omitempty"`
	Compliance     map[string]any `json:"compliance,omitempty"`
	Status         string         `json:"status"`
	Disposition    string         `json:"disposition"`
	WinningBuyerID *uuid.UUID     `json:"winningBuyerId,omitempty"`
	WinningBid     *float64       `json:"winningBid,omitempty"`
	QualityScore   *float64       `json:"qualityScore,omitempty"`
	CreditAmount   *float64       `json:"creditAmount,omitempty"`
	CreditedAt     *time.Time     `json:"creditedAt,omitempty"`
	SoldAt         *time.Time     `json:"soldAt,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func LeadFromDomain(lead repository.Lead) LeadResponse {
	return LeadResponse{
		ID:             lead.ID,
		ServiceType:    lead.ServiceType,
		ZipCode:        lead.ZipCode,
		FormAnswers:    lead.FormAnswers,
		HomeOwner:      lead.HomeOwner,
		Timeframe:      lead.Timeframe,
		Compliance:     lead.Compliance,
		Status:         string(lead.Status),
		Disposition:    string(lead.Disposition),
		WinningBuyerID: lead.WinningBuyerID,
		WinningBid:     lead.WinningBid,
		QualityScore:   lead.QualityScore,
		CreditAmount:   lead.CreditAmount,
		CreditedAt:     lead.CreditedAt,
		SoldAt:         lead.SoldAt,
		CreatedAt:      lead.CreatedAt,
		UpdatedAt:      lead.UpdatedAt,
	}
}

// SubmitLeadResponse is the minimal public acknowledgement; internals like
// quality score stay hidden from the submitting site.
type SubmitLeadResponse struct {
	ID     uuid.UUID `json:"id"`
	Status string    `json:"status"`
}

// HistoryResponse is one audit entry of the status machine.
type HistoryResponse struct {
	ID              uuid.UUID  `json:"id"`
	LeadID          uuid.UUID  `json:"leadId"`
	ActorID         *uuid.UUID `json:"actorId,omitempty"`
	PrevStatus      string     `json:"prevStatus"`
	NewStatus       string     `json:"newStatus"`
	PrevDisposition string     `json:"prevDisposition"`
	NewDisposition  string     `json:"newDisposition"`
	Reason          string     `json:"reason,omitempty"`
	Source          string     `json:"source"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func HistoryFromDomain(entry repository.HistoryEntry) HistoryResponse {
	return HistoryResponse{
		ID:              entry.ID,
		LeadID:          entry.LeadID,
		ActorID:         entry.ActorID,
		PrevStatus:      string(entry.PrevStatus),
		NewStatus:       string(entry.NewStatus),
		PrevDisposition: string(entry.PrevDisposition),
		NewDisposition:  string(entry.NewDisposition),
		Reason:          entry.Reason,
		Source:          string(entry.Source),
		CreatedAt:       entry.CreatedAt,
	}
}
