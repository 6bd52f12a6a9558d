// Package transport defines request/response DTOs for the coverage HTTP API.
package transport

import (
	"time"

	"leadexchange_backend/internal/coverage/domain"

	"github.com/google/uuid"
)

type EntryRequest struct {
	ServiceType string   `json:"serviceType" validate:"required,min=1,max=100"`
	ZipCode     string   `json:"zipCode" validate:"required,min=3,max=10"`
	Priority    int      `json:"priority" validate:"gte=0,lte=1000"`
	DailyCap    int      `json:"dailyCap" validate:"gte=0"`
	MinBid      *float64 `json:"minBid,omitempty" validate:"omitempty,gte=0"`
	MaxBid      *float64 `json:"maxBid,omitempty" validate:"omitempty,gte=0"`
	Active      bool     `json:"active"`
}

func (r EntryRequest) ToDomain(buyerID uuid.UUID) domain.Entry {
	return domain.Entry{
		BuyerID:     buyerID,
		ServiceType: r.ServiceType,
		ZipCode:     r.ZipCode,
		Priority:    r.Priority,
		DailyCap:    r.DailyCap,
		MinBid:      r.MinBid,
		MaxBid:      r.MaxBid,
		Active:      r.Active,
	}
}

type EntryResponse struct {
	ID          uuid.UUID `json:"id"`
	BuyerID     uuid.UUID `json:"buyerId"`
	ServiceType string    `json:"serviceType"`
	ZipCode     string    `json:"zipCode"`
	Priority    int       `json:"priority"`
	DailyCap    int       `json:"dailyCap"`
	MinBid      *float64  `json:"minBid,omitempty"`
	MaxBid      *float64  `json:"maxBid,omitempty"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func EntryFromDomain(e domain.Entry) EntryResponse {
	return EntryResponse{
		ID:          e.ID,
		BuyerID:     e.BuyerID,
		ServiceType: e.ServiceType,
		ZipCode:     e.ZipCode,
		Priority:    e.Priority,
		DailyCap:    e.DailyCap,
		MinBid:      e.MinBid,
		MaxBid:      e.MaxBid,
		Active:      e.Active,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
