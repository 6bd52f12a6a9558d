// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"leadexchange_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead is accepted for processing.
type LeadCreated struct {
	BaseEvent
	LeadID      uuid.UUID `json:"leadId"`
	ServiceType string    `json:"serviceType"`
	ZipCode     string    `json:"zipCode"`
}

func (e LeadCreated) EventName() string { return "leads.lead.created" }

// LeadStatusChanged is published after every successful status machine
// transition.
type LeadStatusChanged struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	PrevStatus string    `json:"prevStatus"`
	NewStatus  string    `json:"newStatus"`
	Source     string    `json:"source"`
	Reason     string    `json:"reason,omitempty"`
}

func (e LeadStatusChanged) EventName() string { return "leads.lead.status_changed" }

// LeadDispositionChanged is published when the post-sale disposition moves
// while the status stays put.
type LeadDispositionChanged struct {
	BaseEvent
	LeadID          uuid.UUID `json:"leadId"`
	PrevDisposition string    `json:"prevDisposition"`
	NewDisposition  string    `json:"newDisposition"`
	Source          string    `json:"source"`
	Reason          string    `json:"reason,omitempty"`
}

func (e LeadDispositionChanged) EventName() string { return "leads.lead.disposition_changed" }

// LeadSold is published when a lead is delivered and marked SOLD.
type LeadSold struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	BuyerID    uuid.UUID `json:"buyerId"`
	WinningBid float64   `json:"winningBid"`
}

func (e LeadSold) EventName() string { return "leads.lead.sold" }

// =============================================================================
// Auction Domain Events
// =============================================================================

// AuctionCompleted is published when an auction run reaches a terminal
// outcome, whatever that outcome is.
type AuctionCompleted struct {
	BaseEvent
	LeadID     uuid.UUID `json:"leadId"`
	Outcome    string    `json:"outcome"`
	Reason     string    `json:"reason,omitempty"`
	Candidates int       `json:"candidates"`
	WinningBid float64   `json:"winningBid,omitempty"`
}

func (e AuctionCompleted) EventName() string { return "auction.completed" }
