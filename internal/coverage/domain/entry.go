// Package domain defines coverage entries: which buyer wants which service
// type in which ZIP code, at what priority and volume.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry declares one buyer's interest in one (service type, ZIP) cell.
type Entry struct {
	ID          uuid.UUID
	BuyerID     uuid.UUID
	ServiceType string
	ZipCode     string
	// Priority orders candidates within a cell; higher goes first. It also
	// breaks exact ties in the auction after bid and latency.
	Priority int
	// DailyCap limits deliveries per rolling 24 hours. Zero means unlimited.
	DailyCap int
	// MinBid/MaxBid, when set, override the buyer config's bid range for this
	// ZIP only.
	MinBid    *float64
	MaxBid    *float64
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks the entry before it is stored.
func (e Entry) Validate() error {
	if e.ServiceType == "" {
		return fmt.Errorf("service type is required")
	}
	if e.ZipCode == "" {
		return fmt.Errorf("zip code is required")
	}
	if e.DailyCap < 0 {
		return fmt.Errorf("daily cap must not be negative")
	}
	if e.MinBid != nil && *e.MinBid < 0 {
		return fmt.Errorf("minimum bid override must not be negative")
	}
	if e.MinBid != nil && e.MaxBid != nil && *e.MaxBid != 0 && *e.MaxBid < *e.MinBid {
		return fmt.Errorf("maximum bid override %v is below minimum %v", *e.MaxBid, *e.MinBid)
	}
	return nil
}
