// Package transport defines response DTOs for the auction HTTP API.
package transport

import (
	"encoding/json"
	"time"

	"leadexchange_backend/internal/auction/repository"

	"github.com/google/uuid"
)

// TransactionResponse is one audit record of an outbound buyer call.
type TransactionResponse struct {
	ID               uuid.UUID       `json:"id"`
	LeadID           uuid.UUID       `json:"leadId"`
	BuyerID          uuid.UUID       `json:"buyerId"`
	Action           string          `json:"action"`
	RequestPayload   json.RawMessage `json:"requestPayload,omitempty"`
	ResponseStatus   *int            `json:"responseStatus,omitempty"`
	ResponseBody     json.RawMessage `json:"responseBody,omitempty"`
	NormalizedStatus string          `json:"normalizedStatus"`
	RawStatus        *string         `json:"rawStatus,omitempty"`
	Bid              *float64        `json:"bid,omitempty"`
	LatencyMS        int64           `json:"latencyMs"`
	ErrorMessage     *string         `json:"errorMessage,omitempty"`
	ComplianceFlags  []string        `json:"complianceFlags,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
}

func TransactionFromDomain(t repository.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:               t.ID,
		LeadID:           t.LeadID,
		BuyerID:          t.BuyerID,
		Action:           string(t.Action),
		RequestPayload:   rawOrNil(t.RequestPayload),
		ResponseStatus:   t.ResponseStatus,
		ResponseBody:     rawOrNil(t.ResponseBody),
		NormalizedStatus: t.NormalizedStatus,
		RawStatus:        t.RawStatus,
		Bid:              t.Bid,
		LatencyMS:        t.LatencyMS,
		ErrorMessage:     t.ErrorMessage,
		ComplianceFlags:  t.ComplianceFlags,
		CreatedAt:        t.CreatedAt,
	}
}

// rawOrNil keeps stored JSON as-is but hides non-JSON bodies (buyers do send
// HTML error pages) behind a JSON string so the response stays valid.
func rawOrNil(raw []byte) json.RawMessage {
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	quoted, err := json.Marshal(string(raw))
	if err != nil {
		return nil
	}
	return quoted
}
