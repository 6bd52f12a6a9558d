// Package domain provides core business rules for the leads bounded context:
// the status and disposition transition graphs and the checks every mutation
// must pass before it reaches storage.
package domain

// Status is the auction lifecycle state of a lead.
type Status string

const (
	StatusPending        Status = "PENDING"
	StatusProcessing     Status = "PROCESSING"
	StatusAuctioned      Status = "AUCTIONED"
	StatusSold           Status = "SOLD"
	StatusRejected       Status = "REJECTED"
	StatusExpired        Status = "EXPIRED"
	StatusDeliveryFailed Status = "DELIVERY_FAILED"
	StatusScrubbed       Status = "SCRUBBED"
	StatusDuplicate      Status = "DUPLICATE"
)

// statusTransitions is the directed transition graph. PENDING is the only
// initial state; SCRUBBED and DUPLICATE are terminal. Self-transitions are
// not listed and therefore rejected.
var statusTransitions = map[Status][]Status{
	StatusPending:        {StatusProcessing, StatusRejected, StatusScrubbed, StatusDuplicate},
	StatusProcessing:     {StatusAuctioned, StatusSold, StatusRejected, StatusExpired, StatusDeliveryFailed, StatusScrubbed},
	StatusAuctioned:      {StatusSold, StatusRejected, StatusExpired, StatusDeliveryFailed, StatusScrubbed},
	StatusSold:           {StatusScrubbed},
	StatusRejected:       {StatusProcessing, StatusScrubbed},
	StatusExpired:        {StatusProcessing, StatusScrubbed},
	StatusDeliveryFailed: {StatusProcessing, StatusRejected, StatusScrubbed},
	StatusScrubbed:       nil,
	StatusDuplicate:      nil,
}

// KnownStatus reports whether s is a member of the status enum.
func KnownStatus(s Status) bool {
	_, ok := statusTransitions[s]
	return ok
}

// CanTransitionStatus reports whether the graph allows from -> to.
func CanTransitionStatus(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedStatusTargets returns the reachable statuses from the given state.
func AllowedStatusTargets(from Status) []Status {
	return append([]Status(nil), statusTransitions[from]...)
}

// IsTerminalStatus reports whether no further status transitions exist.
func IsTerminalStatus(s Status) bool {
	return KnownStatus(s) && len(statusTransitions[s]) == 0
}

// ChangeSource identifies who initiated a transition.
type ChangeSource string

const (
	SourceSystem  ChangeSource = "SYSTEM"
	SourceAdmin   ChangeSource = "ADMIN"
	SourceWebhook ChangeSource = "WEBHOOK"
)

// KnownSource reports whether s is a member of the source enum.
func KnownSource(s ChangeSource) bool {
	return s == SourceSystem || s == SourceAdmin || s == SourceWebhook
}

// RequiresReason reports whether a transition from this source must carry a
// non-empty reason. Admin actions always do; system and webhook transitions
// carry machine-generated reasons but are not forced to.
func (s ChangeSource) RequiresReason() bool {
	return s == SourceAdmin
}
