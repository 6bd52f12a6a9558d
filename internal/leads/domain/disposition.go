package domain

// Disposition is the post-sale accounting sub-state of a lead, tracked
// separately from the auction status.
type Disposition string

const (
	DispositionNew        Disposition = "NEW"
	DispositionDelivered  Disposition = "DELIVERED"
	DispositionReturned   Disposition = "RETURNED"
	DispositionCredited   Disposition = "CREDITED"
	DispositionDisputed   Disposition = "DISPUTED"
	DispositionWrittenOff Disposition = "WRITTEN_OFF"
)

// dispositionTransitions is the post-sale accounting graph. CREDITED and
// WRITTEN_OFF are terminal.
var dispositionTransitions = map[Disposition][]Disposition{
	DispositionNew:        {DispositionDelivered},
	DispositionDelivered:  {DispositionReturned},
	DispositionReturned:   {DispositionCredited, DispositionDisputed, DispositionWrittenOff},
	DispositionDisputed:   {DispositionReturned, DispositionCredited, DispositionDelivered, DispositionWrittenOff},
	DispositionCredited:   nil,
	DispositionWrittenOff: nil,
}

// KnownDisposition reports whether d is a member of the disposition enum.
func KnownDisposition(d Disposition) bool {
	_, ok := dispositionTransitions[d]
	return ok
}

// CanTransitionDisposition reports whether the graph allows from -> to.
func CanTransitionDisposition(from, to Disposition) bool {
	for _, allowed := range dispositionTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedDispositionTargets returns the reachable dispositions from the given state.
func AllowedDispositionTargets(from Disposition) []Disposition {
	return append([]Disposition(nil), dispositionTransitions[from]...)
}

// CanCredit reports whether a credit can be issued from the current
// disposition, i.e. CREDITED is directly reachable.
func CanCredit(from Disposition) bool {
	return CanTransitionDisposition(from, DispositionCredited)
}
