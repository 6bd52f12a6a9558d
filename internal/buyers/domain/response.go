package domain

import "fmt"

// HTTPClass is the transport-level classification of a buyer response code.
type HTTPClass string

const (
	HTTPClassSuccess HTTPClass = "success"
	HTTPClassReject  HTTPClass = "reject"
	HTTPClassRetry   HTTPClass = "retry"
	HTTPClassError   HTTPClass = "error"
)

var knownHTTPClasses = map[HTTPClass]bool{
	HTTPClassSuccess: true,
	HTTPClassReject:  true,
	HTTPClassRetry:   true,
	HTTPClassError:   true,
}

// StatusVocabulary lists the raw body status strings a buyer uses for each
// normalized outcome. Matching is case-insensitive.
type StatusVocabulary struct {
	// PING outcomes.
	Accepted []string `json:"accepted,omitempty"`
	Rejected []string `json:"rejected,omitempty"`
	Error    []string `json:"error,omitempty"`
	// POST outcomes.
	Delivered []string `json:"delivered,omitempty"`
	Failed    []string `json:"failed,omitempty"`
	Duplicate []string `json:"duplicate,omitempty"`
	Invalid   []string `json:"invalid,omitempty"`
}

// InterestIndicators is the fallback used when the status field matches no
// configured vocabulary: a truthy value at AcceptPath means accepted, a truthy
// value at RejectPath means rejected.
type InterestIndicators struct {
	AcceptPath string `json:"acceptPath,omitempty"`
	RejectPath string `json:"rejectPath,omitempty"`
}

// SuccessIndicator overrides an apparently successful HTTP 200 when a buyer
// always answers 200 regardless of business outcome. The value at Path must be
// one of AcceptedValues for the response to count as accepted.
type SuccessIndicator struct {
	Path           string   `json:"path"`
	AcceptedValues []string `json:"acceptedValues"`
}

// ResponseMapping configures how one buyer's raw responses are interpreted.
type ResponseMapping struct {
	// StatusPath is a dot-path into the response body, e.g. "result.status".
	StatusPath string           `json:"statusPath"`
	Statuses   StatusVocabulary `json:"statuses"`
	// BidPaths is an ordered list of candidate dot-paths; the first present
	// numeric value is the bid.
	BidPaths []string `json:"bidPaths,omitempty"`
	// HTTPStatusClasses maps specific HTTP codes to a transport class.
	// Unlisted codes fall back to ClassifyHTTPStatus defaults.
	HTTPStatusClasses map[int]HTTPClass   `json:"httpStatusClasses,omitempty"`
	Interest          *InterestIndicators `json:"interest,omitempty"`
	SuccessIndicator  *SuccessIndicator   `json:"successIndicator,omitempty"`
}

// Validate checks the response mapping at configuration load time.
func (r *ResponseMapping) Validate() error {
	if r.StatusPath == "" && r.Interest == nil {
		return fmt.Errorf("either a status path or interest indicators must be configured")
	}
	for code, class := range r.HTTPStatusClasses {
		if code < 100 || code > 599 {
			return fmt.Errorf("http status %d out of range", code)
		}
		if !knownHTTPClasses[class] {
			return fmt.Errorf("http status %d: unknown class %q", code, class)
		}
	}
	if r.SuccessIndicator != nil {
		if r.SuccessIndicator.Path == "" {
			return fmt.Errorf("success indicator requires a path")
		}
		if len(r.SuccessIndicator.AcceptedValues) == 0 {
			return fmt.Errorf("success indicator requires accepted values")
		}
	}
	return nil
}

// ClassifyHTTPStatus resolves the transport class for a response code, using
// the configured table first and conservative defaults otherwise: 2xx is
// success, 429 and 5xx gateway-class codes are retryable, remaining 4xx are
// rejects, remaining 5xx are errors.
func (r *ResponseMapping) ClassifyHTTPStatus(code int) HTTPClass {
	if class, ok := r.HTTPStatusClasses[code]; ok {
		return class
	}
	switch {
	case code >= 200 && code < 300:
		return HTTPClassSuccess
	case code == 429 || code == 502 || code == 503 || code == 504:
		return HTTPClassRetry
	case code >= 400 && code < 500:
		return HTTPClassReject
	default:
		return HTTPClassError
	}
}
