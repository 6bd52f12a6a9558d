// Package normalize interprets heterogeneous buyer HTTP responses into a
// fixed internal status vocabulary, driven by per-buyer response mapping
// configuration.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"

	"leadexchange_backend/internal/buyers/domain"
)

// Status is the normalized outcome of one buyer call.
type Status string

const (
	// PING outcomes.
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
	StatusError    Status = "error"
	// POST outcomes.
	StatusDelivered Status = "delivered"
	StatusFailed    Status = "failed"
	StatusDuplicate Status = "duplicate"
	StatusInvalid   Status = "invalid"
)

// Result is the normalized interpretation of a buyer response.
type Result struct {
	Status Status
	// RawStatus is the matched raw body status value, nil when the body
	// yielded no recognizable status.
	RawStatus *string
	// Bid is the offered amount; zero unless the normalized status is
	// accepted. Only meaningful for PING.
	Bid float64
	// HTTPClass is the transport-level classification of the response code.
	HTTPClass domain.HTTPClass
	// ShouldRetry is true only for retry-class HTTP outcomes or a normalized
	// error; clean rejections and failures are terminal for that buyer.
	ShouldRetry bool
}

// Parse normalizes one buyer response for the given protocol phase.
//
// Body parsing and HTTP classification run independently; when they disagree
// the HTTP classification wins, so a bid that arrived on a non-success code is
// never credited.
func Parse(phase domain.Phase, httpStatus int, rawBody []byte, cfg *domain.ResponseMapping) Result {
	class := cfg.ClassifyHTTPStatus(httpStatus)

	var body map[string]any
	if len(rawBody) > 0 {
		// A malformed body is treated the same as an absent one.
		_ = json.Unmarshal(rawBody, &body)
	}

	status, rawStatus := bodyStatus(phase, body, cfg)

	// A buyer that answers 200 unconditionally needs the success indicator to
	// separate business acceptance from transport success.
	if cfg.SuccessIndicator != nil && class == domain.HTTPClassSuccess && isPositive(phase, status) {
		if !indicatorAccepts(body, cfg.SuccessIndicator) {
			status = negativeStatus(phase)
		}
	}

	// Transport classification dominates the body.
	switch class {
	case domain.HTTPClassReject:
		status = negativeStatus(phase)
	case domain.HTTPClassRetry, domain.HTTPClassError:
		status = transportFailureStatus(phase)
	}

	result := Result{
		Status:    status,
		RawStatus: rawStatus,
		HTTPClass: class,
	}

	if phase == domain.PhasePing && status == StatusAccepted {
		result.Bid = extractBid(body, cfg.BidPaths)
	}

	result.ShouldRetry = class == domain.HTTPClassRetry || status == StatusError

	return result
}

// bodyStatus resolves the normalized status from the response body alone.
func bodyStatus(phase domain.Phase, body map[string]any, cfg *domain.ResponseMapping) (Status, *string) {
	if cfg.StatusPath != "" {
		if raw, ok := valueAt(body, cfg.StatusPath); ok {
			rawText := stringValue(raw)
			if matched, ok := matchVocabulary(phase, rawText, cfg.Statuses); ok {
				return matched, &rawText
			}
		}
	}

	if cfg.Interest != nil {
		if cfg.Interest.AcceptPath != "" {
			if v, ok := valueAt(body, cfg.Interest.AcceptPath); ok && isTruthy(v) {
				return positiveStatus(phase), nil
			}
		}
		if cfg.Interest.RejectPath != "" {
			if v, ok := valueAt(body, cfg.Interest.RejectPath); ok && isTruthy(v) {
				return negativeStatus(phase), nil
			}
		}
	}

	return transportFailureStatus(phase), nil
}

func matchVocabulary(phase domain.Phase, raw string, vocab domain.StatusVocabulary) (Status, bool) {
	type entry struct {
		status Status
		values []string
	}
	var entries []entry
	if phase == domain.PhasePing {
		entries = []entry{
			{StatusAccepted, vocab.Accepted},
			{StatusRejected, vocab.Rejected},
			{StatusError, vocab.Error},
		}
	} else {
		entries = []entry{
			{StatusDelivered, vocab.Delivered},
			{StatusFailed, vocab.Failed},
			{StatusDuplicate, vocab.Duplicate},
			{StatusInvalid, vocab.Invalid},
		}
	}

	for _, e := range entries {
		for _, v := range e.values {
			if strings.EqualFold(raw, v) {
				return e.status, true
			}
		}
	}
	return "", false
}

func positiveStatus(phase domain.Phase) Status {
	if phase == domain.PhasePing {
		return StatusAccepted
	}
	return StatusDelivered
}

func negativeStatus(phase domain.Phase) Status {
	if phase == domain.PhasePing {
		return StatusRejected
	}
	return StatusFailed
}

func transportFailureStatus(phase domain.Phase) Status {
	if phase == domain.PhasePing {
		return StatusError
	}
	return StatusFailed
}

func isPositive(phase domain.Phase, s Status) bool {
	return s == positiveStatus(phase)
}

func indicatorAccepts(body map[string]any, ind *domain.SuccessIndicator) bool {
	raw, ok := valueAt(body, ind.Path)
	if !ok {
		return false
	}
	text := stringValue(raw)
	for _, accepted := range ind.AcceptedValues {
		if strings.EqualFold(text, accepted) {
			return true
		}
	}
	return false
}

// extractBid walks the ordered candidate paths and returns the first present
// numeric value.
func extractBid(body map[string]any, paths []string) float64 {
	for _, path := range paths {
		raw, ok := valueAt(body, path)
		if !ok {
			continue
		}
		switch v := raw.(type) {
		case float64:
			return v
		case string:
			if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
				return parsed
			}
		}
	}
	return 0
}

// valueAt resolves a dot-path within a parsed JSON body.
func valueAt(body map[string]any, path string) (any, bool) {
	if body == nil {
		return nil, false
	}
	if v, ok := body[path]; ok {
		return v, true
	}

	var current any = body
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func stringValue(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case float64:
		if typed == float64(int64(typed)) {
			return strconv.FormatInt(int64(typed), 10)
		}
		return strconv.FormatFloat(typed, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return ""
	}
}

func isTruthy(v any) bool {
	switch typed := v.(type) {
	case bool:
		return typed
	case string:
		lower := strings.ToLower(strings.TrimSpace(typed))
		return lower == "true" || lower == "yes" || lower == "y" || lower == "1"
	case float64:
		return typed != 0
	default:
		return false
	}
}
