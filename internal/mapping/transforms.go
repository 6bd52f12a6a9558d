package mapping

import (
	"fmt"
	"strings"
	"time"

	"leadexchange_backend/internal/buyers/domain"
	"leadexchange_backend/platform/phone"
)

// dateInputLayouts are the accepted inbound date shapes, tried in order.
var dateInputLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"01/02/2006",
	"2006-01-02 15:04:05",
}

// truthyValues and falsyValues drive the boolean coercion transform.
var (
	truthyValues = map[string]bool{"true": true, "yes": true, "y": true, "1": true, "on": true}
	falsyValues  = map[string]bool{"false": true, "no": true, "n": true, "0": true, "off": true, "": true}
)

// applyTransform dispatches the closed set of named transforms. The returned
// value is what lands in the payload; booleans come back typed so buyer JSON
// carries true/false rather than strings.
func applyTransform(value string, t domain.Transform, arg string) (any, error) {
	switch t {
	case domain.TransformNone:
		return value, nil

	case domain.TransformPhoneE164:
		formatted := phone.NormalizeE164(value)
		if !strings.HasPrefix(formatted, "+") {
			return nil, fmt.Errorf("cannot parse %q as a phone number", value)
		}
		return formatted, nil

	case domain.TransformPhoneNational:
		formatted := phone.FormatNational(value)
		if formatted == strings.TrimSpace(value) && phone.Digits(value) == "" {
			return nil, fmt.Errorf("cannot parse %q as a phone number", value)
		}
		return formatted, nil

	case domain.TransformPhoneDigits:
		digits := phone.Digits(value)
		if digits == "" {
			return nil, fmt.Errorf("no digits in %q", value)
		}
		return digits, nil

	case domain.TransformUppercase:
		return strings.ToUpper(value), nil

	case domain.TransformLowercase:
		return strings.ToLower(value), nil

	case domain.TransformTitleCase:
		return titleCase(value), nil

	case domain.TransformDateFormat:
		parsed, err := parseDate(value)
		if err != nil {
			return nil, err
		}
		return parsed.Format(arg), nil

	case domain.TransformBoolean:
		normalized := strings.ToLower(strings.TrimSpace(value))
		if truthyValues[normalized] {
			return true, nil
		}
		if falsyValues[normalized] {
			return false, nil
		}
		return nil, fmt.Errorf("cannot coerce %q to a boolean", value)

	default:
		// Config validation rejects unknown transforms; reaching this means a
		// config bypassed validation.
		return nil, fmt.Errorf("unknown transform %q", t)
	}
}

func parseDate(value string) (time.Time, error) {
	trimmed := strings.TrimSpace(value)
	for _, layout := range dateInputLayouts {
		if parsed, err := time.Parse(layout, trimmed); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse %q as a date", value)
}

func titleCase(value string) string {
	words := strings.Fields(strings.ToLower(value))
	for i, w := range words {
		r := []rune(w)
		r[0] = []rune(strings.ToUpper(string(r[0])))[0]
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
