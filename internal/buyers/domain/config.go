package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Phase distinguishes the two calls of the ping/post protocol.
type Phase string

const (
	// PhasePing is the bid request: partial lead data, asks for a price.
	PhasePing Phase = "PING"
	// PhasePost is the delivery: full lead data to the winning buyer.
	PhasePost Phase = "POST"
)

// Transform is a closed set of named per-field value transforms. Buyer
// configuration references transforms by name; anything outside this set is
// rejected at load time.
type Transform string

const (
	TransformNone          Transform = ""
	TransformPhoneE164     Transform = "phone_e164"
	TransformPhoneNational Transform = "phone_national"
	TransformPhoneDigits   Transform = "phone_digits"
	TransformUppercase     Transform = "uppercase"
	TransformLowercase     Transform = "lowercase"
	TransformTitleCase     Transform = "title_case"
	TransformDateFormat    Transform = "date_format"
	TransformBoolean       Transform = "boolean"
)

var knownTransforms = map[Transform]bool{
	TransformNone:          true,
	TransformPhoneE164:     true,
	TransformPhoneNational: true,
	TransformPhoneDigits:   true,
	TransformUppercase:     true,
	TransformLowercase:     true,
	TransformTitleCase:     true,
	TransformDateFormat:    true,
	TransformBoolean:       true,
}

// FieldMapping maps one lead form answer onto one buyer payload field.
type FieldMapping struct {
	// Source is a dot-path into the lead's form answers, e.g. "contact.phone".
	Source string `json:"source"`
	// Target is the field name written into the buyer payload.
	Target string `json:"target"`
	// IncludeInPing / IncludeInPost flag which protocol phases carry the field.
	IncludeInPing bool `json:"includeInPing"`
	IncludeInPost bool `json:"includeInPost"`
	// Required renders fail when the source is absent and no default exists.
	Required bool `json:"required"`
	// Default is used when the source value is absent.
	Default *string `json:"default,omitempty"`
	// Substitutions replaces the extracted value by exact, case-sensitive
	// lookup. Unmapped values pass through unchanged.
	Substitutions map[string]string `json:"substitutions,omitempty"`
	Transform     Transform         `json:"transform,omitempty"`
	// TransformArg parameterizes the transform; for date_format it is the Go
	// layout of the output.
	TransformArg string `json:"transformArg,omitempty"`
}

// InPhase reports whether the mapping participates in the given phase.
func (m FieldMapping) InPhase(phase Phase) bool {
	if phase == PhasePing {
		return m.IncludeInPing
	}
	return m.IncludeInPost
}

// StaticField is a constant field injected into every payload of a phase.
type StaticField struct {
	Target string `json:"target"`
	Value  string `json:"value"`
}

// BidRange bounds acceptable bids. Max of zero means unbounded above.
type BidRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Config is the pairing of a buyer with one service type: field mappings,
// static fields, response interpretation, and the bid range.
type Config struct {
	ID          uuid.UUID
	BuyerID     uuid.UUID
	ServiceType string
	Mappings    []FieldMapping
	StaticPing  []StaticField
	StaticPost  []StaticField
	Response    ResponseMapping
	Bids        BidRange
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks the whole configuration. It runs when configuration is
// loaded or saved, never during an auction, so a malformed buyer setup is
// caught before any lead reaches it.
func (c *Config) Validate() error {
	if c.ServiceType == "" {
		return fmt.Errorf("service type is required")
	}
	seen := make(map[string]bool, len(c.Mappings))
	for i, m := range c.Mappings {
		if m.Source == "" {
			return fmt.Errorf("mapping %d: source path is required", i)
		}
		if m.Target == "" {
			return fmt.Errorf("mapping %d (%s): target field is required", i, m.Source)
		}
		if !m.IncludeInPing && !m.IncludeInPost {
			return fmt.Errorf("mapping %d (%s): must be included in at least one phase", i, m.Source)
		}
		if !knownTransforms[m.Transform] {
			return fmt.Errorf("mapping %d (%s): unknown transform %q", i, m.Source, m.Transform)
		}
		if m.Transform == TransformDateFormat && m.TransformArg == "" {
			return fmt.Errorf("mapping %d (%s): date_format requires a layout argument", i, m.Source)
		}
		if seen[m.Target] {
			return fmt.Errorf("mapping %d (%s): duplicate target field %q", i, m.Source, m.Target)
		}
		seen[m.Target] = true
	}
	for i, f := range c.StaticPing {
		if f.Target == "" {
			return fmt.Errorf("ping static field %d: target is required", i)
		}
	}
	for i, f := range c.StaticPost {
		if f.Target == "" {
			return fmt.Errorf("post static field %d: target is required", i)
		}
	}
	if c.Bids.Min < 0 {
		return fmt.Errorf("minimum bid must not be negative")
	}
	if c.Bids.Max != 0 && c.Bids.Max < c.Bids.Min {
		return fmt.Errorf("maximum bid %v is below minimum bid %v", c.Bids.Max, c.Bids.Min)
	}
	if err := c.Response.Validate(); err != nil {
		return fmt.Errorf("response mapping: %w", err)
	}
	return nil
}
