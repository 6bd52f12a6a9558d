// Package mapping renders a lead's canonical form answers into a
// buyer-specific request payload, driven by per-(buyer, service) field
// mapping configuration.
package mapping

import (
	"bytes"
	"encoding/json"
)

// Payload is an insertion-ordered key/value document. Order carries no
// protocol meaning; it keeps rendered previews stable for human audit.
type Payload struct {
	keys   []string
	values map[string]any
}

// NewPayload creates an empty payload.
func NewPayload() *Payload {
	return &Payload{values: make(map[string]any)}
}

// Set writes a field, preserving first-insertion order on overwrite.
func (p *Payload) Set(key string, value any) {
	if _, exists := p.values[key]; !exists {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for a field.
func (p *Payload) Get(key string) (any, bool) {
	v, ok := p.values[key]
	return v, ok
}

// Len returns the number of fields.
func (p *Payload) Len() int {
	return len(p.keys)
}

// Keys returns the field names in insertion order.
func (p *Payload) Keys() []string {
	return append([]string(nil), p.keys...)
}

// Map returns a plain map copy of the payload.
func (p *Payload) Map() map[string]any {
	out := make(map[string]any, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

// MarshalJSON encodes the payload as a JSON object in insertion order.
func (p *Payload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		value, err := json.Marshal(p.values[key])
		if err != nil {
			return nil, err
		}
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
