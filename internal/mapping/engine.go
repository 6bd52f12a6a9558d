package mapping

import (
	"fmt"
	"strings"

	"leadexchange_backend/internal/buyers/domain"
)

// MissingFieldError is returned when a required source field is absent from
// the lead's form answers and no default is configured.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required field %q is missing", e.Field)
}

// TransformError records a per-field transform failure. Optional fields are
// omitted from the payload and the error is kept for preview/audit; a
// required field aborts the render.
type TransformError struct {
	Field     string
	Transform domain.Transform
	Err       error
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("transform %q failed on field %q: %v", e.Transform, e.Field, e.Err)
}

func (e *TransformError) Unwrap() error {
	return e.Err
}

// Render produces the buyer payload for one protocol phase.
//
// Static fields for the phase are written first, then each mapping in
// configured order: dot-path source lookup, default fallback, substitution
// table, transform. A missing required field or a failed transform on a
// required field aborts the render; failed transforms on optional fields are
// collected and the field omitted.
func Render(answers map[string]any, cfg *domain.Config, phase domain.Phase) (*Payload, []*TransformError, error) {
	payload := NewPayload()

	statics := cfg.StaticPing
	if phase == domain.PhasePost {
		statics = cfg.StaticPost
	}
	for _, f := range statics {
		payload.Set(f.Target, f.Value)
	}

	var fieldErrors []*TransformError

	for _, m := range cfg.Mappings {
		if !m.InPhase(phase) {
			continue
		}

		raw, present := lookupPath(answers, m.Source)
		if !present {
			if m.Default != nil {
				raw = *m.Default
				present = true
			} else if m.Required {
				return nil, fieldErrors, &MissingFieldError{Field: m.Source}
			} else {
				continue
			}
		}

		value := stringify(raw)

		if len(m.Substitutions) > 0 {
			if replaced, ok := m.Substitutions[value]; ok {
				value = replaced
			}
		}

		out, err := applyTransform(value, m.Transform, m.TransformArg)
		if err != nil {
			tErr := &TransformError{Field: m.Source, Transform: m.Transform, Err: err}
			if m.Required {
				return nil, fieldErrors, tErr
			}
			fieldErrors = append(fieldErrors, tErr)
			continue
		}

		payload.Set(m.Target, out)
	}

	return payload, fieldErrors, nil
}

// lookupPath resolves a dot-path within nested form answers. A literal key
// containing dots wins over path traversal, since form builders sometimes
// store flat keys like "contact.phone".
func lookupPath(answers map[string]any, path string) (any, bool) {
	if v, ok := answers[path]; ok {
		return v, true
	}

	parts := strings.Split(path, ".")
	var current any = answers
	for _, part := range parts {
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

// stringify renders a form answer value for substitution and transforms.
// JSON numbers arrive as float64; integral values must not pick up a decimal
// point.
func stringify(v any) string {
	switch typed := v.(type) {
	case string:
		return typed
	case bool:
		if typed {
			return "true"
		}
		return "false"
	case float64:
		if typed == float64(int64(typed)) {
			return fmt.Sprintf("%d", int64(typed))
		}
		return fmt.Sprintf("%g", typed)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", typed)
	}
}
