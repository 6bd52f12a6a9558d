package mapping

import (
	"errors"
	"reflect"
	"testing"

	"leadexchange_backend/internal/buyers/domain"
)

const fmtUnexpectedError = "unexpected error: %v"

func strPtr(s string) *string { return &s }

func TestRenderStaticsComeFirst(t *testing.T) {
	cfg := &domain.Config{
		StaticPing: []domain.StaticField{
			{Target: "source_id", Value: "portal"},
			{Target: "format", Value: "json"},
		},
		Mappings: []domain.FieldMapping{
			{Source: "zip", Target: "zip_code", IncludeInPing: true},
		},
	}
	answers := map[string]any{"zip": "97035"}

	payload, fieldErrs, err := Render(answers, cfg, domain.PhasePing)
	if err != nil {
		t.Fatalf(fmtUnexpectedError, err)
	}
	if len(fieldErrs) != 0 {
		t.Fatalf("unexpected field errors: %v", fieldErrs)
	}

	want := []string{"source_id", "format", "zip_code"}
	if got := payload.Keys(); !reflect.DeepEqual(got, want) {
		t.Fatalf("key order = %v, want %v", got, want)
	}
}

func TestRenderPhaseSelection(t *testing.T) {
	cfg := &domain.Config{
		StaticPing: []domain.StaticField{{Target: "mode", Value: "ping"}},
		StaticPost: []domain.StaticField{{Target: "mode", Value: "post"}},
		Mappings: []domain.FieldMapping{
			{Source: "zip", Target: "zip_code", IncludeInPing: true, IncludeInPost: true},
			{Source: "phone", Target: "phone", IncludeInPost: true},
		},
	}
	answers := map[string]any{"zip": "30301", "phone": "2125550123"}

	ping, _, err := Render(answers, cfg, domain.PhasePing)
	if err != nil {
		t.Fatalf(fmtUnexpectedError, err)
	}
	if v, _ := ping.Get("mode"); v != "ping" {
		t.Fatalf("ping mode = %v", v)
	}
	if _, ok := ping.Get("phone"); ok {
		t.Fatal("post-only field leaked into ping payload")
	}

	post, _, err := Render(answers, cfg, domain.PhasePost)
	if err != nil {
		t.Fatalf(fmtUnexpectedError, err)
	}
	if v, _ := post.Get("mode"); v != "post" {
		t.Fatalf("post mode = %v", v)
	}
	if _, ok := post.Get("phone"); !ok {
		t.Fatal("post payload missing post field")
	}
}

func TestRenderDefaultAndMissing(t *testing.T) {
	cfg := &domain.Config{
		Mappings: []domain.FieldMapping{
			{Source: "timeframe", Target: "timeframe", IncludeInPing: true, Default: strPtr("flexible")},
			{Source: "notes", Target: "notes", IncludeInPing: true},
		},
	}

	payload, _, err := Render(map[string]any{}, cfg, domain.PhasePing)
	if err != nil {
		t.Fatalf(fmtUnexpectedError, err)
	}
	if v, _ := payload.Get("timeframe"); v != "flexible" {
		t.Fatalf("default not applied, got %v", v)
	}
	if _, ok := payload.Get("notes"); ok {
		t.Fatal("absent optional field should be omitted")
	}
}

func TestRenderRequiredMissing(t *testing.T) {
	cfg := &domain.Config{
		Mappings: []domain.FieldMapping{
			{Source: "contact.email", Target: "email", IncludeInPing: true, Required: true},
		},
	}

	_, _, err := Render(map[string]any{}, cfg, domain.PhasePing)
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingFieldError, got %v", err)
	}
	if missing.Field != "contact.email" {
		t.Fatalf("missing field = %q", missing.Field)
	}
}

func TestRenderSubstitutions(t *testing.T) {
	cfg := &domain.Config{
		Mappings: []domain.FieldMapping{
			{
				Source: "roof_type", Target: "roof", IncludeInPing: true,
				Substitutions: map[string]string{"asphalt_shingle": "ASPHALT"},
			},
			{
				Source: "state", Target: "state", IncludeInPing: true,
				Substitutions: map[string]string{"Oregon": "OR"},
			},
		},
	}
	answers := map[string]any{"roof_type": "asphalt_shingle", "state": "Texas"}

	payload, _, err := Render(answers, cfg, domain.PhasePing)
	if err != nil {
		t.Fatalf(fmtUnexpectedError, err)
	}
	if v, _ := payload.Get("roof"); v != "ASPHALT" {
		t.Fatalf("substitution not applied, got %v", v)
	}
	// Unmapped values pass through unchanged.
	if v, _ := payload.Get("state"); v != "Texas" {
		t.Fatalf("unmapped value changed, got %v", v)
	}
}

func TestRenderOptionalTransformFailureOmitsField(t *testing.T) {
	cfg := &domain.Config{
		Mappings: []domain.FieldMapping{
			{Source: "phone", Target: "phone", IncludeInPing: true, Transform: domain.TransformPhoneE164},
			{Source: "zip", Target: "zip_code", IncludeInPing: true},
		},
	}
	answers := map[string]any{"phone": "not a phone", "zip": "10001"}

	payload, fieldErrs, err := Render(answers, cfg, domain.PhasePing)
	if err != nil {
		t.Fatalf(fmtUnexpectedError, err)
	}
	if len(fieldErrs) != 1 {
		t.Fatalf("expected one field error, got %d", len(fieldErrs))
	}
	if fieldErrs[0].Field != "phone" {
		t.Fatalf("field error on %q", fieldErrs[0].Field)
	}
	if _, ok := payload.Get("phone"); ok {
		t.Fatal("failed optional field must be omitted")
	}
	if _, ok := payload.Get("zip_code"); !ok {
		t.Fatal("later fields must still render")
	}
}

func TestRenderRequiredTransformFailureAborts(t *testing.T) {
	cfg := &domain.Config{
		Mappings: []domain.FieldMapping{
			{Source: "phone", Target: "phone", IncludeInPing: true, Required: true, Transform: domain.TransformPhoneE164},
		},
	}

	_, _, err := Render(map[string]any{"phone": "garbage"}, cfg, domain.PhasePing)
	var tErr *TransformError
	if !errors.As(err, &tErr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if tErr.Field != "phone" {
		t.Fatalf("transform error on %q", tErr.Field)
	}
}

func TestLookupPath(t *testing.T) {
	answers := map[string]any{
		"contact":       map[string]any{"phone": "2125550123"},
		"contact.email": "flat@example.com",
		"nested":        map[string]any{"a": map[string]any{"b": "deep"}},
	}

	if v, ok := lookupPath(answers, "contact.phone"); !ok || v != "2125550123" {
		t.Fatalf("nested lookup = %v, %v", v, ok)
	}
	// Literal flat keys win over traversal.
	if v, ok := lookupPath(answers, "contact.email"); !ok || v != "flat@example.com" {
		t.Fatalf("flat key lookup = %v, %v", v, ok)
	}
	if v, ok := lookupPath(answers, "nested.a.b"); !ok || v != "deep" {
		t.Fatalf("deep lookup = %v, %v", v, ok)
	}
	if _, ok := lookupPath(answers, "contact.missing"); ok {
		t.Fatal("missing path reported present")
	}
}

func TestStringify(t *testing.T) {
	cases := []struct {
		in   any
		want string
	}{
		{"abc", "abc"},
		{true, "true"},
		{false, "false"},
		{float64(42), "42"},
		{float64(2.5), "2.5"},
		{nil, ""},
	}
	for _, tc := range cases {
		if got := stringify(tc.in); got != tc.want {
			t.Errorf("stringify(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPayloadMarshalPreservesOrder(t *testing.T) {
	p := NewPayload()
	p.Set("zeta", "1")
	p.Set("alpha", "2")
	p.Set("zeta", "3")

	raw, err := p.MarshalJSON()
	if err != nil {
		t.Fatalf(fmtUnexpectedError, err)
	}
	if got := string(raw); got != `{"zeta":"3","alpha":"2"}` {
		t.Fatalf("payload JSON = %s", got)
	}
}
