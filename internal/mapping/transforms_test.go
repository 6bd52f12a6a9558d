package mapping

import (
	"testing"

	"leadexchange_backend/internal/buyers/domain"
)

func TestApplyTransform(t *testing.T) {
	cases := []struct {
		name      string
		transform domain.Transform
		arg       string
		in        string
		want      any
		wantErr   bool
	}{
		{name: "none passes through", transform: domain.TransformNone, in: "as-is", want: "as-is"},
		{name: "phone e164", transform: domain.TransformPhoneE164, in: "(212) 555-0123", want: "+12125550123"},
		{name: "phone e164 invalid", transform: domain.TransformPhoneE164, in: "hello", wantErr: true},
		{name: "phone digits", transform: domain.TransformPhoneDigits, in: "(212) 555-0123", want: "2125550123"},
		{name: "phone digits empty", transform: domain.TransformPhoneDigits, in: "n/a", wantErr: true},
		{name: "uppercase", transform: domain.TransformUppercase, in: "tx", want: "TX"},
		{name: "lowercase", transform: domain.TransformLowercase, in: "Yes", want: "yes"},
		{name: "title case", transform: domain.TransformTitleCase, in: "JOHN SMITH", want: "John Smith"},
		{name: "date format iso to us", transform: domain.TransformDateFormat, arg: "01/02/2006", in: "2025-06-30", want: "06/30/2025"},
		{name: "date format us to iso", transform: domain.TransformDateFormat, arg: "2006-01-02", in: "06/30/2025", want: "2025-06-30"},
		{name: "date format unparseable", transform: domain.TransformDateFormat, arg: "2006-01-02", in: "soon", wantErr: true},
		{name: "boolean yes", transform: domain.TransformBoolean, in: "Yes", want: true},
		{name: "boolean on", transform: domain.TransformBoolean, in: "on", want: true},
		{name: "boolean no", transform: domain.TransformBoolean, in: "no", want: false},
		{name: "boolean empty is false", transform: domain.TransformBoolean, in: "", want: false},
		{name: "boolean garbage", transform: domain.TransformBoolean, in: "maybe", wantErr: true},
		{name: "unknown transform", transform: domain.Transform("rot13"), in: "x", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := applyTransform(tc.in, tc.transform, tc.arg)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf(fmtUnexpectedError, err)
			}
			if got != tc.want {
				t.Fatalf("got %v (%T), want %v (%T)", got, got, tc.want, tc.want)
			}
		})
	}
}
