package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/statekit/errors"
)

type payload struct {
	FullName string  `json:"fullName" validate:"required"`
	Amount   float64 `json:"amount" validate:"gt=0"`
	Poster   string  `json:"poster" validate:"omitempty,url"`
	Rating   int     `json:"userRating" validate:"gte=1,lte=10"`
	Note     string  `validate:"max=5"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name       string
		in         payload
		wantFields []string
	}{
		{"valid", payload{FullName: "Jonas", Amount: 10, Rating: 7}, nil},
		{"missing name", payload{Amount: 10, Rating: 7}, []string{"fullName: is required"}},
		{"non positive amount", payload{FullName: "J", Amount: 0, Rating: 7}, []string{"amount: must be greater than 0"}},
		{"bad url", payload{FullName: "J", Amount: 1, Rating: 7, Poster: "nope"}, []string{"poster: must be a valid URL"}},
		{"rating range", payload{FullName: "J", Amount: 1, Rating: 11}, []string{"userRating: must be less than or equal to 10"}},
		{"snake case fallback", payload{FullName: "J", Amount: 1, Rating: 1, Note: "too long"}, []string{"note: must be at most 5 characters"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != errors.ErrCodeInvalidInput {
				t.Errorf("code = %s", appErr.Code)
			}
			for _, want := range tt.wantFields {
				if !strings.Contains(appErr.Message, want) {
					t.Errorf("message %q missing %q", appErr.Message, want)
				}
			}
		})
	}
}

func TestValidatorChecks(t *testing.T) {
	v := New().
		Required("description", "  ").
		Positive("amount", -1).
		Range("quantity", 25, 1, 20).
		OneOf("sortBy", "color", []string{"input", "description", "packed"}).
		MinLength("query", "ab", 3).
		Custom(false, "friend", "must be selected")

	if got := len(v.Errors()); got != 6 {
		t.Fatalf("expected 6 errors, got %d: %v", got, v.Errors())
	}
	appErr, ok := errors.AsAppError(v.Err())
	if !ok {
		t.Fatal("expected AppError")
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	if len(fields) != 6 || fields[0].Field != "description" {
		t.Errorf("unexpected details: %v", appErr.Details)
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := New().Required("name", "Sarah").Positive("bill", 120).OneOf("sortBy", "", []string{"input"})
	if v.HasErrors() {
		t.Fatalf("unexpected errors: %v", v.Errors())
	}
	if err := v.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	for in, want := range map[string]string{"FullName": "full_name", "id": "id", "NationalID": "national_i_d"} {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
