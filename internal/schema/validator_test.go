package schema

import (
	"errors"
	"strings"
	"testing"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/models"
)

func TestValidator_Plan(t *testing.T) {
	tests := []struct {
		name    string
		in      models.PlanInput
		wantErr string
	}{
		{"destination only", models.PlanInput{Destination: "杭州"}, ""},
		{"text input fallback", models.PlanInput{TextInput: "杭州三日游"}, ""},
		{"missing destination", models.PlanInput{Days: 3}, "destination or textInput is required"},
		{"negative days", models.PlanInput{Destination: "Kyoto", Days: -1}, "days must be between 1 and 30"},
		{"too many days", models.PlanInput{Destination: "Kyoto", Days: 31}, "days must be between 1 and 30"},
		{"long preferences", models.PlanInput{Destination: "Kyoto", Preferences: strings.Repeat("好", 501)}, "preferences is too long"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := v.Plan(tt.in)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if req.DayCount != models.DefaultDayCount {
					t.Errorf("expected default day count, got %d", req.DayCount)
				}
				return
			}
			if !errors.Is(err, failure.ErrInvalidRequest) {
				t.Fatalf("expected invalid request error, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error to contain %q, got %q", tt.wantErr, err.Error())
			}
		})
	}
}

func TestValidator_Plan_ReportsAllProblems(t *testing.T) {
	_, err := New().Plan(models.PlanInput{Days: 99})

	if err == nil {
		t.Fatal("expected error")
	}
	for _, want := range []string{"destination", "days"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in %q", want, err.Error())
		}
	}
}
