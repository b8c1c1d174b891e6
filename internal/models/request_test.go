package models

import (
	"strings"
	"testing"
)

func TestNewGenerationRequest_Defaults(t *testing.T) {
	req := NewGenerationRequest(PlanInput{TextInput: "  杭州 ", Budget: " 5000 "})

	if req.Destination != "杭州" {
		t.Errorf("expected destination from text input, got %q", req.Destination)
	}
	if req.DayCount != DefaultDayCount {
		t.Errorf("expected default day count %d, got %d", DefaultDayCount, req.DayCount)
	}
	if req.BudgetHint != "5000" {
		t.Errorf("expected trimmed budget, got %q", req.BudgetHint)
	}
}

func TestNewGenerationRequest_DestinationWins(t *testing.T) {
	req := NewGenerationRequest(PlanInput{TextInput: "anywhere", Destination: "Kyoto", Days: 5})

	if req.Destination != "Kyoto" {
		t.Errorf("expected explicit destination, got %q", req.Destination)
	}
	if req.DayCount != 5 {
		t.Errorf("expected 5 days, got %d", req.DayCount)
	}
}

func TestGenerationRequest_Prompt(t *testing.T) {
	req := GenerationRequest{Destination: "Kyoto", DayCount: 4, Preferences: "temples"}
	prompt := req.Prompt()

	for _, want := range []string{"目的地：Kyoto", "天数：4", "预算：不限", "同行：无", "偏好：temples"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
