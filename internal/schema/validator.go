// Package schema validates inbound requests before they reach the pipelines.
package schema

import (
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/models"
)

const (
	MaxDayCount    = 30
	MaxFieldLength = 500
)

type Validator struct{}

func New() *Validator {
	return &Validator{}
}

// Plan normalizes in and checks the result. Every problem is reported in a
// single invalid-request failure.
func (v *Validator) Plan(in models.PlanInput) (models.GenerationRequest, error) {
	req := models.NewGenerationRequest(in)

	var problems []string
	if req.Destination == "" {
		problems = append(problems, "destination or textInput is required")
	}
	if req.DayCount < 1 || req.DayCount > MaxDayCount {
		problems = append(problems, "days must be between 1 and 30")
	}
	for name, value := range map[string]string{
		"destination": req.Destination,
		"budget":      req.BudgetHint,
		"companions":  req.Companions,
		"preferences": req.Preferences,
	} {
		if utf8.RuneCountInString(value) > MaxFieldLength {
			problems = append(problems, name+" is too long")
		}
	}

	if len(problems) > 0 {
		log.Debug().Strs("problems", problems).Msg("Plan request rejected")
		return models.GenerationRequest{}, failure.Newf(failure.KindInvalidRequest, "schema.Plan", "%s", strings.Join(problems, "; "))
	}
	return req, nil
}
