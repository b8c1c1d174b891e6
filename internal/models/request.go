package models

import (
	"fmt"
	"strings"
)

// DefaultDayCount is used when a request does not specify a trip length.
const DefaultDayCount = 3

// GenerationRequest describes one itinerary to generate. Build it with
// NewGenerationRequest so the fields are trimmed and the day count defaulted.
type GenerationRequest struct {
	Destination string
	DayCount    int
	BudgetHint  string
	Companions  string
	Preferences string
}

// PlanInput is the loosely-typed inbound form of a generation request.
type PlanInput struct {
	TextInput   string `json:"textInput"`
	Destination string `json:"destination"`
	Days        int    `json:"days"`
	Budget      string `json:"budget"`
	Companions  string `json:"companions"`
	Preferences string `json:"preferences"`
}

// NewGenerationRequest normalizes inbound input: the destination falls back to
// the free-text input and a missing day count becomes DefaultDayCount.
func NewGenerationRequest(in PlanInput) GenerationRequest {
	destination := strings.TrimSpace(in.Destination)
	if destination == "" {
		destination = strings.TrimSpace(in.TextInput)
	}
	days := in.Days
	if days == 0 {
		days = DefaultDayCount
	}
	return GenerationRequest{
		Destination: destination,
		DayCount:    days,
		BudgetHint:  strings.TrimSpace(in.Budget),
		Companions:  strings.TrimSpace(in.Companions),
		Preferences: strings.TrimSpace(in.Preferences),
	}
}

// Prompt renders the request as the single prompt sent to the model.
func (r GenerationRequest) Prompt() string {
	var b strings.Builder
	b.WriteString("请根据以下需求生成详细旅行计划：\n")
	fmt.Fprintf(&b, "目的地：%s\n", r.Destination)
	fmt.Fprintf(&b, "天数：%d\n", r.DayCount)
	fmt.Fprintf(&b, "预算：%s\n", orDefault(r.BudgetHint, "不限"))
	fmt.Fprintf(&b, "同行：%s\n", orDefault(r.Companions, "无"))
	fmt.Fprintf(&b, "偏好：%s\n", orDefault(r.Preferences, "无"))
	b.WriteString("请以纯文本格式输出完整行程计划。")
	return b.String()
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
