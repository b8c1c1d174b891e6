// Package mock provides a canned recognizer for running without a local
// model or cloud credentials. Each call returns the next transcript from a
// fixed list.
package mock

import (
	"context"
	"os"
	"sync"
	"time"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/service/stt"
)

// DefaultTranscripts are returned in order, cycling.
var DefaultTranscripts = []string{
	"我想去杭州玩三天，预算五千元",
	"帮我规划一个北京五日游，带孩子",
	"周末去成都吃火锅，两个人",
	"Plan four days in Kyoto with temples and gardens",
	"去西安看兵马俑，喜欢历史",
}

// Adapter implements stt.Recognizer with canned responses.
type Adapter struct {
	mu          sync.Mutex
	transcripts []string
	next        int
	latency     time.Duration
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithTranscripts replaces the canned transcripts.
func WithTranscripts(t ...string) Option {
	return func(a *Adapter) { a.transcripts = t }
}

// WithLatency simulates recognition time.
func WithLatency(d time.Duration) Option {
	return func(a *Adapter) { a.latency = d }
}

// New creates a new mock recognizer.
func New(opts ...Option) *Adapter {
	a := &Adapter{transcripts: DefaultTranscripts}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Name implements stt.Recognizer.
func (a *Adapter) Name() string { return "mock" }

// Transcribe implements stt.Recognizer. The audio file must exist so the
// pipeline behaves as it does with a real backend.
func (a *Adapter) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	const op = "mock.Transcribe"

	if _, err := os.Stat(req.AudioPath); err != nil {
		return "", failure.New(failure.KindRecognition, op, err)
	}

	if a.latency > 0 {
		timer := time.NewTimer(a.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", failure.New(failure.KindCancelled, op, ctx.Err())
		case <-timer.C:
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.transcripts) == 0 {
		return "", nil
	}
	text := a.transcripts[a.next%len(a.transcripts)]
	a.next++
	return text, nil
}

var _ stt.Recognizer = (*Adapter)(nil)
