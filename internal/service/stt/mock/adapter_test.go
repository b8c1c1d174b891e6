package mock

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/service/stt"
)

func audioFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.wav")
	if err := os.WriteFile(path, []byte("RIFF"), 0o600); err != nil {
		t.Fatalf("write audio: %v", err)
	}
	return path
}

func TestAdapter_CyclesTranscripts(t *testing.T) {
	a := New(WithTranscripts("one", "two"))
	req := stt.Request{AudioPath: audioFile(t)}

	want := []string{"one", "two", "one"}
	for i, w := range want {
		got, err := a.Transcribe(context.Background(), req)
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i, err)
		}
		if got != w {
			t.Errorf("call %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestAdapter_DefaultTranscripts(t *testing.T) {
	a := New()

	got, err := a.Transcribe(context.Background(), stt.Request{AudioPath: audioFile(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != DefaultTranscripts[0] {
		t.Errorf("expected first default transcript, got %q", got)
	}
}

func TestAdapter_EmptyList(t *testing.T) {
	a := New(WithTranscripts())

	got, err := a.Transcribe(context.Background(), stt.Request{AudioPath: audioFile(t)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "" {
		t.Errorf("expected empty transcript, got %q", got)
	}
}

func TestAdapter_MissingFile(t *testing.T) {
	a := New()

	_, err := a.Transcribe(context.Background(), stt.Request{AudioPath: filepath.Join(t.TempDir(), "nope.wav")})
	if !errors.Is(err, failure.ErrRecognition) {
		t.Errorf("expected recognition error, got %v", err)
	}
}

func TestAdapter_LatencyHonoursContext(t *testing.T) {
	a := New(WithLatency(time.Second))
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := a.Transcribe(ctx, stt.Request{AudioPath: audioFile(t)})

	if !errors.Is(err, failure.ErrCancelled) {
		t.Errorf("expected cancelled error, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("expected transcribe to return promptly after cancel")
	}
}

func TestAdapter_ConcurrentCalls(t *testing.T) {
	a := New(WithTranscripts("a", "b", "c"))
	req := stt.Request{AudioPath: audioFile(t)}

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := a.Transcribe(context.Background(), req); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if a.next != 30 {
		t.Errorf("expected 30 calls recorded, got %d", a.next)
	}
}
