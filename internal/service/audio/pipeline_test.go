package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/models"
	"ai-travel-planner/internal/service/stt"
)

type fakeNormalizer struct {
	err error
}

func (f *fakeNormalizer) Normalize(_ context.Context, rawPath, normalizedPath string) error {
	if _, err := os.Stat(rawPath); err != nil {
		return failure.New(failure.KindTranscode, "fake", err)
	}
	if err := os.WriteFile(normalizedPath, []byte("RIFF"), 0o600); err != nil {
		return err
	}
	return f.err
}

type fakeRecognizer struct {
	mu    sync.Mutex
	text  string
	err   error
	calls []stt.Request
	// seen records whether the normalized file existed during the call.
	seen []bool
}

func (f *fakeRecognizer) Name() string { return "fake" }

func (f *fakeRecognizer) Transcribe(_ context.Context, req stt.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, statErr := os.Stat(req.AudioPath)
	f.calls = append(f.calls, req)
	f.seen = append(f.seen, statErr == nil)
	return f.text, f.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.TranscriptCompleted
}

func (p *recordingPublisher) PublishTranscript(_ context.Context, e models.TranscriptCompleted) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type pipelineFixture struct {
	ws         *Workspace
	normalizer *fakeNormalizer
	recognizer *fakeRecognizer
	publisher  *recordingPublisher
	pipeline   *Pipeline
}

func newFixture(t *testing.T, cfg Config) *pipelineFixture {
	t.Helper()
	f := &pipelineFixture{
		ws:         newTestWorkspace(t),
		normalizer: &fakeNormalizer{},
		recognizer: &fakeRecognizer{text: "去杭州玩三天"},
		publisher:  &recordingPublisher{},
	}
	f.pipeline = NewPipeline(f.ws, f.normalizer, f.recognizer, f.publisher, cfg, nil)
	return f
}

func (f *pipelineFixture) rawFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(f.ws.Dir(), "incoming.webm")
	require.NoError(t, os.WriteFile(path, []byte("webm-bytes"), 0o600))
	return path
}

func assertWorkDirEmpty(t *testing.T, ws *Workspace) {
	t.Helper()
	entries, err := os.ReadDir(ws.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "work dir should be empty after the job")
}

func TestPipeline_TranscribeFile_Success(t *testing.T) {
	f := newFixture(t, Config{})
	raw := f.rawFile(t)

	text, err := f.pipeline.TranscribeFile(context.Background(), raw, "models/ggml-small.bin", "zh")

	require.NoError(t, err)
	assert.Equal(t, "去杭州玩三天", text)
	require.Len(t, f.recognizer.calls, 1)
	assert.Equal(t, "models/ggml-small.bin", f.recognizer.calls[0].ModelPath)
	assert.Equal(t, "zh", f.recognizer.calls[0].Language)
	assert.True(t, f.recognizer.seen[0], "recognizer must see the normalized file")
	assertWorkDirEmpty(t, f.ws)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "success", f.publisher.events[0].Outcome)
	assert.Equal(t, "fake", f.publisher.events[0].Provider)
}

func TestPipeline_TranscodeFailureSkipsRecognition(t *testing.T) {
	f := newFixture(t, Config{})
	f.normalizer.err = failure.Newf(failure.KindTranscode, "fake", "exit status 1")
	raw := f.rawFile(t)

	_, err := f.pipeline.TranscribeFile(context.Background(), raw, "m", "zh")

	assert.ErrorIs(t, err, failure.ErrTranscode)
	assert.Empty(t, f.recognizer.calls, "recognizer must not run after a transcode failure")
	assertWorkDirEmpty(t, f.ws)
	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, "transcode", f.publisher.events[0].Outcome)
}

func TestPipeline_RecognitionFailureCleansUp(t *testing.T) {
	f := newFixture(t, Config{})
	f.recognizer.err = failure.New(failure.KindRecognition, "fake", errors.New("exit status 2"))
	raw := f.rawFile(t)

	_, err := f.pipeline.TranscribeFile(context.Background(), raw, "m", "zh")

	assert.ErrorIs(t, err, failure.ErrRecognition)
	assertWorkDirEmpty(t, f.ws)
}

func TestPipeline_EmptyTranscriptIsNotAnError(t *testing.T) {
	f := newFixture(t, Config{})
	f.recognizer.text = ""
	raw := f.rawFile(t)

	text, err := f.pipeline.TranscribeFile(context.Background(), raw, "m", "zh")

	require.NoError(t, err)
	assert.Empty(t, text)
	require.Len(t, f.publisher.events, 1)
	assert.True(t, f.publisher.events[0].Empty)
}

func TestPipeline_CancelledBeforeStart(t *testing.T) {
	f := newFixture(t, Config{})
	raw := f.rawFile(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.pipeline.TranscribeFile(ctx, raw, "m", "zh")

	assert.ErrorIs(t, err, failure.ErrCancelled)
	assert.Empty(t, f.recognizer.calls)
	assertWorkDirEmpty(t, f.ws)
}

func TestPipeline_TranscribeUpload(t *testing.T) {
	f := newFixture(t, Config{ModelPath: "models/default.bin", Language: "zh", MaxUploadBytes: 1024})

	text, err := f.pipeline.TranscribeUpload(context.Background(), strings.NewReader("webm-bytes"), "voice.webm")

	require.NoError(t, err)
	assert.Equal(t, "去杭州玩三天", text)
	require.Len(t, f.recognizer.calls, 1)
	assert.Equal(t, "models/default.bin", f.recognizer.calls[0].ModelPath)
	assertWorkDirEmpty(t, f.ws)
}

func TestPipeline_TranscribeUpload_Rejected(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"too large", strings.Repeat("x", 17)},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{MaxUploadBytes: 16})

			_, err := f.pipeline.TranscribeUpload(context.Background(), strings.NewReader(tt.body), "voice.webm")

			assert.ErrorIs(t, err, failure.ErrInvalidRequest)
			assert.Empty(t, f.recognizer.calls)
			assertWorkDirEmpty(t, f.ws)
		})
	}
}

func TestPipeline_TranscribeUpload_StorageErrorIsUntyped(t *testing.T) {
	f := newFixture(t, Config{MaxUploadBytes: 1024})
	require.NoError(t, os.RemoveAll(f.ws.Dir()))

	_, err := f.pipeline.TranscribeUpload(context.Background(), strings.NewReader("webm-bytes"), "voice.webm")

	require.Error(t, err)
	assert.NotErrorIs(t, err, failure.ErrTranscode)
	assert.Empty(t, failure.KindOf(err))
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, f.recognizer.calls)
}

func TestPipeline_ConcurrentJobsDoNotCollide(t *testing.T) {
	f := newFixture(t, Config{})
	const n = 25

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			body := bytes.NewReader([]byte(fmt.Sprintf("upload-%d", i)))
			if _, err := f.pipeline.TranscribeUpload(context.Background(), body, "voice.webm"); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("unexpected error: %v", err)
	}

	seen := make(map[string]bool)
	for _, req := range f.recognizer.calls {
		assert.False(t, seen[req.AudioPath], "normalized path reused: %s", req.AudioPath)
		seen[req.AudioPath] = true
	}
	assert.Len(t, seen, n)
	assertWorkDirEmpty(t, f.ws)
}
