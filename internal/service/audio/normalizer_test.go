package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-travel-planner/internal/failure"
)

// scriptedRunner writes output to the last argument when content is set,
// mimicking ffmpeg.
type scriptedRunner struct {
	content string
	stderr  string
	err     error
	name    string
	args    []string
}

func (r *scriptedRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	r.name = name
	r.args = args
	if r.content != "" && len(args) > 0 {
		if err := os.WriteFile(args[len(args)-1], []byte(r.content), 0o600); err != nil {
			return nil, nil, err
		}
	}
	return nil, []byte(r.stderr), r.err
}

func TestFFmpegNormalizer_Args(t *testing.T) {
	n := NewFFmpegNormalizer("", &scriptedRunner{})

	assert.Equal(t, []string{
		"-y", "-loglevel", "error",
		"-i", "in.webm",
		"-vn", "-acodec", "pcm_s16le", "-ac", "1", "-ar", "16000",
		"-f", "wav", "out.wav",
	}, n.Args("in.webm", "out.wav"))
}

func TestFFmpegNormalizer_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		runner  *scriptedRunner
		wantErr error
	}{
		{"success", &scriptedRunner{content: "RIFF"}, nil},
		{"non-zero exit", &scriptedRunner{stderr: "Invalid data found when processing input", err: errors.New("exit status 1")}, failure.ErrTranscode},
		{"zero exit without output", &scriptedRunner{}, failure.ErrTranscode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			n := NewFFmpegNormalizer("/usr/bin/ffmpeg", tt.runner)

			err := n.Normalize(context.Background(), filepath.Join(dir, "raw.webm"), filepath.Join(dir, "out.wav"))

			assert.Equal(t, "/usr/bin/ffmpeg", tt.runner.name)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestFFmpegNormalizer_EmptyOutputIsFailure(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.wav")
	require.NoError(t, os.WriteFile(out, nil, 0o600))

	err := NewFFmpegNormalizer("", &scriptedRunner{}).Normalize(context.Background(), "raw.webm", out)

	assert.ErrorIs(t, err, failure.ErrTranscode)
	assert.Contains(t, err.Error(), "empty")
}

func TestFFmpegNormalizer_StderrInError(t *testing.T) {
	runner := &scriptedRunner{stderr: "raw.webm: No such file or directory\n", err: errors.New("exit status 1")}

	err := NewFFmpegNormalizer("", runner).Normalize(context.Background(), "raw.webm", "out.wav")

	assert.ErrorIs(t, err, failure.ErrTranscode)
	assert.Contains(t, err.Error(), "No such file or directory")
}

func TestFFmpegNormalizer_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewFFmpegNormalizer("", &scriptedRunner{err: errors.New("signal: killed")}).Normalize(ctx, "raw", "out")

	assert.ErrorIs(t, err, failure.ErrCancelled)
}
