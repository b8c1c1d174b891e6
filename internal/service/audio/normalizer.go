// Package audio turns uploaded recordings into transcripts: each job is
// normalized to 16 kHz mono PCM, recognized, and its files removed.
package audio

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/observability/logging"
	"ai-travel-planner/internal/service/proc"
)

// Target format of normalized audio.
const (
	SampleRateHz = 16000
	Channels     = 1
	Codec        = "pcm_s16le"
)

// Normalizer converts an arbitrary audio container into the recognizer format.
type Normalizer interface {
	Normalize(ctx context.Context, rawPath, normalizedPath string) error
}

// FFmpegNormalizer runs ffmpeg through a proc.Runner.
type FFmpegNormalizer struct {
	binary string
	runner proc.Runner
	logger zerolog.Logger
}

// NewFFmpegNormalizer creates a normalizer. An empty binary means "ffmpeg".
func NewFFmpegNormalizer(binary string, runner proc.Runner) *FFmpegNormalizer {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegNormalizer{
		binary: binary,
		runner: runner,
		logger: logging.WithComponent("normalizer"),
	}
}

// Args returns the ffmpeg arguments for one conversion.
func (n *FFmpegNormalizer) Args(rawPath, normalizedPath string) []string {
	return []string{
		"-y",
		"-loglevel", "error",
		"-i", rawPath,
		"-vn",
		"-acodec", Codec,
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRateHz),
		"-f", "wav",
		normalizedPath,
	}
}

// Normalize implements Normalizer. A zero exit status without a non-empty
// output file is still a failure.
func (n *FFmpegNormalizer) Normalize(ctx context.Context, rawPath, normalizedPath string) error {
	const op = "audio.Normalize"

	_, stderr, err := n.runner.Run(ctx, n.binary, n.Args(rawPath, normalizedPath)...)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return failure.New(failure.KindCancelled, op, ctxErr)
		}
		msg := strings.TrimSpace(string(stderr))
		n.logger.Error().Err(err).Int("exitCode", proc.ExitCode(err)).Str("stderr", msg).Msg("ffmpeg failed")
		if msg != "" {
			return failure.New(failure.KindTranscode, op, fmt.Errorf("%w: %s", err, msg))
		}
		return failure.New(failure.KindTranscode, op, err)
	}

	info, err := os.Stat(normalizedPath)
	if err != nil {
		return failure.New(failure.KindTranscode, op, fmt.Errorf("output missing: %w", err))
	}
	if info.Size() == 0 {
		return failure.Newf(failure.KindTranscode, op, "output %s is empty", normalizedPath)
	}
	return nil
}
