// Package whisper runs a local whisper transcription script as an external process.
package whisper

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/observability/logging"
	"ai-travel-planner/internal/service/proc"
	"ai-travel-planner/internal/service/stt"
)

const maxLoggedStderr = 2048

// Config holds the command line of the recognizer process.
type Config struct {
	// Command is the executable, for example "python".
	Command string
	// Script is passed as the first argument when set.
	Script string
}

// Recognizer implements stt.Recognizer by spawning
// <command> [script] <wav> -m <model> -l <lang>.
type Recognizer struct {
	cfg    Config
	runner proc.Runner
	logger zerolog.Logger
}

// New creates a whisper recognizer.
func New(cfg Config, runner proc.Runner) *Recognizer {
	return &Recognizer{
		cfg:    cfg,
		runner: runner,
		logger: logging.WithComponent("whisper"),
	}
}

// Name implements stt.Recognizer.
func (r *Recognizer) Name() string { return "whisper" }

// Args returns the arguments passed to the command for req.
func (r *Recognizer) Args(req stt.Request) []string {
	var args []string
	if r.cfg.Script != "" {
		args = append(args, r.cfg.Script)
	}
	args = append(args, req.AudioPath, "-m", req.ModelPath)
	if req.Language != "" {
		args = append(args, "-l", req.Language)
	}
	return args
}

// Transcribe implements stt.Recognizer. Only the exit status decides failure;
// anything written to stderr is logged.
func (r *Recognizer) Transcribe(ctx context.Context, req stt.Request) (string, error) {
	const op = "whisper.Transcribe"

	stdout, stderr, err := r.runner.Run(ctx, r.cfg.Command, r.Args(req)...)
	if len(stderr) > 0 {
		r.logger.Debug().Str("stderr", truncate(string(stderr), maxLoggedStderr)).Msg("Recognizer diagnostics")
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", failure.New(failure.KindCancelled, op, ctxErr)
		}
		r.logger.Error().
			Err(err).
			Int("exitCode", proc.ExitCode(err)).
			Str("stderr", truncate(string(stderr), maxLoggedStderr)).
			Msg("Recognizer process failed")
		return "", failure.New(failure.KindRecognition, op, describe(err, stderr))
	}

	return strings.TrimSpace(string(stdout)), nil
}

func describe(err error, stderr []byte) error {
	msg := strings.TrimSpace(string(stderr))
	if msg == "" {
		return err
	}
	if idx := strings.LastIndexByte(msg, '\n'); idx >= 0 {
		msg = msg[idx+1:]
	}
	return fmt.Errorf("%w: %s", err, msg)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ stt.Recognizer = (*Recognizer)(nil)
