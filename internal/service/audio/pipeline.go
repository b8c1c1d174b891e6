package audio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/models"
	"ai-travel-planner/internal/observability/logging"
	"ai-travel-planner/internal/observability/metrics"
	"ai-travel-planner/internal/service/stt"
)

const publishTimeout = 5 * time.Second

// TranscriptPublisher receives one event per audio job.
type TranscriptPublisher interface {
	PublishTranscript(ctx context.Context, event models.TranscriptCompleted) error
}

// Config holds pipeline defaults.
type Config struct {
	ModelPath string
	Language  string
	// MaxUploadBytes caps TranscribeUpload. Zero means unlimited.
	MaxUploadBytes int64
}

// Pipeline runs normalize, transcribe and cleanup for one job at a time per
// call. Concurrent calls share nothing but the work directory.
type Pipeline struct {
	workspace  *Workspace
	normalizer Normalizer
	recognizer stt.Recognizer
	publisher  TranscriptPublisher
	cfg        Config
	metrics    *metrics.Metrics
}

// NewPipeline wires a pipeline. A nil publisher disables events and a nil m
// uses metrics.DefaultMetrics.
func NewPipeline(ws *Workspace, n Normalizer, r stt.Recognizer, pub TranscriptPublisher, cfg Config, m *metrics.Metrics) *Pipeline {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Pipeline{
		workspace:  ws,
		normalizer: n,
		recognizer: r,
		publisher:  pub,
		cfg:        cfg,
		metrics:    m,
	}
}

// TranscribeFile transcribes an already uploaded file. The pipeline takes
// ownership of rawPath and deletes it before returning.
func (p *Pipeline) TranscribeFile(ctx context.Context, rawPath, modelPath, language string) (string, error) {
	job := p.workspace.Adopt(rawPath)
	return p.run(ctx, job, modelPath, language)
}

// TranscribeUpload stores r in the work directory and transcribes it with
// the configured model and language.
func (p *Pipeline) TranscribeUpload(ctx context.Context, r io.Reader, filename string) (string, error) {
	job := p.workspace.NewJob(filepath.Ext(filename))
	defer p.workspace.Release(job)

	n, err := p.store(job.RawPath, r)
	if err != nil {
		logger := logging.WithJob("audio-pipeline", job.ID)
		logger.Warn().Err(err).Str("filename", filename).Msg("Upload rejected")
		return "", err
	}
	p.metrics.RecordUpload(n)

	return p.run(ctx, job, p.cfg.ModelPath, p.cfg.Language)
}

func (p *Pipeline) run(ctx context.Context, job *Job, modelPath, language string) (text string, err error) {
	logger := logging.WithJob("audio-pipeline", job.ID)
	start := time.Now()

	defer func() { p.finish(ctx, logger, job, language, time.Since(start), text, err) }()
	defer p.workspace.Release(job)

	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", failure.New(failure.KindCancelled, "audio.run", ctxErr)
	}

	step := time.Now()
	if err := p.normalizer.Normalize(ctx, job.RawPath, job.NormalizedPath); err != nil {
		return "", err
	}
	p.metrics.RecordStep("normalize", time.Since(step).Seconds())

	step = time.Now()
	text, err = p.recognizer.Transcribe(ctx, stt.Request{
		AudioPath: job.NormalizedPath,
		ModelPath: modelPath,
		Language:  language,
	})
	p.metrics.RecordStep("transcribe", time.Since(step).Seconds())
	if err != nil {
		return "", err
	}
	return text, nil
}

func (p *Pipeline) finish(ctx context.Context, logger zerolog.Logger, job *Job, language string, elapsed time.Duration, text string, err error) {
	outcome := "success"
	if err != nil {
		outcome = string(failure.KindOf(err))
		if outcome == "" {
			outcome = "error"
		}
	}
	p.metrics.RecordTranscription(p.recognizer.Name(), outcome)

	switch {
	case err != nil:
		logger.Warn().Err(err).Str("outcome", outcome).Dur("duration", elapsed).Msg("Transcription failed")
	case text == "":
		p.metrics.RecordEmptyTranscript()
		logger.Warn().Dur("duration", elapsed).Msg("Transcription produced no text")
	default:
		logger.Info().Int("chars", len([]rune(text))).Dur("duration", elapsed).Msg("Transcription finished")
	}

	if p.publisher == nil {
		return
	}
	event := models.TranscriptCompleted{
		JobID:      job.ID,
		Provider:   p.recognizer.Name(),
		Language:   language,
		Outcome:    outcome,
		Text:       text,
		Empty:      err == nil && text == "",
		DurationMs: elapsed.Milliseconds(),
		Timestamp:  time.Now().UnixMilli(),
	}
	if err != nil {
		event.Error = err.Error()
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if perr := p.publisher.PublishTranscript(pubCtx, event); perr != nil {
		logger.Warn().Err(perr).Msg("Failed to publish transcript event")
	}
}

// store copies r to path, enforcing the upload limit. Local disk errors are
// returned untyped.
func (p *Pipeline) store(path string, r io.Reader) (int64, error) {
	const op = "audio.store"

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return 0, fmt.Errorf("%s: create upload file: %w", op, err)
	}

	src := r
	if p.cfg.MaxUploadBytes > 0 {
		src = io.LimitReader(r, p.cfg.MaxUploadBytes+1)
	}
	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()

	switch {
	case copyErr != nil:
		return n, failure.New(failure.KindInvalidRequest, op, fmt.Errorf("read upload: %w", copyErr))
	case closeErr != nil:
		return n, fmt.Errorf("%s: write upload: %w", op, closeErr)
	case p.cfg.MaxUploadBytes > 0 && n > p.cfg.MaxUploadBytes:
		return n, failure.Newf(failure.KindInvalidRequest, op, "upload exceeds %d bytes", p.cfg.MaxUploadBytes)
	case n == 0:
		return 0, failure.New(failure.KindInvalidRequest, op, errEmptyUpload)
	}
	return n, nil
}

var errEmptyUpload = errors.New("upload is empty")
