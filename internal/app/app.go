package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/events"
	"ai-travel-planner/internal/models"
	"ai-travel-planner/internal/observability/logging"
	"ai-travel-planner/internal/observability/metrics"
	"ai-travel-planner/internal/schema"
	"ai-travel-planner/internal/service/audio"
	"ai-travel-planner/internal/service/generation"
	"ai-travel-planner/internal/service/proc"
	"ai-travel-planner/internal/service/stt"
	"ai-travel-planner/internal/service/stt/google"
	"ai-travel-planner/internal/service/stt/mock"
	"ai-travel-planner/internal/service/stt/whisper"
)

// PlanGenerator produces itinerary text for a validated request.
type PlanGenerator interface {
	Generate(ctx context.Context, req models.GenerationRequest) (string, error)
}

// Transcriber turns an uploaded recording into text.
type Transcriber interface {
	TranscribeUpload(ctx context.Context, r io.Reader, filename string) (string, error)
}

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration

	Validator   *schema.Validator
	Planner     PlanGenerator
	Transcriber Transcriber
	Publisher   *events.Publisher
	Workspace   *audio.Workspace

	closers []io.Closer
}

// New constructs a new Application from the provided configuration.
func New(ctx context.Context, cfg *config.Configuration) (*Application, error) {
	a := &Application{
		Cfg:       cfg,
		Logger:    logging.WithComponent("application"),
		Validator: schema.New(),
	}

	m := metrics.DefaultMetrics

	a.Publisher = events.New(&events.Config{
		Brokers:         cfg.Kafka.Brokers,
		TopicPlan:       cfg.Kafka.TopicPlan,
		TopicTranscript: cfg.Kafka.TopicTranscript,
		Principal:       cfg.Kafka.Principal,
		Enabled:         cfg.Kafka.Enabled,
	})
	a.closers = append(a.closers, a.Publisher)

	if err := cfg.Spark.Validate(); err != nil {
		// Generation requests fail with the same error until configured.
		a.Logger.Warn().Err(err).Msg("Generation service is not configured")
	}
	client := generation.NewClient(generation.ClientConfig{
		HandshakeTimeout: cfg.Spark.HandshakeTimeout,
		ReadTimeout:      cfg.Spark.ReadTimeout,
	}, m)
	a.Planner = generation.NewService(cfg.Spark, client, a.Publisher, generation.WithMetrics(m))

	ws, err := audio.NewWorkspace(cfg.ASR.WorkDir, m)
	if err != nil {
		return nil, err
	}
	a.Workspace = ws

	runner := proc.ExecRunner{}
	recognizer, err := a.newRecognizer(ctx, runner)
	if err != nil {
		return nil, err
	}
	a.Transcriber = audio.NewPipeline(
		ws,
		audio.NewFFmpegNormalizer(cfg.ASR.FFmpegPath, runner),
		recognizer,
		a.Publisher,
		audio.Config{
			ModelPath:      cfg.ASR.ModelPath,
			Language:       cfg.ASR.Language,
			MaxUploadBytes: cfg.ASR.MaxUploadBytes,
		},
		m,
	)

	a.Logger.Info().
		Str("asrProvider", recognizer.Name()).
		Str("workDir", ws.Dir()).
		Bool("kafka", cfg.Kafka.Enabled).
		Msg("AI travel planner application created")
	return a, nil
}

func (a *Application) newRecognizer(ctx context.Context, runner proc.Runner) (stt.Recognizer, error) {
	switch a.Cfg.ASR.Provider {
	case "whisper", "":
		return whisper.New(whisper.Config{
			Command: a.Cfg.ASR.WhisperCommand,
			Script:  a.Cfg.ASR.WhisperScript,
		}, runner), nil
	case "google":
		gcfg := google.DefaultConfig()
		if a.Cfg.ASR.Language != "" {
			gcfg.LanguageCode = a.Cfg.ASR.Language
		}
		g, err := google.New(ctx, gcfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, g)
		return g, nil
	case "mock":
		return mock.New(), nil
	default:
		return nil, fmt.Errorf("unknown ASR provider %q", a.Cfg.ASR.Provider)
	}
}

// Start performs any startup work required before serving traffic.
func (a *Application) Start() error {
	a.StartupTime = time.Now().UTC()
	a.Logger.Info().
		Time("startupTime", a.StartupTime).
		Msg("AI travel planner starting")
	return nil
}

// Ready reports whether the work directory accepts new job files.
func (a *Application) Ready(_ context.Context) error {
	if a.Workspace == nil {
		return nil
	}
	probe, err := os.CreateTemp(a.Workspace.Dir(), ".ready-*")
	if err != nil {
		return fmt.Errorf("work dir %s not writable: %w", filepath.Clean(a.Workspace.Dir()), err)
	}
	name := probe.Name()
	_ = probe.Close()
	return os.Remove(name)
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	a.Logger.Info().Msg("AI travel planner shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error during shutdown")
		}
	}
}
