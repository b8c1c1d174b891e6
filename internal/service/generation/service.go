package generation

import (
	"context"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"

	"ai-travel-planner/internal/config"
	"ai-travel-planner/internal/failure"
	"ai-travel-planner/internal/models"
	"ai-travel-planner/internal/observability/logging"
	"ai-travel-planner/internal/observability/metrics"
	"ai-travel-planner/internal/service/spark"
)

const publishTimeout = 5 * time.Second

// Streamer runs one chat payload against a signed endpoint.
type Streamer interface {
	Run(ctx context.Context, endpoint spark.SignedEndpoint, payload spark.ChatPayload) Outcome
}

// PlanPublisher receives one event per generation request.
type PlanPublisher interface {
	PublishPlan(ctx context.Context, event models.PlanGenerated) error
}

// Service turns a generation request into itinerary text.
type Service struct {
	cfg       config.SparkConfig
	streamer  Streamer
	publisher PlanPublisher
	metrics   *metrics.Metrics
	now       func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the clock used for signing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics overrides the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// NewService creates a generation service. A nil publisher disables events.
func NewService(cfg config.SparkConfig, streamer Streamer, publisher PlanPublisher, opts ...Option) *Service {
	s := &Service{
		cfg:       cfg,
		streamer:  streamer,
		publisher: publisher,
		metrics:   metrics.DefaultMetrics,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate signs a fresh endpoint, streams the request's prompt and returns
// the accumulated text or a typed failure. Nothing is retried.
func (s *Service) Generate(ctx context.Context, req models.GenerationRequest) (string, error) {
	requestID := xid.New().String()
	logger := logging.WithRequest("generation", requestID)

	if err := s.cfg.Validate(); err != nil {
		logger.Error().Err(err).Msg("Generation service is not configured")
		return "", err
	}

	signed, err := spark.Sign(s.cfg.URL, spark.Credentials{
		AppID:     s.cfg.AppID,
		APIKey:    s.cfg.APIKey,
		APISecret: s.cfg.APISecret,
	}, s.now())
	if err != nil {
		logger.Error().Err(err).Msg("Failed to sign endpoint")
		return "", err
	}

	payload := spark.NewChatPayload(spark.Options{
		AppID:       s.cfg.AppID,
		UID:         s.cfg.UID,
		Domain:      s.cfg.Domain,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	}, req.Prompt())

	logger.Info().
		Str("destination", req.Destination).
		Int("days", req.DayCount).
		Msg("Starting generation")

	start := time.Now()
	s.metrics.RecordGenerationStart()
	out := s.streamer.Run(ctx, signed, payload)
	elapsed := time.Since(start)

	outcome := "success"
	if out.Err != nil {
		outcome = string(failure.KindOf(out.Err))
	}
	s.metrics.RecordGenerationEnd(outcome, string(out.Event), len([]rune(out.Text)), elapsed.Seconds())

	ev := logger.Info()
	if out.Err != nil {
		ev = logger.Warn().Err(out.Err)
	}
	ev.Str("outcome", outcome).
		Str("event", string(out.Event)).
		Int("chars", len([]rune(out.Text))).
		Dur("duration", elapsed).
		Msg("Generation finished")

	s.publish(ctx, logger, models.PlanGenerated{
		RequestID:   requestID,
		Destination: req.Destination,
		DayCount:    req.DayCount,
		Outcome:     outcome,
		Event:       string(out.Event),
		Error:       errString(out.Err),
		Chars:       len([]rune(out.Text)),
		DurationMs:  elapsed.Milliseconds(),
		Timestamp:   time.Now().UnixMilli(),
	})

	if out.Err != nil {
		return "", out.Err
	}
	return out.Text, nil
}

func (s *Service) publish(ctx context.Context, logger zerolog.Logger, event models.PlanGenerated) {
	if s.publisher == nil {
		return
	}
	// The outcome is reported even when the caller already went away.
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishPlan(pubCtx, event); err != nil {
		logger.Warn().Err(err).Msg("Failed to publish plan event")
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
