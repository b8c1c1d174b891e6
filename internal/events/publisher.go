// Package events publishes generation and transcription outcome events.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"ai-travel-planner/internal/models"
	"ai-travel-planner/internal/observability/metrics"
)

// Publisher writes outcome events to one Kafka topic per pipeline.
// When Kafka is disabled events are only logged.
type Publisher struct {
	writerPlan       *kafka.Writer
	writerTranscript *kafka.Writer
	principal        string
	topicPlan        string
	topicTranscript  string
	enabled          bool
	metrics          *metrics.Metrics
}

// Config holds Kafka publisher configuration.
type Config struct {
	Brokers         []string
	TopicPlan       string
	TopicTranscript string
	Principal       string
	Enabled         bool
}

// New creates a new event publisher.
func New(cfg *Config) *Publisher {
	m := metrics.DefaultMetrics

	if cfg == nil {
		log.Info().Msg("Kafka disabled (nil config), using log-only mode")
		return &Publisher{
			enabled: false,
			metrics: m,
		}
	}

	if !cfg.Enabled || len(cfg.Brokers) == 0 {
		log.Info().Msg("Kafka disabled, using log-only mode")
		return &Publisher{
			principal:       cfg.Principal,
			topicPlan:       cfg.TopicPlan,
			topicTranscript: cfg.TopicTranscript,
			enabled:         false,
			metrics:         m,
		}
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	transport := &kafka.Transport{
		Dial: dialer.DialFunc,
	}

	log.Info().
		Strs("brokers", cfg.Brokers).
		Str("topicPlan", cfg.TopicPlan).
		Str("topicTranscript", cfg.TopicTranscript).
		Str("principal", cfg.Principal).
		Msg("Kafka publisher initialized")

	return &Publisher{
		writerPlan:       newWriter(cfg.Brokers, cfg.TopicPlan, transport),
		writerTranscript: newWriter(cfg.Brokers, cfg.TopicTranscript, transport),
		principal:        cfg.Principal,
		topicPlan:        cfg.TopicPlan,
		topicTranscript:  cfg.TopicTranscript,
		enabled:          true,
		metrics:          m,
	}
}

func newWriter(brokers []string, topic string, transport *kafka.Transport) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
		Transport:    transport,
	}
}

// PublishPlan publishes the outcome of a generation request keyed by request ID.
func (p *Publisher) PublishPlan(ctx context.Context, event models.PlanGenerated) error {
	if event.EventType == "" {
		event.EventType = models.EventTypePlanGenerated
	}
	return p.publish(ctx, p.writerPlan, p.topicPlan, event.EventType, event.RequestID, event)
}

// PublishTranscript publishes the outcome of an audio job keyed by job ID.
func (p *Publisher) PublishTranscript(ctx context.Context, event models.TranscriptCompleted) error {
	if event.EventType == "" {
		event.EventType = models.EventTypeTranscriptCompleted
	}
	return p.publish(ctx, p.writerTranscript, p.topicTranscript, event.EventType, event.JobID, event)
}

func (p *Publisher) publish(ctx context.Context, writer *kafka.Writer, topic, eventType, key string, event any) error {
	start := time.Now()

	payload, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return err
	}

	log.Debug().
		Str("principal", p.principal).
		Str("topic", topic).
		Str("key", key).
		RawJSON("payload", payload).
		Msg("Publishing event")

	if !p.enabled || writer == nil {
		p.metrics.RecordEventPublish(topic, eventType, nil, time.Since(start).Seconds())
		return nil
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "eventType", Value: []byte(eventType)},
			{Key: "principal", Value: []byte(p.principal)},
		},
	}

	if err := writer.WriteMessages(ctx, msg); err != nil {
		log.Error().
			Err(err).
			Str("topic", topic).
			Str("key", key).
			Msg("Failed to write to Kafka")
		p.metrics.RecordEventPublish(topic, eventType, err, time.Since(start).Seconds())
		return err
	}

	p.metrics.RecordEventPublish(topic, eventType, nil, time.Since(start).Seconds())
	return nil
}

// Close closes both Kafka writers.
func (p *Publisher) Close() error {
	var err error
	if p.writerPlan != nil {
		if e := p.writerPlan.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing plan writer")
			err = e
		}
	}
	if p.writerTranscript != nil {
		if e := p.writerTranscript.Close(); e != nil {
			log.Error().Err(e).Msg("Error closing transcript writer")
			err = e
		}
	}
	return err
}
