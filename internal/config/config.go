// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"ai-travel-planner/internal/failure"
)

// Configuration is the full service configuration.
type Configuration struct {
	Service       ServiceConfig
	Spark         SparkConfig
	ASR           ASRConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

type ServiceConfig struct {
	Principal string
	HTTPPort  string
	GRPCPort  string
}

// SparkConfig holds credentials and sampling parameters for the remote generation service.
type SparkConfig struct {
	AppID            string
	APIKey           string
	APISecret        string
	URL              string
	Domain           string
	UID              string
	Temperature      float64
	MaxTokens        int
	HandshakeTimeout time.Duration
	ReadTimeout      time.Duration
}

// ASRConfig holds the transcoder and recognizer settings.
type ASRConfig struct {
	Provider       string // whisper, google, mock
	FFmpegPath     string
	WhisperCommand string
	WhisperScript  string
	ModelPath      string
	Language       string
	WorkDir        string
	MaxUploadBytes int64
}

type KafkaConfig struct {
	Enabled         bool
	Brokers         []string
	TopicPlan       string
	TopicTranscript string
	Principal       string
}

type ObservabilityConfig struct {
	LogLevel    string
	LogFormat   string
	MetricsAddr string
}

// Load reads the configuration from environment variables, falling back to
// defaults for unset or unparsable values.
func Load() *Configuration {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-travel-planner")

	return &Configuration{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("PORT", "4000"),
			GRPCPort:  envOrDefault("GRPC_PORT", "50051"),
		},
		Spark: SparkConfig{
			AppID:            os.Getenv("SPARK_APP_ID"),
			APIKey:           os.Getenv("SPARK_API_KEY"),
			APISecret:        os.Getenv("SPARK_API_SECRET"),
			URL:              envOrDefault("SPARK_API_URL", "wss://spark-api.xf-yun.com/v1/x1"),
			Domain:           envOrDefault("SPARK_DOMAIN", "x1"),
			UID:              envOrDefault("SPARK_UID", "user_123"),
			Temperature:      envOrDefaultFloat("SPARK_TEMPERATURE", 0.7),
			MaxTokens:        envOrDefaultInt("SPARK_MAX_TOKENS", 2048),
			HandshakeTimeout: envOrDefaultDuration("SPARK_HANDSHAKE_TIMEOUT", 10*time.Second),
			ReadTimeout:      envOrDefaultDuration("SPARK_READ_TIMEOUT", 60*time.Second),
		},
		ASR: ASRConfig{
			Provider:       envOrDefault("ASR_PROVIDER", "whisper"),
			FFmpegPath:     envOrDefault("FFMPEG_PATH", "ffmpeg"),
			WhisperCommand: envOrDefault("WHISPER_COMMAND", "python"),
			WhisperScript:  envOrDefault("WHISPER_SCRIPT", "local_whisper.py"),
			ModelPath:      envOrDefault("WHISPER_MODEL_PATH", "models/for-tests-ggml-small.bin"),
			Language:       envOrDefault("ASR_LANGUAGE", "zh"),
			WorkDir:        envOrDefault("ASR_WORK_DIR", "uploads"),
			MaxUploadBytes: envOrDefaultInt64("ASR_MAX_UPLOAD_BYTES", 25*1024*1024),
		},
		Kafka: KafkaConfig{
			Enabled:         envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:         envList("KAFKA_BROKERS"),
			TopicPlan:       envOrDefault("KAFKA_TOPIC_PLAN", "planner.plan.generated"),
			TopicTranscript: envOrDefault("KAFKA_TOPIC_TRANSCRIPT", "planner.transcript.completed"),
			Principal:       envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			LogFormat:   envOrDefault("LOG_FORMAT", "json"),
			MetricsAddr: envOrDefault("METRICS_ADDR", ":9090"),
		},
	}
}

// LoadDotEnv loads variables from path into the environment without overriding
// variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return godotenv.Load(path)
}

// Validate reports a config failure when any credential is missing.
func (c SparkConfig) Validate() error {
	var missing []string
	if c.AppID == "" {
		missing = append(missing, "SPARK_APP_ID")
	}
	if c.APIKey == "" {
		missing = append(missing, "SPARK_API_KEY")
	}
	if c.APISecret == "" {
		missing = append(missing, "SPARK_API_SECRET")
	}
	if c.URL == "" {
		missing = append(missing, "SPARK_API_URL")
	}
	if len(missing) > 0 {
		return failure.Newf(failure.KindConfig, "spark config", "missing %s", strings.Join(missing, ", "))
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrDefaultInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envOrDefaultFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

func envOrDefaultDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

// envList splits a comma-separated variable, dropping empty entries.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
