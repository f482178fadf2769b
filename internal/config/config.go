// Package config loads service configuration from the environment.
package config

import (
	"os"
	"strconv"
	"strings"
)

// Config is the root configuration for the service.
type Config struct {
	Service       ServiceConfig
	Model         ModelConfig
	Upload        UploadConfig
	Kafka         KafkaConfig
	Observability ObservabilityConfig
}

// ServiceConfig holds process identity and listen settings.
type ServiceConfig struct {
	Principal string
	HTTPPort  string
}

// ModelConfig holds speech-recognition engine settings.
type ModelConfig struct {
	Provider        string // whisper, google, mock
	Size            string // tiny, base, small, medium, large-v3
	CacheDir        string // model download root; "" uses the engine default
	Device          string // auto, cpu, cuda
	ComputeType     string // "" picks float16 on cuda, int8 on cpu
	PythonBin       string
	VadMinSilenceMs int
}

// UploadConfig bounds the accepted request body.
type UploadConfig struct {
	MaxBytes int64
}

// KafkaConfig holds transcript event publishing settings.
type KafkaConfig struct {
	Enabled   bool
	Brokers   []string
	Topic     string
	Principal string
}

// ObservabilityConfig holds logging and metrics settings.
type ObservabilityConfig struct {
	LogLevel    string
	MetricsPort string
	Environment string
}

// Load reads configuration from the environment, falling back to defaults
// for unset or unparseable values.
func Load() *Config {
	principal := envOrDefault("SERVICE_PRINCIPAL", "svc-transcribe-api")

	cfg := &Config{
		Service: ServiceConfig{
			Principal: principal,
			HTTPPort:  envOrDefault("HTTP_PORT", "8000"),
		},
		Model: ModelConfig{
			Provider:        envOrDefault("STT_PROVIDER", "whisper"),
			Size:            envOrDefault("WHISPER_MODEL_SIZE", "base"),
			CacheDir:        envOrDefault("WHISPER_CACHE_DIR", ""),
			Device:          envOrDefault("WHISPER_DEVICE", "auto"),
			ComputeType:     envOrDefault("WHISPER_COMPUTE_TYPE", ""),
			PythonBin:       envOrDefault("WHISPER_PYTHON", "python3"),
			VadMinSilenceMs: envOrDefaultInt("STT_VAD_MIN_SILENCE_MS", 500),
		},
		Upload: UploadConfig{
			MaxBytes: envOrDefaultInt64("MAX_UPLOAD_BYTES", 100*1024*1024),
		},
		Kafka: KafkaConfig{
			Enabled:   envOrDefaultBool("KAFKA_ENABLED", false),
			Brokers:   envBrokers("KAFKA_BROKERS"),
			Topic:     envOrDefault("KAFKA_TOPIC_TRANSCRIPTS", "interaction.transcription.completed"),
			Principal: envOrDefault("KAFKA_PRINCIPAL", principal),
		},
		Observability: ObservabilityConfig{
			LogLevel:    envOrDefault("LOG_LEVEL", "info"),
			MetricsPort: envOrDefault("METRICS_PORT", "9090"),
			Environment: envOrDefault("ENV", ""),
		},
	}

	return cfg
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

func envOrDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.ToLower(v)); err == nil {
			return b
		}
	}
	return def
}

func envBrokers(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
