package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/hazard-etl/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"gopkg.in/yaml.v3"
)

// Pipeline variants.
const (
	VariantForecast = "forecast"
	VariantTracker  = "tracker"
)

// Emitter kinds.
const (
	EmitterStdout = "stdout"
	EmitterFile   = "file"
	EmitterKafka  = "kafka"
	EmitterNATS   = "nats"
	EmitterRedis  = "redis"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Variant         string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	Debug           bool
	ShutdownTimeout time.Duration

	// RunInterval repeats the pipeline on a ticker when positive; zero runs once.
	RunInterval      time.Duration
	FetchTimeout     time.Duration
	FetchConcurrency int

	// Forecast variant.
	CAICBaseURL   string
	RemarksPolicy domain.RemarksPolicy

	// Tracker variant.
	InReachBaseURL string
	TrackerSources []domain.TrackedEntity

	// Output sink.
	Emitter        string
	OutputPath     string
	KafkaBrokers   []string
	KafkaSinkTopic string
	NATSURL        string
	NATSSubject    string
	RedisAddr      string
	RedisChannel   string
}

// Load reads configuration from environment variables, applying defaults where
// unset, and validates the result.
func Load() (*Config, error) {
	return LoadVariant("")
}

// LoadVariant is Load with the pipeline variant forced to variant. An empty
// variant falls back to VARIANT.
func LoadVariant(variant string) (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	runInterval, err := parseDuration("RUN_INTERVAL", "0s", true)
	if err != nil {
		return nil, err
	}

	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s", false)
	if err != nil {
		return nil, err
	}

	concurrency, err := parsePositiveInt("FETCH_CONCURRENCY", 4)
	if err != nil {
		return nil, err
	}

	sources, err := loadTrackerSources()
	if err != nil {
		return nil, err
	}

	if variant == "" {
		variant = sharedcfg.EnvOrDefault("VARIANT", VariantForecast)
	}

	cfg := &Config{
		Variant:          variant,
		HTTPAddr:         sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:         sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:        sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		Debug:            os.Getenv("DEBUG") == "true",
		ShutdownTimeout:  shutdownTimeout,
		RunInterval:      runInterval,
		FetchTimeout:     fetchTimeout,
		FetchConcurrency: concurrency,

		CAICBaseURL:   sharedcfg.EnvOrDefault("CAIC_BASE_URL", "https://avalanche.state.co.us/api-proxy/avid"),
		RemarksPolicy: domain.RemarksPolicy(sharedcfg.EnvOrDefault("REMARKS_POLICY", string(domain.RemarksDrop))),

		InReachBaseURL: sharedcfg.EnvOrDefault("INREACH_BASE_URL", "https://share.garmin.com/Feed/Share"),
		TrackerSources: sources,

		Emitter:        sharedcfg.EnvOrDefault("EMITTER", EmitterStdout),
		OutputPath:     os.Getenv("OUTPUT_PATH"),
		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "hazard-features"),
		NATSURL:        sharedcfg.EnvOrDefault("NATS_URL", "nats://localhost:4222"),
		NATSSubject:    sharedcfg.EnvOrDefault("NATS_SUBJECT", "hazard.features"),
		RedisAddr:      sharedcfg.EnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisChannel:   sharedcfg.EnvOrDefault("REDIS_CHANNEL", "hazard-features"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. It runs once, before any fetch.
func (c *Config) Validate() error {
	switch c.Variant {
	case VariantForecast:
		if c.CAICBaseURL == "" {
			return errors.New("CAIC_BASE_URL is required")
		}
		if !c.RemarksPolicy.Valid() {
			return fmt.Errorf("invalid REMARKS_POLICY %q", c.RemarksPolicy)
		}
	case VariantTracker:
		if c.InReachBaseURL == "" {
			return errors.New("INREACH_BASE_URL is required")
		}
		if len(c.TrackerSources) == 0 {
			return errors.New("tracker variant requires TRACKER_SOURCES or TRACKER_SOURCES_FILE")
		}
	default:
		return fmt.Errorf("invalid VARIANT %q", c.Variant)
	}

	switch c.Emitter {
	case EmitterStdout:
	case EmitterFile:
		if c.OutputPath == "" {
			return errors.New("EMITTER is file but OUTPUT_PATH is not set")
		}
	case EmitterKafka:
		if len(c.KafkaBrokers) == 0 {
			return errors.New("KAFKA_BROKERS is required")
		}
		if c.KafkaSinkTopic == "" {
			return errors.New("KAFKA_SINK_TOPIC is required")
		}
	case EmitterNATS:
		if c.NATSURL == "" || c.NATSSubject == "" {
			return errors.New("NATS_URL and NATS_SUBJECT are required")
		}
	case EmitterRedis:
		if c.RedisAddr == "" || c.RedisChannel == "" {
			return errors.New("REDIS_ADDR and REDIS_CHANNEL are required")
		}
	default:
		return fmt.Errorf("invalid EMITTER %q", c.Emitter)
	}
	return nil
}

type trackerSources struct {
	Sources []domain.TrackedEntity `yaml:"sources"`
}

// loadTrackerSources reads tracked entities from TRACKER_SOURCES_FILE and then
// from TRACKER_SOURCES, an inline YAML list such as
// `[{id: ABC123, name: Patrol 1}]`.
func loadTrackerSources() ([]domain.TrackedEntity, error) {
	var sources []domain.TrackedEntity

	if path := os.Getenv("TRACKER_SOURCES_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read TRACKER_SOURCES_FILE: %w", err)
		}
		var file trackerSources
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse TRACKER_SOURCES_FILE: %w", err)
		}
		sources = append(sources, file.Sources...)
	}

	if inline := os.Getenv("TRACKER_SOURCES"); inline != "" {
		var list []domain.TrackedEntity
		if err := yaml.Unmarshal([]byte(inline), &list); err != nil {
			return nil, fmt.Errorf("parse TRACKER_SOURCES: %w", err)
		}
		sources = append(sources, list...)
	}

	seen := make(map[string]bool, len(sources))
	for _, s := range sources {
		if s.ID == "" {
			return nil, errors.New("tracker source is missing an id")
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("duplicate tracker source %q", s.ID)
		}
		seen[s.ID] = true
	}
	return sources, nil
}

func parseDuration(key, def string, allowZero bool) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 || (d == 0 && !allowZero) {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parsePositiveInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}
