package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	NVEBaseURL          string
	RegobsEnabled       bool
	RegobsBaseURL       string
	FetchTimeout        time.Duration
	Language            string
	LangStyle           string
	FloodAPIVersion     string
	LandslideAPIVersion string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Activity cache backend.
	CacheBackend  string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Poller configuration.
	PollEnabled     bool
	PollSchedule    string
	PollConcurrency int
	WatchRegions    []int
	LatestMonths    int

	// Kafka snapshot publishing.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	redisDB, err := parseInt("REDIS_DB", 0, 0)
	if err != nil {
		return nil, err
	}
	pollConcurrency, err := parseInt("POLL_CONCURRENCY", 4, 1)
	if err != nil {
		return nil, err
	}
	latestMonths, err := parseInt("LATEST_MONTHS", 24, 1)
	if err != nil {
		return nil, err
	}
	watchRegions, err := parseRegionIDs(envOrDefault("WATCH_REGIONS", "3004,3027,3016,3031,3030"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		NVEBaseURL:          strings.TrimRight(envOrDefault("NVE_BASE_URL", "https://api01.nve.no"), "/"),
		RegobsEnabled:       envOrDefault("REGOBS_ENABLED", "true") == "true",
		RegobsBaseURL:       strings.TrimRight(envOrDefault("REGOBS_BASE_URL", "https://api.regobs.no/v5"), "/"),
		FetchTimeout:        fetchTimeout,
		Language:            envOrDefault("LANGUAGE", "1"),
		LangStyle:           envOrDefault("NVE_LANG_STYLE", "numeric"),
		FloodAPIVersion:     envOrDefault("FLOOD_API_VERSION", "v1.0.6"),
		LandslideAPIVersion: envOrDefault("LANDSLIDE_API_VERSION", "v1.0.10"),

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		CacheBackend:  envOrDefault("CACHE_BACKEND", "memory"),
		RedisAddr:     envOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,

		PollEnabled:     envOrDefault("POLL_ENABLED", "true") == "true",
		PollSchedule:    envOrDefault("POLL_SCHEDULE", "@every 30m"),
		PollConcurrency: pollConcurrency,
		WatchRegions:    watchRegions,
		LatestMonths:    latestMonths,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "hazard-activity"),
	}

	switch cfg.Language {
	case "1", "2", "no", "nb", "en":
	default:
		return nil, errors.New("invalid LANGUAGE: want 1, 2, no or en")
	}
	if cfg.LangStyle != "numeric" && cfg.LangStyle != "code" {
		return nil, errors.New("invalid NVE_LANG_STYLE: want numeric or code")
	}
	if cfg.CacheBackend != "memory" && cfg.CacheBackend != "redis" {
		return nil, errors.New("invalid CACHE_BACKEND: want memory or redis")
	}
	if cfg.PollEnabled {
		if len(cfg.WatchRegions) == 0 {
			return nil, errors.New("WATCH_REGIONS is required when POLL_ENABLED is true")
		}
		if _, err := cron.ParseStandard(cfg.PollSchedule); err != nil {
			return nil, fmt.Errorf("invalid POLL_SCHEDULE: %w", err)
		}
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required when KAFKA_ENABLED is true")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback, minimum int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < minimum {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseRegionIDs(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("invalid WATCH_REGIONS entry %q", part)
		}
		out = append(out, id)
	}
	return out, nil
}
