package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the Gophora ingestion engine.
type Config struct {
	HTTP      HTTPConfig
	Store     StoreConfig
	Ingest    IngestConfig
	Sources   SourcesConfig
	RateLimit RateLimitConfig
	AI        AIConfig
}

// HTTPConfig controls the serving surface.
type HTTPConfig struct {
	Addr string `yaml:"addr"` // listen address, e.g. ":8080"
}

// StoreConfig selects and parametrizes the document store backend.
type StoreConfig struct {
	Backend       string `yaml:"backend"` // "mongodb", "sqlite" or "memory"
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
	SQLitePath    string `yaml:"sqlite_path"`
}

// IngestConfig controls the scheduler and orchestrator.
type IngestConfig struct {
	PersonalizedInterval time.Duration // personalized run cadence
	GeneralInterval      time.Duration // general run cadence
	CleanupAt            string        // daily cleanup time, "HH:MM" 24h
	MisfireGrace         time.Duration // late triggers beyond this are skipped
	JobMaxAge            time.Duration // postings older than this are deactivated
	AdapterTimeout       time.Duration // per-adapter fetch deadline
	PerUserDelay         time.Duration // pause between users in the batch run
	FetchLimit           int           // target result count requested per adapter
}

// SourcesConfig toggles individual source adapters.
type SourcesConfig struct {
	RemoteOK       bool `yaml:"remoteok"`
	Arbeitnow      bool `yaml:"arbeitnow"`
	Remotive       bool `yaml:"remotive"`
	WeWorkRemotely bool `yaml:"weworkremotely"`
	Catalog        bool `yaml:"catalog"`
}

// RateLimitConfig controls host-level request pacing and the random
// pre-fetch delay adapters apply before network calls.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	JitterMin         time.Duration
	JitterMax         time.Duration
}

// AIConfig controls the relevance scorer.
type AIConfig struct {
	Enabled          bool // false: fast-mode scoring everywhere
	AcceptThreshold  float64
	FastScore        float64 // fixed score assigned in fast mode
	FastSkillMatches int     // skills copied into matches in fast mode
	OpenAI           ProviderConfig
	Gemini           ProviderConfig
}

// ProviderConfig holds the connection settings for one reasoning backend.
type ProviderConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
	APIKey  string `yaml:"api_key"`
}

const (
	defaultOpenAIBaseURL = "https://api.openai.com/v1"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
)

// rawConfig mirrors the YAML file (snake_case fields, durations as strings).
type rawConfig struct {
	HTTP      HTTPConfig         `yaml:"http"`
	Store     StoreConfig        `yaml:"store"`
	Ingest    rawIngestConfig    `yaml:"ingest"`
	Sources   SourcesConfig      `yaml:"sources"`
	RateLimit rawRateLimitConfig `yaml:"rate_limit"`
	AI        rawAIConfig        `yaml:"ai"`
}

type rawIngestConfig struct {
	PersonalizedInterval string `yaml:"personalized_interval"`
	GeneralInterval      string `yaml:"general_interval"`
	CleanupAt            string `yaml:"cleanup_at"`
	MisfireGrace         string `yaml:"misfire_grace"`
	JobMaxAge            string `yaml:"job_max_age"`
	AdapterTimeout       string `yaml:"adapter_timeout"`
	PerUserDelay         string `yaml:"per_user_delay"`
	FetchLimit           int    `yaml:"fetch_limit"`
}

type rawRateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
	JitterMin         string  `yaml:"jitter_min"`
	JitterMax         string  `yaml:"jitter_max"`
}

type rawAIConfig struct {
	Enabled          bool           `yaml:"enabled"`
	AcceptThreshold  float64        `yaml:"accept_threshold"`
	FastScore        float64        `yaml:"fast_score"`
	FastSkillMatches int            `yaml:"fast_skill_matches"`
	OpenAI           ProviderConfig `yaml:"openai"`
	Gemini           ProviderConfig `yaml:"gemini"`
}

// Load reads and parses the YAML config file at path, validates it, and
// returns Config. Environment variables in the file are expanded first.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := &Config{
		HTTP:    raw.HTTP,
		Store:   raw.Store,
		Sources: raw.Sources,
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Store.Backend == "" {
		cfg.Store.Backend = "sqlite"
	}
	if cfg.Store.SQLitePath == "" {
		cfg.Store.SQLitePath = "gophora.db"
	}
	if cfg.Store.MongoDatabase == "" {
		cfg.Store.MongoDatabase = "gophora"
	}

	if cfg.Ingest, err = parseIngest(raw.Ingest); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = parseRateLimit(raw.RateLimit); err != nil {
		return nil, err
	}

	cfg.AI = AIConfig{
		Enabled:          raw.AI.Enabled,
		AcceptThreshold:  raw.AI.AcceptThreshold,
		FastScore:        raw.AI.FastScore,
		FastSkillMatches: raw.AI.FastSkillMatches,
		OpenAI:           raw.AI.OpenAI,
		Gemini:           raw.AI.Gemini,
	}
	if cfg.AI.AcceptThreshold == 0 {
		cfg.AI.AcceptThreshold = 40
	}
	if cfg.AI.FastScore == 0 {
		cfg.AI.FastScore = 75
	}
	if cfg.AI.FastSkillMatches == 0 {
		cfg.AI.FastSkillMatches = 3
	}
	if cfg.AI.OpenAI.BaseURL == "" {
		cfg.AI.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	if cfg.AI.Gemini.BaseURL == "" {
		cfg.AI.Gemini.BaseURL = defaultGeminiBaseURL
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseIngest(raw rawIngestConfig) (IngestConfig, error) {
	out := IngestConfig{
		PersonalizedInterval: 10 * time.Minute,
		GeneralInterval:      10 * time.Minute,
		CleanupAt:            "03:00",
		MisfireGrace:         2 * time.Minute,
		JobMaxAge:            7 * 24 * time.Hour,
		AdapterTimeout:       2 * time.Minute,
		PerUserDelay:         5 * time.Second,
		FetchLimit:           100,
	}

	var err error
	if out.PersonalizedInterval, err = override(raw.PersonalizedInterval, out.PersonalizedInterval, "ingest.personalized_interval"); err != nil {
		return out, err
	}
	if out.GeneralInterval, err = override(raw.GeneralInterval, out.GeneralInterval, "ingest.general_interval"); err != nil {
		return out, err
	}
	if out.MisfireGrace, err = override(raw.MisfireGrace, out.MisfireGrace, "ingest.misfire_grace"); err != nil {
		return out, err
	}
	if out.JobMaxAge, err = override(raw.JobMaxAge, out.JobMaxAge, "ingest.job_max_age"); err != nil {
		return out, err
	}
	if out.AdapterTimeout, err = override(raw.AdapterTimeout, out.AdapterTimeout, "ingest.adapter_timeout"); err != nil {
		return out, err
	}
	if out.PerUserDelay, err = override(raw.PerUserDelay, out.PerUserDelay, "ingest.per_user_delay"); err != nil {
		return out, err
	}
	if raw.CleanupAt != "" {
		out.CleanupAt = raw.CleanupAt
	}
	if raw.FetchLimit > 0 {
		out.FetchLimit = raw.FetchLimit
	}
	return out, nil
}

func parseRateLimit(raw rawRateLimitConfig) (RateLimitConfig, error) {
	out := RateLimitConfig{
		RequestsPerSecond: 0.5,
		Burst:             1,
		JitterMin:         1 * time.Second,
		JitterMax:         3 * time.Second,
	}

	if raw.RequestsPerSecond > 0 {
		out.RequestsPerSecond = raw.RequestsPerSecond
	}
	if raw.Burst > 0 {
		out.Burst = raw.Burst
	}

	var err error
	if out.JitterMin, err = override(raw.JitterMin, out.JitterMin, "rate_limit.jitter_min"); err != nil {
		return out, err
	}
	if out.JitterMax, err = override(raw.JitterMax, out.JitterMax, "rate_limit.jitter_max"); err != nil {
		return out, err
	}
	return out, nil
}

// override parses raw as a duration when set, otherwise keeps def.
func override(raw string, def time.Duration, field string) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", field, raw, err)
	}
	return d, nil
}

func validate(cfg *Config) error {
	switch cfg.Store.Backend {
	case "mongodb":
		if cfg.Store.MongoURI == "" {
			return fmt.Errorf("store.mongo_uri is required when store.backend is \"mongodb\"")
		}
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unsupported store.backend %q", cfg.Store.Backend)
	}

	if cfg.Ingest.PersonalizedInterval <= 0 || cfg.Ingest.GeneralInterval <= 0 {
		return fmt.Errorf("ingest intervals must be positive")
	}
	if cfg.Ingest.JobMaxAge < 24*time.Hour {
		return fmt.Errorf("ingest.job_max_age must be at least 24h, got %v", cfg.Ingest.JobMaxAge)
	}
	if _, _, err := ParseClock(cfg.Ingest.CleanupAt); err != nil {
		return fmt.Errorf("ingest.cleanup_at: %w", err)
	}
	if cfg.RateLimit.JitterMax < cfg.RateLimit.JitterMin {
		return fmt.Errorf("rate_limit.jitter_max must be >= jitter_min")
	}

	if cfg.AI.Enabled {
		if cfg.AI.OpenAI.APIKey == "" && cfg.AI.Gemini.APIKey == "" {
			return fmt.Errorf("ai.enabled requires at least one provider api_key")
		}
		if cfg.AI.OpenAI.APIKey != "" && cfg.AI.OpenAI.Model == "" {
			return fmt.Errorf("ai.openai.model is required when ai.openai.api_key is set")
		}
		if cfg.AI.Gemini.APIKey != "" && cfg.AI.Gemini.Model == "" {
			return fmt.Errorf("ai.gemini.model is required when ai.gemini.api_key is set")
		}
	}

	hasSource := cfg.Sources.RemoteOK || cfg.Sources.Arbeitnow || cfg.Sources.Remotive ||
		cfg.Sources.WeWorkRemotely || cfg.Sources.Catalog
	if !hasSource {
		return fmt.Errorf("at least one source must be enabled")
	}

	return nil
}

// ParseClock parses a "HH:MM" 24-hour time of day.
func ParseClock(s string) (hour, minute int, err error) {
	if _, err := fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("parse clock %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock %q out of range", s)
	}
	return hour, minute, nil
}
