package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig marks configuration problems that abort a run before crawling
var ErrInvalidConfig = errors.New("invalid configuration")

// DateLayout is the layout used for since/until and normalized claim dates
const DateLayout = "2006-01-02"

// Config is the complete run configuration
type Config struct {
	HTTP      HTTPConfig      `yaml:"http" mapstructure:"http"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Crawl     CrawlConfig     `yaml:"crawl" mapstructure:"crawl"`
	Annotator AnnotatorConfig `yaml:"annotator" mapstructure:"annotator"`
	Verdict   VerdictConfig   `yaml:"verdict" mapstructure:"verdict"`
	LLM       LLMConfig       `yaml:"llm" mapstructure:"llm"`
	Sink      SinkConfig      `yaml:"sink" mapstructure:"sink"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls page fetching
type HTTPConfig struct {
	TimeoutSeconds          int               `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	UserAgent               string            `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes            int64             `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Headers                 map[string]string `yaml:"headers,omitempty" mapstructure:"headers"`
	ForbiddenBackoffSeconds int               `yaml:"forbidden_backoff_seconds" mapstructure:"forbidden_backoff_seconds"`
	HTTPProxy               string            `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy              string            `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy                 string            `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// Timeout returns the per-request timeout
func (c HTTPConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// ForbiddenBackoff returns the pause before retrying a 403
func (c HTTPConfig) ForbiddenBackoff() time.Duration {
	return time.Duration(c.ForbiddenBackoffSeconds) * time.Second
}

// StoreConfig selects the key-value backend shared by both caches
type StoreConfig struct {
	Backend       string `yaml:"backend" mapstructure:"backend"` // redis, memory, disk, layered
	RedisAddr     string `yaml:"redis_addr" mapstructure:"redis_addr"`
	RedisPassword string `yaml:"redis_password,omitempty" mapstructure:"redis_password"`
	RedisDB       int    `yaml:"redis_db" mapstructure:"redis_db"`
	DiskDir       string `yaml:"disk_dir" mapstructure:"disk_dir"`
}

// CrawlConfig holds the per-run crawl parameters
type CrawlConfig struct {
	Website           string   `yaml:"website" mapstructure:"website"`       // empty = every registered site
	MaxClaims         int      `yaml:"max_claims" mapstructure:"max_claims"` // 0 = unlimited
	Since             string   `yaml:"since,omitempty" mapstructure:"since"` // advisory
	Until             string   `yaml:"until,omitempty" mapstructure:"until"` // advisory
	AvoidURLs         []string `yaml:"avoid_urls,omitempty" mapstructure:"avoid_urls"`
	AvoidFile         string   `yaml:"avoid_file,omitempty" mapstructure:"avoid_file"`
	Workers           int      `yaml:"workers" mapstructure:"workers"`
	RequestsPerSecond float64  `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int      `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool     `yaml:"respect_robots" mapstructure:"respect_robots"`
	ResolveLinks      bool     `yaml:"resolve_links" mapstructure:"resolve_links"`
	ResolveWorkers    int      `yaml:"resolve_workers" mapstructure:"resolve_workers"`
}

// AvoidSet returns AvoidURLs as a lookup set
func (c CrawlConfig) AvoidSet() map[string]struct{} {
	set := make(map[string]struct{}, len(c.AvoidURLs))
	for _, u := range c.AvoidURLs {
		set[u] = struct{}{}
	}
	return set
}

// Window parses the advisory since/until dates. Zero times mean unbounded.
func (c CrawlConfig) Window() (since, until time.Time, err error) {
	if c.Since != "" {
		if since, err = time.Parse(DateLayout, c.Since); err != nil {
			return since, until, fmt.Errorf("parse since: %w", err)
		}
	}
	if c.Until != "" {
		if until, err = time.Parse(DateLayout, c.Until); err != nil {
			return since, until, fmt.Errorf("parse until: %w", err)
		}
	}
	return since, until, nil
}

// AnnotatorConfig configures entity annotation
type AnnotatorConfig struct {
	Provider       string `yaml:"provider" mapstructure:"provider"` // none, service, openai
	URI            string `yaml:"uri" mapstructure:"uri"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
}

// VerdictConfig configures conclusion-to-verdict classification
type VerdictConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // heuristic, openai
}

// LLMConfig is shared by the LLM-backed annotator and verdict classifier
type LLMConfig struct {
	Model          string `yaml:"model" mapstructure:"model"`
	APIKey         string `yaml:"-" mapstructure:"api_key"` // from OPENAI_API_KEY
	BaseURL        string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	MaxTokens      int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SinkConfig lists output targets
type SinkConfig struct {
	// CSVPath is the file output; a .jsonl or .ndjson suffix writes JSON lines
	CSVPath         string `yaml:"csv_path" mapstructure:"csv_path"`
	MongoURI        string `yaml:"mongo_uri,omitempty" mapstructure:"mongo_uri"`
	MongoDatabase   string `yaml:"mongo_database" mapstructure:"mongo_database"`
	MongoCollection string `yaml:"mongo_collection" mapstructure:"mongo_collection"`
}

// LogConfig configures the zap logger
type LogConfig struct {
	Level      string `yaml:"level" mapstructure:"level"`
	File       string `yaml:"file,omitempty" mapstructure:"file"` // rotated JSON log, stderr only when empty
	MaxSizeMB  int    `yaml:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" mapstructure:"max_age_days"`
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			TimeoutSeconds:          20,
			UserAgent:               "Mozilla/5.0 (compatible; claimharvest/0.3; +https://github.com/ppiankov/claimharvest)",
			MaxBodyBytes:            10 << 20,
			ForbiddenBackoffSeconds: 10,
		},
		Store: StoreConfig{
			Backend:   "redis",
			RedisAddr: "localhost:6379",
			DiskDir:   ".claimharvest-cache",
		},
		Crawl: CrawlConfig{
			Workers:           1,
			RequestsPerSecond: 2,
			Burst:             2,
			ResolveWorkers:    8,
		},
		Annotator: AnnotatorConfig{
			Provider:       "none",
			URI:            "http://localhost:8090/service/",
			TimeoutSeconds: 30,
		},
		Verdict: VerdictConfig{
			Provider: "heuristic",
		},
		LLM: LLMConfig{
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
			MaxTokens:      800,
		},
		Sink: SinkConfig{
			CSVPath:         "output.csv",
			MongoDatabase:   "claimharvest",
			MongoCollection: "claims",
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Validate checks the configuration before any crawling starts
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "redis", "layered":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("%w: store.redis_addr is required for backend %q", ErrInvalidConfig, c.Store.Backend)
		}
	case "disk":
		if c.Store.DiskDir == "" {
			return fmt.Errorf("%w: store.disk_dir is required for backend disk", ErrInvalidConfig)
		}
	case "memory":
	default:
		return fmt.Errorf("%w: unknown store backend %q (supported: redis, memory, disk, layered)", ErrInvalidConfig, c.Store.Backend)
	}

	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("%w: http.timeout_seconds must be positive", ErrInvalidConfig)
	}
	if c.Crawl.MaxClaims < 0 {
		return fmt.Errorf("%w: crawl.max_claims must be >= 0", ErrInvalidConfig)
	}
	if c.Crawl.Workers < 1 {
		return fmt.Errorf("%w: crawl.workers must be >= 1", ErrInvalidConfig)
	}
	if c.Crawl.RequestsPerSecond <= 0 {
		return fmt.Errorf("%w: crawl.requests_per_second must be positive", ErrInvalidConfig)
	}

	since, until, err := c.Crawl.Window()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if !since.IsZero() && !until.IsZero() && since.After(until) {
		return fmt.Errorf("%w: crawl.since %s is after crawl.until %s", ErrInvalidConfig, c.Crawl.Since, c.Crawl.Until)
	}

	switch c.Annotator.Provider {
	case "", "none":
	case "service":
		if c.Annotator.URI == "" {
			return fmt.Errorf("%w: annotator.uri is required for provider service", ErrInvalidConfig)
		}
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for annotator provider openai", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown annotator provider %q (supported: none, service, openai)", ErrInvalidConfig, c.Annotator.Provider)
	}

	switch c.Verdict.Provider {
	case "", "heuristic":
	case "openai":
		if c.LLM.APIKey == "" {
			return fmt.Errorf("%w: OPENAI_API_KEY is required for verdict provider openai", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown verdict provider %q (supported: heuristic, openai)", ErrInvalidConfig, c.Verdict.Provider)
	}

	if c.Sink.MongoURI != "" && (c.Sink.MongoDatabase == "" || c.Sink.MongoCollection == "") {
		return fmt.Errorf("%w: sink.mongo_database and sink.mongo_collection are required with mongo_uri", ErrInvalidConfig)
	}

	return nil
}
