// Package config loads the process-wide agent configuration once at startup.
// The resulting Agent value is immutable and passed explicitly into every
// component that needs it; the core never reads ambient process state.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	DefaultPath      = "config.json"
	DefaultStatePath = "memory/state.toml"

	apiKeyEnv = "MOLTBOOK_API_KEY"
	dryRunEnv = "DRY_RUN"
)

// Agent is the full agent configuration. Read-only after Load.
type Agent struct {
	Name    string
	Submolt string

	APIBase     string
	AllowedHost string
	APIKey      string

	DryRun             bool
	FetchLimit         int
	MaxCommentsPerHour int
	MinLoopDelay       time.Duration
	MaxLoopDelay       time.Duration
	RequestTimeout     time.Duration
	MaxRetries         int

	AdviceCapacity    int
	VariationAttempts int
	MinRelevance      float64
	MinConfidence     float64

	StatePath string

	// AllowInsecureHTTP permits a plain-http api_base for local testing.
	AllowInsecureHTTP bool
}

// Load reads .env (if present), then the JSON config file, then environment
// overrides, and validates the result. The API key is only ever held in the
// returned value; it is never logged.
func Load(path string) (Agent, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	v.SetDefault("agent_name", "3mrAgent")
	v.SetDefault("api_base", "https://www.moltbook.com/api/v1")
	v.SetDefault("dry_run", true)
	v.SetDefault("fetch_limit", 10)
	v.SetDefault("max_comments_per_hour", 4)
	v.SetDefault("min_loop_seconds", 45)
	v.SetDefault("max_loop_seconds", 110)
	v.SetDefault("request_timeout_seconds", 20)
	v.SetDefault("max_retries", 3)
	v.SetDefault("advice_capacity", 50)
	v.SetDefault("variation_attempts", 2)
	v.SetDefault("min_relevance", 0.4)
	v.SetDefault("min_confidence", 0.5)
	v.SetDefault("state_path", DefaultStatePath)
	v.SetDefault("allow_insecure_http", false)

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return Agent{}, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	apiBase := strings.TrimRight(v.GetString("api_base"), "/")
	base, err := url.Parse(apiBase)
	if err != nil || base.Host == "" {
		return Agent{}, fmt.Errorf("invalid api_base %q", apiBase)
	}

	allowedHost := v.GetString("allowed_host")
	if allowedHost == "" {
		allowedHost = base.Host
	}

	cfg := Agent{
		Name:               v.GetString("agent_name"),
		Submolt:            v.GetString("submolt"),
		APIBase:            apiBase,
		AllowedHost:        allowedHost,
		APIKey:             os.Getenv(apiKeyEnv),
		DryRun:             envBool(dryRunEnv, v.GetBool("dry_run")),
		FetchLimit:         v.GetInt("fetch_limit"),
		MaxCommentsPerHour: v.GetInt("max_comments_per_hour"),
		MinLoopDelay:       time.Duration(v.GetInt("min_loop_seconds")) * time.Second,
		MaxLoopDelay:       time.Duration(v.GetInt("max_loop_seconds")) * time.Second,
		RequestTimeout:     time.Duration(v.GetInt("request_timeout_seconds")) * time.Second,
		MaxRetries:         v.GetInt("max_retries"),
		AdviceCapacity:     v.GetInt("advice_capacity"),
		VariationAttempts:  v.GetInt("variation_attempts"),
		MinRelevance:       v.GetFloat64("min_relevance"),
		MinConfidence:      v.GetFloat64("min_confidence"),
		StatePath:          v.GetString("state_path"),
		AllowInsecureHTTP:  v.GetBool("allow_insecure_http"),
	}

	if err := cfg.validate(); err != nil {
		return Agent{}, err
	}

	return cfg, nil
}

func (c Agent) validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("missing %s in environment (add it to .env, never commit real keys)", apiKeyEnv)
	}
	if c.Submolt == "" {
		return errors.New("submolt is required")
	}
	if c.FetchLimit <= 0 {
		return errors.New("fetch_limit must be positive")
	}
	if c.MaxLoopDelay < c.MinLoopDelay {
		return errors.New("max_loop_seconds must be >= min_loop_seconds")
	}
	if c.MaxRetries < 1 {
		return errors.New("max_retries must be at least 1")
	}
	return nil
}

func envBool(name string, fallback bool) bool {
	val, ok := os.LookupEnv(name)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(val)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
