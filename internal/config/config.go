package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus metrics server
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// admin session cookie; secure must be true in production deployments
	SessionCookieSecure bool `toml:"session_cookie_secure"`

	// login throttle
	LoginMaxAttempts           int `toml:"login_max_attempts"`
	LoginAttemptsWindowMinutes int `toml:"login_attempts_window_minutes"`
	AuthRequestsAllowedPerMin  int `toml:"auth_requests_allowed_per_min"`

	// image store: "github" or "supabase"
	ImageStoreBackend        string `toml:"image_store_backend"`
	ImageStoreTimeoutSeconds int    `toml:"image_store_timeout_seconds"`
	GithubOwner              string `toml:"github_owner"`
	GithubRepo               string `toml:"github_repo"`
	GithubBranch             string `toml:"github_branch"`
	SupabaseProjectURL       string `toml:"supabase_project_url"`
	SupabaseBucket           string `toml:"supabase_bucket"`

	// json-file-backed stores
	IntroduceFilePath string `toml:"introduce_file_path"`
	ActivityFilePath  string `toml:"activity_file_path"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

func Load(env, path string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(path, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s not present in %s", env, path)
	}

	cfg.Environment = env

	if cfg.LoginMaxAttempts <= 0 {
		cfg.LoginMaxAttempts = 5
	}
	if cfg.LoginAttemptsWindowMinutes <= 0 {
		cfg.LoginAttemptsWindowMinutes = 15
	}
	if cfg.AuthRequestsAllowedPerMin <= 0 {
		cfg.AuthRequestsAllowedPerMin = 30
	}
	if cfg.ImageStoreTimeoutSeconds <= 0 {
		cfg.ImageStoreTimeoutSeconds = 30
	}

	return cfg, nil
}
