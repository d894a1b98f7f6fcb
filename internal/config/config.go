package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

const (
	DefaultPort          = 8081
	DefaultTimeout       = 300 * time.Second
	DefaultMaxConcurrent = 4
)

type Config struct {
	Server struct {
		Port      int    `yaml:"port"`
		Debug     bool   `yaml:"debug"`
		StaticDir string `yaml:"staticDir"`
	} `yaml:"server"`

	GitHub struct {
		Token string `yaml:"token"`
	} `yaml:"github"`

	Leaderboard struct {
		Command       []string      `yaml:"command"`
		Timeout       time.Duration `yaml:"timeout"`
		TempDir       string        `yaml:"tempDir"`
		MaxConcurrent int           `yaml:"maxConcurrent"`
	} `yaml:"leaderboard"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowedOrigins"`
	} `yaml:"cors"`

	RateLimit struct {
		Capacity        int `yaml:"capacity"`
		RefillPerSecond int `yaml:"refillPerSecond"`
	} `yaml:"rateLimit"`

	Auth struct {
		// APIKeys maps a client name to its key. Empty disables auth.
		APIKeys map[string]string `yaml:"apiKeys"`
	} `yaml:"auth"`

	Database struct {
		Driver   string `yaml:"driver"` // "" | mysql | postgres
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
		SSLMode  string `yaml:"sslMode"`
	} `yaml:"database"`

	Minio struct {
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	OpenAI struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
}

// Default returns a config that runs with nothing but GITHUB_TOKEN set.
func Default() *Config {
	var cfg Config
	cfg.Server.Port = DefaultPort
	cfg.Leaderboard.Command = []string{"slim-leaderboard"}
	cfg.Leaderboard.Timeout = DefaultTimeout
	cfg.Leaderboard.MaxConcurrent = DefaultMaxConcurrent
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.RateLimit.Capacity = 10
	cfg.RateLimit.RefillPerSecond = 1
	cfg.Minio.BucketName = "slim-leaderboard"
	return &cfg
}

// Load baca file config (kalau ada), lalu override dari environment.
// An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ApplyEnv overrides file values with the environment.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var merr *multierror.Error

	if v, ok := lookup("GITHUB_TOKEN"); ok {
		c.GitHub.Token = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("PORT: %w", err))
		} else {
			c.Server.Port = port
		}
	}
	// FLASK_DEBUG masih diterima supaya deployment lama tetap jalan
	for _, key := range []string{"FLASK_DEBUG", "DEBUG"} {
		if v, ok := lookup(key); ok && v != "" {
			c.Server.Debug = parseBool(v)
		}
	}
	if v, ok := lookup("STATIC_DIR"); ok && v != "" {
		c.Server.StaticDir = v
	}
	if v, ok := lookup("LEADERBOARD_COMMAND"); ok && strings.TrimSpace(v) != "" {
		c.Leaderboard.Command = strings.Fields(v)
	}
	if v, ok := lookup("LEADERBOARD_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("LEADERBOARD_TIMEOUT: %w", err))
		} else {
			c.Leaderboard.Timeout = d
		}
	}
	if v, ok := lookup("OPENAI_API_KEY"); ok && v != "" {
		c.OpenAI.APIKey = v
	}

	return merr.ErrorOrNil()
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var merr *multierror.Error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		merr = multierror.Append(merr, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if len(c.Leaderboard.Command) == 0 || strings.TrimSpace(c.Leaderboard.Command[0]) == "" {
		merr = multierror.Append(merr, fmt.Errorf("leaderboard.command must not be empty"))
	}
	if c.Leaderboard.Timeout <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("leaderboard.timeout must be positive"))
	}
	if c.Leaderboard.MaxConcurrent <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("leaderboard.maxConcurrent must be positive"))
	}
	if c.RateLimit.Capacity < 0 || c.RateLimit.RefillPerSecond < 0 {
		merr = multierror.Append(merr, fmt.Errorf("rateLimit values must not be negative"))
	}
	switch c.Database.Driver {
	case "", "mysql", "postgres":
	default:
		merr = multierror.Append(merr, fmt.Errorf("database.driver must be mysql or postgres, got %q", c.Database.Driver))
	}
	if c.Minio.Endpoint != "" && c.Minio.BucketName == "" {
		merr = multierror.Append(merr, fmt.Errorf("minio.bucketName is required when minio.endpoint is set"))
	}

	return merr.ErrorOrNil()
}

// TokenConfigured reports whether a GitHub token is available for slim-leaderboard.
func (c *Config) TokenConfigured() bool {
	return strings.TrimSpace(c.GitHub.Token) != ""
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres
func (c *Config) PostgresDSN() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.Name,
		sslMode,
	)
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
