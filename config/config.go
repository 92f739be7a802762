package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/memberdesk/backend/internal/domain"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Store      StoreConfig
	Sheets     SheetsConfig
	Cache      CacheConfig
	RateLimit  RateLimitConfig
	Membership MembershipConfig
	Vision     VisionConfig
	Log        LogConfig
	Parser     ParserConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// StoreConfig selects the record store backend
type StoreConfig struct {
	Type     string `mapstructure:"type"` // "memory" or "sheets"
	SeedFile string `mapstructure:"seed_file"`
}

// SheetsConfig holds Google Sheets configuration
type SheetsConfig struct {
	SpreadsheetID     string        `mapstructure:"spreadsheet_id"`
	CredentialsFile   string        `mapstructure:"credentials_file"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	MaxRetries        int           `mapstructure:"max_retries"`
	Timeout           time.Duration `mapstructure:"timeout"`
	Tabs              TabsConfig    `mapstructure:"tabs"`
}

// TabsConfig maps record categories to sheet tab names
type TabsConfig struct {
	Member     string `mapstructure:"member"`
	Order      string `mapstructure:"order"`
	Commission string `mapstructure:"commission"`
	Counseling string `mapstructure:"counseling"`
	Personal   string `mapstructure:"personal"`
	Activity   string `mapstructure:"activity"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP int `mapstructure:"per_ip"` // requests per minute
}

// MembershipConfig holds the outbound membership API configuration
type MembershipConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// VisionConfig holds the image extraction service configuration
type VisionConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// ParserConfig holds text parsing configuration
type ParserConfig struct {
	ParticleMinLength int `mapstructure:"particle_min_length"`
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/memberdesk/")

	// Environment variable settings
	v.SetEnvPrefix("MEMBERDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:*"})

	// Store defaults
	v.SetDefault("store.type", "memory")
	v.SetDefault("store.seed_file", "")

	// Sheets defaults
	v.SetDefault("sheets.spreadsheet_id", "")
	v.SetDefault("sheets.credentials_file", "credentials.json")
	v.SetDefault("sheets.requests_per_second", 1.0) // 60 requests per minute per user
	v.SetDefault("sheets.max_retries", 3)
	v.SetDefault("sheets.timeout", "30s")
	v.SetDefault("sheets.tabs.member", "DB")
	v.SetDefault("sheets.tabs.order", "제품주문")
	v.SetDefault("sheets.tabs.commission", "후원수당")
	v.SetDefault("sheets.tabs.counseling", "상담일지")
	v.SetDefault("sheets.tabs.personal", "개인일지")
	v.SetDefault("sheets.tabs.activity", "활동일지")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.ttl", "30s")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 120)

	// Outbound services
	v.SetDefault("membership.base_url", "")
	v.SetDefault("membership.timeout", "15s")
	v.SetDefault("vision.base_url", "")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.timeout", "60s")

	// Logging defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Parser defaults
	v.SetDefault("parser.particle_min_length", 3)
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Store.Type != "memory" && config.Store.Type != "sheets" {
		return fmt.Errorf("store type must be 'memory' or 'sheets', got: %s", config.Store.Type)
	}

	if config.Store.Type == "sheets" {
		if config.Sheets.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet ID is required when store type is 'sheets' (set MEMBERDESK_SHEETS_SPREADSHEET_ID)")
		}
		if config.Sheets.CredentialsFile == "" {
			return fmt.Errorf("credentials file is required when store type is 'sheets'")
		}
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	if config.Parser.ParticleMinLength < 1 {
		return fmt.Errorf("parser particle_min_length must be positive, got: %d", config.Parser.ParticleMinLength)
	}

	return nil
}

// MemoTabs returns the memo sheet tab names keyed by log type.
func (c *Config) MemoTabs() map[string]string {
	return map[string]string{
		domain.LogCounseling: c.Sheets.Tabs.Counseling,
		domain.LogPersonal:   c.Sheets.Tabs.Personal,
		domain.LogActivity:   c.Sheets.Tabs.Activity,
	}
}
