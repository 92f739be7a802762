package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Clean up environment before tests
	cleanupEnv := func() {
		os.Unsetenv("MEMBERDESK_SERVER_PORT")
		os.Unsetenv("MEMBERDESK_SERVER_ENVIRONMENT")
		os.Unsetenv("MEMBERDESK_STORE_TYPE")
		os.Unsetenv("MEMBERDESK_SHEETS_SPREADSHEET_ID")
		os.Unsetenv("MEMBERDESK_SHEETS_CREDENTIALS_FILE")
		os.Unsetenv("MEMBERDESK_SHEETS_TABS_MEMBER")
		os.Unsetenv("MEMBERDESK_CACHE_TYPE")
		os.Unsetenv("MEMBERDESK_CACHE_REDIS_URL")
		os.Unsetenv("MEMBERDESK_CACHE_TTL")
		os.Unsetenv("MEMBERDESK_RATELIMIT_PER_IP")
		os.Unsetenv("MEMBERDESK_LOG_FORMAT")
		os.Unsetenv("MEMBERDESK_PARSER_PARTICLE_MIN_LENGTH")
	}

	t.Run("loads with defaults when no env vars set", func(t *testing.T) {
		cleanupEnv()
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		// Check defaults
		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Store.Type != "memory" {
			t.Errorf("Store.Type = %s, want memory", cfg.Store.Type)
		}
		if cfg.Sheets.Tabs.Member != "DB" {
			t.Errorf("Sheets.Tabs.Member = %s, want DB", cfg.Sheets.Tabs.Member)
		}
		if cfg.Sheets.Tabs.Order != "제품주문" {
			t.Errorf("Sheets.Tabs.Order = %s, want 제품주문", cfg.Sheets.Tabs.Order)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 30*time.Second {
			t.Errorf("Cache.TTL = %v, want 30s", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 120 {
			t.Errorf("RateLimit.PerIP = %d, want 120", cfg.RateLimit.PerIP)
		}
		if cfg.Parser.ParticleMinLength != 3 {
			t.Errorf("Parser.ParticleMinLength = %d, want 3", cfg.Parser.ParticleMinLength)
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MEMBERDESK_SERVER_PORT", "9090")
		os.Setenv("MEMBERDESK_SERVER_ENVIRONMENT", "production")
		os.Setenv("MEMBERDESK_STORE_TYPE", "sheets")
		os.Setenv("MEMBERDESK_SHEETS_SPREADSHEET_ID", "sheet-123")
		os.Setenv("MEMBERDESK_SHEETS_TABS_MEMBER", "회원")
		os.Setenv("MEMBERDESK_CACHE_TYPE", "redis")
		os.Setenv("MEMBERDESK_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("MEMBERDESK_CACHE_TTL", "2m")
		os.Setenv("MEMBERDESK_RATELIMIT_PER_IP", "200")
		os.Setenv("MEMBERDESK_LOG_FORMAT", "json")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if cfg.Server.Environment != "production" {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if cfg.Store.Type != "sheets" {
			t.Errorf("Store.Type = %s, want sheets", cfg.Store.Type)
		}
		if cfg.Sheets.SpreadsheetID != "sheet-123" {
			t.Errorf("Sheets.SpreadsheetID = %s, want sheet-123", cfg.Sheets.SpreadsheetID)
		}
		if cfg.Sheets.Tabs.Member != "회원" {
			t.Errorf("Sheets.Tabs.Member = %s, want 회원", cfg.Sheets.Tabs.Member)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != 2*time.Minute {
			t.Errorf("Cache.TTL = %v, want 2m", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
	})

	t.Run("fails when sheets store has no spreadsheet", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MEMBERDESK_STORE_TYPE", "sheets")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing spreadsheet ID")
		}
	})

	t.Run("fails when redis cache has no URL", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("MEMBERDESK_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Store:  StoreConfig{Type: "memory"},
			Cache:  CacheConfig{Type: "memory"},
			Log:    LogConfig{Format: "console"},
			Parser: ParserConfig{ParticleMinLength: 3},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid memory config", func(*Config) {}, false},
		{"unknown store type", func(c *Config) { c.Store.Type = "postgres" }, true},
		{"sheets without credentials", func(c *Config) {
			c.Store.Type = "sheets"
			c.Sheets.SpreadsheetID = "id"
		}, true},
		{"sheets with credentials", func(c *Config) {
			c.Store.Type = "sheets"
			c.Sheets.SpreadsheetID = "id"
			c.Sheets.CredentialsFile = "creds.json"
		}, false},
		{"unknown cache type", func(c *Config) { c.Cache.Type = "memcached" }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"zero particle length", func(c *Config) { c.Parser.ParticleMinLength = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemoTabs(t *testing.T) {
	cfg := &Config{Sheets: SheetsConfig{Tabs: TabsConfig{Counseling: "c", Personal: "p", Activity: "a"}}}
	tabs := cfg.MemoTabs()
	if tabs["상담일지"] != "c" || tabs["개인일지"] != "p" || tabs["활동일지"] != "a" {
		t.Errorf("MemoTabs() = %v", tabs)
	}
}
