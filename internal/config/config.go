package config

import (
	"errors"
	"fmt"
	"os"

	"postavka/internal/models"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	App         AppConfig        `yaml:"app"`
	Database    DatabaseConfig   `yaml:"database"`
	Redis       RedisConfig      `yaml:"redis"`
	Backup      BackupConfig     `yaml:"backup"`
	Monitoring  MonitoringConfig `yaml:"monitoring"`
	Logging     LoggingConfig    `yaml:"logging"`
	API         APIConfig        `yaml:"api"`
	Catalog     CatalogConfig    `yaml:"catalog"`
	Worker      WorkerConfig     `yaml:"worker"`
	Exports     ExportConfig     `yaml:"exports"`
	Google      GoogleConfig     `yaml:"google"`
	VendorsFile string           `yaml:"vendors_file"`
}

type APIConfig struct {
	Enabled   bool               `yaml:"enabled"`
	HTTP      APIHTTPConfig      `yaml:"http"`
	Auth      APIAuthConfig      `yaml:"auth"`
	RateLimit APIRateLimitConfig `yaml:"rate_limit"`
}

type APIHTTPConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type APIAuthConfig struct {
	Enabled      bool           `yaml:"enabled"`
	HeaderAPIKey string         `yaml:"header_api_key"`
	APIKeys      []APIClientKey `yaml:"api_keys"`
}

type APIClientKey struct {
	Key         string   `yaml:"key"`
	Name        string   `yaml:"name"`
	Permissions []string `yaml:"permissions"`
}

type APIRateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CatalogConfig points at the booking catalog that feeds item imports.
type CatalogConfig struct {
	Enabled      bool   `yaml:"enabled"`
	BaseURL      string `yaml:"base_url"`
	APIKey       string `yaml:"api_key"`
	SyncMinutes  int    `yaml:"sync_minutes"`
	FetchTimeout int    `yaml:"fetch_timeout"`
}

type WorkerConfig struct {
	MaxRetries    int     `yaml:"max_retries"`
	InitialDelay  int     `yaml:"initial_delay"`
	MaxDelay      int     `yaml:"max_delay"`
	BackoffFactor float64 `yaml:"backoff_factor"`
}

type ExportConfig struct {
	Path string `yaml:"path"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Schedule      string `yaml:"schedule"`
	RetentionDays int    `yaml:"retention_days"`
	StoragePath   string `yaml:"storage_path"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool   `yaml:"prometheus_enabled"`
	PrometheusPort    int    `yaml:"prometheus_port"`
	HealthCheckPort   int    `yaml:"health_check_port"`
	LogLevel          string `yaml:"log_level"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

type GoogleConfig struct {
	GoogleCredentialsFile   string `yaml:"credentials_file"`
	SettlementSpreadSheetID string `yaml:"settlement_spreadsheet_id"`
}

func Load(configPath string) (*Config, error) {
	// Загружаем .env файл если существует
	_ = godotenv.Load(".env")

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	// Предварительная замена переменных окружения в YAML
	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return errors.New("database path is required")
	}

	if c.Catalog.Enabled && c.Catalog.BaseURL == "" {
		return errors.New("catalog base_url is required when catalog sync is enabled")
	}

	if c.API.Enabled && c.API.Auth.Enabled && len(c.API.Auth.APIKeys) == 0 {
		return errors.New("api auth is enabled but no api keys are configured")
	}

	return nil
}

// ValidateVendors rejects seed rosters with missing or duplicate ids.
func ValidateVendors(vendors []*models.Vendor) error {
	vendorIDs := make(map[int64]bool)
	for _, v := range vendors {
		if v.ID == 0 {
			return fmt.Errorf("vendor '%s' has invalid ID 0", v.Name)
		}
		if vendorIDs[v.ID] {
			return fmt.Errorf("duplicate vendor ID found: %d", v.ID)
		}
		vendorIDs[v.ID] = true
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.API.HTTP.Port == 0 {
		c.API.HTTP.Port = 8080
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	// auth enabled by default when API is enabled
	if !c.API.Auth.Enabled {
		c.API.Auth.Enabled = true
	}
	if !c.API.HTTP.Enabled && c.API.Enabled {
		c.API.HTTP.Enabled = true
	}
	if c.API.Auth.HeaderAPIKey == "" {
		c.API.Auth.HeaderAPIKey = "x-api-key"
	}
	if c.API.RateLimit.RPS == 0 {
		c.API.RateLimit.RPS = float64(models.RateLimitRequests) / float64(models.RateLimitWindow)
	}
	if c.API.RateLimit.Burst == 0 {
		c.API.RateLimit.Burst = models.RateLimitRequests
	}

	if c.Catalog.SyncMinutes == 0 {
		c.Catalog.SyncMinutes = models.DefaultCatalogSyncMinutes
	}
	if c.Catalog.FetchTimeout == 0 {
		c.Catalog.FetchTimeout = 10
	}

	if c.Worker.MaxRetries == 0 {
		c.Worker.MaxRetries = 5
	}
	if c.Worker.InitialDelay == 0 {
		c.Worker.InitialDelay = 2
	}
	if c.Worker.MaxDelay == 0 {
		c.Worker.MaxDelay = 60
	}
	if c.Worker.BackoffFactor == 0 {
		c.Worker.BackoffFactor = 2
	}
}
