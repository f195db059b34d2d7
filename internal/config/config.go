package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"solum-sync-service/internal/model"
)

// LoadMappingConfig reads the field-mapping table from its own YAML file.
func LoadMappingConfig(path string) (model.MappingConfig, error) {
	var cfg model.MappingConfig

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read mapping file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse mapping file %s: %w", path, err)
	}
	return cfg, nil
}

type Config struct {
	Sync         SyncConfig      `mapstructure:"sync"`
	Solum        SolumConfig     `mapstructure:"solum"`
	CSV          CSVConfig       `mapstructure:"csv"`
	StateStorage StateStorage    `mapstructure:"state_storage"`
	Redis        RedisConfig     `mapstructure:"redis"`
	Scheduler    SchedulerConfig `mapstructure:"scheduler"`
	Server       ServerConfig    `mapstructure:"server"`
	Logging      LoggingConfig   `mapstructure:"logging"`
}

type SyncConfig struct {
	// Mode selects the adapter: "solum" (REST) or "csv" (legacy SFTP).
	Mode string `mapstructure:"mode"`
	// MappingFile is a separate YAML file: viper folds map keys to lower
	// case, and mapping field keys like "roomName" are case-sensitive data.
	MappingFile string `mapstructure:"mapping_file"`
}

type SolumConfig struct {
	BaseURL            string `mapstructure:"base_url"`
	StoreID            string `mapstructure:"store_id"`
	Username           string `mapstructure:"username"`
	Password           string `mapstructure:"password"`
	PageSize           int    `mapstructure:"page_size"`
	RequestTimeout     string `mapstructure:"request_timeout"`
	TokenRefreshWindow string `mapstructure:"token_refresh_window"`
}

func (s SolumConfig) GetRequestTimeout() time.Duration {
	if d, err := time.ParseDuration(s.RequestTimeout); err == nil && d > 0 {
		return d
	}
	return 30 * time.Second
}

// GetTokenRefreshWindow is how close to expiry the access token may get
// before the adapter refreshes it proactively.
func (s SolumConfig) GetTokenRefreshWindow() time.Duration {
	if d, err := time.ParseDuration(s.TokenRefreshWindow); err == nil && d > 0 {
		return d
	}
	return 5 * time.Minute
}

type CSVConfig struct {
	Host       string   `mapstructure:"host"`
	Port       int      `mapstructure:"port"`
	User       string   `mapstructure:"user"`
	Password   string   `mapstructure:"password"`
	RemotePath string   `mapstructure:"remote_path"`
	Delimiter  string   `mapstructure:"delimiter"`
	Columns    []string `mapstructure:"columns"`
	MaxRetries int      `mapstructure:"max_retries"`
	RetryBase  string   `mapstructure:"retry_base"`
}

func (c CSVConfig) GetDelimiter() rune {
	if c.Delimiter == "" {
		return ','
	}
	return []rune(c.Delimiter)[0]
}

func (c CSVConfig) GetRetryBase() time.Duration {
	if d, err := time.ParseDuration(c.RetryBase); err == nil && d > 0 {
		return d
	}
	return time.Second
}

type StateStorage struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SchedulerConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Interval string `mapstructure:"interval"`
}

type ServerConfig struct {
	Port         int      `mapstructure:"port"`
	Host         string   `mapstructure:"host"`
	AuthToken    string   `mapstructure:"auth_token"`
	ReadTimeout  string   `mapstructure:"read_timeout"`
	WriteTimeout string   `mapstructure:"write_timeout"`
	CorsOrigins  []string `mapstructure:"cors_origins"`
}

func (s ServerConfig) GetReadTimeout() time.Duration {
	d, _ := time.ParseDuration(s.ReadTimeout)
	return d
}

func (s ServerConfig) GetWriteTimeout() time.Duration {
	d, _ := time.ParseDuration(s.WriteTimeout)
	return d
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.SetEnvPrefix("SOLUM_SYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("sync.mode", "solum")
	v.SetDefault("sync.mapping_file", "mapping.yaml")
	v.SetDefault("solum.page_size", 100)
	v.SetDefault("csv.max_retries", 5)
	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Sync.Mode {
	case "solum":
		if c.Solum.BaseURL == "" {
			return fmt.Errorf("solum.base_url is required in solum mode")
		}
		if c.Solum.StoreID == "" {
			return fmt.Errorf("solum.store_id is required in solum mode")
		}
	case "csv":
		if c.CSV.Host == "" {
			return fmt.Errorf("csv.host is required in csv mode")
		}
		if c.CSV.RemotePath == "" {
			return fmt.Errorf("csv.remote_path is required in csv mode")
		}
	default:
		return fmt.Errorf("unknown sync mode %q", c.Sync.Mode)
	}
	return nil
}
