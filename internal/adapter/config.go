package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mmcdole/imo/internal/domain"
)

// RemoteKind selects where marks are shared
type RemoteKind string

const (
	RemoteHTTP  RemoteKind = "http"
	RemoteRedis RemoteKind = "redis"
	RemoteNone  RemoteKind = "none"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig        `mapstructure:"server"`
	Remote  RemoteConfig        `mapstructure:"remote"`
	Cache   CacheConfig         `mapstructure:"cache"`
	Query   domain.ListingQuery `mapstructure:"query"`
	View    ViewConfig          `mapstructure:"view"`
	Browser BrowserConfig       `mapstructure:"browser"`
	Logging LoggingConfig       `mapstructure:"logging"`
	Metrics MetricsConfig       `mapstructure:"metrics"`
}

// ServerConfig holds listing service configuration
type ServerConfig struct {
	URL     string        `mapstructure:"url"`     // Base URL of the listing service
	Timeout time.Duration `mapstructure:"timeout"` // Listing fetch timeout
}

// RemoteConfig holds the marks remote configuration
type RemoteConfig struct {
	Kind    RemoteKind    `mapstructure:"kind"`    // "http", "redis" or "none"
	Timeout time.Duration `mapstructure:"timeout"` // Per-call timeout for GET/POST
	Redis   RedisConfig   `mapstructure:"redis"`
}

// RedisConfig holds the redis marks remote settings
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"` // Hash holding url -> mark
}

// CacheConfig holds the durable local cache location
type CacheConfig struct {
	Dir string `mapstructure:"dir"` // Empty keeps everything in memory
}

// ViewConfig holds pipeline tuning
type ViewConfig struct {
	RentThreshold float64 `mapstructure:"rent_threshold"`
}

// BrowserConfig holds the command used to open listings
type BrowserConfig struct {
	Command string   `mapstructure:"command"` // Empty uses the system default
	Args    []string `mapstructure:"args"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	File  string `mapstructure:"file"` // "-" logs to stderr
	Level string `mapstructure:"level"`
}

// MetricsConfig holds the prometheus endpoint configuration
type MetricsConfig struct {
	Listen string `mapstructure:"listen"` // Empty disables the endpoint
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			URL:     "http://127.0.0.1:5000",
			Timeout: 30 * time.Second,
		},
		Remote: RemoteConfig{
			Kind:    RemoteHTTP,
			Timeout: 5 * time.Second,
			Redis: RedisConfig{
				Address: "127.0.0.1:6379",
				Key:     "imo:marks",
			},
		},
		Cache: CacheConfig{
			Dir: defaultCachePath(),
		},
		Query: domain.DefaultQuery(),
		View: ViewConfig{
			RentThreshold: 10000,
		},
		Logging: LoggingConfig{
			File:  defaultLogPath(),
			Level: "INFO",
		},
	}
}

// defaultLogPath returns the default log file path for the current OS
func defaultLogPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "imo", "imo.log")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".local", "share", "imo", "imo.log")
	}
}

// defaultConfigPath returns the default config directory for the current OS
func defaultConfigPath() string {
	switch runtime.GOOS {
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "imo")
	default:
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "imo")
	}
}

// defaultCachePath returns the default cache directory path for the current OS
func defaultCachePath() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "imo")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "imo")
}

// LoadConfig loads .env, the config file and IMO_* environment overrides
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env: %w", err)
	}
	return loadConfig(viper.New(), defaultConfigPath(), ".")
}

func loadConfig(v *viper.Viper, paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	// Environment variable overrides: IMO_SERVER_URL, IMO_REMOTE_KIND, ...
	v.SetEnvPrefix("IMO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	registerDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, use defaults
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	dir, err := expandHome(cfg.Cache.Dir)
	if err != nil {
		return nil, err
	}
	cfg.Cache.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// registerDefaults makes every key known to viper so AutomaticEnv can
// override keys that are absent from the config file.
func registerDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("server.url", cfg.Server.URL)
	v.SetDefault("server.timeout", cfg.Server.Timeout)
	v.SetDefault("remote.kind", string(cfg.Remote.Kind))
	v.SetDefault("remote.timeout", cfg.Remote.Timeout)
	v.SetDefault("remote.redis.address", cfg.Remote.Redis.Address)
	v.SetDefault("remote.redis.password", cfg.Remote.Redis.Password)
	v.SetDefault("remote.redis.db", cfg.Remote.Redis.DB)
	v.SetDefault("remote.redis.key", cfg.Remote.Redis.Key)
	v.SetDefault("cache.dir", cfg.Cache.Dir)
	v.SetDefault("query.district", cfg.Query.District)
	v.SetDefault("query.pages", cfg.Query.Pages)
	v.SetDefault("query.limit", cfg.Query.Limit)
	v.SetDefault("query.sort", cfg.Query.Sort)
	v.SetDefault("query.typology", cfg.Query.Typology)
	v.SetDefault("query.search_type", string(cfg.Query.SearchType))
	v.SetDefault("query.only_with_eurm2", cfg.Query.OnlyWithEurM2)
	v.SetDefault("query.exclude_temporary", cfg.Query.ExcludeTemporary)
	v.SetDefault("view.rent_threshold", cfg.View.RentThreshold)
	v.SetDefault("browser.command", cfg.Browser.Command)
	v.SetDefault("logging.file", cfg.Logging.File)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("metrics.listen", cfg.Metrics.Listen)
}

// Validate rejects configurations the application cannot start with
func (c *Config) Validate() error {
	u, err := url.Parse(c.Server.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server.url %q", c.Server.URL)
	}
	switch c.Remote.Kind {
	case RemoteHTTP, RemoteNone:
	case RemoteRedis:
		if c.Remote.Redis.Address == "" || c.Remote.Redis.Key == "" {
			return fmt.Errorf("remote.redis.address and remote.redis.key are required")
		}
	default:
		return fmt.Errorf("unknown remote.kind %q", c.Remote.Kind)
	}
	if c.View.RentThreshold <= 0 {
		return fmt.Errorf("view.rent_threshold must be positive")
	}
	if c.Query.District != "" && !domain.IsDistrict(c.Query.District) {
		return fmt.Errorf("unknown query.district %q", c.Query.District)
	}
	return nil
}

// SaveConfig writes cfg to the default config file
func SaveConfig(cfg *Config) (string, error) {
	return saveConfig(cfg, defaultConfigPath())
}

func saveConfig(cfg *Config, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	v := viper.New()
	// Set fields individually to ensure correct key names (snake_case)
	v.Set("server.url", cfg.Server.URL)
	v.Set("server.timeout", cfg.Server.Timeout.String())

	v.Set("remote.kind", string(cfg.Remote.Kind))
	v.Set("remote.timeout", cfg.Remote.Timeout.String())
	v.Set("remote.redis.address", cfg.Remote.Redis.Address)
	v.Set("remote.redis.db", cfg.Remote.Redis.DB)
	v.Set("remote.redis.key", cfg.Remote.Redis.Key)

	v.Set("cache.dir", cfg.Cache.Dir)

	v.Set("query.district", cfg.Query.District)
	v.Set("query.pages", cfg.Query.Pages)
	v.Set("query.limit", cfg.Query.Limit)
	v.Set("query.sort", cfg.Query.Sort)
	v.Set("query.typology", cfg.Query.Typology)
	v.Set("query.only_with_eurm2", cfg.Query.OnlyWithEurM2)
	v.Set("query.exclude_temporary", cfg.Query.ExcludeTemporary)

	v.Set("view.rent_threshold", cfg.View.RentThreshold)

	v.Set("browser.command", cfg.Browser.Command)
	v.Set("browser.args", cfg.Browser.Args)

	v.Set("logging.file", cfg.Logging.File)
	v.Set("logging.level", cfg.Logging.Level)

	v.Set("metrics.listen", cfg.Metrics.Listen)

	configFile := filepath.Join(dir, "config.yaml")
	if err := v.WriteConfigAs(configFile); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}
	return configFile, nil
}

// ClearCache removes the durable local cache
func ClearCache(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}
