package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	Server    ServerConfig    `mapstructure:"server"`
	Logger    LoggerConfig    `mapstructure:"logger"`
	Client    ClientConfig    `mapstructure:"client"`
	Checker   CheckerConfig   `mapstructure:"checker"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Chainlist ChainlistConfig `mapstructure:"chainlist"`
}

// AppConfig holds application-level configuration.
type AppConfig struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `mapstructure:"port"`
}

// LoggerConfig holds logging configuration.
type LoggerConfig struct {
	Level    string `mapstructure:"level"`
	Encoding string `mapstructure:"encoding"`
	Output   string `mapstructure:"output"`
}

// ClientConfig selects the network and contract of the token client.
type ClientConfig struct {
	Network         string        `mapstructure:"network"`
	ContractAddress string        `mapstructure:"contract_address"`
	RPCCandidates   []string      `mapstructure:"rpc_candidates"`
	ExplorerURL     string        `mapstructure:"explorer_url"`
	RPCEnvVar       string        `mapstructure:"rpc_env_var"`
	ProbeTimeout    time.Duration `mapstructure:"probe_timeout"`
	CallTimeout     time.Duration `mapstructure:"call_timeout"`
	ConnectOnStart  bool          `mapstructure:"connect_on_start"`
}

// CheckerConfig holds settings related to the endpoint health report.
type CheckerConfig struct {
	CheckTimeout time.Duration `mapstructure:"check_timeout"`
	MaxWorkers   int           `mapstructure:"max_workers"`
	CacheTTL     time.Duration `mapstructure:"cache_ttl"`
}

// CacheConfig holds settings for the caching layer.
type CacheConfig struct {
	DefaultExpiration time.Duration `mapstructure:"default_expiration"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
}

// ChainlistConfig holds configuration for the Chainlist data source.
// When enabled, its public RPCs are appended after the configured candidates.
type ChainlistConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		fmt.Printf("Warning: Config file not found in %s or '.', using defaults/env vars\n", configPath)
	}

	v.SetEnvPrefix("TOKENDATA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "token-data-service")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.encoding", "json")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("client.network", "mainnet")
	v.SetDefault("client.contract_address", "")
	v.SetDefault("client.rpc_candidates", []string{})
	v.SetDefault("client.explorer_url", "")
	v.SetDefault("client.rpc_env_var", "")
	v.SetDefault("client.probe_timeout", "5s")
	v.SetDefault("client.call_timeout", "10s")
	v.SetDefault("client.connect_on_start", true)
	v.SetDefault("checker.check_timeout", "5s")
	v.SetDefault("checker.max_workers", 10)
	v.SetDefault("checker.cache_ttl", "5m")
	v.SetDefault("cache.default_expiration", "5m")
	v.SetDefault("cache.cleanup_interval", "10m")
	v.SetDefault("chainlist.enabled", false)
	v.SetDefault("chainlist.url", "https://chainid.network/chains.json")
	v.SetDefault("chainlist.timeout", "15s")
}
