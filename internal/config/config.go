package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/hedisam/rscanner/internal/provider"
	"github.com/hedisam/rscanner/internal/scan"
)

// EnvPrefix prefixes every environment variable overriding a config key, e.g. RSCANNER_SCAN_BATCH_SIZE.
const EnvPrefix = "RSCANNER"

// Config holds the complete application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"    yaml:"server"`
	Log       LogConfig       `mapstructure:"log"       yaml:"log"`
	Network   string          `mapstructure:"network"   yaml:"network"`
	Providers ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	Scan      ScanConfig      `mapstructure:"scan"      yaml:"scan"`
}

// ServerConfig holds HTTP API server configuration
type ServerConfig struct {
	ListenAddr        string        `mapstructure:"listen_addr"         yaml:"listen_addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"        yaml:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"       yaml:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"        yaml:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"    yaml:"shutdown_timeout"`
	CORSOrigins       []string      `mapstructure:"cors_origins"        yaml:"cors_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// ProvidersConfig holds the chain data providers and the limits shared by them
type ProvidersConfig struct {
	GlobalMaxConcurrent int64         `mapstructure:"global_max_concurrent" yaml:"global_max_concurrent"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"       yaml:"request_timeout"`
	MaxAttempts         int           `mapstructure:"max_attempts"          yaml:"max_attempts"`
	RateLimitBase       time.Duration `mapstructure:"rate_limit_base"       yaml:"rate_limit_base"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"           yaml:"retry_delay"`
	// CryptoAPIsKey is used by cryptoapis endpoints that don't set their own key.
	CryptoAPIsKey string           `mapstructure:"cryptoapis_api_key" yaml:"cryptoapis_api_key"`
	Endpoints     []EndpointConfig `mapstructure:"endpoints"          yaml:"endpoints"`
}

// EndpointConfig describes a single provider
type EndpointConfig struct {
	Name          string `mapstructure:"name"           yaml:"name"`
	Kind          string `mapstructure:"kind"           yaml:"kind"`
	BaseURL       string `mapstructure:"base_url"       yaml:"base_url"`
	APIKey        string `mapstructure:"api_key"        yaml:"api_key,omitempty"`
	MaxConcurrent int64  `mapstructure:"max_concurrent" yaml:"max_concurrent"`
	Priority      int    `mapstructure:"priority"       yaml:"priority"`
}

// ScanConfig holds the per scan concurrency and pacing limits
type ScanConfig struct {
	BatchSize           int64         `mapstructure:"batch_size"            yaml:"batch_size"`
	MaxConcurrentBlocks int           `mapstructure:"max_concurrent_blocks" yaml:"max_concurrent_blocks"`
	MaxConcurrentTxs    int           `mapstructure:"max_concurrent_txs"    yaml:"max_concurrent_txs"`
	BatchDelay          time.Duration `mapstructure:"batch_delay"           yaml:"batch_delay"`
	LogCapacity         int           `mapstructure:"log_capacity"          yaml:"log_capacity"`
	LogTail             int           `mapstructure:"log_tail"              yaml:"log_tail"`
}

// Load loads configuration from the optional file at configPath and from the environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if strings.TrimSpace(cfg.Providers.CryptoAPIsKey) == "" {
		cfg.Providers.CryptoAPIsKey = strings.TrimSpace(os.Getenv("CRYPTOAPIS_API_KEY"))
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.listen_addr", d.Server.ListenAddr)
	v.SetDefault("server.read_header_timeout", d.Server.ReadHeaderTimeout)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.idle_timeout", d.Server.IdleTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", d.Server.CORSOrigins)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)

	v.SetDefault("network", d.Network)

	v.SetDefault("providers.global_max_concurrent", d.Providers.GlobalMaxConcurrent)
	v.SetDefault("providers.request_timeout", d.Providers.RequestTimeout)
	v.SetDefault("providers.max_attempts", d.Providers.MaxAttempts)
	v.SetDefault("providers.rate_limit_base", d.Providers.RateLimitBase)
	v.SetDefault("providers.retry_delay", d.Providers.RetryDelay)
	v.SetDefault("providers.cryptoapis_api_key", "")
	endpoints := make([]map[string]any, 0, len(d.Providers.Endpoints))
	for _, ep := range d.Providers.Endpoints {
		endpoints = append(endpoints, map[string]any{
			"name":           ep.Name,
			"kind":           ep.Kind,
			"base_url":       ep.BaseURL,
			"max_concurrent": ep.MaxConcurrent,
			"priority":       ep.Priority,
		})
	}
	v.SetDefault("providers.endpoints", endpoints)

	v.SetDefault("scan.batch_size", d.Scan.BatchSize)
	v.SetDefault("scan.max_concurrent_blocks", d.Scan.MaxConcurrentBlocks)
	v.SetDefault("scan.max_concurrent_txs", d.Scan.MaxConcurrentTxs)
	v.SetDefault("scan.batch_delay", d.Scan.BatchDelay)
	v.SetDefault("scan.log_capacity", d.Scan.LogCapacity)
	v.SetDefault("scan.log_tail", d.Scan.LogTail)
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr:        ":8080",
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   10 * time.Second,
			CORSOrigins:       []string{"*"},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Network: "mainnet",
		Providers: ProvidersConfig{
			GlobalMaxConcurrent: 100,
			RequestTimeout:      30 * time.Second,
			MaxAttempts:         3,
			RateLimitBase:       time.Second,
			RetryDelay:          time.Second,
			Endpoints: []EndpointConfig{
				{
					Name:          "cryptoapis",
					Kind:          string(provider.KindCryptoAPIs),
					BaseURL:       "https://rest.cryptoapis.io",
					MaxConcurrent: 40,
					Priority:      0,
				},
				{
					Name:          "blockstream",
					Kind:          string(provider.KindEsplora),
					BaseURL:       "https://blockstream.info/api",
					MaxConcurrent: 30,
					Priority:      1,
				},
				{
					Name:          "mempool",
					Kind:          string(provider.KindEsplora),
					BaseURL:       "https://mempool.space/api",
					MaxConcurrent: 30,
					Priority:      2,
				},
			},
		},
		Scan: ScanConfig{
			BatchSize:           200,
			MaxConcurrentBlocks: 50,
			MaxConcurrentTxs:    100,
			BatchDelay:          500 * time.Millisecond,
			LogCapacity:         200,
			LogTail:             50,
		},
	}
}

var networks = map[string]*chaincfg.Params{
	chaincfg.MainNetParams.Name:       &chaincfg.MainNetParams,
	chaincfg.TestNet3Params.Name:      &chaincfg.TestNet3Params,
	chaincfg.RegressionNetParams.Name: &chaincfg.RegressionNetParams,
	chaincfg.SigNetParams.Name:        &chaincfg.SigNetParams,
}

// cryptoAPIsNetworks maps network names to the path segment CryptoAPIs uses for them.
var cryptoAPIsNetworks = map[string]string{
	chaincfg.MainNetParams.Name:  "mainnet",
	chaincfg.TestNet3Params.Name: "testnet",
}

// ChainParams returns the parameters of the configured network.
func (c *Config) ChainParams() *chaincfg.Params {
	return networks[c.Network]
}

// ProviderOptions translates the providers section into provider.Options.
func (c *Config) ProviderOptions() provider.Options {
	endpoints := make([]provider.Endpoint, 0, len(c.Providers.Endpoints))
	for _, ep := range c.Providers.Endpoints {
		apiKey := ep.APIKey
		if apiKey == "" && provider.Kind(ep.Kind) == provider.KindCryptoAPIs {
			apiKey = c.Providers.CryptoAPIsKey
		}
		endpoints = append(endpoints, provider.Endpoint{
			Name:          ep.Name,
			Kind:          provider.Kind(ep.Kind),
			BaseURL:       ep.BaseURL,
			APIKey:        apiKey,
			MaxConcurrent: ep.MaxConcurrent,
			Priority:      ep.Priority,
		})
	}

	return provider.Options{
		GlobalMaxConcurrent: c.Providers.GlobalMaxConcurrent,
		RequestTimeout:      c.Providers.RequestTimeout,
		Retry: provider.RetryConfig{
			MaxAttempts:   c.Providers.MaxAttempts,
			RateLimitBase: c.Providers.RateLimitBase,
			RetryDelay:    c.Providers.RetryDelay,
		},
		Network:   cryptoAPIsNetworks[c.Network],
		Endpoints: endpoints,
	}
}

// ScanOptions translates the scan section into scan.Config.
func (c *Config) ScanOptions() scan.Config {
	return scan.Config{
		BatchSize:           c.Scan.BatchSize,
		MaxConcurrentBlocks: c.Scan.MaxConcurrentBlocks,
		MaxConcurrentTxs:    c.Scan.MaxConcurrentTxs,
		BatchDelay:          c.Scan.BatchDelay,
		LogCapacity:         c.Scan.LogCapacity,
		LogTail:             c.Scan.LogTail,
	}
}

// Redacted returns a copy of the config with API keys masked.
func (c *Config) Redacted() *Config {
	out := *c
	out.Providers.Endpoints = slices.Clone(c.Providers.Endpoints)
	if out.Providers.CryptoAPIsKey != "" {
		out.Providers.CryptoAPIsKey = redacted
	}
	for i := range out.Providers.Endpoints {
		if out.Providers.Endpoints[i].APIKey != "" {
			out.Providers.Endpoints[i].APIKey = redacted
		}
	}
	return &out
}

const redacted = "<redacted>"

// Validate validates the configuration
func (c *Config) Validate() error {
	return errors.Join(
		c.validateServer(),
		c.validateLog(),
		c.validateNetwork(),
		c.validateProviders(),
		c.validateScan(),
	)
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.ListenAddr) == "" {
		return fmt.Errorf("server.listen_addr is required")
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server.read_timeout and server.write_timeout must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server.shutdown_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLog() error {
	if _, err := logrus.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	return nil
}

func (c *Config) validateNetwork() error {
	if _, ok := networks[c.Network]; !ok {
		return fmt.Errorf("network must be one of mainnet, testnet3, regtest or signet, got %q", c.Network)
	}
	return nil
}

func (c *Config) validateProviders() error {
	p := c.Providers
	if p.GlobalMaxConcurrent <= 0 {
		return fmt.Errorf("providers.global_max_concurrent must be positive, got %d", p.GlobalMaxConcurrent)
	}
	if p.RequestTimeout <= 0 {
		return fmt.Errorf("providers.request_timeout must be positive")
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("providers.max_attempts must be positive, got %d", p.MaxAttempts)
	}
	if p.RateLimitBase < 0 || p.RetryDelay < 0 {
		return fmt.Errorf("providers.rate_limit_base and providers.retry_delay must not be negative")
	}
	if len(p.Endpoints) == 0 {
		return fmt.Errorf("providers.endpoints must not be empty")
	}

	names := make(map[string]struct{}, len(p.Endpoints))
	for i, ep := range p.Endpoints {
		if strings.TrimSpace(ep.Name) == "" {
			return fmt.Errorf("providers.endpoints[%d] has an empty name", i)
		}
		if _, ok := names[ep.Name]; ok {
			return fmt.Errorf("providers.endpoints[%s] is defined twice", ep.Name)
		}
		names[ep.Name] = struct{}{}
		if strings.TrimSpace(ep.BaseURL) == "" {
			return fmt.Errorf("providers.endpoints[%s] base_url is empty", ep.Name)
		}
		if ep.MaxConcurrent <= 0 {
			return fmt.Errorf("providers.endpoints[%s] max_concurrent must be positive, got %d", ep.Name, ep.MaxConcurrent)
		}
		switch provider.Kind(ep.Kind) {
		case provider.KindEsplora:
		case provider.KindCryptoAPIs:
			hasKey := ep.APIKey != "" || p.CryptoAPIsKey != ""
			if _, ok := cryptoAPIsNetworks[c.Network]; hasKey && !ok {
				return fmt.Errorf("providers.endpoints[%s] cryptoapis does not support network %q", ep.Name, c.Network)
			}
		default:
			return fmt.Errorf("providers.endpoints[%s] kind must be esplora or cryptoapis, got %q", ep.Name, ep.Kind)
		}
	}
	return nil
}

func (c *Config) validateScan() error {
	s := c.Scan
	if s.BatchSize <= 0 {
		return fmt.Errorf("scan.batch_size must be positive, got %d", s.BatchSize)
	}
	if s.MaxConcurrentBlocks <= 0 || s.MaxConcurrentTxs <= 0 {
		return fmt.Errorf("scan.max_concurrent_blocks and scan.max_concurrent_txs must be positive")
	}
	if s.BatchDelay < 0 {
		return fmt.Errorf("scan.batch_delay must not be negative")
	}
	if s.LogCapacity <= 0 || s.LogTail <= 0 || s.LogTail > s.LogCapacity {
		return fmt.Errorf("scan.log_tail must be between 1 and scan.log_capacity (%d), got %d", s.LogCapacity, s.LogTail)
	}
	return nil
}
