// Package config loads the deposit monitor configuration from YAML with
// environment overrides for secrets.
package config

import (
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Environment variables that override secrets from the config file.
const (
	EnvDatabasePassword = "MONITOR_DB_PASSWORD"
	EnvSignerKey        = "MONITOR_SIGNER_KEY"
	EnvAdminJWTSecret   = "MONITOR_ADMIN_JWT_SECRET"
	EnvRedisURL         = "MONITOR_REDIS_URL"
)

// Store drivers.
const (
	StoreDriverPostgres = "postgres"
	StoreDriverMemory   = "memory"
)

// Config represents the deposit monitor configuration
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Database   DatabaseConfig   `yaml:"database"`
	Redis      RedisConfig      `yaml:"redis"`
	Ledger     LedgerConfig     `yaml:"ledger"`
	Deposit    DepositConfig    `yaml:"deposit"`
	Monitor    MonitorConfig    `yaml:"monitor"`
	Refund     RefundConfig     `yaml:"refund"`
	Webhook    WebhookConfig    `yaml:"webhook"`
	Auth       AuthConfig       `yaml:"auth"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
	Shutdown   ShutdownConfig   `yaml:"shutdown"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host         string        `yaml:"host" default:"0.0.0.0"`
	Port         int           `yaml:"port" default:"8090" validate:"min=1,max=65535"`
	ReadTimeout  time.Duration `yaml:"read_timeout" default:"15s"`
	WriteTimeout time.Duration `yaml:"write_timeout" default:"60s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" default:"60s"`
}

// StoreConfig selects the reconciliation store backend
type StoreConfig struct {
	Driver string `yaml:"driver" default:"postgres" validate:"oneof=postgres memory"`
}

// DatabaseConfig contains database connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host" default:"localhost"`
	Port     int    `yaml:"port" default:"5432"`
	User     string `yaml:"user" default:"postgres"`
	Password string `yaml:"password"`
	Database string `yaml:"database" default:"deposit_monitor"`
	SSLMode  string `yaml:"ssl_mode" default:"disable"`
}

// RedisConfig enables the distributed cycle lock when URL is set
type RedisConfig struct {
	URL       string        `yaml:"url"`
	KeyPrefix string        `yaml:"key_prefix" default:"deposit-monitor"`
	LockTTL   time.Duration `yaml:"lock_ttl" default:"5m"`
}

// LedgerConfig contains the ledger client settings
type LedgerConfig struct {
	RPCURL           string        `yaml:"rpc_url" validate:"required"`
	ChainID          int64         `yaml:"chain_id" validate:"required"`
	TokenContract    string        `yaml:"token_contract" validate:"required"`
	DepositAddress   string        `yaml:"deposit_address" validate:"required"`
	SignerPrivateKey string        `yaml:"signer_private_key"`
	GasLimit         uint64        `yaml:"gas_limit" default:"100000"`
	MaxGasPrice      string        `yaml:"max_gas_price"`
	RequestTimeout   time.Duration `yaml:"request_timeout" default:"15s"`
	BlockWindow      uint64        `yaml:"block_window" default:"2000" validate:"min=1"`
	StartBlock       uint64        `yaml:"start_block"`
}

// DepositConfig describes what counts as a valid identity deposit
type DepositConfig struct {
	// RequiredAmount is expressed in whole tokens, e.g. "1.5".
	RequiredAmount   string `yaml:"required_amount" validate:"required"`
	TokenDecimals    int32  `yaml:"token_decimals" default:"18" validate:"min=0,max=36"`
	MinConfirmations uint64 `yaml:"min_confirmations" default:"12"`
}

// MonitorConfig contains run loop settings
type MonitorConfig struct {
	Interval  time.Duration `yaml:"interval" default:"30s" validate:"gt=0"`
	MaxPages  int           `yaml:"max_pages" default:"10" validate:"min=1"`
	AutoStart bool          `yaml:"auto_start"`
}

// RefundConfig contains refund dispatcher settings
type RefundConfig struct {
	Workers     int           `yaml:"workers" default:"4" validate:"min=1"`
	MaxAttempts int           `yaml:"max_attempts" default:"5" validate:"min=1"`
	BaseBackoff time.Duration `yaml:"base_backoff" default:"30s"`
	MaxBackoff  time.Duration `yaml:"max_backoff" default:"30m"`
	ClaimLease  time.Duration `yaml:"claim_lease" default:"2m"`
	BatchSize   int           `yaml:"batch_size" default:"100" validate:"min=1"`
}

// WebhookConfig contains webhook delivery settings
type WebhookConfig struct {
	QueueSize    int           `yaml:"queue_size" default:"256" validate:"min=1"`
	Timeout      time.Duration `yaml:"timeout" default:"5s"`
	MaxRetries   int           `yaml:"max_retries" default:"3"`
	RetryBackoff time.Duration `yaml:"retry_backoff" default:"1s"`
}

// AuthConfig protects the admin API with HS256 bearer tokens
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
	Issuer    string `yaml:"issuer"`
}

// MonitoringConfig contains monitoring and metrics settings
type MonitoringConfig struct {
	Enabled bool `yaml:"enabled" default:"true"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level      string `yaml:"level" default:"info"`
	Format     string `yaml:"format" default:"json" validate:"oneof=json console"`
	OutputPath string `yaml:"output_path" default:"stdout"`
}

// ShutdownConfig contains graceful shutdown settings
type ShutdownConfig struct {
	Timeout time.Duration `yaml:"timeout" default:"30s"`
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Config from raw YAML, applying defaults, env overrides and validation.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := defaults.Set(cfg); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyEnv(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabasePassword); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv(EnvSignerKey); v != "" {
		cfg.Ledger.SignerPrivateKey = v
	}
	if v := os.Getenv(EnvAdminJWTSecret); v != "" {
		cfg.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvRedisURL); v != "" {
		cfg.Redis.URL = v
	}
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return err
	}
	if _, err := cfg.Deposit.RequiredBaseUnits(); err != nil {
		return err
	}
	if cfg.Refund.MaxBackoff < cfg.Refund.BaseBackoff {
		return fmt.Errorf("refund.max_backoff must be >= refund.base_backoff")
	}
	return nil
}

// RequiredBaseUnits converts RequiredAmount to the token's smallest unit.
func (c DepositConfig) RequiredBaseUnits() (*big.Int, error) {
	amount, err := decimal.NewFromString(c.RequiredAmount)
	if err != nil {
		return nil, fmt.Errorf("deposit.required_amount: %w", err)
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("deposit.required_amount must be positive")
	}
	units := amount.Shift(c.TokenDecimals)
	if !units.Equal(units.Truncate(0)) {
		return nil, fmt.Errorf("deposit.required_amount has more than %d decimals", c.TokenDecimals)
	}
	return units.BigInt(), nil
}

// Addr returns the HTTP listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
