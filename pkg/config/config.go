// Package config provides configuration loading and validation for the
// soldrop distribution engine.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/viper"
)

// Sentinel validation errors.
var (
	ErrMissingRPCURL       = errors.New("rpc url is required")
	ErrMissingPrivateKey   = errors.New("distributor private key is required")
	ErrMissingMint         = errors.New("token mint address is required")
	ErrMissingCSVPath      = errors.New("distribution csv path is required")
	ErrInvalidPhase        = errors.New("phase must be between 1 and 4")
	ErrInvalidDecimals     = errors.New("token decimals must not be negative")
	ErrInvalidBatchSize    = errors.New("batch size must be positive")
	ErrInvalidRetries      = errors.New("max retries must be positive")
	ErrInvalidFeeEstimate  = errors.New("fee estimate must be positive")
	ErrInvalidPrivateKey   = errors.New("distributor private key is not valid base58")
	ErrInvalidMintAddress  = errors.New("token mint address is not valid base58")
	ErrInvalidDiagAddr     = errors.New("diagnostics address is required when diagnostics are enabled")
	ErrInvalidConfirmation = errors.New("confirm timeout must be positive")
)

// Config holds all configuration for a distribution run.
type Config struct {
	RPC          RPCConfig          `mapstructure:"rpc"`
	Token        TokenConfig        `mapstructure:"token"`
	Distribution DistributionConfig `mapstructure:"distribution"`
	Checkpoint   CheckpointConfig   `mapstructure:"checkpoint"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Diagnostics  DiagnosticsConfig  `mapstructure:"diagnostics"`
}

// RPCConfig holds ledger RPC connection settings. The private key is never
// read from the config file; it must come from the SOLDROP_RPC_PRIVATE_KEY
// environment variable.
type RPCConfig struct {
	URL            string        `mapstructure:"url"`
	PrivateKey     string        `mapstructure:"private_key"`
	ConfirmTimeout time.Duration `mapstructure:"confirm_timeout"`
}

// TokenConfig identifies the token under distribution.
type TokenConfig struct {
	Mint     string `mapstructure:"mint"`
	Decimals int    `mapstructure:"decimals"`
}

// DistributionConfig holds the batching, pacing, and retry knobs of a run.
type DistributionConfig struct {
	CSVPath             string        `mapstructure:"csv_path"`
	Phase               int           `mapstructure:"phase"`
	BatchSize           int           `mapstructure:"batch_size"`
	AccountBatchSize    int           `mapstructure:"account_batch_size"`
	InterBatchDelay     time.Duration `mapstructure:"inter_batch_delay"`
	ExistenceCheckDelay time.Duration `mapstructure:"existence_check_delay"`
	ExistenceCheckBatch int           `mapstructure:"existence_check_batch"`
	MaxRetries          int           `mapstructure:"max_retries"`
	RetryDelay          time.Duration `mapstructure:"retry_delay"`
	FeeEstimateLamports uint64        `mapstructure:"fee_estimate_lamports"`
	DryRun              bool          `mapstructure:"dry_run"`
}

// CheckpointConfig holds checkpoint persistence settings.
type CheckpointConfig struct {
	Dir string `mapstructure:"dir"`
}

// LoggingConfig holds logging-specific configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// DiagnosticsConfig holds the optional health/metrics HTTP endpoint settings.
type DiagnosticsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// LoadConfig loads configuration from file and environment variables.
func LoadConfig(configPath string) (*Config, error) {
	return LoadConfigOverride(configPath, nil)
}

// LoadConfigOverride loads configuration, applies override (typically CLI
// flag values) before validation, and validates the result.
func LoadConfigOverride(configPath string, override func(*Config)) (*Config, error) {
	viperCfg := viper.New()

	setDefaults(viperCfg)

	if configPath != "" {
		viperCfg.SetConfigFile(configPath)
	} else {
		viperCfg.SetConfigName("config")
		viperCfg.SetConfigType("yaml")
		viperCfg.AddConfigPath(".")
		viperCfg.AddConfigPath("./config")
		viperCfg.AddConfigPath("/etc/soldrop")
	}

	viperCfg.SetEnvPrefix("SOLDROP")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// The signing key must never land in a file on disk.
	bindErr := viperCfg.BindEnv("rpc.private_key", "SOLDROP_RPC_PRIVATE_KEY")
	if bindErr != nil {
		return nil, fmt.Errorf("failed to bind private key env: %w", bindErr)
	}

	readErr := viperCfg.ReadInConfig()
	if readErr != nil {
		var notFoundErr viper.ConfigFileNotFoundError
		if !errors.As(readErr, &notFoundErr) {
			return nil, fmt.Errorf("failed to read config file: %w", readErr)
		}
	}

	var config Config

	unmarshalErr := viperCfg.Unmarshal(&config)
	if unmarshalErr != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", unmarshalErr)
	}

	if override != nil {
		override(&config)
	}

	validateErr := validateConfig(&config)
	if validateErr != nil {
		return nil, fmt.Errorf("invalid configuration: %w", validateErr)
	}

	return &config, nil
}

// Keypair parses the configured distributor private key.
func (c *Config) Keypair() (solana.PrivateKey, error) {
	key, err := solana.PrivateKeyFromBase58(c.RPC.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidPrivateKey, err)
	}

	return key, nil
}

// Mint parses the configured token mint address.
func (c *Config) Mint() (solana.PublicKey, error) {
	mint, err := solana.PublicKeyFromBase58(c.Token.Mint)
	if err != nil {
		return solana.PublicKey{}, fmt.Errorf("%w: %w", ErrInvalidMintAddress, err)
	}

	return mint, nil
}

// validateConfig validates the configuration.
func validateConfig(config *Config) error {
	if config.RPC.URL == "" {
		return ErrMissingRPCURL
	}

	if config.RPC.ConfirmTimeout <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfirmation, config.RPC.ConfirmTimeout)
	}

	if config.Token.Mint == "" {
		return ErrMissingMint
	}

	if config.Token.Decimals < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDecimals, config.Token.Decimals)
	}

	if config.Distribution.CSVPath == "" {
		return ErrMissingCSVPath
	}

	if config.Distribution.Phase < 1 || config.Distribution.Phase > 4 {
		return fmt.Errorf("%w: %d", ErrInvalidPhase, config.Distribution.Phase)
	}

	if config.Distribution.BatchSize <= 0 || config.Distribution.AccountBatchSize <= 0 {
		return fmt.Errorf("%w: transfer=%d account=%d", ErrInvalidBatchSize,
			config.Distribution.BatchSize, config.Distribution.AccountBatchSize)
	}

	if config.Distribution.MaxRetries <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRetries, config.Distribution.MaxRetries)
	}

	if config.Distribution.FeeEstimateLamports == 0 {
		return ErrInvalidFeeEstimate
	}

	if config.Diagnostics.Enabled && config.Diagnostics.Addr == "" {
		return ErrInvalidDiagAddr
	}

	// The key is only needed for live runs; run commands check for it before
	// signing. Validate the format here when one is present.
	if config.RPC.PrivateKey != "" {
		_, keyErr := solana.PrivateKeyFromBase58(config.RPC.PrivateKey)
		if keyErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidPrivateKey, keyErr)
		}
	}

	return nil
}

// RequireSigner confirms a private key is configured for a live run.
func (c *Config) RequireSigner() error {
	if c.RPC.PrivateKey == "" {
		return ErrMissingPrivateKey
	}

	return nil
}
