package config

import "github.com/spf13/viper"

// Distribution default values.
const (
	DefaultBatchSize           = 10
	DefaultAccountBatchSize    = 5
	DefaultExistenceCheckBatch = 3
	DefaultMaxRetries          = 3
	DefaultTokenDecimals       = 6
	DefaultFeeEstimateLamports = 10_000_000
)

// setDefaults sets default configuration values.
func setDefaults(viperCfg *viper.Viper) {
	// RPC defaults.
	viperCfg.SetDefault("rpc.url", "https://api.mainnet-beta.solana.com")
	viperCfg.SetDefault("rpc.confirm_timeout", "60s")

	// Token defaults.
	viperCfg.SetDefault("token.decimals", DefaultTokenDecimals)

	// Distribution defaults.
	viperCfg.SetDefault("distribution.batch_size", DefaultBatchSize)
	viperCfg.SetDefault("distribution.account_batch_size", DefaultAccountBatchSize)
	viperCfg.SetDefault("distribution.inter_batch_delay", "1s")
	viperCfg.SetDefault("distribution.existence_check_delay", "1s")
	viperCfg.SetDefault("distribution.existence_check_batch", DefaultExistenceCheckBatch)
	viperCfg.SetDefault("distribution.max_retries", DefaultMaxRetries)
	viperCfg.SetDefault("distribution.retry_delay", "1s")
	viperCfg.SetDefault("distribution.fee_estimate_lamports", DefaultFeeEstimateLamports)
	viperCfg.SetDefault("distribution.dry_run", false)

	// Checkpoint defaults. An empty dir resolves to ~/.soldrop/checkpoints.
	viperCfg.SetDefault("checkpoint.dir", "")

	// Logging defaults.
	viperCfg.SetDefault("logging.level", "info")
	viperCfg.SetDefault("logging.format", "text")

	// Diagnostics defaults.
	viperCfg.SetDefault("diagnostics.enabled", false)
	viperCfg.SetDefault("diagnostics.addr", "127.0.0.1:9464")
}
