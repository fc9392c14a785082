package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the top-level configuration for the unstake pool engine and CLI.
type Config struct {
	Solana  SolanaNetworkConfig `yaml:"solana"`
	Pool    PoolConfig          `yaml:"pool"`
	Logging LoggingConfig       `yaml:"logging"`
}

// SolanaNetworkConfig holds the RPC/WS endpoints the engine dials into.
type SolanaNetworkConfig struct {
	Network            string        `yaml:"network"`
	RPCURL              string        `yaml:"rpc_url"`
	WSURL               string        `yaml:"ws_url"`
	Cluster             string        `yaml:"cluster"`
	Commitment          string        `yaml:"commitment"`
	Timeout             time.Duration `yaml:"timeout"`
	MaxRetries          int           `yaml:"max_retries"`
	ConfirmationBlocks  int           `yaml:"confirmation_blocks"`
}

// PoolConfig addresses the pool this process manages: its address, LP
// mint and fee-authority keypair path. Derived accounts are not stored
// here; the CLI re-derives them on every invocation.
type PoolConfig struct {
	Address          string `yaml:"address"`
	FeeAuthorityPath string `yaml:"fee_authority_path"`
	LpMint           string `yaml:"lp_mint"`
	DryRun           bool   `yaml:"dry_run"`
}

// LoggingConfig controls the zap-backed structured logger.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	Output     string `yaml:"output"`
	FilePath   string `yaml:"file_path"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// Load reads and parses a YAML configuration file.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// Default returns sane defaults for local development against a test
// validator.
func Default() *Config {
	return &Config{
		Solana: SolanaNetworkConfig{
			Network:            "localnet",
			RPCURL:             "http://127.0.0.1:8899",
			WSURL:              "ws://127.0.0.1:8900",
			Cluster:            "localnet",
			Commitment:         "confirmed",
			Timeout:            30 * time.Second,
			MaxRetries:         3,
			ConfirmationBlocks: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stdout",
		},
	}
}
