// Package remote queries live chain state over RPC so forked contracts can
// execute locally against the real state of a deployed counterpart.
package remote

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ChainConfig describes one remote chain a fork can read from.
type ChainConfig struct {
	ChainID       string        `mapstructure:"chain-id"`
	RPCAddr       string        `mapstructure:"rpc-addr"`
	AccountPrefix string        `mapstructure:"account-prefix"`
	Timeout       time.Duration `mapstructure:"timeout"`
	PageLimit     uint64        `mapstructure:"page-limit"`
}

// Config is the set of remote chains available for forking, keyed by name.
type Config struct {
	Chains map[string]ChainConfig `mapstructure:"chains"`
}

// DefaultTimeout bounds each remote round trip.
const DefaultTimeout = 10 * time.Second

// LoadConfig reads a config file into a Config, applying per-chain defaults.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	for name, chain := range cfg.Chains {
		cfg.Chains[name] = chain.withDefaults()
	}
	return &cfg, nil
}

// Chain returns the named chain config.
func (c *Config) Chain(name string) (ChainConfig, error) {
	chain, ok := c.Chains[name]
	if !ok {
		return ChainConfig{}, fmt.Errorf("chain %s not configured", name)
	}
	return chain, nil
}

func (c ChainConfig) withDefaults() ChainConfig {
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PageLimit == 0 {
		c.PageLimit = 5
	}
	return c
}

// Validate checks the fields a client cannot run without.
func (c ChainConfig) Validate() error {
	if c.ChainID == "" {
		return fmt.Errorf("chain-id is required")
	}
	if c.RPCAddr == "" {
		return fmt.Errorf("rpc-addr is required")
	}
	return nil
}
