// Package providers loads RPC provider pool configuration from YAML and
// applies the single environment-variable override pattern from spec §6:
// "<TOOL>_RPC_<CHAIN>" in uppercase.
package providers

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EndpointConfig is one configured RPC endpoint for a chain.
type EndpointConfig struct {
	Url            string        `yaml:"url"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// ChainConfig is the ordered list of provider endpoints for one chain slug,
// used to build a chainrpc.Pool.
type ChainConfig struct {
	Slug      string           `yaml:"slug"`
	Endpoints []EndpointConfig `yaml:"endpoints"`
}

// Config is the top-level provider configuration document.
type Config struct {
	Chains []ChainConfig `yaml:"chains"`
}

// Load parses a YAML provider config document.
func Load(doc []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(doc, &cfg); err != nil {
		return nil, fmt.Errorf("providers: parse config: %w", err)
	}
	return &cfg, nil
}

// ApplyEnvOverrides overrides each chain's first endpoint URL from the
// environment variable "<tool>_RPC_<CHAIN>" (uppercased), when present.
// This is the single supported environment-variable pattern per spec §6.
func (c *Config) ApplyEnvOverrides(tool string) {
	for i := range c.Chains {
		chain := &c.Chains[i]
		envVar := fmt.Sprintf("%s_RPC_%s", strings.ToUpper(tool), strings.ToUpper(chain.Slug))
		if url, ok := os.LookupEnv(envVar); ok && url != "" {
			if len(chain.Endpoints) == 0 {
				chain.Endpoints = []EndpointConfig{{Url: url}}
			} else {
				chain.Endpoints[0].Url = url
			}
		}
	}
}

// ForChain returns the configuration for slug, if present.
func (c *Config) ForChain(slug string) (ChainConfig, bool) {
	for _, ch := range c.Chains {
		if ch.Slug == slug {
			return ch, true
		}
	}
	return ChainConfig{}, false
}
