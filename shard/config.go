// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package shard decides which accounts belong to this shard and involves them
// in transactions.
package shard

import (
	"encoding/binary"
	"os"

	"github.com/pkg/errors"
	"github.com/wzj13456/shardeum/ledger"
	"gopkg.in/yaml.v3"
)

// Topology is the deployment shape of the network.
type Topology string

const (
	SingleShard Topology = "single"
	MultiShard  Topology = "multi"
)

// Config describes the shard layout and the local shard.
type Config struct {
	Shards   uint32   `yaml:"shards"`
	Local    uint32   `yaml:"local"`
	Topology Topology `yaml:"topology"`
	// ProofConcurrency bounds parallel proof generation, 0 means unbounded.
	ProofConcurrency int `yaml:"proofConcurrency"`
}

// DefaultConfig is a single shard owning every account.
func DefaultConfig() *Config {
	return &Config{
		Shards:   1,
		Local:    0,
		Topology: SingleShard,
	}
}

// LoadConfig reads a YAML config. Missing fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read shard config")
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse shard config %v", path)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the config is consistent.
func (c *Config) Validate() error {
	if c.Shards == 0 {
		return errors.New("shard config: shards must be positive")
	}
	if c.Local >= c.Shards {
		return errors.Errorf("shard config: local shard %d out of range [0, %d)", c.Local, c.Shards)
	}
	switch c.Topology {
	case SingleShard, MultiShard:
	default:
		return errors.Errorf("shard config: unknown topology %q", c.Topology)
	}
	if c.ProofConcurrency < 0 {
		return errors.New("shard config: negative proof concurrency")
	}
	return nil
}

// Partition returns the shard owning addr.
func (c *Config) Partition(addr ledger.Address) uint32 {
	return binary.BigEndian.Uint32(addr[:4]) % c.Shards
}

// IsLocal returns if addr is owned by the local shard.
func (c *Config) IsLocal(addr ledger.Address) bool {
	return c.Partition(addr) == c.Local
}
