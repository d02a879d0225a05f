// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package hostconfig loads optional on-disk defaults for a pkg/host
// handle: retry budget, bootstrap timeout, and a cap on the chunk size
// Read/Write will request even when a device negotiates a larger
// max_cmd_len/max_ack_len.
package hostconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/bytesentinel/go-u3v-vision/pkg/host"
)

// Config is the on-disk shape of a host handle's tunables.
type Config struct {
	Transaction struct {
		RetryBudget      int `toml:"retry_budget"`
		BootstrapTimeout int `toml:"bootstrap_timeout_ms"`
	} `toml:"transaction"`

	Chunking struct {
		MaxReadChunk  uint32 `toml:"max_read_chunk"`
		MaxWriteChunk uint32 `toml:"max_write_chunk"`
	} `toml:"chunking"`
}

// DefaultConfig returns the built-in defaults, equal to what pkg/host
// itself falls back to when a field is left zero.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.Transaction.RetryBudget = host.DefaultRetryBudget
	cfg.Transaction.BootstrapTimeout = int(host.DefaultBootstrapTimeout / time.Millisecond)
	cfg.Chunking.MaxReadChunk = 0
	cfg.Chunking.MaxWriteChunk = 0
	return cfg
}

// HandleConfig translates the on-disk shape into a host.Config.
func (c *Config) HandleConfig() host.Config {
	return host.Config{
		RetryBudget:      c.Transaction.RetryBudget,
		BootstrapTimeout: time.Duration(c.Transaction.BootstrapTimeout) * time.Millisecond,
		MaxReadChunk:     c.Chunking.MaxReadChunk,
		MaxWriteChunk:    c.Chunking.MaxWriteChunk,
	}
}

// Load reads cfg from path, falling back to DefaultConfig if the file does
// not exist.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("hostconfig: parse %s: %w", path, err)
	}
	return cfg, nil
}

// SaveTo writes cfg to path as TOML, creating its parent directory if
// necessary.
func (c *Config) SaveTo(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("hostconfig: create directory for %s: %w", path, err)
		}
	}

	f, err := os.Create(path) // #nosec G304 -- user-specified config file path
	if err != nil {
		return fmt.Errorf("hostconfig: create %s: %w", path, err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(c); err != nil {
		return fmt.Errorf("hostconfig: encode %s: %w", path, err)
	}
	return nil
}
