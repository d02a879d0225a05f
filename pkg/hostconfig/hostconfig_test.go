// Copyright (c) 2021 by library authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hostconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Transaction.RetryBudget != 3 {
		t.Errorf("RetryBudget = %d; want 3", cfg.Transaction.RetryBudget)
	}
	if cfg.Transaction.BootstrapTimeout != 500 {
		t.Errorf("BootstrapTimeout = %d; want 500", cfg.Transaction.BootstrapTimeout)
	}
	if cfg.Chunking.MaxReadChunk != 0 {
		t.Errorf("MaxReadChunk = %d; want 0 (no override)", cfg.Chunking.MaxReadChunk)
	}
}

func TestSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "hostconfig.toml")

	cfg := DefaultConfig()
	cfg.Transaction.RetryBudget = 5
	cfg.Transaction.BootstrapTimeout = 1000
	cfg.Chunking.MaxReadChunk = 4096

	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config file was not created: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Transaction.RetryBudget != 5 {
		t.Errorf("RetryBudget = %d; want 5", loaded.Transaction.RetryBudget)
	}
	if loaded.Transaction.BootstrapTimeout != 1000 {
		t.Errorf("BootstrapTimeout = %d; want 1000", loaded.Transaction.BootstrapTimeout)
	}
	if loaded.Chunking.MaxReadChunk != 4096 {
		t.Errorf("MaxReadChunk = %d; want 4096", loaded.Chunking.MaxReadChunk)
	}
}

func TestLoadNonExistentReturnsDefaults(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "nonexistent.toml")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Transaction.RetryBudget != DefaultConfig().Transaction.RetryBudget {
		t.Error("Load() on a missing file did not return defaults")
	}
}

func TestLoadInvalidTOML(t *testing.T) {
	tempDir := t.TempDir()
	path := filepath.Join(tempDir, "invalid.toml")

	if err := os.WriteFile(path, []byte("[transaction]\nretry_budget = \"not a number\"\n"), 0644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() expected error on invalid TOML")
	}
}

func TestHandleConfigTranslation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Transaction.RetryBudget = 7
	cfg.Transaction.BootstrapTimeout = 250
	cfg.Chunking.MaxReadChunk = 64
	cfg.Chunking.MaxWriteChunk = 48

	hc := cfg.HandleConfig()
	if hc.RetryBudget != 7 {
		t.Errorf("RetryBudget = %d; want 7", hc.RetryBudget)
	}
	if hc.BootstrapTimeout.Milliseconds() != 250 {
		t.Errorf("BootstrapTimeout = %v; want 250ms", hc.BootstrapTimeout)
	}
	if hc.MaxReadChunk != 64 || hc.MaxWriteChunk != 48 {
		t.Errorf("chunk caps = %d/%d; want 64/48", hc.MaxReadChunk, hc.MaxWriteChunk)
	}
}
