// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFrom_CreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".variantscope", "variantscope.yaml")

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("default config not written: %v", err)
	}
	if cfg.Coordinator.BaseURL != "http://localhost:8080" {
		t.Errorf("BaseURL = %q", cfg.Coordinator.BaseURL)
	}
	if cfg.Stream.MaxReconnectAttempts != 5 || cfg.Stream.ReconnectBaseDelayMS != 1000 {
		t.Errorf("stream defaults = %+v", cfg.Stream)
	}
	if cfg.Auth.TokenEnv != "VARIANTSCOPE_TOKEN" {
		t.Errorf("TokenEnv = %q", cfg.Auth.TokenEnv)
	}
}

func TestLoadFrom_ReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variantscope.yaml")
	contents := `coordinator:
  base_url: https://coordinator.example.com
analysis:
  mode: research
stream:
  max_reconnect_attempts: 2
  reconnect_base_delay_ms: 250
`
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if cfg.Coordinator.BaseURL != "https://coordinator.example.com" {
		t.Errorf("BaseURL = %q", cfg.Coordinator.BaseURL)
	}
	if cfg.Analysis.Mode != "research" {
		t.Errorf("Mode = %q", cfg.Analysis.Mode)
	}
	if cfg.Stream.MaxReconnectAttempts != 2 {
		t.Errorf("MaxReconnectAttempts = %d", cfg.Stream.MaxReconnectAttempts)
	}
}

func TestLoadFrom_RejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "variantscope.yaml")
	if err := os.WriteFile(path, []byte("coordinator: [broken"), 0644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Fatal("expected parse error")
	}
}
