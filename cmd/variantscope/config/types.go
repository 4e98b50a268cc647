// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package config

type VariantScopeConfig struct {
	// Coordinator: where the variants coordinator service lives
	Coordinator CoordinatorConfig `yaml:"coordinator"`

	// Auth: how the bearer credential is obtained
	Auth AuthConfig `yaml:"auth"`

	// Analysis: default analysis behavior
	Analysis AnalysisConfig `yaml:"analysis"`

	// Stream: connection lifecycle tuning
	Stream StreamConfig `yaml:"stream"`

	// Logging: CLI log destination and level
	Logging LoggingConfig `yaml:"logging"`
}

type CoordinatorConfig struct {
	BaseURL string `yaml:"base_url"` // e.g. http://localhost:8080
}

type AuthConfig struct {
	// TokenEnv names the environment variable holding the bearer token.
	// The environment always wins over the file-stored token.
	TokenEnv string `yaml:"token_env"`

	// Token is a file-stored bearer token. Prefer TokenEnv; anything in
	// this file ends up in plain text on disk.
	Token string `yaml:"token,omitempty"`
}

type AnalysisConfig struct {
	// Mode is "clinical" or "research"
	Mode string `yaml:"mode"`
}

type StreamConfig struct {
	MaxReconnectAttempts int `yaml:"max_reconnect_attempts"` // e.g. 5
	ReconnectBaseDelayMS int `yaml:"reconnect_base_delay_ms"` // e.g. 1000
}

type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
	Dir   string `yaml:"dir,omitempty"`
}

func DefaultConfig() VariantScopeConfig {
	return VariantScopeConfig{
		Coordinator: CoordinatorConfig{
			BaseURL: "http://localhost:8080",
		},
		Auth: AuthConfig{
			TokenEnv: "VARIANTSCOPE_TOKEN",
		},
		Analysis: AnalysisConfig{
			Mode: "clinical",
		},
		Stream: StreamConfig{
			MaxReconnectAttempts: 5,
			ReconnectBaseDelayMS: 1000,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
