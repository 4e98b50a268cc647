// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"os"

	"github.com/AleutianAI/VariantScope/cmd/variantscope/config"
	"github.com/AleutianAI/VariantScope/pkg/stream"
)

// tokenSource builds the bearer credential source from configuration.
//
// Resolution order: the environment variable named by auth.token_env,
// then the file-stored auth.token. An empty result is surfaced by the
// stream client as a precondition failure before any request is made.
func tokenSource(cfg config.AuthConfig) stream.TokenSource {
	return stream.TokenFunc(func(context.Context) (string, error) {
		if cfg.TokenEnv != "" {
			if tok := os.Getenv(cfg.TokenEnv); tok != "" {
				return tok, nil
			}
		}
		return cfg.Token, nil
	})
}

// getCoordinatorBaseURL resolves the coordinator URL from the --server
// flag or the config file.
func getCoordinatorBaseURL() string {
	if serverURL != "" {
		return serverURL
	}
	return config.Global.Coordinator.BaseURL
}

// getAnalysisMode resolves the analysis mode from the --mode flag or
// the config file.
func getAnalysisMode() string {
	if analysisMode != "" {
		return analysisMode
	}
	return config.Global.Analysis.Mode
}
