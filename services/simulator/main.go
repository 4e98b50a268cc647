// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command simulator runs a development coordinator that speaks the
// streaming dialect the VariantScope client expects. Useful for
// working on the CLI without a real analysis backend:
//
//	go run ./services/simulator
//	variantscope chat --server http://localhost:8080
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/AleutianAI/VariantScope/services/simulator/handlers"
	"github.com/AleutianAI/VariantScope/services/simulator/routes"
	"github.com/gin-gonic/gin"
)

func main() {
	port := os.Getenv("SIMULATOR_PORT")
	if port == "" {
		port = "8080"
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	router := gin.Default()
	store := handlers.NewSessionStore()
	routes.SetupRoutes(router, store)

	slog.Info("coordinator simulator listening", "port", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("simulator failed: %v", err)
	}
}
