// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package datatypes provides request and wire types for the coordinator
// simulator.
package datatypes

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// MaxInputTextBytes is the maximum size of one submitted question.
// Byte length, not rune count, so oversized payloads are rejected
// before any processing.
const MaxInputTextBytes = 32 * 1024 // 32KB

// runValidate is the validator instance for run requests.
// Initialized in init() with custom validators.
var runValidate *validator.Validate

func init() {
	runValidate = validator.New()
	_ = runValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxInputTextBytes
}

// RunRequest is the body of POST /run.
//
// # Fields
//
//   - InputText: Required. The user's question or instruction.
//   - SessionID: Optional. Continue an existing session.
//   - AnalysisMode: Optional. "clinical" or "research".
type RunRequest struct {
	InputText    string `json:"input_text" binding:"required"`
	SessionID    string `json:"session_id"`
	AnalysisMode string `json:"analysis_mode" binding:"omitempty,oneof=clinical research"`
}

// Validate applies the custom constraints gin's binding tags cannot
// express.
func (r *RunRequest) Validate() error {
	if err := runValidate.Var(r.InputText, "maxbytes"); err != nil {
		return fmt.Errorf("input_text exceeds %d bytes", MaxInputTextBytes)
	}
	return nil
}

// SessionUpdateRequest is the body of POST /sessions/:sessionId/update.
// Nil pointers leave the field unchanged.
type SessionUpdateRequest struct {
	Title        *string  `json:"title"`
	Notes        *string  `json:"notes"`
	Tags         []string `json:"tags"`
	AnalysisMode string   `json:"analysis_mode" binding:"omitempty,oneof=clinical research"`
}
