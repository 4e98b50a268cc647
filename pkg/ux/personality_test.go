// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package ux

import "testing"

func TestParsePersonalityLevel(t *testing.T) {
	tests := []struct {
		input string
		want  PersonalityLevel
	}{
		{"full", PersonalityFull},
		{"standard", PersonalityStandard},
		{"minimal", PersonalityMinimal},
		{"machine", PersonalityMachine},
		{"MACHINE", PersonalityMachine},
		{"min", PersonalityMinimal},
		{"", PersonalityStandard},
		{"bogus", PersonalityStandard},
	}
	for _, tt := range tests {
		if got := ParsePersonalityLevel(tt.input); got != tt.want {
			t.Errorf("ParsePersonalityLevel(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSetPersonalityLevel(t *testing.T) {
	saved := GetPersonality()
	defer SetPersonality(saved)

	SetPersonalityLevel(PersonalityMinimal)
	if got := GetPersonality().Level; got != PersonalityMinimal {
		t.Errorf("Level = %q, want minimal", got)
	}
}
