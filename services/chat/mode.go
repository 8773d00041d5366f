// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package chat

import "strings"

// Reply modes.
const (
	// ModePlain delivers the formatter output unchanged.
	ModePlain = "plain"

	// ModeAssisted rephrases the formatter output with a language model.
	ModeAssisted = "assisted"
)

// modeAliases maps accepted spellings to a canonical mode.
var modeAliases = map[string]string{
	ModePlain:    ModePlain,
	"mock":       ModePlain,
	ModeAssisted: ModeAssisted,
	"openai":     ModeAssisted,
}

// CanonicalMode maps a caller-supplied mode to ModePlain or ModeAssisted.
// Unknown and empty modes are plain.
func CanonicalMode(mode string) string {
	if m, ok := modeAliases[strings.ToLower(strings.TrimSpace(mode))]; ok {
		return m
	}
	return ModePlain
}
