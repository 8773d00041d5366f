// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import (
	"regexp"
	"strings"
)

// redactionPattern pairs a compiled regex with a replacement label.
type redactionPattern struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// redactionPatterns is the ordered list of secret patterns to redact.
//
// Order matters: more specific prefixes (sk-ant-, sk-proj-) come before the
// generic sk- pattern so a key is labelled by its provider.
var redactionPatterns = []redactionPattern{
	{
		Pattern:     regexp.MustCompile(`sk-ant-[A-Za-z0-9]+-[A-Za-z0-9_-]{20,}`),
		Replacement: "[REDACTED:anthropic_key]",
	},
	{
		Pattern:     regexp.MustCompile(`sk-proj-[A-Za-z0-9_-]{20,}`),
		Replacement: "[REDACTED:openai_key]",
	},
	{
		Pattern:     regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
		Replacement: "[REDACTED:openai_key]",
	},
	{
		Pattern:     regexp.MustCompile(`Bearer\s+[A-Za-z0-9._-]{10,}`),
		Replacement: "[REDACTED:bearer_token]",
	},
	{
		Pattern:     regexp.MustCompile(`key=[A-Za-z0-9._-]{10,}`),
		Replacement: "key=[REDACTED]",
	},
}

// credentialPlaceholder replaces an exact caller-supplied credential.
const credentialPlaceholder = "[REDACTED:credential]"

// minCredentialLen guards against redacting every occurrence of a trivially
// short string such as "a".
const minCredentialLen = 6

// SafeLogString redacts known secret patterns from a string.
//
// Description:
//
//	Replaces API keys, bearer tokens and key= query parameters with a
//	labelled placeholder so logs and error bodies returned to callers
//	never carry a credential.
//
// Inputs:
//   - s: The string to redact. Empty string returns empty string.
//
// Outputs:
//   - string: The input with all matched secret patterns replaced.
//
// Limitations:
//   - Pattern-based only. Use RedactCredential when the exact secret is known.
//
// Thread Safety: This function is safe for concurrent use.
func SafeLogString(s string) string {
	if s == "" {
		return s
	}
	for _, p := range redactionPatterns {
		s = p.Pattern.ReplaceAllString(s, p.Replacement)
	}
	return s
}

// RedactCredential applies SafeLogString and additionally removes every
// literal occurrence of credential.
//
// Per-request credentials may not match any known key format, so the
// exact value is stripped first. Credentials shorter than six characters
// are left to pattern matching.
func RedactCredential(s, credential string) string {
	if len(credential) >= minCredentialLen {
		s = strings.ReplaceAll(s, credential, credentialPlaceholder)
	}
	return SafeLogString(s)
}
