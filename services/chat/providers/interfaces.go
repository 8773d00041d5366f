// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package providers builds the language-model clients used for assisted
// replies. A client is created per request from the caller's credential and
// the server's provider configuration.
//
// Thread Safety:
//
//	All types in this package are safe for concurrent use.
package providers

import (
	"context"

	"github.com/AleutianAI/InstratChat/services/llm"
)

// ChatClient is the minimal interface every provider adapter implements.
//
// Thread Safety: Implementations must be safe for concurrent use.
type ChatClient interface {
	// Chat sends messages and returns the assistant's response text.
	//
	// Inputs:
	//   - ctx: Context for cancellation.
	//   - messages: Conversation messages (system, user, assistant).
	//   - opts: Provider-agnostic chat options.
	//
	// Outputs:
	//   - string: The assistant's response text.
	//   - error: Non-nil on failure.
	Chat(ctx context.Context, messages []llm.Message, opts ChatOptions) (string, error)

	// Model returns the model name requests are sent with, after the
	// provider's default has been applied.
	Model() string
}

// ChatOptions holds provider-agnostic options for a chat request.
type ChatOptions struct {
	// Temperature controls randomness. A negative value omits it from the
	// request and uses the provider's default. Zero is an explicit setting.
	Temperature float64

	// MaxTokens limits the response length. Zero uses the provider default.
	MaxTokens int
}

func (o ChatOptions) params() llm.GenerationParams {
	params := llm.GenerationParams{}
	if o.Temperature >= 0 {
		params.Temperature = llm.Float32Ptr(float32(o.Temperature))
	}
	if o.MaxTokens > 0 {
		params.MaxTokens = llm.IntPtr(o.MaxTokens)
	}
	return params
}
