// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package providers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AleutianAI/InstratChat/services/llm"
)

// ErrProviderDisabled is returned when the configured provider is "none".
var ErrProviderDisabled = errors.New("language model provider disabled")

// ErrMissingCredential is returned when no API key accompanies a request.
var ErrMissingCredential = errors.New("language model credential missing")

// ProviderFactory creates ChatClient adapters from the server configuration
// and a per-request credential.
//
// Thread Safety: ProviderFactory is safe for concurrent use after construction.
type ProviderFactory struct {
	cfg    ProviderConfig
	logger *slog.Logger
}

// NewProviderFactory creates a new ProviderFactory.
//
// Inputs:
//   - cfg: Server-side provider configuration. Validated here.
//   - logger: Logger instance. If nil, slog.Default() is used.
//
// Outputs:
//   - *ProviderFactory: Configured factory.
//   - error: Non-nil if cfg is invalid.
func NewProviderFactory(cfg ProviderConfig, logger *slog.Logger) (*ProviderFactory, error) {
	if logger == nil {
		logger = slog.Default()
	}
	requested := strings.TrimSpace(cfg.Model)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("providers: %w", err)
	}
	if requested != cfg.Model {
		logger.Warn("Model does not belong to provider, using provider default",
			slog.String("provider", cfg.Provider),
			slog.String("model", requested),
			slog.String("inferred_provider", InferProvider(requested)),
		)
	}
	return &ProviderFactory{cfg: cfg, logger: logger}, nil
}

// Endpoint paths appended to ProviderConfig.BaseURL.
const (
	openAIChatPath    = "/chat/completions"
	anthropicChatPath = "/messages"
)

// endpointURL joins an API base and an endpoint path. An empty base stays
// empty so the client uses its default; a base already ending in path is
// kept as is.
func endpointURL(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" || strings.HasSuffix(base, path) {
		return base
	}
	return base + path
}

// apiBase is the inverse of endpointURL, for clients that append the
// endpoint path themselves.
func apiBase(base, path string) string {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	return strings.TrimSuffix(base, path)
}

// Config returns the validated configuration.
func (f *ProviderFactory) Config() ProviderConfig { return f.cfg }

// Enabled reports whether a provider other than "none" is configured.
func (f *ProviderFactory) Enabled() bool { return f.cfg.Provider != ProviderNone }

// CreateChatClient creates a ChatClient for one credential.
//
// Description:
//
//	Builds the provider client with the caller's API key. Nothing is cached:
//	credentials never outlive the request that brought them.
//
// Inputs:
//   - apiKey: The caller-supplied credential. Must not be empty.
//
// Outputs:
//   - ChatClient: The chat adapter for the configured provider.
//   - error: ErrProviderDisabled, ErrMissingCredential, or a construction error.
func (f *ProviderFactory) CreateChatClient(apiKey string) (ChatClient, error) {
	if !f.Enabled() {
		return nil, ErrProviderDisabled
	}
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	switch f.cfg.Provider {
	case ProviderOpenAI:
		return NewOpenAIChatAdapter(llm.NewOpenAIClientWithConfig(apiKey, f.cfg.Model,
			endpointURL(f.cfg.BaseURL, openAIChatPath))), nil

	case ProviderAnthropic:
		return NewAnthropicChatAdapter(llm.NewAnthropicClientWithConfig(apiKey, f.cfg.Model,
			endpointURL(f.cfg.BaseURL, anthropicChatPath))), nil

	case ProviderLangChain:
		client, err := llm.NewLangChainClient(apiKey, f.cfg.Model, apiBase(f.cfg.BaseURL, openAIChatPath))
		if err != nil {
			return nil, fmt.Errorf("creating LangChain client: %w", err)
		}
		return NewLangChainChatAdapter(client), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %q (valid: %v)", f.cfg.Provider, ValidProviders)
	}
}

// NewGenerator returns a Generator bound to one credential.
func (f *ProviderFactory) NewGenerator(apiKey string) (*ChatGenerator, error) {
	client, err := f.CreateChatClient(apiKey)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("language model client created",
		slog.String("provider", f.cfg.Provider),
		slog.String("model", client.Model()),
	)
	return NewChatGenerator(client, ChatOptions{
		Temperature: f.cfg.Temperature,
		MaxTokens:   f.cfg.MaxTokens,
	}), nil
}

// ChatGenerator turns a system prompt and a user prompt into one reply.
type ChatGenerator struct {
	client ChatClient
	opts   ChatOptions
}

// NewChatGenerator wraps a ChatClient with fixed options.
func NewChatGenerator(client ChatClient, opts ChatOptions) *ChatGenerator {
	return &ChatGenerator{client: client, opts: opts}
}

// Generate sends a system message followed by a user message.
func (g *ChatGenerator) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return g.client.Chat(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: systemPrompt},
		{Role: llm.RoleUser, Content: userPrompt},
	}, g.opts)
}
