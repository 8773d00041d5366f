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
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/InstratChat/services/llm"
)

// OpenAIChatAdapter wraps llm.OpenAIClient to implement ChatClient.
type OpenAIChatAdapter struct {
	client *llm.OpenAIClient
}

// NewOpenAIChatAdapter creates a new OpenAIChatAdapter.
func NewOpenAIChatAdapter(client *llm.OpenAIClient) *OpenAIChatAdapter {
	return &OpenAIChatAdapter{client: client}
}

// Chat implements ChatClient by delegating to OpenAIClient.Chat.
func (a *OpenAIChatAdapter) Chat(ctx context.Context, messages []llm.Message, opts ChatOptions) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("OpenAI client is nil")
	}
	return observedChat(ctx, ProviderOpenAI, "providers.OpenAIChatAdapter.Chat", a.client, messages, opts)
}

// Model returns the wrapped client's model, or "" for a nil client.
func (a *OpenAIChatAdapter) Model() string {
	if a.client == nil {
		return ""
	}
	return a.client.Model()
}

// AnthropicChatAdapter wraps llm.AnthropicClient to implement ChatClient.
type AnthropicChatAdapter struct {
	client *llm.AnthropicClient
}

// NewAnthropicChatAdapter creates a new AnthropicChatAdapter.
func NewAnthropicChatAdapter(client *llm.AnthropicClient) *AnthropicChatAdapter {
	return &AnthropicChatAdapter{client: client}
}

// Chat implements ChatClient by delegating to AnthropicClient.Chat.
func (a *AnthropicChatAdapter) Chat(ctx context.Context, messages []llm.Message, opts ChatOptions) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("Anthropic client is nil")
	}
	return observedChat(ctx, ProviderAnthropic, "providers.AnthropicChatAdapter.Chat", a.client, messages, opts)
}

// Model returns the wrapped client's model, or "" for a nil client.
func (a *AnthropicChatAdapter) Model() string {
	if a.client == nil {
		return ""
	}
	return a.client.Model()
}

// LangChainChatAdapter wraps llm.LangChainClient to implement ChatClient.
type LangChainChatAdapter struct {
	client *llm.LangChainClient
}

// NewLangChainChatAdapter creates a new LangChainChatAdapter.
func NewLangChainChatAdapter(client *llm.LangChainClient) *LangChainChatAdapter {
	return &LangChainChatAdapter{client: client}
}

// Chat implements ChatClient by delegating to LangChainClient.Chat.
func (a *LangChainChatAdapter) Chat(ctx context.Context, messages []llm.Message, opts ChatOptions) (string, error) {
	if a.client == nil {
		return "", fmt.Errorf("LangChain client is nil")
	}
	return observedChat(ctx, ProviderLangChain, "providers.LangChainChatAdapter.Chat", a.client, messages, opts)
}

// Model returns the wrapped client's model, or "" for a nil client.
func (a *LangChainChatAdapter) Model() string {
	if a.client == nil {
		return ""
	}
	return a.client.Model()
}

// observedChat runs one chat call inside a span and records metrics.
func observedChat(ctx context.Context, provider, spanName string, client llm.LLMClient,
	messages []llm.Message, opts ChatOptions) (string, error) {

	ctx, span := otel.Tracer(chatTracerName).Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("provider", provider),
			attribute.Int("message_count", len(messages)),
			attribute.Float64("temperature", opts.Temperature),
		),
	)
	defer span.End()

	startTime := time.Now()
	result, err := client.Chat(ctx, messages, opts.params())
	duration := time.Since(startTime)

	recordChatMetrics(provider, duration, err)
	if err != nil {
		// Provider errors may echo request headers; spans get the redacted text.
		safe := llm.SafeLogString(err.Error())
		span.RecordError(errors.New(safe))
		span.SetStatus(codes.Error, safe)
		return "", err
	}

	span.SetAttributes(attribute.Int("response_len", len(result)))
	return result, nil
}
