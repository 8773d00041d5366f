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
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// LangChainClient implements LLMClient on top of langchaingo's OpenAI model.
//
// Description:
//
//	Sends the conversation through llms.Model.GenerateContent. Useful for
//	OpenAI-compatible endpoints that langchaingo already knows how to talk
//	to, and as an alternative to the raw HTTP OpenAIClient.
//
// Thread Safety: LangChainClient is safe for concurrent use.
type LangChainClient struct {
	model     llms.Model
	modelName string
}

// NewLangChainClient builds a langchaingo OpenAI model for one credential.
//
// Inputs:
//   - apiKey: The API key. Must not be empty.
//   - model: Model name. Empty uses DefaultOpenAIModel.
//   - baseURL: Optional API base URL (e.g. "https://api.openai.com/v1").
//
// Outputs:
//   - *LangChainClient: The configured client.
//   - error: Non-nil if the key is empty or langchaingo rejects the options.
func NewLangChainClient(apiKey, model, baseURL string) (*LangChainClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("langchain: API key is missing")
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	m, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("langchain: creating OpenAI model: %w", err)
	}
	return &LangChainClient{model: m, modelName: model}, nil
}

// NewLangChainClientFromModel wraps an existing llms.Model.
func NewLangChainClientFromModel(m llms.Model, modelName string) *LangChainClient {
	return &LangChainClient{model: m, modelName: modelName}
}

// Model returns the configured model name.
func (c *LangChainClient) Model() string { return c.modelName }

// Generate implements the LLMClient interface.
func (c *LangChainClient) Generate(ctx context.Context, prompt string, params GenerationParams) (string, error) {
	return c.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, params)
}

// Chat implements LLMClient.Chat via llms.Model.GenerateContent.
func (c *LangChainClient) Chat(ctx context.Context, messages []Message, params GenerationParams) (string, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		content = append(content, llms.TextParts(langchainRole(msg.Role), msg.Content))
	}

	var callOpts []llms.CallOption
	if params.Temperature != nil {
		callOpts = append(callOpts, llms.WithTemperature(float64(*params.Temperature)))
	}
	if params.MaxTokens != nil {
		callOpts = append(callOpts, llms.WithMaxTokens(*params.MaxTokens))
	}
	if params.TopP != nil {
		callOpts = append(callOpts, llms.WithTopP(float64(*params.TopP)))
	}
	if len(params.Stop) > 0 {
		callOpts = append(callOpts, llms.WithStopWords(params.Stop))
	}
	if params.ModelOverride != "" {
		callOpts = append(callOpts, llms.WithModel(params.ModelOverride))
	}

	slog.Debug("Chat via langchaingo", slog.String("model", c.modelName), slog.Int("messages", len(messages)))

	resp, err := c.model.GenerateContent(ctx, content, callOpts...)
	if err != nil {
		return "", fmt.Errorf("langchain: generate content: %w", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("langchain: returned no choices")
	}
	return resp.Choices[0].Content, nil
}

func langchainRole(role string) llms.ChatMessageType {
	switch strings.ToLower(role) {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}
