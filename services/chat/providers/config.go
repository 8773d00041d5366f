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
	"fmt"
	"slices"
	"strings"

	"github.com/AleutianAI/InstratChat/services/llm"
)

// Provider constants for supported LLM providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderLangChain = "langchain"
	ProviderNone      = "none"
)

// DefaultTemperature is the sampling temperature for rephrasing.
const DefaultTemperature = 0.7

// ValidProviders contains the set of valid provider names.
var ValidProviders = []string{ProviderOpenAI, ProviderAnthropic, ProviderLangChain, ProviderNone}

// ProviderConfig holds the server-side settings for the assisted-mode model.
//
// Description:
//
//	The API key is not part of the server configuration: each request
//	brings its own credential, which the factory combines with this config.
type ProviderConfig struct {
	// Provider is the backend: "openai", "anthropic", "langchain" or "none".
	Provider string `mapstructure:"provider"`

	// Model is the provider-specific model identifier. Empty uses the
	// provider's default (gpt-3.5-turbo for openai and langchain).
	Model string `mapstructure:"model"`

	// BaseURL is an optional API base override, e.g.
	// "https://api.openai.com/v1". The same form works for every provider:
	// the factory appends the openai and anthropic endpoint paths, and
	// langchain takes the base as is.
	BaseURL string `mapstructure:"base_url"`

	// Temperature is sent with every rephrasing request.
	Temperature float64 `mapstructure:"temperature"`

	// MaxTokens limits the reply length. Zero uses the provider default.
	MaxTokens int `mapstructure:"max_tokens"`
}

// DefaultProviderConfig returns the OpenAI configuration the assistant was
// built around. The model is left empty so the client applies
// llm.DefaultOpenAIModel.
func DefaultProviderConfig() ProviderConfig {
	return ProviderConfig{
		Provider:    ProviderOpenAI,
		Temperature: DefaultTemperature,
	}
}

// IsValidProvider checks if a provider name is valid.
func IsValidProvider(provider string) bool {
	return slices.Contains(ValidProviders, provider)
}

// Validate normalizes the provider name and checks it.
//
// Description:
//
//	A model whose name belongs to another provider (a "gpt-*" model with
//	provider anthropic, a "claude-*" model with openai) is cleared so the
//	provider's own default is used instead.
func (c *ProviderConfig) Validate() error {
	c.Provider = strings.ToLower(strings.TrimSpace(c.Provider))
	if c.Provider == "" {
		c.Provider = ProviderNone
	}
	if !IsValidProvider(c.Provider) {
		return fmt.Errorf("unsupported provider: %q (valid: %v)", c.Provider, ValidProviders)
	}
	c.Model = strings.TrimSpace(c.Model)
	if !c.modelFitsProvider() {
		c.Model = ""
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature %.2f out of range [0, 2]", c.Temperature)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must not be negative")
	}
	return nil
}

// EffectiveModel returns Model, or the provider's default when Model is
// empty. It is "" for provider none.
func (c ProviderConfig) EffectiveModel() string {
	if c.Model != "" || c.Provider == ProviderNone {
		return c.Model
	}
	if c.Provider == ProviderAnthropic {
		return llm.DefaultAnthropicModel
	}
	return llm.DefaultOpenAIModel
}

// modelFitsProvider reports whether Model can be sent to Provider. Names
// InferProvider does not recognise are trusted. langchain talks to the
// OpenAI API, so it takes OpenAI model names.
func (c *ProviderConfig) modelFitsProvider() bool {
	inferred := InferProvider(c.Model)
	switch {
	case inferred == "" || c.Provider == ProviderNone:
		return true
	case c.Provider == ProviderLangChain:
		return inferred == ProviderOpenAI
	default:
		return inferred == c.Provider
	}
}

// InferProvider infers the provider from a model name prefix.
//
// Description:
//
//	"claude-*" maps to anthropic, "gpt-*" to openai, anything else to "".
func InferProvider(model string) string {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic
	case strings.HasPrefix(model, "gpt-"):
		return ProviderOpenAI
	default:
		return ""
	}
}
