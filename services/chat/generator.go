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

import (
	"context"

	"github.com/AleutianAI/InstratChat/services/chat/providers"
)

// Generator produces one reply from a system prompt and a user prompt.
//
// Implementations may block on network I/O and may fail.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GeneratorFactory builds a Generator for a caller's credential.
type GeneratorFactory interface {
	// Available reports whether a language model integration is configured.
	Available() bool

	// NewGenerator returns a Generator bound to credential.
	NewGenerator(credential string) (Generator, error)
}

// ProviderGenerators adapts a providers.ProviderFactory to GeneratorFactory.
func ProviderGenerators(f *providers.ProviderFactory) GeneratorFactory {
	return providerGenerators{f: f}
}

type providerGenerators struct {
	f *providers.ProviderFactory
}

func (p providerGenerators) Available() bool {
	return p.f != nil && p.f.Enabled()
}

func (p providerGenerators) NewGenerator(credential string) (Generator, error) {
	g, err := p.f.NewGenerator(credential)
	if err != nil {
		return nil, err
	}
	return g, nil
}
