// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/AleutianAI/InstratChat/services/chat"
	"github.com/AleutianAI/InstratChat/services/chat/providers"
	"github.com/AleutianAI/InstratChat/services/chat/routing"
	"github.com/AleutianAI/InstratChat/services/config"
	"github.com/AleutianAI/InstratChat/services/knowledge"
)

// buildOrchestrator wires the knowledge store, classifier rules and model
// provider named by cfg.
//
// Description:
//
//	An empty knowledge_file or rules_file uses the embedded defaults. The
//	provider factory is built even for provider "none"; the orchestrator
//	then answers assisted requests as plain.
func buildOrchestrator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*chat.Orchestrator, error) {
	store, err := loadStore(ctx, cfg.KnowledgeFile)
	if err != nil {
		return nil, err
	}

	var rules *routing.Rules
	if cfg.RulesFile != "" {
		data, err := os.ReadFile(cfg.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("reading rules file: %w", err)
		}
		rules, err = routing.LoadRules(ctx, data)
		if err != nil {
			return nil, err
		}
	}

	factory, err := providers.NewProviderFactory(cfg.LLM, logger)
	if err != nil {
		return nil, err
	}

	logger.Debug("Assistant configured",
		slog.String("company", store.CompanyProfile().Name),
		slog.Int("employees", len(store.EmployeeNames())),
		slog.Int("projects", len(store.ProjectNames())),
		slog.String("llm_provider", factory.Config().Provider),
		slog.String("llm_model", factory.Config().EffectiveModel()),
	)

	return chat.NewOrchestrator(chat.Config{
		Store:      store,
		Rules:      rules,
		Generators: chat.ProviderGenerators(factory),
		Logger:     logger,
	})
}

func loadStore(ctx context.Context, path string) (*knowledge.Store, error) {
	if path == "" {
		return knowledge.Default()
	}
	return knowledge.LoadFile(ctx, path)
}
