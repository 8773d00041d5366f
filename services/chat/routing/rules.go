// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package routing

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

//go:embed routing_rules.yaml
var defaultRulesYAML []byte

// MaxRulesFileSize bounds the rules document accepted by LoadRules.
const MaxRulesFileSize = 256 * 1024

// CompanyPlaceholder is replaced by the lowercased company name when the
// classifier is built.
const CompanyPlaceholder = "{company}"

// Rule names accepted in the "order" list.
const (
	RuleCompany      = "company"
	RuleTeam         = "team"
	RuleEmployeeName = "employee_name"
	RuleProject      = "project"
	RuleExpert       = "expert"
)

var knownRules = map[string]bool{
	RuleCompany:      true,
	RuleTeam:         true,
	RuleEmployeeName: true,
	RuleProject:      true,
	RuleExpert:       true,
}

// Rules holds the keyword sets driving intent classification.
//
// Description:
//
//	Each keyword is matched as a substring of the lowercased input. Order
//	lists the rule names in evaluation order; the first match wins.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Rules struct {
	// Order is the evaluation order of the rule cascade.
	Order []string `yaml:"order"`

	// CompanyKeywords select get_company_overview. May contain CompanyPlaceholder.
	CompanyKeywords []string `yaml:"company_keywords"`

	// TeamKeywords select list_all_employees.
	TeamKeywords []string `yaml:"team_keywords"`

	// ProjectTriggers enable project name scanning.
	ProjectTriggers []string `yaml:"project_triggers"`

	// ExpertTriggers enable the skill vocabulary scan.
	ExpertTriggers []string `yaml:"expert_triggers"`

	// SkillVocabulary is the closed, ordered list of skills recognised in text.
	SkillVocabulary []string `yaml:"skill_vocabulary"`
}

var (
	rulesMu      sync.RWMutex
	rulesOnce    sync.Once
	cachedRules  *Rules
	rulesLoadErr error
)

// DefaultRules returns the embedded classification rules.
//
// Description:
//
//	Loads the embedded routing_rules.yaml on first call and caches the
//	result (or the error) for subsequent calls.
//
// Inputs:
//
//	ctx - Context for tracing. Must not be nil.
//
// Outputs:
//
//	*Rules - The loaded rules. Never nil on success.
//	error - Non-nil if loading or validation failed.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func DefaultRules(ctx context.Context) (*Rules, error) {
	if ctx == nil {
		return nil, fmt.Errorf("DefaultRules: ctx must not be nil")
	}

	rulesMu.RLock()
	if cachedRules != nil || rulesLoadErr != nil {
		r, err := cachedRules, rulesLoadErr
		rulesMu.RUnlock()
		return r, err
	}
	rulesMu.RUnlock()

	rulesMu.Lock()
	defer rulesMu.Unlock()

	rulesOnce.Do(func() {
		cachedRules, rulesLoadErr = LoadRules(ctx, defaultRulesYAML)
	})
	return cachedRules, rulesLoadErr
}

// ResetDefaultRules clears the cached rules so tests can reload them.
func ResetDefaultRules() {
	rulesMu.Lock()
	defer rulesMu.Unlock()
	cachedRules = nil
	rulesLoadErr = nil
	rulesOnce = sync.Once{}
}

// LoadRules parses and validates classification rules from YAML bytes.
//
// Description:
//
//	Keywords are trimmed and lowercased. An empty Order defaults to the
//	canonical cascade (company, employee_name, team, project, expert).
//
// Inputs:
//
//	ctx - Context for tracing.
//	data - Raw YAML bytes.
//
// Outputs:
//
//	*Rules - The validated rules.
//	error - Non-nil if parsing or validation fails.
func LoadRules(ctx context.Context, data []byte) (*Rules, error) {
	_, span := routingTracer.Start(ctx, "routing.LoadRules")
	defer span.End()

	if len(data) == 0 {
		return nil, fmt.Errorf("LoadRules: empty YAML data")
	}
	if len(data) > MaxRulesFileSize {
		return nil, fmt.Errorf("LoadRules: YAML data exceeds maximum size (%d > %d)", len(data), MaxRulesFileSize)
	}

	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("LoadRules: parsing YAML: %w", err)
	}

	if len(r.Order) == 0 {
		r.Order = []string{RuleCompany, RuleEmployeeName, RuleTeam, RuleProject, RuleExpert}
	}

	r.CompanyKeywords = normalizeKeywords(r.CompanyKeywords)
	r.TeamKeywords = normalizeKeywords(r.TeamKeywords)
	r.ProjectTriggers = normalizeKeywords(r.ProjectTriggers)
	r.ExpertTriggers = normalizeKeywords(r.ExpertTriggers)
	r.SkillVocabulary = normalizeKeywords(r.SkillVocabulary)

	if err := validateRules(&r); err != nil {
		return nil, fmt.Errorf("LoadRules: validation: %w", err)
	}

	span.SetAttributes(
		attribute.StringSlice("order", r.Order),
		attribute.Int("company_keywords", len(r.CompanyKeywords)),
		attribute.Int("team_keywords", len(r.TeamKeywords)),
		attribute.Int("skill_vocabulary", len(r.SkillVocabulary)),
	)

	slog.Debug("routing rules loaded",
		slog.Any("order", r.Order),
		slog.Int("company_keywords", len(r.CompanyKeywords)),
		slog.Int("team_keywords", len(r.TeamKeywords)),
		slog.Int("skill_vocabulary", len(r.SkillVocabulary)),
	)

	return &r, nil
}

// normalizeKeywords lowercases and trims keywords, dropping blanks.
func normalizeKeywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

func validateRules(r *Rules) error {
	seen := make(map[string]bool, len(r.Order))
	for i, name := range r.Order {
		if !knownRules[name] {
			return fmt.Errorf("order[%d]: unknown rule %q", i, name)
		}
		if seen[name] {
			return fmt.Errorf("order[%d]: rule %q listed twice", i, name)
		}
		seen[name] = true
	}

	if seen[RuleCompany] && len(r.CompanyKeywords) == 0 {
		return fmt.Errorf("company_keywords must not be empty")
	}
	if seen[RuleTeam] && len(r.TeamKeywords) == 0 {
		return fmt.Errorf("team_keywords must not be empty")
	}
	if seen[RuleProject] && len(r.ProjectTriggers) == 0 {
		return fmt.Errorf("project_triggers must not be empty")
	}
	if seen[RuleExpert] {
		if len(r.ExpertTriggers) == 0 {
			return fmt.Errorf("expert_triggers must not be empty")
		}
		if len(r.SkillVocabulary) == 0 {
			return fmt.Errorf("skill_vocabulary must not be empty")
		}
	}
	return nil
}
