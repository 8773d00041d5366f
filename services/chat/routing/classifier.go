// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routing maps free-text user messages to at most one knowledge tool
// using an ordered, first-match-wins keyword cascade.
package routing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/AleutianAI/InstratChat/services/chat/tools"
	"github.com/AleutianAI/InstratChat/services/knowledge"
)

var (
	classifyDecisionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "instrat",
		Subsystem: "routing",
		Name:      "decisions_total",
		Help:      "Classification outcomes by rule and tool",
	}, []string{"rule", "tool"})

	classifyLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "instrat",
		Subsystem: "routing",
		Name:      "latency_seconds",
		Help:      "Classification latency",
		Buckets:   []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001},
	})
)

var routingTracer = otel.Tracer("instrat.chat.routing")

// Intent is the classifier's decision for one message.
type Intent struct {
	// Tool is the selected tool name. tools.ToolListAllProjects is synthetic
	// and is not registered in the tool registry.
	Tool string

	// Args holds the tool arguments, nil when the tool takes none.
	Args tools.Args

	// Rule is the cascade rule that fired.
	Rule string
}

// Classifier maps user text to an Intent.
//
// Description:
//
//	Evaluates the rules in Rules.Order against the lowercased text and
//	returns the first match. Employee and project names come from the
//	knowledge store in store order, so that order is part of the observable
//	behavior.
//
// Thread Safety: Safe for concurrent use (all state is read-only after construction).
type Classifier struct {
	store  *knowledge.Store
	rules  *Rules
	logger *slog.Logger

	companyKeywords []string
	employees       []string
	employeesLower  []string
	projects        []string
	projectWords    [][]string
}

// NewClassifier builds a classifier over a knowledge store.
//
// Description:
//
//	Expands CompanyPlaceholder in the company keywords with the lowercased
//	company name and precomputes lowercased employee names and project name
//	words.
//
// Inputs:
//
//	store - Knowledge store. Must not be nil.
//	rules - Classification rules. If nil, the embedded defaults are used.
//	logger - Logger instance. If nil, slog.Default() is used.
//
// Outputs:
//
//	*Classifier - The constructed classifier.
//	error - Non-nil if the default rules could not be loaded.
func NewClassifier(store *knowledge.Store, rules *Rules, logger *slog.Logger) (*Classifier, error) {
	if rules == nil {
		var err error
		rules, err = DefaultRules(context.Background())
		if err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Classifier{
		store:  store,
		rules:  rules,
		logger: logger,
	}

	company := strings.ToLower(store.CompanyProfile().Name)
	for _, k := range rules.CompanyKeywords {
		k = strings.ReplaceAll(k, CompanyPlaceholder, company)
		if strings.TrimSpace(k) != "" {
			c.companyKeywords = append(c.companyKeywords, k)
		}
	}

	c.employees = store.EmployeeNames()
	c.employeesLower = make([]string, len(c.employees))
	for i, n := range c.employees {
		c.employeesLower[i] = strings.ToLower(n)
	}

	c.projects = store.ProjectNames()
	c.projectWords = make([][]string, len(c.projects))
	for i, n := range c.projects {
		c.projectWords[i] = strings.Fields(strings.ToLower(n))
	}

	return c, nil
}

// Classify selects at most one tool for the given text.
//
// Description:
//
//	Runs the ordered cascade: company keywords, employee names, team
//	keywords, project triggers (specific project or the synthetic
//	list_all_projects), expert triggers with the closed skill vocabulary.
//	An expert trigger without a vocabulary word falls through to the next
//	rule. The result depends only on text and the store contents.
//
// Inputs:
//
//	ctx - Context for tracing.
//	text - Raw user message.
//
// Outputs:
//
//	Intent - The decision. Zero value when ok is false.
//	bool - False when no rule matched.
//
// Thread Safety: Safe for concurrent use.
func (c *Classifier) Classify(ctx context.Context, text string) (Intent, bool) {
	start := time.Now()
	_, span := routingTracer.Start(ctx, "routing.Classify")
	defer span.End()
	defer func() { classifyLatency.Observe(time.Since(start).Seconds()) }()

	lower := strings.ToLower(text)

	for _, rule := range c.rules.Order {
		intent, ok := c.apply(rule, lower)
		if !ok {
			continue
		}
		intent.Rule = rule

		classifyDecisionsTotal.WithLabelValues(rule, intent.Tool).Inc()
		span.SetAttributes(
			attribute.String("rule", rule),
			attribute.String("tool", intent.Tool),
			attribute.Bool("matched", true),
		)
		c.logger.Debug("intent classified",
			slog.String("rule", rule),
			slog.String("tool", intent.Tool),
		)
		return intent, true
	}

	classifyDecisionsTotal.WithLabelValues("none", "none").Inc()
	span.SetAttributes(attribute.Bool("matched", false))
	return Intent{}, false
}

func (c *Classifier) apply(rule, lower string) (Intent, bool) {
	switch rule {
	case RuleCompany:
		if containsAny(lower, c.companyKeywords) {
			return Intent{Tool: tools.ToolGetCompanyOverview}, true
		}

	case RuleTeam:
		if containsAny(lower, c.rules.TeamKeywords) {
			return Intent{Tool: tools.ToolListAllEmployees}, true
		}

	case RuleEmployeeName:
		for i, name := range c.employeesLower {
			if strings.Contains(lower, name) {
				return Intent{
					Tool: tools.ToolGetEmployeeDetails,
					Args: tools.Args{tools.ArgName: c.employees[i]},
				}, true
			}
		}

	case RuleProject:
		if !containsAny(lower, c.rules.ProjectTriggers) {
			return Intent{}, false
		}
		for i, words := range c.projectWords {
			if containsAny(lower, words) {
				return Intent{
					Tool: tools.ToolGetProjectDetails,
					Args: tools.Args{tools.ArgProjectName: c.projects[i]},
				}, true
			}
		}
		return Intent{Tool: tools.ToolListAllProjects}, true

	case RuleExpert:
		if !containsAny(lower, c.rules.ExpertTriggers) {
			return Intent{}, false
		}
		for _, skill := range c.rules.SkillVocabulary {
			if strings.Contains(lower, skill) {
				return Intent{
					Tool: tools.ToolFindExpert,
					Args: tools.Args{tools.ArgSkill: skill},
				}, true
			}
		}
	}
	return Intent{}, false
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
