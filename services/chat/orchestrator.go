// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package chat answers user messages about the company: it classifies the
// message, runs the selected knowledge tool, formats the result and, in
// assisted mode, has a language model rephrase it.
package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/AleutianAI/InstratChat/services/chat/format"
	"github.com/AleutianAI/InstratChat/services/chat/routing"
	"github.com/AleutianAI/InstratChat/services/chat/tools"
	"github.com/AleutianAI/InstratChat/services/knowledge"
)

// HelpText is the reply when no tool matches in plain mode.
const HelpText = "I'm the INSTRAT360 assistant! I can help you with:\n\n" +
	"• Company overview\n" +
	"• Employee information\n" +
	"• Project details\n" +
	"• Finding experts\n\n" +
	"What would you like to know?"

// Stage names one step of a request. Each stage is recorded as a span event.
type Stage string

// Request stages in the order a request passes through them.
const (
	StageReceived      Stage = "received"
	StageClassified    Stage = "classified"
	StageToolInvoked   Stage = "tool_invoked"
	StageNoToolMatched Stage = "no_tool_matched"
	StageFormatted     Stage = "formatted"
	StageRephrased     Stage = "rephrased"
	StageAsIs          Stage = "as_is"
	StageDelivered     Stage = "delivered"
)

// ChatRequest is one inbound message.
type ChatRequest struct {
	// Message is the raw user text.
	Message string

	// Mode is "plain" (default) or "assisted"; "mock" and "openai" are
	// accepted aliases. Unknown modes behave as plain.
	Mode string

	// Credential is the caller's language model API key. Optional.
	Credential string
}

// ReplyEnvelope is the complete structured response for one request.
type ReplyEnvelope struct {
	Response   string           `json:"response"`
	ToolCalled bool             `json:"tool_called"`
	ToolResult tools.ToolResult `json:"tool_result"`
	Mode       string           `json:"mode"`
}

// Config wires an Orchestrator.
type Config struct {
	// Store is the Knowledge Store. Required.
	Store *knowledge.Store

	// Rules overrides the embedded classification rules. Optional.
	Rules *routing.Rules

	// Generators builds language model clients for assisted mode. Optional;
	// when nil, assisted requests are answered as plain.
	Generators GeneratorFactory

	// Logger is the structured logger. Optional.
	Logger *slog.Logger
}

// Orchestrator sequences classification, tool dispatch, formatting and
// optional rephrasing for each request.
//
// Description:
//
//	Holds no per-request state. The Knowledge Store is shared read-only by
//	the classifier and the registry.
//
// Thread Safety: Safe for concurrent use.
type Orchestrator struct {
	store      *knowledge.Store
	registry   *tools.Registry
	classifier *routing.Classifier
	prompts    *PromptBuilder
	generators GeneratorFactory
	logger     *slog.Logger
}

// NewOrchestrator builds an Orchestrator from cfg.
//
// Inputs:
//
//	cfg - Wiring. cfg.Store must not be nil.
//
// Outputs:
//
//	*Orchestrator - Ready to serve requests.
//	error - Non-nil if the store is missing or rules/prompts fail to load.
func NewOrchestrator(cfg Config) (*Orchestrator, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("chat: knowledge store must not be nil")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	classifier, err := routing.NewClassifier(cfg.Store, cfg.Rules, logger)
	if err != nil {
		return nil, fmt.Errorf("chat: building classifier: %w", err)
	}

	prompts, err := NewPromptBuilder(cfg.Store.CompanyProfile().Name)
	if err != nil {
		return nil, err
	}

	return &Orchestrator{
		store:      cfg.Store,
		registry:   tools.NewRegistry(cfg.Store),
		classifier: classifier,
		prompts:    prompts,
		generators: cfg.Generators,
		logger:     logger,
	}, nil
}

// Registry returns the tool registry shared with other surfaces (MCP).
func (o *Orchestrator) Registry() *tools.Registry { return o.registry }

// Store returns the Knowledge Store.
func (o *Orchestrator) Store() *knowledge.Store { return o.store }

// AssistedAvailable reports whether a language model integration is configured.
func (o *Orchestrator) AssistedAvailable() bool {
	return o.generators != nil && o.generators.Available()
}

// HandleChat answers one message.
//
// Description:
//
//	Received → Classified → ToolInvoked | NoToolMatched → Formatted →
//	Rephrased | AsIs → Delivered. Rephrasing runs only when the mode is
//	assisted, a credential is supplied and a language model integration is
//	available. A model failure fails the request with a *ModelError; it is
//	never replaced by the plain reply.
//
// Inputs:
//
//	ctx - Context for tracing and for cancelling the model call.
//	req - The request.
//
// Outputs:
//
//	*ReplyEnvelope - The reply. Nil when err is non-nil.
//	error - *ModelError on assisted-mode failure.
//
// Thread Safety: Safe for concurrent use.
func (o *Orchestrator) HandleChat(ctx context.Context, req ChatRequest) (*ReplyEnvelope, error) {
	start := time.Now()

	mode := req.Mode
	if mode == "" {
		mode = ModePlain
	}
	canonical := CanonicalMode(mode)

	ctx, span := otel.Tracer(chatTracerName).Start(ctx, "chat.Orchestrator.HandleChat",
		trace.WithAttributes(
			attribute.String("mode", canonical),
			attribute.Int("message_len", len(req.Message)),
			attribute.Bool("credential_present", req.Credential != ""),
		),
	)
	defer span.End()
	span.AddEvent(string(StageReceived))

	intent, matched := o.classifier.Classify(ctx, req.Message)
	span.AddEvent(string(StageClassified))

	var (
		result    tools.ToolResult
		formatted string
	)
	if matched {
		result = o.invoke(ctx, intent)
		span.AddEvent(string(StageToolInvoked), trace.WithAttributes(attribute.String("tool", intent.Tool)))
		formatted = format.Format(result, intent.Tool)
		span.AddEvent(string(StageFormatted))
	} else {
		span.AddEvent(string(StageNoToolMatched))
	}

	rephrase := canonical == ModeAssisted && req.Credential != "" && o.AssistedAvailable()

	var response string
	if rephrase {
		text, err := o.rephrase(ctx, req, matched, formatted)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "external model failure")
			chatRequestsTotal.WithLabelValues(canonical, "model_error").Inc()
			o.logger.Error("assisted reply failed",
				slog.String("mode", canonical),
				slog.String("tool", intent.Tool),
				slog.String("error", err.Error()),
			)
			return nil, err
		}
		response = text
		span.AddEvent(string(StageRephrased))
	} else {
		response = formatted
		if !matched {
			response = HelpText
		}
		span.AddEvent(string(StageAsIs))
	}

	outcome := "no_tool"
	if matched {
		outcome = "tool"
	}
	chatRequestsTotal.WithLabelValues(canonical, outcome).Inc()
	chatRequestDuration.WithLabelValues(canonical, strconv.FormatBool(rephrase)).Observe(time.Since(start).Seconds())
	span.AddEvent(string(StageDelivered))
	span.SetAttributes(
		attribute.Bool("tool_called", matched),
		attribute.Bool("rephrased", rephrase),
	)

	o.logger.Debug("chat reply delivered",
		slog.String("mode", canonical),
		slog.String("tool", intent.Tool),
		slog.Bool("rephrased", rephrase),
		slog.Duration("elapsed", time.Since(start)),
	)

	return &ReplyEnvelope{
		Response:   response,
		ToolCalled: matched,
		ToolResult: result,
		Mode:       mode,
	}, nil
}

// invoke runs the tool named by intent. list_all_projects is answered
// directly from the registry without dispatch.
func (o *Orchestrator) invoke(ctx context.Context, intent routing.Intent) tools.ToolResult {
	if intent.Tool == tools.ToolListAllProjects {
		return o.registry.AllProjects()
	}
	return o.registry.Call(ctx, intent.Tool, intent.Args)
}

// rephrase sends the formatted reply (or the raw message when no tool
// matched) to the language model.
func (o *Orchestrator) rephrase(ctx context.Context, req ChatRequest, matched bool, formatted string) (string, error) {
	gen, err := o.generators.NewGenerator(req.Credential)
	if err != nil {
		return "", newModelError(fmt.Errorf("%w: %w", ErrModelUnavailable, err), req.Credential)
	}

	system := o.prompts.System()
	user := req.Message
	if matched {
		system, err = o.prompts.WithToolData(req.Message, formatted)
		if err != nil {
			return "", err
		}
		user = ToolDataUserPrompt
	}

	text, err := gen.Generate(ctx, system, user)
	if err != nil {
		return "", newModelError(err, req.Credential)
	}
	return text, nil
}
