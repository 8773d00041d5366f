// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package mcp exposes the assistant's retrieval tools, the Knowledge Store
// tables and a few prompt templates over the Model Context Protocol.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/AleutianAI/InstratChat/services/chat"
	"github.com/AleutianAI/InstratChat/services/chat/tools"
	"github.com/AleutianAI/InstratChat/services/knowledge"
)

// ServerName is the MCP implementation name announced to clients.
const ServerName = "instrat360"

// Resource URIs.
const (
	ResourceCompanyInfo = "company://info"
	ResourceEmployees   = "company://employees"
	ResourceProjects    = "company://projects"
)

// Prompt names.
const (
	PromptCompanyAnalysis   = "company_analysis_prompt"
	PromptEmployeeExpertise = "employee_expertise_prompt"
	PromptProjectStatus     = "project_status_prompt"
)

// ToolAsk is the extra tool that runs a message through the full plain-mode
// pipeline and returns the formatted reply.
const ToolAsk = "ask_assistant"

// Server wraps the registry and orchestrator and exposes them over MCP.
type Server struct {
	server   *gomcp.Server
	orch     *chat.Orchestrator
	registry *tools.Registry
	store    *knowledge.Store
	logger   *slog.Logger
}

// NewServer creates an MCP server backed by orch.
//
// Inputs:
//
//	orch - The orchestrator. Its registry and store back the tools and resources.
//	version - Version announced to clients. Empty means "dev".
//	logger - Optional; nil uses slog.Default().
func NewServer(orch *chat.Orchestrator, version string, logger *slog.Logger) *Server {
	if version == "" {
		version = "dev"
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{
		orch:     orch,
		registry: orch.Registry(),
		store:    orch.Store(),
		logger:   logger,
	}
	s.server = gomcp.NewServer(&gomcp.Implementation{Name: ServerName, Version: version}, nil)

	s.registerTools()
	s.registerResources()
	s.registerPrompts()
	return s
}

// Run serves MCP over stdio until the client disconnects or ctx ends.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying server, for tests and custom transports.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input types ---

type emptyInput struct{}

type employeeInput struct {
	Name string `json:"name" jsonschema:"exact employee name, e.g. Marcus Johnson"`
}

type projectInput struct {
	ProjectName string `json:"project_name" jsonschema:"exact project name, e.g. Multi-Agent Framework"`
}

type expertInput struct {
	Skill string `json:"skill" jsonschema:"skill to search for; matched case-insensitively as a substring of each expertise entry"`
}

type askInput struct {
	Message string `json:"message" jsonschema:"free-text question about the company, its team, projects or experts"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	descriptions := make(map[string]string)
	for _, spec := range s.registry.Specs() {
		descriptions[spec.Name] = spec.Description
	}

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.ToolGetCompanyOverview,
		Description: descriptions[tools.ToolGetCompanyOverview],
	}, func(ctx context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, any, error) {
		return s.dispatch(ctx, tools.ToolGetCompanyOverview, nil)
	})

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.ToolGetEmployeeDetails,
		Description: descriptions[tools.ToolGetEmployeeDetails],
	}, func(ctx context.Context, _ *gomcp.CallToolRequest, in employeeInput) (*gomcp.CallToolResult, any, error) {
		return s.dispatch(ctx, tools.ToolGetEmployeeDetails, tools.Args{tools.ArgName: in.Name})
	})

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.ToolListAllEmployees,
		Description: descriptions[tools.ToolListAllEmployees],
	}, func(ctx context.Context, _ *gomcp.CallToolRequest, _ emptyInput) (*gomcp.CallToolResult, any, error) {
		return s.dispatch(ctx, tools.ToolListAllEmployees, nil)
	})

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.ToolGetProjectDetails,
		Description: descriptions[tools.ToolGetProjectDetails],
	}, func(ctx context.Context, _ *gomcp.CallToolRequest, in projectInput) (*gomcp.CallToolResult, any, error) {
		return s.dispatch(ctx, tools.ToolGetProjectDetails, tools.Args{tools.ArgProjectName: in.ProjectName})
	})

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        tools.ToolFindExpert,
		Description: descriptions[tools.ToolFindExpert],
	}, func(ctx context.Context, _ *gomcp.CallToolRequest, in expertInput) (*gomcp.CallToolResult, any, error) {
		return s.dispatch(ctx, tools.ToolFindExpert, tools.Args{tools.ArgSkill: in.Skill})
	})

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        ToolAsk,
		Description: "Ask the assistant a question in plain language. Returns the formatted reply.",
	}, s.handleAsk)
}

// dispatch runs a registry tool and returns its result as JSON text.
// A NotFound result is a normal reply, not a tool error.
func (s *Server) dispatch(ctx context.Context, name string, args tools.Args) (*gomcp.CallToolResult, any, error) {
	result, err := s.registry.Dispatch(ctx, name, args)
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return errorResult(fmt.Sprintf("encoding %s result: %s", name, err)), nil, nil
	}
	s.logger.Debug("MCP tool served", slog.String("tool", name), slog.String("kind", string(result.Kind())))
	return textResult(string(data)), nil, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *gomcp.CallToolRequest, in askInput) (*gomcp.CallToolResult, any, error) {
	reply, err := s.orch.HandleChat(ctx, chat.ChatRequest{Message: in.Message, Mode: chat.ModePlain})
	if err != nil {
		return errorResult(fmt.Sprintf("answering message: %s", err)), nil, nil
	}
	return textResult(reply.Response), nil, nil
}

// --- Resources ---

func (s *Server) registerResources() {
	s.server.AddResource(&gomcp.Resource{
		URI:         ResourceCompanyInfo,
		Name:        "company_info",
		Description: "Company information",
		MIMEType:    "application/json",
	}, s.jsonResource(func() any { return s.registry.CompanyOverview() }))

	s.server.AddResource(&gomcp.Resource{
		URI:         ResourceEmployees,
		Name:        "employees",
		Description: "Names of all employees",
		MIMEType:    "application/json",
	}, s.jsonResource(func() any {
		return map[string][]string{"employees": s.store.EmployeeNames()}
	}))

	s.server.AddResource(&gomcp.Resource{
		URI:         ResourceProjects,
		Name:        "projects",
		Description: "Names of all projects",
		MIMEType:    "application/json",
	}, s.jsonResource(func() any {
		return map[string][]string{"projects": s.store.ProjectNames()}
	}))
}

func (s *Server) jsonResource(build func() any) gomcp.ResourceHandler {
	return func(_ context.Context, req *gomcp.ReadResourceRequest) (*gomcp.ReadResourceResult, error) {
		data, err := json.Marshal(build())
		if err != nil {
			return nil, fmt.Errorf("mcp: encoding resource %s: %w", req.Params.URI, err)
		}
		return &gomcp.ReadResourceResult{
			Contents: []*gomcp.ResourceContents{{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	}
}

// --- Prompts ---

func (s *Server) registerPrompts() {
	company := s.store.CompanyProfile().Name

	s.addPrompt(PromptCompanyAnalysis, "Prompt template for company analysis", fmt.Sprintf(
		`You are analyzing %s, an agentic AI strategy platform.

Available information:
- Company overview, mission, and vision
- Employee profiles and expertise areas
- Active projects and their status

Please provide insights on:
1. Company strengths and positioning
2. Team capabilities
3. Project portfolio health`, company))

	s.addPrompt(PromptEmployeeExpertise, "Prompt template for finding the right expert", fmt.Sprintf(
		`Help find the right %s team member for a specific need.

Consider:
- Employee roles and departments
- Areas of expertise
- Current project involvement

Provide recommendations based on the query.`, company))

	s.addPrompt(PromptProjectStatus, "Prompt template for project status review", fmt.Sprintf(
		`Review %s project status and provide analysis.

Focus on:
- Current progress metrics
- Project ownership
- Status and priorities

Deliver actionable insights.`, company))
}

func (s *Server) addPrompt(name, description, text string) {
	s.server.AddPrompt(&gomcp.Prompt{
		Name:        name,
		Description: description,
	}, func(_ context.Context, _ *gomcp.GetPromptRequest) (*gomcp.GetPromptResult, error) {
		return &gomcp.GetPromptResult{
			Description: description,
			Messages: []*gomcp.PromptMessage{{
				Role:    "user",
				Content: &gomcp.TextContent{Text: text},
			}},
		}, nil
	})
}

// --- Helpers ---

func textResult(text string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: text}},
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
