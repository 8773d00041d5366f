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
	"bytes"
	"fmt"
	"text/template"

	"github.com/AleutianAI/InstratChat/services/chat/tools"
)

// ToolDataUserPrompt is the user turn sent when tool data is embedded in the
// system prompt.
const ToolDataUserPrompt = "Please provide a response based on the tool data above."

// promptTool is one line of the tool list in the system prompt.
type promptTool struct {
	Name    string
	Summary string
}

// promptTools lists the tools advertised to the model, in display order.
var promptTools = []promptTool{
	{Name: tools.ToolGetCompanyOverview, Summary: "Get company information"},
	{Name: tools.ToolListAllEmployees, Summary: "Get list of employees"},
	{Name: tools.ToolGetEmployeeDetails, Summary: "Get specific employee info"},
	{Name: tools.ToolGetProjectDetails, Summary: "Get project information"},
	{Name: tools.ToolFindExpert, Summary: "Find expert by skill"},
}

const systemPromptTemplate = `You are an AI assistant for {{.Company}}, an agentic AI strategy platform.

You have access to these MCP tools:
{{- range .Tools}}
- {{.Name}}: {{.Summary}}
{{- end}}

When you receive tool results, provide a natural, conversational response based on that data.
Keep responses clear, friendly, and informative.`

const toolContextTemplate = `{{.System}}

The user asked: "{{.Message}}"

I've already retrieved this information from our MCP tools:
{{.Formatted}}

Please provide a natural, friendly response based on this data. The data is already well-formatted, so you can present it directly or add some context.`

// PromptBuilder renders the system prompts for assisted replies.
//
// Thread Safety: PromptBuilder is safe for concurrent use.
type PromptBuilder struct {
	system      string
	toolContext *template.Template
}

type toolContextData struct {
	System    string
	Message   string
	Formatted string
}

// NewPromptBuilder parses the prompt templates for a company.
//
// Inputs:
//   - company: Company name shown to the model.
//
// Outputs:
//   - *PromptBuilder: The builder with the base system prompt pre-rendered.
//   - error: Non-nil if a template fails to parse or render.
func NewPromptBuilder(company string) (*PromptBuilder, error) {
	sysTmpl, err := template.New("system").Parse(systemPromptTemplate)
	if err != nil {
		return nil, fmt.Errorf("chat: parsing system prompt: %w", err)
	}

	var buf bytes.Buffer
	if err := sysTmpl.Execute(&buf, struct {
		Company string
		Tools   []promptTool
	}{Company: company, Tools: promptTools}); err != nil {
		return nil, fmt.Errorf("chat: rendering system prompt: %w", err)
	}

	ctxTmpl, err := template.New("tool_context").Parse(toolContextTemplate)
	if err != nil {
		return nil, fmt.Errorf("chat: parsing tool context prompt: %w", err)
	}

	return &PromptBuilder{system: buf.String(), toolContext: ctxTmpl}, nil
}

// System returns the base system prompt.
func (p *PromptBuilder) System() string { return p.system }

// WithToolData embeds the user's message and the formatted tool result into
// the system prompt.
func (p *PromptBuilder) WithToolData(message, formatted string) (string, error) {
	var buf bytes.Buffer
	err := p.toolContext.Execute(&buf, toolContextData{
		System:    p.system,
		Message:   message,
		Formatted: formatted,
	})
	if err != nil {
		return "", fmt.Errorf("chat: rendering tool context prompt: %w", err)
	}
	return buf.String(), nil
}
