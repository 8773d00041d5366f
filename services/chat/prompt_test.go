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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPromptBuilder_System(t *testing.T) {
	p, err := NewPromptBuilder("INSTRAT360")
	require.NoError(t, err)

	want := "You are an AI assistant for INSTRAT360, an agentic AI strategy platform.\n\n" +
		"You have access to these MCP tools:\n" +
		"- get_company_overview: Get company information\n" +
		"- list_all_employees: Get list of employees\n" +
		"- get_employee_details: Get specific employee info\n" +
		"- get_project_details: Get project information\n" +
		"- find_expert: Find expert by skill\n\n" +
		"When you receive tool results, provide a natural, conversational response based on that data.\n" +
		"Keep responses clear, friendly, and informative."
	assert.Equal(t, want, p.System())
}

func TestPromptBuilder_WithToolData(t *testing.T) {
	p, err := NewPromptBuilder("INSTRAT360")
	require.NoError(t, err)

	got, err := p.WithToolData(`who is "Sarah" <b>`, "**Sarah Chen**")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(got, p.System()+"\n\n"))
	assert.Contains(t, got, `The user asked: "who is "Sarah" <b>"`)
	assert.Contains(t, got, "I've already retrieved this information from our MCP tools:\n**Sarah Chen**\n\n")
	assert.True(t, strings.HasSuffix(got, "so you can present it directly or add some context."))
}
