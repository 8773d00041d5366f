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
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/InstratChat/services/mcp"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Start the MCP server on stdio",
		Long: `Start the MCP (Model Context Protocol) server on stdio.

Tools: get_company_overview, get_employee_details, list_all_employees,
get_project_details, find_expert, ask_assistant.
Resources: company://info, company://employees, company://projects.
Prompts: company_analysis_prompt, employee_expertise_prompt, project_status_prompt.

Logs go to stderr; stdout carries the protocol.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := bindAssistantFlags(opts.v, cmd.Flags()); err != nil {
				return err
			}
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			orch, err := buildOrchestrator(cmd.Context(), cfg, slog.Default())
			if err != nil {
				return err
			}

			srv := mcp.NewServer(orch, appVersion, slog.Default())

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			if err := srv.Run(ctx); err != nil && ctx.Err() != context.Canceled {
				return fmt.Errorf("running MCP server: %w", err)
			}
			return nil
		},
	}
	addAssistantFlags(cmd.Flags())
	return cmd
}
