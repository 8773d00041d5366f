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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AleutianAI/InstratChat/services/chat"
	"github.com/AleutianAI/InstratChat/services/chat/api"
)

// chatReply is the reply envelope as the CLI sees it. The tool result is
// kept raw; the CLI only prints the rendered response.
type chatReply struct {
	Response   string          `json:"response"`
	ToolCalled bool            `json:"tool_called"`
	ToolResult json.RawMessage `json:"tool_result"`
	Mode       string          `json:"mode"`
}

// assistant answers one message, in-process or over HTTP.
type assistant interface {
	Ask(ctx context.Context, message, mode, apiKey string) (*chatReply, error)
}

// localAssistant answers with an in-process orchestrator.
type localAssistant struct {
	orch *chat.Orchestrator
}

func (a *localAssistant) Ask(ctx context.Context, message, mode, apiKey string) (*chatReply, error) {
	env, err := a.orch.HandleChat(ctx, chat.ChatRequest{Message: message, Mode: mode, Credential: apiKey})
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(env.ToolResult)
	if err != nil {
		return nil, fmt.Errorf("encoding tool result: %w", err)
	}
	return &chatReply{
		Response:   env.Response,
		ToolCalled: env.ToolCalled,
		ToolResult: raw,
		Mode:       env.Mode,
	}, nil
}

// remoteAssistant posts to a running server's /chat endpoint.
type remoteAssistant struct {
	baseURL string
	client  *http.Client
}

func newRemoteAssistant(baseURL string) *remoteAssistant {
	return &remoteAssistant{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 3 * time.Minute},
	}
}

func (a *remoteAssistant) Ask(ctx context.Context, message, mode, apiKey string) (*chatReply, error) {
	postBody, err := json.Marshal(map[string]string{
		"message": message,
		"mode":    mode,
		"api_key": apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat", bytes.NewReader(postBody))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach server at %s: %w", a.baseURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Error("failed to close response body", "error", err)
		}
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read server response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr api.ErrorResponse
		if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
			if apiErr.Detail != "" {
				return nil, fmt.Errorf("server returned %d: %s: %s", resp.StatusCode, apiErr.Error, apiErr.Detail)
			}
			return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, apiErr.Error)
		}
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var reply chatReply
	if err := json.Unmarshal(bodyBytes, &reply); err != nil {
		return nil, fmt.Errorf("failed to parse server response: %w", err)
	}
	return &reply, nil
}
