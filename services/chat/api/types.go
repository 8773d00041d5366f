// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package api

import "github.com/AleutianAI/InstratChat/services/chat/tools"

// ChatRequestBody is the JSON body of POST /chat.
//
// Message is a pointer so an absent field can be told apart from an empty
// string: absence is a validation error, an empty string is a valid message.
type ChatRequestBody struct {
	Message *string `json:"message" binding:"required"`
	Mode    string  `json:"mode"`
	APIKey  string  `json:"api_key"`
}

// ChatResponse is the reply envelope returned by POST /chat.
type ChatResponse struct {
	Response   string           `json:"response"`
	ToolCalled bool             `json:"tool_called"`
	ToolResult tools.ToolResult `json:"tool_result"`
	Mode       string           `json:"mode"`
}

// ErrorResponse is the body of every non-2xx JSON reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Code   string `json:"code"`
	Detail string `json:"detail,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// DeveloperResponse is returned by GET /developer.
type DeveloperResponse struct {
	Developer string `json:"Developer"`
	Project   string `json:"project"`
}

// StreamFrame is one reply written to a websocket chat client. Exactly one
// of Reply and Error is set.
type StreamFrame struct {
	Reply *ChatResponse  `json:"reply,omitempty"`
	Error *ErrorResponse `json:"error,omitempty"`
}

// Error codes.
const (
	CodeInvalidRequest        = "INVALID_REQUEST"
	CodeExternalModelFailure  = "EXTERNAL_MODEL_FAILURE"
	CodeInternalError         = "INTERNAL_ERROR"
	CodeRateLimited           = "RATE_LIMITED"
	CodeStaticAssetUnreadable = "STATIC_ASSET_UNREADABLE"
)
