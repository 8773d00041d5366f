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

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/InstratChat/services/chat"
	"github.com/AleutianAI/InstratChat/services/knowledge"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubService returns a fixed envelope or error.
type stubService struct {
	envelope *chat.ReplyEnvelope
	err      error
	got      chat.ChatRequest
}

func (s *stubService) HandleChat(_ context.Context, req chat.ChatRequest) (*chat.ReplyEnvelope, error) {
	s.got = req
	return s.envelope, s.err
}

// wireReply decodes a reply envelope without knowing the result variant.
type wireReply struct {
	Response   string          `json:"response"`
	ToolCalled bool            `json:"tool_called"`
	ToolResult json.RawMessage `json:"tool_result"`
	Mode       string          `json:"mode"`
}

type wireFrame struct {
	Reply *wireReply     `json:"reply"`
	Error *ErrorResponse `json:"error"`
}

func newTestRouter(t *testing.T, svc ChatService, cfg RouterConfig) *gin.Engine {
	t.Helper()
	handlers, err := NewHandlers(svc, HandlerOptions{})
	require.NoError(t, err)
	cfg.Handlers = handlers
	return NewRouter(cfg)
}

func newOrchestratorRouter(t *testing.T) *gin.Engine {
	t.Helper()
	orch, err := chat.NewOrchestrator(chat.Config{Store: knowledge.MustDefault()})
	require.NoError(t, err)
	return newTestRouter(t, orch, RouterConfig{})
}

func postChat(t *testing.T, router http.Handler, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestHandleChat_PlainCompanyOverview(t *testing.T) {
	router := newOrchestratorRouter(t)

	w := postChat(t, router, "/chat", map[string]string{"message": "Tell me about the company"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["tool_called"])
	assert.Equal(t, "plain", resp["mode"])
	assert.True(t, strings.HasPrefix(resp["response"].(string), "**INSTRAT360**"))

	result, ok := resp["tool_result"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "INSTRAT360", result["name"])
}

func TestHandleChat_V1RouteAndModeEcho(t *testing.T) {
	router := newOrchestratorRouter(t)

	w := postChat(t, router, "/v1/chat", map[string]string{"message": "Who is Marcus Johnson?", "mode": "mock"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp wireReply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "mock", resp.Mode)
	assert.True(t, resp.ToolCalled)
	assert.Contains(t, resp.Response, "**Marcus Johnson**")
}

func TestHandleChat_EmptyMessageIsHelp(t *testing.T) {
	router := newOrchestratorRouter(t)

	w := postChat(t, router, "/chat", map[string]string{"message": ""})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, chat.HelpText, resp["response"])
	assert.Equal(t, false, resp["tool_called"])
	assert.Nil(t, resp["tool_result"])
}

func TestHandleChat_Rejections(t *testing.T) {
	router := newOrchestratorRouter(t)

	tests := []struct {
		name string
		body any
	}{
		{name: "missing message", body: map[string]string{"mode": "plain"}},
		{name: "null message", body: `{"message": null}`},
		{name: "malformed json", body: `{"message": `},
		{name: "wrong type", body: `{"message": 42}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postChat(t, router, "/chat", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, CodeInvalidRequest, resp.Code)
		})
	}
}

func TestHandleChat_PassesCredentialAndMode(t *testing.T) {
	svc := &stubService{envelope: &chat.ReplyEnvelope{Response: "ok", Mode: "assisted"}}
	router := newTestRouter(t, svc, RouterConfig{})

	w := postChat(t, router, "/chat", map[string]string{
		"message": "hello",
		"mode":    "assisted",
		"api_key": "sk-test-123456",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, chat.ChatRequest{Message: "hello", Mode: "assisted", Credential: "sk-test-123456"}, svc.got)
}

func TestHandleChat_ModelFailure(t *testing.T) {
	svc := &stubService{err: &chat.ModelError{Detail: "openai: API returned status 401: invalid key", Err: errors.New("x")}}
	router := newTestRouter(t, svc, RouterConfig{})

	w := postChat(t, router, "/chat", map[string]string{"message": "hi", "mode": "assisted", "api_key": "k"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeExternalModelFailure, resp.Code)
	assert.Equal(t, "openai: API returned status 401: invalid key", resp.Detail)
}

func TestHandleChat_WrappedModelFailure(t *testing.T) {
	modelErr := &chat.ModelError{Detail: "timeout", Err: context.DeadlineExceeded}
	svc := &stubService{err: errors.Join(errors.New("outer"), modelErr)}
	router := newTestRouter(t, svc, RouterConfig{})

	w := postChat(t, router, "/chat", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), CodeExternalModelFailure)
}

func TestHandleChat_InternalError(t *testing.T) {
	svc := &stubService{err: errors.New("boom")}
	router := newTestRouter(t, svc, RouterConfig{})

	w := postChat(t, router, "/chat", map[string]string{"message": "hi"})
	require.Equal(t, http.StatusInternalServerError, w.Code)

	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, CodeInternalError, resp.Code)
	assert.Empty(t, resp.Detail)
}

func TestHandleHealth(t *testing.T) {
	router := newOrchestratorRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"INSTRAT360 Chatbot"}`, w.Body.String())
}

func TestHandleDeveloper(t *testing.T) {
	router := newOrchestratorRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/developer", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"Developer":"Md Al Amin Tokder","project":"INSTRAT360 Chatbot"}`, w.Body.String())
}

func TestStaticAssets(t *testing.T) {
	router := newOrchestratorRouter(t)

	t.Run("index", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "INSTRAT360 Assistant")
	})

	t.Run("stylesheet", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/style.css", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), ".chat")
	})

	t.Run("missing asset", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/nope.js", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestStaticDirOverride(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>custom</p>"), 0o644))

	handlers, err := NewHandlers(&stubService{}, HandlerOptions{StaticDir: dir})
	require.NoError(t, err)
	router := NewRouter(RouterConfig{Handlers: handlers})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "<p>custom</p>", w.Body.String())
}

func TestStaticDirMissingIndex(t *testing.T) {
	handlers, err := NewHandlers(&stubService{}, HandlerOptions{StaticDir: t.TempDir()})
	require.NoError(t, err)
	router := NewRouter(RouterConfig{Handlers: handlers})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), CodeStaticAssetUnreadable)
}

func TestNewHandlers_Errors(t *testing.T) {
	_, err := NewHandlers(nil, HandlerOptions{})
	assert.Error(t, err)

	_, err = NewHandlers(&stubService{}, HandlerOptions{StaticDir: filepath.Join(t.TempDir(), "absent")})
	assert.Error(t, err)

	file := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	_, err = NewHandlers(&stubService{}, HandlerOptions{StaticDir: file})
	assert.Error(t, err)
}

func TestMetricsEndpoint(t *testing.T) {
	router := newOrchestratorRouter(t)
	postChat(t, router, "/chat", map[string]string{"message": "list all employees"})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "instrat_chat_requests_total")
}

func TestRequestIDMiddleware(t *testing.T) {
	router := newOrchestratorRouter(t)

	t.Run("generated", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
	})

	t.Run("propagated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	router := newTestRouter(t, &stubService{}, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})

	first := httptest.NewRecorder()
	router.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.Equal(t, "1", second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), CodeRateLimited)
}

func TestRateLimitMiddleware_DisabledAtZero(t *testing.T) {
	router := newTestRouter(t, &stubService{}, RouterConfig{RateLimitRPS: 0, RateLimitBurst: 1})

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
}

func TestHandleChatStream(t *testing.T) {
	server := httptest.NewServer(newOrchestratorRouter(t))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	t.Run("reply", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]string{"message": "Show me the Multi-Agent Framework project"}))
		var frame wireFrame
		require.NoError(t, conn.ReadJSON(&frame))
		require.Nil(t, frame.Error)
		require.NotNil(t, frame.Reply)
		assert.True(t, frame.Reply.ToolCalled)
		assert.Contains(t, frame.Reply.Response, "**Project: Multi-Agent Framework**")
	})

	t.Run("missing message", func(t *testing.T) {
		require.NoError(t, conn.WriteJSON(map[string]string{"mode": "plain"}))
		var frame wireFrame
		require.NoError(t, conn.ReadJSON(&frame))
		require.NotNil(t, frame.Error)
		assert.Equal(t, CodeInvalidRequest, frame.Error.Code)
	})

	t.Run("malformed frame keeps connection", func(t *testing.T) {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{not json")))
		var frame wireFrame
		require.NoError(t, conn.ReadJSON(&frame))
		require.NotNil(t, frame.Error)

		require.NoError(t, conn.WriteJSON(map[string]string{"message": "hello"}))
		frame = wireFrame{}
		require.NoError(t, conn.ReadJSON(&frame))
		require.NotNil(t, frame.Reply)
		assert.Equal(t, chat.HelpText, frame.Reply.Response)
	})
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, "127.0.0.1:0", http.NotFoundHandler(), nil)
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
