// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// These are unit tests that run the command tree in-process; no server or
// model credentials are required.

package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/InstratChat/services/chat"
	"github.com/AleutianAI/InstratChat/services/chat/api"
	"github.com/AleutianAI/InstratChat/services/knowledge"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type cliResult struct {
	stdout string
	stderr string
	err    error
}

// runCLI executes a fresh command tree with args and stdin.
func runCLI(t *testing.T, stdin string, args ...string) cliResult {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return cliResult{stdout: out.String(), stderr: errOut.String(), err: err}
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

func TestCLIUnit_Root_Help(t *testing.T) {
	res := runCLI(t, "", "--help")
	require.NoError(t, res.err)
	for _, want := range []string{"Usage", "serve", "ask", "chat", "mcp", "version", "--log-format"} {
		assert.Contains(t, res.stdout, want)
	}
}

func TestCLIUnit_Root_Version(t *testing.T) {
	origVersion, origCommit := appVersion, appCommit
	defer func() { appVersion, appCommit = origVersion, origCommit }()
	appVersion, appCommit = "1.2.3", "abc1234"

	res := runCLI(t, "", "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "instrat 1.2.3")
	assert.Contains(t, res.stdout, "commit: abc1234")

	res = runCLI(t, "", "--version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "instrat")
}

func TestCLIUnit_Root_UnknownCommand(t *testing.T) {
	res := runCLI(t, "", "nonexistent-command")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "unknown command")
}

func TestCLIUnit_Root_BadLogSettings(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "level", args: []string{"--log-level", "loud", "ask", "hi"}, want: "unknown log level"},
		{name: "format", args: []string{"--log-format", "xml", "ask", "hi"}, want: "unknown log format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			require.Error(t, res.err)
			assert.Contains(t, res.err.Error(), tt.want)
		})
	}
}

func TestBindFlags(t *testing.T) {
	f := pflag.NewFlagSet("test", pflag.ContinueOnError)
	addAssistantFlags(f)
	require.NoError(t, f.Parse([]string{"--llm-provider", "anthropic"}))

	v := viper.New()
	require.NoError(t, bindAssistantFlags(v, f))
	assert.Equal(t, "anthropic", v.GetString("llm.provider"))

	err := bindFlags(v, f, map[string]string{"port": "no-such-flag"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--no-such-flag")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "json", "debug")
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	buf.Reset()
	logger, err = newLogger(&buf, "text", "warn")
	require.NoError(t, err)
	logger.Info("dropped")
	assert.Empty(t, buf.String())
}

// =============================================================================
// ASK
// =============================================================================

func TestCLIUnit_Ask_Local(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "employee", args: []string{"ask", "Who", "is", "Marcus", "Johnson?"}, want: "**Marcus Johnson**"},
		{name: "company", args: []string{"ask", "Tell me about the company"}, want: "**INSTRAT360**"},
		{name: "projects", args: []string{"ask", "list all projects"}, want: "**Active Projects**"},
		{name: "help", args: []string{"ask", "good morning"}, want: "I'm the INSTRAT360 assistant!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runCLI(t, "", tt.args...)
			require.NoError(t, res.err)
			assert.Contains(t, res.stdout, tt.want)
		})
	}
}

func TestCLIUnit_Ask_RequiresQuestion(t *testing.T) {
	res := runCLI(t, "", "ask")
	require.Error(t, res.err)
}

func TestCLIUnit_Ask_KnowledgeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
company:
  name: Acme
  tagline: We make things
  overview: Acme makes things.
  mission: Make more things.
employees:
  - name: Wile Coyote
    role: Engineer
    department: R&D
    expertise: [Rockets]
projects: []
`), 0o644))

	res := runCLI(t, "", "ask", "--knowledge-file", path, "Who is Wile Coyote?")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "**Wile Coyote**")
	assert.Contains(t, res.stdout, "**Role:** Engineer")
}

func TestCLIUnit_Ask_BadKnowledgeFile(t *testing.T) {
	res := runCLI(t, "", "ask", "--knowledge-file", filepath.Join(t.TempDir(), "missing.yaml"), "hi")
	require.Error(t, res.err)
}

func TestCLIUnit_Ask_Remote(t *testing.T) {
	orch, err := chat.NewOrchestrator(chat.Config{Store: knowledge.MustDefault()})
	require.NoError(t, err)
	handlers, err := api.NewHandlers(orch, api.HandlerOptions{})
	require.NoError(t, err)
	server := httptest.NewServer(api.NewRouter(api.RouterConfig{Handlers: handlers}))
	defer server.Close()

	res := runCLI(t, "", "ask", "--server", server.URL, "Who knows design? I need an expert")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "**Experts in design:**")
}

func TestCLIUnit_Ask_RemoteModelFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"external model failure","code":"EXTERNAL_MODEL_FAILURE","detail":"status 401"}`))
	}))
	defer server.Close()

	res := runCLI(t, "", "ask", "--server", server.URL, "--mode", "assisted", "--api-key", "k", "hi")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "server returned 500: external model failure: status 401")
}

func TestCLIUnit_Ask_RemoteUnreachable(t *testing.T) {
	res := runCLI(t, "", "ask", "--server", "http://127.0.0.1:1", "hi")
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "failed to reach server")
}

// =============================================================================
// CHAT
// =============================================================================

func TestCLIUnit_Chat_LineMode(t *testing.T) {
	res := runCLI(t, "list all projects\n\n/mode assisted\nwho is Priya Sharma?\nexit\n", "chat")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "**Active Projects**")
	assert.Contains(t, res.stdout, "mode: assisted")
	assert.Contains(t, res.stdout, "**Priya Sharma**")
	assert.Contains(t, res.stdout, "Goodbye.")
}

func TestCLIUnit_Chat_LineModeEOF(t *testing.T) {
	res := runCLI(t, "show me the team\n", "chat")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "**Our Team (3 members)**")
}

// stubAssistant answers every message with a fixed reply or error.
type stubAssistant struct {
	reply string
	err   error
	modes []string
}

func (s *stubAssistant) Ask(_ context.Context, _ string, mode, _ string) (*chatReply, error) {
	s.modes = append(s.modes, mode)
	if s.err != nil {
		return nil, s.err
	}
	return &chatReply{Response: s.reply, Mode: mode}, nil
}

func TestChatModel_SubmitAndReply(t *testing.T) {
	stub := &stubAssistant{reply: "hello back"}
	m := newChatModel(context.Background(), stub, chat.ModePlain, "", false)

	m.input.SetValue("hello")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(chatModel)
	require.NotNil(t, cmd)
	assert.True(t, m.pending)
	assert.Contains(t, m.View(), "thinking")

	msg := m.ask("hello")()
	reply, ok := msg.(replyMsg)
	require.True(t, ok)
	require.NoError(t, reply.err)
	assert.Equal(t, "hello back", reply.reply.Response)

	next, cmd = m.Update(reply)
	m = next.(chatModel)
	assert.False(t, m.pending)
	assert.NotNil(t, cmd)
}

func TestChatModel_ModeSwitchAndQuit(t *testing.T) {
	stub := &stubAssistant{reply: "ok"}
	m := newChatModel(context.Background(), stub, chat.ModePlain, "", false)

	m.input.SetValue("/mode assisted")
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(chatModel)
	assert.Equal(t, chat.ModeAssisted, m.mode)
	assert.False(t, m.pending)

	_ = m.ask("x")()
	assert.Equal(t, []string{chat.ModeAssisted}, stub.modes)

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = next.(chatModel)
	require.NotNil(t, cmd)
	assert.True(t, m.quitting)
	assert.Contains(t, m.View(), "Goodbye.")
}

func TestChatModel_EmptyInputIgnored(t *testing.T) {
	m := newChatModel(context.Background(), &stubAssistant{}, chat.ModePlain, "", false)
	m.input.SetValue("   ")
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, next.(chatModel).pending)
}

func TestChatModel_ErrorReply(t *testing.T) {
	m := newChatModel(context.Background(), &stubAssistant{err: errors.New("boom")}, chat.ModePlain, "", false)
	m.pending = true
	next, cmd := m.Update(replyMsg{err: errors.New("boom")})
	assert.False(t, next.(chatModel).pending)
	assert.NotNil(t, cmd)
}

func TestParseModeCommand(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{in: "/mode assisted", want: "assisted", wantOK: true},
		{in: "/mode   plain", want: "plain", wantOK: true},
		{in: "/mode", wantOK: false},
		{in: "mode plain", wantOK: false},
		{in: "/mode a b", wantOK: false},
	}
	for _, tt := range tests {
		got, ok := parseModeCommand(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestIsExitCommand(t *testing.T) {
	for _, s := range []string{"exit", "QUIT", "q"} {
		assert.True(t, isExitCommand(s), s)
	}
	assert.False(t, isExitCommand("quitting"))
}

func TestSetupForm(t *testing.T) {
	mode, key := chat.ModePlain, ""
	assert.NotNil(t, setupForm(&mode, &key))
}

func TestRenderMarkdown(t *testing.T) {
	text := "**Marcus Johnson**\n\n**Role:** CTO"
	assert.Equal(t, text, renderMarkdown(text, 80, false))
	assert.Contains(t, renderMarkdown(text, 80, true), "Marcus Johnson")
}

func TestIsTerminal_Buffer(t *testing.T) {
	assert.False(t, isTerminal(&bytes.Buffer{}))
}
