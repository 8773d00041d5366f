// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AleutianAI/InstratChat/services/chat/providers"
	"github.com/AleutianAI/InstratChat/services/llm"
	"github.com/AleutianAI/InstratChat/services/telemetry"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "instrat.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(NewViper(), "", t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.False(t, cfg.Debug)
	assert.Equal(t, providers.ProviderOpenAI, cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.Model)
	assert.InDelta(t, 0.7, cfg.LLM.Temperature, 1e-9)
	assert.Zero(t, cfg.RateLimit.RPS)
	assert.Equal(t, telemetry.ExporterNone, cfg.Telemetry.Exporter)
	assert.Equal(t, telemetry.ExporterPrometheus, cfg.Telemetry.MetricsExporter)
}

func TestLoad_FileFromSearchPath(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
port: 9090
debug: true
static_dir: /srv/static
llm:
  provider: anthropic
  model: claude-3-5-haiku-20241022
  temperature: 0.2
rate_limit:
  rps: 5
  burst: 2
telemetry:
  exporter: stdout
`)

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.True(t, cfg.Debug)
	assert.Equal(t, "/srv/static", cfg.StaticDir)
	assert.Equal(t, providers.ProviderAnthropic, cfg.LLM.Provider)
	assert.Equal(t, "claude-3-5-haiku-20241022", cfg.LLM.Model)
	assert.InDelta(t, 0.2, cfg.LLM.Temperature, 1e-9)
	assert.InDelta(t, 5.0, cfg.RateLimit.RPS, 1e-9)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
	assert.Equal(t, telemetry.ExporterStdout, cfg.Telemetry.Exporter)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "port: 9090\nllm:\n  provider: anthropic\n")
	t.Setenv("INSTRAT_PORT", "7070")
	t.Setenv("INSTRAT_LLM_PROVIDER", "NONE")

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Port)
	assert.Equal(t, providers.ProviderNone, cfg.LLM.Provider)
}

func TestLoad_AnthropicWithoutModel_UsesAnthropicDefault(t *testing.T) {
	t.Setenv("INSTRAT_LLM_PROVIDER", "anthropic")

	cfg, err := Load(NewViper(), "", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, providers.ProviderAnthropic, cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.Model)

	factory, err := providers.NewProviderFactory(cfg.LLM, nil)
	require.NoError(t, err)
	client, err := factory.CreateChatClient("test-key")
	require.NoError(t, err)
	assert.Equal(t, llm.DefaultAnthropicModel, client.Model())
}

func TestLoad_ForeignModelCleared(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "llm:\n  provider: anthropic\n  model: gpt-3.5-turbo\n")

	cfg, err := Load(NewViper(), "", dir)
	require.NoError(t, err)
	assert.Empty(t, cfg.LLM.Model)
}

func TestLoad_ExplicitFileMustExist(t *testing.T) {
	_, err := Load(NewViper(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "reading config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{name: "port out of range", content: "port: 70000\n", wantErr: "invalid"},
		{name: "unknown provider", content: "llm:\n  provider: gemini\n", wantErr: "unsupported provider"},
		{name: "temperature out of range", content: "llm:\n  temperature: 3\n", wantErr: "temperature"},
		{name: "unknown exporter", content: "telemetry:\n  exporter: zipkin\n", wantErr: "invalid"},
		{name: "negative rps", content: "rate_limit:\n  rps: -1\n", wantErr: "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, t.TempDir(), tt.content)
			_, err := Load(NewViper(), path)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestTelemetrySetup(t *testing.T) {
	cfg, err := Load(NewViper(), "", t.TempDir())
	require.NoError(t, err)

	tc := cfg.TelemetrySetup("1.2.3")
	assert.Equal(t, "instrat-chat", tc.ServiceName)
	assert.Equal(t, "1.2.3", tc.ServiceVersion)
	assert.Equal(t, telemetry.DefaultOTLPEndpoint, tc.OTLPEndpoint)
}
