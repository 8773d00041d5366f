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
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/AleutianAI/InstratChat/services/chat"
	"github.com/AleutianAI/InstratChat/services/chat/api"
	"github.com/AleutianAI/InstratChat/services/config"
	"github.com/AleutianAI/InstratChat/services/telemetry"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP chat server",
		Long: `Start the HTTP chat server.

Endpoints: POST /chat, POST /v1/chat, GET /v1/chat/ws, GET /, /static,
GET /health, GET /developer, GET /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.Int("port", config.DefaultPort, "port to listen on")
	f.Bool("debug", false, "enable gin debug mode and request logging")
	f.String("static-dir", "", "serve static assets from this directory instead of the embedded page")
	f.Float64("rate-limit-rps", 0, "requests per second admitted (0 disables)")
	f.Int("rate-limit-burst", 10, "rate limiter burst size")
	f.String("telemetry-exporter", telemetry.ExporterNone, "trace exporter: none, stdout or otlp")
	addAssistantFlags(f)
	return cmd
}

// addAssistantFlags registers the flags shared by every command that builds
// an orchestrator.
func addAssistantFlags(f *pflag.FlagSet) {
	f.String("knowledge-file", "", "knowledge YAML file (default: embedded)")
	f.String("rules-file", "", "classifier rules YAML file (default: embedded)")
	f.String("llm-provider", "openai", "assisted-mode provider: openai, anthropic, langchain or none")
	f.String("llm-model", "", "assisted-mode model (default: provider default)")
	f.String("llm-base-url", "", "assisted-mode API base URL override, e.g. https://api.openai.com/v1")
}

func bindAssistantFlags(v *viper.Viper, f *pflag.FlagSet) error {
	return bindFlags(v, f, map[string]string{
		"knowledge_file": "knowledge-file",
		"rules_file":     "rules-file",
		"llm.provider":   "llm-provider",
		"llm.model":      "llm-model",
		"llm.base_url":   "llm-base-url",
	})
}

// bindFlags binds config keys to flags. Only flags the user set override
// file and environment values. Binding happens when a command runs, since
// several commands define flags for the same keys.
func bindFlags(v *viper.Viper, f *pflag.FlagSet, keys map[string]string) error {
	for key, name := range keys {
		if err := v.BindPFlag(key, f.Lookup(name)); err != nil {
			return fmt.Errorf("binding flag --%s to %s: %w", name, key, err)
		}
	}
	return nil
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	f := cmd.Flags()
	err := bindFlags(opts.v, f, map[string]string{
		"port":               "port",
		"debug":              "debug",
		"static_dir":         "static-dir",
		"rate_limit.rps":     "rate-limit-rps",
		"rate_limit.burst":   "rate-limit-burst",
		"telemetry.exporter": "telemetry-exporter",
	})
	if err == nil {
		err = bindAssistantFlags(opts.v, f)
	}
	if err != nil {
		return err
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		return err
	}
	logger := slog.Default()

	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(ctx, cfg.TelemetrySetup(appVersion))
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	orch, err := buildOrchestrator(ctx, cfg, logger)
	if err != nil {
		return err
	}

	handlers, err := api.NewHandlers(orch, api.HandlerOptions{StaticDir: cfg.StaticDir, Logger: logger})
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}
	router := api.NewRouter(api.RouterConfig{
		Handlers:       handlers,
		Debug:          cfg.Debug,
		RateLimitRPS:   cfg.RateLimit.RPS,
		RateLimitBurst: cfg.RateLimit.Burst,
		Logger:         logger,
	})

	printBanner(cmd.OutOrStdout(), cfg, orch)
	return api.Serve(ctx, cfg.Addr(), router, logger)
}

func printBanner(w io.Writer, cfg *config.Config, orch *chat.Orchestrator) {
	assisted := "disabled"
	if orch.AssistedAvailable() {
		assisted = fmt.Sprintf("%s (%s)", cfg.LLM.Provider, cfg.LLM.EffectiveModel())
	}
	fmt.Fprintf(w, `
  %s assistant
  ----------------------------------------
  Listening:   http://localhost%s
  Assisted:    %s
  Rate limit:  %s
  Telemetry:   %s
  ----------------------------------------

`, orch.Store().CompanyProfile().Name, cfg.Addr(), assisted, rateLimitLabel(cfg), cfg.Telemetry.Exporter)
}

func rateLimitLabel(cfg *config.Config) string {
	if cfg.RateLimit.RPS <= 0 {
		return "off"
	}
	return fmt.Sprintf("%.1f rps, burst %d", cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}
