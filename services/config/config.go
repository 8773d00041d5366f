// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package config loads the server configuration from an optional YAML file,
// INSTRAT_-prefixed environment variables and command-line flags.
//
// Precedence, highest first: flags bound by the caller, environment,
// config file, defaults.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/AleutianAI/InstratChat/services/chat/providers"
	"github.com/AleutianAI/InstratChat/services/telemetry"
)

// EnvPrefix is prepended to every environment variable, e.g. INSTRAT_PORT
// or INSTRAT_LLM_PROVIDER.
const EnvPrefix = "INSTRAT"

// DefaultConfigName is the config file base name searched for when no file
// is given explicitly.
const DefaultConfigName = "instrat"

// DefaultPort matches the port the assistant has always listened on.
const DefaultPort = 8000

// Config is the complete server configuration.
type Config struct {
	Port          int    `mapstructure:"port" validate:"min=1,max=65535"`
	Debug         bool   `mapstructure:"debug"`
	StaticDir     string `mapstructure:"static_dir"`
	KnowledgeFile string `mapstructure:"knowledge_file"`
	RulesFile     string `mapstructure:"rules_file"`

	LLM       providers.ProviderConfig `mapstructure:"llm"`
	RateLimit RateLimitConfig          `mapstructure:"rate_limit"`
	Telemetry TelemetryConfig          `mapstructure:"telemetry"`
}

// RateLimitConfig configures the shared token bucket. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"min=0"`
	Burst int     `mapstructure:"burst" validate:"min=0"`
}

// TelemetryConfig selects trace and metric exporters.
type TelemetryConfig struct {
	Exporter        string `mapstructure:"exporter" validate:"oneof=none stdout otlp"`
	OTLPEndpoint    string `mapstructure:"otlp_endpoint"`
	MetricsExporter string `mapstructure:"metrics_exporter" validate:"oneof=none prometheus stdout"`
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// TelemetrySetup converts the telemetry section for telemetry.Setup.
func (c *Config) TelemetrySetup(version string) telemetry.Config {
	return telemetry.Config{
		ServiceName:     "instrat-chat",
		ServiceVersion:  version,
		TraceExporter:   c.Telemetry.Exporter,
		OTLPEndpoint:    c.Telemetry.OTLPEndpoint,
		MetricsExporter: c.Telemetry.MetricsExporter,
	}
}

// NewViper returns a viper instance with defaults and environment binding.
// Callers bind their flags into it before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("port", DefaultPort)
	v.SetDefault("debug", false)
	v.SetDefault("static_dir", "")
	v.SetDefault("knowledge_file", "")
	v.SetDefault("rules_file", "")

	// llm.model stays empty by default so each provider applies its own.
	llmDefaults := providers.DefaultProviderConfig()
	v.SetDefault("llm.provider", llmDefaults.Provider)
	v.SetDefault("llm.model", llmDefaults.Model)
	v.SetDefault("llm.base_url", llmDefaults.BaseURL)
	v.SetDefault("llm.temperature", llmDefaults.Temperature)
	v.SetDefault("llm.max_tokens", llmDefaults.MaxTokens)

	v.SetDefault("rate_limit.rps", 0)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("telemetry.exporter", telemetry.ExporterNone)
	v.SetDefault("telemetry.otlp_endpoint", telemetry.DefaultOTLPEndpoint)
	v.SetDefault("telemetry.metrics_exporter", telemetry.ExporterPrometheus)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads configuration into a validated Config.
//
// Description:
//
//	With configFile empty, instrat.yaml is searched for in searchPaths and
//	its absence is not an error. An explicit configFile must exist.
//
// Inputs:
//
//	v - A viper from NewViper, optionally with flags bound.
//	configFile - Explicit config file path, or "".
//	searchPaths - Directories searched when configFile is "".
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Read, decode or validation failure.
func Load(v *viper.Viper, configFile string, searchPaths ...string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.SetConfigType("yaml")
		for _, p := range searchPaths {
			v.AddConfigPath(p)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decoding: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges and normalizes the provider section.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config: invalid: %w", err)
	}
	if err := c.LLM.Validate(); err != nil {
		return fmt.Errorf("config: llm: %w", err)
	}
	return nil
}
