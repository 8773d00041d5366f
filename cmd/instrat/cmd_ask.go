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
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/AleutianAI/InstratChat/services/chat"
)

// APIKeyEnv supplies the assisted-mode credential when --api-key is not given.
const APIKeyEnv = "INSTRAT_API_KEY"

// clientOptions are the flags of the commands that talk to the assistant.
type clientOptions struct {
	server string
	mode   string
	apiKey string
}

func addClientFlags(f *pflag.FlagSet, co *clientOptions) {
	f.StringVar(&co.server, "server", "", "base URL of a running server (default: answer in-process)")
	f.StringVar(&co.mode, "mode", chat.ModePlain, "reply mode: plain or assisted")
	f.StringVar(&co.apiKey, "api-key", "", "language model API key for assisted mode (or $"+APIKeyEnv+")")
}

func (co *clientOptions) credential() string {
	if co.apiKey != "" {
		return co.apiKey
	}
	return os.Getenv(APIKeyEnv)
}

// newAssistant returns a remote assistant when --server is set, otherwise
// an in-process one built from configuration.
func newAssistant(cmd *cobra.Command, opts *rootOptions, co *clientOptions) (assistant, error) {
	if co.server != "" {
		return newRemoteAssistant(co.server), nil
	}
	if err := bindAssistantFlags(opts.v, cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := opts.loadConfig()
	if err != nil {
		return nil, err
	}
	orch, err := buildOrchestrator(cmd.Context(), cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return &localAssistant{orch: orch}, nil
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	co := &clientOptions{}
	cmd := &cobra.Command{
		Use:   "ask [question...]",
		Short: "Ask a single question",
		Long: `Ask a single question and print the reply.

Without --server the question is answered in-process from the embedded
knowledge base (or --knowledge-file).`,
		Example: `  instrat ask "Tell me about the company"
  instrat ask --mode assisted --api-key sk-... "Who knows AI?"
  instrat ask --server http://localhost:8000 "list all projects"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAsk(cmd, opts, co, strings.Join(args, " "))
		},
	}
	addClientFlags(cmd.Flags(), co)
	addAssistantFlags(cmd.Flags())
	return cmd
}

func runAsk(cmd *cobra.Command, opts *rootOptions, co *clientOptions, question string) error {
	if strings.TrimSpace(question) == "" {
		return errors.New("question must not be empty")
	}
	a, err := newAssistant(cmd, opts, co)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	tty := isTerminal(out)

	done := make(chan struct{})
	stopped := make(chan struct{})
	if tty {
		go func() {
			showSpinner(cmd.ErrOrStderr(), "Thinking", done)
			close(stopped)
		}()
	} else {
		close(stopped)
	}
	reply, err := a.Ask(cmd.Context(), question, co.mode, co.credential())
	close(done)
	<-stopped
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderMarkdown(reply.Response, 0, tty))
	return nil
}
