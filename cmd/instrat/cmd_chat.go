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
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/AleutianAI/InstratChat/services/chat"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	userStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

func newChatCmd(opts *rootOptions) *cobra.Command {
	co := &clientOptions{}
	var setup bool
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive chat session.

Type a question and press Enter. "/mode plain" and "/mode assisted" switch
the reply mode; "exit", "quit" or Ctrl+C leave. When stdin is not a
terminal, questions are read line by line.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runChatCommand(cmd, opts, co, setup)
		},
	}
	addClientFlags(cmd.Flags(), co)
	addAssistantFlags(cmd.Flags())
	cmd.Flags().BoolVar(&setup, "setup", false, "choose mode and API key in a form before chatting")
	return cmd
}

func runChatCommand(cmd *cobra.Command, opts *rootOptions, co *clientOptions, setup bool) error {
	a, err := newAssistant(cmd, opts, co)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mode, apiKey := co.mode, co.credential()
	in := cmd.InOrStdin()
	if !isTerminal(os.Stdin) || in != os.Stdin {
		return runLineChat(ctx, a, in, cmd.OutOrStdout(), mode, apiKey)
	}

	if setup {
		if err := setupForm(&mode, &apiKey).Run(); err != nil {
			return fmt.Errorf("setup form: %w", err)
		}
	}

	m := newChatModel(ctx, a, mode, apiKey, true)
	if _, err := tea.NewProgram(m, tea.WithContext(ctx)).Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("chat session: %w", err)
	}
	return nil
}

// setupForm asks for the reply mode and, for assisted mode, an API key.
func setupForm(mode, apiKey *string) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Reply mode").
				Options(
					huh.NewOption("Plain - answers straight from the knowledge base", chat.ModePlain),
					huh.NewOption("Assisted - a language model rephrases the answer", chat.ModeAssisted),
				).
				Value(mode),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("API key").
				Description("Sent with each request; never stored.").
				EchoMode(huh.EchoModePassword).
				Value(apiKey),
		).WithHideFunc(func() bool { return chat.CanonicalMode(*mode) != chat.ModeAssisted }),
	).WithShowHelp(false)
}

// runLineChat is the non-interactive session: one question per line.
func runLineChat(ctx context.Context, a assistant, in io.Reader, out io.Writer, mode, apiKey string) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if isExitCommand(line) {
			fmt.Fprintln(out, "Goodbye.")
			return nil
		}
		if next, ok := parseModeCommand(line); ok {
			mode = next
			fmt.Fprintf(out, "mode: %s\n", mode)
			continue
		}

		reply, err := a.Ask(ctx, line, mode, apiKey)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
			continue
		}
		fmt.Fprintln(out, reply.Response)
	}
}

func isExitCommand(s string) bool {
	switch strings.ToLower(s) {
	case "exit", "quit", "q":
		return true
	}
	return false
}

// parseModeCommand recognises "/mode <name>".
func parseModeCommand(s string) (string, bool) {
	fields := strings.Fields(s)
	if len(fields) != 2 || fields[0] != "/mode" {
		return "", false
	}
	return fields[1], true
}

// replyMsg carries a finished request back into the bubbletea loop.
type replyMsg struct {
	reply *chatReply
	err   error
}

// chatModel is the bubbletea model for the interactive session.
type chatModel struct {
	ctx       context.Context
	assistant assistant
	input     textinput.Model

	mode   string
	apiKey string
	styled bool

	width    int
	pending  bool
	quitting bool
}

func newChatModel(ctx context.Context, a assistant, mode, apiKey string, styled bool) chatModel {
	ti := textinput.New()
	ti.Focus()
	ti.Prompt = ""
	ti.Placeholder = "Ask about the company, team, projects or experts"
	ti.CharLimit = 1000

	return chatModel{
		ctx:       ctx,
		assistant: a,
		input:     ti,
		mode:      mode,
		apiKey:    apiKey,
		styled:    styled,
	}
}

func (m chatModel) Init() tea.Cmd {
	return tea.Batch(
		textinput.Blink,
		tea.Println(dimStyle.Render("INSTRAT360 assistant. Type a question, /mode plain|assisted, or exit.")),
	)
}

func (m chatModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = msg.Width - len(m.mode) - 4
		return m, nil

	case replyMsg:
		m.pending = false
		if msg.err != nil {
			return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
		}
		return m, tea.Println(renderMarkdown(msg.reply.Response, m.width-2, m.styled))

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.quitting = true
			return m, tea.Quit
		case tea.KeyEnter:
			return m.submit()
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m chatModel) submit() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	m.input.Reset()
	if text == "" || m.pending {
		return m, nil
	}
	if isExitCommand(text) {
		m.quitting = true
		return m, tea.Quit
	}
	if next, ok := parseModeCommand(text); ok {
		m.mode = next
		return m, tea.Println(dimStyle.Render("mode: " + next))
	}

	m.pending = true
	return m, tea.Batch(
		tea.Println(userStyle.Render("you ❯ ")+text),
		m.ask(text),
	)
}

// ask runs the request off the UI goroutine.
func (m chatModel) ask(text string) tea.Cmd {
	ctx, a, mode, apiKey := m.ctx, m.assistant, m.mode, m.apiKey
	return func() tea.Msg {
		reply, err := a.Ask(ctx, text, mode, apiKey)
		return replyMsg{reply: reply, err: err}
	}
}

func (m chatModel) View() string {
	if m.quitting {
		return dimStyle.Render("Goodbye.") + "\n"
	}
	prefix := promptStyle.Render(m.mode) + dimStyle.Render(" ❯ ")
	if m.pending {
		return prefix + dimStyle.Render("thinking...")
	}
	return prefix + m.input.View()
}
