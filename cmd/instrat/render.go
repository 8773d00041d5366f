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
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/mattn/go-isatty"
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderMarkdown renders reply markdown for a terminal. When styled is
// false, or rendering fails, the text is returned unchanged.
func renderMarkdown(text string, width int, styled bool) string {
	if !styled {
		return text
	}
	if width <= 0 {
		width = 80
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return text
	}
	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// showSpinner animates msg on w until done is closed.
func showSpinner(w io.Writer, msg string, done <-chan struct{}) {
	chars := []string{"▖", "▘", "▝", "▗"}
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	fmt.Fprint(w, "\033[?25l")
	defer fmt.Fprint(w, "\r\033[K\033[?25h")

	for i := 0; ; i++ {
		select {
		case <-done:
			return
		case <-ticker.C:
			fmt.Fprintf(w, "\r%s  %s...\033[K", chars[i%len(chars)], msg)
		}
	}
}
