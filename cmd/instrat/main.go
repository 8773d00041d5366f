// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Command instrat runs the INSTRAT360 assistant.
//
// Usage:
//
//	instrat serve                       # HTTP server on :8000
//	instrat serve --port 9090 --debug
//	instrat ask "who is Marcus Johnson?" # answer locally
//	instrat ask --server http://localhost:8000 "list all projects"
//	instrat chat                        # interactive terminal session
//	instrat chat --setup                # choose mode and API key first
//	instrat mcp                         # MCP server on stdio
//
// Configuration comes from instrat.yaml (current directory or
// $HOME/.config/instrat), INSTRAT_* environment variables and flags.
//
// Example requests against a running server:
//
//	curl http://localhost:8000/health
//
//	curl -X POST http://localhost:8000/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"message": "Tell me about the company"}'
//
//	curl -X POST http://localhost:8000/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"message": "Who knows AI?", "mode": "assisted", "api_key": "sk-..."}'
package main

import (
	"fmt"
	"os"
)

// Version information, set via ldflags.
var (
	appVersion = "dev"
	appCommit  = "none"
	appDate    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
