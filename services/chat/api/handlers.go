// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.


// Package api exposes the chat pipeline over HTTP and websocket using gin.
package api

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/AleutianAI/InstratChat/services/chat"
)

//go:embed static
var embeddedStatic embed.FS

// ServiceName is reported by the health endpoint.
const ServiceName = "INSTRAT360 Chatbot"

// DeveloperName is reported by the developer metadata endpoint.
const DeveloperName = "Md Al Amin Tokder"

// ChatService answers one chat request. *chat.Orchestrator implements it.
type ChatService interface {
	HandleChat(ctx context.Context, req chat.ChatRequest) (*chat.ReplyEnvelope, error)
}

// HandlerOptions configures Handlers.
type HandlerOptions struct {
	// StaticDir overrides the embedded static assets with a directory on
	// disk. Empty uses the embedded page.
	StaticDir string

	// Logger is the base logger. Nil uses slog.Default().
	Logger *slog.Logger
}

// Handlers holds the HTTP handlers for the chat service.
//
// Thread Safety: Safe for concurrent use. Handlers holds no per-request state.
type Handlers struct {
	svc      ChatService
	static   fs.FS
	logger   *slog.Logger
	upgrader websocket.Upgrader
	frames   metric.Int64Counter
}

// NewHandlers creates Handlers around svc.
//
// Inputs:
//
//	svc - The chat pipeline. Must not be nil.
//	opts - Static asset and logging options.
//
// Outputs:
//
//	*Handlers - Ready to register.
//	error - Non-nil if svc is nil or the static directory is unusable.
func NewHandlers(svc ChatService, opts HandlerOptions) (*Handlers, error) {
	if svc == nil {
		return nil, errors.New("api: chat service must not be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var static fs.FS
	if opts.StaticDir != "" {
		info, err := os.Stat(opts.StaticDir)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			return nil, errors.New("api: static_dir is not a directory: " + opts.StaticDir)
		}
		static = os.DirFS(opts.StaticDir)
	} else {
		sub, err := fs.Sub(embeddedStatic, "static")
		if err != nil {
			return nil, err
		}
		static = sub
	}

	frames, err := otel.Meter("instrat.api").Int64Counter("instrat.api.ws.frames",
		metric.WithDescription("Websocket frames answered, by outcome."),
	)
	if err != nil {
		return nil, err
	}

	return &Handlers{
		svc:    svc,
		static: static,
		logger: logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		frames: frames,
	}, nil
}

// StaticFS returns the file system served under /static.
func (h *Handlers) StaticFS() fs.FS { return h.static }

// HandleChat handles POST /chat and POST /v1/chat.
//
// Description:
//
//	Runs one message through the orchestrator and returns the reply
//	envelope. Assisted mode failures are not hidden: the request fails
//	with the redacted model error.
//
// Request Body:
//
//	ChatRequestBody
//
// Response:
//
//	200 OK: ChatResponse
//	422 Unprocessable Entity: Missing message or malformed body
//	500 Internal Server Error: External model failure
//
// Thread Safety: This method is safe for concurrent use.
func (h *Handlers) HandleChat(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleChat")

	var body ChatRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		logger.Debug("rejected chat request", slog.String("error", err.Error()))
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:  "message is required",
			Code:   CodeInvalidRequest,
			Detail: err.Error(),
		})
		return
	}

	reply, errResp, status := h.answer(c.Request.Context(), logger, body)
	if errResp != nil {
		c.JSON(status, errResp)
		return
	}
	c.JSON(http.StatusOK, reply)
}

// answer runs one validated request. On failure it returns the error body
// and HTTP status to send.
func (h *Handlers) answer(ctx context.Context, logger *slog.Logger, body ChatRequestBody) (*ChatResponse, *ErrorResponse, int) {
	start := time.Now()
	envelope, err := h.svc.HandleChat(ctx, chat.ChatRequest{
		Message:    *body.Message,
		Mode:       body.Mode,
		Credential: body.APIKey,
	})
	if err != nil {
		var modelErr *chat.ModelError
		if errors.As(err, &modelErr) {
			logger.Warn("external model failure",
				slog.String("mode", body.Mode),
				slog.String("detail", modelErr.Detail),
			)
			return nil, &ErrorResponse{
				Error:  "external model failure",
				Code:   CodeExternalModelFailure,
				Detail: modelErr.Detail,
			}, http.StatusInternalServerError
		}
		logger.Error("chat request failed", slog.String("error", err.Error()))
		return nil, &ErrorResponse{
			Error: "internal error",
			Code:  CodeInternalError,
		}, http.StatusInternalServerError
	}

	logger.Info("chat request answered",
		slog.String("mode", envelope.Mode),
		slog.Bool("tool_called", envelope.ToolCalled),
		slog.Duration("elapsed", time.Since(start)),
	)
	return &ChatResponse{
		Response:   envelope.Response,
		ToolCalled: envelope.ToolCalled,
		ToolResult: envelope.ToolResult,
		Mode:       envelope.Mode,
	}, nil, http.StatusOK
}

// HandleChatStream handles GET /v1/chat/ws.
//
// Description:
//
//	Upgrades to a websocket. Every text frame is a ChatRequestBody and is
//	answered by one StreamFrame. A frame that fails validation or a failed
//	model call is answered with an error frame; the connection stays open.
//	The loop ends when the client closes or the request context ends.
//
// Thread Safety: Each connection is served by its own goroutine.
func (h *Handlers) HandleChatStream(c *gin.Context) {
	requestID := getOrCreateRequestID(c)
	logger := h.logger.With("request_id", requestID, "handler", "HandleChatStream")

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Debug("websocket closed", slog.String("error", err.Error()))
			}
			return
		}

		var body ChatRequestBody
		if err := json.Unmarshal(data, &body); err != nil {
			h.frames.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", "malformed")))
			if werr := conn.WriteJSON(StreamFrame{Error: &ErrorResponse{
				Error:  "malformed frame",
				Code:   CodeInvalidRequest,
				Detail: err.Error(),
			}}); werr != nil {
				return
			}
			continue
		}

		var frame StreamFrame
		outcome := "reply"
		if body.Message == nil {
			frame.Error = &ErrorResponse{Error: "message is required", Code: CodeInvalidRequest}
			outcome = "invalid"
		} else {
			reply, errResp, _ := h.answer(ctx, logger, body)
			frame.Reply, frame.Error = reply, errResp
			if errResp != nil {
				outcome = "error"
			}
		}
		h.frames.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
		if err := conn.WriteJSON(frame); err != nil {
			logger.Debug("websocket write failed", slog.String("error", err.Error()))
			return
		}
	}
}

// HandleHealth handles GET /health.
//
// Response:
//
//	200 OK: HealthResponse
func (h *Handlers) HandleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "healthy", Service: ServiceName})
}

// HandleDeveloper handles GET /developer.
func (h *Handlers) HandleDeveloper(c *gin.Context) {
	c.JSON(http.StatusOK, DeveloperResponse{Developer: DeveloperName, Project: ServiceName})
}

// HandleIndex handles GET / by serving index.html from the static assets.
//
// Response:
//
//	200 OK: text/html
//	500 Internal Server Error: index.html missing from the asset directory
func (h *Handlers) HandleIndex(c *gin.Context) {
	page, err := fs.ReadFile(h.static, "index.html")
	if err != nil {
		h.logger.Error("index page unreadable", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: "index page unavailable",
			Code:  CodeStaticAssetUnreadable,
		})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}
