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
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes registers the chat service routes on rg.
//
// Chat Endpoints:
//
//	POST /chat - Answer one message (reply envelope)
//	POST /v1/chat - Same as /chat
//	GET  /v1/chat/ws - Websocket: one request frame in, one reply frame out
//
// Web Endpoints:
//
//	GET  / - Chat page (static/index.html)
//	GET  /static/*filepath - Static assets
//
// Operational Endpoints:
//
//	GET  /health - Health check
//	GET  /developer - Developer metadata
//	GET  /metrics - Prometheus metrics
//
// Example:
//
//	handlers, _ := api.NewHandlers(orchestrator, api.HandlerOptions{})
//	router := gin.New()
//	api.RegisterRoutes(&router.RouterGroup, handlers)
func RegisterRoutes(rg *gin.RouterGroup, handlers *Handlers) {
	rg.POST("/chat", handlers.HandleChat)

	v1 := rg.Group("/v1")
	{
		v1.POST("/chat", handlers.HandleChat)
		v1.GET("/chat/ws", handlers.HandleChatStream)
	}

	rg.GET("/", handlers.HandleIndex)
	rg.StaticFS("/static", http.FS(handlers.StaticFS()))

	rg.GET("/health", handlers.HandleHealth)
	rg.GET("/developer", handlers.HandleDeveloper)
	rg.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
